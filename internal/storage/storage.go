package storage

import (
	"context"
)

// ArchiveStorage stores immutable JSON snapshots of finished sessions in
// object storage. Archival is best-effort: a failure never blocks or rolls
// back the finish flow.
type ArchiveStorage interface {
	// StoreSessionArchive uploads the payload and returns the object key.
	StoreSessionArchive(ctx context.Context, authorID, sessionID string, payload []byte) (string, error)

	// DeleteArchive removes a previously stored snapshot.
	DeleteArchive(ctx context.Context, objectKey string) error
}
