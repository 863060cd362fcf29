package service

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActiveSessionRegistry enforces "at most one in-progress session per user".
// It holds only the active session id, never the session tree itself; callers
// rehydrate the full tree from the owning store when resuming, so two
// long-lived mutable copies of the same aggregate never exist.
type ActiveSessionRegistry struct {
	mu     sync.RWMutex
	active map[primitive.ObjectID]primitive.ObjectID // userID -> sessionID
}

// NewActiveSessionRegistry returns an empty registry.
func NewActiveSessionRegistry() *ActiveSessionRegistry {
	return &ActiveSessionRegistry{
		active: make(map[primitive.ObjectID]primitive.ObjectID),
	}
}

// Start records sessionID as the user's active session. Returns false if a
// different session is already active for that user.
func (r *ActiveSessionRegistry) Start(userID, sessionID primitive.ObjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.active[userID]; ok && current != sessionID {
		return false
	}
	r.active[userID] = sessionID
	return true
}

// Active returns the user's active session id, if any.
func (r *ActiveSessionRegistry) Active(userID primitive.ObjectID) (primitive.ObjectID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.active[userID]
	return id, ok
}

// Clear drops the user's active session marker.
func (r *ActiveSessionRegistry) Clear(userID primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, userID)
}
