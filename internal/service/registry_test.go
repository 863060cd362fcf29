package service

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestRegistrySingleActiveSession verifies a user cannot have two different
// active sessions, while re-registering the same one is allowed.
func TestRegistrySingleActiveSession(t *testing.T) {
	registry := NewActiveSessionRegistry()
	user := primitive.NewObjectID()
	first := primitive.NewObjectID()
	second := primitive.NewObjectID()

	if !registry.Start(user, first) {
		t.Fatal("first Start should succeed")
	}
	if registry.Start(user, second) {
		t.Error("second session must be rejected while the first is active")
	}
	if !registry.Start(user, first) {
		t.Error("re-registering the active session should succeed")
	}

	if active, ok := registry.Active(user); !ok || active != first {
		t.Errorf("Active = %v, %v; want %v, true", active, ok, first)
	}

	registry.Clear(user)
	if _, ok := registry.Active(user); ok {
		t.Error("Active should report nothing after Clear")
	}
	if !registry.Start(user, second) {
		t.Error("Start should succeed after Clear")
	}
}

// TestRegistryIsolatesUsers verifies one user's active session never blocks
// another user.
func TestRegistryIsolatesUsers(t *testing.T) {
	registry := NewActiveSessionRegistry()
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()

	if !registry.Start(userA, primitive.NewObjectID()) {
		t.Fatal("userA Start should succeed")
	}
	if !registry.Start(userB, primitive.NewObjectID()) {
		t.Error("userB should be unaffected by userA's session")
	}
}
