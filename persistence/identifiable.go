package persistence

import "github.com/google/uuid"

// Identifiable is implemented by records with a single identity field.
//
// Implementations are expected to be pointer types so that SetID mutates the
// record and a nil record can be told apart from an empty one.
// Once a record is persisted its identity never changes.
type Identifiable[K comparable] interface {
	comparable
	GetID() K
	SetID(id K)
}

// IDGenerator produces a fresh identity for records created without one.
type IDGenerator[K comparable] func() K

// NewUUID generates a random (version 4) UUID string identity.
func NewUUID() string {
	return uuid.NewString()
}

// NewTimeOrderedUUID generates a time-ordered (version 7) UUID string identity.
func NewTimeOrderedUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
