package principal

import "github.com/google/uuid"

// User is the caller identity derived from a verified bearer token. It is never persisted.
type User struct {
	ID    uuid.UUID
	Email string
}
