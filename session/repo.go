package session

// Store persists the single serialized session record.
// Only the Manager talks to a Store.
type Store interface {
	// Save replaces any prior record
	Save(s *Session) error

	// Load returns nil, nil when no record exists
	Load() (*Session, error)

	// Clear removes the record; an absent record is not an error
	Clear() error
}
