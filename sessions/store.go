package sessions

import "context"

// Store persists at most one session record.
type Store interface {
	// Save overwrites any previously stored record with s
	Save(ctx context.Context, s *Session) error

	// Load returns the stored record, or nil when there is none or it cannot be
	// read. It never fails: an unusable record is the same as no record.
	Load(ctx context.Context) *Record

	// Clear removes the stored record; clearing an empty store is not an error
	Clear(ctx context.Context) error
}
