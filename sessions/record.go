package sessions

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/errors"
)

// Record is the durable projection of a Session. The JSON field names are
// kept compatible with records written by earlier browser clients.
type Record struct {
	Email               string `json:"email"`
	ID                  string `json:"id"`
	Token               string `json:"_token"`
	TokenExpirationDate string `json:"_tokenExpirationDate"`
}

// NewRecord projects s into its stored form.
func NewRecord(s *Session) Record {
	return Record{
		Email:               s.Email(),
		ID:                  s.UserID(),
		Token:               s.Token(),
		TokenExpirationDate: s.ExpiresAt().UTC().Format(time.RFC3339Nano),
	}
}

// ParseRecord decodes a stored record. Any decoding problem is reported as
// ErrInvalidRecord.
func ParseRecord(data []byte) (*Record, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidRecord, "empty record")
	}
	var rec *Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRecord, "decode: %s", err.Error())
	}
	if rec == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRecord, "null record")
	}
	return rec, nil
}

// Marshal encodes the record as JSON.
func (r Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// FromRecord rebuilds a Session from an untrusted stored record. A record with
// any field missing or an unparsable expiration date is rejected.
func FromRecord(r *Record) (*Session, error) {
	if r == nil {
		return nil, errors.ErrInvalidRecord
	}
	switch {
	case r.Email == "":
		return nil, errors.Wrapf(errors.ErrMissingField, "email")
	case r.ID == "":
		return nil, errors.Wrapf(errors.ErrMissingField, "id")
	case r.Token == "":
		return nil, errors.Wrapf(errors.ErrMissingField, "_token")
	case r.TokenExpirationDate == "":
		return nil, errors.Wrapf(errors.ErrMissingField, "_tokenExpirationDate")
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, r.TokenExpirationDate)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRecord, "expiration date %q", r.TokenExpirationDate)
	}
	return New(r.Email, r.ID, r.Token, expiresAt), nil
}
