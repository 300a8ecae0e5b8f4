package identity

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/errors"
)

// Mode selects which provider operation an exchange performs.
type Mode int

const (
	SignIn Mode = iota
	SignUp
)

func (m Mode) String() string {
	switch m {
	case SignUp:
		return "signUp"
	case SignIn:
		return "signInWithPassword"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Exchanger trades an email and password for an identity token. It makes one
// outbound call per invocation and never retries. Errors are returned as the
// provider or transport produced them.
type Exchanger interface {
	Exchange(ctx context.Context, mode Mode, email, password string) (*Response, error)
}

// Response is the provider's answer to a successful sign up or sign in.
type Response struct {
	Kind         string `json:"kind,omitempty"`
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    string `json:"expiresIn"` // Seconds until expiry, encoded as a string
	LocalID      string `json:"localId"`
	Registered   bool   `json:"registered,omitempty"`
}

// ExpiresInDuration parses ExpiresIn into a Duration.
func (r *Response) ExpiresInDuration() (time.Duration, error) {
	seconds, err := strconv.ParseInt(strings.TrimSpace(r.ExpiresIn), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidExpiry, "expiresIn %q", r.ExpiresIn)
	}
	if seconds <= 0 {
		return 0, errors.Wrapf(errors.ErrInvalidExpiry, "expiresIn %d", seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

// ErrorBody is the structured error payload returned by the provider.
type ErrorBody struct {
	Error *ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Errors  []ErrorReason `json:"errors,omitempty"`
}

type ErrorReason struct {
	Message string `json:"message"`
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
}

// ProviderError represents a non-2xx response from the provider. Body is nil
// when the payload was not a structured provider error.
type ProviderError struct {
	StatusCode int
	Body       *ErrorBody
}

func (e *ProviderError) Error() string {
	if e.Body != nil && e.Body.Error != nil && e.Body.Error.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body.Error.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Code returns the provider's error code, or "" when the body is unstructured.
func (e *ProviderError) Code() string {
	if e.Body == nil || e.Body.Error == nil {
		return ""
	}
	return e.Body.Error.Message
}
