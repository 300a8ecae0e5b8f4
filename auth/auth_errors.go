package auth

import (
	"strings"

	"github.com/jrsteele09/go-auth-session/identity"
	"github.com/jrsteele09/go-auth-session/internal/errors"
)

// Kind is the closed set of user facing authentication failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmailExists
	KindEmailNotFound
	KindInvalidPassword
)

// User facing messages for each Kind
const (
	MessageUnknown         = "An unknown error has occurred"
	MessageEmailExists     = "Email Id already exists"
	MessageEmailNotFound   = "Email Id does not exist!"
	MessageInvalidPassword = "Password is incorrect!"
)

// Provider error codes
const (
	codeEmailExists     = "EMAIL_EXISTS"
	codeEmailNotFound   = "EMAIL_NOT_FOUND"
	codeInvalidPassword = "INVALID_PASSWORD"
)

func (k Kind) String() string {
	switch k {
	case KindEmailExists:
		return "EmailExists"
	case KindEmailNotFound:
		return "EmailNotFound"
	case KindInvalidPassword:
		return "InvalidPassword"
	default:
		return "Unknown"
	}
}

// ClassifiedError is a provider or transport failure reduced to a Kind and a
// message that is safe to show to users.
type ClassifiedError struct {
	Kind    Kind
	Message string
}

func (e *ClassifiedError) Error() string {
	return e.Message
}

func newClassifiedError(kind Kind) *ClassifiedError {
	switch kind {
	case KindEmailExists:
		return &ClassifiedError{Kind: kind, Message: MessageEmailExists}
	case KindEmailNotFound:
		return &ClassifiedError{Kind: kind, Message: MessageEmailNotFound}
	case KindInvalidPassword:
		return &ClassifiedError{Kind: kind, Message: MessageInvalidPassword}
	default:
		return &ClassifiedError{Kind: KindUnknown, Message: MessageUnknown}
	}
}

// Classify maps any error from a credential exchange to a ClassifiedError.
// It is total: unrecognised or unstructured errors become KindUnknown, and the
// provider's own text is never passed through.
func Classify(err error) *ClassifiedError {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	var perr *identity.ProviderError
	if !errors.As(err, &perr) {
		return newClassifiedError(KindUnknown)
	}

	// The provider may append detail, e.g. "WEAK_PASSWORD : Password should be ..."
	code, _, _ := strings.Cut(perr.Code(), " : ")
	switch strings.TrimSpace(code) {
	case codeEmailExists:
		return newClassifiedError(KindEmailExists)
	case codeEmailNotFound:
		return newClassifiedError(KindEmailNotFound)
	case codeInvalidPassword:
		return newClassifiedError(KindInvalidPassword)
	default:
		return newClassifiedError(KindUnknown)
	}
}

// IsKind reports whether err is a ClassifiedError of the given kind.
func IsKind(err error, kind Kind) bool {
	var classified *ClassifiedError
	return errors.As(err, &classified) && classified.Kind == kind
}
