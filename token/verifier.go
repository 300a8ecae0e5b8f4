package token

import (
	"context"
	"crypto"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	// FirebaseIssuerPrefix is followed by the project id in Firebase ID tokens
	FirebaseIssuerPrefix = "https://securetoken.google.com/"

	// FirebaseJWKSURL publishes the keys signing Firebase ID tokens
	FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// Verifier checks an ID token's signature, issuer, audience and expiry.
type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (*Claims, error)
}

var _ Verifier = (*OIDCVerifier)(nil)

// OIDCVerifier verifies ID tokens with go-oidc.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewFirebaseVerifier verifies tokens issued for projectID against the
// provider's published signing keys.
func NewFirebaseVerifier(ctx context.Context, projectID string) *OIDCVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, FirebaseJWKSURL)
	return NewVerifier(FirebaseIssuerPrefix+projectID, projectID, keySet, time.Now)
}

// NewStaticVerifier verifies tokens against a fixed set of public keys.
func NewStaticVerifier(issuer, audience string, now func() time.Time, keys ...crypto.PublicKey) *OIDCVerifier {
	return NewVerifier(issuer, audience, &oidc.StaticKeySet{PublicKeys: keys}, now)
}

// NewVerifier builds a verifier over any oidc.KeySet.
func NewVerifier(issuer, audience string, keySet oidc.KeySet, now func() time.Time) *OIDCVerifier {
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{
			ClientID: audience,
			Now:      now,
		}),
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (*Claims, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}

	var extra struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&extra); err != nil {
		return nil, fmt.Errorf("failed to decode id token claims: %w", err)
	}

	return &Claims{
		Subject:   idToken.Subject,
		Email:     extra.Email,
		Issuer:    idToken.Issuer,
		Audience:  idToken.Audience,
		IssuedAt:  idToken.IssuedAt,
		ExpiresAt: idToken.Expiry,
	}, nil
}
