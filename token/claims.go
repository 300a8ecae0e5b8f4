package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of ID token claims shown to users.
type Claims struct {
	Subject   string    // Provider user id
	Email     string    // Email claim, if present
	Issuer    string    // Token issuer
	Audience  []string  // Intended audiences
	IssuedAt  time.Time // Zero when absent
	ExpiresAt time.Time // Zero when absent
}

// Inspect decodes the claims of rawToken without verifying its signature.
// The result is informational only and must not be used for trust decisions.
func Inspect(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("empty token")
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}

	sub, _ := claims.GetSubject()
	iss, _ := claims.GetIssuer()
	aud, _ := claims.GetAudience()
	email, _ := claims["email"].(string)

	result := &Claims{
		Subject:  sub,
		Email:    email,
		Issuer:   iss,
		Audience: aud,
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		result.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		result.ExpiresAt = exp.Time
	}
	return result, nil
}
