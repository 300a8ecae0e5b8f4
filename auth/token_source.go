package auth

import (
	"net/http"

	"github.com/jrsteele09/go-auth-session/internal/errors"
	"golang.org/x/oauth2"
)

type tokenSource struct {
	m *Manager
}

// TokenSource returns an oauth2.TokenSource yielding the current session's ID
// token as a bearer token. It fails with ErrNoSession when anonymous and with
// ErrSessionExpired once the token has lapsed.
func (m *Manager) TokenSource() oauth2.TokenSource {
	return tokenSource{m: m}
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	s := ts.m.Current()
	if s == nil {
		return nil, errors.ErrNoSession
	}
	tok, ok := s.ValidToken(ts.m.nowTime())
	if !ok {
		return nil, errors.ErrSessionExpired
	}
	return &oauth2.Token{
		AccessToken: tok,
		TokenType:   "Bearer",
		Expiry:      s.ExpiresAt(),
	}, nil
}

// HTTPClient returns a client authorising every request with the current
// session. The token is looked up per request rather than cached, so a logout
// takes effect immediately. A nil base uses http.DefaultTransport.
func (m *Manager) HTTPClient(base http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: m.TokenSource(),
			Base:   base,
		},
	}
}
