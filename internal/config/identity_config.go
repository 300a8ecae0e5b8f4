package config

import (
	"os"
	"time"
)

const (
	apiKeyVar      = "FIREBASE_API_KEY"
	baseURLVar     = "IDENTITY_BASE_URL"
	projectIDVar   = "FIREBASE_PROJECT_ID"
	timeoutVar     = "IDENTITY_TIMEOUT"
	verifyTokenVar = "VERIFY_ID_TOKENS"

	DefaultIdentityBaseURL = "https://identitytoolkit.googleapis.com"
)

type Identity struct{}

var _ IdentityConfig = Identity{}

func (Identity) GetAPIKey() string {
	return GetEnv(apiKeyVar, "")
}

func (Identity) GetIdentityBaseURL() string {
	return GetEnv(baseURLVar, DefaultIdentityBaseURL)
}

func (Identity) GetProjectID() string {
	return GetEnv(projectIDVar, "")
}

// GetRequestTimeout accepts any time.ParseDuration value, e.g. "15s".
func (Identity) GetRequestTimeout() time.Duration {
	timeout, err := time.ParseDuration(os.Getenv(timeoutVar))
	if err != nil || timeout <= 0 {
		return 30 * time.Second
	}
	return timeout
}

// GetVerifyIDTokens enables signature verification of the ID token returned by
// the provider. It requires a project id.
func (i Identity) GetVerifyIDTokens() bool {
	return GetEnvBool(verifyTokenVar, false) && i.GetProjectID() != ""
}
