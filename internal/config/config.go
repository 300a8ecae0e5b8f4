package config

import "time"

type Config interface {
	EnvConfig
	IdentityConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetDataFolder() string
}

type IdentityConfig interface {
	GetAPIKey() string
	GetIdentityBaseURL() string
	GetProjectID() string
	GetRequestTimeout() time.Duration
	GetVerifyIDTokens() bool
}

type StorageConfig interface {
	GetStorageBackend() StorageBackend
	GetSessionKey() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type mainConfig struct {
	EnvVars
	Identity
	Storage
}

func New() Config {
	return mainConfig{}
}
