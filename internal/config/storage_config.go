package config

import "strings"

const (
	storageBackendVar = "SESSION_STORE"
	sessionKeyVar     = "SESSION_KEY"
	redisAddrVar      = "REDIS_ADDR"
	redisPasswordVar  = "REDIS_PASSWORD"
	redisDBVar        = "REDIS_DB"

	DefaultSessionKey = "userData"
)

type StorageBackend string

const (
	StorageFile  StorageBackend = "file"
	StorageRedis StorageBackend = "redis"
)

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStorageBackend() StorageBackend {
	switch StorageBackend(strings.ToLower(GetEnv(storageBackendVar, string(StorageFile)))) {
	case StorageRedis:
		return StorageRedis
	default:
		return StorageFile
	}
}

func (Storage) GetSessionKey() string {
	return GetEnv(sessionKeyVar, DefaultSessionKey)
}

func (Storage) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv(redisPasswordVar, "")
}

func (Storage) GetRedisDB() int {
	return GetEnvInt(redisDBVar, 0)
}
