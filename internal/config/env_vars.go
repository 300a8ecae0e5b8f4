package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/mitchellh/go-homedir"
)

const (
	appNameVar    = "APP_NAME"
	envVar        = "ENV"
	logLevelVar   = "LOG_LEVEL"
	dataFolderVar = "AUTH_DATA_FOLDER"

	defaultDataFolder = "~/.authsession"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "authsession")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, "DEV")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "warn")
}

// GetDataFolder returns the folder holding the persisted session. A leading
// "~" is expanded to the user's home directory; if that fails the path is
// resolved relative to the working directory instead.
func (EnvVars) GetDataFolder() string {
	folder := GetEnv(dataFolderVar, defaultDataFolder)
	expanded, err := homedir.Expand(folder)
	if err != nil {
		return filepath.Join(".", filepath.Base(folder))
	}
	return expanded
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt returns the integer value of envVar, or defaultValue when it is
// unset or not a number.
func GetEnvInt(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvBool returns the boolean value of envVar, or defaultValue when it is
// unset or unparsable.
func GetEnvBool(envVar string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}
