package config

import (
	"os"
	"path/filepath"
	"strconv"
)

const (
	apiURLEnvVar     = "PORTAL_API_URL"
	dataDirEnvVar    = "PORTAL_DATA_DIR"
	tokenStoreEnvVar = "PORTAL_TOKEN_STORE"
	timeoutEnvVar    = "PORTAL_HTTP_TIMEOUT"
	appNameVar       = "APP_NAME"
)

// Token store backends selectable via PORTAL_TOKEN_STORE.
const (
	TokenStoreFile   = "file"
	TokenStoreSQLite = "sqlite"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiURLEnvVar, "http://localhost:8000")
}

// GetDataDir returns where tokens and local state live, defaulting to
// ~/.portalctl.
func (EnvVars) GetDataDir() string {
	if dir := os.Getenv(dataDirEnvVar); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".portalctl"
	}
	return filepath.Join(home, ".portalctl")
}

func (EnvVars) GetTokenStore() string {
	store := GetEnv(tokenStoreEnvVar, TokenStoreFile)
	if store != TokenStoreFile && store != TokenStoreSQLite {
		return TokenStoreFile
	}
	return store
}

func (EnvVars) GetHTTPTimeoutSeconds() int {
	raw := GetEnv(timeoutEnvVar, "30")
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 30
	}
	return seconds
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Portal Client")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
