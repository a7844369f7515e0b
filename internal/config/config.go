package config

type Config interface {
	EnvConfig
}

type EnvConfig interface {
	GetAPIBaseURL() string
	GetDataDir() string
	GetTokenStore() string
	GetHTTPTimeoutSeconds() int
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
