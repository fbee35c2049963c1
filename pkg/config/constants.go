package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "SHOPSYNC"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "SHOPSYNC_DB_DSN"
	EnvDBHost = "SHOPSYNC_DB_HOST"
	EnvDBUser = "SHOPSYNC_DB_USER"
	EnvDBName = "SHOPSYNC_DB_NAME"

	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
