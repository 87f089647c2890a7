package config

const (
	EnvPrefix = "FEIRINHA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "FEIRINHA_APP_ENV"
	EnvPort     = "FEIRINHA_APP_PORT"
	EnvLogLevel = "FEIRINHA_LOG_LEVEL"

	EnvDBDSN  = "FEIRINHA_DB_DSN"
	EnvDBHost = "FEIRINHA_DB_HOST"
	EnvDBUser = "FEIRINHA_DB_USER"
	EnvDBName = "FEIRINHA_DB_NAME"

	EnvRedisURL = "FEIRINHA_REDIS_URL"

	EnvJWTSecret  = "FEIRINHA_JWT_SECRET"
	EnvJWTIssuer  = "FEIRINHA_JWT_ISSUER"
	EnvJWTExpMins = "FEIRINHA_JWT_EXPIRATION_MINUTES"

	EnvStorageEndpoint      = "FEIRINHA_STORAGE_ENDPOINT"
	EnvStorageAccessKey     = "FEIRINHA_STORAGE_ACCESS_KEY"
	EnvStorageSecretKey     = "FEIRINHA_STORAGE_SECRET_KEY"
	EnvStorageBucket        = "FEIRINHA_STORAGE_BUCKET"
	EnvStoragePublicBaseURL = "FEIRINHA_STORAGE_PUBLIC_BASE_URL"

	EnvMediaLockWait = "FEIRINHA_MEDIA_LOCK_WAIT"
	EnvEventsNATSURL = "FEIRINHA_EVENTS_NATS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
