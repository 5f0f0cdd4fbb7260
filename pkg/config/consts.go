package config

// EnvPrefix is intentionally empty: every field names its full env var.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "TILLPOINT_APP_ENV"
	EnvPort                   = "TILLPOINT_APP_PORT"
	EnvRedisURL               = "TILLPOINT_REDIS_URL"
	EnvJWTSecret              = "TILLPOINT_JWT_SECRET"
	EnvJWTIssuer              = "TILLPOINT_JWT_ISSUER"
	EnvJWTExpMins             = "TILLPOINT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "TILLPOINT_REFRESH_TOKEN_TTL_MINUTES"

	EnvDBDSN  = "TILLPOINT_DB_DSN"
	EnvDBHost = "TILLPOINT_DB_HOST"
	EnvDBUser = "TILLPOINT_DB_USER"
	EnvDBName = "TILLPOINT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
