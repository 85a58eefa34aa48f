package config

const EnvPrefix = "SABORHUB"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "SABORHUB_APP_ENV"
	EnvPort     = "SABORHUB_APP_PORT"
	EnvLogLevel = "SABORHUB_LOG_LEVEL"

	EnvDBDSN      = "SABORHUB_DB_DSN"
	EnvDBHost     = "SABORHUB_DB_HOST"
	EnvDBPort     = "SABORHUB_DB_PORT"
	EnvDBUser     = "SABORHUB_DB_USER"
	EnvDBPassword = "SABORHUB_DB_PASSWORD"
	EnvDBName     = "SABORHUB_DB_NAME"

	EnvRedisURL = "SABORHUB_REDIS_URL"

	EnvJWTSecret  = "SABORHUB_JWT_SECRET"
	EnvJWTIssuer  = "SABORHUB_JWT_ISSUER"
	EnvJWTExpMins = "SABORHUB_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite   = "SABORHUB_USE_SQLITE"
	EnvAutoMigrate = "SABORHUB_AUTO_MIGRATE"

	EnvCartSessionTTL = "SABORHUB_CART_SESSION_TTL"
	EnvCartMaxLines   = "SABORHUB_CART_MAX_LINES"

	EnvOrdersDefaultDeliveryFee = "SABORHUB_ORDERS_DEFAULT_DELIVERY_FEE"

	EnvGCPProjectID      = "SABORHUB_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "SABORHUB_PUBSUB_ORDERS_TOPIC"

	EnvOutboxBatchSize    = "SABORHUB_OUTBOX_BATCH_SIZE"
	EnvOutboxPollInterval = "SABORHUB_OUTBOX_POLL_INTERVAL"
	EnvOutboxMaxAttempts  = "SABORHUB_OUTBOX_MAX_ATTEMPTS"

	EnvMaintenanceInterval  = "SABORHUB_MAINTENANCE_INTERVAL"
	EnvOutboxRetention      = "SABORHUB_OUTBOX_RETENTION"
	EnvUnconfirmedOrderTTL  = "SABORHUB_UNCONFIRMED_ORDER_TTL"
	EnvMaintenanceBatchSize = "SABORHUB_MAINTENANCE_BATCH_SIZE"

	EnvCORSAllowedOrigins = "SABORHUB_CORS_ALLOWED_ORIGINS"
	EnvRateLimitWindow    = "SABORHUB_RATE_LIMIT_WINDOW"
)

// legacyDBEnvVars must all be set when no DSN is provided.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
