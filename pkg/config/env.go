package config

const EnvPrefix = "POSENGINE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:posengine.db?cache=shared&_busy_timeout=5000"
)

const (
	EnvAppEnv = "POSENGINE_APP_ENV"
	EnvPort   = "POSENGINE_APP_PORT"

	EnvDBDSN    = "POSENGINE_DB_DSN"
	EnvDBDriver = "POSENGINE_DB_DRIVER"
	EnvDBHost   = "POSENGINE_DB_HOST"
	EnvDBUser   = "POSENGINE_DB_USER"
	EnvDBName   = "POSENGINE_DB_NAME"

	EnvRedisURL = "POSENGINE_REDIS_URL"

	EnvJWTSecret  = "POSENGINE_JWT_SECRET"
	EnvJWTIssuer  = "POSENGINE_JWT_ISSUER"
	EnvJWTExpMins = "POSENGINE_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite = "POSENGINE_USE_SQLITE"

	EnvCashDiscountPercent = "POSENGINE_CASH_DISCOUNT_PERCENT"
	EnvMaxVariants         = "POSENGINE_MAX_VARIANTS_PER_PRODUCT"
	EnvCartSessionTTL      = "POSENGINE_CART_SESSION_TTL"

	EnvGCPProjectID        = "POSENGINE_GCP_PROJECT_ID"
	EnvPubSubSalesTopic    = "POSENGINE_PUBSUB_SALES_TOPIC"
	EnvOutboxRetentionDays = "POSENGINE_OUTBOX_RETENTION_DAYS"
)

var splitDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
