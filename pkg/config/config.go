package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Pricing      PricingConfig
	Cart         CartConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"POSENGINE_APP_ENV" required:"true"`
	Port         string `envconfig:"POSENGINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"POSENGINE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"POSENGINE_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"POSENGINE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"POSENGINE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"POSENGINE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"POSENGINE_DB_DSN"`
	Driver string `envconfig:"POSENGINE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"POSENGINE_DB_HOST"`
	Port     int    `envconfig:"POSENGINE_DB_PORT" default:"5432"`
	User     string `envconfig:"POSENGINE_DB_USER"`
	Password string `envconfig:"POSENGINE_DB_PASSWORD"`
	Name     string `envconfig:"POSENGINE_DB_NAME"`
	SSLMode  string `envconfig:"POSENGINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"POSENGINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"POSENGINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"POSENGINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POSENGINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite store.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"POSENGINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"POSENGINE_REDIS_ADDR"`
	Password     string        `envconfig:"POSENGINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"POSENGINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POSENGINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POSENGINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POSENGINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POSENGINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"POSENGINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"POSENGINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"POSENGINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"POSENGINE_JWT_EXPIRATION_MINUTES" default:"720"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"POSENGINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"POSENGINE_AUTO_MIGRATE" default:"false"`
}

// PricingConfig holds the engine-wide pricing constants.
type PricingConfig struct {
	CashDiscountPercent   float64 `envconfig:"POSENGINE_CASH_DISCOUNT_PERCENT" default:"20"`
	MaxVariantsPerProduct int     `envconfig:"POSENGINE_MAX_VARIANTS_PER_PRODUCT" default:"500"`
}

func (p PricingConfig) validate() error {
	if p.CashDiscountPercent < 0 || p.CashDiscountPercent > 100 {
		return fmt.Errorf("%s must be between 0 and 100", EnvCashDiscountPercent)
	}
	if p.MaxVariantsPerProduct <= 0 {
		return fmt.Errorf("%s must be positive", EnvMaxVariants)
	}
	return nil
}

type CartConfig struct {
	SessionTTL time.Duration `envconfig:"POSENGINE_CART_SESSION_TTL" default:"12h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"POSENGINE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	SalesTopic     string `envconfig:"POSENGINE_PUBSUB_SALES_TOPIC" default:"pos-sales-events"`
	InventoryTopic string `envconfig:"POSENGINE_PUBSUB_INVENTORY_TOPIC" default:"pos-inventory-events"`
	CatalogTopic   string `envconfig:"POSENGINE_PUBSUB_CATALOG_TOPIC" default:"pos-catalog-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"POSENGINE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"POSENGINE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"POSENGINE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"POSENGINE_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"POSENGINE_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"POSENGINE_CRON_LOCK_TTL" default:"55m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
	}
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range splitDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
