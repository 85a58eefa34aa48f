package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Orders       OrdersConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Maintenance  MaintenanceConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SABORHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"SABORHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SABORHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SABORHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"SABORHUB_DB_DSN"`
	Driver string `envconfig:"SABORHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SABORHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"SABORHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SABORHUB_DB_USER"`
	LegacyPassword string `envconfig:"SABORHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"SABORHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"SABORHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SABORHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SABORHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SABORHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SABORHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SABORHUB_REDIS_URL"`
	Address      string        `envconfig:"SABORHUB_REDIS_ADDR"`
	Password     string        `envconfig:"SABORHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"SABORHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SABORHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SABORHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SABORHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SABORHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SABORHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig only covers verification; tokens are issued by the identity service.
type JWTConfig struct {
	Secret string `envconfig:"SABORHUB_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SABORHUB_JWT_ISSUER" required:"true"`
	// ExpirationMinutes is used by the dev token minting helper.
	ExpirationMinutes int `envconfig:"SABORHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SABORHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SABORHUB_AUTO_MIGRATE" default:"false"`
}

type CartConfig struct {
	SessionTTL     time.Duration `envconfig:"SABORHUB_CART_SESSION_TTL" default:"24h"`
	MaxLines       int           `envconfig:"SABORHUB_CART_MAX_LINES" default:"50"`
	MaxQuantity    int           `envconfig:"SABORHUB_CART_MAX_QUANTITY" default:"99"`
	IdempotencyTTL time.Duration `envconfig:"SABORHUB_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
	// LockTTL bounds how long one request may hold a session cart; LockWait is how
	// long a second request queues behind it before giving up.
	LockTTL  time.Duration `envconfig:"SABORHUB_CART_LOCK_TTL" default:"5s"`
	LockWait time.Duration `envconfig:"SABORHUB_CART_LOCK_WAIT" default:"2s"`
}

type OrdersConfig struct {
	// DefaultDeliveryFee applies to delivery orders when the company has no fee of its own.
	DefaultDeliveryFee string `envconfig:"SABORHUB_ORDERS_DEFAULT_DELIVERY_FEE" default:"5.00"`
	PageSize           int    `envconfig:"SABORHUB_ORDERS_PAGE_SIZE" default:"25"`
}

// DeliveryFee parses DefaultDeliveryFee; Load has already validated it.
func (o OrdersConfig) DeliveryFee() decimal.Decimal {
	fee, err := decimal.NewFromString(strings.TrimSpace(o.DefaultDeliveryFee))
	if err != nil {
		return decimal.Zero
	}
	return fee
}

func (o OrdersConfig) validate() error {
	fee, err := decimal.NewFromString(strings.TrimSpace(o.DefaultDeliveryFee))
	if err != nil {
		return fmt.Errorf("%s: %w", EnvOrdersDefaultDeliveryFee, err)
	}
	if fee.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvOrdersDefaultDeliveryFee)
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SABORHUB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SABORHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SABORHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

// PubSubConfig leaves OrdersTopic empty to disable event publishing.
type PubSubConfig struct {
	OrdersTopic string `envconfig:"SABORHUB_PUBSUB_ORDERS_TOPIC"`
	// CreateTopic creates a missing topic on boot, for the local emulator.
	CreateTopic bool `envconfig:"SABORHUB_PUBSUB_CREATE_TOPIC" default:"false"`
}

// OutboxConfig tunes the outbox publisher loop.
type OutboxConfig struct {
	BatchSize    int           `envconfig:"SABORHUB_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"SABORHUB_OUTBOX_POLL_INTERVAL" default:"500ms"`
	MaxAttempts  int           `envconfig:"SABORHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// MaintenanceConfig drives the cron worker. Zero durations disable the matching job.
type MaintenanceConfig struct {
	Interval            time.Duration `envconfig:"SABORHUB_MAINTENANCE_INTERVAL" default:"15m"`
	OutboxRetention     time.Duration `envconfig:"SABORHUB_OUTBOX_RETENTION" default:"720h"`
	UnconfirmedOrderTTL time.Duration `envconfig:"SABORHUB_UNCONFIRMED_ORDER_TTL" default:"2h"`
	BatchSize           int           `envconfig:"SABORHUB_MAINTENANCE_BATCH_SIZE" default:"100"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SABORHUB_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// RateLimitConfig throttles the unauthenticated storefront. A zero limit disables
// that counter.
type RateLimitConfig struct {
	Window               time.Duration `envconfig:"SABORHUB_RATE_LIMIT_WINDOW" default:"1m"`
	PublicIPLimit        int           `envconfig:"SABORHUB_RATE_LIMIT_PUBLIC_IP" default:"240"`
	CheckoutIPLimit      int           `envconfig:"SABORHUB_RATE_LIMIT_CHECKOUT_IP" default:"20"`
	CheckoutSessionLimit int           `envconfig:"SABORHUB_RATE_LIMIT_CHECKOUT_SESSION" default:"5"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = "file:saborhub.db?cache=shared"
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	missing := []string{}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}
	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}
	db.DSN = u.String()
	return nil
}
