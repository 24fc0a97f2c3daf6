package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Checkout      CheckoutConfig
	Payments      PaymentsConfig
	Stripe        StripeConfig
	Cart          CartConfig
	Orders        OrdersConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var err error
	if !c.FeatureFlags.UseSQLite {
		err = multierr.Append(err, c.DB.ensureDSN())
	}
	err = multierr.Append(err, c.Checkout.validate())
	err = multierr.Append(err, c.Payments.validate())
	if c.Payments.Provider == PaymentProviderStripe && strings.TrimSpace(c.Stripe.APIKey) == "" {
		err = multierr.Append(err, fmt.Errorf("%s is required when payments provider is stripe", EnvStripeAPIKey))
	}
	if c.PubSub.OrdersTopic != "" && strings.TrimSpace(c.GCP.ProjectID) == "" {
		err = multierr.Append(err, fmt.Errorf("%s is required when %s is set", EnvGCPProjectID, EnvPubSubOrdersTopic))
	}
	if c.Outbox.Enabled {
		if c.Outbox.BatchSize <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvOutboxBatchSize))
		}
		if c.Outbox.MaxAttempts <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvOutboxMaxAttempts))
		}
	}
	return err
}

type AppConfig struct {
	Env          string   `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string   `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"STOREFRONT_SQLITE_PATH" default:"storefront.db"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"STOREFRONT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite    bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate  bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
	SeedDemoData bool `envconfig:"STOREFRONT_SEED_DEMO_DATA" default:"false"`
}

// CheckoutConfig holds the pricing policy. Money values are decimal dollars.
type CheckoutConfig struct {
	TaxRate               string `envconfig:"STOREFRONT_CHECKOUT_TAX_RATE" default:"0.08"`
	FreeShippingThreshold string `envconfig:"STOREFRONT_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"50.00"`
	FlatShipping          string `envconfig:"STOREFRONT_CHECKOUT_FLAT_SHIPPING" default:"9.99"`
}

func (c CheckoutConfig) validate() error {
	var err error
	for env, value := range map[string]string{
		EnvCheckoutTaxRate:      c.TaxRate,
		EnvCheckoutFreeShipping: c.FreeShippingThreshold,
		EnvCheckoutFlatShipping: c.FlatShipping,
	} {
		d, parseErr := decimal.NewFromString(strings.TrimSpace(value))
		if parseErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", env, parseErr))
			continue
		}
		if d.IsNegative() {
			err = multierr.Append(err, fmt.Errorf("%s must not be negative", env))
		}
	}
	return err
}

// TaxRateDecimal returns the configured tax rate.
func (c CheckoutConfig) TaxRateDecimal() decimal.Decimal {
	return decimal.RequireFromString(strings.TrimSpace(c.TaxRate))
}

// FreeShippingThresholdCents returns the threshold above which shipping is free.
func (c CheckoutConfig) FreeShippingThresholdCents() int64 {
	return dollarsToCents(c.FreeShippingThreshold)
}

// FlatShippingCents returns the shipping fee charged below the threshold.
func (c CheckoutConfig) FlatShippingCents() int64 {
	return dollarsToCents(c.FlatShipping)
}

func dollarsToCents(value string) int64 {
	d := decimal.RequireFromString(strings.TrimSpace(value))
	return d.Shift(2).Round(0).IntPart()
}

type PaymentsConfig struct {
	Provider       string        `envconfig:"STOREFRONT_PAYMENTS_PROVIDER" default:"simulated"`
	Timeout        time.Duration `envconfig:"STOREFRONT_PAYMENTS_TIMEOUT" default:"10s"`
	MaxRetries     int           `envconfig:"STOREFRONT_PAYMENTS_MAX_RETRIES" default:"2"`
	BaseBackoff    time.Duration `envconfig:"STOREFRONT_PAYMENTS_BASE_BACKOFF" default:"200ms"`
	RatePerSecond  float64       `envconfig:"STOREFRONT_PAYMENTS_RATE_PER_SECOND" default:"20"`
	RateBurst      int           `envconfig:"STOREFRONT_PAYMENTS_RATE_BURST" default:"10"`
	SimulatedDelay time.Duration `envconfig:"STOREFRONT_PAYMENTS_SIMULATED_DELAY" default:"2s"`
}

func (p PaymentsConfig) validate() error {
	var err error
	switch p.NormalizedProvider() {
	case PaymentProviderSimulated, PaymentProviderStripe:
	default:
		err = multierr.Append(err, fmt.Errorf("%s must be %q or %q", EnvPaymentsProvider, PaymentProviderSimulated, PaymentProviderStripe))
	}
	if p.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvPaymentsTimeout))
	}
	if p.MaxRetries < 0 {
		err = multierr.Append(err, fmt.Errorf("%s must not be negative", EnvPaymentsMaxRetries))
	}
	return err
}

// NormalizedProvider returns the lower-cased provider name.
func (p PaymentsConfig) NormalizedProvider() string {
	return strings.ToLower(strings.TrimSpace(p.Provider))
}

type StripeConfig struct {
	APIKey string `envconfig:"STOREFRONT_STRIPE_API_KEY"`
	Env    string `envconfig:"STOREFRONT_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CartConfig struct {
	Store string        `envconfig:"STOREFRONT_CART_STORE" default:"redis"`
	TTL   time.Duration `envconfig:"STOREFRONT_CART_TTL" default:"720h"`
}

type OrdersConfig struct {
	AllowAnyTransition bool `envconfig:"STOREFRONT_ORDERS_ALLOW_ANY_TRANSITION" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"STOREFRONT_PUBSUB_ORDERS_TOPIC"`
}

// Enabled reports whether order events should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.OrdersTopic) != ""
}

// OutboxConfig controls the transactional order-event outbox. When enabled the
// API records events next to the order rows and outbox-publisher relays them.
type OutboxConfig struct {
	Enabled      bool          `envconfig:"STOREFRONT_OUTBOX_ENABLED" default:"false"`
	BatchSize    int           `envconfig:"STOREFRONT_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"STOREFRONT_OUTBOX_POLL_INTERVAL" default:"500ms"`
	MaxAttempts  int           `envconfig:"STOREFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
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
