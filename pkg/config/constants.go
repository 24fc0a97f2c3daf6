package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	PaymentProviderSimulated = "simulated"
	PaymentProviderStripe    = "stripe"
)

const (
	CartStoreRedis  = "redis"
	CartStoreMemory = "memory"
)

const (
	EnvAppEnv                 = "STOREFRONT_APP_ENV"
	EnvPort                   = "STOREFRONT_APP_PORT"
	EnvLogLevel               = "STOREFRONT_LOG_LEVEL"
	EnvDBDSN                  = "STOREFRONT_DB_DSN"
	EnvDBHost                 = "STOREFRONT_DB_HOST"
	EnvDBUser                 = "STOREFRONT_DB_USER"
	EnvDBName                 = "STOREFRONT_DB_NAME"
	EnvUseSQLite              = "STOREFRONT_USE_SQLITE"
	EnvRedisURL               = "STOREFRONT_REDIS_URL"
	EnvJWTSecret              = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer              = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins             = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "STOREFRONT_REFRESH_TOKEN_TTL_MINUTES"
	EnvCheckoutTaxRate        = "STOREFRONT_CHECKOUT_TAX_RATE"
	EnvCheckoutFreeShipping   = "STOREFRONT_CHECKOUT_FREE_SHIPPING_THRESHOLD"
	EnvCheckoutFlatShipping   = "STOREFRONT_CHECKOUT_FLAT_SHIPPING"
	EnvPaymentsProvider       = "STOREFRONT_PAYMENTS_PROVIDER"
	EnvPaymentsTimeout        = "STOREFRONT_PAYMENTS_TIMEOUT"
	EnvPaymentsMaxRetries     = "STOREFRONT_PAYMENTS_MAX_RETRIES"
	EnvStripeAPIKey           = "STOREFRONT_STRIPE_API_KEY"
	EnvCartStore              = "STOREFRONT_CART_STORE"
	EnvOrdersAllowAny         = "STOREFRONT_ORDERS_ALLOW_ANY_TRANSITION"
	EnvGCPProjectID           = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic      = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
	EnvOutboxEnabled          = "STOREFRONT_OUTBOX_ENABLED"
	EnvOutboxBatchSize        = "STOREFRONT_OUTBOX_BATCH_SIZE"
	EnvOutboxMaxAttempts      = "STOREFRONT_OUTBOX_MAX_ATTEMPTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
