package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api"
	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/analytics"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/seed"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

type closer func() error

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	closers = append(closers, redisClient.Close)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	policy := pricing.PolicyFromConfig(cfg.Checkout)

	productService, err := product.NewService(product.NewRepository(dbClient.DB()))
	if err != nil {
		return fmt.Errorf("create product service: %w", err)
	}

	publisher, err := orderPublisher(ctx, cfg, logg, &closers)
	if err != nil {
		return err
	}
	orderParams := orders.ServiceParams{
		Repo:               orders.NewRepository(dbClient.DB()),
		Tx:                 dbClient,
		Publisher:          publisher,
		Logger:             logg,
		AllowAnyTransition: cfg.Orders.AllowAnyTransition,
	}
	if cfg.Outbox.Enabled {
		queue, err := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
		if err != nil {
			return fmt.Errorf("create outbox: %w", err)
		}
		orderParams.Outbox = queue
	}
	orderService, err := orders.NewService(orderParams)
	if err != nil {
		return fmt.Errorf("create order service: %w", err)
	}

	analyticsService, err := analytics.NewService(orderService, productService)
	if err != nil {
		return fmt.Errorf("create analytics service: %w", err)
	}

	userRepo := users.NewRepository(dbClient.DB())
	userService, err := users.NewService(userRepo, analyticsService)
	if err != nil {
		return fmt.Errorf("create user service: %w", err)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}

	cartStore, err := newCartStore(cfg.Cart, redisClient)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartStore, productService, policy)
	if err != nil {
		return fmt.Errorf("create cart service: %w", err)
	}

	paymentClient, err := newPaymentClient(ctx, cfg, logg, checkoutMetrics)
	if err != nil {
		return err
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Cart:     cartService,
		Catalog:  productService,
		Orders:   orderService,
		Payments: paymentClient,
		Metrics:  checkoutMetrics,
		Logger:   logg,
	})
	if err != nil {
		return fmt.Errorf("create checkout service: %w", err)
	}

	if cfg.FeatureFlags.SeedDemoData {
		result, err := seed.Run(ctx, seed.Deps{DB: dbClient, Password: cfg.Password, Pricing: policy, Logger: logg})
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"products": result.Products,
			"users":    result.Users,
			"orders":   result.Orders,
		}), "demo data seeded")
	}

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
		Auth:      authService,
		Users:     userService,
		Products:  productService,
		Cart:      cartService,
		Checkout:  checkoutService,
		Orders:    orderService,
		Analytics: analyticsService,
	}, routes.Observability{
		HTTP:    httpMetrics,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})

	addr := ":" + cfg.App.Port
	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":              cfg.App.Env,
		"addr":             addr,
		"payment_provider": cfg.Payments.NormalizedProvider(),
		"cart_store":       cfg.Cart.Store,
	}), "starting api server")

	return api.NewServer(addr, handler, logg).Run(ctx)
}

func orderPublisher(ctx context.Context, cfg *config.Config, logg *logger.Logger, closers *[]closer) (orders.Publisher, error) {
	if !cfg.PubSub.Enabled() || cfg.Outbox.Enabled {
		return orders.NoopPublisher{}, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap pubsub: %w", err)
	}
	*closers = append(*closers, client.Close)
	publisher, err := orders.NewPubSubPublisher(client, cfg.PubSub.OrdersTopic)
	if err != nil {
		return nil, fmt.Errorf("create order publisher: %w", err)
	}
	return publisher, nil
}

func newCartStore(cfg config.CartConfig, client *redis.Client) (cart.Store, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.Store), config.CartStoreMemory) {
		return cart.NewMemoryStore(), nil
	}
	store, err := cart.NewRedisStore(client, cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("create cart store: %w", err)
	}
	return store, nil
}

func newPaymentClient(ctx context.Context, cfg *config.Config, logg *logger.Logger, m *metrics.CheckoutMetrics) (*payments.Client, error) {
	var gateway payments.Gateway
	switch cfg.Payments.NormalizedProvider() {
	case config.PaymentProviderStripe:
		stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap stripe: %w", err)
		}
		gateway, err = payments.NewStripeGateway(stripeClient.PaymentIntents())
		if err != nil {
			return nil, fmt.Errorf("create stripe gateway: %w", err)
		}
	default:
		gateway = payments.NewSimulatedGateway(cfg.Payments.SimulatedDelay)
	}

	opts := payments.OptionsFromConfig(cfg.Payments, logg)
	opts.Observer = checkout.ObservePaymentAttempts(m)
	client, err := payments.NewClient(gateway, opts)
	if err != nil {
		return nil, fmt.Errorf("create payment client: %w", err)
	}
	return client, nil
}
