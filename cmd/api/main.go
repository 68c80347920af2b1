package main

import (
	"context"
	"fmt"
	"glowmart-backend/config"
	"glowmart-backend/internal/delivery/http/middleware"
	v1 "glowmart-backend/internal/delivery/http/v1"
	"glowmart-backend/internal/domain"
	"glowmart-backend/internal/infrastructure/cache"
	"glowmart-backend/internal/infrastructure/mail"
	"glowmart-backend/internal/infrastructure/scheduler"
	"glowmart-backend/internal/repository/memory"
	pgrepo "glowmart-backend/internal/repository/postgres"
	"glowmart-backend/internal/usecase"
	"glowmart-backend/pkg/logger"
	"glowmart-backend/pkg/storage"
	"glowmart-backend/pkg/utils"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"golang.org/x/time/rate"
)

const serviceName = "glowmart-orders"

// repositories is what the storage driver hands to the use cases.
type repositories struct {
	orders    domain.OrderRepository
	users     domain.UserRepository
	loyalty   domain.LoyaltyRepository
	catalog   domain.ProductCatalog
	txManager domain.TransactionManager
	healthy   func(ctx context.Context) error
	close     func()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	utils.SetSecret(cfg.JWTSecret)

	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	ctx := context.Background()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Failed to initialize storage")
	}
	defer repos.close()

	// Membership cache: Redis when configured, in-process otherwise.
	membershipCache := cache.NewMemoryCache(cfg.CacheMembershipTTL, 2*cfg.CacheMembershipTTL)
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, serviceName)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		} else {
			membershipCache = redisCache
			log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis cache")
		}
	}

	var notifier domain.Notifier = mail.NoopNotifier{}
	if cfg.SMTPHost != "" {
		notifier = mail.NewNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.FrontendURL)
		log.Info().Str("host", cfg.SMTPHost).Msg("Order emails enabled")
	}

	// --- Use cases ---
	membershipUC := usecase.NewMembershipUsecase(repos.loyalty, membershipCache, cfg.CacheMembershipTTL)
	rewardsUC := usecase.NewRewardsUsecase(repos.loyalty, cfg.LoyaltyCurrencyPerPoint)
	orderUC := usecase.NewOrderUsecase(
		repos.orders,
		repos.users,
		repos.catalog,
		repos.txManager,
		rewardsUC,
		membershipUC,
		notifier,
		cfg.ReturnWindow,
	)

	// --- Storage Module (R2) ---
	var proofStore storage.ObjectStore
	if cfg.R2Enabled() {
		r2Storage, err := storage.NewR2Storage(
			ctx,
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			cfg.R2PublicURL,
			cfg.R2UploadTimeout,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 Storage")
		}
		proofStore = r2Storage
	} else {
		log.Warn().Msg("R2 not configured, payment proof uploads disabled")
	}

	jobs, err := scheduler.New(cfg.AutoCompleteSchedule, orderUC, time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}

	// --- Router ---
	mux := http.NewServeMux()
	v1.RegisterRoutes(mux, v1.Handlers{
		Order:      v1.NewOrderHandler(orderUC),
		AdminOrder: v1.NewAdminOrderHandler(orderUC),
		Membership: v1.NewMembershipHandler(membershipUC),
		Upload:     v1.NewUploadHandler(proofStore, cfg.MaxUploadSizeMB),
		Config:     v1.NewConfigHandler(cfg.LoyaltyCurrencyPerPoint),
	})

	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		hctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := repos.healthy(hctx); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "storage": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "storage": cfg.StorageDriver})
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler) // load balancers

	rateLimiter := middleware.NewRateLimiter(
		ctx,
		rate.Limit(cfg.RateLimitRPS),
		cfg.RateLimitBurst,
		time.Minute,
		3*time.Minute,
	)

	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()
	jobs.Start()
	logger.ServiceStart(serviceName, "1.0.0", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	rateLimiter.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	jobs.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := orderUC.DrainNotifications(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Pending notifications abandoned")
	}
	logger.ServiceStop(serviceName)
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		users := memory.NewUserRepository(store)
		catalog := memory.NewProductCatalog(store)
		if err := seedDemoData(ctx, cfg, users, catalog); err != nil {
			return nil, err
		}
		return &repositories{
			orders:    memory.NewOrderRepository(store),
			users:     users,
			loyalty:   users,
			catalog:   catalog,
			txManager: memory.NewTransactionManager(store),
			healthy:   func(context.Context) error { return nil },
			close:     func() {},
		}, nil

	default:
		pool, err := pgrepo.NewPgxPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.DBAutoMigrate {
			if err := pgrepo.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		logger.Info().Msg("Connected to PostgreSQL")
		users := pgrepo.NewUserRepository(pool)
		return &repositories{
			orders:    pgrepo.NewOrderRepository(pool),
			users:     users,
			loyalty:   users,
			catalog:   pgrepo.NewProductCatalog(pool),
			txManager: pgrepo.NewTransactionManager(pool),
			healthy:   pool.Ping,
			close:     pool.Close,
		}, nil
	}
}
