package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"payflow/internal/audit"
	"payflow/internal/audit/stream"
	"payflow/internal/auth"
	authhandler "payflow/internal/auth/handler"
	"payflow/internal/jwttoken"
	payouthandler "payflow/internal/payout/handler"
	payoutservice "payflow/internal/payout/service"
	payoutstore "payflow/internal/payout/store"
	"payflow/internal/platform/config"
	"payflow/internal/platform/httpserver"
	"payflow/internal/platform/logger"
	"payflow/internal/platform/metrics"
	"payflow/internal/platform/postgres"
	platformredis "payflow/internal/platform/redis"
	httptransport "payflow/internal/transport/http"
	"payflow/internal/vendors"
	vendorhandler "payflow/internal/vendors/handler"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(cfg.Env)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when a DSN is configured, in-memory otherwise.
	var (
		payouts     payoutstore.Store
		ledger      audit.Store
		vendorStore vendors.Store
		uow         payoutservice.UnitOfWork
		users       interface {
			auth.UserStore
			auth.UserSaver
		}
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("postgres migration failed", "error", err)
			os.Exit(1)
		}
		payouts = payoutstore.NewPostgres(db)
		ledger = audit.NewPostgres(db)
		vendorStore = vendors.NewPostgres(db)
		users = auth.NewPostgresUserStore(db)
		uow = newPayoutPostgresTx(db)
		log.Info("using postgres stores")
	} else {
		payouts = payoutstore.NewInMemory()
		ledger = audit.NewInMemoryStore()
		vendorStore = vendors.NewInMemoryStore()
		users = auth.NewInMemoryUserStore()
		uow = payoutservice.NewMemoryUnitOfWork()
		log.Info("using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var cache *vendors.Directory
	if redisClient != nil {
		defer redisClient.Close()
		cache = vendors.NewDirectory(vendorStore, redisClient.Client, cfg.VendorCacheTTL, log)
		log.Info("vendor directory cache enabled")
	} else {
		cache = vendors.NewDirectory(vendorStore, nil, cfg.VendorCacheTTL, log)
	}

	// Auth: demo accounts plus JWT issuance. Seeding is idempotent, so it
	// runs unconditionally against whichever store is configured.
	if err := auth.Seed(ctx, users); err != nil {
		log.Error("user seed failed", "error", err)
		os.Exit(1)
	}
	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "payflow", "payflow-ui")
	authService := auth.NewService(users, tokens, cfg.TokenTTL, log)

	serviceOpts := []payoutservice.Option{
		payoutservice.WithLogger(log),
		payoutservice.WithMetrics(m),
	}

	// Optional Kafka mirror of the audit ledger.
	var forwarder *stream.Forwarder
	var kafkaClient *kgo.Client
	if len(cfg.KafkaBrokers) > 0 {
		kafkaClient, err = kgo.NewClient(
			kgo.SeedBrokers(cfg.KafkaBrokers...),
			kgo.DefaultProduceTopic(cfg.KafkaAuditTopic),
		)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafkaClient.Close()
		forwarder = stream.New(kafkaClient, cfg.KafkaAuditTopic, log,
			stream.WithDroppedCounter(m.IncrementAuditStreamDropped))
		serviceOpts = append(serviceOpts, payoutservice.WithAuditStream(forwarder))
		log.Info("audit kafka stream enabled", "topic", cfg.KafkaAuditTopic)
	}

	payoutSvc := payoutservice.New(uow, payouts, ledger, cache, serviceOpts...)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        m,
		TokenValidator: tokens,
		Auth:           authhandler.New(authService, log),
		Payouts:        payouthandler.New(payoutSvc, log),
		Vendors:        vendorhandler.New(vendorStore, cache, log),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting payflow", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if forwarder != nil {
		g.Go(func() error {
			if err := forwarder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
