package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"gatehouse/internal/audit"
	"gatehouse/internal/operator"
	"gatehouse/internal/platform/config"
	"gatehouse/internal/platform/httpserver"
	"gatehouse/internal/platform/logger"
	"gatehouse/internal/platform/metrics"
	"gatehouse/internal/platform/postgres"
	"gatehouse/internal/platform/redis"
	"gatehouse/internal/roster"
	"gatehouse/internal/rosterclient"
	"gatehouse/internal/surface"
	transport "gatehouse/internal/transport/http"
	"gatehouse/internal/verify"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var store roster.Store
	healthChecks := []func() error{}
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := roster.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("schema setup failed", "error", err)
			os.Exit(1)
		}
		store = pg
		healthChecks = append(healthChecks, db.Ping)
		log.Info("using postgres roster store")
	} else {
		store = roster.NewMemoryStore()
		log.Warn("no DATABASE_URL set, using in-memory roster store")
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		healthChecks = append(healthChecks, func() error {
			return redisClient.Health(context.Background())
		})
	}

	var publisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		publisher = kafka
		log.Info("audit events going to kafka", "topic", cfg.AuditTopic)
	} else {
		publisher = audit.NewLogPublisher(log)
		log.Warn("no KAFKA_BROKERS set, audit events go to the log only")
	}
	defer publisher.Close()

	rosterHTTP := rosterclient.NewHTTPClient(cfg.RosterURL, cfg.RosterAPIKey)
	var memberships verify.RosterClient = rosterHTTP
	var rosterCache *rosterclient.CachedClient
	if redisClient != nil {
		rosterCache = rosterclient.NewCachedClient(rosterHTTP, redisClient, cfg.RosterCacheTTL, log)
		memberships = rosterCache
		log.Info("roster cache enabled", "ttl", cfg.RosterCacheTTL)
	}

	gateway := surface.NewClient(cfg.SurfaceURL, cfg.SurfaceToken)

	engine := verify.New(store, gateway, gateway, memberships,
		verify.Config{Roles: cfg.Roles, LoginURL: cfg.LoginURL},
		verify.WithLogger(log),
		verify.WithMetrics(m),
		verify.WithAudit(publisher),
	)

	jwtService := operator.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)

	opHandler := transport.NewOperatorHandler(store, gateway, cfg.Roles, log, publisher)
	if rosterCache != nil {
		opHandler = opHandler.WithRosterCache(rosterCache)
	}

	router := transport.NewRouter(transport.RouterDeps{
		Webhook:      transport.NewWebhookHandler(store, cfg.WebhookKey, log, m, publisher),
		Interactions: transport.NewInteractionsHandler(engine, log),
		Operator:     opHandler,
		JWT:          jwtService,
		Logger:       log,
		Metrics:      m,
		Health: func() error {
			for _, check := range healthChecks {
				if err := check(); err != nil {
					return err
				}
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gatehouse listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
