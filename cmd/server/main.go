// Command server wires the studio backend: identity, catalog, pass ledger,
// the check-in engine and statistics, behind one chi router. Business logic
// lives in the internal service packages; main only assembles and runs.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cataloghandler "impact/internal/catalog/handler"
	catalogservice "impact/internal/catalog/service"
	catalogstore "impact/internal/catalog/store"
	checkinhandler "impact/internal/checkin/handler"
	checkinmetrics "impact/internal/checkin/metrics"
	checkinservice "impact/internal/checkin/service"
	checkinstore "impact/internal/checkin/store"
	"impact/internal/credential"
	identityhandler "impact/internal/identity/handler"
	"impact/internal/identity/lockout"
	identityservice "impact/internal/identity/service"
	"impact/internal/identity/store/confirmation"
	memberstore "impact/internal/identity/store/member"
	"impact/internal/jwttoken"
	"impact/internal/platform/config"
	"impact/internal/platform/httpserver"
	"impact/internal/platform/logger"
	"impact/internal/platform/metrics"
	"impact/internal/platform/middleware"
	"impact/internal/platform/postgres"
	platformredis "impact/internal/platform/redis"
	passhandler "impact/internal/passes/handler"
	passservice "impact/internal/passes/service"
	passstore "impact/internal/passes/store"
	statshandler "impact/internal/stats/handler"
	statsservice "impact/internal/stats/service"
	statsstore "impact/internal/stats/store"
	"impact/pkg/email"
	"impact/pkg/platform/events"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	platformMetrics := metrics.New()
	engineMetrics := checkinmetrics.New()

	stores, err := openStores(cfg, log)
	if err != nil {
		return err
	}
	defer stores.close()

	confirmations, lockouts, err := openSessionState(cfg, log)
	if err != nil {
		return err
	}

	publisher, err := events.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic, log)
	if err != nil {
		return err
	}
	if publisher != nil {
		if err := publisher.EnsureTopic(ctx); err != nil {
			return err
		}
		defer publisher.Close()
		go func() {
			if err := publisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event publisher stopped", "error", err)
			}
		}()
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	sender := email.NewSender(cfg.Email.Enabled, cfg.Email.Host, cfg.Email.Port, cfg.Email.From, cfg.Email.Password, cfg.Email.BaseURL, log)
	qr := credential.NewQRRenderer(cfg.Issuer.QROutputDir)

	identitySvc := identityservice.New(stores.members, confirmations, jwtService, sender, qr,
		identityservice.Config{
			CardIDLength:   cfg.Issuer.CardIDLength,
			SessionTTL:     cfg.Auth.SessionTTL,
			UnconfirmedTTL: cfg.UnconfirmedTTL,
		},
		identityservice.WithLogger(log),
		identityservice.WithMetrics(platformMetrics),
		identityservice.WithLockout(lockout.New(lockouts, lockout.DefaultConfig(), lockout.WithLogger(log))),
	)
	catalogSvc := catalogservice.New(stores.catalog, catalogservice.WithLogger(log))
	passSvc := passservice.New(stores.passes, stores.catalog,
		passservice.WithLogger(log),
		passservice.WithMetrics(platformMetrics),
	)
	checkinSvc := checkinservice.New(stores.passes, stores.audit, stores.members, stores.catalog,
		checkinservice.WithLogger(log),
		checkinservice.WithMetrics(engineMetrics),
		checkinservice.WithEventPublisher(publisher),
	)
	statsSvc := statsservice.New(stores.stats, statsservice.WithLogger(log))

	if err := identitySvc.EnsureRoot(ctx, cfg.Root.Name, cfg.Root.Surname, cfg.Root.Email, cfg.Root.Username, cfg.Root.Password); err != nil {
		return err
	}
	go runSweep(ctx, log, identitySvc, cfg.UnconfirmedSweepEvery)

	router := buildRouter(log, platformMetrics, jwtService, cfg.Server.RequestTimeout,
		identityhandler.New(identitySvc, log),
		cataloghandler.New(catalogSvc, log),
		passhandler.New(passSvc, log),
		checkinhandler.New(checkinSvc, log),
		statshandler.New(statsSvc, log),
	)

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildRouter(
	log *slog.Logger,
	m *metrics.Metrics,
	jwtService *jwttoken.JWTService,
	requestTimeout time.Duration,
	identity *identityhandler.Handler,
	catalog *cataloghandler.Handler,
	passes *passhandler.Handler,
	checkin *checkinhandler.Handler,
	stats *statshandler.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(requestTimeout))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		identity.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log))
		identity.RegisterProtected(r)
		catalog.Register(r)
		passes.Register(r)
		checkin.Register(r)
		stats.Register(r)
	})

	return r
}

// storeSet bundles the concrete stores behind the service interfaces. With
// no database URLs configured everything runs in memory, which is the
// development default.
type storeSet struct {
	members memberstore.Store
	catalog catalogstore.Store
	passes  passstore.Store
	audit   checkinstore.Store
	stats   statsstore.Store

	closers []func() error
}

func (s *storeSet) close() {
	for _, c := range s.closers {
		_ = c()
	}
}

func openStores(cfg config.Config, log *slog.Logger) (*storeSet, error) {
	if cfg.Stores.IdentityURL == "" {
		log.Warn("no identity database configured, using in-memory stores")
		members := memberstore.NewInMemoryStore()
		audit := checkinstore.NewInMemoryStore()
		return &storeSet{
			members: members,
			catalog: catalogstore.NewInMemoryStore(),
			passes:  passstore.NewInMemoryStore(members),
			audit:   audit,
			stats:   statsstore.NewInMemoryStore(audit),
		}, nil
	}

	identityDB, err := postgres.Open(cfg.Stores.IdentityURL)
	if err != nil {
		return nil, err
	}
	auditDB, err := postgres.Open(cfg.Stores.AuditURL)
	if err != nil {
		_ = identityDB.Close()
		return nil, err
	}
	return &storeSet{
		members: memberstore.NewPostgres(identityDB),
		catalog: catalogstore.NewPostgres(identityDB),
		passes:  passstore.NewPostgres(identityDB),
		audit:   checkinstore.NewPostgres(auditDB),
		stats:   statsstore.NewPostgres(auditDB),
		closers: []func() error{identityDB.Close, auditDB.Close},
	}, nil
}

// openSessionState picks the backing for the short-lived identity state:
// confirmation tokens and login lockout counters.
func openSessionState(cfg config.Config, log *slog.Logger) (confirmation.Store, lockout.Store, error) {
	if cfg.Redis.URL == "" {
		log.Warn("no redis configured, keeping confirmation tokens and lockout state in memory")
		return confirmation.NewInMemoryStore(), lockout.NewInMemoryStore(), nil
	}
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return confirmation.NewRedisStore(client.Client), lockout.NewRedisStore(client.Client), nil
}

func runSweep(ctx context.Context, log *slog.Logger, svc *identityservice.Service, every time.Duration) {
	if every <= 0 {
		every = 6 * time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.SweepUnconfirmed(ctx); err != nil {
				log.Error("unconfirmed member sweep failed", "error", err)
			}
		}
	}
}
