package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"civicproof/internal/identity"
	identitystore "civicproof/internal/identity/store"
	"civicproof/internal/imagefetch"
	"civicproof/internal/imagehash"
	jwttoken "civicproof/internal/jwt_token"
	"civicproof/internal/oracle"
	"civicproof/internal/platform/config"
	platformkafka "civicproof/internal/platform/kafka"
	platformmetrics "civicproof/internal/platform/metrics"
	platformpg "civicproof/internal/platform/postgres"
	platformredis "civicproof/internal/platform/redis"
	ratelimitmetrics "civicproof/internal/ratelimit/metrics"
	ratelimitmw "civicproof/internal/ratelimit/middleware"
	ratelimitmodels "civicproof/internal/ratelimit/models"
	ratelimitredis "civicproof/internal/ratelimit/store/redis"
	"civicproof/internal/storage"
	"civicproof/internal/verification"
	"civicproof/internal/verification/adapters"
	"civicproof/internal/verification/handler"
	vermetrics "civicproof/internal/verification/metrics"
	"civicproof/internal/verification/ports"
	verpostgres "civicproof/internal/verification/store/postgres"
	vermemory "civicproof/internal/verification/store/memory"
	"civicproof/pkg/platform/audit"
	"civicproof/pkg/platform/audit/publisher"
	auditkafka "civicproof/pkg/platform/audit/store/kafka"
	auditmemory "civicproof/pkg/platform/audit/store/memory"
	auditpostgres "civicproof/pkg/platform/audit/store/postgres"
	"civicproof/pkg/platform/circuit"
)

// app holds the wired router and the resources to release on shutdown.
type app struct {
	router  http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type stores struct {
	reports     ports.ReportStore
	submissions ports.SubmissionStore
	workers     identity.Store
	audit       audit.Store
}

func buildApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{}
	health := map[string]HealthCheck{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	st, db, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if db != nil {
		a.closers = append(a.closers, func() { _ = db.Close() })
		health["postgres"] = db.PingContext
	}

	auditOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		publisher.WithCircuitBreaker(cfg.Audit.BreakerThreshold, cfg.Audit.BreakerCooldown),
		publisher.WithSink("security_logs", st.audit),
	}
	kafkaClient, err := platformkafka.New(ctx, cfg.Kafka)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	if kafkaClient != nil {
		if err := kafkaClient.EnsureTopic(ctx, cfg.Kafka.AuditTopic, 3, 1); err != nil {
			log.WarnContext(ctx, "failed to ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		auditOpts = append(auditOpts, publisher.WithSink("kafka", auditkafka.NewSink(kafkaClient, cfg.Kafka.AuditTopic)))
		a.closers = append(a.closers, kafkaClient.Close)
		health["kafka"] = kafkaClient.Health
	}
	auditPublisher := publisher.NewPublisher(auditOpts...)
	a.closers = append(a.closers, auditPublisher.Close)

	objects, objectHandler, err := openObjectStore(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	fetcher := imagefetch.New(
		imagefetch.WithTimeout(cfg.Verification.ImageFetchTimeout),
		imagefetch.WithMaxBytes(cfg.Oracle.MaxImageBytes),
	)

	var oracleClient oracle.Client
	if cfg.Oracle.APIKey != "" {
		oracleClient = oracle.NewGeminiClient(cfg.Oracle.APIKey,
			oracle.WithEndpoint(cfg.Oracle.Endpoint),
			oracle.WithModel(cfg.Oracle.Model),
			oracle.WithHTTPClient(&http.Client{Timeout: cfg.Oracle.Timeout}),
		)
	} else {
		log.WarnContext(ctx, "no oracle API key configured; AI verification uses the fallback verdict")
	}
	oracleAdapter := oracle.NewAdapter(oracleClient,
		oracle.WithLogger(log),
		oracle.WithMetrics(oracle.NewMetrics(reg)),
		oracle.WithCallTimeout(cfg.Oracle.Timeout),
	)

	directory, err := identity.NewDirectory(st.workers, log)
	if err != nil {
		a.close()
		return nil, err
	}

	svc, err := verification.New(
		st.reports,
		st.submissions,
		objects,
		fetcher,
		imagehash.NewComparator(log),
		oracleAdapter,
		verification.WithLogger(log),
		verification.WithMetrics(vermetrics.New(reg)),
		verification.WithWorkerDirectory(adapters.NewWorkerDirectoryAdapter(directory)),
		verification.WithAuditRecorder(auditPublisher),
		verification.WithAuditReader(st.audit),
		verification.WithConfig(verification.Config{
			MaxUploadBytes:      cfg.Verification.MaxUploadBytes,
			DuplicateFailClosed: !cfg.Verification.DuplicateFailOpen,
			RiskWindow:          cfg.Verification.SuspiciousWindow,
			RiskMaxCount:        cfg.Verification.SuspiciousMaxCount,
			RiskMinScore:        cfg.Verification.SuspiciousMinScore,
		}),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("build verification service: %w", err)
	}

	limiter, err := buildRateLimiter(ctx, cfg, log, reg, auditPublisher, a, health)
	if err != nil {
		a.close()
		return nil, err
	}

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)

	a.router = newRouter(routerDeps{
		logger:      log,
		handler:     handler.New(svc, log, cfg.Verification.MaxUploadBytes),
		validator:   jwttoken.NewMiddlewareValidator(jwtService),
		rateLimiter: limiter,
		adminToken:  cfg.Server.AdminToken,
		gatherer:    reg,
		httpMetrics: platformmetrics.New(reg),
		objects:     objectHandler,
		health:      health,
	})
	return a, nil
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (stores, *sql.DB, error) {
	if cfg.Database.URL != "" {
		db, err := platformpg.Open(ctx, cfg.Database)
		if err != nil {
			return stores{}, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return stores{
			reports:     verpostgres.NewReportStore(db),
			submissions: verpostgres.NewSubmissionStore(db),
			workers:     identitystore.NewPostgres(db),
			audit:       auditpostgres.New(db),
		}, db, nil
	}

	log.WarnContext(ctx, "no database configured; using in-memory stores")
	reports := vermemory.NewReportStore()
	workers := identitystore.NewInMemoryStore()
	if cfg.Seed.File != "" {
		nWorkers, nReports, err := loadSeed(cfg.Seed.File, workers, reports)
		if err != nil {
			return stores{}, nil, err
		}
		log.InfoContext(ctx, "loaded seed data", "workers", nWorkers, "reports", nReports)
	}
	return stores{
		reports:     reports,
		submissions: vermemory.NewSubmissionStore(),
		workers:     workers,
		audit:       auditmemory.NewInMemoryStore(),
	}, nil, nil
}

func openObjectStore(cfg config.Config) (ports.ObjectStore, http.Handler, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "ftp":
		store, err := storage.NewFTPStore(storage.FTPConfig{
			Addr:          cfg.Storage.FTPAddr,
			User:          cfg.Storage.FTPUser,
			Password:      cfg.Storage.FTPPassword,
			Bucket:        cfg.Storage.Bucket,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
			Timeout:       cfg.Storage.FTPTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("configure ftp storage: %w", err)
		}
		return store, nil, nil
	case "", "memory":
		baseURL := cfg.Storage.PublicBaseURL
		if baseURL == "" {
			baseURL = "http://localhost" + cfg.Server.Addr
		}
		store := storage.NewMemoryStore(baseURL)
		return store, store.Handler(), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func buildRateLimiter(
	ctx context.Context,
	cfg config.Config,
	log *slog.Logger,
	reg prometheus.Registerer,
	recorder audit.Recorder,
	a *app,
	health map[string]HealthCheck,
) (*ratelimitmw.Middleware, error) {
	var primary ratelimitmw.Store
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		primary = ratelimitredis.New(redisClient.Client)
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		health["redis"] = redisClient.Health
	}

	return ratelimitmw.New(primary, log,
		ratelimitmw.WithDisabled(cfg.RateLimit.Disabled),
		ratelimitmw.WithBreaker(circuit.New("ratelimit")),
		ratelimitmw.WithLimit(ratelimitmodels.ClassStrict, ratelimitmodels.Limit{
			Requests: cfg.RateLimit.Strict.Requests,
			Window:   cfg.RateLimit.Strict.Window,
		}),
		ratelimitmw.WithLimit(ratelimitmodels.ClassStandard, ratelimitmodels.Limit{
			Requests: cfg.RateLimit.Standard.Requests,
			Window:   cfg.RateLimit.Standard.Window,
		}),
		ratelimitmw.WithAuditRecorder(recorder),
		ratelimitmw.WithMetrics(ratelimitmetrics.New(reg)),
	), nil
}
