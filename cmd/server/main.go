package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	adminhandler "yinyom/internal/admin/handler"
	"yinyom/internal/admin/token"
	consenthandler "yinyom/internal/consent/handler"
	consentmetrics "yinyom/internal/consent/metrics"
	consentservice "yinyom/internal/consent/service"
	"yinyom/internal/consent/store/record"
	"yinyom/internal/platform/config"
	"yinyom/internal/platform/httpserver"
	"yinyom/internal/platform/logger"
	"yinyom/internal/platform/metrics"
	platformredis "yinyom/internal/platform/redis"
	"yinyom/internal/policy/cache"
	policyhandler "yinyom/internal/policy/handler"
	policymetrics "yinyom/internal/policy/metrics"
	policyservice "yinyom/internal/policy/service"
	"yinyom/internal/policy/store/document"
	targetinghandler "yinyom/internal/targeting/handler"
	targetingmetrics "yinyom/internal/targeting/metrics"
	targetingservice "yinyom/internal/targeting/service"
	"yinyom/internal/targeting/store/rule"
	httptransport "yinyom/internal/transport/http"
	"yinyom/pkg/platform/audit"
	auditkafka "yinyom/pkg/platform/audit/kafka"
)

const requestTimeout = 15 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when a DSN is configured, in-memory otherwise.
	var (
		docStore    policyservice.DocumentStore
		ruleStore   targetingservice.RuleStore
		recordStore consentservice.RecordStore
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		docStore = document.NewPostgres(db)
		ruleStore = rule.NewPostgres(db)
		recordStore = record.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		docStore = document.NewInMemory()
		ruleStore = rule.NewInMemory()
		recordStore = record.NewInMemory()
		log.Warn("no postgres DSN configured, using in-memory stores")
	}

	var auditPub audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := auditkafka.New(cfg.KafkaBrokers, cfg.KafkaTopic, auditkafka.WithLogger(log))
		if err != nil {
			return err
		}
		defer kp.Close()
		auditPub = kp
		log.Info("kafka audit sink enabled", "topic", cfg.KafkaTopic)
	} else {
		auditPub = audit.NewMemory()
		log.Warn("no kafka brokers configured, audit events are kept in memory")
	}

	policyOpts := []policyservice.Option{
		policyservice.WithLogger(log),
		policyservice.WithMetrics(policymetrics.New()),
		policyservice.WithAuditPublisher(auditPub),
	}
	rdb, err := platformredis.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		policyOpts = append(policyOpts, policyservice.WithCache(cache.NewActiveDocuments(rdb.Client, cfg.ActiveDocTTL)))
		log.Info("active-document cache enabled", "addr", cfg.RedisAddr)
	}
	policySvc := policyservice.New(docStore, policyOpts...)

	targetingSvc := targetingservice.New(ruleStore, policySvc,
		targetingservice.WithLogger(log),
		targetingservice.WithMetrics(targetingmetrics.New()),
		targetingservice.WithAuditPublisher(auditPub),
	)

	consentSvc := consentservice.New(recordStore, targetingSvc,
		consentservice.WithLogger(log),
		consentservice.WithMetrics(consentmetrics.New()),
		consentservice.WithAuditPublisher(auditPub),
	)

	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenTTL)

	router := httptransport.New(httptransport.Handlers{
		Admin:     adminhandler.New(cfg.AdminUser, cfg.AdminPasswordHash, tokens, log, adminhandler.WithAuditPublisher(auditPub)),
		Policy:    policyhandler.New(policySvc, log),
		Targeting: targetinghandler.New(targetingSvc, log),
		Consent:   consenthandler.New(consentSvc, log),
	}, httptransport.Deps{
		Logger:         log,
		Metrics:        metrics.New(),
		TokenValidator: tokens,
		RequestTimeout: requestTimeout,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
