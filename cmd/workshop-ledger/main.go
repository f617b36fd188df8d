package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/backup"
	"github.com/nikas17mc/digital-technician-dashboard/internal/config"
	httpapi "github.com/nikas17mc/digital-technician-dashboard/internal/http"
	"github.com/nikas17mc/digital-technician-dashboard/internal/ledger"
	"github.com/nikas17mc/digital-technician-dashboard/internal/logger"
	"github.com/nikas17mc/digital-technician-dashboard/internal/notify"
	"github.com/nikas17mc/digital-technician-dashboard/internal/reconcile"
	"github.com/nikas17mc/digital-technician-dashboard/internal/reporting"
	"github.com/nikas17mc/digital-technician-dashboard/internal/repository"
	"github.com/nikas17mc/digital-technician-dashboard/internal/service"
	"github.com/nikas17mc/digital-technician-dashboard/internal/settings"
	"github.com/nikas17mc/digital-technician-dashboard/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "workshop-ledger")
	if err != nil {
		log, _ = zap.NewProduction()
		log.Warn("Invalid log configuration, using defaults", zap.Error(err))
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sm := settings.NewManager(cfg.SettingsPath, log)
	current := sm.Get()

	// Ledger storage
	var (
		repo repository.LedgerRepository
		db   *sql.DB
	)
	switch cfg.Ledger.Backend {
	case "postgres":
		db, err = repository.NewPostgresDB(&cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		pg := repository.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to prepare database schema", zap.Error(err))
		}
		repo = pg
		log.Info("Ledger backend: postgres", zap.String("host", cfg.Database.Host))
	default:
		repo = repository.NewFileStore(cfg.Ledger.Path)
		log.Info("Ledger backend: file", zap.String("path", cfg.Ledger.Path))
	}

	var ledgerOpts []ledger.Option
	var mqttClient *notify.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = notify.NewClient(&cfg.MQTT, log)
		if err != nil {
			log.Warn("MQTT unavailable, events will not be published", zap.Error(err))
		} else {
			ledgerOpts = append(ledgerOpts, ledger.WithPublisher(
				notify.NewEventNotifier(mqttClient, cfg.MQTT.Topic, cfg.MQTT.QoS, log),
			))
		}
	}

	l := ledger.New(ctx, repo, sm.KnownSets(), log, ledgerOpts...)

	// Analysis cache
	var redisClient *redis.Client
	var kv store.KV = store.NewMemoryKV()
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("Redis ping failed, cache lookups will miss until it recovers", zap.Error(err))
		}
		kv = store.NewRedisKV(redisClient)
	}
	var cache *reporting.AnalysisCache
	if current.Analysis.CacheResults {
		ttl := time.Duration(current.Analysis.CacheDuration) * time.Second
		cache = reporting.NewAnalysisCache(kv, ttl, log)
	}

	var engineOpts []reporting.Option
	if cfg.Reconcile.URL != "" {
		engineOpts = append(engineOpts, reporting.WithReconciler(
			reconcile.NewClient(cfg.Reconcile.URL, cfg.Reconcile.Token, log),
		))
	}
	engine := reporting.New(l, cache, log, engineOpts...)

	sm.Subscribe(func(s settings.Settings) {
		l.SetKnown(s.KnownSets())
		if err := engine.ClearCache(context.Background()); err != nil {
			log.Warn("Failed to clear analysis cache after settings change", zap.Error(err))
		}
	})

	var scheduler *backup.Scheduler
	if cfg.Backup.Schedule != "" {
		scheduler, err = backup.NewScheduler(cfg.Backup.Schedule, backup.NewJob(l, sm, log), log)
		if err != nil {
			log.Error("Backup scheduling disabled", zap.Error(err))
		} else {
			scheduler.Start()
		}
	}

	handlers := httpapi.NewHandlers(l, engine, sm, log)
	router := httpapi.NewRouter(handlers, cfg.HTTP.CORSOrigins, log)
	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop HTTP server", zap.Error(err))
	}
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			log.Warn("Backup scheduler did not stop in time", zap.Error(err))
		}
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	log.Info("workshop-ledger stopped")
}
