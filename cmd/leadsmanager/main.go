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

	"github.com/shmuelia/LeadsManager/internal/config"
	"github.com/shmuelia/LeadsManager/internal/database"
	httpapi "github.com/shmuelia/LeadsManager/internal/http"
	"github.com/shmuelia/LeadsManager/internal/logger"
	"github.com/shmuelia/LeadsManager/internal/notify"
	"github.com/shmuelia/LeadsManager/internal/repository"
	"github.com/shmuelia/LeadsManager/internal/service"
	"github.com/shmuelia/LeadsManager/internal/sheets"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "leadsmanager")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	var (
		db        *sql.DB
		customers repository.CustomersRepo
		campaigns repository.CampaignsRepo
		leads     repository.LeadsRepo
	)
	dbConnected := false
	if cfg.DBEnabled {
		if d, err := database.Open(&cfg.Database); err == nil {
			db = d
			dbConnected = true
			log.Info("Database connected")
		} else {
			log.Warn("Database enabled but connection failed, using in-memory repositories", zap.Error(err))
		}
	}
	if db != nil {
		customers = repository.NewPostgresCustomersRepo(db)
		campaigns = repository.NewPostgresCampaignsRepo(db)
		leads = repository.NewPostgresLeadsRepo(db)
	} else {
		customers = repository.NewMemoryCustomersRepo()
		campaigns = repository.NewMemoryCampaignsRepo()
		leads = repository.NewMemoryLeadsRepo()
	}

	var publisher notify.Publisher = notify.NopPublisher{}
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		publisher = notify.NewRedisPublisher(redisClient, log)
		log.Info("Redis lead events enabled", zap.String("addr", cfg.Redis.Addr))
	}

	fetcher := sheets.NewFetcher(cfg.Sync.ExportBaseURL, cfg.Sync.FetchTimeout, log)
	syncService := service.NewSyncService(campaigns, leads, fetcher, publisher, log)

	router := httpapi.NewRouter(log)
	router.RegisterStatusRoutes(httpapi.NewStatusHandler(leads, dbConnected, log))
	router.RegisterCampaignRoutes(
		httpapi.NewCampaignsHandler(campaigns, log),
		httpapi.NewSyncHandler(syncService, log),
	)
	router.RegisterLeadRoutes(httpapi.NewLeadsHandler(leads, log))
	router.RegisterCustomerRoutes(httpapi.NewCustomersHandler(customers, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutting down on signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = database.Close(db)
	}
}
