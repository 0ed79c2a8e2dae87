// Command sync-campaigns runs one sweep over every active campaign and
// exits. Meant to be invoked by an external scheduler. Individual campaign
// failures are reported in the output and logged but do not fail the run;
// only an unreachable database does.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/shmuelia/LeadsManager/internal/config"
	"github.com/shmuelia/LeadsManager/internal/database"
	"github.com/shmuelia/LeadsManager/internal/logger"
	"github.com/shmuelia/LeadsManager/internal/notify"
	"github.com/shmuelia/LeadsManager/internal/repository"
	"github.com/shmuelia/LeadsManager/internal/service"
	"github.com/shmuelia/LeadsManager/internal/sheets"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "sync-campaigns")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Error("Database connection failed", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close(db)

	var publisher notify.Publisher = notify.NopPublisher{}
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		publisher = notify.NewRedisPublisher(redisClient, log)
	}

	campaigns := repository.NewPostgresCampaignsRepo(db)
	leads := repository.NewPostgresLeadsRepo(db)
	fetcher := sheets.NewFetcher(cfg.Sync.ExportBaseURL, cfg.Sync.FetchTimeout, log)
	syncService := service.NewSyncService(campaigns, leads, fetcher, publisher, log)

	sweep := syncService.SyncAllCampaigns(context.Background())

	out, _ := json.MarshalIndent(sweep, "", "  ")
	fmt.Println(string(out))

	if !sweep.Success {
		os.Exit(1)
	}
}
