package main

import (
	mongoMigration "barhop/internal/migrations/mongo"
	"barhop/pkg/config"
	"context"
	"os"
	"time"
)

const JobName = "mongo-migration"

func main() {
	if !migrate() {
		os.Exit(1)
	}
}

func migrate() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	cfg := config.Load(JobName)
	cfg.SetMongo()
	cfg.Log.Info("Starting Mongo migration job")
	defer cfg.GracefulShutdown()

	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Error("Migration failed", "error", err)
		return false
	}
	cfg.Log.Info("Migration completed successfully")
	return true
}
