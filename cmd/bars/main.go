package main

import (
	"barhop/internal/bars/events"
	"barhop/internal/bars/handler"
	"barhop/internal/bars/provider"
	"barhop/internal/bars/repository"
	"barhop/internal/bars/service"
	"barhop/internal/bars/validator"
	"barhop/pkg/app"
	"barhop/pkg/config"
	"barhop/pkg/kafka"
	kafka_config "barhop/pkg/kafka/config"
	kafka_middleware "barhop/pkg/kafka/middleware"
)

const ServiceName = "bars"

func main() {
	cfg := config.Load(ServiceName)
	defer cfg.GracefulShutdown()
	cfg.Log.Info("Starting Bars service")

	repo := initRepository(cfg)
	publisher := initPublisher(cfg)

	barService := service.NewBarService(
		repo,
		provider.NewYelpProvider(provider.Config{
			BaseURL: cfg.YelpBaseURL,
			APIKey:  cfg.YelpAPIKey,
			Timeout: cfg.YelpTimeout,
			Limit:   cfg.YelpSearchLimit,
		}, cfg.Log),
		publisher,
		validator.NewBarValidator(cfg.Log),
		cfg,
	)
	cfg.Log.Info("Bar service initialized")

	application := app.NewApplication()
	application.SetApp(cfg,
		handler.NewBarHandler(barService, cfg.Log),
		handler.NewHealthHandler(repo, cfg.Log),
	)
	application.OnShutdown("event-publisher", publisher.Close)
	application.Run()
}

func initRepository(cfg *config.Config) repository.BarRepository {
	if cfg.StoreDriver == config.StoreDriverMemory {
		cfg.Log.Warn("Using in-memory bar store, data is lost on restart")
		return repository.NewMemoryBarRepository()
	}
	cfg.SetMongo()
	return repository.NewMongoBarRepository(cfg)
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Visitor events disabled")
		return events.NewNopPublisher()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
}
