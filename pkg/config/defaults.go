package config

import "time"

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "barhop"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultStoreDriver       = StoreDriverMongo

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultYelpBaseURL     = "https://api.yelp.com"
	DefaultYelpTimeout     = 10 * time.Second
	DefaultYelpSearchLimit = 20
	DefaultSearchTerm      = "bar"

	DefaultEventsTopic = "bars.visitors"
)
