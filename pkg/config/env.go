package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvStoreDriver       = "STORE_DRIVER"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvYelpBaseURL     = "YELP_BASE_URL"
	EnvYelpAPIKey      = "YELP_API_KEY"
	EnvYelpTimeout     = "YELP_TIMEOUT"
	EnvYelpSearchLimit = "YELP_SEARCH_LIMIT"
	EnvSearchTerm      = "SEARCH_TERM"

	EnvAuthJWTSecret = "AUTH_JWT_SECRET"
	EnvAuthJWTIssuer = "AUTH_JWT_ISSUER"

	EnvEventsEnabled = "EVENTS_ENABLED"
	EnvEventsTopic   = "EVENTS_TOPIC"
)
