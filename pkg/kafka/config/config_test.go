package kafka_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, DefaultProducerMaxAttempts, cfg.ProducerMaxAttempts)
	assert.Equal(t, DefaultProducerCompression, cfg.ProducerCompression)
	assert.Equal(t, -1, cfg.ProducerRequireAcks)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " k1:9092, ,k2:9092 ")
	t.Setenv(EnvKafkaProducerBatchTimeout, "50ms")
	t.Setenv(EnvKafkaProducerCompression, "zstd")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.Equal(t, 50*time.Millisecond, cfg.ProducerBatchTimeout)
	assert.Equal(t, "zstd", cfg.ProducerCompression)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EnvKafkaProducerCompression, "brotli")
	t.Setenv(EnvKafkaProducerRequireAcks, "2")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ProducerCompression")
	assert.Contains(t, err.Error(), "ProducerRequireAcks")
}
