package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("NOTIFY_MAX_ATTEMPTS", "")
	t.Setenv("NOTIFY_JOB_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, "Asia/Bangkok", cfg.App.Timezone)
	assert.Equal(t, 3, cfg.Notification.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, time.Minute, cfg.Notification.JobTimeout())
	assert.Equal(t, "*/30 * * * *", cfg.SLA.SweepSchedule)
}

func TestLoadDepartmentGroupsFallBackToDefault(t *testing.T) {
	t.Setenv("LINE_DEFAULT_GROUP_ID", "C-default")
	t.Setenv("LINE_GROUP_DB2", "C-db2")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	routing := cfg.Line.Routing()
	db2 := domain.DepartmentDB2
	db5 := domain.DepartmentDB5

	ch, ok := routing.ChannelFor(&db2)
	assert.True(t, ok)
	assert.Equal(t, "C-db2", ch)

	ch, ok = routing.ChannelFor(&db5)
	assert.True(t, ok)
	assert.Equal(t, "C-default", ch)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "abc")
	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvAsIntFallback(t *testing.T) {
	t.Setenv("NOTIFY_WORKERS", "many")
	assert.Equal(t, 7, getEnvAsInt("NOTIFY_WORKERS", 7))
}
