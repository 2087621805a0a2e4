package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Line         LineConfig
	Notification NotificationConfig
	SLA          SLAConfig
	Cron         CronConfig
	Storage      StorageConfig
	Kafka        KafkaConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	Timezone              string
	BaseURL               string
	RequestTimeoutSeconds int
	ShutdownGraceSeconds  int
	BodyLimitMB           int
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables the
// distributed sweep lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// LineConfig holds LINE Messaging API settings.
type LineConfig struct {
	ChannelAccessToken string
	APIBaseURL         string
	DefaultGroupID     string
	DepartmentGroups   map[domain.Department]string
}

// NotificationConfig sizes the async delivery pipeline.
type NotificationConfig struct {
	Workers               int
	QueueSize             int
	MaxAttempts           int
	InitialBackoffMillis  int
	AttemptTimeoutSeconds int
	JobTimeoutSeconds     int
}

// SLAConfig drives the periodic sweep.
type SLAConfig struct {
	SchedulerEnabled bool
	SweepSchedule    string
	LockTTLSeconds   int
}

// CronConfig guards the externally triggered sweep endpoint.
type CronConfig struct {
	Secret string
}

// StorageConfig selects where report images are kept.
type StorageConfig struct {
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	PublicBaseURL     string
	LocalDir          string
	MaxImageBytes     int64
}

// KafkaConfig enables the optional ticket event stream.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "parcel-helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			Timezone:              getEnv("APP_TIMEZONE", "Asia/Bangkok"),
			BaseURL:               strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			ShutdownGraceSeconds:  getEnvAsInt("SHUTDOWN_GRACE_SECONDS", 15),
			BodyLimitMB:           getEnvAsInt("HTTP_BODY_LIMIT_MB", 20),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Line: LineConfig{
			ChannelAccessToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
			APIBaseURL:         getEnv("LINE_API_BASE_URL", "https://api.line.me"),
			DefaultGroupID:     os.Getenv("LINE_DEFAULT_GROUP_ID"),
			DepartmentGroups:   departmentGroups(),
		},
		Notification: NotificationConfig{
			Workers:               getEnvAsInt("NOTIFY_WORKERS", 2),
			QueueSize:             getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
			MaxAttempts:           getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 3),
			InitialBackoffMillis:  getEnvAsInt("NOTIFY_INITIAL_BACKOFF_MS", 500),
			AttemptTimeoutSeconds: getEnvAsInt("NOTIFY_ATTEMPT_TIMEOUT_SECONDS", 10),
			JobTimeoutSeconds:     getEnvAsInt("NOTIFY_JOB_TIMEOUT_SECONDS", 60),
		},
		SLA: SLAConfig{
			SchedulerEnabled: getEnvAsBool("SLA_SCHEDULER_ENABLED", true),
			SweepSchedule:    getEnv("SLA_SWEEP_SCHEDULE", "*/30 * * * *"),
			LockTTLSeconds:   getEnvAsInt("SLA_LOCK_TTL_SECONDS", 300),
		},
		Cron: CronConfig{
			Secret: os.Getenv("CRON_SECRET"),
		},
		Storage: StorageConfig{
			S3Bucket:          os.Getenv("S3_BUCKET"),
			S3Region:          getEnv("S3_REGION", "auto"),
			S3Endpoint:        os.Getenv("S3_ENDPOINT"),
			S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			PublicBaseURL:     strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/"),
			LocalDir:          getEnv("UPLOAD_DIR", "uploads"),
			MaxImageBytes:     int64(getEnvAsInt("MAX_IMAGE_BYTES", 5<<20)),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TICKET_TOPIC", "helpdesk.ticket-events"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ShutdownGrace bounds how long shutdown waits for in-flight work.
func (a AppConfig) ShutdownGrace() time.Duration {
	if a.ShutdownGraceSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(a.ShutdownGraceSeconds) * time.Second
}

// Routing builds the department channel table.
func (l LineConfig) Routing() domain.Routing {
	return domain.Routing{Channels: l.DepartmentGroups, DefaultChannel: l.DefaultGroupID}
}

// Enabled reports whether pushes can be sent at all.
func (l LineConfig) Enabled() bool {
	return strings.TrimSpace(l.ChannelAccessToken) != ""
}

// InitialBackoff returns the first retry delay.
func (n NotificationConfig) InitialBackoff() time.Duration {
	if n.InitialBackoffMillis <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(n.InitialBackoffMillis) * time.Millisecond
}

// AttemptTimeout bounds a single delivery attempt.
func (n NotificationConfig) AttemptTimeout() time.Duration {
	if n.AttemptTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.AttemptTimeoutSeconds) * time.Second
}

// JobTimeout bounds one queued notification, reloads and retries included.
func (n NotificationConfig) JobTimeout() time.Duration {
	if n.JobTimeoutSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(n.JobTimeoutSeconds) * time.Second
}

// LockTTL is the lease held by one sweep pass.
func (s SLAConfig) LockTTL() time.Duration {
	if s.LockTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.LockTTLSeconds) * time.Second
}

// S3Enabled reports whether object storage credentials are complete.
func (s StorageConfig) S3Enabled() bool {
	return s.S3Bucket != "" && s.S3AccessKeyID != "" && s.S3SecretAccessKey != ""
}

func departmentGroups() map[domain.Department]string {
	groups := make(map[domain.Department]string, len(domain.Departments))
	for _, dept := range domain.Departments {
		if id := os.Getenv("LINE_GROUP_" + string(dept)); id != "" {
			groups[dept] = id
		}
	}
	return groups
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
