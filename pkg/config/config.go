package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Storage      StorageConfig
	Media        MediaConfig
	RateLimit    RateLimitConfig
	Events       EventsConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FEIRINHA_APP_ENV" required:"true"`
	Port         string `envconfig:"FEIRINHA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FEIRINHA_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FEIRINHA_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FEIRINHA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FEIRINHA_DB_DSN"`
	Driver string `envconfig:"FEIRINHA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FEIRINHA_DB_HOST"`
	LegacyPort     int    `envconfig:"FEIRINHA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FEIRINHA_DB_USER"`
	LegacyPassword string `envconfig:"FEIRINHA_DB_PASSWORD"`
	LegacyName     string `envconfig:"FEIRINHA_DB_NAME"`
	LegacySSLMode  string `envconfig:"FEIRINHA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FEIRINHA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FEIRINHA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FEIRINHA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FEIRINHA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FEIRINHA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FEIRINHA_REDIS_ADDR"`
	Password     string        `envconfig:"FEIRINHA_REDIS_PASSWORD"`
	DB           int           `envconfig:"FEIRINHA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FEIRINHA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FEIRINHA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FEIRINHA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FEIRINHA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FEIRINHA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig only covers verification; tokens are minted by the auth service.
type JWTConfig struct {
	Secret            string `envconfig:"FEIRINHA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FEIRINHA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FEIRINHA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FEIRINHA_AUTO_MIGRATE" default:"false"`
}

// StorageConfig points at any S3-compatible bucket (Supabase, MinIO, AWS).
type StorageConfig struct {
	Endpoint       string        `envconfig:"FEIRINHA_STORAGE_ENDPOINT" required:"true"`
	AccessKey      string        `envconfig:"FEIRINHA_STORAGE_ACCESS_KEY" required:"true"`
	SecretKey      string        `envconfig:"FEIRINHA_STORAGE_SECRET_KEY" required:"true"`
	Bucket         string        `envconfig:"FEIRINHA_STORAGE_BUCKET" required:"true"`
	Region         string        `envconfig:"FEIRINHA_STORAGE_REGION" default:"us-east-1"`
	UseSSL         bool          `envconfig:"FEIRINHA_STORAGE_USE_SSL" default:"true"`
	PublicBaseURL  string        `envconfig:"FEIRINHA_STORAGE_PUBLIC_BASE_URL"`
	CreateBucket   bool          `envconfig:"FEIRINHA_STORAGE_CREATE_BUCKET" default:"false"`
	RetryAttempts  uint64        `envconfig:"FEIRINHA_STORAGE_RETRY_ATTEMPTS" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"FEIRINHA_STORAGE_RETRY_BASE_DELAY" default:"100ms"`
	OpTimeout      time.Duration `envconfig:"FEIRINHA_STORAGE_OP_TIMEOUT" default:"30s"`
}

type MediaConfig struct {
	MaxPhotoMB         int           `envconfig:"FEIRINHA_MEDIA_MAX_PHOTO_MB" default:"10"`
	MultipartMemoryMB  int           `envconfig:"FEIRINHA_MEDIA_MULTIPART_MEMORY_MB" default:"32"`
	UploadConcurrency  int           `envconfig:"FEIRINHA_MEDIA_UPLOAD_CONCURRENCY" default:"4"`
	LockTTL            time.Duration `envconfig:"FEIRINHA_MEDIA_LOCK_TTL" default:"2m"`
	LockWait           time.Duration `envconfig:"FEIRINHA_MEDIA_LOCK_WAIT" default:"5s"`
	CompensationWindow time.Duration `envconfig:"FEIRINHA_MEDIA_COMPENSATION_WINDOW" default:"30s"`
}

// MaxPhotoBytes converts the configured per-photo limit into bytes.
func (m MediaConfig) MaxPhotoBytes() int64 {
	if m.MaxPhotoMB <= 0 {
		return 0
	}
	return int64(m.MaxPhotoMB) << 20
}

// MultipartMemoryBytes is the in-memory budget handed to ParseMultipartForm.
func (m MediaConfig) MultipartMemoryBytes() int64 {
	if m.MultipartMemoryMB <= 0 {
		return 32 << 20
	}
	return int64(m.MultipartMemoryMB) << 20
}

type RateLimitConfig struct {
	Enabled bool    `envconfig:"FEIRINHA_RATE_LIMIT_ENABLED" default:"true"`
	RPS     float64 `envconfig:"FEIRINHA_RATE_LIMIT_RPS" default:"10"`
	Burst   int     `envconfig:"FEIRINHA_RATE_LIMIT_BURST" default:"20"`
}

// EventsConfig leaves NATSURL empty to disable publishing.
type EventsConfig struct {
	NATSURL       string        `envconfig:"FEIRINHA_EVENTS_NATS_URL"`
	SubjectPrefix string        `envconfig:"FEIRINHA_EVENTS_SUBJECT_PREFIX" default:"feirinha"`
	ConnectWait   time.Duration `envconfig:"FEIRINHA_EVENTS_CONNECT_WAIT" default:"5s"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"FEIRINHA_CRON_INTERVAL" default:"5m"`
	LockTTL           time.Duration `envconfig:"FEIRINHA_CRON_LOCK_TTL" default:"4m"`
	OrphanBatchSize   int           `envconfig:"FEIRINHA_CRON_ORPHAN_BATCH_SIZE" default:"100"`
	OrphanMaxAttempts int           `envconfig:"FEIRINHA_CRON_ORPHAN_MAX_ATTEMPTS" default:"10"`

	// NotificationRetentionDays bounds how long read notifications are kept.
	NotificationRetentionDays int `envconfig:"FEIRINHA_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

func (s StorageConfig) validate() error {
	if s.PublicBaseURL == "" {
		return nil
	}
	u, err := url.Parse(s.PublicBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL", EnvStoragePublicBaseURL)
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
