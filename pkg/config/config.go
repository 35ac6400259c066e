package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "COALTRACK_DB_DSN"
	EnvDBHost = "COALTRACK_DB_HOST"
	EnvDBUser = "COALTRACK_DB_USER"
	EnvDBName = "COALTRACK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Allocation   AllocationConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COALTRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"COALTRACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"COALTRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COALTRACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"COALTRACK_DB_DSN"`
	Driver string `envconfig:"COALTRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"COALTRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"COALTRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"COALTRACK_DB_USER"`
	LegacyPassword string `envconfig:"COALTRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"COALTRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"COALTRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COALTRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COALTRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COALTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COALTRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COALTRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"COALTRACK_REDIS_ADDR"`
	Password     string        `envconfig:"COALTRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"COALTRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COALTRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COALTRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COALTRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COALTRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COALTRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"COALTRACK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"COALTRACK_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"COALTRACK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"COALTRACK_PUBSUB_DOMAIN_TOPIC" default:"coaltrack-domain-events"`
	DomainSubscription string `envconfig:"COALTRACK_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"COALTRACK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"COALTRACK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"COALTRACK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type AllocationConfig struct {
	MaxSuggestions  int    `envconfig:"COALTRACK_ALLOCATION_MAX_SUGGESTIONS" default:"10"`
	DefaultStrategy string `envconfig:"COALTRACK_ALLOCATION_DEFAULT_STRATEGY" default:"OPTIMAL"`
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
