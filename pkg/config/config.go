package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "fleetrack"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "FLEETRACK_APP_ENV"
	EnvPort     = "FLEETRACK_APP_PORT"
	EnvDBDSN    = "FLEETRACK_DB_DSN"
	EnvDBHost   = "FLEETRACK_DB_HOST"
	EnvDBUser   = "FLEETRACK_DB_USER"
	EnvDBName   = "FLEETRACK_DB_NAME"
	EnvRedisURL = "FLEETRACK_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Sweeper      SweeperConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"FLEETRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"FLEETRACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FLEETRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLEETRACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FLEETRACK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FLEETRACK_DB_DSN"`
	Driver string `envconfig:"FLEETRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FLEETRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"FLEETRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLEETRACK_DB_USER"`
	LegacyPassword string `envconfig:"FLEETRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLEETRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLEETRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLEETRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLEETRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLEETRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLEETRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLEETRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FLEETRACK_REDIS_ADDR"`
	Password     string        `envconfig:"FLEETRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLEETRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLEETRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLEETRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLEETRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLEETRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLEETRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SweeperConfig tunes the expiry sweeper worker.
type SweeperConfig struct {
	Interval    time.Duration `envconfig:"FLEETRACK_SWEEP_INTERVAL" default:"2m"`
	LockTTL     time.Duration `envconfig:"FLEETRACK_SWEEP_LOCK_TTL" default:"5m"`
	BatchLimit  int           `envconfig:"FLEETRACK_SWEEP_BATCH_LIMIT" default:"500"`
	SyncRetries int           `envconfig:"FLEETRACK_SWEEP_SYNC_RETRIES" default:"1"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FLEETRACK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FLEETRACK_AUTO_MIGRATE" default:"false"`
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
