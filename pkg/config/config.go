package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CartRateLimit CartRateLimitConfig
	Realtime      RealtimeConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"SHOPSYNC_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPSYNC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPSYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPSYNC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPSYNC_DB_DSN"`
	Driver string `envconfig:"SHOPSYNC_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SHOPSYNC_DB_HOST"`
	Port     int    `envconfig:"SHOPSYNC_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOPSYNC_DB_USER"`
	Password string `envconfig:"SHOPSYNC_DB_PASSWORD"`
	Name     string `envconfig:"SHOPSYNC_DB_NAME"`
	SSLMode  string `envconfig:"SHOPSYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPSYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPSYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPSYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPSYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPSYNC_REDIS_URL"`
	Address      string        `envconfig:"SHOPSYNC_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPSYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPSYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPSYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPSYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPSYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPSYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPSYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPSYNC_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPSYNC_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHOPSYNC_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CartRateLimitConfig throttles the durable cart read/write surface.
// Reads and writes share one counter per identity.
type CartRateLimitConfig struct {
	Window  time.Duration `envconfig:"SHOPSYNC_CART_RATE_LIMIT_WINDOW" default:"1m"`
	Limit   int           `envconfig:"SHOPSYNC_CART_RATE_LIMIT" default:"10"`
	Backend string        `envconfig:"SHOPSYNC_CART_RATE_LIMIT_BACKEND" default:"memory"`
}

type RealtimeConfig struct {
	PingInterval    time.Duration `envconfig:"SHOPSYNC_REALTIME_PING_INTERVAL" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"SHOPSYNC_REALTIME_WRITE_TIMEOUT" default:"10s"`
	SendBufferSize  int           `envconfig:"SHOPSYNC_REALTIME_SEND_BUFFER" default:"32"`
	MaxMessageBytes int64         `envconfig:"SHOPSYNC_REALTIME_MAX_MESSAGE_BYTES" default:"65536"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPSYNC_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
