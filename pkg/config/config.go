package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	Orders    OrdersConfig
	AuthCache AuthCacheConfig
	Features  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Orders.ParsedTaxRate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TALLER_APP_ENV" required:"true"`
	Port         string `envconfig:"TALLER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TALLER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TALLER_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"TALLER_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TALLER_DB_DSN"`
	Driver string `envconfig:"TALLER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TALLER_DB_HOST"`
	LegacyPort     int    `envconfig:"TALLER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TALLER_DB_USER"`
	LegacyPassword string `envconfig:"TALLER_DB_PASSWORD"`
	LegacyName     string `envconfig:"TALLER_DB_NAME"`
	LegacySSLMode  string `envconfig:"TALLER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TALLER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TALLER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TALLER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TALLER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TALLER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TALLER_REDIS_ADDR"`
	Password     string        `envconfig:"TALLER_REDIS_PASSWORD"`
	DB           int           `envconfig:"TALLER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TALLER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TALLER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TALLER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TALLER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TALLER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TALLER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TALLER_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TALLER_JWT_EXPIRATION_MINUTES" default:"480"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TALLER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TALLER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TALLER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TALLER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TALLER_ARGON_KEY_LEN" default:"32"`
}

// OrdersConfig tunes the order placement path.
type OrdersConfig struct {
	// TaxRate is a decimal fraction applied to the order subtotal, e.g. "0.16".
	TaxRate        string        `envconfig:"TALLER_ORDERS_TAX_RATE" default:"0"`
	IdempotencyTTL time.Duration `envconfig:"TALLER_ORDERS_IDEMPOTENCY_TTL" default:"168h"`
}

// ParsedTaxRate returns the configured tax rate as a decimal.
func (o OrdersConfig) ParsedTaxRate() (decimal.Decimal, error) {
	raw := strings.TrimSpace(o.TaxRate)
	if raw == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing tax rate %q: %w", raw, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("tax rate %q out of range [0, 1]", raw)
	}
	return rate, nil
}

// AuthCacheConfig bounds the staff-role cache owned by access control.
type AuthCacheConfig struct {
	TTL time.Duration `envconfig:"TALLER_AUTH_CACHE_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TALLER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TALLER_AUTO_MIGRATE" default:"false"`
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
