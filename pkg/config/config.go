package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is passed to envconfig; individual fields carry full names already.
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv    = "MARCHELOCAL_APP_ENV"
	EnvPort      = "MARCHELOCAL_APP_PORT"
	EnvDBDSN     = "MARCHELOCAL_DB_DSN"
	EnvDBHost    = "MARCHELOCAL_DB_HOST"
	EnvDBUser    = "MARCHELOCAL_DB_USER"
	EnvDBName    = "MARCHELOCAL_DB_NAME"
	EnvRedisURL  = "MARCHELOCAL_REDIS_URL"
	EnvJWTSecret = "MARCHELOCAL_JWT_SECRET"
	EnvJWTIssuer = "MARCHELOCAL_JWT_ISSUER"
	EnvJWTExpMin = "MARCHELOCAL_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
	Checkout      CheckoutConfig
	Sendgrid      SendgridConfig
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
	Env          string `envconfig:"MARCHELOCAL_APP_ENV" required:"true"`
	Port         string `envconfig:"MARCHELOCAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARCHELOCAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARCHELOCAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARCHELOCAL_DB_DSN"`
	Driver string `envconfig:"MARCHELOCAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARCHELOCAL_DB_HOST"`
	LegacyPort     int    `envconfig:"MARCHELOCAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARCHELOCAL_DB_USER"`
	LegacyPassword string `envconfig:"MARCHELOCAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARCHELOCAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARCHELOCAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARCHELOCAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARCHELOCAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARCHELOCAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARCHELOCAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARCHELOCAL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MARCHELOCAL_REDIS_ADDR"`
	Password     string        `envconfig:"MARCHELOCAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARCHELOCAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARCHELOCAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARCHELOCAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARCHELOCAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARCHELOCAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARCHELOCAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MARCHELOCAL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MARCHELOCAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MARCHELOCAL_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MARCHELOCAL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MARCHELOCAL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MARCHELOCAL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MARCHELOCAL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MARCHELOCAL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MARCHELOCAL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MARCHELOCAL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MARCHELOCAL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MARCHELOCAL_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MARCHELOCAL_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MARCHELOCAL_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARCHELOCAL_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey string `envconfig:"MARCHELOCAL_STRIPE_API_KEY"`
	Secret string `envconfig:"MARCHELOCAL_STRIPE_SECRET"`
	Env    string `envconfig:"MARCHELOCAL_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	AllowedOrigins   []string `envconfig:"MARCHELOCAL_CHECKOUT_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	DeliveryFeeCents int      `envconfig:"MARCHELOCAL_CHECKOUT_DELIVERY_FEE_CENTS" default:"500"`
	DeliveryPriceID  string   `envconfig:"MARCHELOCAL_CHECKOUT_DELIVERY_PRICE_ID"`
}

// OriginAllowed reports whether the caller-supplied return origin is on the allow-list.
func (c CheckoutConfig) OriginAllowed(origin string) bool {
	candidate := strings.TrimRight(strings.TrimSpace(origin), "/")
	if candidate == "" {
		return false
	}
	for _, allowed := range c.AllowedOrigins {
		if strings.EqualFold(strings.TrimRight(strings.TrimSpace(allowed), "/"), candidate) {
			return true
		}
	}
	return false
}

type SendgridConfig struct {
	APIKey      string `envconfig:"MARCHELOCAL_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"MARCHELOCAL_SENDGRID_FROM_EMAIL"`
	VerifyURL   string `envconfig:"MARCHELOCAL_SENDGRID_VERIFY_URL" default:"http://localhost:3000/verify-email"`
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
