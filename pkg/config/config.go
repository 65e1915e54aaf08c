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

	EnvDBDSN  = "STAYHUB_DB_DSN"
	EnvDBHost = "STAYHUB_DB_HOST"
	EnvDBUser = "STAYHUB_DB_USER"
	EnvDBName = "STAYHUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Paymob       PaymobConfig
	Payouts      PayoutsConfig
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
	Env          string `envconfig:"STAYHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"STAYHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STAYHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STAYHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STAYHUB_DB_DSN"`
	Driver string `envconfig:"STAYHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STAYHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"STAYHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STAYHUB_DB_USER"`
	LegacyPassword string `envconfig:"STAYHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"STAYHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"STAYHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STAYHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STAYHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STAYHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STAYHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STAYHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STAYHUB_REDIS_ADDR"`
	Password     string        `envconfig:"STAYHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"STAYHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STAYHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STAYHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STAYHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STAYHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STAYHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STAYHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STAYHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STAYHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STAYHUB_AUTO_MIGRATE" default:"false"`
}

// PaymobConfig carries credentials for the payment processor and its
// disbursement (payout) API.
type PaymobConfig struct {
	BaseURL             string        `envconfig:"STAYHUB_PAYMOB_BASE_URL" default:"https://accept.paymob.com"`
	HMACSecret          string        `envconfig:"STAYHUB_PAYMOB_HMAC_SECRET" required:"true"`
	PayoutHMACSecret    string        `envconfig:"STAYHUB_PAYMOB_PAYOUT_HMAC_SECRET" required:"true"`
	OAuthUsername       string        `envconfig:"STAYHUB_PAYMOB_OAUTH_USERNAME"`
	OAuthPassword       string        `envconfig:"STAYHUB_PAYMOB_OAUTH_PASSWORD"`
	OAuthClientID       string        `envconfig:"STAYHUB_PAYMOB_OAUTH_CLIENT_ID"`
	OAuthClientSecret   string        `envconfig:"STAYHUB_PAYMOB_OAUTH_CLIENT_SECRET"`
	RequestTimeout      time.Duration `envconfig:"STAYHUB_PAYMOB_REQUEST_TIMEOUT" default:"30s"`
	TokenExpiryBuffer   time.Duration `envconfig:"STAYHUB_PAYMOB_TOKEN_EXPIRY_BUFFER" default:"2m"`
	BankTransactionType string        `envconfig:"STAYHUB_PAYMOB_BANK_TRANSACTION_TYPE" default:"cash_transfer"`
}

type PayoutsConfig struct {
	MinAmountCents int64  `envconfig:"STAYHUB_PAYOUT_MIN_AMOUNT_CENTS" default:"100"`
	Currency       string `envconfig:"STAYHUB_PAYOUT_CURRENCY" default:"EGP"`
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
