package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevJWTSecret signs tokens in development when JWT_SECRET is unset.
const DevJWTSecret = "clinic-development-secret-do-not-use-in-prod"

const minProductionSecretLen = 32

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port                  string   `mapstructure:"PORT"`
	Env                   string   `mapstructure:"ENV"`
	LogLevel              string   `mapstructure:"LOG_LEVEL"`
	StoreDriver           string   `mapstructure:"STORE_DRIVER"`
	MongoURI              string   `mapstructure:"MONGO_URI"`
	MongoDatabase         string   `mapstructure:"MONGO_DATABASE"`
	DatabaseURL           string   `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret             string   `mapstructure:"JWT_SECRET"`
	JWTIssuer             string   `mapstructure:"JWT_ISSUER"`
	JWTAudience           string   `mapstructure:"JWT_AUDIENCE"`
	JWTExpirationMinutes  int      `mapstructure:"JWT_EXPIRATION_MINUTES"`
	CORSOrigins           []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS          float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst        int      `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeoutSeconds int      `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	BodyLimit             string   `mapstructure:"BODY_LIMIT"`
	KafkaBrokers          []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic            string   `mapstructure:"KAFKA_TOPIC"`
	EventPublishTimeoutMS int      `mapstructure:"EVENT_PUBLISH_TIMEOUT_MS"`
	BcryptCost            int      `mapstructure:"BCRYPT_COST"`
	TLSEnabled            bool     `mapstructure:"TLS_ENABLED"`
	TLSCertFile           string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile            string   `mapstructure:"TLS_KEY_FILE"`

	// DevSecretInUse is set when Load substituted DevJWTSecret.
	DevSecretInUse bool `mapstructure:"-"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"STORE_DRIVER", "MONGO_URI", "MONGO_DATABASE",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"JWT_SECRET", "JWT_ISSUER", "JWT_AUDIENCE", "JWT_EXPIRATION_MINUTES",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"REQUEST_TIMEOUT_SECONDS", "BODY_LIMIT",
	"KAFKA_BROKERS", "KAFKA_TOPIC", "EVENT_PUBLISH_TIMEOUT_MS", "BCRYPT_COST",
	"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", "mongo")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "clinic")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("JWT_ISSUER", "clinic-api")
	v.SetDefault("JWT_AUDIENCE", "clinic-clients")
	v.SetDefault("JWT_EXPIRATION_MINUTES", 480)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)
	v.SetDefault("BODY_LIMIT", "2M")
	v.SetDefault("KAFKA_TOPIC", "clinic-events")
	v.SetDefault("EVENT_PUBLISH_TIMEOUT_MS", 2000)
	v.SetDefault("BCRYPT_COST", 12)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(cfg.CORSOrigins, v.GetString("CORS_ORIGINS"))
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers, v.GetString("KAFKA_BROKERS"))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = DevJWTSecret
		cfg.DevSecretInUse = true
	}

	return cfg, nil
}

// splitList turns a comma separated env value into a clean slice. A single
// element holding commas means viper did not split it.
func splitList(parsed []string, raw string) []string {
	if len(parsed) > 1 {
		return trimAll(parsed)
	}
	if raw == "" {
		return nil
	}
	return trimAll(strings.Split(raw, ","))
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.JWTExpirationMinutes) * time.Minute
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) EventPublishTimeout() time.Duration {
	return time.Duration(c.EventPublishTimeoutMS) * time.Millisecond
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER is \"mongo\"")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is \"postgres\"")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be \"mongo\", \"postgres\", or \"memory\", got %q", c.StoreDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < minProductionSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minProductionSecretLen)
	}
	if c.JWTExpirationMinutes <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_MINUTES must be positive, got %d", c.JWTExpirationMinutes)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.EventPublishTimeoutMS < 0 {
		return fmt.Errorf("EVENT_PUBLISH_TIMEOUT_MS cannot be negative")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS cannot be negative")
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
