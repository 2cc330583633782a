package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Same bounds as the register payload. bcrypt rejects input over 72 bytes.
const (
	minPasswordLength = 8
	maxPasswordBytes  = 72
)

type Config struct {
	HTTPAddr         string        `envconfig:"HTTP_ADDR" default:":8080"`
	DatabaseURL      string        `envconfig:"DATABASE_URL"`
	StorageDriver    string        `envconfig:"STORAGE_DRIVER" default:"postgres"`
	DatastoreTimeout time.Duration `envconfig:"DATASTORE_TIMEOUT" default:"5s"`

	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer  string        `envconfig:"JWT_ISSUER" default:"usermgmt"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	BcryptCost          int    `envconfig:"BCRYPT_COST" default:"10"`
	HashConcurrency     int    `envconfig:"HASH_CONCURRENCY" default:"0"`
	UniformSignInErrors bool   `envconfig:"UNIFORM_SIGNIN_ERRORS" default:"false"`
	MFAIssuer           string `envconfig:"MFA_ISSUER" default:"usermgmt"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	BootstrapAdminEmail    string `envconfig:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres storage driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if (c.BootstrapAdminEmail == "") != (c.BootstrapAdminPassword == "") {
		return errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	if c.BootstrapAdminPassword != "" {
		if n := len(c.BootstrapAdminPassword); n < minPasswordLength || n > maxPasswordBytes {
			return fmt.Errorf("BOOTSTRAP_ADMIN_PASSWORD must be %d to %d bytes long", minPasswordLength, maxPasswordBytes)
		}
	}
	return nil
}

func (c Config) LogrusLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
