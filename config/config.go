package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// EnvPrefix marks the environment variables read into Config.
// STOREFRONT_DB_DRIVER maps to db.driver, STOREFRONT_SESSION_TTL to session.ttl.
const EnvPrefix = "STOREFRONT_"

type Config struct {
	Port string `koanf:"port"`
	Mode string `koanf:"mode"`

	Log struct {
		Level  string `koanf:"level"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"log"`

	DB struct {
		Driver string `koanf:"driver"`
		DSN    string `koanf:"dsn"`
	} `koanf:"db"`

	// Store selects the persisted store: "db" or "memory".
	Store struct {
		Driver string `koanf:"driver"`
	} `koanf:"store"`

	Session struct {
		Secret string        `koanf:"secret"`
		TTL    time.Duration `koanf:"ttl"`
		Idle   time.Duration `koanf:"idle"`
		Sweep  time.Duration `koanf:"sweep"`
		Secure bool          `koanf:"secure"`
	} `koanf:"session"`

	Admin struct {
		Name     string `koanf:"name"`
		Email    string `koanf:"email"`
		Password string `koanf:"password"`
	} `koanf:"admin"`

	Catalog struct {
		Seed string `koanf:"seed"`
	} `koanf:"catalog"`

	// CORS.Origin is a comma separated list of allowed origins.
	CORS struct {
		Origin string `koanf:"origin"`
	} `koanf:"cors"`

	RateLimit struct {
		Requests int           `koanf:"requests"`
		Window   time.Duration `koanf:"window"`
		Login    int           `koanf:"login"`
	} `koanf:"ratelimit"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	cfg := &Config{Port: "8080", Mode: "debug"}
	cfg.Log.Level = "info"
	cfg.Log.Pretty = true
	cfg.DB.Driver = "sqlite"
	cfg.DB.DSN = "storefront.db"
	cfg.Store.Driver = "db"
	cfg.Session.Secret = "change-me-in-production"
	cfg.Session.TTL = 24 * time.Hour
	cfg.Session.Idle = 30 * time.Minute
	cfg.Session.Sweep = time.Minute
	cfg.Admin.Name = "Administrator"
	cfg.CORS.Origin = "http://localhost:3000"
	cfg.RateLimit.Requests = 50
	cfg.RateLimit.Window = time.Second
	cfg.RateLimit.Login = 5
	return cfg
}

// Load layers .env, the optional YAML file at path and STOREFRONT_*
// environment variables over Default.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "read config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat config %s", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables")
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite", "mysql":
	default:
		return errors.Errorf("unsupported db driver %q", c.DB.Driver)
	}
	switch c.Store.Driver {
	case "db", "memory":
	default:
		return errors.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if c.Session.Secret == "" {
		return errors.New("session secret is required")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	return nil
}
