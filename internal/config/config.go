// Package config loads runtime configuration from defaults, an optional YAML
// file, TWITTER_* environment variables and command-line flags, in that order.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

const envPrefix = "TWITTER_"

// DevelopmentSecret is the built-in session hash key. It is public, so a
// server using it accepts forged sessions.
const DevelopmentSecret = "development key"

// Config holds runtime configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Password PasswordConfig `koanf:"password"`
	Log      LogConfig      `koanf:"log"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// SessionConfig configures the session cookie. Secrets alternate hash and
// block keys; a block key may be empty to disable encryption for that pair.
// AllowDefaultSecret lets the server run with DevelopmentSecret.
type SessionConfig struct {
	Name               string        `koanf:"name"`
	Secrets            []string      `koanf:"secrets"`
	TTL                time.Duration `koanf:"ttl"`
	Secure             bool          `koanf:"secure"`
	AllowDefaultSecret bool          `koanf:"allow_default_secret"`
}

type PasswordConfig struct {
	Cost int `koanf:"cost"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"http.addr":       ":5000",
		"database.path":   "/tmp/twitterclone.db",
		"session.name":    "twitter_session",
		"session.secrets": []string{DevelopmentSecret},
		"session.ttl":     "720h",
		"session.secure":  false,
		"password.cost":   bcrypt.DefaultCost,
		"log.level":       "info",
		"log.format":      "text",

		"session.allow_default_secret": false,
	}
}

// Load builds a Config. path may be empty; flags may be nil. Flag names use
// the same dotted keys as the file, e.g. --http.addr.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return Config{}, errors.Wrap(err, "loading defaults failed")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "loading config file failed, path=%q", path)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, errors.Wrap(err, "loading environment failed")
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, errors.Wrap(err, "loading flags failed")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding config failed")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps TWITTER_SESSION_TTL to session.ttl. Only the first underscore
// separates the section so keys stay one level deep.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// Validate checks values that would otherwise fail at first use.
func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("config: http.addr is required")
	}
	if c.Database.Path == "" {
		return errors.New("config: database.path is required")
	}
	if len(c.Session.Secrets) == 0 || c.Session.Secrets[0] == "" {
		return errors.New("config: session.secrets needs at least one non-empty hash key")
	}
	for i := 1; i < len(c.Session.Secrets); i += 2 {
		switch n := len(c.Session.Secrets[i]); n {
		case 0, 16, 24, 32:
		default:
			return errors.Errorf("config: session.secrets[%d] is a block key and must be 16, 24 or 32 bytes, got %d", i, n)
		}
	}
	if c.Session.TTL <= 0 {
		return errors.New("config: session.ttl must be positive")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "config: log.level")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// SessionKeys returns the session secrets as key pairs for the session codec.
// An empty block key becomes nil.
func (c Config) SessionKeys() [][]byte {
	keys := make([][]byte, 0, len(c.Session.Secrets))
	for _, s := range c.Session.Secrets {
		if s == "" {
			keys = append(keys, nil)
			continue
		}
		keys = append(keys, []byte(s))
	}
	return keys
}

// UsesDefaultSecret reports whether any session hash key is DevelopmentSecret.
func (c Config) UsesDefaultSecret() bool {
	for i := 0; i < len(c.Session.Secrets); i += 2 {
		if c.Session.Secrets[i] == DevelopmentSecret {
			return true
		}
	}
	return false
}

// NewLogger builds the application logger.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
		log.SetLevel(level)
	}
	if c.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
