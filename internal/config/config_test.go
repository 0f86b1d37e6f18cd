package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, ":5000", cfg.HTTP.Addr)
	require.Equal(t, "twitter_session", cfg.Session.Name)
	require.Equal(t, 720*time.Hour, cfg.Session.TTL)
	require.Equal(t, "info", cfg.Log.Level)
	require.True(t, cfg.UsesDefaultSecret())
	require.False(t, cfg.Session.AllowDefaultSecret)
}

func TestUsesDefaultSecret(t *testing.T) {
	t.Setenv("TWITTER_SESSION_ALLOW_DEFAULT_SECRET", "true")
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.True(t, cfg.Session.AllowDefaultSecret)

	cfg.Session.Secrets = []string{"production-hash-key"}
	require.False(t, cfg.UsesDefaultSecret())

	cfg.Session.Secrets = []string{"production-hash-key", "", DevelopmentSecret}
	require.True(t, cfg.UsesDefaultSecret())
}

func TestLoadLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":8080"
database:
  path: /var/lib/twitter.db
session:
  ttl: 1h
  secrets:
    - file-hash-key
    - 0123456789abcdef
`), 0o600))

	t.Setenv("TWITTER_LOG_LEVEL", "debug")
	t.Setenv("TWITTER_DATABASE_PATH", "/env/twitter.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("http.addr", ":5000", "")
	require.NoError(t, flags.Parse([]string{"--http.addr=:9090"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Addr)
	require.Equal(t, "/env/twitter.db", cfg.Database.Path)
	require.Equal(t, time.Hour, cfg.Session.TTL)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, [][]byte{[]byte("file-hash-key"), []byte("0123456789abcdef")}, cfg.SessionKeys())
}

func TestUnchangedFlagsKeepFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: \":8080\"\n"), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("http.addr", ":5000", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid, err := Load("", nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no secrets", func(c *Config) { c.Session.Secrets = nil }},
		{"empty hash key", func(c *Config) { c.Session.Secrets = []string{""} }},
		{"bad block key", func(c *Config) { c.Session.Secrets = []string{"hash", "short"} }},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"no addr", func(c *Config) { c.HTTP.Addr = "" }},
		{"no database", func(c *Config) { c.Database.Path = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.Session.Secrets = append([]string(nil), valid.Session.Secrets...)
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestSessionKeysEmptyBlockKey(t *testing.T) {
	cfg := Config{Session: SessionConfig{Secrets: []string{"hash", ""}}}
	require.Equal(t, [][]byte{[]byte("hash"), nil}, cfg.SessionKeys())
}

func TestNewLogger(t *testing.T) {
	cfg := Config{Log: LogConfig{Level: "warn", Format: "json"}}
	log := cfg.NewLogger()
	require.Equal(t, logrus.WarnLevel, log.GetLevel())
	require.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}
