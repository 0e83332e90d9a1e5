package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Items:         []uint64{123},
		ProxiesFile:   "proxies.txt",
		CookiesFile:   "cookies.txt",
		TargetRPS:     5,
		ResetInterval: time.Minute,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no items", func(c *Config) { c.Items = nil }},
		{"no proxies file", func(c *Config) { c.ProxiesFile = "" }},
		{"no cookies file", func(c *Config) { c.CookiesFile = "" }},
		{"zero rps", func(c *Config) { c.TargetRPS = 0 }},
		{"negative reset interval", func(c *Config) { c.ResetInterval = -time.Second }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sniper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
items: [123, 456]
proxies_file: proxies.txt
cookies_file: cookies.txt
target_rps: 2.5
reset_interval: 30s
`), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, []uint64{123, 456}, cfg.Items)
	assert.Equal(t, 2.5, cfg.TargetRPS)
	assert.Equal(t, 30*time.Second, cfg.ResetInterval)
	assert.Equal(t, 3, cfg.Retries) // default survives the file
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.TargetRPS)
	assert.Equal(t, time.Minute, cfg.ResetInterval)
}

func TestLoadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	require.NoError(t, os.WriteFile(path, []byte("http://a:1\n\n  http://b:2  \n"), 0o644))

	lines, err := LoadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a:1", "http://b:2"}, lines)
}

func TestLoadLinesMissingFile(t *testing.T) {
	_, err := LoadLines(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestParseAccount(t *testing.T) {
	acct, err := ParseAccount("42:1000:_|WARNING:-DO-NOT-SHARE|_abcdef")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), acct.UserID)
	assert.Equal(t, uint64(1000), acct.Robux)
	assert.Equal(t, "_|WARNING:-DO-NOT-SHARE|_abcdef", acct.Cookie)

	for _, line := range []string{"", "42", "42:1000", "x:1000:c", "42:y:c", "42:1000: "} {
		_, err := ParseAccount(line)
		assert.Error(t, err, "line %q", line)
	}
}
