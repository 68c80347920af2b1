package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		StorageDriver:           StorageDriverPostgres,
		DBUrl:                   "postgres://localhost/glowmart",
		JWTSecret:               "secret",
		LoyaltyCurrencyPerPoint: 100,
		ReturnWindow:            14 * 24 * time.Hour,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid postgres", func(c *Config) {}, false},
		{"memory needs no dsn", func(c *Config) { c.StorageDriver = StorageDriverMemory; c.DBUrl = "" }, false},
		{"postgres without dsn", func(c *Config) { c.DBUrl = "" }, true},
		{"unknown driver", func(c *Config) { c.StorageDriver = "mysql" }, true},
		{"zero point rate", func(c *Config) { c.LoyaltyCurrencyPerPoint = 0 }, true},
		{"negative return window", func(c *Config) { c.ReturnWindow = -time.Hour }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestR2Enabled(t *testing.T) {
	c := validConfig()
	assert.False(t, c.R2Enabled())

	c.R2AccountID, c.R2AccessKeyID, c.R2AccessKeySecret, c.R2BucketName = "acct", "key", "secret", "proofs"
	assert.True(t, c.R2Enabled())
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("GM_TEST_DURATION", "90s")
	t.Setenv("GM_TEST_BAD_INT", "twelve")
	t.Setenv("GM_TEST_BOOL", "false")

	assert.Equal(t, 90*time.Second, getDurationEnv("GM_TEST_DURATION", time.Minute))
	assert.Equal(t, 12, getIntEnv("GM_TEST_BAD_INT", 12))
	assert.False(t, getBoolEnv("GM_TEST_BOOL", true))
	assert.Equal(t, "fallback", getEnv("GM_TEST_UNSET", "fallback"))
}
