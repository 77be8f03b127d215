package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadAppliesDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "SERVICE_ID", "DEFAULT_WALK_SPEED_MPS", "CACHE_TTL_SECONDS"} {
		os.Unsetenv(key)
	}

	c := Load()

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, 1, c.ServiceID)
	assert.Equal(t, 1.2, c.DefaultWalkSpeedMPS)
	assert.Equal(t, 1.0, c.DefaultMaxWalkKm)
	assert.Equal(t, 60, c.DefaultWindowMins)
	assert.Equal(t, 600, c.CacheTTLSeconds)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("SERVICE_ID", "3")
	os.Setenv("DEFAULT_WALK_SPEED_MPS", "1.5")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("SERVICE_ID")
		os.Unsetenv("DEFAULT_WALK_SPEED_MPS")
	}()

	c := Load()

	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, 3, c.ServiceID)
	assert.Equal(t, 1.5, c.DefaultWalkSpeedMPS)
}

func TestLoadIgnoresUnparseableNumericOverrides(t *testing.T) {
	os.Setenv("SERVICE_ID", "not-a-number")
	defer os.Unsetenv("SERVICE_ID")

	c := Load()

	assert.Equal(t, 1, c.ServiceID, "malformed env value should fall back to default")
}
