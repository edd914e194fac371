package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := fromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 32.0, cfg.RatingKFactor)
	assert.Equal(t, 30*time.Second, cfg.SchedulerInterval)
	assert.Equal(t, 4, cfg.EventWorkers)
	assert.Equal(t, 256, cfg.EventQueueSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tournaments")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RATING_K_FACTOR", "24")
	t.Setenv("SCHEDULER_INTERVAL", "1m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := fromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 24.0, cfg.RatingKFactor)
	assert.Equal(t, time.Minute, cfg.SchedulerInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres without url": {"JWT_SECRET_KEY": "s"},
		"missing secret":       {"STORAGE_DRIVER": "memory"},
		"unknown driver":       {"STORAGE_DRIVER": "mongo", "JWT_SECRET_KEY": "s"},
		"bad port":             {"STORAGE_DRIVER": "memory", "JWT_SECRET_KEY": "s", "SERVER_PORT": "70000"},
		"bad k factor":         {"STORAGE_DRIVER": "memory", "JWT_SECRET_KEY": "s", "RATING_K_FACTOR": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("JWT_SECRET_KEY", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := fromViper(viper.New())
			assert.Error(t, err)
		})
	}
}
