package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DATABASE_TYPE", "PORT", "CACHE_TYPE"} {
		old, ok := os.LookupEnv(k)
		os.Unsetenv(k)
		defer func(k, old string, ok bool) {
			if ok {
				os.Setenv(k, old)
			}
		}(k, old, ok)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendEmbedded, cfg.Database.Type)
	assert.Equal(t, CacheMemory, cfg.Cache.Type)
	assert.NotEmpty(t, cfg.GetServerAddress())
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Environment: "development"}
	assert.True(t, cfg.IsDevelopment())

	cfg.Environment = "production"
	assert.False(t, cfg.IsDevelopment())
}

func TestDatabaseConfig_HostedConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want bool
	}{
		{"neither set", DatabaseConfig{}, false},
		{"hosted url set", DatabaseConfig{HostedURL: "postgres://host/db"}, true},
		{"connection string set", DatabaseConfig{ConnectionString: "postgres://host/db"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.HostedConfigured())
		})
	}
}

func TestDatabaseConfig_Validate(t *testing.T) {
	valid := DatabaseConfig{Type: BackendEmbedded, Path: "./data/prompts.db"}
	assert.NoError(t, valid.Validate())

	missingPath := DatabaseConfig{Type: BackendEmbedded}
	assert.Error(t, missingPath.Validate())

	unsupported := DatabaseConfig{Type: "unsupported"}
	assert.Error(t, unsupported.Validate())
}

func TestVectorConfig_Validate(t *testing.T) {
	disabled := VectorConfig{Enabled: false}
	assert.NoError(t, disabled.Validate())

	valid := VectorConfig{Enabled: true, ProviderPriority: PriorityRemoteFirst, BatchSize: 16}
	assert.NoError(t, valid.Validate())

	invalid := VectorConfig{Enabled: true, ProviderPriority: "unknown-provider", BatchSize: 16}
	assert.Error(t, invalid.Validate())
}
