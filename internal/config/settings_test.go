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

func newViper(t *testing.T, overrides map[string]any) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestLoadMatchingConfig(t *testing.T) {
	tests := []struct {
		overrides map[string]any
		name      string
		wantLimit int
		wantMin   int
		wantSame  bool
		wantErr   bool
	}{
		{name: "defaults", wantLimit: 10},
		{name: "custom", overrides: map[string]any{KeyDefaultLimit: 25, KeyIncludeSameSupplier: true}, wantLimit: 25, wantSame: true},
		{name: "score floor", overrides: map[string]any{KeyMinScore: 1}, wantLimit: 10, wantMin: 1},
		{name: "zero limit", overrides: map[string]any{KeyDefaultLimit: 0}, wantErr: true},
		{name: "negative limit", overrides: map[string]any{KeyDefaultLimit: -3}, wantErr: true},
		{name: "score floor above 100", overrides: map[string]any{KeyMinScore: 101}, wantErr: true},
		{name: "negative score floor", overrides: map[string]any{KeyMinScore: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadMatchingConfig(newViper(t, tt.overrides))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, cfg.DefaultLimit)
			assert.Equal(t, tt.wantSame, cfg.IncludeSameSupplier)
			assert.Equal(t, tt.wantMin, cfg.MinScore)
		})
	}
}

func TestLoadServerConfig(t *testing.T) {
	s, err := LoadServerConfig(newViper(t, nil))
	require.NoError(t, err)
	assert.Equal(t, ":8000", s.Addr)
	assert.Equal(t, 15*time.Second, s.ReadTimeout)

	_, err = LoadServerConfig(newViper(t, map[string]any{KeyServerAddr: ""}))
	assert.Error(t, err)

	_, err = LoadServerConfig(newViper(t, map[string]any{KeyServerWriteTimeout: "0s"}))
	assert.Error(t, err)
}

func TestDatabasePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got := DatabasePath(newViper(t, nil))
	assert.Equal(t, filepath.Join(home, ".local", "share", "flexo", "flexo.db"), got)

	got = DatabasePath(newViper(t, map[string]any{KeyDatabasePath: "~/plates.db"}))
	assert.Equal(t, filepath.Join(home, "plates.db"), got)

	t.Setenv("DATABASE_PATH", "/tmp/env.db")
	v := viper.New()
	assert.Equal(t, "/tmp/env.db", DatabasePath(v))
}
