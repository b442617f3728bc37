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

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 16*time.Millisecond, cfg.FrameInterval)
	assert.Equal(t, EngineRaster, cfg.ExportEngine)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.NavigateTimeout)
	assert.Equal(t, 30*time.Second, cfg.ReadyTimeout)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Equal(t, 2*time.Minute, cfg.InboxTTL)
	assert.Equal(t, time.Second, cfg.RenderSettle)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Empty(t, cfg.SQLitePath)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestReadFile_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	yml := "log-level: debug\nexport-engine: chrome\nchrome-url: ws://127.0.0.1:9222\nbase-url: http://web:8080/\nmax-concurrent: 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tacticboard.yml"), []byte(yml), 0o644))

	v := newViper()
	used, err := ReadFile(v, "", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".tacticboard.yml"), used)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, EngineChrome, cfg.ExportEngine)
	assert.Equal(t, "ws://127.0.0.1:9222", cfg.ChromeURL)
	assert.Equal(t, "http://web:8080", cfg.BaseURL)
	assert.Equal(t, 2, cfg.MaxConcurrent)
}

func TestReadFile_MissingOptionalFile(t *testing.T) {
	used, err := ReadFile(newViper(), "", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, used)
}

func TestReadFile_MissingExplicitFile(t *testing.T) {
	_, err := ReadFile(newViper(), "/nonexistent/tb.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestBindEnv(t *testing.T) {
	t.Setenv("TB_FRAME_INTERVAL", "40ms")
	t.Setenv("TB_DB_DRIVER", "postgres")
	t.Setenv("TB_DB_DSN", "host=db user=tb")
	t.Setenv("TB_RENDER_SETTLE", "1500ms")

	v := newViper()
	BindEnv(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 40*time.Millisecond, cfg.FrameInterval)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "host=db user=tb", cfg.DBDSN)
	assert.Equal(t, 1500*time.Millisecond, cfg.RenderSettle)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]func(v *viper.Viper){
		"engine":         func(v *viper.Viper) { v.Set(KeyExportEngine, "gpu") },
		"driver":         func(v *viper.Viper) { v.Set(KeyDBDriver, "mysql") },
		"postgres dsn":   func(v *viper.Viper) { v.Set(KeyDBDriver, "postgres") },
		"frame interval": func(v *viper.Viper) { v.Set(KeyFrameInterval, "0s") },
		"concurrency":    func(v *viper.Viper) { v.Set(KeyMaxConcurrent, 0) },
		"timeout":        func(v *viper.Viper) { v.Set(KeyReadyTimeout, "-1s") },
		"settle":         func(v *viper.Viper) { v.Set(KeyRenderSettle, "-1ms") },
		"chrome base":    func(v *viper.Viper) { v.Set(KeyExportEngine, EngineChrome); v.Set(KeyBaseURL, "") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			v := newViper()
			mutate(v)
			_, err := Load(v)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
