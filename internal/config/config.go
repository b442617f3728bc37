// Package config resolves the server's settings from flags, an optional
// .tacticboard.yml file and TB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "TB"
	ConfigName = ".tacticboard"
)

// Keys shared by flags, the config file and the environment.
const (
	KeyAddr            = "addr"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
	KeyFrameInterval   = "frame-interval"
	KeyExportEngine    = "export-engine"
	KeyChromeURL       = "chrome-url"
	KeyChromeExec      = "chrome-exec"
	KeyBaseURL         = "base-url"
	KeyNavigateTimeout = "navigate-timeout"
	KeyReadyTimeout    = "ready-timeout"
	KeyMaxConcurrent   = "max-concurrent"
	KeyInboxTTL        = "inbox-ttl"
	KeyRenderSettle    = "render-settle"
	KeyDBDriver        = "db-driver"
	KeyDBDSN           = "db-dsn"
	KeySQLitePath      = "sqlite-path"
	KeyAllowedOrigins  = "allowed-origins"
)

// Export engines.
const (
	EngineRaster = "raster"
	EngineChrome = "chrome"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the resolved server configuration.
type Config struct {
	Addr      string
	LogLevel  string
	LogFormat string

	FrameInterval time.Duration

	ExportEngine    string
	ChromeURL       string
	ChromeExec      string
	BaseURL         string
	NavigateTimeout time.Duration
	ReadyTimeout    time.Duration
	MaxConcurrent   int
	InboxTTL        time.Duration
	RenderSettle    time.Duration

	DBDriver   string
	DBDSN      string
	SQLitePath string

	AllowedOrigins []string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyFrameInterval, "16ms")

	v.SetDefault(KeyExportEngine, EngineRaster)
	v.SetDefault(KeyChromeURL, "")
	v.SetDefault(KeyChromeExec, "")
	v.SetDefault(KeyBaseURL, "http://localhost:8080")
	v.SetDefault(KeyNavigateTimeout, "30s")
	v.SetDefault(KeyReadyTimeout, "30s")
	v.SetDefault(KeyMaxConcurrent, 4)
	v.SetDefault(KeyInboxTTL, "2m")
	v.SetDefault(KeyRenderSettle, "1s")

	v.SetDefault(KeyDBDriver, "sqlite")
	v.SetDefault(KeyDBDSN, "")
	v.SetDefault(KeySQLitePath, "")

	v.SetDefault(KeyAllowedOrigins, []string{"*"})
}

// ReadFile reads the config file if one exists. An explicit path must exist;
// otherwise the home directory and the working directory are searched.
func ReadFile(v *viper.Viper, path string, searchDirs ...string) (string, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		for _, dir := range searchDirs {
			v.AddConfigPath(dir)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(ConfigName)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("error reading config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// BindEnv makes every key readable from TB_<KEY> with dashes as underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load resolves v into a Config and checks it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Addr:            v.GetString(KeyAddr),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
		FrameInterval:   v.GetDuration(KeyFrameInterval),
		ExportEngine:    strings.ToLower(v.GetString(KeyExportEngine)),
		ChromeURL:       v.GetString(KeyChromeURL),
		ChromeExec:      v.GetString(KeyChromeExec),
		BaseURL:         strings.TrimRight(v.GetString(KeyBaseURL), "/"),
		NavigateTimeout: v.GetDuration(KeyNavigateTimeout),
		ReadyTimeout:    v.GetDuration(KeyReadyTimeout),
		MaxConcurrent:   v.GetInt(KeyMaxConcurrent),
		InboxTTL:        v.GetDuration(KeyInboxTTL),
		RenderSettle:    v.GetDuration(KeyRenderSettle),
		DBDriver:        strings.ToLower(v.GetString(KeyDBDriver)),
		DBDSN:           v.GetString(KeyDBDSN),
		SQLitePath:      v.GetString(KeySQLitePath),
		AllowedOrigins:  v.GetStringSlice(KeyAllowedOrigins),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.ExportEngine {
	case EngineRaster:
	case EngineChrome:
		if c.BaseURL == "" {
			return fmt.Errorf("%w: chrome export needs %s", ErrInvalidConfig, KeyBaseURL)
		}
	default:
		return fmt.Errorf("%w: unknown export engine %q", ErrInvalidConfig, c.ExportEngine)
	}
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DBDSN == "" {
			return fmt.Errorf("%w: postgres needs %s", ErrInvalidConfig, KeyDBDSN)
		}
	default:
		return fmt.Errorf("%w: unknown db driver %q", ErrInvalidConfig, c.DBDriver)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyFrameInterval)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyMaxConcurrent)
	}
	if c.NavigateTimeout <= 0 || c.ReadyTimeout <= 0 {
		return fmt.Errorf("%w: export timeouts must be positive", ErrInvalidConfig)
	}
	if c.RenderSettle < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, KeyRenderSettle)
	}
	return nil
}
