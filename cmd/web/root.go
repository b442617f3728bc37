package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tacticboard/internal/config"
)

func newRootCmd() *cobra.Command {
	var cfgFile string
	v := viper.New()
	config.SetDefaults(v)

	cmd := &cobra.Command{
		Use:           "tacticboard",
		Short:         "Football tactics board with image export",
		SilenceUsage:  true,
		SilenceErrors: false,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tacticboard.yml or ./.tacticboard.yml)")
	flags.String(config.KeyAddr, v.GetString(config.KeyAddr), "listen address")
	flags.String(config.KeyLogLevel, v.GetString(config.KeyLogLevel), "log level (debug, info, warn, error)")
	flags.String(config.KeyLogFormat, v.GetString(config.KeyLogFormat), "log format (json, console)")
	flags.Duration(config.KeyFrameInterval, v.GetDuration(config.KeyFrameInterval), "minimum gap between board notifications")
	flags.String(config.KeyExportEngine, v.GetString(config.KeyExportEngine), "export engine (raster, chrome)")
	flags.String(config.KeyChromeURL, "", "devtools websocket URL of a running browser")
	flags.String(config.KeyChromeExec, "", "path of a local browser binary")
	flags.String(config.KeyBaseURL, v.GetString(config.KeyBaseURL), "URL the browser uses to reach this server")
	flags.Duration(config.KeyNavigateTimeout, v.GetDuration(config.KeyNavigateTimeout), "export navigation timeout")
	flags.Duration(config.KeyReadyTimeout, v.GetDuration(config.KeyReadyTimeout), "export readiness timeout")
	flags.Int(config.KeyMaxConcurrent, v.GetInt(config.KeyMaxConcurrent), "exports rendering at once")
	flags.Duration(config.KeyInboxTTL, v.GetDuration(config.KeyInboxTTL), "how long a parked export snapshot stays redeemable")
	flags.Duration(config.KeyRenderSettle, v.GetDuration(config.KeyRenderSettle), "pause after paint before the render-only view reports ready")
	flags.String(config.KeyDBDriver, v.GetString(config.KeyDBDriver), "tactic store driver (sqlite, postgres)")
	flags.String(config.KeyDBDSN, "", "postgres connection string")
	flags.String(config.KeySQLitePath, "", "sqlite database file; empty keeps tactics in memory")
	flags.StringSlice(config.KeyAllowedOrigins, v.GetStringSlice(config.KeyAllowedOrigins), "CORS origins allowed on the export API")
	return cmd
}

// initConfig reads the config file and environment, then binds the flags so
// an explicit flag wins over both.
func initConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	dirs = append(dirs, ".")
	used, err := config.ReadFile(v, cfgFile, dirs...)
	if err != nil {
		return err
	}
	if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
	config.BindEnv(v)

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || !f.Changed {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}
