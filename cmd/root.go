// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/bugtrap/internal/config"
	"github.com/xkilldash9x/bugtrap/internal/observability"
)

type contextKey string

// configKey stores the loaded configuration in the command context.
const configKey contextKey = "config"

var (
	cfgFile string

	// osExit is swapped out in tests.
	osExit = os.Exit

	// logWriter receives the application log. Stdout is reserved for captured messages.
	logWriter zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
)

var rootCmd = newRootCmd()

// newRootCmd builds the root command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bugtrap",
		Short: "bugtrap captures and classifies browser-side errors.",
		// Version is set at build time. See cmd/version.go.
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(v); err != nil {
				basicLogger, _ := zap.NewDevelopment()
				defer basicLogger.Sync()
				basicLogger.Error("Failed to initialize configuration", zap.Error(err))
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.Initialize(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "bugtrap"}, logWriter)
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.Initialize(cfg.Logger(), logWriter)
			observability.GetLogger().Debug("Starting bugtrap", zap.String("version", Version))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, configKey, config.Interface(cfg)))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml, then ~/.bugtrap/config.yaml)")
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newClassifyCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	observability.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		osExit(1)
	}
}

// initializeConfig points v at the config file and binds BUGTRAP_* environment variables.
func initializeConfig(v *viper.Viper) error {
	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("invalid config path %q: %w", cfgFile, err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".bugtrap"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BUGTRAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment apply.
	}
	return nil
}

// getConfigFromContext returns the configuration stored by the root command.
func getConfigFromContext(ctx context.Context) (config.Interface, error) {
	if ctx == nil {
		return nil, errors.New("command context is not set")
	}
	cfg, ok := ctx.Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in context")
	}
	return cfg, nil
}
