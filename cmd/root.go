package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dataviews/internal/config"
)

var (
	cfgFile string
	logger  *zap.Logger
)

var RootCmd = &cobra.Command{
	Use:   "dataviews",
	Short: "Grid, kanban, calendar, gallery and form views over one table",
	Long: `dataviews serves a single schema-described table through interchangeable
views. Records live in memory, sqlite, postgres, mysql or mongodb; the views
are exposed over an HTTP API with a websocket event stream, or over MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if viper.GetBool("log.verbose") {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./dataviews.yaml)")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().String("schema", "", "table schema file (yaml or json)")
	RootCmd.PersistentFlags().String("driver", "", "record backend: memory, sqlite, postgres, mysql or mongodb")
	RootCmd.PersistentFlags().String("dsn", "", "backend connection string")

	viper.BindPFlag("log.verbose", RootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("schema.path", RootCmd.PersistentFlags().Lookup("schema"))
	viper.BindPFlag("backend.driver", RootCmd.PersistentFlags().Lookup("driver"))
	viper.BindPFlag("backend.dsn", RootCmd.PersistentFlags().Lookup("dsn"))

	config.SetDefaults(viper.GetViper())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if _, err := config.ReadFile(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig decodes the merged flag, env, file and default settings.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}
