package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pvcast/app"
	"github.com/kilianp07/pvcast/config"
	"github.com/kilianp07/pvcast/infra/logger"
)

const defaultConfig = "pvcast.yaml"

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "pvcast <features.hdf5>",
	Short:        "Stream 48-step PV output forecasts for an HDF5 feature file",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runLive,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfig, "configuration file (optional)")
	rootCmd.AddCommand(validateCmd, historyCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the config file when one was named explicitly or the
// default file exists.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withService builds the service, runs fn under a signal-aware context and
// closes the service.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return fn(ctx, svc)
}

func runLive(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		return svc.RunLive(ctx, args[0])
	})
}
