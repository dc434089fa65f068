// Package cmd implements the rideshare command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rideshare/app"
	"github.com/kilianp07/rideshare/config"
	"github.com/kilianp07/rideshare/infra/logger"
	"github.com/kilianp07/rideshare/simulator"
)

var (
	cfgPath      string
	scenarioPath string
	serve        bool
)

var rootCmd = &cobra.Command{
	Use:          "rideshare",
	Short:        "Single vehicle ride-share dispatch simulator",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scenarioPath == "" {
			return cmd.Help()
		}
		return runScenario(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario file to replay")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withService builds the service, runs fn and tears everything down. When
// serve is set the API keeps answering after the run until interrupted.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) (simulator.Summary, error)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	svc.Start(ctx)

	_, runErr := fn(ctx, svc)
	if serve && runErr == nil {
		logger.New("main").Infof("run complete, serving until interrupted")
		<-ctx.Done()
	}
	return runErr
}
