package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rideshare/app"
	"github.com/kilianp07/rideshare/simulator"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a scenario file",
	RunE:  runScenario,
}

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Run with randomly generated requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) (simulator.Summary, error) {
			return svc.RunRandom(ctx)
		})
	},
}

func init() {
	runCmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario file to replay")
	_ = runCmd.MarkFlagRequired("scenario")
	for _, c := range []*cobra.Command{rootCmd, runCmd, randomCmd} {
		c.Flags().BoolVar(&serve, "serve", false, "keep the status API up after the run")
	}
	rootCmd.AddCommand(runCmd, randomCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	if scenarioPath == "" {
		return fmt.Errorf("--scenario is required")
	}
	return withService(cmd, func(ctx context.Context, svc *app.Service) (simulator.Summary, error) {
		return svc.RunScript(ctx, scenarioPath)
	})
}
