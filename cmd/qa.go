package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rideshare/infra/logger"
	"github.com/kilianp07/rideshare/qa/scenarios"
)

var qaCmd = &cobra.Command{
	Use:   "qa <dir>",
	Short: "Run every scenario case in a directory against its expected outcome",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := logger.SetLevel(cfg.LogLevel); err != nil {
			return err
		}
		cases, err := scenarios.LoadDir(args[0])
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			return fmt.Errorf("no scenario cases in %s", args[0])
		}
		failed, err := scenarios.RunAll(cmd.Context(), cases, cmd.OutOrStdout(), logger.New("qa"))
		if err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios did not match", failed, len(cases))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(qaCmd)
}
