package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rideshare/core/steplog"
	"github.com/kilianp07/rideshare/pkg/export"
)

var (
	exportFormat string
	exportOut    string
	exportQuery  steplog.LogQuery
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the step log as json, csv or an html chart",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.StepLog.Backend == "none" {
			return fmt.Errorf("step_log.backend is none, nothing to export")
		}
		store, err := steplog.NewStore(cfg.StepLog)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := store.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		records, err := store.Query(cmd.Context(), exportQuery)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			w = f
		}
		return export.Write(w, exportFormat, records)
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportFormat, "format", "f", export.FormatJSON, "output format: json, csv or html")
	f.StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")
	f.StringVar(&exportQuery.RunID, "run-id", "", "only records of this run")
	f.IntVar(&exportQuery.FromStep, "from", 0, "first step")
	f.IntVar(&exportQuery.ToStep, "to", 0, "last step")
	f.StringVar(&exportQuery.Passenger, "passenger", "", "only steps involving this passenger")
	rootCmd.AddCommand(exportCmd)
}
