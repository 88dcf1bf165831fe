package main

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	larkrelay "github.com/ailover/larkrelay"
)

func newExportReportCmd() *cobra.Command {
	var flagInput string

	cmd := &cobra.Command{
		Use:   "export-report",
		Short: "Export a test report to a Lark document",
		Long:  "Reads a JSON test report, formats it into styled document blocks, creates a fresh document, and prints the viewer URL.",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(flagInput)
			if err != nil {
				return err
			}
			var report larkrelay.TestReportData
			if err := json.Unmarshal(raw, &report); err != nil {
				return errors.Wrap(err, "decode test report failed")
			}

			relay, err := buildRelay()
			if err != nil {
				return err
			}
			documentURL, err := relay.ExportTestReport(cmd.Context(), report)
			if err != nil {
				return err
			}
			fmt.Println(documentURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagInput, "input", "-", "Path to a JSON test report (- for stdin)")

	return cmd
}
