package main

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	larkrelay "github.com/ailover/larkrelay"
)

func newExportCasesCmd() *cobra.Command {
	var flagInput string

	cmd := &cobra.Command{
		Use:   "export-cases",
		Short: "Export test case rows to a Lark spreadsheet",
		Long:  "Reads a JSON array of test case rows, transcodes them to delimited text, imports the result as a spreadsheet, and prints the resolved file URL.",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(flagInput)
			if err != nil {
				return err
			}
			var rows []larkrelay.TestCaseRow
			if err := json.Unmarshal(raw, &rows); err != nil {
				return errors.Wrap(err, "decode test case rows failed")
			}

			relay, err := buildRelay()
			if err != nil {
				return err
			}
			fileURL, err := relay.ExportTestCases(cmd.Context(), rows)
			if err != nil {
				return err
			}
			fmt.Println(fileURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagInput, "input", "-", "Path to a JSON array of test case rows (- for stdin)")

	return cmd
}
