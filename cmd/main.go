package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ailover/larkrelay/internal/env"
)

var rootCmd = &cobra.Command{
	Use:   "larkrelay",
	Short: "Relay workflows against the Lark open-platform API",
	Long:  `larkrelay drives the Lark export workflows (test cases to spreadsheet, test reports to documents) and generic token-authenticated API calls, with credentials and endpoints loaded from the environment.`,
}

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	rootCmd.AddCommand(
		newExportCasesCmd(),
		newExportReportCmd(),
		newGetDocCmd(),
		newCallCmd(),
		newHistoryCmd(),
	)
	_ = env.Ensure()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("larkrelay command failed")
	}
}
