package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	larkrelay "github.com/ailover/larkrelay"
	"github.com/ailover/larkrelay/internal/config"
	"github.com/ailover/larkrelay/internal/larkapi"
	"github.com/ailover/larkrelay/internal/metrics"
	"github.com/ailover/larkrelay/internal/storage"
)

// buildRelay wires the client, observers, journal, and exporter from the
// environment.
func buildRelay() (*larkrelay.Relay, error) {
	client, err := larkapi.NewClientFromEnv()
	if err != nil {
		return nil, err
	}

	onRequest, onResponse := larkapi.LoggingObservers()
	client.AddRequestObserver(onRequest)
	client.AddResponseObserver(onResponse)

	upstream := metrics.NewUpstreamMetrics(prometheus.NewRegistry())
	client.AddResponseObserver(upstream.ResponseObserver())

	journal, err := storage.OpenJournalFromEnv()
	if err != nil {
		log.Warn().Err(err).Msg("open export journal failed, continuing without one")
		journal = nil
	}

	exporter := larkrelay.NewExporter(client, larkrelay.ExporterOptions{
		PollInterval:  config.Duration(larkrelay.EnvPollInterval, 0),
		PollAttempts:  config.Int(larkrelay.EnvPollAttempts, 0),
		ViewerBaseURL: config.String(larkrelay.EnvDocViewerURL, ""),
		Journal:       journal,
	})

	return larkrelay.NewRelay(client, exporter), nil
}

// readInput reads a payload from path, or from stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, errors.Wrap(err, "read stdin failed")
	}
	data, err := os.ReadFile(path)
	return data, errors.Wrapf(err, "read input file %s failed", path)
}
