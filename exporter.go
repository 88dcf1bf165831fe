package larkrelay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ailover/larkrelay/internal/larkapi"
	"github.com/ailover/larkrelay/internal/storage"
)

// Environment variables consumed by the operator entry points when building
// an Exporter.
const (
	EnvPollInterval  = "LARKRELAY_POLL_INTERVAL"
	EnvPollAttempts  = "LARKRELAY_POLL_ATTEMPTS"
	EnvDocViewerURL  = "LARK_DOC_VIEWER_URL"
	defaultViewerURL = "https://qsgekjhfr3py.sg.larksuite.com"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollAttempts = 150
)

const exportTimeFormat = "2006-01-02 15:04:05"

// sheetImportAPI is the slice of the upstream client the test case export
// pipeline depends on.
type sheetImportAPI interface {
	ImportSheet(ctx context.Context, content []byte, fileName string) (string, error)
	ImportResult(ctx context.Context, ticket string) (string, error)
}

// documentAPI is the slice of the upstream client the report export pipeline
// depends on.
type documentAPI interface {
	CreateDocument(ctx context.Context, title string) (string, error)
	AppendBlocks(ctx context.Context, documentID string, tree larkapi.BlockTree) (string, error)
}

// ExporterOptions customizes export pipeline behavior.
type ExporterOptions struct {
	// PollInterval is the fixed delay between import result polls.
	PollInterval time.Duration
	// PollAttempts caps how many times an import ticket is polled before the
	// export fails with a timeout.
	PollAttempts int
	// ViewerBaseURL is the host used to build document viewer links.
	ViewerBaseURL string
	// Journal, when non-nil, receives a record per finished export.
	Journal *storage.ExportJournal
}

// Exporter orchestrates the multi-step export workflows. All upstream calls
// within one export run are sequential; the only retry is the bounded import
// poll loop with its fixed backoff.
type Exporter struct {
	sheets sheetImportAPI
	docs   documentAPI

	pollInterval  time.Duration
	pollAttempts  int
	viewerBaseURL string
	journal       *storage.ExportJournal

	clock   func() time.Time
	sleepFn func(ctx context.Context, d time.Duration) error
}

// NewExporter builds an Exporter on top of an upstream client.
func NewExporter(client *larkapi.Client, opts ExporterOptions) *Exporter {
	e := &Exporter{
		sheets:        client,
		docs:          client,
		pollInterval:  opts.PollInterval,
		pollAttempts:  opts.PollAttempts,
		viewerBaseURL: opts.ViewerBaseURL,
		journal:       opts.Journal,
	}
	if e.pollInterval <= 0 {
		e.pollInterval = defaultPollInterval
	}
	if e.pollAttempts <= 0 {
		e.pollAttempts = defaultPollAttempts
	}
	if e.viewerBaseURL == "" {
		e.viewerBaseURL = defaultViewerURL
	}
	return e
}

func (e *Exporter) now() time.Time {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

func (e *Exporter) sleep(ctx context.Context, d time.Duration) error {
	if e.sleepFn != nil {
		return e.sleepFn(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ExportTestCases transcodes rows into delimited text, submits them for
// spreadsheet import, and polls until the resolved file URL is available.
func (e *Exporter) ExportTestCases(ctx context.Context, rows []TestCaseRow) (string, error) {
	exportID := uuid.NewString()

	encoded, err := encodeTestCasesCSV(rows)
	if err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("Test case %s.csv", e.now().Format(exportTimeFormat))
	log.Info().
		Str("exportID", exportID).
		Int("rows", len(rows)).
		Str("fileName", fileName).
		Msg("larkrelay: exporting test cases")

	ticket, err := e.sheets.ImportSheet(ctx, encoded, fileName)
	if err != nil {
		e.record(exportID, storage.KindTestCases, "", err)
		return "", err
	}

	fileURL, err := e.awaitImport(ctx, ticket)
	e.record(exportID, storage.KindTestCases, fileURL, err)
	if err != nil {
		return "", err
	}

	log.Info().Str("exportID", exportID).Str("fileURL", fileURL).Msg("larkrelay: test cases exported")
	return fileURL, nil
}

// awaitImport polls the import ticket with a fixed delay until the resolved
// URL appears or the attempt ceiling is hit.
func (e *Exporter) awaitImport(ctx context.Context, ticket string) (string, error) {
	for attempt := 1; attempt <= e.pollAttempts; attempt++ {
		fileURL, err := e.sheets.ImportResult(ctx, ticket)
		if err != nil {
			return "", err
		}
		if fileURL != "" {
			return fileURL, nil
		}
		if attempt == e.pollAttempts {
			break
		}
		log.Debug().Str("ticket", ticket).Int("attempt", attempt).Msg("larkrelay: import not ready yet")
		if err := e.sleep(ctx, e.pollInterval); err != nil {
			return "", larkapi.Normalize(err)
		}
	}
	return "", larkapi.TimeoutError("sheet import not ready after %d attempts", e.pollAttempts)
}

// ExportTestReport formats the report into a block tree, creates a fresh
// document, appends the blocks, and returns the viewer URL. Missing response
// fields fail loudly rather than silently producing no value.
func (e *Exporter) ExportTestReport(ctx context.Context, report TestReportData) (string, error) {
	exportID := uuid.NewString()
	title := fmt.Sprintf("Test Report - %s", e.now().Format(exportTimeFormat))
	blocks := formatReportBlocks(report)

	log.Info().
		Str("exportID", exportID).
		Str("title", title).
		Int("blocks", len(blocks.Children)).
		Msg("larkrelay: exporting test report")

	documentID, err := e.docs.CreateDocument(ctx, title)
	if err != nil {
		e.record(exportID, storage.KindTestReport, "", err)
		return "", err
	}
	if documentID == "" {
		err := larkapi.InternalError("document creation response missing document_id")
		e.record(exportID, storage.KindTestReport, "", err)
		return "", err
	}

	confirmation, err := e.docs.AppendBlocks(ctx, documentID, blocks)
	if err != nil {
		e.record(exportID, storage.KindTestReport, "", err)
		return "", err
	}
	if confirmation == "" {
		err := larkapi.InternalError("append blocks response missing client_token")
		e.record(exportID, storage.KindTestReport, "", err)
		return "", err
	}

	documentURL := fmt.Sprintf("%s/docx/%s", e.viewerBaseURL, documentID)
	e.record(exportID, storage.KindTestReport, documentURL, nil)

	log.Info().Str("exportID", exportID).Str("documentURL", documentURL).Msg("larkrelay: test report exported")
	return documentURL, nil
}

// record journals the export outcome when a journal is configured. Journal
// failures are logged, never propagated.
func (e *Exporter) record(exportID, kind, targetURL string, exportErr error) {
	if e.journal == nil {
		return
	}
	rec := storage.ExportRecord{
		ExportID:  exportID,
		Kind:      kind,
		TargetURL: targetURL,
		Status:    storage.StatusSuccess,
		CreatedAt: e.now(),
	}
	if exportErr != nil {
		rec.Status = storage.StatusFailed
		rec.Message = exportErr.Error()
	}
	if err := e.journal.Record(rec); err != nil {
		log.Warn().Err(err).Str("exportID", exportID).Msg("larkrelay: journal export failed")
	}
}
