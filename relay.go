package larkrelay

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/ailover/larkrelay/internal/larkapi"
)

// Relay is the boundary facade consumed by the HTTP-routing collaborator. It
// accepts an inbound request's pieces (method, endpoint, query, body) and
// returns either a success payload or a normalized *larkapi.Error whose
// HTTPStatus is safe to relay as-is (see larkapi.StatusOf).
type Relay struct {
	client   *larkapi.Client
	exporter *Exporter
}

// NewRelay wires the facade from its two collaborators.
func NewRelay(client *larkapi.Client, exporter *Exporter) *Relay {
	return &Relay{client: client, exporter: exporter}
}

// Invoke performs a generic token-authenticated Lark API call and returns the
// upstream payload verbatim.
func (r *Relay) Invoke(ctx context.Context, method, endpoint string, query url.Values, body any) (json.RawMessage, error) {
	return r.client.Invoke(ctx, method, endpoint, query, body)
}

// DocumentContent fetches the raw text content of a document.
func (r *Relay) DocumentContent(ctx context.Context, documentID string) (string, error) {
	return r.client.DocumentRawContent(ctx, documentID)
}

// ExportTestCases runs the test-case-to-spreadsheet pipeline and returns the
// resolved file URL.
func (r *Relay) ExportTestCases(ctx context.Context, rows []TestCaseRow) (string, error) {
	return r.exporter.ExportTestCases(ctx, rows)
}

// ExportTestReport runs the test-report-to-document pipeline and returns the
// document viewer URL.
func (r *Relay) ExportTestReport(ctx context.Context, report TestReportData) (string, error) {
	return r.exporter.ExportTestReport(ctx, report)
}
