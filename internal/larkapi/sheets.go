package larkapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// sheetImportRequest is the legacy sheets v2 import payload. The file field
// must be a JSON array of byte values, not a base64 string.
type sheetImportRequest struct {
	File []int  `json:"file"`
	Name string `json:"name"`
}

// ImportSheet submits byte content for asynchronous spreadsheet import and
// returns the ticket used to poll for the result.
func (c *Client) ImportSheet(ctx context.Context, content []byte, fileName string) (string, error) {
	if len(content) == 0 {
		return "", ValidationError("import content is empty")
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		fileName = "import.csv"
	}

	file := make([]int, len(content))
	for i, b := range content {
		file[i] = int(b)
	}

	raw, err := c.doJSON(ctx, http.MethodPost, "/open-apis/sheets/v2/import", nil, sheetImportRequest{
		File: file,
		Name: fileName,
	})
	if err != nil {
		return "", Normalize(err)
	}

	var parsed struct {
		Data struct {
			Ticket string `json:"ticket"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", Normalize(fmt.Errorf("larkapi: decode sheet import response: %w", err))
	}
	ticket := strings.TrimSpace(parsed.Data.Ticket)
	if ticket == "" {
		return "", InternalError("sheet import response missing ticket")
	}
	return ticket, nil
}

// ImportResult polls an import ticket. It returns the resolved file URL once
// available, or an empty string while the import is still pending. A pending
// result is never an error.
func (c *Client) ImportResult(ctx context.Context, ticket string) (string, error) {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return "", ValidationError("import ticket is required")
	}

	raw, err := c.doJSON(ctx, http.MethodGet, "/open-apis/sheets/v2/import/result", url.Values{"ticket": {ticket}}, nil)
	if err != nil {
		return "", Normalize(err)
	}

	var parsed struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", Normalize(fmt.Errorf("larkapi: decode import result response: %w", err))
	}
	return strings.TrimSpace(parsed.Data.URL), nil
}
