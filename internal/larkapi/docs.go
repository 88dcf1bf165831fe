package larkapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DocumentRawContent fetches the raw text content of a document. A response
// without a content field yields an empty string, not an error.
func (c *Client) DocumentRawContent(ctx context.Context, documentID string) (string, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return "", ValidationError("document id is required")
	}

	path := fmt.Sprintf("/open-apis/docx/v1/documents/%s/raw_content", documentID)
	raw, err := c.doJSON(ctx, http.MethodGet, path, url.Values{"lang": {"1"}}, nil)
	if err != nil {
		return "", Normalize(err)
	}

	var parsed struct {
		Data struct {
			Content string `json:"content"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", Normalize(fmt.Errorf("larkapi: decode raw content response: %w", err))
	}
	return parsed.Data.Content, nil
}

// CreateDocument creates a new document and returns its identifier. A 2xx
// response without a document id returns an empty identifier; callers decide
// whether that aborts their pipeline.
func (c *Client) CreateDocument(ctx context.Context, title string) (string, error) {
	payload := map[string]string{"title": title}
	raw, err := c.doJSON(ctx, http.MethodPost, "/open-apis/docx/v1/documents", nil, payload)
	if err != nil {
		return "", Normalize(err)
	}

	var parsed struct {
		Data struct {
			Document struct {
				DocumentID string `json:"document_id"`
			} `json:"document"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", Normalize(fmt.Errorf("larkapi: decode create document response: %w", err))
	}
	return strings.TrimSpace(parsed.Data.Document.DocumentID), nil
}

// AppendBlocks appends a block tree as children of the document root and
// returns the upstream confirmation token ("" when the response lacks one).
func (c *Client) AppendBlocks(ctx context.Context, documentID string, tree BlockTree) (string, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return "", ValidationError("document id is required")
	}

	path := fmt.Sprintf("/open-apis/docx/v1/documents/%s/blocks/%s/children", documentID, documentID)
	raw, err := c.doJSON(ctx, http.MethodPost, path, nil, tree)
	if err != nil {
		return "", Normalize(err)
	}

	var parsed struct {
		Data struct {
			ClientToken string `json:"client_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", Normalize(fmt.Errorf("larkapi: decode append blocks response: %w", err))
	}
	return strings.TrimSpace(parsed.Data.ClientToken), nil
}
