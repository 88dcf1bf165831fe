package larkapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"
)

type fakeJSONCall struct {
	Method  string
	Path    string
	Query   url.Values
	Payload any
}

// newSeamTestClient records every doJSON call and answers via fn.
func newSeamTestClient(calls *[]fakeJSONCall, fn func(call fakeJSONCall) ([]byte, error)) *Client {
	client := &Client{
		appID:     "app",
		appSecret: "secret",
	}
	client.tenantToken = "t-test"
	client.tokenExpireAt = time.Now().Add(time.Hour)
	client.doJSONRequestFunc = func(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
		call := fakeJSONCall{Method: method, Path: path, Query: query, Payload: payload}
		if calls != nil {
			*calls = append(*calls, call)
		}
		if fn == nil {
			return nil, fmt.Errorf("unexpected request %s %s", method, path)
		}
		return fn(call)
	}
	return client
}

func TestDocumentRawContent(t *testing.T) {
	var calls []fakeJSONCall
	client := newSeamTestClient(&calls, func(call fakeJSONCall) ([]byte, error) {
		return []byte(`{"code":0,"data":{"content":"hello world"}}`), nil
	})

	content, err := client.DocumentRawContent(context.Background(), "doc123")
	if err != nil {
		t.Fatalf("DocumentRawContent returned error: %v", err)
	}
	if content != "hello world" {
		t.Fatalf("unexpected content %q", content)
	}
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	if calls[0].Method != http.MethodGet {
		t.Fatalf("unexpected method %s", calls[0].Method)
	}
	if calls[0].Path != "/open-apis/docx/v1/documents/doc123/raw_content" {
		t.Fatalf("unexpected path %q", calls[0].Path)
	}
	if calls[0].Query.Get("lang") != "1" {
		t.Fatalf("unexpected query %v", calls[0].Query)
	}
}

func TestDocumentRawContentMissingFieldYieldsEmpty(t *testing.T) {
	client := newSeamTestClient(nil, func(call fakeJSONCall) ([]byte, error) {
		return []byte(`{"code":0,"data":{}}`), nil
	})
	content, err := client.DocumentRawContent(context.Background(), "doc123")
	if err != nil {
		t.Fatalf("missing content field must not be an error, got %v", err)
	}
	if content != "" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestDocumentRawContentEmptyIDRejected(t *testing.T) {
	client := newSeamTestClient(nil, nil)
	_, err := client.DocumentRawContent(context.Background(), "  ")
	var typed *Error
	if !errors.As(err, &typed) || typed.Kind != KindValidation {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCreateDocument(t *testing.T) {
	var calls []fakeJSONCall
	client := newSeamTestClient(&calls, func(call fakeJSONCall) ([]byte, error) {
		return []byte(`{"code":0,"data":{"document":{"document_id":"docNew"}}}`), nil
	})

	documentID, err := client.CreateDocument(context.Background(), "Test Report - now")
	if err != nil {
		t.Fatalf("CreateDocument returned error: %v", err)
	}
	if documentID != "docNew" {
		t.Fatalf("unexpected document id %q", documentID)
	}
	if calls[0].Method != http.MethodPost || calls[0].Path != "/open-apis/docx/v1/documents" {
		t.Fatalf("unexpected call %+v", calls[0])
	}
	payload, ok := calls[0].Payload.(map[string]string)
	if !ok || payload["title"] != "Test Report - now" {
		t.Fatalf("unexpected payload %#v", calls[0].Payload)
	}
}

func TestCreateDocumentMissingIDReturnsEmpty(t *testing.T) {
	client := newSeamTestClient(nil, func(call fakeJSONCall) ([]byte, error) {
		return []byte(`{"code":0,"data":{}}`), nil
	})
	documentID, err := client.CreateDocument(context.Background(), "title")
	if err != nil {
		t.Fatalf("CreateDocument returned error: %v", err)
	}
	if documentID != "" {
		t.Fatalf("unexpected document id %q", documentID)
	}
}

func TestAppendBlocks(t *testing.T) {
	var calls []fakeJSONCall
	client := newSeamTestClient(&calls, func(call fakeJSONCall) ([]byte, error) {
		return []byte(`{"code":0,"data":{"client_token":"confirm-1"}}`), nil
	})

	tree := BlockTree{Index: 0, Children: []Block{NewTextBlock(TextRun{Content: "hi"})}}
	confirmation, err := client.AppendBlocks(context.Background(), "docA", tree)
	if err != nil {
		t.Fatalf("AppendBlocks returned error: %v", err)
	}
	if confirmation != "confirm-1" {
		t.Fatalf("unexpected confirmation %q", confirmation)
	}
	wantPath := "/open-apis/docx/v1/documents/docA/blocks/docA/children"
	if calls[0].Path != wantPath {
		t.Fatalf("unexpected path %q, want %q", calls[0].Path, wantPath)
	}

	raw, err := json.Marshal(calls[0].Payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var sent struct {
		Index    int `json:"index"`
		Children []struct {
			BlockType int `json:"block_type"`
		} `json:"children"`
	}
	if err := json.Unmarshal(raw, &sent); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if sent.Index != 0 || len(sent.Children) != 1 || sent.Children[0].BlockType != BlockTypeText {
		t.Fatalf("unexpected wire payload %s", raw)
	}
}

func TestAppendBlocksUpstreamRejection(t *testing.T) {
	client := newSeamTestClient(nil, func(call fakeJSONCall) ([]byte, error) {
		return nil, &upstreamStatusError{status: http.StatusForbidden, body: []byte(`{"msg":"no permission"}`)}
	})
	_, err := client.AppendBlocks(context.Background(), "docA", BlockTree{})
	var typed *Error
	if !errors.As(err, &typed) || typed.Kind != KindUpstreamRejected || typed.HTTPStatus != http.StatusForbidden {
		t.Fatalf("unexpected error %v", err)
	}
}
