package larkapi

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestImportSheetSendsBytesAsIntArray(t *testing.T) {
	var calls []fakeJSONCall
	client := newSeamTestClient(&calls, func(call fakeJSONCall) ([]byte, error) {
		return []byte(`{"code":0,"data":{"ticket":"tk-1"}}`), nil
	})

	ticket, err := client.ImportSheet(context.Background(), []byte("a,b\n1,2\n"), "cases.csv")
	if err != nil {
		t.Fatalf("ImportSheet returned error: %v", err)
	}
	if ticket != "tk-1" {
		t.Fatalf("unexpected ticket %q", ticket)
	}
	if calls[0].Method != http.MethodPost || calls[0].Path != "/open-apis/sheets/v2/import" {
		t.Fatalf("unexpected call %+v", calls[0])
	}

	payload, ok := calls[0].Payload.(sheetImportRequest)
	if !ok {
		t.Fatalf("unexpected payload type %T", calls[0].Payload)
	}
	if payload.Name != "cases.csv" {
		t.Fatalf("unexpected file name %q", payload.Name)
	}
	want := "a,b\n1,2\n"
	if len(payload.File) != len(want) {
		t.Fatalf("unexpected file length %d", len(payload.File))
	}
	for i, b := range []byte(want) {
		if payload.File[i] != int(b) {
			t.Fatalf("byte %d: got %d, want %d", i, payload.File[i], b)
		}
	}
}

func TestImportSheetEmptyContentRejected(t *testing.T) {
	client := newSeamTestClient(nil, nil)
	_, err := client.ImportSheet(context.Background(), nil, "cases.csv")
	var typed *Error
	if !errors.As(err, &typed) || typed.Kind != KindValidation {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestImportSheetMissingTicketFailsLoudly(t *testing.T) {
	client := newSeamTestClient(nil, func(call fakeJSONCall) ([]byte, error) {
		return []byte(`{"code":0,"data":{}}`), nil
	})
	_, err := client.ImportSheet(context.Background(), []byte("x"), "cases.csv")
	var typed *Error
	if !errors.As(err, &typed) || typed.Kind != KindInternal {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestImportResultPendingIsNotAnError(t *testing.T) {
	var calls []fakeJSONCall
	client := newSeamTestClient(&calls, func(call fakeJSONCall) ([]byte, error) {
		return []byte(`{"code":0,"data":{}}`), nil
	})

	fileURL, err := client.ImportResult(context.Background(), "tk-1")
	if err != nil {
		t.Fatalf("pending import must not be an error, got %v", err)
	}
	if fileURL != "" {
		t.Fatalf("unexpected url %q", fileURL)
	}
	if calls[0].Query.Get("ticket") != "tk-1" {
		t.Fatalf("unexpected query %v", calls[0].Query)
	}
}

func TestImportResultResolved(t *testing.T) {
	client := newSeamTestClient(nil, func(call fakeJSONCall) ([]byte, error) {
		return []byte(`{"code":0,"data":{"url":"https://sheets.example/file"}}`), nil
	})
	fileURL, err := client.ImportResult(context.Background(), "tk-1")
	if err != nil {
		t.Fatalf("ImportResult returned error: %v", err)
	}
	if fileURL != "https://sheets.example/file" {
		t.Fatalf("unexpected url %q", fileURL)
	}
}
