package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestJournal(t *testing.T) *ExportJournal {
	t.Helper()
	journal, err := OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { journal.Close() })
	return journal
}

func TestJournalRecordAndRecent(t *testing.T) {
	journal := openTestJournal(t)

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	records := []ExportRecord{
		{ExportID: "a", Kind: KindTestCases, TargetURL: "https://example.com/sheet", Status: StatusSuccess, CreatedAt: base},
		{ExportID: "b", Kind: KindTestReport, Status: StatusFailed, Message: "upstream said no", CreatedAt: base.Add(time.Minute)},
	}
	for _, rec := range records {
		if err := journal.Record(rec); err != nil {
			t.Fatalf("record %s: %v", rec.ExportID, err)
		}
	}

	got, err := journal.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	// Newest first.
	if got[0].ExportID != "b" || got[1].ExportID != "a" {
		t.Fatalf("unexpected order: %s, %s", got[0].ExportID, got[1].ExportID)
	}
	if got[0].Status != StatusFailed || got[0].Message != "upstream said no" {
		t.Fatalf("failed row mangled: %+v", got[0])
	}
	if got[1].TargetURL != "https://example.com/sheet" {
		t.Fatalf("target URL mangled: %+v", got[1])
	}
	if !got[1].CreatedAt.Equal(base) {
		t.Fatalf("created_at roundtrip: got %v want %v", got[1].CreatedAt, base)
	}
}

func TestJournalRecentLimit(t *testing.T) {
	journal := openTestJournal(t)

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"one", "two", "three"} {
		rec := ExportRecord{
			ExportID:  id,
			Kind:      KindTestCases,
			Status:    StatusSuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := journal.Record(rec); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	got, err := journal.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
	if got[0].ExportID != "three" {
		t.Fatalf("expected newest row first, got %s", got[0].ExportID)
	}
}

func TestJournalDuplicateExportIDRejected(t *testing.T) {
	journal := openTestJournal(t)

	rec := ExportRecord{ExportID: "dup", Kind: KindTestCases, Status: StatusSuccess}
	if err := journal.Record(rec); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := journal.Record(rec); err == nil {
		t.Fatal("expected primary key violation on duplicate export id")
	}
}

func TestJournalNilReceiver(t *testing.T) {
	var journal *ExportJournal
	if err := journal.Record(ExportRecord{ExportID: "x"}); err == nil {
		t.Fatal("nil journal must refuse records")
	}
	if _, err := journal.Recent(5); err == nil {
		t.Fatal("nil journal must refuse queries")
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("nil close must be a no-op: %v", err)
	}
}
