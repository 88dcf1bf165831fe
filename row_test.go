package larkrelay

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestTestCaseRowPreservesKeyOrder(t *testing.T) {
	var row TestCaseRow
	raw := `{"id":"x","steps":[{"step":1}],"status":"PASS","check_list_id":"cl1"}`
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		t.Fatalf("unmarshal row: %v", err)
	}
	want := []string{"id", "steps", "status", "check_list_id"}
	if !reflect.DeepEqual(row.Keys(), want) {
		t.Fatalf("unexpected key order %v, want %v", row.Keys(), want)
	}
	if row.Len() != 4 {
		t.Fatalf("unexpected length %d", row.Len())
	}
}

func TestTestCaseRowNumbersKeepSourceForm(t *testing.T) {
	var row TestCaseRow
	if err := json.Unmarshal([]byte(`{"count":42,"ratio":0.5}`), &row); err != nil {
		t.Fatalf("unmarshal row: %v", err)
	}
	count, _ := row.Value("count")
	if n, ok := count.(json.Number); !ok || n.String() != "42" {
		t.Fatalf("unexpected count %#v", count)
	}
}

func TestTestCaseRowRejectsNonObject(t *testing.T) {
	var row TestCaseRow
	if err := json.Unmarshal([]byte(`["not","an","object"]`), &row); err == nil {
		t.Fatal("expected error for non-object input")
	}
}

func TestTestCaseRowMarshalRoundTrip(t *testing.T) {
	var row TestCaseRow
	raw := `{"b":"2","a":"1","c":"3"}`
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		t.Fatalf("unmarshal row: %v", err)
	}
	encoded, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal row: %v", err)
	}
	if string(encoded) != raw {
		t.Fatalf("round trip changed order: %s", encoded)
	}
}

func TestTestCaseRowSet(t *testing.T) {
	var row TestCaseRow
	row.Set("id", "x")
	row.Set("status", "PASS")
	row.Set("id", "y")
	if !reflect.DeepEqual(row.Keys(), []string{"id", "status"}) {
		t.Fatalf("unexpected keys %v", row.Keys())
	}
	v, _ := row.Value("id")
	if v != "y" {
		t.Fatalf("Set did not replace value, got %v", v)
	}
}
