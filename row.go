// Package larkrelay implements the relay core: test-case-to-spreadsheet and
// test-report-to-document export pipelines on top of the Lark open-platform
// bindings in internal/larkapi.
package larkrelay

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TestCaseRow is a JSON object whose key order is preserved. The column order
// of an exported sheet is derived from the first row's keys, so ordinary maps
// are not good enough here.
type TestCaseRow struct {
	keys   []string
	values map[string]any
}

// UnmarshalJSON decodes a JSON object while recording key order. Numbers are
// kept as json.Number so they render exactly as received.
func (r *TestCaseRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("larkrelay: test case row must be a JSON object, got %v", tok)
	}

	r.keys = nil
	r.values = make(map[string]any)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("larkrelay: unexpected object key %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if _, seen := r.values[key]; !seen {
			r.keys = append(r.keys, key)
		}
		r.values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON renders the row with its original key order.
func (r TestCaseRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		encodedVal, err := json.Marshal(r.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(encodedVal)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Keys returns the row's column names in insertion order.
func (r TestCaseRow) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Value returns the value stored under key and whether it exists.
func (r TestCaseRow) Value(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Len returns the number of columns in the row.
func (r TestCaseRow) Len() int {
	return len(r.keys)
}

// Set appends or replaces a column, preserving insertion order. Mainly useful
// for building rows programmatically.
func (r *TestCaseRow) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, seen := r.values[key]; !seen {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}
