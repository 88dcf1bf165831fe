package larkrelay

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ailover/larkrelay/internal/larkapi"
)

// Bookkeeping columns that must never reach the exported sheet.
var excludedColumns = map[string]struct{}{
	"check_list_id": {},
	"test_suit_id":  {},
}

const stepSeparator = " --- "

// encodeTestCasesCSV transcodes rows into delimited text. The column order is
// derived from the first row's keys minus the excluded columns; downstream
// rows are assumed to share that shape.
func encodeTestCasesCSV(rows []TestCaseRow) ([]byte, error) {
	if len(rows) == 0 {
		return nil, larkapi.ValidationError("test case rows must be a non-empty array")
	}

	columns := make([]string, 0, rows[0].Len())
	for _, key := range rows[0].Keys() {
		if _, excluded := excludedColumns[key]; excluded {
			continue
		}
		columns = append(columns, key)
	}
	if len(columns) == 0 {
		return nil, larkapi.ValidationError("test case rows contain no exportable columns")
	}

	var buf strings.Builder
	buf.WriteString(strings.Join(columns, ","))
	buf.WriteByte('\n')

	for index, row := range rows {
		cells := make([]string, 0, len(columns))
		for _, column := range columns {
			value, _ := row.Value(column)
			cells = append(cells, renderCell(column, value, index))
		}
		buf.WriteString(strings.Join(cells, ","))
		buf.WriteByte('\n')
	}
	return []byte(buf.String()), nil
}

// renderCell renders a single cell. The id column is replaced by the 1-based
// row index regardless of the source value; steps are flattened into a single
// delimiter-safe line; any other string containing a comma or double quote is
// quote-wrapped with internal quotes doubled.
func renderCell(column string, value any, rowIndex int) string {
	if column == "id" {
		return strconv.Itoa(rowIndex + 1)
	}
	if s, ok := value.(string); ok && (strings.Contains(s, ",") || strings.Contains(s, `"`)) {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	if column == "steps" {
		return flattenSteps(value)
	}
	return stringifyCell(value)
}

// flattenSteps renders an ordered step list as
// "Step <n>: - Action: <a> - Expected: <e> - Test Data: <d> - Status: <s>"
// entries joined by " --- ". Commas inside step fields are replaced by spaces
// to avoid colliding with the cell delimiter.
func flattenSteps(value any) string {
	steps, ok := value.([]any)
	if !ok {
		return stringifyCell(value)
	}
	parts := make([]string, 0, len(steps))
	for _, raw := range steps {
		step, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf(
			"Step %s: - Action: %s - Expected: %s - Test Data: %s - Status: %s",
			stepField(step, "step"),
			stepField(step, "action"),
			stepField(step, "expected"),
			stepField(step, "testData"),
			stepField(step, "status"),
		))
	}
	return strings.Join(parts, stepSeparator)
}

func stepField(step map[string]any, key string) string {
	return strings.ReplaceAll(stringifyCell(step[key]), ",", " ")
}

// stringifyCell renders a scalar for CSV output; absent values render empty.
func stringifyCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
