package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Table is a column-ordered view over a CSV file. Scraper output has no
// stable schema, so cells stay strings until a stage coerces them; the
// header index is rebuilt whenever columns change.
type Table struct {
	Headers []string
	Rows    [][]string

	index map[string]int
}

// NewTable creates an empty table with the given headers.
func NewTable(headers []string) *Table {
	t := &Table{Headers: headers}
	t.reindex()
	return t
}

// ReadCSV loads a table from a CSV file. Short rows are padded and long
// rows truncated to the header width. Columns whose name starts with
// "Unnamed" (index artifacts from upstream tools) are dropped on load.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file %s is empty", path)
	}

	headers := records[0]
	// Strip a UTF-8 BOM left by spreadsheet tools
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}

	t := &Table{Headers: headers}
	for _, rec := range records[1:] {
		row := make([]string, len(headers))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	t.reindex()

	for _, h := range headers {
		if strings.HasPrefix(h, "Unnamed") {
			t.DropColumn(h)
		}
	}

	return t, nil
}

// WriteCSV writes the table to path, creating parent directories.
func (t *Table) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	return writer.Error()
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Col returns the index of the named column, or -1.
func (t *Table) Col(name string) int {
	if idx, ok := t.index[name]; ok {
		return idx
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool { return t.Col(name) >= 0 }

// Cell returns the value at (row, column name); empty string if absent.
func (t *Table) Cell(row int, name string) string {
	idx := t.Col(name)
	if idx < 0 || row < 0 || row >= len(t.Rows) || idx >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][idx]
}

// SetCell sets the value at (row, column name); no-op if the column is
// missing.
func (t *Table) SetCell(row int, name, value string) {
	idx := t.Col(name)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return
	}
	t.Rows[row][idx] = value
}

// NormalizeHeaders lowercases and trims every column name.
func (t *Table) NormalizeHeaders() {
	for i, h := range t.Headers {
		t.Headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	t.reindex()
}

// RenameColumn renames a column in place. Renaming onto an existing
// column is refused so a rename map cannot silently merge two columns.
func (t *Table) RenameColumn(from, to string) {
	if from == to || t.HasColumn(to) {
		return
	}
	idx := t.Col(from)
	if idx < 0 {
		return
	}
	t.Headers[idx] = to
	t.reindex()
}

// AddColumn appends a column filled with the given default value.
func (t *Table) AddColumn(name, defaultValue string) {
	if t.HasColumn(name) {
		return
	}
	t.Headers = append(t.Headers, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], defaultValue)
	}
	t.reindex()
}

// DropColumn removes a column and its cells.
func (t *Table) DropColumn(name string) {
	idx := t.Col(name)
	if idx < 0 {
		return
	}
	t.Headers = append(t.Headers[:idx], t.Headers[idx+1:]...)
	for i := range t.Rows {
		if idx < len(t.Rows[i]) {
			t.Rows[i] = append(t.Rows[i][:idx], t.Rows[i][idx+1:]...)
		}
	}
	t.reindex()
}

// CoerceInt parses the named column as integers, dropping rows where the
// value cannot be parsed. Returns the number of dropped rows.
func (t *Table) CoerceInt(name string) (int, error) {
	idx := t.Col(name)
	if idx < 0 {
		return 0, fmt.Errorf("column %q missing", name)
	}

	kept := t.Rows[:0]
	dropped := 0
	for _, row := range t.Rows {
		v, err := parseIntCell(row[idx])
		if err != nil {
			dropped++
			continue
		}
		row[idx] = strconv.Itoa(v)
		kept = append(kept, row)
	}
	t.Rows = kept
	return dropped, nil
}

// FillIntColumn parses the named column as integers in place, replacing
// unparseable cells with zero. Matches the "coerce, fill 0" semantics of
// the cleaning stage for run counts.
func (t *Table) FillIntColumn(name string) {
	idx := t.Col(name)
	if idx < 0 {
		return
	}
	for _, row := range t.Rows {
		v, err := parseIntCell(row[idx])
		if err != nil {
			row[idx] = "0"
			continue
		}
		row[idx] = strconv.Itoa(v)
	}
}

// IntCell parses the cell as an int, zero on failure.
func (t *Table) IntCell(row int, name string) int {
	v, err := parseIntCell(t.Cell(row, name))
	if err != nil {
		return 0
	}
	return v
}

// Distinct returns the unique non-empty values of a column in first-seen
// order.
func (t *Table) Distinct(name string) []string {
	idx := t.Col(name)
	if idx < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var values []string
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[idx])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		t.index[h] = i
	}
}

// parseIntCell accepts plain integers and float-formatted integers
// ("3.0"), which appear when upstream tools round-trip counts through
// floating point.
func parseIntCell(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty cell")
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %s", s)
	}
	return int(f), nil
}
