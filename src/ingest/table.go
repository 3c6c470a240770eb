// Package ingest reads the three load-test telemetry sources: the request
// lifecycle event log, client-observed request metrics, and job records.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadStats summarizes one source read
type ReadStats struct {
	Source  string
	Rows    int
	Kept    int
	Skipped int
}

func (s ReadStats) String() string {
	return fmt.Sprintf("%s: rows=%d kept=%d skipped=%d", s.Source, s.Rows, s.Kept, s.Skipped)
}

// IDSet is a set of correlation ids; a nil or empty set restricts nothing
type IDSet map[string]struct{}

// Allows reports whether id passes the restriction
func (s IDSet) Allows(id string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[id]
	return ok
}

// table is a CSV file held in memory with a normalized header index
type table struct {
	source string
	header []string
	idx    map[string]int
	rows   [][]string
}

func openTable(path string) (*table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readTable(file, path)
}

func readTable(r io.Reader, source string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV %s: %w", source, err)
	}

	t := &table{source: source, idx: map[string]int{}}
	if len(records) == 0 {
		return t, nil
	}
	t.header = normalizeHeader(records[0])
	for i, name := range t.header {
		if _, dup := t.idx[name]; !dup {
			t.idx[name] = i
		}
	}
	t.rows = records[1:]
	return t, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		out[i] = strings.ToLower(strings.TrimSpace(name))
	}
	return out
}

func (t *table) has(keys ...string) bool {
	for _, key := range keys {
		if _, ok := t.idx[key]; !ok {
			return false
		}
	}
	return true
}

func (t *table) get(row []string, key string) string {
	pos, ok := t.idx[key]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// rowNumber converts a data row index to its 1-based line in the file
func rowNumber(i int) int {
	return i + 2
}
