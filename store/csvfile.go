package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// csvBackend keeps one delimited file per record kind under dir. The first
// line is the header; every following line is one row.
type csvBackend struct {
	dir string
}

func newCSVBackend(dir string) (*csvBackend, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &csvBackend{dir: dir}, nil
}

func (b *csvBackend) name() string { return "csv" }
func (b *csvBackend) close() error { return nil }

func (b *csvBackend) path(s *Schema) string {
	return filepath.Join(b.dir, s.FileName())
}

func (b *csvBackend) ensure(s *Schema) error {
	_, err := os.Stat(b.path(s))
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return b.rewrite(s, nil)
}

func (b *csvBackend) load(s *Schema) ([]Row, error) {
	file, err := os.Open(b.path(s))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.FileName(), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.FileName(), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s has no header", s.FileName())
	}
	if !validateHeader(records[0], s.Columns) {
		return nil, fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", s.FileName(), s.Columns, records[0])
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(s.Columns) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", s.FileName(), i+2, len(s.Columns), len(record))
		}
		rows = append(rows, Row(record))
	}
	return rows, nil
}

// rewrite writes a sibling temp file and renames it over the table, so
// readers see either the old or the new content and never a partial file.
func (b *csvBackend) rewrite(s *Schema, rows []Row) error {
	tmp, err := os.CreateTemp(b.dir, "."+s.Table+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", s.FileName(), err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	w := csv.NewWriter(tmp)
	w.Write(s.Columns)
	for _, row := range rows {
		w.Write(foldCRLF(row))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", s.FileName(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", s.FileName(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.FileName(), err)
	}
	if err := os.Rename(tmpName, b.path(s)); err != nil {
		return fmt.Errorf("replace %s: %w", s.FileName(), err)
	}
	tmpName = ""
	return nil
}

// foldCRLF turns CRLF inside cells into LF. The csv reader does the same to
// quoted fields, so writing it folded keeps the file equal to what loads back.
func foldCRLF(row Row) Row {
	var out Row
	for i, cell := range row {
		if !strings.Contains(cell, "\r\n") {
			continue
		}
		if out == nil {
			out = append(Row(nil), row...)
		}
		out[i] = strings.ReplaceAll(cell, "\r\n", "\n")
	}
	if out == nil {
		return row
	}
	return out
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		got := strings.TrimSpace(actual[i])
		if i == 0 {
			got = strings.TrimPrefix(got, "\ufeff")
		}
		if got != col {
			return false
		}
	}
	return true
}
