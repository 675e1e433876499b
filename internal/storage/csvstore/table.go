// Package csvstore implements the flat-file table stores behind the portal's
// clinical data. Each store is a whole-file snapshot: loads read the complete
// table, saves write a temp file and rename it into place so readers always
// observe a fully committed table.
package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrStoreUnavailable marks a backing file that exists but cannot be read or
// parsed. A missing file is not an error; it loads as an empty table.
var ErrStoreUnavailable = errors.New("store unavailable")

// Table is one CSV-backed table with a fixed header.
type Table struct {
	mu     sync.RWMutex
	path   string
	header []string
}

func NewTable(dir, file string, header []string) *Table {
	return &Table{path: filepath.Join(dir, file), header: header}
}

func (t *Table) Path() string {
	return t.path
}

// Read returns all data rows, header excluded. Rows shorter than the header
// are padded with empty fields so column additions stay backward compatible.
func (t *Table) Read() ([][]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: opening %s: %v", ErrStoreUnavailable, t.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrStoreUnavailable, t.path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := records[1:]
	for i, row := range rows {
		for len(row) < len(t.header) {
			row = append(row, "")
		}
		rows[i] = row
	}
	return rows, nil
}

// Write replaces the table. The new content lands in a temp file in the same
// directory and is renamed over the old one, so a crash mid-write leaves the
// previous snapshot intact.
func (t *Table) Write(rows [][]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrStoreUnavailable, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(t.path)+".tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write(t.header); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing header: %v", ErrStoreUnavailable, err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing rows: %v", ErrStoreUnavailable, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: flushing: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing temp file: %v", ErrStoreUnavailable, err)
	}

	if err := os.Rename(tmpName, t.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: committing %s: %v", ErrStoreUnavailable, t.path, err)
	}
	return nil
}
