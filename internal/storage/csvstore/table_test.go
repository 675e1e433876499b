package csvstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTableMissingFileIsEmpty(t *testing.T) {
	table := NewTable(t.TempDir(), "nothing.csv", []string{"a", "b"})

	rows, err := table.Read()
	if err != nil {
		t.Fatalf("Read on missing file: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("got %d rows from missing file, want 0", len(rows))
	}
}

func TestTableRoundTrip(t *testing.T) {
	table := NewTable(t.TempDir(), "data.csv", []string{"doctor", "date", "time_slot", "status"})

	want := [][]string{
		{"Smith", "2026-09-01", "09:00", "Available"},
		{"Smith", "2026-09-01", "09:30", "Booked"},
	}
	if err := table.Write(want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := table.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %q, want %q", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestTableWriteReplacesSnapshot(t *testing.T) {
	table := NewTable(t.TempDir(), "data.csv", []string{"a"})

	if err := table.Write([][]string{{"one"}, {"two"}}); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := table.Write([][]string{{"three"}}); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	rows, err := table.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "three" {
		t.Fatalf("rows = %v, want the second snapshot only", rows)
	}
}

func TestTablePadsShortRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.csv")
	content := "name,dob,email,phone\nAlice,01-01-1990\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	table := NewTable(dir, "legacy.csv", []string{"name", "dob", "email", "phone"})
	rows, err := table.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if len(rows[0]) != 4 {
		t.Fatalf("row has %d fields after padding, want 4", len(rows[0]))
	}
	if rows[0][2] != "" || rows[0][3] != "" {
		t.Errorf("padded fields not empty: %v", rows[0])
	}
}

func TestTableCorruptFileIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(path, []byte("a,b\n\"unterminated\n"), 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	table := NewTable(dir, "bad.csv", []string{"a", "b"})
	_, err := table.Read()
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}
}

func TestTableWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	table := NewTable(dir, "data.csv", []string{"a"})

	if err := table.Write([][]string{{"x"}}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Errorf("temp file %q left behind after commit", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("got %d directory entries, want just the table file", len(entries))
	}
}
