package qtprocess

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewErrorCodeTableCopiesInput(t *testing.T) {
	entries := map[int]ErrorCode{
		1: {Message: "one", Resolution: "fix one"},
	}
	table := NewErrorCodeTable(entries)

	entries[1] = ErrorCode{Message: "changed"}
	entries[2] = ErrorCode{Message: "two"}

	ec, ok := table.Lookup(1)
	if !ok || ec.Message != "one" {
		t.Errorf("table changed with its input: %+v", ec)
	}
	if _, ok := table.Lookup(2); ok {
		t.Error("table gained an entry added to its input after construction")
	}
	if table.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", table.Len())
	}
}

func TestNilTableLookup(t *testing.T) {
	var table *ErrorCodeTable
	if _, ok := table.Lookup(1); ok {
		t.Error("nil table should not contain codes")
	}
	if table.Len() != 0 {
		t.Error("nil table should be empty")
	}
}

func TestParseErrorCodes(t *testing.T) {
	data := []byte(`
codes:
  - code: 1
    message: "Cannot open the .ts file."
    resolution: "Check that the file is writable."
  - code: 13
    message: "Out of memory."
  - code: -1
    message: "Crashed."
`)

	table, err := ParseErrorCodes(data)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("expected 3 codes, got %d", table.Len())
	}

	ec, ok := table.Lookup(1)
	if !ok || ec.Resolution != "Check that the file is writable." {
		t.Errorf("unexpected entry for 1: %+v", ec)
	}
	ec, ok = table.Lookup(13)
	if !ok || ec.Message != "Out of memory." || ec.Resolution != "" {
		t.Errorf("unexpected entry for 13: %+v", ec)
	}
	if _, ok := table.Lookup(-1); !ok {
		t.Error("expected negative code to be accepted")
	}
}

func TestParseErrorCodesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing message", "codes:\n  - code: 1\n", "invalid error code file"},
		{"missing code", "codes:\n  - message: boom\n", "invalid error code file"},
		{"duplicate code", "codes:\n  - code: 1\n    message: a\n  - code: 1\n    message: b\n", "duplicate code 1"},
		{"bad yaml", "codes: [", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseErrorCodes([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadErrorCodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lupdate.yaml")
	if err := os.WriteFile(path, []byte("codes:\n  - code: 2\n    message: two\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	table, err := LoadErrorCodes(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if ec, ok := table.Lookup(2); !ok || ec.Message != "two" {
		t.Errorf("unexpected entry: %+v", ec)
	}

	if _, err := LoadErrorCodes(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
