package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/goclass/internal/output"
)

func TestWriteOutput(t *testing.T) {
	out := output.New("h")
	if err := out.Append(output.Snapshot{"t": 60, "h": 210}); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "out.csv")
	if err := writeOutput(csvPath, out); err != nil {
		t.Fatalf("csv: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "t,h\n") {
		t.Errorf("unexpected csv: %q", data)
	}

	if err := writeOutput(filepath.Join(dir, "out.json"), out); err != nil {
		t.Fatalf("json: %v", err)
	}
}

func TestWriteOutputUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := writeOutput(path, output.New("h"))
	if !errors.Is(err, errUnknownFormat) {
		t.Fatalf("expected errUnknownFormat, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("%s was created for an unknown format", path)
	}
}
