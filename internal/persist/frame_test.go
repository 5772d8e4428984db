package persist

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"
)

type widget struct {
	Name  string
	Count int
}

func TestWriteReadFramedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widget.bin")

	want := widget{Name: "thing", Count: 7}
	err := WriteFramed(path, 1, func(w *bufio.Writer) error {
		return gob.NewEncoder(w).Encode(want)
	})
	if err != nil {
		t.Fatalf("WriteFramed: %v", err)
	}

	version, body, err := ReadFramed(path)
	if err != nil {
		t.Fatalf("ReadFramed: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}

	var got widget
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestReadFramedRejectsBadHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	err := WriteFramed(path, 1, func(w *bufio.Writer) error {
		_, err := w.WriteString("not a festivald file")
		return err
	})
	if err != nil {
		t.Fatalf("WriteFramed: %v", err)
	}
	// Overwrite with garbage lacking the magic header entirely.
	if err := os.WriteFile(path, []byte("garbage"), 0o640); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	if _, _, err := ReadFramed(path); err == nil {
		t.Fatal("expected error reading file with bad header")
	}
}

func TestDecodeVersionedMissingDecoder(t *testing.T) {
	_, err := DecodeVersioned(2, nil, map[byte]Decoder{1: func(b []byte) (interface{}, error) { return nil, nil }})
	if err == nil {
		t.Fatal("expected error for unregistered version")
	}
}

func TestSavingFlag(t *testing.T) {
	var f SavingFlag
	if f.Saving() {
		t.Fatal("expected flag to start clear")
	}
	f.Begin()
	if !f.Saving() {
		t.Fatal("expected flag set after Begin")
	}
	f.End()
	if f.Saving() {
		t.Fatal("expected flag clear after End")
	}
}
