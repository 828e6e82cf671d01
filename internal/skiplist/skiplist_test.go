package skiplist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "skip_flowcells.json")

	l, err := Open(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(l.Flowcells()) != 0 {
		t.Errorf("expected empty list, got %v", l.Flowcells())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should be created: %v", err)
	}
}

func TestAdd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skip_flowcells.json")
	l, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	added, err := l.Add("FC1", "tool failed")
	if err != nil || !added {
		t.Fatalf("expected FC1 to be added, got %v (%v)", added, err)
	}
	added, err = l.Add("FC1", "again")
	if err != nil || added {
		t.Errorf("duplicate add should be a no-op, got %v (%v)", added, err)
	}
	if !l.Contains("FC1") || l.Contains("FC2") {
		t.Error("unexpected Contains result")
	}

	// Изменения видны после повторного открытия
	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reopened.Contains("FC1") {
		t.Error("FC1 should persist")
	}

	var raw map[string]any
	data, _ := os.ReadFile(path)
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := raw["last_updated"]; !ok {
		t.Error("last_updated should be written")
	}
}

func TestOpen_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skip_flowcells.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, nil); err == nil {
		t.Error("expected parse error")
	}
}
