package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiscoverCached_NoIndexFile(t *testing.T) {
	tmp := t.TempDir()
	writeManifest(t, filepath.Join(tmp, "exploits", "test", "basic.yaml"), "type: exploit\nversion: \"1.0.0\"\n")

	sources := []Source{{Name: "local", BasePath: tmp}}
	indexPath := filepath.Join(t.TempDir(), "index.json")

	candidates, err := DiscoverCached(sources, indexPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}

	if _, err := os.Stat(indexPath); err != nil {
		t.Errorf("expected index file to exist: %v", err)
	}
}

func TestDiscoverCached_UsesIndexOnSecondCall(t *testing.T) {
	tmp := t.TempDir()
	writeManifest(t, filepath.Join(tmp, "exploits", "test", "basic.yaml"), "type: exploit\n")
	sources := []Source{{Name: "local", BasePath: tmp}}
	indexPath := filepath.Join(t.TempDir(), "index.json")

	if _, err := DiscoverCached(sources, indexPath); err != nil {
		t.Fatalf("first call error: %v", err)
	}

	// Rewrite the index with a marker entry; a valid index is returned as is.
	idx, err := loadIndex(indexPath)
	if err != nil {
		t.Fatalf("loadIndex: %v", err)
	}
	idx.Candidates = append(idx.Candidates, Candidate{Type: "exploit", Name: "from-index"})
	data, _ := json.Marshal(idx)
	if err := os.WriteFile(indexPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	candidates, err := DiscoverCached(sources, indexPath)
	if err != nil {
		t.Fatalf("second call error: %v", err)
	}
	if len(candidates) != 2 {
		t.Errorf("got %d candidates, want the 2 stored in the index", len(candidates))
	}
}

func TestDiscoverCached_InvalidatesOnNewDirectory(t *testing.T) {
	tmp := t.TempDir()
	writeManifest(t, filepath.Join(tmp, "exploits", "a", "one.yaml"), "type: exploit\n")
	sources := []Source{{Name: "local", BasePath: tmp}}
	indexPath := filepath.Join(t.TempDir(), "index.json")

	if _, err := DiscoverCached(sources, indexPath); err != nil {
		t.Fatal(err)
	}

	// Backdate the recorded mtimes so any real mtime differs.
	idx, _ := loadIndex(indexPath)
	for k := range idx.SourceMods {
		idx.SourceMods[k] = time.Unix(0, 0).UnixNano()
	}
	data, _ := json.Marshal(idx)
	os.WriteFile(indexPath, data, 0644)

	writeManifest(t, filepath.Join(tmp, "exploits", "a", "b", "two.yaml"), "type: exploit\n")

	candidates, err := DiscoverCached(sources, indexPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Errorf("got %d candidates after change, want 2", len(candidates))
	}
}

func TestIsIndexValid_SourceListChange(t *testing.T) {
	tmp := t.TempDir()
	idx := &CachedIndex{SourceMods: map[string]int64{"local": latestMtime(tmp)}}

	if !isIndexValid(idx, []Source{{Name: "local", BasePath: tmp}}) {
		t.Error("index with matching mtimes reported invalid")
	}
	if isIndexValid(idx, []Source{{Name: "local", BasePath: tmp}, {Name: "extra", BasePath: tmp}}) {
		t.Error("index valid after a source was added")
	}
	if isIndexValid(nil, nil) {
		t.Error("nil index reported valid")
	}
}

func TestFSLoader_WithIndex(t *testing.T) {
	tmp := t.TempDir()
	writeManifest(t, filepath.Join(tmp, "post", "gather", "hashdump.yaml"), "type: post\n")
	indexPath := filepath.Join(t.TempDir(), "index.json")

	l := New([]Source{{Name: "local", BasePath: tmp}}, WithIndex(indexPath))
	names, err := l.Candidates("post")
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(names) != 1 || names[0] != "gather/hashdump" {
		t.Errorf("Candidates(post) = %v", names)
	}
	if _, err := os.Stat(indexPath); err != nil {
		t.Errorf("index not written: %v", err)
	}
}
