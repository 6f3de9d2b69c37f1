package catalog

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/agentx-labs/modreg/internal/loader"
)

func TestFreshnessMarker(t *testing.T) {
	dir := t.TempDir()

	if !IsStale(dir, time.Hour) {
		t.Error("catalog without marker should be stale")
	}
	if err := WriteFreshnessMarker(dir); err != nil {
		t.Fatalf("WriteFreshnessMarker: %v", err)
	}
	if IsStale(dir, time.Hour) {
		t.Error("fresh catalog reported stale")
	}
	if got := ReadFreshnessMarker(dir); time.Since(got) > time.Minute {
		t.Errorf("ReadFreshnessMarker = %v", got)
	}

	old := strconv.FormatInt(time.Now().Add(-48*time.Hour).Unix(), 10)
	os.WriteFile(filepath.Join(dir, freshnessFile), []byte(old), 0644)
	if !IsStale(dir, DefaultMaxAge) {
		t.Error("two-day-old catalog should be stale")
	}
}

func TestReadFreshnessMarker_Garbage(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, freshnessFile), []byte("yesterday"), 0644)
	if !ReadFreshnessMarker(dir).IsZero() {
		t.Error("unparsable marker should read as zero time")
	}
}

func TestRepoURL_EnvWins(t *testing.T) {
	t.Setenv("MODREG_CATALOG_REPO_URL", "https://example.com/env.git")
	if got := RepoURL(); got != "https://example.com/env.git" {
		t.Errorf("RepoURL() = %q", got)
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	st := Inspect(dir, time.Hour)
	if st.Present || !st.Stale {
		t.Errorf("Inspect(empty) = %+v", st)
	}
}

// initRepo creates a local repository with one module manifest committed.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	repo := t.TempDir()
	manifest := filepath.Join(repo, "modules", "exploits", "demo.yaml")
	os.MkdirAll(filepath.Dir(manifest), 0755)
	os.WriteFile(manifest, []byte("type: exploit\n"), 0644)

	for _, args := range [][]string{
		{"init", "-q"},
		{"-c", "user.email=t@example.com", "-c", "user.name=t", "add", "."},
		{"-c", "user.email=t@example.com", "-c", "user.name=t", "commit", "-q", "-m", "init"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = repo
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	return repo
}

func TestSync_ClonesThenPulls(t *testing.T) {
	repo := initRepo(t)
	dir := filepath.Join(t.TempDir(), "catalog")
	ctx := context.Background()

	if err := Sync(ctx, dir, "file://"+repo); err != nil {
		t.Fatalf("Sync (clone): %v", err)
	}
	if st := Inspect(dir, time.Hour); !st.Present || st.Stale {
		t.Errorf("Inspect after clone = %+v", st)
	}

	names, err := loader.New([]loader.Source{Source(dir)}).Candidates("exploit")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "demo" {
		t.Errorf("catalog candidates = %v, want [demo]", names)
	}

	if err := Sync(ctx, dir, "file://"+repo); err != nil {
		t.Fatalf("Sync (pull): %v", err)
	}
}
