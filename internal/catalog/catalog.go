// Package catalog manages a git-backed module source: cloning, updating
// and freshness tracking of a remote catalog checkout.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/agentx-labs/modreg/internal/branding"
	"github.com/agentx-labs/modreg/internal/config"
	"github.com/agentx-labs/modreg/internal/loader"
)

const (
	// freshnessFile is the name of the timestamp marker file.
	freshnessFile = ".catalog-updated"

	// DefaultMaxAge is the default staleness threshold.
	DefaultMaxAge = 24 * time.Hour

	// SourceName is the loader source name of the catalog checkout.
	SourceName = "catalog"

	tmpSuffix = ".tmp"
)

// ErrGitMissing is returned when git is not on PATH.
var ErrGitMissing = errors.New("git is required but not found in PATH")

// RepoURL returns the catalog repository URL, checking (in order):
// 1. <PREFIX>_CATALOG_REPO_URL env var
// 2. config key "catalog.repo_url"
// 3. branding.CatalogRepoURL() (from branding.yaml)
func RepoURL() string {
	if v := os.Getenv(branding.EnvVar("CATALOG_REPO_URL")); v != "" {
		return v
	}
	if v := config.Get(config.KeyCatalogRepoURL); v != "" {
		return v
	}
	return branding.CatalogRepoURL()
}

// Source returns the loader source rooted at the modules directory of the
// checkout in dir.
func Source(dir string) loader.Source {
	return loader.Source{Name: SourceName, BasePath: filepath.Join(dir, branding.ModulesDir())}
}

// Status describes a catalog checkout.
type Status struct {
	Dir         string    `json:"dir"`
	Present     bool      `json:"present"`
	LastUpdated time.Time `json:"last_updated,omitzero"`
	Stale       bool      `json:"stale"`
}

// Inspect reports the state of the checkout in dir.
func Inspect(dir string, maxAge time.Duration) Status {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return Status{
		Dir:         dir,
		Present:     err == nil,
		LastUpdated: ReadFreshnessMarker(dir),
		Stale:       IsStale(dir, maxAge),
	}
}

// Sync brings the checkout in dir up to date with repoURL, cloning it when
// absent.
func Sync(ctx context.Context, dir, repoURL string) error {
	if err := ensureGit(); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); os.IsNotExist(err) {
		return Clone(ctx, dir, repoURL)
	}

	if err := git(ctx, dir, "pull", "--depth=1", "--rebase"); err != nil {
		return fmt.Errorf("pulling catalog updates: %w", err)
	}
	return WriteFreshnessMarker(dir)
}

// Clone performs a shallow clone of repoURL into dir. It attempts a sparse
// checkout of the modules directory and falls back to a full shallow clone.
//
// The clone is atomic: it writes to a .tmp directory first, then renames
// on success. On failure the .tmp directory is cleaned up.
func Clone(ctx context.Context, dir, repoURL string) error {
	if err := ensureGit(); err != nil {
		return err
	}

	tmpDir := dir + tmpSuffix
	_ = os.RemoveAll(tmpDir)

	if err := os.MkdirAll(filepath.Dir(tmpDir), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	if err := trySparseClone(ctx, tmpDir, repoURL); err != nil {
		_ = os.RemoveAll(tmpDir)
		if err := git(ctx, "", "clone", "--depth=1", repoURL, tmpDir); err != nil {
			_ = os.RemoveAll(tmpDir)
			return fmt.Errorf("cloning catalog: %w", err)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("removing existing catalog dir: %w", err)
	}
	if err := os.Rename(tmpDir, dir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("finalizing catalog clone: %w", err)
	}

	return WriteFreshnessMarker(dir)
}

// WriteFreshnessMarker writes the current Unix timestamp to the freshness file.
func WriteFreshnessMarker(dir string) error {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	if err := os.WriteFile(filepath.Join(dir, freshnessFile), []byte(ts), 0644); err != nil {
		return fmt.Errorf("writing freshness marker: %w", err)
	}
	return nil
}

// ReadFreshnessMarker reads the timestamp from the freshness file.
// Returns zero time if the file doesn't exist or can't be parsed.
func ReadFreshnessMarker(dir string) time.Time {
	data, err := os.ReadFile(filepath.Join(dir, freshnessFile))
	if err != nil {
		return time.Time{}
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

// IsStale returns true if the catalog was last updated more than maxAge ago
// or was never updated.
func IsStale(dir string, maxAge time.Duration) bool {
	lastUpdated := ReadFreshnessMarker(dir)
	if lastUpdated.IsZero() {
		return true
	}
	return time.Since(lastUpdated) > maxAge
}

func trySparseClone(ctx context.Context, dir, repoURL string) error {
	if err := git(ctx, "", "clone", "--depth=1", "--sparse", "--no-checkout", repoURL, dir); err != nil {
		return err
	}
	if err := git(ctx, dir, "sparse-checkout", "set", branding.ModulesDir()+"/"); err != nil {
		return err
	}
	return git(ctx, dir, "checkout")
}

// git runs a git subcommand in dir and folds its output into the error.
func git(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git %s: %w\n%s", args[0], err, strings.TrimSpace(string(output)))
	}
	return nil
}

func ensureGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return ErrGitMissing
	}
	return nil
}
