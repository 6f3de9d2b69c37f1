//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentx-labs/modreg/internal/loader"
)

// testEnv holds the isolated directories of one test.
type testEnv struct {
	HomeDir   string // HOME, holds ~/.modreg/
	Primary   string // highest priority source
	Secondary string // lower priority source
}

// setupTestEnv creates isolated temp directories and points HOME at one of
// them so index files and config stay inside the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:   t.TempDir(),
		Primary:   t.TempDir(),
		Secondary: t.TempDir(),
	}
	t.Setenv("HOME", env.HomeDir)
	return env
}

// Sources returns the two sources, primary first.
func (e *testEnv) Sources() []loader.Source {
	return []loader.Source{
		{Name: "primary", BasePath: e.Primary},
		{Name: "secondary", BasePath: e.Secondary},
	}
}

// setupCatalog fills both sources with a realistic set of manifests. The
// secondary source carries an older copy of ms08_067_netapi.
func setupCatalog(t *testing.T, env *testEnv) {
	t.Helper()

	writeManifest(t, env.Primary, "exploits/windows/smb/ms08_067_netapi.yaml", `type: exploit
version: 1.2.0
description: MS08-067 Microsoft Server Service relative path stack corruption
rank: 200
architectures: [x86]
platforms: [windows]
tags: [smb, remote]
`)
	writeManifest(t, env.Primary, "exploits/multi/handler.yaml", `type: exploit
description: Generic payload handler
rank: -300
architectures: [x86, x64, aarch64]
platforms: [windows, linux, osx]
`)
	writeManifest(t, env.Primary, "payloads/linux/x64/shell_reverse_tcp.json", `{
  "type": "payload",
  "description": "Connect back to attacker and spawn a command shell",
  "architectures": ["x64"],
  "platforms": ["linux"]
}`)
	writeManifest(t, env.Primary, "encoders/x86/shikata_ga_nai.toml", `type = "encoder"
description = "Polymorphic XOR additive feedback encoder"
rank = 300
architectures = ["x86"]
`)

	writeManifest(t, env.Secondary, "exploits/windows/smb/ms08_067_netapi.yaml", `type: exploit
version: 1.0.0
description: Older fork of the MS08-067 exploit
architectures: [x86]
platforms: [windows]
`)
	writeManifest(t, env.Secondary, "exploits/unix/ftp/vsftpd_234_backdoor.yaml", `type: exploit
description: VSFTPD v2.3.4 backdoor command execution
rank: 300
architectures: [cmd]
platforms: [unix]
`)
}

// writeManifest creates the manifest at root/rel.
func writeManifest(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}
