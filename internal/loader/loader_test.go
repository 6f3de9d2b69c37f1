package loader

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/agentx-labs/modreg/internal/blueprint"
	"github.com/agentx-labs/modreg/internal/registry"
)

const testdataDir = "testdata"

func testSources(t *testing.T) []Source {
	t.Helper()
	var sources []Source
	for _, name := range []string{"primary", "secondary"} {
		abs, err := filepath.Abs(filepath.Join(testdataDir, name))
		if err != nil {
			t.Fatal(err)
		}
		sources = append(sources, Source{Name: name, BasePath: abs})
	}
	return sources
}

// writeManifest creates a manifest file, creating parent directories.
func writeManifest(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover_FirstSourceWins(t *testing.T) {
	candidates, err := Discover(testSources(t))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	byKey := make(map[string]Candidate)
	for _, c := range candidates {
		if _, dup := byKey[c.Key()]; dup {
			t.Errorf("duplicate candidate %s", c.Key())
		}
		byKey[c.Key()] = c
	}

	ms08 := byKey["exploit/windows/smb/ms08_067_netapi"]
	if ms08.Source != "primary" {
		t.Errorf("ms08_067_netapi Source = %q, want primary", ms08.Source)
	}
	for _, key := range []string{
		"exploit/multi/handler",
		"exploit/unix/ftp/vsftpd_backdoor",
		"payload/linux/x64/shell_reverse_tcp",
		"encoder/x86/shikata_ga_nai",
	} {
		if _, ok := byKey[key]; !ok {
			t.Errorf("candidate %s not discovered", key)
		}
	}
}

func TestDiscoverAll_KeepsShadowed(t *testing.T) {
	all, err := DiscoverAll(testSources(t))
	if err != nil {
		t.Fatalf("DiscoverAll: %v", err)
	}
	var sources []string
	for _, c := range all {
		if c.Name == "windows/smb/ms08_067_netapi" {
			sources = append(sources, c.Source)
		}
	}
	if !slices.Equal(sources, []string{"primary", "secondary"}) {
		t.Errorf("ms08_067_netapi sources = %v, want [primary secondary]", sources)
	}
}

func TestDiscover_FormatPriorityAndHiddenDirs(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "nops", "x86", "single.json"), `{"type":"nop"}`)
	writeManifest(t, filepath.Join(root, "nops", "x86", "single.yaml"), "type: nop\n")
	writeManifest(t, filepath.Join(root, "nops", ".git", "stray.yaml"), "type: nop\n")
	writeManifest(t, filepath.Join(root, "nops", "README.md"), "# nops\n")

	candidates, err := Discover([]Source{{Name: "tmp", BasePath: root}})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(candidates), candidates)
	}
	if filepath.Ext(candidates[0].Path) != ".yaml" {
		t.Errorf("Path = %s, want the .yaml manifest", candidates[0].Path)
	}
}

func TestLocate(t *testing.T) {
	sources := testSources(t)

	tests := []struct {
		name       string
		moduleType string
		module     string
		wantSource string
		wantErr    bool
	}{
		{"primary wins", blueprint.TypeExploit, "windows/smb/ms08_067_netapi", "primary", false},
		{"fallback source", blueprint.TypeExploit, "unix/ftp/vsftpd_backdoor", "secondary", false},
		{"json manifest", blueprint.TypePayload, "linux/x64/shell_reverse_tcp", "primary", false},
		{"wrong type", blueprint.TypePayload, "multi/handler", "", true},
		{"missing", blueprint.TypeExploit, "does/not/exist", "", true},
		{"path traversal", blueprint.TypeExploit, "../payloads/linux/x64/shell_reverse_tcp", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Locate(sources, tt.moduleType, tt.module)
			if tt.wantErr {
				if !errors.Is(err, ErrNoManifest) {
					t.Errorf("Locate error = %v, want ErrNoManifest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Locate: %v", err)
			}
			if c.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", c.Source, tt.wantSource)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	sources := testSources(t)
	path := filepath.Join(sources[1].BasePath, "exploits", "unix", "ftp", "vsftpd_backdoor.yaml")

	c, ok := Classify(sources, path)
	if !ok {
		t.Fatalf("Classify(%s) = false", path)
	}
	if c.Type != blueprint.TypeExploit || c.Name != "unix/ftp/vsftpd_backdoor" || c.Source != "secondary" {
		t.Errorf("Classify = %+v", c)
	}

	if _, ok := Classify(sources, filepath.Join(sources[0].BasePath, "README.md")); ok {
		t.Error("Classify accepted a non-manifest file")
	}
	if _, ok := Classify(sources, "/elsewhere/exploits/a.yaml"); ok {
		t.Error("Classify accepted a path outside every source")
	}
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource("local=/opt/modules")
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	if src.Name != "local" || src.BasePath != "/opt/modules" {
		t.Errorf("ParseSource = %+v", src)
	}

	bare, err := ParseSource("/srv/catalog")
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	if bare.Name != "catalog" {
		t.Errorf("Name = %q, want catalog", bare.Name)
	}

	if _, err := ParseSource("name="); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestCandidates(t *testing.T) {
	l := New(testSources(t))

	names, err := l.Candidates(blueprint.TypeExploit)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	want := []string{
		"broken/bad",
		"multi/handler",
		"unix/ftp/vsftpd_backdoor",
		"windows/smb/ms08_067_netapi",
	}
	if !slices.Equal(names, want) {
		t.Errorf("Candidates(exploit) = %v, want %v", names, want)
	}
}

func TestDemandLoad(t *testing.T) {
	l := New(testSources(t))
	reg := registry.New(blueprint.TypeExploit, l)

	ok, err := l.DemandLoad(reg, blueprint.TypeExploit, "multi/handler")
	if err != nil || !ok {
		t.Fatalf("DemandLoad = %v, %v", ok, err)
	}
	bp, _ := reg.State("multi/handler")
	got, resolved := bp.Blueprint()
	if !resolved {
		t.Fatal("DemandLoad did not register the blueprint")
	}
	if got.Rank() != blueprint.ManualRank {
		t.Errorf("Rank() = %d, want ManualRank", got.Rank())
	}

	ok, err = l.DemandLoad(reg, blueprint.TypeExploit, "nope")
	if ok || err != nil {
		t.Errorf("DemandLoad(nope) = %v, %v, want false, nil", ok, err)
	}

	ok, err = l.DemandLoad(reg, blueprint.TypeExploit, "broken/bad")
	if ok || !errors.Is(err, blueprint.ErrInvalidManifest) {
		t.Errorf("DemandLoad(broken/bad) = %v, %v, want ErrInvalidManifest", ok, err)
	}
}

func TestDemandLoad_TypeMismatch(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "exploits", "misfiled.yaml"), "type: payload\n")
	l := New([]Source{{Name: "tmp", BasePath: root}})

	ok, err := l.DemandLoad(registry.New("", l), blueprint.TypeExploit, "misfiled")
	if ok || !errors.Is(err, blueprint.ErrInvalidManifest) {
		t.Errorf("DemandLoad = %v, %v, want type mismatch error", ok, err)
	}
}

func TestRegistryThroughLoader(t *testing.T) {
	l := New(testSources(t))
	reg := registry.New(blueprint.TypeExploit, l)
	if _, err := l.Seed(reg, blueprint.TypeExploit); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	got := make([]string, 0)
	for _, e := range reg.RankedOrder() {
		got = append(got, e.Name)
	}
	want := []string{"unix/ftp/vsftpd_backdoor", "windows/smb/ms08_067_netapi", "multi/handler"}
	if !slices.Equal(got, want) {
		t.Errorf("RankedOrder() = %v, want %v", got, want)
	}

	if s, _ := reg.State("broken/bad"); s.IsResolved() {
		t.Error("broken manifest resolved")
	}
	if len(reg.AmbiguousNames()) != 0 {
		t.Errorf("demand loading recorded ambiguities: %v", reg.AmbiguousNames())
	}
}

func TestPreload_RecordsCollisions(t *testing.T) {
	l := New(testSources(t))
	reg := registry.New(blueprint.TypeExploit, l)

	n, err := l.Preload(reg, blueprint.TypeExploit)
	if err == nil {
		t.Error("Preload should report the broken manifest")
	}
	if n != 4 {
		t.Errorf("Preload loaded %d manifests, want 4", n)
	}

	if names := reg.AmbiguousNames(); !slices.Equal(names, []string{"windows/smb/ms08_067_netapi"}) {
		t.Errorf("AmbiguousNames() = %v", names)
	}
	bp, _ := reg.Get("windows/smb/ms08_067_netapi")
	if bp.Version() != "1.2.0" {
		t.Errorf("kept version %s, want the primary source's 1.2.0", bp.Version())
	}

	// A second preload presents the same definitions again.
	if _, err := l.Preload(reg, blueprint.TypeExploit); err == nil {
		t.Error("second Preload should still report the broken manifest")
	}
	if got := len(reg.Collisions("windows/smb/ms08_067_netapi")); got != 1 {
		t.Errorf("collisions after second preload = %d, want 1", got)
	}
}

func TestRefresh(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "exploits", "demo.yaml")
	writeManifest(t, path, "type: exploit\nversion: 1.0.0\narchitectures: [x86]\n")
	sources := []Source{{Name: "tmp", BasePath: root}}
	l := New(sources)

	var reloaded []string
	reg := registry.New(blueprint.TypeExploit, l,
		registry.WithReloadHook(func(bp *blueprint.Blueprint) { reloaded = append(reloaded, bp.Version()) }))
	if _, err := l.Seed(reg, blueprint.TypeExploit); err != nil {
		t.Fatal(err)
	}

	// Unresolved entries pick up changes on first load.
	writeManifest(t, path, "type: exploit\nversion: 1.1.0\n")
	if err := l.Refresh(reg, path); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(reloaded) != 0 {
		t.Errorf("reload hook ran for an unresolved entry")
	}

	if bp, ok := reg.Get("demo"); !ok || bp.Version() != "1.1.0" {
		t.Fatalf("Get(demo) = %v, %v", bp, ok)
	}

	writeManifest(t, path, "type: exploit\nversion: 1.2.0\n")
	if err := l.Refresh(reg, path); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !slices.Equal(reloaded, []string{"1.2.0"}) {
		t.Errorf("reloaded = %v, want [1.2.0]", reloaded)
	}

	newPath := filepath.Join(root, "exploits", "fresh.yaml")
	writeManifest(t, newPath, "type: exploit\n")
	if err := l.Refresh(reg, newPath); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if s, ok := reg.State("fresh"); !ok || s.IsResolved() {
		t.Errorf("State(fresh) = %v, %v, want unresolved placeholder", s, ok)
	}

	writeManifest(t, path, "type: exploit\nrank: bogus\n")
	if err := l.Refresh(reg, path); err == nil {
		t.Error("Refresh of an invalid manifest returned nil")
	}
	if bp, _ := reg.Get("demo"); bp.Version() != "1.2.0" {
		t.Errorf("invalid manifest replaced the blueprint: %s", bp.Version())
	}
}

func TestRefresh_IgnoresShadowedAndOtherTypes(t *testing.T) {
	high := t.TempDir()
	low := t.TempDir()
	writeManifest(t, filepath.Join(high, "exploits", "dup.yaml"), "type: exploit\nversion: 1.0.0\n")
	lowPath := filepath.Join(low, "exploits", "dup.yaml")
	writeManifest(t, lowPath, "type: exploit\nversion: 9.0.0\n")
	payloadPath := filepath.Join(high, "payloads", "p.yaml")
	writeManifest(t, payloadPath, "type: payload\n")

	l := New([]Source{{Name: "high", BasePath: high}, {Name: "low", BasePath: low}})
	reg := registry.New(blueprint.TypeExploit, l)
	reg.Get("dup")

	if err := l.Refresh(reg, lowPath); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if bp, _ := reg.Get("dup"); bp.Version() != "1.0.0" {
		t.Errorf("shadowed manifest replaced the blueprint: %s", bp.Version())
	}

	if err := l.Refresh(reg, payloadPath); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, ok := reg.State("p"); ok {
		t.Error("payload manifest was added to an exploit registry")
	}
}
