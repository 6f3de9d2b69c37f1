package platform

import (
	"runtime"
	"slices"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         Capabilities
	}{
		{"linux", "amd64", Capabilities{"x64", "linux"}},
		{"windows", "386", Capabilities{"x86", "windows"}},
		{"darwin", "arm64", Capabilities{"aarch64", "osx"}},
		{"linux", "arm", Capabilities{"armle", "linux"}},
		{"plan9", "wasm", Capabilities{"wasm", "plan9"}},
	}
	for _, tt := range tests {
		if got := Detect(tt.goos, tt.goarch); got != tt.want {
			t.Errorf("Detect(%s, %s) = %+v, want %+v", tt.goos, tt.goarch, got, tt.want)
		}
	}
}

func TestHostFilter(t *testing.T) {
	f := HostFilter()
	if !slices.Equal(f.Architectures, []string{ArchName(runtime.GOARCH)}) {
		t.Errorf("Architectures = %v", f.Architectures)
	}
	if !slices.Equal(f.Platforms, []string{PlatformName(runtime.GOOS)}) {
		t.Errorf("Platforms = %v", f.Platforms)
	}
}
