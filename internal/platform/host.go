package platform

import (
	"runtime"

	"github.com/agentx-labs/modreg/internal/registry"
)

// Capabilities describes one host in manifest vocabulary.
type Capabilities struct {
	Architecture string `json:"architecture"`
	Platform     string `json:"platform"`
}

var archNames = map[string]string{
	"amd64":   "x64",
	"386":     "x86",
	"arm64":   "aarch64",
	"arm":     "armle",
	"mips":    "mipsbe",
	"mipsle":  "mipsle",
	"ppc64":   "ppc64",
	"ppc64le": "ppc64le",
	"riscv64": "riscv64",
	"s390x":   "zarch",
}

var platformNames = map[string]string{
	"darwin":  "osx",
	"linux":   "linux",
	"windows": "windows",
	"freebsd": "freebsd",
	"openbsd": "openbsd",
	"netbsd":  "netbsd",
	"solaris": "solaris",
	"android": "android",
	"ios":     "apple_ios",
}

// ArchName returns the manifest name of a GOARCH value. Unknown values are
// returned unchanged.
func ArchName(goarch string) string {
	if name, ok := archNames[goarch]; ok {
		return name
	}
	return goarch
}

// PlatformName returns the manifest name of a GOOS value. Unknown values
// are returned unchanged.
func PlatformName(goos string) string {
	if name, ok := platformNames[goos]; ok {
		return name
	}
	return goos
}

// Detect returns the capabilities of a GOOS/GOARCH pair.
func Detect(goos, goarch string) Capabilities {
	return Capabilities{
		Architecture: ArchName(goarch),
		Platform:     PlatformName(goos),
	}
}

// Host returns the capabilities of the running process.
func Host() Capabilities {
	return Detect(runtime.GOOS, runtime.GOARCH)
}

// Filter returns a registry filter selecting modules that run on c.
func (c Capabilities) Filter() registry.Filter {
	return registry.Filter{
		Architectures: []string{c.Architecture},
		Platforms:     []string{c.Platform},
	}
}

// HostFilter returns the filter for the running host.
func HostFilter() registry.Filter {
	return Host().Filter()
}
