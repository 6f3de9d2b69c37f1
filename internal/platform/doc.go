// Package platform maps the Go runtime's GOOS and GOARCH onto the
// architecture and platform names used in module manifests, so that the
// running host can be turned into a registry filter.
package platform
