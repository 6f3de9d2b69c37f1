// Package loader finds module manifests in an ordered list of directory
// sources and feeds them to a registry. Discovery only walks the tree;
// manifests are parsed on demand when the registry asks for a name, or all
// at once by Preload.
//
// A source is laid out by type directory:
//
//	<source>/exploits/windows/smb/ms08_067_netapi.yaml
//	<source>/payloads/linux/x64/shell_reverse_tcp.json
//
// The module name is the path below the type directory without extension.
package loader
