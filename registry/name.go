package registry

import "strings"

// EscapeName returns the URL path segment for a package name. Scoped names
// keep the leading "@" and escape the separating slash.
func EscapeName(name string) string {
	if strings.HasPrefix(name, "@") {
		return strings.Replace(name, "/", "%2f", 1)
	}
	return name
}

// CacheFileName returns a flat file name for a package, safe on every OS:
// "@types/node" becomes "at_types_node".
func CacheFileName(name string) string {
	name = strings.ReplaceAll(name, "@", "at_")
	return strings.ReplaceAll(name, "/", "_")
}

// TarballName returns the conventional tarball file name for a version,
// e.g. "dayjs-1.11.13.tgz" or, for "@scope/pkg", "pkg-1.0.0.tgz".
func TarballName(name, version string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name + "-" + version + ".tgz"
}

// DefaultTarballURL builds the tarball URL npm registries use when a
// packument does not record one: {base}/{name}/-/{basename}-{version}.tgz.
func DefaultTarballURL(baseURL, name, version string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + name + "/-/" + TarballName(name, version)
}
