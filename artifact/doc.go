// Package artifact fetches package tarballs and reads files out of them.
//
// A Source produces the raw bytes of a gzipped tarball, either from the
// local file system (LocalSource) or by URL through a registry client
// (RemoteSource). ReadFile and ReadPackageJSON extract entries from those
// bytes without touching the disk, and Verify checks them against the
// integrity fields a registry publishes.
package artifact
