// Package lockfile reads and writes tinypm.lock, the TOML record of a
// resolution.
//
// A lockfile stores the requirements that were resolved and, for every
// selected package, its exact version, where it came from and which
// selected packages required it. Two resolutions of the same requirements
// against unchanged registries produce byte-identical lockfiles.
//
// # Format
//
//	version = 1
//
//	[requirements]
//	jest = '0.0.6'
//
//	[[package]]
//	name = 'eyes'
//	version = '0.1.6'
//	registry = 'https://registry.npmjs.org'
//	tarball = 'https://registry.npmjs.org/eyes/-/eyes-0.1.6.tgz'
//	required_by = ['vows@0.5.0']
//
// Packages are ordered by name; map-valued fields are written with sorted
// keys.
//
// # Usage
//
//	list, err := tinypm.Resolve(ctx, reqs)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	lf := lockfile.FromResolution(reqs, list)
//	if err := lf.WriteFile(lockfile.DefaultPath(".")); err != nil {
//	    log.Fatal(err)
//	}
package lockfile
