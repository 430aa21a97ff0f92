package artifact

import (
	"crypto/sha1" //nolint:gosec // npm's legacy shasum is SHA-1.
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"
)

// ErrIntegrityMismatch is returned when tarball bytes do not match the
// published hash.
var ErrIntegrityMismatch = errors.New("integrity mismatch")

var sriHashes = map[string]func() hash.Hash{
	"sha512": sha512.New,
	"sha384": sha512.New384,
	"sha256": sha256.New,
	"sha1":   sha1.New,
}

// Verify checks data against an SRI integrity string, falling back to the
// hex SHA-1 shasum when integrity is empty. An integrity string may list
// several hashes separated by spaces; one matching hash is enough.
// With neither field set, Verify accepts any data.
func Verify(data []byte, integrity, shasum string) error {
	if integrity = strings.TrimSpace(integrity); integrity != "" {
		return verifySRI(data, integrity)
	}
	if shasum = strings.TrimSpace(shasum); shasum != "" {
		sum := sha1.Sum(data) //nolint:gosec
		if !strings.EqualFold(hex.EncodeToString(sum[:]), shasum) {
			return fmt.Errorf("%w: shasum %s", ErrIntegrityMismatch, shasum)
		}
	}
	return nil
}

func verifySRI(data []byte, integrity string) error {
	supported := false
	for _, entry := range strings.Fields(integrity) {
		algo, digest, ok := strings.Cut(entry, "-")
		if !ok {
			continue
		}
		newHash, known := sriHashes[algo]
		if !known {
			continue
		}
		// Options after "?" are ignored.
		digest, _, _ = strings.Cut(digest, "?")
		want, err := base64.StdEncoding.DecodeString(digest)
		if err != nil {
			continue
		}
		supported = true
		h := newHash()
		h.Write(data)
		if subtle.ConstantTimeCompare(h.Sum(nil), want) == 1 {
			return nil
		}
	}
	if !supported {
		return fmt.Errorf("no supported hash in integrity %q", integrity)
	}
	return fmt.Errorf("%w: %s", ErrIntegrityMismatch, integrity)
}

// Integrity returns the sha512 SRI string for data.
func Integrity(data []byte) string {
	sum := sha512.Sum512(data)
	return "sha512-" + base64.StdEncoding.EncodeToString(sum[:])
}
