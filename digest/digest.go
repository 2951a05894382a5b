// Package digest resolves hash algorithm names to streaming hash
// constructors and computes hex digests over readers.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"sort"
	"strings"

	"github.com/tjfoc/gmsm/sm3"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/md4"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

// ChunkSize is the read size used when feeding file contents to a hash.
const ChunkSize = 4096

// DefaultAlgorithm is used when no algorithm is given.
const DefaultAlgorithm = "sha512"

var ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

type constructor func() (hash.Hash, error)

func plain(fn func() hash.Hash) constructor {
	return func() (hash.Hash, error) { return fn(), nil }
}

var registry = map[string]constructor{
	"md4":         plain(md4.New),
	"md5":         plain(md5.New),
	"sha1":        plain(sha1.New),
	"sha224":      plain(sha256.New224),
	"sha256":      plain(sha256.New),
	"sha384":      plain(sha512.New384),
	"sha512":      plain(sha512.New),
	"sha512_224":  plain(sha512.New512_224),
	"sha512_256":  plain(sha512.New512_256),
	"sha3_224":    plain(sha3.New224),
	"sha3_256":    plain(sha3.New256),
	"sha3_384":    plain(sha3.New384),
	"sha3_512":    plain(sha3.New512),
	"ripemd160":   plain(ripemd160.New),
	"sm3":         plain(sm3.New),
	"blake2b":     func() (hash.Hash, error) { return blake2b.New512(nil) },
	"blake2b_256": func() (hash.Hash, error) { return blake2b.New256(nil) },
	"blake2s":     func() (hash.Hash, error) { return blake2s.New256(nil) },
	"blake3":      plain(func() hash.Hash { return blake3.New() }),
}

// lookup is keyed by squash(name) so callers may write "SHA-256",
// "sha3-512" or "sha512_256" interchangeably with the canonical names.
var lookup = func() map[string]string {
	m := make(map[string]string, len(registry))
	for name := range registry {
		m[squash(name)] = name
	}
	return m
}()

func squash(name string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(name)))
}

// Canonical returns the registry name for an algorithm, or false when the
// algorithm is unknown.
func Canonical(name string) (string, bool) {
	canonical, ok := lookup[squash(name)]
	return canonical, ok
}

// New returns a fresh hash for the named algorithm.
func New(name string) (hash.Hash, error) {
	canonical, ok := Canonical(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedAlgorithm, name, strings.Join(Names(), ", "))
	}
	return registry[canonical]()
}

// Names returns the supported algorithm names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sum feeds r into h in ChunkSize reads and returns the lowercase hex
// digest. h is not reset first.
func Sum(r io.Reader, h hash.Hash) (string, error) {
	buf := make([]byte, ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
