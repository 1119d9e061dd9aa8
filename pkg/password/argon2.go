// Package password hashes and verifies secrets with Argon2id.
//
// Hashes are encoded in the PHC string format so the parameters and salt used to
// produce them travel with the hash:
//
//	$argon2id$v=19$m=19456,t=2,p=2$<salt>$<key>
package password

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidHash         = argon2id.ErrInvalidHash
	ErrIncompatibleVariant = argon2id.ErrIncompatibleVariant
	ErrIncompatibleVersion = argon2id.ErrIncompatibleVersion
)

// Upper bounds accepted from a stored hash. A hash above them is treated as corrupt
// instead of being run.
const (
	MaxMemoryKiB  = 1 << 20
	MaxIterations = 64
)

// Params are the Argon2id cost parameters.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follows the OWASP baseline for Argon2id.
func DefaultParams() Params {
	return Params{
		MemoryKiB:   19 * 1024,
		Iterations:  2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (p Params) toArgon2id() *argon2id.Params {
	return &argon2id.Params{
		Memory:      p.MemoryKiB,
		Iterations:  p.Iterations,
		Parallelism: p.Parallelism,
		SaltLength:  p.SaltLength,
		KeyLength:   p.KeyLength,
	}
}

// Hasher is safe for concurrent use.
type Hasher struct {
	params Params
}

func NewHasher(p Params) *Hasher {
	d := DefaultParams()
	if p.MemoryKiB == 0 {
		p.MemoryKiB = d.MemoryKiB
	}
	if p.Iterations == 0 {
		p.Iterations = d.Iterations
	}
	if p.Parallelism == 0 {
		p.Parallelism = d.Parallelism
	}
	if p.SaltLength == 0 {
		p.SaltLength = d.SaltLength
	}
	if p.KeyLength == 0 {
		p.KeyLength = d.KeyLength
	}
	return &Hasher{params: p}
}

// Params returns the parameters new hashes are produced with.
func (h *Hasher) Params() Params { return h.params }

// Hash derives a key from plain with a fresh random salt and returns the encoded form.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := argon2id.CreateHash(plain, h.params.toArgon2id())
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// Verify reports whether plain matches the encoded hash. A malformed hash yields
// ErrInvalidHash rather than false so callers can tell corruption from a wrong password.
func (h *Hasher) Verify(plain, encoded string) (bool, error) {
	if _, err := decode(encoded); err != nil {
		return false, err
	}
	return argon2id.ComparePasswordAndHash(plain, encoded)
}

// NeedsRehash reports whether encoded was produced with different parameters than
// the ones this hasher currently uses.
func (h *Hasher) NeedsRehash(encoded string) bool {
	p, err := decode(encoded)
	if err != nil {
		return true
	}
	return p.MemoryKiB != h.params.MemoryKiB ||
		p.Iterations != h.params.Iterations ||
		p.Parallelism != h.params.Parallelism ||
		p.KeyLength != h.params.KeyLength
}

// decode parses encoded with argon2id.DecodeHash and rejects anything it would not
// have produced itself, along with costs above the Max bounds.
func decode(encoded string) (Params, error) {
	ap, salt, key, err := argon2id.DecodeHash(encoded)
	switch {
	case errors.Is(err, ErrIncompatibleVersion), errors.Is(err, ErrIncompatibleVariant):
		return Params{}, err
	case err != nil:
		return Params{}, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	p := Params{
		MemoryKiB:   ap.Memory,
		Iterations:  ap.Iterations,
		Parallelism: ap.Parallelism,
		SaltLength:  ap.SaltLength,
		KeyLength:   ap.KeyLength,
	}

	// DecodeHash scans with Sscanf, which ignores trailing input
	parts := strings.Split(encoded, "$")
	if parts[0] != "" ||
		parts[2] != fmt.Sprintf("v=%d", argon2.Version) ||
		parts[3] != fmt.Sprintf("m=%d,t=%d,p=%d", p.MemoryKiB, p.Iterations, p.Parallelism) {
		return Params{}, ErrInvalidHash
	}
	if len(salt) == 0 || len(key) == 0 {
		return Params{}, ErrInvalidHash
	}
	if p.MemoryKiB == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return Params{}, ErrInvalidHash
	}
	if p.MemoryKiB > MaxMemoryKiB || p.Iterations > MaxIterations {
		return Params{}, fmt.Errorf("%w: cost above limit (m=%d, t=%d)", ErrInvalidHash, p.MemoryKiB, p.Iterations)
	}
	return p, nil
}
