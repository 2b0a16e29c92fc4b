// Package password stretches plaintext secrets into verifiable hash material.
// Each secret gets a fresh random salt and a randomized iteration count, so
// two identical secrets never share a hash and precomputed tables are useless.
package password

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// minIterations is the PBKDF2 iteration floor; a random offset below
	// iterationSpread is added on top so the work factor is not fixed.
	minIterations   = 1000
	iterationSpread = 1000

	saltLen = 16
	keyLen  = 64
)

// HashInfo is the stored hash material for one secret: the derived key and
// salt as hex, plus the iteration count used to derive the key.
type HashInfo struct {
	Hash       string
	Salt       string
	Iterations int
}

// Hash derives hash material for a secret. The salt and iteration count are
// drawn from crypto/rand on every call.
func Hash(secret string) (HashInfo, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return HashInfo{}, fmt.Errorf("password: salt: %w", err)
	}
	iterations, err := randomIterations()
	if err != nil {
		return HashInfo{}, err
	}
	key := pbkdf2.Key([]byte(secret), salt, iterations, keyLen, sha512.New)
	return HashInfo{
		Hash:       hex.EncodeToString(key),
		Salt:       hex.EncodeToString(salt),
		Iterations: iterations,
	}, nil
}

// Verify re-derives the key from secret using the stored salt and iteration
// count and compares it to the stored hash in constant time. A wrong secret
// is (false, nil); only malformed hex input is an error.
func Verify(secret string, info HashInfo) (bool, error) {
	storedKey, err := hex.DecodeString(info.Hash)
	if err != nil {
		return false, fmt.Errorf("password: malformed hash: %w", err)
	}
	salt, err := hex.DecodeString(info.Salt)
	if err != nil {
		return false, fmt.Errorf("password: malformed salt: %w", err)
	}
	if info.Iterations < 1 {
		return false, fmt.Errorf("password: invalid iteration count %d", info.Iterations)
	}
	key := pbkdf2.Key([]byte(secret), salt, info.Iterations, len(storedKey), sha512.New)
	return subtle.ConstantTimeCompare(key, storedKey) == 1, nil
}

func randomIterations() (int, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("password: iterations: %w", err)
	}
	offset := binary.BigEndian.Uint64(b[:]) % iterationSpread
	return minIterations + int(offset), nil
}
