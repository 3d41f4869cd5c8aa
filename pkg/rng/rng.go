// Package rng provides cryptographically secure randomness for dealing.
package rng

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// System produces random numbers from an AES-CTR keystream seeded by the
// operating system CSPRNG. It implements the game core's Shuffler.
type System struct {
	cipher  cipher.Block
	counter uint64
	mu      sync.Mutex
}

// NewSystem creates a new RNG system seeded from the OS entropy pool.
func NewSystem() (*System, error) {
	seed, err := getSeed(32)
	if err != nil {
		return nil, fmt.Errorf("failed to get seed: %w", err)
	}
	block, err := aes.NewCipher(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return &System{cipher: block}, nil
}

// NewSystemWithSeed creates a deterministic System for testing. A seed of
// any length other than 32 bytes is hashed with SHA-256 to the 32 bytes
// AES-256 needs.
func NewSystemWithSeed(seed []byte) (*System, error) {
	if len(seed) != 32 {
		hash := sha256.Sum256(seed)
		seed = hash[:]
	}
	block, err := aes.NewCipher(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return &System{cipher: block}, nil
}

// getSeed obtains entropy from the system CSPRNG
func getSeed(n int) ([]byte, error) {
	seed := make([]byte, n)
	nRead, err := io.ReadFull(rand.Reader, seed)
	if err != nil {
		return nil, err
	}
	if nRead != n {
		return nil, fmt.Errorf("short read from CSPRNG: %d/%d", nRead, n)
	}
	return seed, nil
}

// Uint64 returns a random uint64 from the keystream.
func (s *System) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	counterBytes := make([]byte, 16)
	binary.BigEndian.PutUint64(counterBytes[:8], s.counter)
	s.counter++

	output := make([]byte, 16)
	s.cipher.Encrypt(output, counterBytes)
	return binary.BigEndian.Uint64(output[:8])
}

// Intn returns a random int in range [0, max).
func (s *System) Intn(max int) int {
	if max <= 0 {
		return 0
	}
	return int(s.Uint64() % uint64(max))
}

// Shuffle performs a Fisher-Yates shuffle over n elements using the
// supplied swap function.
func (s *System) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		swap(i, j)
	}
}
