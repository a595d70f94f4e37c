package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/blockcache/structure"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Bytes returns n pseudo-random bytes.
// Locks only once per call (preferred over drawing bytes in a loop).
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	r.rand.Read(b) // nolint errcheck
	return b
}

// GenerateStructure builds a deterministic block structure anchored at
// root: a complete tree of the given depth in which every non-leaf block
// has width children. Every block carries block data and one transformer
// annotation, so encoded payloads have a realistic shape. The same seed,
// root and dimensions always produce the same structure.
func GenerateStructure(rng *RNG, root structure.Key, width, depth int) *structure.BlockStructure {
	s := structure.New(root)
	s.DataVersion = fmt.Sprintf("gen-%d", rng.Uint64()%1_000_000)

	level := []structure.Key{root}
	for d := 0; d < depth; d++ {
		var next []structure.Key
		for _, parent := range level {
			children := make([]structure.Key, width)
			for i := range children {
				children[i] = structure.Key(fmt.Sprintf("%s.%d", parent, i))
			}
			s.SetChildren(parent, children...)
			next = append(next, children...)
		}
		level = next
	}
	for _, leaf := range level {
		s.SetChildren(leaf)
	}

	// Blocks() is sorted, so payload assignment is deterministic too.
	for _, block := range s.Blocks() {
		s.SetBlockData(block, rng.Bytes(64))
		s.SetTransformerData("annotate", block, rng.Bytes(24))
	}

	return s
}

// NumBlocks returns the number of blocks in a tree built by
// GenerateStructure with the same width and depth.
func NumBlocks(width, depth int) int {
	n, level := 1, 1
	for d := 0; d < depth; d++ {
		level *= width
		n += level
	}
	return n
}

// GenerateRoots returns n distinct root keys sharing a common prefix.
func GenerateRoots(prefix string, n int) []structure.Key {
	roots := make([]structure.Key, n)
	for i := range roots {
		roots[i] = structure.Key(fmt.Sprintf("%s-%04d", prefix, i))
	}
	return roots
}
