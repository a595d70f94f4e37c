// Package testutil provides testing utilities for blockcache.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating deterministic block structures and
// reproducible random payloads.
//
// # Reproducible Randomness
//
//	rng := testutil.NewRNG(seed)
//	data := rng.Bytes(64)
//
// # Structure Generation
//
//	s := testutil.GenerateStructure(rng, "course/root", 4, 2)
//	// a complete tree anchored at "course/root": every non-leaf block
//	// has 4 children, 2 levels deep
//
// # Root Key Fleets
//
//	roots := testutil.GenerateRoots("course", 100)
package testutil
