package core

import (
	"path/filepath"
	"sync"
)

// VisitSet is a run-scoped set of normalized docset paths already claimed
// for processing. Claim is atomic and idempotent: concurrent attempts on
// the same path observe a single winner, which is what turns a cyclic
// graph traversal into a terminating, duplicate-free one.
type VisitSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewVisitSet() *VisitSet {
	return &VisitSet{seen: make(map[string]struct{})}
}

// Claim records path as visited and reports whether this call was the
// first to do so. The claim is cooperative: a loser does not wait for the
// winner to finish.
func (s *VisitSet) Claim(path string) bool {
	key := NormalizePath(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Len reports how many distinct paths have been claimed.
func (s *VisitSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// NormalizePath resolves path to a cleaned absolute form so that two
// spellings of the same directory collapse to one claim.
func NormalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}
