package types

import "time"

// CacheEntry is one cached content revision inside a URL cache directory.
type CacheEntry struct {
	ID      string
	ModTime time.Time
}

// RetentionPolicy controls how many cached revisions of a URL resource
// survive a GC pass. KeepLast below 1 is treated as 1 so a reachable
// resource always keeps its newest revision; KeepDays zero disables the
// age rule.
type RetentionPolicy struct {
	KeepLast int
	KeepDays int
}

type RetentionPlan struct {
	Keep   []CacheEntry
	Delete []CacheEntry
}
