package policies

import (
	"sort"
	"time"

	"docset-deps/internal/types"
)

// BuildRetentionPlan partitions the cached content revisions of one URL
// resource into keep and delete sets. The newest KeepLast revisions
// survive, as does anything newer than KeepDays days. KeepLast below 1 is
// raised to 1: a reachable resource never loses its newest revision.
func BuildRetentionPlan(entries []types.CacheEntry, policy types.RetentionPolicy, now time.Time) types.RetentionPlan {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	normalized := normalizeRetentionPolicy(policy)

	keepIDs := map[string]struct{}{}
	if normalized.KeepDays > 0 {
		cutoff := now.AddDate(0, 0, -normalized.KeepDays)
		for _, entry := range entries {
			if !entry.ModTime.Before(cutoff) {
				keepIDs[entry.ID] = struct{}{}
			}
		}
	}

	sorted := append([]types.CacheEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].ModTime.Equal(sorted[j].ModTime) {
			return sorted[i].ModTime.After(sorted[j].ModTime)
		}
		return sorted[i].ID < sorted[j].ID
	})
	limit := normalized.KeepLast
	if limit > len(sorted) {
		limit = len(sorted)
	}
	for i := 0; i < limit; i++ {
		keepIDs[sorted[i].ID] = struct{}{}
	}

	var keep []types.CacheEntry
	var del []types.CacheEntry
	for _, entry := range entries {
		if _, ok := keepIDs[entry.ID]; ok {
			keep = append(keep, entry)
		} else {
			del = append(del, entry)
		}
	}
	return types.RetentionPlan{Keep: keep, Delete: del}
}

func normalizeRetentionPolicy(policy types.RetentionPolicy) types.RetentionPolicy {
	normalized := policy
	if normalized.KeepLast < 1 {
		normalized.KeepLast = 1
	}
	if normalized.KeepDays < 0 {
		normalized.KeepDays = 0
	}
	return normalized
}
