package memstore

import (
	"sort"
	"strings"
)

// Search filters entries whose name contains query (case-insensitive),
// ranking prefix matches first and then by name. An empty query keeps
// insertion order. limit <= 0 returns every match.
func Search(entries []NameEntry, query string, limit int) []NameEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		out := append([]NameEntry{}, entries...)
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return out
	}

	q := strings.ToLower(query)
	matches := make([]matchedEntry, 0, len(entries))
	for _, entry := range entries {
		lower := strings.ToLower(entry.Name)
		if !strings.Contains(lower, q) {
			continue
		}
		matches = append(matches, matchedEntry{entry: entry, isPrefix: strings.HasPrefix(lower, q)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].entry.Name < matches[j].entry.Name
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]NameEntry, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.entry)
	}
	return out
}

type matchedEntry struct {
	entry    NameEntry
	isPrefix bool
}
