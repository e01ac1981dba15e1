// Package projection derives display-ready views from an in-memory
// record list. Every function is pure: no store access, no mutation of
// the input, identical input produces identical output. Callers are
// expected to strip trashed records with Active before grouping or
// filtering for default views.
package projection

import (
	"strings"
	"time"

	"github.com/copysaver/copysaver/internal/store"
)

// Active returns the non-trashed records, preserving order.
func Active(records []store.Record) []store.Record {
	var out []store.Record
	for _, record := range records {
		if !record.Trashed {
			out = append(out, record)
		}
	}
	return out
}

// Trashed returns the trashed records, preserving order.
func Trashed(records []store.Record) []store.Record {
	var out []store.Record
	for _, record := range records {
		if record.Trashed {
			out = append(out, record)
		}
	}
	return out
}

// PartitionPinned splits records into the pinned and unpinned subsets,
// both preserving order.
func PartitionPinned(records []store.Record) (pinned, unpinned []store.Record) {
	for _, record := range records {
		if record.Pinned {
			pinned = append(pinned, record)
		} else {
			unpinned = append(unpinned, record)
		}
	}
	return pinned, unpinned
}

// DateKey is the calendar-day bucket key: the UTC date of the capture
// timestamp in YYYY-MM-DD form.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// GroupByDate buckets records by capture day. Records inside a bucket
// keep their original most-recent-first order. Days with no records do
// not appear.
func GroupByDate(records []store.Record) map[string][]store.Record {
	grouped := make(map[string][]store.Record)
	for _, record := range records {
		key := DateKey(record.Timestamp)
		grouped[key] = append(grouped[key], record)
	}
	return grouped
}

// DateKeys returns the bucket keys of GroupByDate in first-encountered
// order, which for a most-recent-first list means newest day first.
func DateKeys(records []store.Record) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, record := range records {
		key := DateKey(record.Timestamp)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

// GroupByCategory buckets records by category name. Only known
// categories appear, only with at least one member; uncategorized
// records are excluded.
func GroupByCategory(records []store.Record, categories []store.Category) map[string][]store.Record {
	known := make(map[string]bool, len(categories))
	for _, category := range categories {
		known[category.Name] = true
	}

	grouped := make(map[string][]store.Record)
	for _, record := range records {
		if record.Category == nil {
			continue
		}
		name := record.Category.Name
		if known[name] {
			grouped[name] = append(grouped[name], record)
		}
	}
	return grouped
}

// FilterBySearchText returns the records whose label contains the query,
// case-insensitively. A blank query returns the input unchanged.
func FilterBySearchText(records []store.Record, query string) []store.Record {
	if strings.TrimSpace(query) == "" {
		return records
	}
	needle := strings.ToLower(query)
	var out []store.Record
	for _, record := range records {
		if strings.Contains(strings.ToLower(record.Label), needle) {
			out = append(out, record)
		}
	}
	return out
}

// FilterByRange returns the records captured at or after start. A nil
// start returns the input unchanged.
func FilterByRange(records []store.Record, start *time.Time) []store.Record {
	if start == nil {
		return records
	}
	var out []store.Record
	for _, record := range records {
		if !record.Timestamp.Before(*start) {
			out = append(out, record)
		}
	}
	return out
}

// TopCategory returns the category with the most member records among
// the given records. Ties break toward the category first reaching the
// winning count in list order. Returns nil when no record has a
// category.
func TopCategory(records []store.Record, categories []store.Category) *store.Category {
	grouped := GroupByCategory(records, categories)
	if len(grouped) == 0 {
		return nil
	}

	best := ""
	bestCount := 0
	// Iterate categories in insertion order so ties are deterministic.
	for _, category := range categories {
		count := len(grouped[category.Name])
		if count > bestCount {
			best = category.Name
			bestCount = count
		}
	}
	if bestCount == 0 {
		return nil
	}
	for i := range categories {
		if categories[i].Name == best {
			return &categories[i]
		}
	}
	return nil
}

// TopSource returns the source of the hostname appearing most often
// across the records. Ties break toward the hostname encountered first.
// Returns nil on empty input or when no record carries a hostname.
func TopSource(records []store.Record) *store.Source {
	counts := make(map[string]int)
	var order []string
	for _, record := range records {
		hostname := record.Source.Hostname
		if hostname == "" {
			continue
		}
		if counts[hostname] == 0 {
			order = append(order, hostname)
		}
		counts[hostname]++
	}

	best := ""
	bestCount := 0
	for _, hostname := range order {
		if counts[hostname] > bestCount {
			best = hostname
			bestCount = counts[hostname]
		}
	}
	if best == "" {
		return nil
	}
	for _, record := range records {
		if record.Source.Hostname == best {
			source := record.Source
			return &source
		}
	}
	return nil
}

// TopSourceHostname is TopSource reduced to the hostname, or "" when
// there is none.
func TopSourceHostname(records []store.Record) string {
	source := TopSource(records)
	if source == nil {
		return ""
	}
	return source.Hostname
}

// Stats summarizes the history for the insights surface.
type Stats struct {
	Total       int
	Pinned      int
	Trashed     int
	TopCategory *store.Category
	TopSource   *store.Source
}

// Summarize computes Stats over the full record list. Total counts only
// non-trashed records, matching the insights view; TopCategory and
// TopSource consider the full list.
func Summarize(records []store.Record, categories []store.Category) Stats {
	stats := Stats{
		TopCategory: TopCategory(records, categories),
		TopSource:   TopSource(records),
	}
	for _, record := range records {
		if record.Trashed {
			stats.Trashed++
			continue
		}
		stats.Total++
		if record.Pinned {
			stats.Pinned++
		}
	}
	return stats
}
