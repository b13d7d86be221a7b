// Package analytics prepares raw sales statistics for compact display.
package analytics

import "sort"

// DefaultTopReferrers is how many referrers the breakdown shows before
// collapsing the rest into an aggregate bucket. The display palette has
// room for this many slices plus the aggregate.
const DefaultTopReferrers = 3

// OtherLabel names the synthesized remainder bucket.
const OtherLabel = "Other"

// Referrer is one traffic source with its accumulated value.
type Referrer struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TopReferrers returns the top-max referrers by value in descending
// order. When more entries exist, the remainder is summed into a single
// "Other" bucket appended at the end; with max or fewer entries the
// input is returned sorted, with no bucket. A non-positive max falls
// back to DefaultTopReferrers. Ties keep input order.
func TopReferrers(entries []Referrer, max int) []Referrer {
	if max <= 0 {
		max = DefaultTopReferrers
	}

	sorted := make([]Referrer, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	if len(sorted) <= max {
		return sorted
	}

	var rest float64
	for _, r := range sorted[max:] {
		rest += r.Value
	}
	return append(sorted[:max:max], Referrer{Name: OtherLabel, Value: rest})
}
