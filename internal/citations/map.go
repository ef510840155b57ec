package citations

import (
	"slices"

	"codeberg.org/citelens/server/internal/domains"
)

// returns a map with positions appended to domain, adding the domain at the
// end when it is not present yet; keys compare exactly as reported
func (m Map) Add(domain string, positions ...int) Map {
	for i := range m {
		if m[i].Domain == domain {
			m[i].Positions = append(m[i].Positions, positions...)
			return m
		}
	}

	return append(m, Entry{Domain: domain, Positions: append([]int{}, positions...)})
}

// folds other into m entry by entry, preserving first-seen order
func (m Map) Merge(other Map) Map {
	for _, e := range other {
		m = m.Add(e.Domain, e.Positions...)
	}

	return m
}

// returns a deep copy
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}

	out := make(Map, len(m))
	for i, e := range m {
		out[i] = Entry{Domain: e.Domain, Positions: slices.Clone(e.Positions)}
	}

	return out
}

// returns the first entry whose domain fuzzily matches target
func (m Map) Lookup(target string) (Entry, bool) {
	for _, e := range m {
		if domains.FuzzyEquals(e.Domain, target) {
			return e, true
		}
	}

	return Entry{}, false
}

// returns the distinct normalized domains in first-seen order
func (m Map) Domains() []string {
	seen := make(map[string]struct{}, len(m))
	out := make([]string, 0, len(m))

	for _, e := range m {
		d := domains.Normalize(e.Domain)
		if _, ok := seen[d]; ok {
			continue
		}

		seen[d] = struct{}{}
		out = append(out, d)
	}

	return out
}

// counts valid (domain, position) citation pairs
func (m Map) Pairs() int {
	n := 0
	for _, e := range m {
		n += len(validPositions(e.Positions))
	}

	return n
}
