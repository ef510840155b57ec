package payload

import (
	"fmt"
	"slices"

	"codeberg.org/citelens/server/internal/citations"
	"codeberg.org/citelens/server/internal/domains"
	"github.com/tidwall/gjson"
)

// Parse detects the upstream shape of data and converts it to a Payload.
// A non-empty target overrides any target domain found in the document.
// Object keys are read in document order, which the aggregation relies on.
func Parse(data []byte, target string) (*Payload, Shape, error) {
	shape, err := Detect(data)
	if err != nil {
		return nil, "", err
	}

	p, err := ParseAs(data, shape, target)
	if err != nil {
		return nil, "", err
	}

	return p, shape, nil
}

// Detect reports which upstream shape data is in.
func Detect(data []byte) (Shape, error) {
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("%w: payload is not valid JSON", ErrInvalidInput)
	}

	root := gjson.ParseBytes(data)

	switch {
	case root.IsArray():
		return ShapeModelRuns, nil
	// a target_domain key marks the canonical shape even when per_query is missing
	case root.IsObject() && (root.Get("per_query").Exists() || root.Get("target_domain").Exists()):
		return ShapePerQuery, nil
	case root.IsObject():
		return ShapeSearchData, nil
	}

	return "", fmt.Errorf("%w: payload must be a JSON object or array", ErrInvalidInput)
}

// ParseAs converts data using the adapter for shape.
func ParseAs(data []byte, shape Shape, target string) (*Payload, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrInvalidInput)
	}

	root := gjson.ParseBytes(data)

	switch shape {
	case ShapePerQuery:
		return parsePerQuery(root, target)
	case ShapeModelRuns:
		return parseModelRuns(root, target)
	case ShapeSearchData:
		return parseSearchData(root, target)
	default:
		return nil, fmt.Errorf("%w: unknown payload shape %q", ErrInvalidInput, shape)
	}
}

// {target_domain, per_query: {query: {...}}}
func parsePerQuery(root gjson.Result, target string) (*Payload, error) {
	perQuery := root.Get("per_query")
	if !perQuery.IsObject() {
		return nil, fmt.Errorf("%w: missing per_query collection", ErrInvalidInput)
	}

	if target == "" {
		target = root.Get("target_domain").String()
	}

	p := &Payload{TargetDomain: target, Queries: []QueryEntry{}}

	var err error
	perQuery.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			err = fmt.Errorf("%w: per_query entry %q is not an object", ErrInvalidInput, key.String())
			return false
		}

		p.Queries = append(p.Queries, perQueryEntry(key.String(), value, target))
		return true
	})

	if err != nil {
		return nil, err
	}

	return p, nil
}

func perQueryEntry(query string, v gjson.Result, target string) QueryEntry {
	e := QueryEntry{
		Query:             query,
		PromptsUsingQuery: stringList(v.Get("prompts_using_query")),
		Citations:         parseCitationMap(v.Get("domains_with_citations")),
	}

	// precomputed target positions without a matching citation key
	if positions := parsePositions(v.Get("target_domain_citations")); len(positions) > 0 && target != "" {
		if _, ok := e.Citations.Lookup(target); !ok {
			e.Citations = e.Citations.Add(target, positions...)
		}
	}

	// sources returned without any citation
	for _, d := range stringList(v.Get("all_domains")) {
		if !slices.Contains(e.Citations.Domains(), domains.Normalize(d)) {
			e.Citations = e.Citations.Add(d)
		}
	}

	if n := v.Get("total_domains"); n.Type == gjson.Number {
		total := int(n.Int())
		e.TotalDomains = &total
	}

	e.TargetRetrieved = optionalBool(v.Get("target_domain_retrieved"))
	e.TargetCited = optionalBool(v.Get("target_domain_cited"))

	if r := v.Get("avg_citation_rank"); r.Type == gjson.Number {
		rank := r.Float()
		e.AvgCitationRank = &rank
	}

	return e
}

// [{prompt, results: {model: [{success, web_searches: {query: {url: positions}}}]}}]
func parseModelRuns(root gjson.Result, target string) (*Payload, error) {
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of prompt results", ErrInvalidInput)
	}

	b := newBuilder()

	var err error
	idx := -1
	root.ForEach(func(_, item gjson.Result) bool {
		idx++

		prompt, results := item.Get("prompt"), item.Get("results")
		if !item.IsObject() || prompt.Type != gjson.String || !results.IsObject() {
			err = fmt.Errorf("%w: item %d needs a prompt string and a results object", ErrInvalidInput, idx)
			return false
		}

		run, ok := primaryRun(results)
		if !ok {
			return true
		}

		searches := run.Get("web_searches")
		if !searches.IsObject() {
			return true
		}

		searches.ForEach(func(query, sources gjson.Result) bool {
			if !isCitationMap(sources) {
				err = fmt.Errorf("%w: sources of query %q are not a citation map", ErrInvalidInput, query.String())
				return false
			}

			b.add(query.String(), prompt.String(), parseCitationMap(sources))
			return true
		})

		return err == nil
	})

	if err != nil {
		return nil, err
	}

	return b.payload(target), nil
}

// first successful run of the first model listed
func primaryRun(results gjson.Result) (gjson.Result, bool) {
	var runs gjson.Result
	results.ForEach(func(_, v gjson.Result) bool {
		runs = v
		return false
	})

	var found gjson.Result
	ok := false

	runs.ForEach(func(_, run gjson.Result) bool {
		if s := run.Get("success"); !s.Exists() || s.Bool() {
			found, ok = run, true
			return false
		}
		return true
	})

	return found, ok
}

// {prompt: {query: {domain: positions}}}
func parseSearchData(root gjson.Result, target string) (*Payload, error) {
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected an object keyed by prompt", ErrInvalidInput)
	}

	b := newBuilder()

	var err error
	root.ForEach(func(prompt, queries gjson.Result) bool {
		if !queries.IsObject() {
			err = fmt.Errorf("%w: %q is not an object of search queries", ErrInvalidInput, prompt.String())
			return false
		}

		queries.ForEach(func(query, sources gjson.Result) bool {
			if !isCitationMap(sources) {
				err = fmt.Errorf("%w: sources of query %q are not a citation map", ErrInvalidInput, query.String())
				return false
			}

			b.add(query.String(), prompt.String(), parseCitationMap(sources))
			return true
		})

		return err == nil
	})

	if err != nil {
		return nil, err
	}

	return b.payload(target), nil
}

// reads {domain: positions} or {domain: {citations: positions}} in key order
func parseCitationMap(v gjson.Result) citations.Map {
	m := citations.Map{}
	if !v.IsObject() {
		return m
	}

	v.ForEach(func(domain, refs gjson.Result) bool {
		m = m.Add(domain.String(), parsePositions(refs)...)
		return true
	})

	return m
}

// reports whether v is {domain: [int]} or {domain: {citations: [int]}}
func isCitationMap(v gjson.Result) bool {
	if !v.IsObject() {
		return false
	}

	ok := true
	v.ForEach(func(_, refs gjson.Result) bool {
		ok = isPositionList(refs)
		return ok
	})

	return ok
}

func isPositionList(v gjson.Result) bool {
	if v.IsObject() {
		v = v.Get("citations")
	}

	if !v.IsArray() {
		return false
	}

	ok := true
	v.ForEach(func(_, p gjson.Result) bool {
		ok = p.Type == gjson.Number
		return ok
	})

	return ok
}

func parsePositions(v gjson.Result) []int {
	if v.IsObject() {
		v = v.Get("citations")
	}

	out := []int{}
	if !v.IsArray() {
		return out
	}

	v.ForEach(func(_, p gjson.Result) bool {
		if p.Type == gjson.Number {
			out = append(out, int(p.Int()))
		}
		return true
	})

	return out
}

func stringList(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}

	var out []string
	v.ForEach(func(_, s gjson.Result) bool {
		if s.Type == gjson.String && s.String() != "" {
			out = append(out, s.String())
		}
		return true
	})

	return out
}

func optionalBool(v gjson.Result) *bool {
	if v.Type != gjson.True && v.Type != gjson.False {
		return nil
	}

	b := v.Bool()
	return &b
}
