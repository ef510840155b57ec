package payload

import "codeberg.org/citelens/server/internal/citations"

// one web search an answer engine ran, with the sources it cited
type Search struct {
	Query   string
	Sources citations.Map
}

// searches run while answering one prompt; failed runs carry none
type PromptRun struct {
	Prompt   string
	Success  bool
	Searches []Search
}

// builds a payload from provider runs with the same merging rules as the
// model_runs shape: failed runs are skipped and repeated queries become
// sub-searches of one entry
func FromRuns(runs []PromptRun, target string) *Payload {
	b := newBuilder()

	for _, run := range runs {
		if !run.Success {
			continue
		}

		for _, s := range run.Searches {
			sources := s.Sources
			if sources == nil {
				sources = citations.Map{}
			}

			b.add(s.Query, run.Prompt, sources.Clone())
		}
	}

	return b.payload(target)
}
