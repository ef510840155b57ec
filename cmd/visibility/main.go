// Command visibility analyzes a provider payload file offline and prints the
// site's AI search visibility.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"codeberg.org/citelens/server/internal/config"
	"codeberg.org/citelens/server/internal/insights"
	"codeberg.org/citelens/server/internal/logger"
	"codeberg.org/citelens/server/internal/payload"
	"codeberg.org/citelens/server/internal/visibility"
)

type report struct {
	Shape    string                  `json:"shape"`
	Analysis visibility.SiteAnalysis `json:"analysis"`
	Insights insights.Insights       `json:"insights"`
}

func main() {
	flags, err := config.ParseVisibilityFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if err := run(flags, os.Stdout); err != nil {
		logger.Fatal("analysis failed", "file", flags.File, "error", err)
	}
}

func run(flags config.Flags, out io.Writer) error {
	data, err := os.ReadFile(flags.File)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	prompts, err := loadPrompts(flags.Prompts)
	if err != nil {
		return err
	}

	p, shape, err := payload.Parse(data, flags.Target)
	if err != nil {
		return err
	}

	analysis, err := visibility.Analyze(p, flags.URL, prompts)
	if err != nil {
		return err
	}

	r := report{
		Shape:    string(shape),
		Analysis: analysis,
		Insights: insights.Compute(p, analysis),
	}

	if flags.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	_, err = io.WriteString(out, render(r))
	return err
}

// reads [{prompt, category}]; an empty path means no prompts
func loadPrompts(path string) ([]visibility.Prompt, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts: %w", err)
	}

	var prompts []visibility.Prompt
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}

	return prompts, nil
}
