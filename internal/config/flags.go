package config

import (
	"flag"
	"fmt"
)

// parses CLI flags for the visibility command
func ParseVisibilityFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("visibility", flag.ContinueOnError)
	file := fs.String("file", "", "path to a provider payload JSON file")
	target := fs.String("target", "", "target domain (defaults to the payload's target_domain)")
	url := fs.String("url", "", "analyzed site URL shown in the report")
	prompts := fs.String("prompts", "", "optional JSON file with [{prompt, category}]")
	format := fs.String("format", "table", "output format: table or json")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	if *file == "" {
		return Flags{}, fmt.Errorf("-file is required")
	}

	if *format != "table" && *format != "json" {
		return Flags{}, fmt.Errorf("unknown format %q", *format)
	}

	return Flags{File: *file, Target: *target, URL: *url, Prompts: *prompts, Format: *format}, nil
}
