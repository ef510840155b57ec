package main

import (
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/citelens/server/internal/visibility"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorWhite     = lipgloss.Color("#FFFFFF")
	colorLightGray = lipgloss.Color("#CCCCCC")
	colorGray      = lipgloss.Color("#888888")
	colorGreen     = lipgloss.Color("#00FF00")
	colorYellow    = lipgloss.Color("#FFFF00")
	colorRed       = lipgloss.Color("#FF0000")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorLightGray).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(colorLightGray).
			Bold(true).
			MarginTop(1)
)

func render(r report) string {
	a := r.Analysis

	var b strings.Builder

	b.WriteString(titleStyle.Render("AI search visibility: " + a.TargetDomain))
	b.WriteString("\n")

	b.WriteString(field("url", a.URL))
	b.WriteString(field("payload", r.Shape))
	b.WriteString(field("queries", strconv.Itoa(a.TotalQueries)))
	b.WriteString(field("visibility", scoreStyle(a.OverallVisibility).Render(strconv.Itoa(a.OverallVisibility))))
	b.WriteString(field("average rank", formatRank(a.OverallAverageRanking)))
	b.WriteString(field("top category", a.TopCategory))

	if len(a.Results) > 0 {
		b.WriteString("\n")
		b.WriteString(queryTable(a.Results))
		b.WriteString("\n")
	}

	in := r.Insights

	b.WriteString(sectionStyle.Render("Insights"))
	b.WriteString("\n")
	b.WriteString(field("market position", in.MarketPosition))
	b.WriteString(field("retrieval rate", formatPercent(in.RetrievalRate)))
	b.WriteString(field("citation rate", formatPercent(in.CitationRate)))

	if len(in.KeyCompetitors) > 0 {
		names := make([]string, 0, len(in.KeyCompetitors))
		for _, c := range in.KeyCompetitors {
			names = append(names, fmt.Sprintf("%s (%d)", c.Domain, c.Frequency))
		}
		b.WriteString(field("competitors", strings.Join(names, ", ")))
	}

	for _, rec := range in.Recommendations {
		b.WriteString(fmt.Sprintf("  [%s] %s: %s\n", rec.Priority, rec.Title, rec.Description))
	}

	return b.String()
}

func queryTable(records []visibility.QueryRecord) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		Headers("query", "category", "retrieved", "cited", "positions", "rank", "score", "searches").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, r := range records {
		t.Row(
			r.Query,
			r.Category,
			yesNo(r.TargetRetrieved),
			yesNo(r.TargetCited),
			formatPositions(r.CitationPositions),
			formatRank(r.AverageRank),
			strconv.Itoa(r.VisibilityScore),
			fmt.Sprintf("%d/%d", r.AppearsInSearches, r.TotalSearchesForQuery),
		)
	}

	return t.Render()
}

func field(label, value string) string {
	return fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-16s", label)), valueStyle.Render(value))
}

func scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 70:
		return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	case score >= 40:
		return lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	}
}

func formatRank(rank float64) string {
	if rank <= 0 {
		return "-"
	}

	return strconv.FormatFloat(rank, 'f', 1, 64)
}

func formatPercent(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}

func formatPositions(positions []int) string {
	if len(positions) == 0 {
		return "-"
	}

	parts := make([]string, 0, len(positions))
	for _, p := range positions {
		parts = append(parts, strconv.Itoa(p))
	}

	return strings.Join(parts, ",")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}

	return "no"
}
