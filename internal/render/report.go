package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/agentic-research/treesearch/api"
)

// OrderPreviewLimit is how many traversal order entries a report lists.
const OrderPreviewLimit = 15

// ReportOptions controls Report output.
type ReportOptions struct {
	// Color enables ANSI colors. See ColorEnabled.
	Color bool
	// PreviewLimit overrides OrderPreviewLimit when positive.
	PreviewLimit int
}

// ColorEnabled reports whether w is a terminal that should get colors.
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type palette struct {
	title *color.Color
	label *color.Color
	value *color.Color
	found *color.Color
	muted *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		title: color.New(color.FgCyan, color.Bold),
		label: color.New(color.Bold),
		value: color.New(color.FgWhite),
		found: color.New(color.FgGreen),
		muted: color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{p.title, p.label, p.value, p.found, p.muted} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Summary is the one-line completion status of a run.
func Summary(res *api.Result) string {
	return fmt.Sprintf("Search completed. Found %d matches. Visited %d paths.", len(res.Found), len(res.Visited))
}

// Efficiency is the share of the snapshot a run did not need to visit, as a
// percentage clamped at zero. An empty snapshot scores zero.
func Efficiency(res *api.Result) float64 {
	if res == nil || res.TotalNodes <= 0 {
		return 0
	}
	e := (1 - float64(len(res.Visited))/float64(res.TotalNodes)) * 100
	return max(e, 0)
}

// OrderPreview joins the base names of the first limit order entries with
// arrows, adding "... and N more" when the order is longer.
func OrderPreview(order []string, limit int) string {
	if limit <= 0 {
		limit = OrderPreviewLimit
	}
	n := min(len(order), limit)
	names := make([]string, 0, n+1)
	for _, p := range order[:n] {
		names = append(names, filepath.Base(p))
	}
	if len(order) > limit {
		names = append(names, fmt.Sprintf("... and %d more", len(order)-limit))
	}
	return strings.Join(names, " → ")
}

// Report writes a human-readable account of res: matches, a performance
// table and the head of the traversal order.
func Report(w io.Writer, res *api.Result, opts ReportOptions) error {
	p := newPalette(opts.Color)
	var b strings.Builder

	b.WriteString(p.title.Sprint("Search Results"))
	b.WriteString("\n")
	if len(res.Found) == 0 {
		b.WriteString(p.muted.Sprint("No files found matching the search criteria."))
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "Found %d file(s):\n", len(res.Found))
		for i, path := range res.Found {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, p.found.Sprint(filepath.Base(path)))
			fmt.Fprintf(&b, "     %s\n", p.muted.Sprint(path))
		}
	}

	b.WriteString("\n")
	b.WriteString(p.title.Sprint("Performance Analysis"))
	b.WriteString("\n")
	rows := [][2]string{
		{"Algorithm Used", res.Request.Algorithm.Label()},
		{"Execution Time", fmt.Sprintf("%d ms", res.Duration.Round(time.Millisecond).Milliseconds())},
		{"Nodes Visited", fmt.Sprint(len(res.Visited))},
		{"Total Nodes in Tree", fmt.Sprint(res.TotalNodes)},
		{"Files Found", fmt.Sprint(len(res.Found))},
	}
	if res.TotalNodes > 0 {
		rows = append(rows, [2]string{"Search Efficiency", fmt.Sprintf("%.1f%%", Efficiency(res))})
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "  %s %s\n", p.label.Sprintf("%-20s", r[0]), p.value.Sprint(r[1]))
	}

	b.WriteString("\n")
	b.WriteString(p.title.Sprintf("Traversal Order (%s)", res.Request.Algorithm.Short()))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s\n\n", OrderPreview(res.Order, opts.PreviewLimit))
	b.WriteString(Summary(res))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
