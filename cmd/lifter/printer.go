package main

import (
	"fmt"
	"io"

	"github.com/cjrh/lifter/internal/lifter"
)

// progressStep is the fraction between printed download progress lines.
const progressStep = 0.25

// printer renders progress events as plain lines.
type printer struct {
	w        io.Writer
	progress map[string]float64 // last printed fraction per section
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, progress: make(map[string]float64)}
}

func (p *printer) consume(events <-chan lifter.Event) {
	for e := range events {
		p.print(e)
	}
}

func (p *printer) print(e lifter.Event) {
	switch e.Kind {
	case lifter.CheckStart:
		fmt.Fprintf(p.w, "[%s] checking\n", e.Section)
	case lifter.UpToDate:
		fmt.Fprintf(p.w, "[%s] up to date (%s)\n", e.Section, e.Version)
	case lifter.NeedsUpdate:
		current := e.Current
		if current == "" {
			current = "none"
		}
		fmt.Fprintf(p.w, "[%s] update available: %s -> %s\n", e.Section, current, e.Latest)
	case lifter.DownloadProgress:
		if e.Progress-p.progress[e.Section] >= progressStep || (e.Progress >= 1 && p.progress[e.Section] < 1) {
			p.progress[e.Section] = e.Progress
			fmt.Fprintf(p.w, "[%s] downloading %3.0f%%\n", e.Section, e.Progress*100)
		}
	case lifter.Updated:
		fmt.Fprintf(p.w, "[%s] updated to %s\n", e.Section, e.Version)
	case lifter.CheckEnd:
		delete(p.progress, e.Section)
	case lifter.NoMoreWork:
		fmt.Fprintln(p.w, "all checks complete")
	}
}

func printSummary(w io.Writer, results []lifter.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No sections to check.")
		return
	}

	width := 0
	for _, r := range results {
		width = max(width, len(r.Section))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	for _, r := range results {
		status := r.Outcome.String()
		if r.Err != nil {
			status = "failed"
		}
		if r.Version != "" {
			fmt.Fprintf(w, "  %-*s  %s (%s)\n", width, r.Section, status, r.Version)
		} else {
			fmt.Fprintf(w, "  %-*s  %s\n", width, r.Section, status)
		}
	}
}
