// Package report models the outcome of a batch scan and serializes it into
// the keyword matrix document plus optional Markdown and HTML summaries.
package report

import (
	"time"

	"github.com/wudi/ocrgrep/match"
)

// Entry is the outcome row for one successfully recognized image.
type Entry struct {
	// Case is the image file name, serialized into the first column.
	Case string
	// Statuses records, per configured keyword, whether it was found.
	Statuses match.Statuses
	// Confidence is the mean word confidence reported by the engine, in
	// [0, 1]. Zero when the engine produced no word-level data.
	Confidence float64
	// Verdict is the optional rule verdict for this image. It appears in the
	// Markdown and HTML summaries only, never in the matrix document.
	Verdict string
}

// Failure records an image that could not be recognized. Failed images are
// excluded from the matrix document but kept here for the summary.
type Failure struct {
	Case   string
	Reason string
}

// Totals aggregates a run. Checks counts every attempted image against every
// configured keyword, so failed images still contribute to the denominator.
type Totals struct {
	// Images is the number of supported image files attempted.
	Images int
	// Checks is Images multiplied by the configured keyword count.
	Checks int
	// Matches is the number of found statuses across successful images.
	Matches int
	// Succeeded and Failed partition the attempted images.
	Succeeded int
	Failed    int
	// Duplicates counts files whose bytes matched an earlier file.
	Duplicates int
}

// AverageMatchPercent is 100 * Matches / Checks, or 0 when no checks ran
// (empty directory or empty keyword list).
func (t Totals) AverageMatchPercent() float64 {
	if t.Checks == 0 {
		return 0
	}
	return 100 * float64(t.Matches) / float64(t.Checks)
}

// Summary is the full record of one batch run.
type Summary struct {
	RunID      string
	SourceDir  string
	OutputFile string
	EngineName string
	// Keywords preserves the configured order; serializers iterate it rather
	// than the per-entry maps.
	Keywords  []string
	StartedAt time.Time
	Elapsed   time.Duration
	// Entries holds successful images in directory listing order.
	Entries  []Entry
	Failures []Failure
	Totals   Totals
}
