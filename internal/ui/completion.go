package ui

import (
	"fmt"

	"github.com/bamsammich/snapdiff/internal/stats"
)

// completionSummary builds the line printed once both crawls finish.
// Format: found 48,917 items in source and 48,002 in destination in 3s
func completionSummary(snap stats.Snapshot) string {
	return fmt.Sprintf("found %s items in source and %s in destination in %s",
		FormatCount(snap.Source.Items),
		FormatCount(snap.Dest.Items),
		FormatDuration(snap.Elapsed),
	)
}

// progressLine renders the live counters.
// Format: source: 1,204 items | destination: 980 items | 3s
func progressLine(snap stats.Snapshot) string {
	return fmt.Sprintf("source: %s items | destination: %s items | %s",
		FormatCount(snap.Source.Items),
		FormatCount(snap.Dest.Items),
		FormatDuration(snap.Elapsed),
	)
}
