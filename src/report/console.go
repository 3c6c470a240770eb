package report

import (
	"fmt"
	"io"
	"strings"

	"jobcorr/src/correlate"
)

// ConsolePreviewRows is how many rows the running summary prints
const ConsolePreviewRows = 20

var consoleColumns = []string{
	correlate.ColRequestID,
	correlate.ColDeltaStartedAtVsObjectIDMs,
	correlate.ColDeltaFinishedAtVsResponseEndMs,
	correlate.ColDeltaJobDurationVsObjectToResponseEndMs,
	correlate.ColLocustResponseTimeMs,
	correlate.ColDBDurationMs,
	correlate.ColDeltaRespVsDBMs,
	correlate.ColEvent,
	correlate.ColObjectID,
	correlate.ColStartedAt,
	correlate.ColFinishedAt,
}

// PrintSummary writes the running summary: counts, then the first rows in correlation order
func PrintSummary(w io.Writer, s Summary, rows []correlate.Row) {
	fmt.Fprintf(w, "matched=%d | valid=%d | with_response_end=%d | unmatched=%d | skipped=%d\n",
		s.Matched, s.Valid, s.WithResponseEnd, s.Unmatched, s.Skipped)
	if s.NonUUIDIDs > 0 {
		fmt.Fprintf(w, "note: %d correlation ids are not UUIDs\n", s.NonUUIDIDs)
	}

	for i, row := range rows {
		if i >= ConsolePreviewRows {
			break
		}
		parts := make([]string, 0, len(consoleColumns))
		for _, col := range consoleColumns {
			v := row.Field(col)
			if v == "" {
				v = "null"
			}
			parts = append(parts, col+"="+v)
		}
		fmt.Fprintln(w, strings.Join(parts, " | "))
	}

	for _, d := range s.Distributions {
		if d.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "|%s|: n=%d p50=%d p90=%d p99=%d max=%d\n", d.Column, d.Count, d.P50, d.P90, d.P99, d.Max)
	}
}
