package report

import (
	"time"

	"github.com/codahale/hdrhistogram"
	"github.com/google/uuid"

	"jobcorr/src/correlate"
)

// histogramMaxMs bounds the |delta| histogram; larger values are counted as out of range
const histogramMaxMs = int64(24 * time.Hour / time.Millisecond)

// Distribution summarizes |delta| for one delta column
type Distribution struct {
	Column     string
	Count      int64
	P50        int64
	P90        int64
	P99        int64
	Max        int64
	OutOfRange int
}

// Summary is the headline of a run, shown on stdout and in the HTML page
type Summary struct {
	Matched         int
	Valid           int
	WithResponseEnd int
	Unmatched       int
	Skipped         int
	NonUUIDIDs      int
	Filtered        int
	Distributions   []Distribution
}

// NoValidRows reports that the report falls back to rows with gaps
func (s Summary) NoValidRows() bool {
	return s.Valid == 0
}

type deltaAccessor struct {
	column string
	get    func(correlate.Row) *int64
}

var primaryDeltas = []deltaAccessor{
	{correlate.ColDeltaStartedAtVsObjectIDMs, func(r correlate.Row) *int64 {
		v := r.DeltaStartedAtVsObjectIDMs
		return &v
	}},
	{correlate.ColDeltaFinishedAtVsResponseEndMs, func(r correlate.Row) *int64 {
		return r.DeltaFinishedAtVsResponseEndMs
	}},
	{correlate.ColDeltaJobDurationVsObjectToResponseEndMs, func(r correlate.Row) *int64 {
		return r.DeltaJobDurationVsObjectToResponseEndMs
	}},
}

// Summarize builds the run summary. Distributions cover the preferred row set.
func Summarize(res correlate.Result, filtered []correlate.Row) Summary {
	s := Summary{
		Matched:         len(res.Rows),
		Valid:           len(res.ValidRows()),
		WithResponseEnd: res.WithResponseEnd(),
		Unmatched:       res.Unmatched,
		Skipped:         res.Skipped,
		Filtered:        len(filtered),
	}
	for _, row := range res.Rows {
		if _, err := uuid.Parse(row.CorrelationID); err != nil {
			s.NonUUIDIDs++
		}
	}
	preferred := res.Preferred()
	for _, acc := range primaryDeltas {
		s.Distributions = append(s.Distributions, distribution(acc, preferred))
	}
	return s
}

func distribution(acc deltaAccessor, rows []correlate.Row) Distribution {
	d := Distribution{Column: acc.column}
	h := hdrhistogram.New(0, histogramMaxMs, 3)
	for _, row := range rows {
		v := acc.get(row)
		if v == nil {
			continue
		}
		mag := *v
		if mag < 0 {
			mag = -mag
		}
		if err := h.RecordValue(mag); err != nil {
			d.OutOfRange++
		}
	}
	d.Count = h.TotalCount()
	if d.Count == 0 {
		return d
	}
	d.P50 = h.ValueAtQuantile(50)
	d.P90 = h.ValueAtQuantile(90)
	d.P99 = h.ValueAtQuantile(99)
	d.Max = h.Max()
	return d
}
