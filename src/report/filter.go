// Package report narrows correlated rows and renders them as HTML and CSV artifacts.
package report

import (
	"sort"

	"jobcorr/src/correlate"
)

// Stage is one pure step of the filter pipeline
type Stage func([]correlate.Row) []correlate.Row

// DeltaRange is an inclusive [Min, Max] bound in milliseconds
type DeltaRange struct {
	Min int64
	Max int64
}

// FilterOptions selects the optional stages. Zero values disable a stage.
type FilterOptions struct {
	Range            *DeltaRange
	AbsDeltaTop      int
	BucketMs         int64
	SamplesPerBucket int
	Limit            int
}

// sampleDelta is the value every filter stage keys on. The correlator always
// computes it, so no stage has a null case to drop.
func sampleDelta(r correlate.Row) int64 {
	return r.DeltaStartedAtVsObjectIDMs
}

// Pipeline returns the configured stages in their fixed order:
// range, top-N by magnitude, bucketed sampler, row limit.
func Pipeline(opts FilterOptions) []Stage {
	var stages []Stage
	if opts.Range != nil {
		stages = append(stages, RangeStage(*opts.Range))
	}
	if opts.AbsDeltaTop > 0 {
		stages = append(stages, TopStage(opts.AbsDeltaTop))
	}
	if opts.BucketMs > 0 {
		stages = append(stages, BucketStage(opts.BucketMs, opts.SamplesPerBucket))
	}
	if opts.Limit > 0 {
		stages = append(stages, LimitStage(opts.Limit))
	}
	return stages
}

// Apply runs the configured pipeline over a copy of rows
func Apply(rows []correlate.Row, opts FilterOptions) []correlate.Row {
	out := append([]correlate.Row(nil), rows...)
	for _, stage := range Pipeline(opts) {
		out = stage(out)
	}
	return out
}

// RangeStage keeps rows whose delta lies in r
func RangeStage(r DeltaRange) Stage {
	return func(rows []correlate.Row) []correlate.Row {
		out := make([]correlate.Row, 0, len(rows))
		for _, row := range rows {
			if d := sampleDelta(row); d >= r.Min && d <= r.Max {
				out = append(out, row)
			}
		}
		return out
	}
}

// TopStage keeps the n rows with the largest |delta|, largest first
func TopStage(n int) Stage {
	return func(rows []correlate.Row) []correlate.Row {
		out := append([]correlate.Row(nil), rows...)
		sort.SliceStable(out, func(i, j int) bool {
			return magnitude(out[i]) > magnitude(out[j])
		})
		if len(out) > n {
			out = out[:n]
		}
		return out
	}
}

func magnitude(r correlate.Row) int64 {
	d := sampleDelta(r)
	if d < 0 {
		return -d
	}
	return d
}

// BucketStage caps each width-ms bucket of delta values at perBucket rows
// (at least one) and flattens the buckets in ascending key order.
func BucketStage(width int64, perBucket int) Stage {
	if perBucket < 1 {
		perBucket = 1
	}
	return func(rows []correlate.Row) []correlate.Row {
		buckets := map[int64][]correlate.Row{}
		for _, row := range rows {
			key := BucketKey(sampleDelta(row), width)
			if len(buckets[key]) < perBucket {
				buckets[key] = append(buckets[key], row)
			}
		}

		keys := make([]int64, 0, len(buckets))
		for k := range buckets {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

		out := make([]correlate.Row, 0, len(rows))
		for _, k := range keys {
			out = append(out, buckets[k]...)
		}
		return out
	}
}

// BucketKey is floor(delta/width)*width, flooring toward negative infinity
func BucketKey(delta, width int64) int64 {
	q := delta / width
	if delta%width != 0 && (delta < 0) != (width < 0) {
		q--
	}
	return q * width
}

// LimitStage truncates to the first n rows
func LimitStage(n int) Stage {
	return func(rows []correlate.Row) []correlate.Row {
		if len(rows) > n {
			return rows[:n]
		}
		return rows
	}
}
