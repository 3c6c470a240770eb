package correlate

import (
	"sort"
	"time"

	"jobcorr/src/ingest"
	"jobcorr/src/internal/common"
	"jobcorr/src/internal/errors"
	"jobcorr/src/utils/timestamp"
)

// Inputs are the three loaded streams
type Inputs struct {
	Started ingest.StartTimes
	Metrics *ingest.RequestMetrics
	Jobs    []ingest.JobRecord
}

// Options tune the join
type Options struct {
	// LegacyObjectIDJoin resolves a response end through the object_id label
	// when the correlation id has no request metric.
	LegacyObjectIDJoin bool
}

// Correlate joins jobs with start times and request metrics. Rows are sorted
// ascending by |delta_started_at_vs_event_ms|, ties keeping job order.
func Correlate(in Inputs, opts Options) Result {
	var res Result

	for i, job := range in.Jobs {
		id := job.CorrelationID
		if id == "" || job.ObjectID == "" || job.StartedAt == "" || job.FinishedAt == "" {
			res.Unmatched++
			continue
		}
		eventAt, ok := in.Started[id]
		if !ok {
			res.Unmatched++
			continue
		}

		row, err := correlateJob(i, job, eventAt, in.Metrics, opts)
		if err != nil {
			res.Skipped++
			common.IngestLogger.Debug("%v", err)
			continue
		}
		res.Rows = append(res.Rows, row)
	}

	sort.SliceStable(res.Rows, func(a, b int) bool {
		return abs64(res.Rows[a].DeltaStartedAtVsEventMs) < abs64(res.Rows[b].DeltaStartedAtVsEventMs)
	})
	return res
}

func correlateJob(i int, job ingest.JobRecord, eventAt time.Time, metrics *ingest.RequestMetrics, opts Options) (Row, error) {
	source := errors.SourceJobRecords
	objectAt, ok := timestamp.ParseCustom(job.ObjectID)
	if !ok {
		return Row{}, errors.NewRecordParseError(source, i+1, "object_id", job.ObjectID, nil)
	}
	startedAt, ok := timestamp.ParseISO(job.StartedAt)
	if !ok {
		return Row{}, errors.NewRecordParseError(source, i+1, "started_at", job.StartedAt, nil)
	}
	finishedAt, ok := timestamp.ParseISO(job.FinishedAt)
	if !ok {
		return Row{}, errors.NewRecordParseError(source, i+1, "finished_at", job.FinishedAt, nil)
	}

	row := Row{
		CorrelationID:              job.CorrelationID,
		DeltaStartedAtVsEventMs:    timestamp.DeltaMillis(startedAt, eventAt),
		DeltaObjectIDVsEventMs:     timestamp.DeltaMillis(objectAt, eventAt),
		DBDurationMs:               timestamp.DeltaMillis(finishedAt, startedAt),
		DeltaStartedAtVsObjectIDMs: timestamp.DeltaMillis(startedAt, objectAt),
		JobDurationMs:              job.JobDurationMs,
		Event:                      timestamp.FormatNaive(eventAt),
		ObjectID:                   timestamp.FormatNaive(objectAt),
		StartedAt:                  job.StartedAt,
		FinishedAt:                 job.FinishedAt,
		JobDuration:                job.JobDurationText(),
		Status:                     job.Status,
		Path:                       job.Path,
		JobUUID:                    job.JobUUID,
	}

	var (
		responseEnd time.Time
		haveEnd     bool
	)
	if rm, found := metrics.Lookup(job.CorrelationID); found {
		row.ResponseTimeMs = int64Ptr(rm.ResponseTimeMs)
		if rm.ResponseTimeMs >= 0 {
			row.DeltaRespVsDBMs = int64Ptr(rm.ResponseTimeMs - row.DBDurationMs)
		}
		responseEnd, haveEnd = rm.ResponseEnd(), true
	} else if opts.LegacyObjectIDJoin {
		if endMs, found := metrics.LookupObjectID(job.ObjectID); found {
			responseEnd, haveEnd = timestamp.FromEpochMillis(endMs), true
		}
	}

	if haveEnd {
		row.ResponseEnd = timestamp.FormatNaive(responseEnd)
		row.DeltaFinishedAtVsResponseEndMs = int64Ptr(timestamp.DeltaMillis(finishedAt, responseEnd))
		objectToEnd := timestamp.DeltaMillis(responseEnd, objectAt)
		row.DeltaObjectIDToResponseEndMs = int64Ptr(objectToEnd)
		if job.JobDurationMs != nil {
			row.DeltaJobDurationVsObjectToResponseEndMs = int64Ptr(*job.JobDurationMs - objectToEnd)
		}
	}
	return row, nil
}
