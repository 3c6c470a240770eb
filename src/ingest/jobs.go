package ingest

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"

	"jobcorr/src/internal/common"
	"jobcorr/src/internal/errors"
)

// Job record field names, shared by the CSV capture header and the JSON document
const (
	FieldRequestID     = "request_id"
	FieldObjectID      = "object_id"
	FieldStatus        = "status"
	FieldPath          = "path"
	FieldStartedAt     = "started_at"
	FieldFinishedAt    = "finished_at"
	FieldJobDuration   = "job_duration"
	FieldJobUUID       = "job_uuid"
	aliasCorrelationID = "correlation_id"
	aliasJobDurationMs = "job_duration_ms"
)

// JobRecord is one server-reported job completion in canonical shape.
// StartedAt and FinishedAt keep their source text; they are parsed during correlation.
type JobRecord struct {
	CorrelationID  string
	ObjectID       string
	Status         string
	Path           string
	StartedAt      string
	FinishedAt     string
	JobDurationMs  *int64
	JobDurationRaw string
	JobUUID        string
}

// JobDurationText renders job_duration the way the report shows it: the
// coerced integer when there is one, otherwise the source text.
func (j JobRecord) JobDurationText() string {
	if j.JobDurationMs != nil {
		return strconv.FormatInt(*j.JobDurationMs, 10)
	}
	return j.JobDurationRaw
}

// coerceDuration turns numeric-looking text into milliseconds
func coerceDuration(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &v
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == math.Trunc(f) && fitsInt64(f) {
		v := int64(f)
		return &v
	}
	return nil
}

// fitsInt64 reports whether f lies in [-2^63, 2^63); conversion outside it is undefined
func fitsInt64(f float64) bool {
	const bound = float64(1 << 63)
	return f >= -bound && f < bound
}

// ReadJobsCSV loads a jobs_from_responses capture. The returned IDSet holds
// every correlation id seen in the capture.
func ReadJobsCSV(path string) ([]JobRecord, IDSet, ReadStats, error) {
	t, err := openTable(path)
	if err != nil {
		return nil, nil, ReadStats{Source: path}, err
	}
	jobs, ids, stats := jobsFromTable(t)
	return jobs, ids, stats, nil
}

func jobsFromTable(t *table) ([]JobRecord, IDSet, ReadStats) {
	stats := ReadStats{Source: t.source}
	ids := IDSet{}
	jobs := make([]JobRecord, 0, len(t.rows))

	for _, row := range t.rows {
		stats.Rows++
		if len(row) == 0 {
			continue
		}
		raw := t.get(row, FieldJobDuration)
		job := JobRecord{
			CorrelationID:  t.get(row, FieldRequestID),
			ObjectID:       t.get(row, FieldObjectID),
			Status:         t.get(row, FieldStatus),
			Path:           t.get(row, FieldPath),
			StartedAt:      t.get(row, FieldStartedAt),
			FinishedAt:     t.get(row, FieldFinishedAt),
			JobDurationMs:  coerceDuration(raw),
			JobDurationRaw: raw,
			JobUUID:        t.get(row, FieldJobUUID),
		}
		if job.CorrelationID != "" {
			ids[job.CorrelationID] = struct{}{}
		}
		jobs = append(jobs, job)
		stats.Kept++
	}
	return jobs, ids, stats
}

// ReadJobsJSON loads a jobs document: an object with an "items" array, a
// top-level array, or text with an array embedded after leading noise.
func ReadJobsJSON(path string) ([]JobRecord, ReadStats, error) {
	data, err := common.SafeReadFile(path)
	if err != nil {
		return nil, ReadStats{Source: path}, err
	}
	jobs, stats := ParseJobsJSON(data, path)
	return jobs, stats, nil
}

// ParseJobsJSON normalizes a jobs document. Elements that are not objects are skipped.
func ParseJobsJSON(data []byte, source string) ([]JobRecord, ReadStats) {
	stats := ReadStats{Source: source}

	var p fastjson.Parser
	items := locateItems(&p, data)
	if items == nil {
		common.IngestLogger.Warn("%s: no job array found", source)
		return nil, stats
	}

	jobs := make([]JobRecord, 0, len(items))
	for i, item := range items {
		stats.Rows++
		if item.Type() != fastjson.TypeObject {
			stats.Skipped++
			common.IngestLogger.Debug("%v", errors.NewRecordParseError(source, i+1, "object", item.Type().String(), nil))
			continue
		}
		raw := textField(item, FieldJobDuration, aliasJobDurationMs)
		jobs = append(jobs, JobRecord{
			CorrelationID:  textField(item, FieldRequestID, aliasCorrelationID),
			ObjectID:       textField(item, FieldObjectID),
			Status:         textField(item, FieldStatus),
			Path:           textField(item, FieldPath),
			StartedAt:      textField(item, FieldStartedAt),
			FinishedAt:     textField(item, FieldFinishedAt),
			JobDurationMs:  coerceDuration(raw),
			JobDurationRaw: raw,
			JobUUID:        textField(item, FieldJobUUID),
		})
		stats.Kept++
	}
	return jobs, stats
}

// locateItems returns the job array, or nil when none can be found
func locateItems(p *fastjson.Parser, data []byte) []*fastjson.Value {
	if v, err := p.ParseBytes(data); err == nil {
		switch v.Type() {
		case fastjson.TypeObject:
			if items := v.Get("items"); items != nil && items.Type() == fastjson.TypeArray {
				arr, _ := items.Array()
				return arr
			}
		case fastjson.TypeArray:
			arr, _ := v.Array()
			return arr
		}
	}

	// Pretty-printed API dumps may carry log noise around the array.
	start := bytes.IndexByte(data, '[')
	end := bytes.LastIndexByte(data, ']')
	if start == -1 || end <= start {
		return nil
	}
	v, err := p.ParseBytes(data[start : end+1])
	if err != nil || v.Type() != fastjson.TypeArray {
		return nil
	}
	arr, _ := v.Array()
	return arr
}

// textField returns the first present, non-null key as text
func textField(obj *fastjson.Value, keys ...string) string {
	for _, key := range keys {
		f := obj.Get(key)
		if f == nil || f.Type() == fastjson.TypeNull {
			continue
		}
		switch f.Type() {
		case fastjson.TypeString:
			return strings.TrimSpace(string(f.GetStringBytes()))
		case fastjson.TypeTrue:
			return "true"
		case fastjson.TypeFalse:
			return "false"
		default:
			return f.String()
		}
	}
	return ""
}
