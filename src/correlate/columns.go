package correlate

import "strconv"

// Column names
const (
	ColRequestID                               = "request_id"
	ColDeltaStartedAtVsEventMs                 = "delta_started_at_vs_event_ms"
	ColDeltaObjectIDVsEventMs                  = "delta_object_id_vs_event_ms"
	ColLocustResponseTimeMs                    = "locust_response_time_ms"
	ColDBDurationMs                            = "db_duration_ms"
	ColDeltaRespVsDBMs                         = "delta_resp_vs_db_ms"
	ColDeltaStartedAtVsObjectIDMs              = "delta_started_at_vs_object_id_ms"
	ColDeltaFinishedAtVsResponseEndMs          = "delta_finished_at_vs_response_end_ms"
	ColDeltaObjectIDToResponseEndMs            = "delta_object_id_to_response_end_ms"
	ColDeltaJobDurationVsObjectToResponseEndMs = "delta_job_duration_vs_object_to_response_end_ms"
	ColEvent                                   = "event"
	ColObjectID                                = "object_id"
	ColStartedAt                               = "started_at"
	ColFinishedAt                              = "finished_at"
	ColResponseEnd                             = "response_end"
	ColJobDuration                             = "job_duration"
	ColStatus                                  = "status"
	ColPath                                    = "path"
	ColJobUUID                                 = "job_uuid"
)

// missingResponseTime is written to locust_response_time_ms when no request metric exists
const missingResponseTime = "-1"

// DefaultColumns is the table and filtered-CSV column set when none is configured
var DefaultColumns = []string{
	ColRequestID,
	ColDeltaStartedAtVsObjectIDMs,
	ColDeltaFinishedAtVsResponseEndMs,
	ColDeltaJobDurationVsObjectToResponseEndMs,
	ColStartedAt,
	ColObjectID,
	ColFinishedAt,
	ColResponseEnd,
	ColJobDuration,
}

// FullColumns is the fixed schema of the full CSV export
var FullColumns = []string{
	ColRequestID,
	ColDeltaStartedAtVsObjectIDMs,
	ColDeltaFinishedAtVsResponseEndMs,
	ColDeltaJobDurationVsObjectToResponseEndMs,
	ColLocustResponseTimeMs,
	ColDBDurationMs,
	ColDeltaRespVsDBMs,
	ColStartedAt,
	ColObjectID,
	ColFinishedAt,
	ColResponseEnd,
	ColJobDuration,
}

var fields = map[string]func(Row) string{
	ColRequestID:                      func(r Row) string { return r.CorrelationID },
	ColDeltaStartedAtVsEventMs:        func(r Row) string { return itoa(r.DeltaStartedAtVsEventMs) },
	ColDeltaObjectIDVsEventMs:         func(r Row) string { return itoa(r.DeltaObjectIDVsEventMs) },
	ColDBDurationMs:                   func(r Row) string { return itoa(r.DBDurationMs) },
	ColDeltaStartedAtVsObjectIDMs:     func(r Row) string { return itoa(r.DeltaStartedAtVsObjectIDMs) },
	ColDeltaRespVsDBMs:                func(r Row) string { return optional(r.DeltaRespVsDBMs) },
	ColDeltaFinishedAtVsResponseEndMs: func(r Row) string { return optional(r.DeltaFinishedAtVsResponseEndMs) },
	ColDeltaObjectIDToResponseEndMs:   func(r Row) string { return optional(r.DeltaObjectIDToResponseEndMs) },
	ColDeltaJobDurationVsObjectToResponseEndMs: func(r Row) string {
		return optional(r.DeltaJobDurationVsObjectToResponseEndMs)
	},
	ColLocustResponseTimeMs: func(r Row) string {
		if r.ResponseTimeMs == nil {
			return missingResponseTime
		}
		return itoa(*r.ResponseTimeMs)
	},
	ColEvent:       func(r Row) string { return r.Event },
	ColObjectID:    func(r Row) string { return r.ObjectID },
	ColStartedAt:   func(r Row) string { return r.StartedAt },
	ColFinishedAt:  func(r Row) string { return r.FinishedAt },
	ColResponseEnd: func(r Row) string { return r.ResponseEnd },
	ColJobDuration: func(r Row) string { return r.JobDuration },
	ColStatus:      func(r Row) string { return r.Status },
	ColPath:        func(r Row) string { return r.Path },
	ColJobUUID:     func(r Row) string { return r.JobUUID },
}

// KnownColumn reports whether name is a column Field can render
func KnownColumn(name string) bool {
	_, ok := fields[name]
	return ok
}

// Field renders one column of r as report text. Null values and unknown
// columns render empty.
func (r Row) Field(name string) string {
	if fn, ok := fields[name]; ok {
		return fn(r)
	}
	return ""
}

// Record renders r for the given columns
func (r Row) Record(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = r.Field(c)
	}
	return out
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func optional(v *int64) string {
	if v == nil {
		return ""
	}
	return itoa(*v)
}
