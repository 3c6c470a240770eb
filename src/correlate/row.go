// Package correlate joins event, request-metric and job streams by
// correlation id and computes the pairwise clock deltas.
package correlate

// Row is one correlated request. Optional deltas are nil when an operand is
// missing; the raw timestamp text used for each delta is kept for the report.
type Row struct {
	CorrelationID string

	DeltaStartedAtVsEventMs    int64
	DeltaObjectIDVsEventMs     int64
	DBDurationMs               int64
	DeltaStartedAtVsObjectIDMs int64

	ResponseTimeMs                          *int64
	DeltaRespVsDBMs                         *int64
	DeltaFinishedAtVsResponseEndMs          *int64
	DeltaObjectIDToResponseEndMs            *int64
	DeltaJobDurationVsObjectToResponseEndMs *int64
	JobDurationMs                           *int64

	Event       string
	ObjectID    string
	StartedAt   string
	FinishedAt  string
	ResponseEnd string
	JobDuration string
	Status      string
	Path        string
	JobUUID     string
}

// Valid reports whether every response-end dependent delta was computable
func (r Row) Valid() bool {
	return r.DeltaFinishedAtVsResponseEndMs != nil &&
		r.DeltaObjectIDToResponseEndMs != nil &&
		r.DeltaJobDurationVsObjectToResponseEndMs != nil
}

// Result is the sorted output of one correlation pass
type Result struct {
	Rows      []Row
	Unmatched int // jobs missing a key field or a start time
	Skipped   int // jobs dropped on an unparseable timestamp
}

// ValidRows returns the rows for which Valid holds, in order
func (r Result) ValidRows() []Row {
	out := make([]Row, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.Valid() {
			out = append(out, row)
		}
	}
	return out
}

// Preferred returns the valid rows, or every row when none are valid
func (r Result) Preferred() []Row {
	if valid := r.ValidRows(); len(valid) > 0 {
		return valid
	}
	return r.Rows
}

// WithResponseEnd counts rows that have a response end time
func (r Result) WithResponseEnd() int {
	n := 0
	for _, row := range r.Rows {
		if row.DeltaFinishedAtVsResponseEndMs != nil {
			n++
		}
	}
	return n
}

func int64Ptr(v int64) *int64 {
	return &v
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
