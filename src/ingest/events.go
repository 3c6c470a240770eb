package ingest

import (
	"os"
	"time"

	"jobcorr/src/internal/common"
	"jobcorr/src/internal/errors"
	"jobcorr/src/utils/timestamp"
)

// EventStarted is the lifecycle event type that marks a request start
const EventStarted = "STARTED"

// Event log columns are positional:
// event_type,event_date,event_time,status_code,duration_ms,request_id
const (
	colEventType = 0
	colEventDate = 1
	colEventTime = 2
	colEventID   = 5
	eventColumns = 6
)

// StartTimes maps correlation id to the request start time (UTC)
type StartTimes map[string]time.Time

// ReadStartedEvents loads STARTED events from an event log CSV.
// Later rows for the same id overwrite earlier ones. A missing file yields an
// empty map.
func ReadStartedEvents(path string) (StartTimes, ReadStats, error) {
	t, err := openTable(path)
	if os.IsNotExist(err) {
		common.IngestLogger.Debug("event log %s not found, no start times loaded", path)
		return StartTimes{}, ReadStats{Source: path}, nil
	}
	if err != nil {
		return nil, ReadStats{Source: path}, err
	}
	started, stats := startedFromTable(t)
	return started, stats, nil
}

func startedFromTable(t *table) (StartTimes, ReadStats) {
	started := StartTimes{}
	stats := ReadStats{Source: t.source}

	for i, row := range t.rows {
		stats.Rows++
		if len(row) < eventColumns || row[colEventType] != EventStarted {
			continue
		}
		at, ok := timestamp.ParseDateTime(row[colEventDate], row[colEventTime])
		if !ok {
			stats.Skipped++
			common.IngestLogger.Debug("%v", errors.NewRecordParseError(t.source, rowNumber(i), "event_time", row[colEventDate]+" "+row[colEventTime], nil))
			continue
		}
		started[row[colEventID]] = at
		stats.Kept++
	}
	return started, stats
}
