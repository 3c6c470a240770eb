package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"jobcorr/src/internal/common"
	"jobcorr/src/internal/errors"
	"jobcorr/src/utils/timestamp"
)

// Request metrics header names
const (
	ColRequestID      = "request_id"
	ColResponseTimeMs = "response_time_ms"
	ColTimestampStart = "timestamp_start_ms"
	ColTimestampEnd   = "timestamp_end_ms"
)

// RequestMetric is one client-observed HTTP exchange
type RequestMetric struct {
	CorrelationID  string
	ResponseTimeMs int64
	StartEpochMs   int64
	HasStart       bool
	EndEpochMs     int64
}

// ResponseEnd returns the end of the exchange as a UTC time
func (m RequestMetric) ResponseEnd() time.Time {
	return timestamp.FromEpochMillis(m.EndEpochMs)
}

// RequestMetrics indexes metrics by correlation id, plus the legacy
// object_id-shaped label derived from each start epoch.
type RequestMetrics struct {
	ByID          map[string]RequestMetric
	EndByObjectID map[string]int64
}

func newRequestMetrics() *RequestMetrics {
	return &RequestMetrics{
		ByID:          map[string]RequestMetric{},
		EndByObjectID: map[string]int64{},
	}
}

// Len returns the number of metrics keyed by correlation id
func (m *RequestMetrics) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ByID)
}

// Lookup returns the metric for id
func (m *RequestMetrics) Lookup(id string) (RequestMetric, bool) {
	if m == nil {
		return RequestMetric{}, false
	}
	rm, ok := m.ByID[id]
	return rm, ok
}

// LookupObjectID resolves a response end epoch through the legacy label join.
// The label matches with or without its trailing "Z".
func (m *RequestMetrics) LookupObjectID(label string) (int64, bool) {
	if m == nil || label == "" {
		return 0, false
	}
	label = strings.TrimSpace(label)
	if end, ok := m.EndByObjectID[label]; ok {
		return end, true
	}
	end, ok := m.EndByObjectID[strings.TrimRight(label, "Z")+"Z"]
	return end, ok
}

// StartTimes derives a start map from every metric that carries a start epoch
func (m *RequestMetrics) StartTimes() StartTimes {
	started := StartTimes{}
	if m == nil {
		return started
	}
	for id, rm := range m.ByID {
		if rm.HasStart {
			started[id] = timestamp.FromEpochMillis(rm.StartEpochMs)
		}
	}
	return started
}

// ReadRequestMetrics loads request timing rows. When allow is non-empty only
// those correlation ids are kept.
func ReadRequestMetrics(path string, allow IDSet) (*RequestMetrics, ReadStats, error) {
	t, err := openTable(path)
	if err != nil {
		return nil, ReadStats{Source: path}, err
	}
	metrics, stats := metricsFromTable(t, allow)
	return metrics, stats, nil
}

func metricsFromTable(t *table, allow IDSet) (*RequestMetrics, ReadStats) {
	metrics := newRequestMetrics()
	stats := ReadStats{Source: t.source}

	if !t.has(ColRequestID, ColResponseTimeMs, ColTimestampEnd) {
		common.IngestLogger.Warn("%s lacks %s/%s/%s columns; no request metrics loaded",
			t.source, ColRequestID, ColResponseTimeMs, ColTimestampEnd)
		stats.Rows = len(t.rows)
		return metrics, stats
	}
	hasStart := t.has(ColTimestampStart)

	for i, row := range t.rows {
		stats.Rows++
		id := t.get(row, ColRequestID)
		if id == "" || !allow.Allows(id) {
			continue
		}

		resp, err := parseEpochish(t.get(row, ColResponseTimeMs))
		if err != nil {
			skipRow(&stats, t.source, i, ColResponseTimeMs, t.get(row, ColResponseTimeMs), err)
			continue
		}
		end, err := parseEpochish(t.get(row, ColTimestampEnd))
		if err != nil {
			skipRow(&stats, t.source, i, ColTimestampEnd, t.get(row, ColTimestampEnd), err)
			continue
		}
		rm := RequestMetric{CorrelationID: id, ResponseTimeMs: resp, EndEpochMs: end}
		if hasStart {
			start, err := parseEpochish(t.get(row, ColTimestampStart))
			if err != nil {
				skipRow(&stats, t.source, i, ColTimestampStart, t.get(row, ColTimestampStart), err)
				continue
			}
			rm.StartEpochMs, rm.HasStart = start, true
			metrics.EndByObjectID[timestamp.FormatObjectID(timestamp.FromEpochMillis(start))] = end
		}

		metrics.ByID[id] = rm
		stats.Kept++
	}
	return metrics, stats
}

// parseEpochish accepts integer or float text and truncates toward zero
func parseEpochish(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return int64(f), nil
}

func skipRow(stats *ReadStats, source string, i int, field, value string, cause error) {
	stats.Skipped++
	common.IngestLogger.Debug("%v", errors.NewRecordParseError(source, rowNumber(i), field, value, cause))
}
