package pipeline

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobcorr/src/config"
	"jobcorr/src/correlate"
	"jobcorr/src/internal/errors"
	"jobcorr/src/report"
)

const (
	eventsFixture = "event_type,event_date,event_time,status_code,duration_ms,request_id\n" +
		"STARTED,01.01.2024,12:00:00.00000,,,r1\n"
	jobsFixture = "request_id,object_id,status,path,started_at,finished_at,job_duration,job_uuid\n" +
		"r1,01.01.2024 12:00:00.00000Z,ok,p,2024-01-01T12:00:00.100+00:00,2024-01-01T12:00:00.600+00:00,500,u1\n"
	requestsHeader = "request_id,response_time_ms,timestamp_start_ms,timestamp_end_ms,timestamp_start_iso,timestamp_end_iso,method,name,path,status_code,success,exception\n"
)

var scenarioStartMs = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).UnixMilli()

func requestsFixture() string {
	start := strconv.FormatInt(scenarioStartMs, 10)
	end := strconv.FormatInt(scenarioStartMs+500, 10)
	return requestsHeader + "r1,500," + start + "," + end + ",,,POST,bps,/bps,200,True,\n"
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func scenarioBase(t *testing.T, withEvents bool) string {
	t.Helper()
	base := t.TempDir()
	logs := filepath.Join(base, config.DefaultLogsDir)
	if withEvents {
		writeFixture(t, filepath.Join(logs, EventLogFile), eventsFixture)
	}
	writeFixture(t, filepath.Join(logs, RequestsFile), requestsFixture())
	writeFixture(t, filepath.Join(logs, JobsCSVFile), jobsFixture)
	return base
}

func scenarioConfig(base, reportDir string) *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.BaseDir = base
	cfg.ReportDir = reportDir
	return cfg
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRunEndToEndScenario(t *testing.T) {
	base := scenarioBase(t, true)
	reportDir := filepath.Join(t.TempDir(), "out")

	var stdout bytes.Buffer
	outcome, err := Run(scenarioConfig(base, reportDir), &stdout)
	require.NoError(t, err)

	assert.Equal(t, reportDir, outcome.ReportDir)
	require.Len(t, outcome.Result.Rows, 1)
	row := outcome.Result.Rows[0]
	assert.Equal(t, int64(100), row.DeltaStartedAtVsObjectIDMs)
	assert.Equal(t, int64(100), row.DeltaStartedAtVsEventMs)
	assert.Equal(t, "2024-01-01 12:00:00.500000", row.ResponseEnd)
	assert.True(t, row.Valid())

	full := readCSV(t, outcome.Artifacts.FullCSV)
	require.Len(t, full, 2)
	assert.Equal(t, correlate.FullColumns, full[0])
	assert.Equal(t, []string{
		"r1", "100", "100", "0", "500", "500", "0",
		"2024-01-01T12:00:00.100+00:00", "2024-01-01 12:00:00",
		"2024-01-01T12:00:00.600+00:00", "2024-01-01 12:00:00.500000", "500",
	}, full[1])

	assert.FileExists(t, filepath.Join(reportDir, report.HTMLReportFile))
	assert.FileExists(t, filepath.Join(reportDir, report.FilteredCSVFile))

	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "matched=1 | valid=1 | with_response_end=1"))
	assert.Contains(t, out, "request_id=r1")
	assert.Contains(t, out, "Report directory: "+reportDir)
}

func TestRunWithoutEventLogDerivesStartTimes(t *testing.T) {
	withEvents, err := Run(scenarioConfig(scenarioBase(t, true), t.TempDir()), &bytes.Buffer{})
	require.NoError(t, err)
	derived, err := Run(scenarioConfig(scenarioBase(t, false), t.TempDir()), &bytes.Buffer{})
	require.NoError(t, err)

	assert.Empty(t, derived.Sources.EventLog)
	require.Len(t, derived.Result.Rows, 1)
	assert.Equal(t, withEvents.Result.Rows[0].DeltaStartedAtVsEventMs, derived.Result.Rows[0].DeltaStartedAtVsEventMs)
	assert.Equal(t, withEvents.Result.Rows, derived.Result.Rows)
}

func TestRunDerivedStartsIgnoreRestrictionWhenEmpty(t *testing.T) {
	base := t.TempDir()
	logs := filepath.Join(base, config.DefaultLogsDir)
	writeFixture(t, filepath.Join(logs, RequestsFile), requestsFixture())
	// the capture names no id present in requests.csv
	writeFixture(t, filepath.Join(logs, JobsCSVFile), strings.ReplaceAll(jobsFixture, "r1,", "r9,"))

	src, err := ResolveSources(base, config.DefaultLogsDir, "")
	require.NoError(t, err)
	in, err := load(src)
	require.NoError(t, err)

	assert.Equal(t, 0, in.Metrics.Len())
	assert.Contains(t, in.Started, "r1")
}

func TestRunWithoutJobSource(t *testing.T) {
	base := t.TempDir()
	writeFixture(t, filepath.Join(base, config.DefaultLogsDir, RequestsFile), requestsFixture())

	_, err := Run(scenarioConfig(base, t.TempDir()), &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsMissingSourceError(err))
	assert.Equal(t, errors.ExitNoJobSource, errors.ExitCode(err))
	assert.Contains(t, err.Error(), JobsJSONFile)
}

func TestRunFallsBackToJobsJSON(t *testing.T) {
	base := t.TempDir()
	logs := filepath.Join(base, config.DefaultLogsDir)
	writeFixture(t, filepath.Join(logs, EventLogFile), eventsFixture)
	writeFixture(t, filepath.Join(logs, RequestsFile), requestsFixture())
	writeFixture(t, filepath.Join(base, JobsJSONFile), `noise {"items": [{"request_id": "r1",
		"object_id": "01.01.2024 12:00:00.00000Z", "status": "ok", "path": "p",
		"started_at": "2024-01-01T12:00:00.100+00:00", "finished_at": "2024-01-01T12:00:00.600+00:00",
		"job_duration": 500, "job_uuid": "u1"}, 42]}`)

	outcome, err := Run(scenarioConfig(base, t.TempDir()), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, outcome.Sources.JobsCSV)
	require.Len(t, outcome.Result.Rows, 1)
	require.NotNil(t, outcome.Result.Rows[0].DeltaJobDurationVsObjectToResponseEndMs)
	assert.Equal(t, int64(0), *outcome.Result.Rows[0].DeltaJobDurationVsObjectToResponseEndMs)
}

func TestRunCreatesTimestampedReportDir(t *testing.T) {
	fixed := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	base := scenarioBase(t, true)
	outcome, err := Run(scenarioConfig(base, ""), &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, ReportsDirectory, "20240304_050607"), outcome.ReportDir)
	assert.DirExists(t, outcome.ReportDir)
}

func TestRunAppliesFilters(t *testing.T) {
	base := t.TempDir()
	logs := filepath.Join(base, config.DefaultLogsDir)

	var events, requests, jobs strings.Builder
	events.WriteString("event_type,event_date,event_time,status_code,duration_ms,request_id\n")
	requests.WriteString(requestsHeader)
	jobs.WriteString("request_id,object_id,status,path,started_at,finished_at,job_duration,job_uuid\n")
	for i := 0; i < 40; i++ {
		id := "r" + strconv.Itoa(i)
		start := time.Date(2024, 1, 1, 12, 0, i, 0, time.UTC)
		startedAt := start.Add(time.Duration(i*7) * time.Millisecond)
		events.WriteString("STARTED," + start.Format("02.01.2006,15:04:05.00000") + ",,," + id + "\n")
		startMs := strconv.FormatInt(start.UnixMilli(), 10)
		endMs := strconv.FormatInt(start.UnixMilli()+300, 10)
		requests.WriteString(id + ",300," + startMs + "," + endMs + ",,,POST,bps,/bps,200,True,\n")
		jobs.WriteString(id + "," + start.Format("02.01.2006 15:04:05.00000Z") + ",ok,p," +
			startedAt.Format("2006-01-02T15:04:05.000-07:00") + "," +
			start.Add(400*time.Millisecond).Format("2006-01-02T15:04:05.000-07:00") + ",300,u\n")
	}
	writeFixture(t, filepath.Join(logs, EventLogFile), events.String())
	writeFixture(t, filepath.Join(logs, RequestsFile), requests.String())
	writeFixture(t, filepath.Join(logs, JobsCSVFile), jobs.String())

	cfg := scenarioConfig(base, t.TempDir())
	cfg.Filters.BucketMs = 50
	cfg.Filters.SamplesPerBucket = 2
	cfg.Filters.Limit = 9

	outcome, err := Run(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.Len(t, outcome.Result.Rows, 40)
	assert.Len(t, outcome.Filtered, 9)

	counts := map[int64]int{}
	for _, row := range outcome.Filtered {
		counts[report.BucketKey(row.DeltaStartedAtVsObjectIDMs, 50)]++
	}
	for key, n := range counts {
		assert.LessOrEqual(t, n, 2, "bucket %d", key)
	}
	assert.Len(t, readCSV(t, outcome.Artifacts.FilteredCSV), 10)
	assert.Len(t, readCSV(t, outcome.Artifacts.FullCSV), 41)
}

func TestRunFullCSVIsIdempotent(t *testing.T) {
	base := scenarioBase(t, true)
	var outputs [][]byte
	for i := 0; i < 2; i++ {
		outcome, err := Run(scenarioConfig(base, t.TempDir()), &bytes.Buffer{})
		require.NoError(t, err)
		data, err := os.ReadFile(outcome.Artifacts.FullCSV)
		require.NoError(t, err)
		outputs = append(outputs, data)
	}
	assert.Equal(t, outputs[0], outputs[1])
}

func TestRunRejectsMissingBaseDir(t *testing.T) {
	_, err := Run(scenarioConfig(filepath.Join(t.TempDir(), "absent"), ""), &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, errors.ExitRunFailure, errors.ExitCode(err))
}

func TestResolveSources(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "load")
	logs := filepath.Join(base, config.DefaultLogsDir)
	old := time.Now().Add(-time.Hour)

	t.Run("event log candidates in order", func(t *testing.T) {
		writeFixture(t, filepath.Join(logs, EventLogAltFile), eventsFixture)
		writeFixture(t, filepath.Join(logs, EventLogLegacy), eventsFixture)
		writeFixture(t, filepath.Join(root, config.DefaultLogsDir, JobsCSVFile), jobsFixture)

		src, err := ResolveSources(base, config.DefaultLogsDir, "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(logs, EventLogAltFile), src.EventLog)
	})

	t.Run("parent logs directory fallback", func(t *testing.T) {
		src, err := ResolveSources(base, config.DefaultLogsDir, "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, config.DefaultLogsDir, JobsCSVFile), src.JobsCSV)
	})

	t.Run("newest requests file skips event logs", func(t *testing.T) {
		older := filepath.Join(logs, "requests_20240101_000000.csv")
		newer := filepath.Join(logs, "requests_20240102_000000.csv")
		writeFixture(t, older, requestsFixture())
		writeFixture(t, newer, requestsFixture())
		touch(t, older, old)
		touch(t, newer, old.Add(time.Minute))
		writeFixture(t, filepath.Join(logs, EventLogFile), eventsFixture)

		src, err := ResolveSources(base, config.DefaultLogsDir, "")
		require.NoError(t, err)
		assert.Equal(t, newer, src.Requests)
		assert.Equal(t, filepath.Join(logs, EventLogFile), src.EventLog)
	})

	t.Run("newest timestamped jobs capture beats fixed name", func(t *testing.T) {
		fixedName := filepath.Join(logs, JobsCSVFile)
		first := filepath.Join(logs, "jobs_from_responses_1.csv")
		second := filepath.Join(logs, "jobs_from_responses_2.csv")
		writeFixture(t, fixedName, jobsFixture)
		writeFixture(t, first, jobsFixture)
		writeFixture(t, second, jobsFixture)
		touch(t, first, old.Add(time.Minute))
		touch(t, second, old)

		src, err := ResolveSources(base, config.DefaultLogsDir, "")
		require.NoError(t, err)
		assert.Equal(t, first, src.JobsCSV)
	})

	t.Run("report dir capture comes first", func(t *testing.T) {
		reportDir := t.TempDir()
		capture := filepath.Join(reportDir, JobsCSVFile)
		writeFixture(t, capture, jobsFixture)

		src, err := ResolveSources(base, config.DefaultLogsDir, reportDir)
		require.NoError(t, err)
		assert.Equal(t, capture, src.JobsCSV)
	})
}
