package pipeline

import (
	"path/filepath"

	"jobcorr/src/internal/common"
	"jobcorr/src/internal/errors"
	"jobcorr/src/utils/pathresolve"
)

// Input file names under the logs directory
const (
	EventLogFile     = "requests_events.csv"
	EventLogAltFile  = "requests_data_time.csv"
	EventLogLegacy   = "events.csv"
	RequestsFile     = "requests.csv"
	RequestsGlob     = "requests*.csv"
	JobsCSVFile      = "jobs_from_responses.csv"
	JobsCSVGlob      = "jobs_from_responses_*.csv"
	JobsJSONFile     = "jobs.json"
	ReportsDirectory = "reports"
)

// Sources are the resolved input paths of one run. Empty means absent.
type Sources struct {
	EventLog string
	Requests string
	JobsCSV  string
	JobsJSON string
}

// ResolveSources locates the inputs under baseDir. reportDir, when set, is
// checked first for a per-run jobs capture. A run with neither a jobs CSV
// nor jobs.json fails with a MissingSourceError.
func ResolveSources(baseDir, logsDir, reportDir string) (Sources, error) {
	logs := filepath.Join(baseDir, logsDir)
	var src Sources

	events := pathresolve.New(
		pathresolve.Exact(filepath.Join(logs, EventLogFile)),
		pathresolve.Exact(filepath.Join(logs, EventLogAltFile)),
		pathresolve.Exact(filepath.Join(logs, EventLogLegacy)),
	)
	if p, ok := events.Resolve(); ok {
		src.EventLog = p
	} else {
		common.IngestLogger.Warn("No events CSV found: %v", events.Tried())
	}

	requests := pathresolve.New(
		pathresolve.Newest(filepath.Join(logs, RequestsGlob), EventLogFile, EventLogAltFile),
		pathresolve.Exact(filepath.Join(logs, RequestsFile)),
	)
	if p, ok := requests.Resolve(); ok {
		src.Requests = p
	}

	parentLogs := filepath.Join(filepath.Dir(baseDir), logsDir)
	jobs := pathresolve.New()
	if reportDir != "" {
		jobs.Then(pathresolve.Exact(filepath.Join(reportDir, JobsCSVFile)))
	}
	jobs.Then(pathresolve.Newest(filepath.Join(logs, JobsCSVGlob))).
		Then(pathresolve.Exact(filepath.Join(logs, JobsCSVFile))).
		Then(pathresolve.Newest(filepath.Join(parentLogs, JobsCSVGlob))).
		Then(pathresolve.Exact(filepath.Join(parentLogs, JobsCSVFile)))
	if p, ok := jobs.Resolve(); ok {
		src.JobsCSV = p
		return src, nil
	}

	jobsJSON := filepath.Join(baseDir, JobsJSONFile)
	if common.FileExists(jobsJSON) {
		src.JobsJSON = jobsJSON
		return src, nil
	}

	return src, errors.NewMissingSourceError(errors.SourceJobRecords, append(jobs.Tried(), jobsJSON))
}
