// Package pipeline runs one comparison: resolve inputs, read, correlate,
// filter, then write the report directory.
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"jobcorr/src/config"
	"jobcorr/src/correlate"
	"jobcorr/src/ingest"
	"jobcorr/src/internal/common"
	"jobcorr/src/internal/errors"
	"jobcorr/src/report"
)

// reportDirLayout names fresh report directories under <base>/reports
const reportDirLayout = "20060102_150405"

var now = time.Now

// Outcome describes a finished run
type Outcome struct {
	Sources   Sources
	ReportDir string
	Result    correlate.Result
	Filtered  []correlate.Row
	Summary   report.Summary
	Artifacts report.Artifacts
}

// Run executes the comparison described by cfg and prints the running summary to out
func Run(cfg *config.Config, out io.Writer) (*Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	baseDir, err := common.ResolveBaseDir(cfg.BaseDir)
	if err != nil {
		return nil, err
	}

	src, err := ResolveSources(baseDir, cfg.LogsDir, cfg.ReportDir)
	if err != nil {
		return nil, err
	}

	in, err := load(src)
	if err != nil {
		return nil, err
	}

	res := correlate.Correlate(in, correlate.Options{LegacyObjectIDJoin: cfg.LegacyObjectIDJoin})
	filtered := report.Apply(res.Preferred(), cfg.FilterOptions())
	summary := report.Summarize(res, filtered)
	report.PrintSummary(out, summary, res.Rows)

	reportDir := cfg.ReportDir
	if reportDir == "" {
		reportDir = filepath.Join(baseDir, ReportsDirectory, now().UTC().Format(reportDirLayout))
	}
	if err := common.EnsureDir(reportDir); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Report directory: %s\n", reportDir)

	w, err := report.NewWriter(reportDir, cfg.WriterOptions())
	if err != nil {
		return nil, err
	}
	art, err := w.Write(res, filtered, summary)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Sources:   src,
		ReportDir: reportDir,
		Result:    res,
		Filtered:  filtered,
		Summary:   summary,
		Artifacts: art,
	}, nil
}

// load reads the three sources. The jobs CSV restricts request metrics to
// its ids; a missing event log is replaced by start times from request metrics.
func load(src Sources) (correlate.Inputs, error) {
	var in correlate.Inputs

	var allow ingest.IDSet
	if src.JobsCSV != "" {
		common.IngestLogger.Info("Using responses CSV: %s", src.JobsCSV)
		jobs, ids, stats, err := ingest.ReadJobsCSV(src.JobsCSV)
		if err != nil {
			return in, readError(errors.SourceJobRecords, err)
		}
		common.IngestLogger.Info("Loaded jobs: %s", stats)
		in.Jobs, allow = jobs, ids
	} else {
		jobs, stats, err := ingest.ReadJobsJSON(src.JobsJSON)
		if err != nil {
			return in, readError(errors.SourceJobRecords, err)
		}
		common.IngestLogger.Info("Loaded jobs: %s", stats)
		in.Jobs = jobs
	}

	if src.Requests != "" {
		metrics, stats, err := ingest.ReadRequestMetrics(src.Requests, allow)
		if err != nil {
			return in, readError(errors.SourceRequestLogs, err)
		}
		common.IngestLogger.Info("Loaded request metrics: %s", stats)
		in.Metrics = metrics
	}

	if src.EventLog != "" {
		started, stats, err := ingest.ReadStartedEvents(src.EventLog)
		if err != nil {
			return in, readError(errors.SourceEventLog, err)
		}
		common.IngestLogger.Info("Loaded events: %s", stats)
		in.Started = started
		return in, nil
	}

	in.Started = in.Metrics.StartTimes()
	if len(in.Started) == 0 && src.Requests != "" && len(allow) > 0 {
		unrestricted, _, err := ingest.ReadRequestMetrics(src.Requests, nil)
		if err != nil {
			return in, readError(errors.SourceRequestLogs, err)
		}
		in.Started = unrestricted.StartTimes()
	}
	common.IngestLogger.Info("Derived start times from request metrics: %d records", len(in.Started))
	return in, nil
}

func readError(source string, err error) error {
	return fmt.Errorf("failed to load %s: %w", source, err)
}
