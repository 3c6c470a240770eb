// Package errors provides the error taxonomy and process exit codes.
package errors

import stderrors "errors"

// Process exit codes
const (
	ExitOK          = 0
	ExitNoJobSource = 1 // no job-record source exists at all
	ExitRunFailure  = 2 // bad flags/config or an artifact could not be written
)

// Source names used in MissingSourceError
const (
	SourceJobRecords  = "job records"
	SourceEventLog    = "event log"
	SourceRequestLogs = "request metrics"
)

// ExitCode maps a run error to the process exit status.
// Only a missing job-record source yields ExitNoJobSource.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var missing *MissingSourceError
	if stderrors.As(err, &missing) && missing.Source == SourceJobRecords {
		return ExitNoJobSource
	}
	return ExitRunFailure
}
