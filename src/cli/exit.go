package cli

import (
	"jobcorr/src/internal/common"
	"jobcorr/src/internal/errors"
)

// Process exit statuses returned by ExitCode
const (
	ExitOK          = errors.ExitOK
	ExitNoJobSource = errors.ExitNoJobSource
	ExitRunFailure  = errors.ExitRunFailure
)

// ExitCode maps an Execute error to the process exit status
func ExitCode(err error) int {
	return errors.ExitCode(err)
}

// Sync flushes the CLI logger before the process exits
func Sync() {
	common.CLILogger.Sync()
}
