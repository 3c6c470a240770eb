package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// MissingSourceError reports that none of the candidate locations for an input existed
type MissingSourceError struct {
	Source     string
	Candidates []string
}

func (e *MissingSourceError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("no %s source found", e.Source)
	}
	return fmt.Sprintf("no %s source found (tried: %s)", e.Source, strings.Join(e.Candidates, ", "))
}

// RecordParseError describes a single input record that was skipped
type RecordParseError struct {
	Source string
	Row    int
	Field  string
	Value  string
	Cause  error
}

func (e *RecordParseError) Error() string {
	msg := fmt.Sprintf("%s row %d: invalid %s %q", e.Source, e.Row, e.Field, e.Value)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RecordParseError) Unwrap() error {
	return e.Cause
}

// OutputWriteError wraps a failure to write one report artifact
type OutputWriteError struct {
	Artifact string
	Path     string
	Cause    error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("failed to write %s to %s: %v", e.Artifact, e.Path, e.Cause)
}

func (e *OutputWriteError) Unwrap() error {
	return e.Cause
}

// NewMissingSourceError creates a MissingSourceError for source with the locations tried
func NewMissingSourceError(source string, candidates []string) *MissingSourceError {
	return &MissingSourceError{Source: source, Candidates: candidates}
}

// NewRecordParseError creates a RecordParseError
func NewRecordParseError(source string, row int, field, value string, cause error) *RecordParseError {
	return &RecordParseError{Source: source, Row: row, Field: field, Value: value, Cause: cause}
}

// NewOutputWriteError creates an OutputWriteError
func NewOutputWriteError(artifact, path string, cause error) *OutputWriteError {
	return &OutputWriteError{Artifact: artifact, Path: path, Cause: cause}
}

// IsMissingSourceError checks if err is or wraps a MissingSourceError
func IsMissingSourceError(err error) bool {
	var target *MissingSourceError
	return stderrors.As(err, &target)
}

// IsRecordParseError checks if err is or wraps a RecordParseError
func IsRecordParseError(err error) bool {
	var target *RecordParseError
	return stderrors.As(err, &target)
}

// IsOutputWriteError checks if err is or wraps an OutputWriteError
func IsOutputWriteError(err error) bool {
	var target *OutputWriteError
	return stderrors.As(err, &target)
}
