package common

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
)

var logLevelNames = map[LogLevel]string{
	LogDebug: "DEBUG",
	LogInfo:  "INFO",
	LogWarn:  "WARN",
	LogError: "ERROR",
}

func (l LogLevel) String() string {
	if name, ok := logLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogDebug:
		return zapcore.DebugLevel
	case LogWarn:
		return zapcore.WarnLevel
	case LogError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SafeLogger writes diagnostics to stderr only, keeping stdout free for the report summary
type SafeLogger struct {
	prefix string
	level  zap.AtomicLevel
	sugar  *zap.SugaredLogger
}

var (
	sinkMu sync.Mutex
	sink   zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
)

// SetOutput redirects every logger, including the package-level ones; nil
// restores stderr.
func SetOutput(ws zapcore.WriteSyncer) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if ws == nil {
		ws = zapcore.Lock(os.Stderr)
	}
	sink = ws
}

func currentSink() zapcore.WriteSyncer {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	return sink
}

// forwardSink resolves the current output on every write
type forwardSink struct{}

func (forwardSink) Write(p []byte) (int, error) {
	return currentSink().Write(p)
}

func (forwardSink) Sync() error {
	return currentSink().Sync()
}

// NewSafeLogger creates a new stderr logger with the given prefix.
// JOBCORR_DEBUG=true starts it at DEBUG level.
func NewSafeLogger(prefix string) *SafeLogger {
	initial := LogInfo
	if os.Getenv("JOBCORR_DEBUG") == trueStr {
		initial = LogDebug
	}
	level := zap.NewAtomicLevelAt(initial.zapLevel())

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = ""
	encCfg.StacktraceKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), forwardSink{}, level)
	return &SafeLogger{
		prefix: prefix,
		level:  level,
		sugar:  zap.New(core).Named(prefix).Sugar(),
	}
}

// SetLevel sets the minimum log level
func (l *SafeLogger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

// Enabled reports whether messages at level would be written
func (l *SafeLogger) Enabled(level LogLevel) bool {
	return l.level.Enabled(level.zapLevel())
}

// Debug logs a debug message
func (l *SafeLogger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an info message
func (l *SafeLogger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *SafeLogger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *SafeLogger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes buffered entries
func (l *SafeLogger) Sync() {
	_ = l.sugar.Sync()
}

// Global logger instances for convenience
var (
	CLILogger    = NewSafeLogger("CLI")
	IngestLogger = NewSafeLogger("Ingest")
	ReportLogger = NewSafeLogger("Report")
)

// SetGlobalLevel applies level to all package-level loggers
func SetGlobalLevel(level LogLevel) {
	for _, l := range []*SafeLogger{CLILogger, IngestLogger, ReportLogger} {
		l.SetLevel(level)
	}
}
