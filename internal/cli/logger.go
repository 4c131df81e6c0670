package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/logging"
)

// logFileWriter holds the log file writer for cleanup during shutdown.
var logFileWriter io.WriteCloser //nolint:gochecknoglobals // Needed for cleanup

// logFileMu guards logFileWriter.
var logFileMu sync.Mutex //nolint:gochecknoglobals // Protects logFileWriter

// zerologConfigOnce ensures zerolog global settings are configured exactly once.
var zerologConfigOnce sync.Once //nolint:gochecknoglobals // One-time configuration

// zerologGlobalMu protects concurrent writes to the zerolog global logger.
// This is separate from globalLoggerMu to avoid deadlocks.
var zerologGlobalMu sync.Mutex //nolint:gochecknoglobals // Protects zerolog global

// configureZerologGlobals sets zerolog global options shared by every logger.
func configureZerologGlobals() {
	zerologConfigOnce.Do(func() {
		zerolog.TimestampFieldName = "ts"
		zerolog.DurationFieldUnit = time.Millisecond
	})
}

// InitLogger creates and configures a zerolog.Logger based on verbosity flags.
//
// Log levels are set as follows:
//   - verbose=true: Debug level (most detailed)
//   - quiet=true: Warn level (errors and warnings only)
//   - default: Info level (normal operation)
//
// Console output is a human-readable writer on a color terminal and JSON on
// stderr otherwise. When cfg.File is set the logger also writes to
// <home>/logs/taskflow.log with rotation, with credentials redacted. If the
// log file cannot be opened the logger continues with console-only output.
func InitLogger(verbose, quiet bool, home string, cfg config.LoggingConfig) zerolog.Logger {
	configureZerologGlobals()

	console := selectOutput()
	writer := console

	if cfg.File {
		fileWriter, err := createLogFileWriter(home, cfg)
		if err == nil {
			logFileMu.Lock()
			logFileWriter = fileWriter
			logFileMu.Unlock()
			writer = zerolog.MultiLevelWriter(console, fileWriter)
		}
	}

	logger := buildLogger(selectLevel(verbose, quiet), writer)
	setGlobalLogger(logger)
	return logger
}

// InitLoggerWithWriter creates and configures a zerolog.Logger with a custom writer.
// This is primarily intended for testing purposes.
func InitLoggerWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	configureZerologGlobals()

	logger := buildLogger(selectLevel(verbose, quiet), w)
	setGlobalLogger(logger)
	return logger
}

func buildLogger(level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		Hook(logging.NewSensitiveDataHook()).
		With().
		Timestamp().
		Logger()
}

// setGlobalLogger points the zerolog/log package logger at the CLI logger so
// packages logging through log.Ctx or log.Logger share its configuration.
// This function is safe for concurrent use.
func setGlobalLogger(cliLogger zerolog.Logger) {
	zerologGlobalMu.Lock()
	defer zerologGlobalMu.Unlock()
	log.Logger = cliLogger
}

// CloseLogFile closes the log file writer if it was opened.
// This should be called during application shutdown.
func CloseLogFile() {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFileWriter != nil {
		_ = logFileWriter.Close()
		logFileWriter = nil
	}
}

// selectLevel determines the appropriate log level based on flags.
func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// selectOutput determines the console writer based on terminal capabilities
// and environment settings.
func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}
	return os.Stderr
}

// filteringWriteCloser wraps a WriteCloser with sensitive data filtering.
type filteringWriteCloser struct {
	filter *logging.FilteringWriter
	closer io.Closer
}

// Write implements io.Writer by delegating to the filtering writer.
func (fwc *filteringWriteCloser) Write(p []byte) (n int, err error) {
	return fwc.filter.Write(p)
}

// Close implements io.Closer by delegating to the underlying closer.
func (fwc *filteringWriteCloser) Close() error {
	return fwc.closer.Close()
}

// createLogFileWriter creates a rotating log file writer under home.
func createLogFileWriter(home string, cfg config.LoggingConfig) (io.WriteCloser, error) {
	logPath, err := LogFilePath(home)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	return &filteringWriteCloser{
		filter: logging.NewFilteringWriter(lj),
		closer: lj,
	}, nil
}

// LogFilePath returns the path of the CLI log file under home. An empty home
// means ~/.taskflow.
func LogFilePath(home string) (string, error) {
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		home = filepath.Join(userHome, constants.AppHome)
	}
	return filepath.Join(home, constants.LogsDir, constants.LogFileName), nil
}
