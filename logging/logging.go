/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package logging provides a leveled logger with plain, color, and JSON
// output modes. Long-running operations should prefer the context-based
// functions (InfoContext, WarnContext, etc.) so that a caller-configured
// logger propagates through the call tree.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

// OutputType represents the output format for logs.
type OutputType int

// Output types for different log formats.
const (
	PlainOutput OutputType = iota
	ColorOutput
	JSONOutput
)

// Log levels ordered from least to most severe.
const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger writes leveled, optionally colored log messages to a console writer.
type Logger struct {
	mu            sync.Mutex
	LogLevel      slog.Level
	OutputType    OutputType
	Quiet         bool
	Verbose       bool
	ConsoleWriter io.Writer
}

// NewLogger creates a Logger at the given level writing to stderr.
func NewLogger(level slog.Level) *Logger {
	return &Logger{
		LogLevel:      level,
		OutputType:    PlainOutput,
		ConsoleWriter: os.Stderr,
	}
}

// NewLoggerWithOptions creates a Logger from string-typed configuration,
// as produced by CLI flags or a config file.
func NewLoggerWithOptions(levelStr, format string, quiet, verbose bool) *Logger {
	level := DetermineLogLevel(levelStr)

	outputType := PlainOutput
	switch format {
	case "json":
		outputType = JSONOutput
	case "color":
		outputType = ColorOutput
	}

	if verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	return &Logger{
		LogLevel:      level,
		OutputType:    outputType,
		Quiet:         quiet,
		Verbose:       verbose,
		ConsoleWriter: os.Stderr,
	}
}

// DetermineLogLevel converts a level string to a slog.Level, defaulting to info.
func DetermineLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// formatMessage renders the message, adding a colored level prefix for
// ColorOutput and leaving other modes untouched.
func (l *Logger) formatMessage(level LogLevel, format string, args ...interface{}) string {
	msg := fmt.Sprintf(format, args...)

	if l.OutputType != ColorOutput {
		return msg
	}

	switch level {
	case DebugLevel:
		return color.HiBlackString("[DEBUG] %s", msg)
	case InfoLevel:
		return color.HiGreenString("[INFO] %s", msg)
	case WarnLevel:
		return color.HiYellowString("[WARN] %s", msg)
	case ErrorLevel:
		return color.HiRedString("[ERROR] %s", msg)
	default:
		return msg
	}
}

// shouldShowLocked reports whether a message at the given level reaches the
// console. Quiet mode shows only errors; verbose mode shows everything;
// the default shows INFO and above. Callers must hold l.mu.
func (l *Logger) shouldShowLocked(level LogLevel) bool {
	if l.Quiet {
		return level == ErrorLevel
	}
	if l.Verbose {
		return true
	}
	return level >= InfoLevel
}

// logEntry is the shape of one JSON-mode log line.
type logEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	msg := l.formatMessage(level, format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.shouldShowLocked(level) || l.ConsoleWriter == nil {
		return
	}

	if l.OutputType == JSONOutput {
		entry := logEntry{
			Timestamp: timestamp,
			Level:     level.String(),
			Message:   msg,
		}
		if err := json.NewEncoder(l.ConsoleWriter).Encode(entry); err != nil {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", timestamp, msg)
		}
		return
	}

	if _, err := fmt.Fprintf(l.ConsoleWriter, "[%s] %s\n", timestamp, msg); err != nil {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", timestamp, msg)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DebugLevel, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(InfoLevel, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WarnLevel, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ErrorLevel, format, args...)
}

// ErrorErr logs an error value directly without formatting.
func (l *Logger) ErrorErr(err error) {
	if err != nil {
		l.log(ErrorLevel, "%s", err.Error())
	}
}

// SetQuiet enables or disables quiet mode. Thread-safe.
func (l *Logger) SetQuiet(quiet bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Quiet = quiet
}

// SetVerbose enables or disables verbose mode. Thread-safe.
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Verbose = verbose
}

// defaultLogger backs the package-level logging functions.
var (
	defaultLogger   = NewLogger(slog.LevelInfo)
	defaultLoggerMu sync.RWMutex
)

// SetDefaultLogger replaces the logger used by the package-level functions.
func SetDefaultLogger(l *Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	if l != nil {
		defaultLogger = l
	}
}

func getDefaultLogger() *Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// Debug logs a debug message using the default logger.
func Debug(format string, args ...interface{}) {
	getDefaultLogger().Debug(format, args...)
}

// Info logs an informational message using the default logger.
func Info(format string, args ...interface{}) {
	getDefaultLogger().Info(format, args...)
}

// Warn logs a warning message using the default logger.
func Warn(format string, args ...interface{}) {
	getDefaultLogger().Warn(format, args...)
}

// Error logs an error message using the default logger.
func Error(format string, args ...interface{}) {
	getDefaultLogger().Error(format, args...)
}

// loggerKeyType is the type for the logger context key.
type loggerKeyType struct{}

var loggerKey = loggerKeyType{}

// WithLogger returns a new context carrying the provided logger.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves the logger from the context, falling back to the
// package default when none is present.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*Logger); ok && l != nil {
			return l
		}
	}
	return getDefaultLogger()
}

// DebugContext logs a debug message using the logger from context.
func DebugContext(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Debug(format, args...)
}

// InfoContext logs an informational message using the logger from context.
func InfoContext(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Info(format, args...)
}

// WarnContext logs a warning message using the logger from context.
func WarnContext(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Warn(format, args...)
}

// ErrorContext logs an error message using the logger from context.
func ErrorContext(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Error(format, args...)
}

// ErrorErrContext logs an error value using the logger from context.
func ErrorErrContext(ctx context.Context, err error) {
	FromContext(ctx).ErrorErr(err)
}
