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

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{LogLevel(42), "INFO"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestDetermineLogLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, DetermineLogLevel("debug"))
	assert.Equal(t, slog.LevelInfo, DetermineLogLevel("info"))
	assert.Equal(t, slog.LevelWarn, DetermineLogLevel("warn"))
	assert.Equal(t, slog.LevelError, DetermineLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, DetermineLogLevel("bogus"))
}

func TestLoggerLevelsReachConsole(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLogger(slog.LevelInfo)
	l.ConsoleWriter = &buf

	l.Debug("debug %s", "message")
	l.Info("info %s", "message")
	l.Warn("warn %s", "message")
	l.Error("error %s", "message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.Contains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestLoggerQuietMode(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLogger(slog.LevelInfo)
	l.ConsoleWriter = &buf
	l.SetQuiet(true)

	l.Info("should be hidden")
	l.Error("should be shown")

	out := buf.String()
	assert.NotContains(t, out, "should be hidden")
	assert.Contains(t, out, "should be shown")
}

func TestLoggerVerboseMode(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLogger(slog.LevelInfo)
	l.ConsoleWriter = &buf
	l.SetVerbose(true)

	l.Debug("verbose debug line")
	assert.Contains(t, buf.String(), "verbose debug line")
}

func TestNewLoggerWithOptions(t *testing.T) {
	t.Parallel()

	l := NewLoggerWithOptions("warn", "json", true, false)
	require.NotNil(t, l)
	assert.Equal(t, slog.LevelWarn, l.LogLevel)
	assert.Equal(t, JSONOutput, l.OutputType)
	assert.True(t, l.Quiet)

	// Verbose forces the level down to debug.
	l = NewLoggerWithOptions("warn", "color", false, true)
	assert.Equal(t, slog.LevelDebug, l.LogLevel)
	assert.Equal(t, ColorOutput, l.OutputType)
}

func TestLoggerJSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLoggerWithOptions("info", "json", false, false)
	l.ConsoleWriter = &buf

	l.Info("hello %s", "world")

	var entry struct {
		Timestamp string `json:"timestamp"`
		Level     string `json:"level"`
		Message   string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "hello world", entry.Message)
	assert.NotEmpty(t, entry.Timestamp)

	buf.Reset()
	l.Error("boom")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "boom", entry.Message)
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLogger(slog.LevelInfo)
	l.ConsoleWriter = &buf

	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	InfoContext(ctx, "context line %d", 1)
	assert.Contains(t, buf.String(), "context line 1")

	// A bare context falls back to the package default.
	assert.NotNil(t, FromContext(context.Background()))
}

func TestErrorErr(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLogger(slog.LevelInfo)
	l.ConsoleWriter = &buf

	l.ErrorErr(nil)
	assert.Empty(t, buf.String())

	l.ErrorErr(assert.AnError)
	assert.Contains(t, buf.String(), assert.AnError.Error())
}
