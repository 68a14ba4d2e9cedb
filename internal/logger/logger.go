// Copyright 2025 The colafs Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger provides colafs's leveled logging, wrapping the standard
// library's log/slog the way the filesystem this package was adapted from
// wraps it: a package-level default logger, a text or JSON handler chosen
// by format string, and an optional rotating file sink.
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity levels, matched onto slog.Level values one step apart so Trace
// and Debug both sort below slog's builtin Info.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(16)
)

// Severity names accepted by SetSeverity, matching the flag values
// cmd/colafs exposes via --log-severity.
const (
	Trace = "TRACE"
	Debug = "DEBUG"
	Info  = "INFO"
	Warn  = "WARNING"
	Error = "ERROR"
	Off   = "OFF"
)

type loggerFactory struct {
	file    *lumberjack.Logger
	level   *slog.LevelVar
	format  string
	sinkOut io.Writer
}

var defaultLoggerFactory = &loggerFactory{
	level:   new(slog.LevelVar),
	format:  "text",
	sinkOut: os.Stderr,
}

var defaultLogger = slog.New(defaultLoggerFactory.createHandler())

func (f *loggerFactory) writer() io.Writer {
	if f.file != nil {
		return f.file
	}
	return f.sinkOut
}

func (f *loggerFactory) createHandler() slog.Handler {
	opts := &slog.HandlerOptions{
		Level: f.level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				a.Key = "severity"
				a.Value = slog.StringValue(severityName(a.Value.Any().(slog.Level)))
			}
			if a.Key == slog.MessageKey {
				a.Key = "message"
			}
			if a.Key == slog.TimeKey {
				a.Key = "time"
			}
			return a
		},
	}
	if strings.EqualFold(f.format, "json") {
		return slog.NewJSONHandler(f.writer(), opts)
	}
	return slog.NewTextHandler(f.writer(), opts)
}

func severityName(l slog.Level) string {
	switch {
	case l < LevelDebug:
		return Trace
	case l < LevelInfo:
		return Debug
	case l < LevelWarn:
		return Info
	case l < LevelError:
		return Warn
	default:
		return Error
	}
}

func rebuild() {
	defaultLogger = slog.New(defaultLoggerFactory.createHandler())
}

// SetLogFormat selects "text" or "json" output for all subsequent log
// calls. An unrecognized format falls back to text.
func SetLogFormat(format string) {
	defaultLoggerFactory.format = format
	rebuild()
}

// SetSeverity sets the minimum severity that will be emitted. Messages
// below it are dropped cheaply by slog before the handler runs.
func SetSeverity(sev string) {
	switch strings.ToUpper(sev) {
	case Trace:
		defaultLoggerFactory.level.Set(LevelTrace)
	case Debug:
		defaultLoggerFactory.level.Set(LevelDebug)
	case Info:
		defaultLoggerFactory.level.Set(LevelInfo)
	case Warn:
		defaultLoggerFactory.level.Set(LevelWarn)
	case Error:
		defaultLoggerFactory.level.Set(LevelError)
	case Off:
		defaultLoggerFactory.level.Set(LevelOff)
	}
}

// InitLogFile redirects logging to a rotating file sink at path, rotating
// when it exceeds maxSizeMB and keeping backupCount old files.
func InitLogFile(path string, maxSizeMB, backupCount int, compress bool) error {
	if path == "" {
		return nil
	}
	defaultLoggerFactory.file = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: backupCount,
		Compress:   compress,
	}
	rebuild()
	return nil
}

func logf(ctx context.Context, level slog.Level, format string, v ...interface{}) {
	if !defaultLogger.Enabled(ctx, level) {
		return
	}
	defaultLogger.Log(ctx, level, fmt.Sprintf(format, v...))
}

func Tracef(format string, v ...interface{}) { logf(context.Background(), LevelTrace, format, v...) }
func Debugf(format string, v ...interface{}) { logf(context.Background(), LevelDebug, format, v...) }
func Infof(format string, v ...interface{})  { logf(context.Background(), LevelInfo, format, v...) }
func Warnf(format string, v ...interface{})  { logf(context.Background(), LevelWarn, format, v...) }
func Errorf(format string, v ...interface{}) { logf(context.Background(), LevelError, format, v...) }

// NewStdLogger adapts the package logger to the standard *log.Logger
// interface jacobsa/fuse's MountConfig.DebugLogger expects, the same
// adaptation the teacher's internal/logger.NewLegacyLogger performs for
// gcsfuse's own fuse.MountConfig wiring.
func NewStdLogger(prefix string) *log.Logger {
	return log.New(&severityWriter{prefix: prefix}, "", 0)
}

// severityWriter forwards each Write (one already-formatted log line from
// the standard library's *log.Logger) to the package logger at Trace
// severity, tagged with prefix so fuse-internal debug lines are
// distinguishable from colafs's own.
type severityWriter struct {
	prefix string
}

func (w *severityWriter) Write(p []byte) (int, error) {
	Tracef("%s%s", w.prefix, strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
