// Copyright 2024 The gocfb Authors.
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

// Package cfblog is a small leveled logger for cmd/cfbtool. It makes
// no attempt at structured fields or sinks beyond an io.Writer: the
// CLI only ever needs to report what it did and at what level.
package cfblog

import (
	"fmt"
	"io"
	"sync"
)

// Level is a logger's minimum severity.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel maps a user-supplied --log-level flag value to a Level,
// defaulting to InfoLevel for anything unrecognized.
func ParseLevel(s string) Level {
	switch s {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	}
	return InfoLevel
}

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger writes leveled, single-line messages to an io.Writer. A
// Logger derived via Container carries a fixed container-path tag
// through every line it writes, so interleaved operations against
// several open containers stay attributable in the log stream.
type Logger struct {
	mu     *sync.Mutex
	out    io.Writer
	level  Level
	prefix string
}

// New returns a Logger that discards messages below level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{mu: &sync.Mutex{}, out: w, level: level}
}

// Container returns a derived Logger that tags every message with
// path, sharing the parent's writer, level and lock.
func (l *Logger) Container(path string) *Logger {
	return &Logger{mu: l.mu, out: l.out, level: l.level, prefix: path}
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		fmt.Fprintf(l.out, "[%s] %s: %s\n", level, l.prefix, msg)
		return
	}
	fmt.Fprintf(l.out, "[%s] %s\n", level, msg)
}

// Generation logs a Debug-level message tagged with the compound
// file's current structural-mutation generation counter, for tracing
// allocator/migration behavior across a sequence of operations.
func (l *Logger) Generation(gen uint64, format string, args ...interface{}) {
	l.log(DebugLevel, "gen %d: %s", gen, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.log(DebugLevel, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(InfoLevel, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(WarnLevel, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(ErrorLevel, format, args...) }
