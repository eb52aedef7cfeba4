/*
Copyright 2018 The pdfcpu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package log provides the core's logging abstraction: four named,
// independently silenceable loggers backed by zap.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger defines an interface for logging messages. Call sites only ever
// see this interface, never zap directly, so the backend can be swapped.
type Logger interface {

	// Printf logs a formatted string.
	Printf(format string, args ...interface{})

	// Println logs a line.
	Println(args ...interface{})

	// Fatalf is equivalent to Printf() followed by a program abort.
	Fatalf(format string, args ...interface{})

	// Fatalln is equivalent to Println() followed by a program abort.
	Fatalln(args ...interface{})
}

type logger struct {
	log Logger
}

// The core's 4 named loggers.
var (
	Debug = &logger{}
	Info  = &logger{}
	Stats = &logger{}
	Trace = &logger{}
)

// Enabled reports whether l has a backend attached. Callers such as
// pkg/ncache's intern hit/miss tracing guard Printf/Println with this so
// argument formatting is skipped entirely when the logger is off.
func (l *logger) Enabled() bool {
	return l.log != nil
}

// DebugEnabled reports whether the Debug logger is attached.
func DebugEnabled() bool { return Debug.Enabled() }

// InfoEnabled reports whether the Info logger is attached.
func InfoEnabled() bool { return Info.Enabled() }

// StatsEnabled reports whether the Stats logger is attached.
func StatsEnabled() bool { return Stats.Enabled() }

// TraceEnabled reports whether the Trace logger is attached.
func TraceEnabled() bool { return Trace.Enabled() }

// SetDebugLogger sets the debug logger.
func SetDebugLogger(log Logger) {
	Debug.log = log
}

// SetInfoLogger sets the info logger.
func SetInfoLogger(log Logger) {
	Info.log = log
}

// SetStatsLogger sets the stats logger.
func SetStatsLogger(log Logger) {
	Stats.log = log
}

// SetTraceLogger sets the trace logger.
func SetTraceLogger(log Logger) {
	Trace.log = log
}

// zapLogger adapts a *zap.SugaredLogger fixed at one level to Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (z zapLogger) Printf(format string, args ...interface{}) { z.s.Debugf(format, args...) }
func (z zapLogger) Println(args ...interface{})               { z.s.Debug(fmt.Sprintln(args...)) }
func (z zapLogger) Fatalf(format string, args ...interface{}) { z.s.Fatalf(format, args...) }
func (z zapLogger) Fatalln(args ...interface{})                { z.s.Fatal(fmt.Sprintln(args...)) }

// SetDefaultLoggers sets all 4 loggers to a shared zap production logger,
// each named after the logger it backs. zapLogger writes every message at
// zap's debug level, so the shared logger is built with its level at debug.
func SetDefaultLoggers() {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	zl, err := cfg.Build()
	if err != nil {
		zl = zap.NewNop()
	}
	SetDebugLogger(zapLogger{s: zl.Sugar().Named("debug")})
	SetInfoLogger(zapLogger{s: zl.Sugar().Named("info")})
	SetStatsLogger(zapLogger{s: zl.Sugar().Named("stats")})
	SetTraceLogger(zapLogger{s: zl.Sugar().Named("trace")})
}

// DisableLoggers turns off all logging.
func DisableLoggers() {
	SetDebugLogger(nil)
	SetInfoLogger(nil)
	SetStatsLogger(nil)
	SetTraceLogger(nil)
}

// Printf writes a formatted message to the log.
func (l *logger) Printf(format string, args ...interface{}) {
	if l.log == nil {
		return
	}
	l.log.Printf(format, args...)
}

// Println writes a line to the log.
func (l *logger) Println(args ...interface{}) {
	if l.log == nil {
		return
	}
	l.log.Println(args...)
}

func (l *logger) Fatalf(format string, args ...interface{}) {
	if l.log == nil {
		return
	}
	l.log.Fatalf(format, args...)
}

func (l *logger) Fatalln(args ...interface{}) {
	if l.log == nil {
		return
	}
	l.log.Fatalln(args...)
}
