// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package logging provides the structured logger, syslog emission, and
// panic hook shared by every handler binary (cmd/tx, cmd/rx, cmd/statsmux,
// cmd/filter, cmd/supervisor, cmd/mockproto).
package logging

import (
	"fmt"
	"log/syslog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger that writes to stderr and, when syslogAddr is
// non-empty, also tees every record to a remote syslog collector over UDP.
// name is used both as the syslog process tag and as a logger field so
// records from different handlers in the same chain are easy to tell apart.
func New(level zapcore.Level, syslogAddr, name string) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	cores := []zapcore.Core{consoleCore}

	if syslogAddr != "" {
		w, err := syslog.Dial("udp", syslogAddr, syslog.LOG_INFO, name)
		if err != nil {
			return nil, fmt.Errorf("logging: dial syslog %s: %w", syslogAddr, err)
		}
		syslogCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			syslogWriter{w},
			level,
		)
		cores = append(cores, syslogCore)
	}

	logger := zap.New(zapcore.NewTee(cores...)).Named(name)
	return logger, nil
}

// syslogWriter adapts a *syslog.Writer to zapcore.WriteSyncer.
type syslogWriter struct{ w *syslog.Writer }

func (s syslogWriter) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s syslogWriter) Sync() error                 { return nil }

// ParseLevel parses a handler's --log-level flag value into a zap level,
// defaulting to info on an unrecognized value.
func ParseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
