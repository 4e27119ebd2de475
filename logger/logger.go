/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package logger is a small, nil-receiver-safe structured logging wrapper
// around logrus. Every IPC core component takes a logger.Logger explicitly
// (constructor injection) instead of reaching for an ambient global, per the
// "no hidden globals" redesign note for process-wide singletons.
package logger

import (
	"github.com/sirupsen/logrus"
)

// Logger is the surface every C1-C6 component depends on. A nil *logger
// receiver is valid and every method becomes a no-op, so components can be
// constructed without a logger in tests.
type Logger interface {
	Debug(message string, data interface{}, args ...interface{})
	Info(message string, data interface{}, args ...interface{})
	Warning(message string, data interface{}, args ...interface{})
	Error(message string, data interface{}, args ...interface{})

	// SetLevel adjusts the minimum level emitted.
	SetLevel(lvl Level)
}

type logger struct {
	l *logrus.Logger
}

// New wraps an existing logrus.Logger. Passing nil is equivalent to Discard().
func New(l *logrus.Logger) Logger {
	if l == nil {
		return Discard()
	}
	return &logger{l: l}
}

// Discard returns a Logger whose output goes nowhere; the default for
// components constructed without an explicit logger.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return &logger{l: l}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func (o *logger) SetLevel(lvl Level) {
	if o == nil || o.l == nil {
		return
	}
	o.l.SetLevel(lvl.Logrus())
}

func (o *logger) Debug(message string, data interface{}, args ...interface{}) {
	o.log(logrus.DebugLevel, message, data, args...)
}

func (o *logger) Info(message string, data interface{}, args ...interface{}) {
	o.log(logrus.InfoLevel, message, data, args...)
}

func (o *logger) Warning(message string, data interface{}, args ...interface{}) {
	o.log(logrus.WarnLevel, message, data, args...)
}

func (o *logger) Error(message string, data interface{}, args ...interface{}) {
	o.log(logrus.ErrorLevel, message, data, args...)
}

func (o *logger) log(lvl logrus.Level, message string, data interface{}, args ...interface{}) {
	if o == nil || o.l == nil {
		return
	}

	e := o.l.WithField("component", "ipc")
	if data != nil {
		e = e.WithField("data", data)
	}

	if len(args) > 0 {
		e.Logf(lvl, message, args...)
	} else {
		e.Log(lvl, message)
	}
}
