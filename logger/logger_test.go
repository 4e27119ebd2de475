/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package logger_test

import (
	"bytes"

	"github.com/nabbar/ipc-core/logger"
	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("New and Discard", func() {
	It("New(nil) behaves like Discard", func() {
		l := logger.New(nil)
		Expect(func() { l.Info("hello", nil) }).NotTo(Panic())
	})

	It("routes entries through the wrapped logrus.Logger", func() {
		var buf bytes.Buffer
		base := logrus.New()
		base.SetOutput(&buf)
		base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

		l := logger.New(base)
		l.Info("hello world", nil)

		Expect(buf.String()).To(ContainSubstring("hello world"))
		Expect(buf.String()).To(ContainSubstring(`component=ipc`))
	})

	It("includes the data field when provided", func() {
		var buf bytes.Buffer
		base := logrus.New()
		base.SetOutput(&buf)
		base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

		l := logger.New(base)
		l.Error("failed", map[string]int{"count": 3})

		Expect(buf.String()).To(ContainSubstring("data="))
		Expect(buf.String()).To(ContainSubstring("map[count:3]"))
	})

	It("SetLevel filters out lower-priority entries", func() {
		var buf bytes.Buffer
		base := logrus.New()
		base.SetOutput(&buf)

		l := logger.New(base)
		l.SetLevel(logger.ErrorLevel)
		l.Info("should not appear", nil)

		Expect(buf.String()).To(BeEmpty())
	})
})
