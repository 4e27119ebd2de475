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

package rendezvous_test

import (
	"os"
	"runtime"
	"time"

	"github.com/nabbar/ipc-core/logger"
	"github.com/nabbar/ipc-core/pathinfo"
	"github.com/nabbar/ipc-core/peer"
	"github.com/nabbar/ipc-core/procmutex"
	"github.com/nabbar/ipc-core/rendezvous"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var testProduct = pathinfo.ProductVersion{1, 2, 3, 4}

var _ = Describe("Store", func() {
	var dir string

	BeforeEach(func() {
		d, err := os.MkdirTemp("", "rendezvous-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = os.RemoveAll(d) })
		dir = d
	})

	It("CreateNewPathName mints a record and GetPathName derives the same address", func() {
		s, err := rendezvous.New(dir, "store-svc", testProduct, logger.Discard())
		Expect(err).NotTo(HaveOccurred())

		addr, err := s.CreateNewPathName("S-1-5-21-test")
		Expect(err).NotTo(HaveOccurred())

		got, err := s.GetPathName()
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(addr))
	})

	It("exposes the protocol version, product version, and pid of the published record", func() {
		s, err := rendezvous.New(dir, "store-svc", testProduct, logger.Discard())
		Expect(err).NotTo(HaveOccurred())

		_, err = s.CreateNewPathName("S-1-5-21-test")
		Expect(err).NotTo(HaveOccurred())

		pv, err := s.ProtocolVersion()
		Expect(err).NotTo(HaveOccurred())
		Expect(pv).To(Equal(pathinfo.ProtocolVersion))

		prod, err := s.ProductVersion()
		Expect(err).NotTo(HaveOccurred())
		Expect(prod).To(Equal(testProduct))

		pid, err := s.ServerProcessID()
		Expect(err).NotTo(HaveOccurred())
		Expect(pid).To(Equal(os.Getpid()))
	})

	It("SavePathName overwrites the published record and is immediately visible", func() {
		s, err := rendezvous.New(dir, "store-svc", testProduct, logger.Discard())
		Expect(err).NotTo(HaveOccurred())

		_, err = s.CreateNewPathName("S-1-5-21-test")
		Expect(err).NotTo(HaveOccurred())

		next := pathinfo.Record{
			Key:             pathinfo.NewPOSIXKey(),
			ProtocolVersion: pathinfo.ProtocolVersion,
			ProductVersion:  pathinfo.ProductVersion{9, 9, 9, 9},
			ProcessID:       12345,
			ThreadID:        12345,
		}
		Expect(s.SavePathName(next)).NotTo(HaveOccurred())

		pid, err := s.ServerProcessID()
		Expect(err).NotTo(HaveOccurred())
		Expect(pid).To(Equal(12345))
	})

	It("IsValidServer delegates to the given Validator", func() {
		s, err := rendezvous.New(dir, "store-svc", testProduct, logger.Discard())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.IsValidServer(peer.New(), 0, "/anything")).To(BeTrue())
	})

	if runtime.GOOS != "windows" {
		It("reloads from disk when another writer advances the file's mtime", func() {
			s, err := rendezvous.New(dir, "store-svc", testProduct, logger.Discard())
			Expect(err).NotTo(HaveOccurred())

			_, err = s.CreateNewPathName("S-1-5-21-test")
			Expect(err).NotTo(HaveOccurred())

			// Prime the in-memory cache with the first load.
			_, err = s.LoadPathName()
			Expect(err).NotTo(HaveOccurred())

			external := pathinfo.Record{
				Key:             pathinfo.NewPOSIXKey(),
				ProtocolVersion: pathinfo.ProtocolVersion,
				ProductVersion:  pathinfo.ProductVersion{5, 5, 5, 5},
				ProcessID:       99999,
				ThreadID:        99999,
			}
			b, err := pathinfo.Marshal(external)
			Expect(err).NotTo(HaveOccurred())

			// Bypass Store entirely to simulate a concurrent writer, then
			// nudge mtime forward so the reload trigger notices.
			time.Sleep(10 * time.Millisecond)
			recPath, err := procmutex.DefaultPath(dir, "store-svc")
			Expect(err).NotTo(HaveOccurred())
			Expect(os.WriteFile(recPath, b, 0o600)).NotTo(HaveOccurred())

			rec, err := s.LoadPathName()
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.ProcessID).To(Equal(99999))
		})
	}
})
