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

package pathinfo_test

import (
	"github.com/nabbar/ipc-core/pathinfo"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Record", func() {
	Context("round trip", func() {
		It("marshals and unmarshals back to an equal record", func() {
			rec := pathinfo.Record{
				Key:             pathinfo.NewPOSIXKey(),
				ProtocolVersion: pathinfo.ProtocolVersion,
				ProductVersion:  pathinfo.ProductVersion{2, 30, 0, 100},
				ProcessID:       1234,
				ThreadID:        1234,
			}

			b, err := pathinfo.Marshal(rec)
			Expect(err).NotTo(HaveOccurred())

			got, err := pathinfo.Unmarshal(b)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(rec))
		})

		It("rejects a record whose key is not 32 lowercase hex characters", func() {
			rec := pathinfo.Record{Key: "not-hex", ProtocolVersion: 1}
			b, err := pathinfo.Marshal(rec)
			Expect(err).NotTo(HaveOccurred())

			_, err = pathinfo.Unmarshal(b)
			Expect(err).To(MatchError(pathinfo.ErrInvalidKey))
		})
	})

	Context("ValidKey", func() {
		It("accepts exactly 32 lowercase hex characters", func() {
			Expect(pathinfo.ValidKey("0123456789abcdef0123456789abcdef")).To(BeTrue())
		})

		It("rejects uppercase hex", func() {
			Expect(pathinfo.ValidKey("0123456789ABCDEF0123456789ABCDEF")).To(BeFalse())
		})

		It("rejects the wrong length", func() {
			Expect(pathinfo.ValidKey("0123")).To(BeFalse())
		})
	})

	Context("ProductVersion.Compare", func() {
		It("orders lexicographically component by component", func() {
			older := pathinfo.ProductVersion{2, 29, 0, 0}
			newer := pathinfo.ProductVersion{2, 30, 0, 0}

			Expect(older.Compare(newer)).To(Equal(-1))
			Expect(newer.Compare(older)).To(Equal(1))
			Expect(newer.Compare(newer)).To(Equal(0))
		})

		It("renders as dotted components", func() {
			v := pathinfo.ProductVersion{2, 30, 1, 5}
			Expect(v.String()).To(Equal("2.30.1.5"))
		})
	})

	Context("key generation", func() {
		It("NewPOSIXKey produces a valid, non-deterministic key", func() {
			a := pathinfo.NewPOSIXKey()
			b := pathinfo.NewPOSIXKey()
			Expect(pathinfo.ValidKey(a)).To(BeTrue())
			Expect(a).NotTo(Equal(b))
		})

		It("NewWindowsKey is deterministic for the same sid", func() {
			a := pathinfo.NewWindowsKey("S-1-5-21-1111111111-2222222222-3333333333-1001")
			b := pathinfo.NewWindowsKey("S-1-5-21-1111111111-2222222222-3333333333-1001")
			Expect(a).To(Equal(b))
			Expect(pathinfo.ValidKey(a)).To(BeTrue())
		})

		It("NewWindowsKey differs across sids", func() {
			a := pathinfo.NewWindowsKey("S-1-5-21-1-1-1-1001")
			b := pathinfo.NewWindowsKey("S-1-5-21-2-2-2-1002")
			Expect(a).NotTo(Equal(b))
		})
	})
})
