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

package peer

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("samePath", func() {
	It("matches identical paths", func() {
		Expect(samePath("/usr/bin/mozc_server", "/usr/bin/mozc_server")).To(BeTrue())
	})

	It("tolerates Linux's \" (deleted)\" readlink suffix", func() {
		Expect(samePath("/usr/bin/mozc_server (deleted)", "/usr/bin/mozc_server")).To(BeTrue())
	})

	It("rejects a genuinely different path", func() {
		Expect(samePath("/usr/bin/evil", "/usr/bin/mozc_server")).To(BeFalse())
	})

	It("rejects a suffix match that isn't the deleted marker", func() {
		Expect(samePath("/usr/bin/mozc_server_old", "/usr/bin/mozc_server")).To(BeFalse())
	})
})
