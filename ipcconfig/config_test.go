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

package ipcconfig_test

import (
	"time"

	"github.com/nabbar/ipc-core/ipcconfig"
	"github.com/spf13/viper"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config.Validate", func() {
	It("rejects an empty service name", func() {
		c := ipcconfig.Config{}
		Expect(c.Validate()).To(MatchError(ipcconfig.ErrEmptyService))
	})

	It("fills in DefaultTimeout when Timeout is zero", func() {
		c := ipcconfig.Config{Service: "svc"}
		Expect(c.Validate()).NotTo(HaveOccurred())
		Expect(c.Timeout).To(Equal(ipcconfig.DefaultTimeout))
	})

	It("rejects a negative timeout", func() {
		c := ipcconfig.Config{Service: "svc", Timeout: -time.Second}
		Expect(c.Validate()).To(MatchError(ipcconfig.ErrInvalidTimeout))
	})

	It("leaves an explicit positive timeout untouched", func() {
		c := ipcconfig.Config{Service: "svc", Timeout: 5 * time.Second}
		Expect(c.Validate()).NotTo(HaveOccurred())
		Expect(c.Timeout).To(Equal(5 * time.Second))
	})
})

var _ = Describe("Load", func() {
	It("unmarshals and validates the named key", func() {
		v := viper.New()
		v.Set("ipc.service", "my-service")
		v.Set("ipc.profile_dir", "/tmp/profile")
		v.Set("ipc.max_connections", 16)

		c, err := ipcconfig.Load(v, "ipc")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Service).To(Equal("my-service"))
		Expect(c.ProfileDir).To(Equal("/tmp/profile"))
		Expect(c.MaxConnections).To(Equal(16))
		Expect(c.Timeout).To(Equal(ipcconfig.DefaultTimeout))
	})

	It("propagates validation failure for a missing service name", func() {
		v := viper.New()
		v.Set("ipc.profile_dir", "/tmp/profile")

		_, err := ipcconfig.Load(v, "ipc")
		Expect(err).To(MatchError(ipcconfig.ErrEmptyService))
	})
})
