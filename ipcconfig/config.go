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

// Package ipcconfig holds the settings a server or client needs to stand up
// its side of the IPC core, and knows how to load them through Viper so a
// host application can keep them in YAML/JSON/env alongside its own config.
package ipcconfig

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// ErrEmptyService is returned by Validate when Service is blank: every
// rendezvous path, mutex path, and transport address is derived from it.
var ErrEmptyService = errors.New("ipcconfig: service name must not be empty")

// ErrInvalidTimeout is returned by Validate when Timeout is zero or
// negative.
var ErrInvalidTimeout = errors.New("ipcconfig: timeout must be positive")

// Config describes one service's IPC endpoint, shared by both the server
// and client sides (a client only ever reads Service/ProfileDir/Timeout;
// MaxConnections is server-only).
type Config struct {
	// Service names the IPC channel; it becomes part of the rendezvous
	// key namespace and the advisory-lock file name.
	Service string `mapstructure:"service"`

	// ProfileDir overrides the user profile directory the rendezvous and
	// mutex files are rooted under. Empty uses os.UserHomeDir.
	ProfileDir string `mapstructure:"profile_dir"`

	// Timeout bounds a single request/reply round trip on both sides.
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxConnections is the server-side connection cap. transport.Server
	// does not read it: NewServer takes no limit and applies no cap.
	MaxConnections int `mapstructure:"max_connections"`
}

// DefaultTimeout matches the conventional round-trip budget for a local
// IPC call: generous enough for the target process to wake from a cold
// start, tight enough that a caller isn't left hanging on a dead server.
const DefaultTimeout = 30 * time.Second

// Validate reports whether c is usable, filling in DefaultTimeout when
// Timeout is left at its zero value rather than rejecting it outright.
func (c *Config) Validate() error {
	if c.Service == "" {
		return ErrEmptyService
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// Load reads a Config out of v under the given key prefix (e.g. "ipc"),
// applying the same defaulting Validate does.
func Load(v *viper.Viper, key string) (Config, error) {
	var c Config
	if err := v.UnmarshalKey(key, &c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
