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

package pathinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// AddressPrefix is the platform-wide rendezvous namespace constant
// reproduced from the external addressing table: pipe names on Windows and
// abstract/file socket names on POSIX all live under this prefix.
const AddressPrefix = "mozc"

// Network names an address's transport family, mirroring net.Listen's
// network argument so Address.Network can be passed straight through.
type Network string

const (
	NetworkNamedPipe Network = "pipe"
	NetworkUnix      Network = "unix"
)

// Address is a fully derived rendezvous endpoint: what to bind/dial, and
// whether the bound path must be unlinked by the server on clean shutdown.
type Address struct {
	Network    Network
	Addr       string
	Abstract   bool // Linux abstract-namespace socket: never unlinked
	UnlinkPath string
}

// ForService derives the rendezvous address for one (key, service name)
// pair on the current GOOS. Go has no idiomatic Mach-port binding in the
// dependency corpus this module draws on, so macOS uses the same
// file-backed UNIX domain socket convention as the Linux non-abstract
// fallback (documented in DESIGN.md); the wire behavior spec.md requires
// — one request, one reply, then close — is identical either way.
func ForService(key, name string) (Address, error) {
	if !ValidKey(key) {
		return Address{}, ErrInvalidKey
	}
	switch runtime.GOOS {
	case "windows":
		return Address{
			Network: NetworkNamedPipe,
			Addr:    fmt.Sprintf(`\\.\pipe\%s\%s.%s`, AddressPrefix, key, name),
		}, nil
	case "linux":
		return abstractAddress(key, name), nil
	default: // darwin and any other POSIX host
		return fileAddress(key, name)
	}
}

// abstractAddress returns the Linux abstract-namespace address: a leading
// NUL byte followed by "mozc.<key>.<name>", which net.Listen("unix", ...)
// accepts verbatim and which the kernel never materializes on disk.
func abstractAddress(key, name string) Address {
	return Address{
		Network:  NetworkUnix,
		Addr:     "\x00" + AddressPrefix + "." + key + "." + name,
		Abstract: true,
	}
}

// fileAddress returns the POSIX file-backed fallback:
// .mozc.<key>.<name> under os.TempDir() (/tmp unless $TMPDIR is set),
// creating the parent directory best-effort.
func fileAddress(key, name string) (Address, error) {
	dir := os.TempDir()
	_ = os.MkdirAll(dir, 0o755)
	p := filepath.Join(dir, "."+AddressPrefix+"."+key+"."+name)
	return Address{
		Network:    NetworkUnix,
		Addr:       p,
		UnlinkPath: p,
	}, nil
}

// ReloadTrigger replaces the hand-rolled "reload if mtime advanced"
// #ifdef with an explicit value type: rendezvous.Store consults it instead
// of branching on runtime.GOOS inline.
type ReloadTrigger uint8

const (
	// ReloadOnMTimeChange reloads the on-disk record whenever its mtime has
	// advanced past the last observed value (POSIX).
	ReloadOnMTimeChange ReloadTrigger = iota
	// ReloadNever always trusts the in-memory record once loaded (Windows,
	// where the pipe file is removed on handle close so a second stat
	// would race the filesystem).
	ReloadNever
)

// DefaultReloadTrigger returns the trigger the teacher's source used
// per-OS: mtime-based on POSIX, never on Windows.
func DefaultReloadTrigger() ReloadTrigger {
	if runtime.GOOS == "windows" {
		return ReloadNever
	}
	return ReloadOnMTimeChange
}
