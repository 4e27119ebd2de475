//go:build windows

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

package transport

import (
	"sync"

	"golang.org/x/sys/windows"

	"github.com/nabbar/ipc-core/pathinfo"
)

// windowsClientMutex serializes this process's Client.Call attempts against
// one rendezvous channel family behind a named OS mutex, so two client
// goroutines (or two client processes sharing a pipe name) racing to dial
// the same named pipe don't both trip the launch-on-demand path at once.
// Named pipes have no POSIX-style SO_REUSEADDR equivalent for this, so the
// mutex name is derived straight from the pipe address.
type windowsClientMutex struct {
	mu     sync.Mutex
	name   string
	handle windows.Handle
}

func newClientMutex(addr pathinfo.Address) clientMutex {
	return &windowsClientMutex{name: `Local\ipc-core-client-` + mutexSafeName(addr.Addr)}
}

// lock opens (or creates) the named mutex and waits on it. The handle is
// kept on the struct so unlock can release and close the same handle;
// Client.Call always pairs this with a deferred unlock on every exit path.
func (m *windowsClientMutex) lock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := windows.UTF16PtrFromString(m.name)
	if err != nil {
		return false
	}
	h, err := windows.CreateMutex(nil, false, p)
	if err != nil {
		return false
	}

	ev, err := windows.WaitForSingleObject(h, windows.INFINITE)
	if err != nil || (ev != windows.WAIT_OBJECT_0 && ev != windows.WAIT_ABANDONED) {
		_ = windows.CloseHandle(h)
		return false
	}
	m.handle = h
	return true
}

func (m *windowsClientMutex) unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == 0 {
		return
	}
	_ = windows.ReleaseMutex(m.handle)
	_ = windows.CloseHandle(m.handle)
	m.handle = 0
}

// mutexSafeName replaces the one character CreateMutex's name argument
// forbids that our own pipe addresses can contain: backslash, which Windows
// reserves as the object-namespace separator.
func mutexSafeName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\\' {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}
