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

package procmutex

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/windows"
)

// windowsMutex backs Mutex with a CreateFile handle opened with
// FILE_SHARE_DELETE alongside the usual read/write sharing: the owning
// process can rename or delete the file out from under itself without the
// open handle blocking that, matching spec.md §4.1's Windows requirement. The exclusive byte
// range lock ([0,1)) is what actually provides mutual exclusion, since
// FILE_SHARE_DELETE alone would let a second process open the file too.
type windowsMutex struct {
	mu     sync.Mutex
	path   string
	handle windows.Handle
	locked bool
}

// New constructs a Mutex backed by the file at path.
func New(path string) Mutex {
	return &windowsMutex{path: path, handle: windows.InvalidHandle}
}

func (m *windowsMutex) Path() string { return m.path }

func (m *windowsMutex) open() error {
	if m.handle != windows.InvalidHandle {
		return nil
	}
	p, err := windows.UTF16PtrFromString(m.path)
	if err != nil {
		return fmt.Errorf("procmutex: encode path: %w", err)
	}
	h, err := windows.CreateFile(
		p,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_ALWAYS,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return fmt.Errorf("procmutex: open %s: %w", m.path, err)
	}
	m.handle = h
	return nil
}

func (m *windowsMutex) Lock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locked {
		return true
	}
	if err := m.open(); err != nil {
		return false
	}

	var ov windows.Overlapped
	err := windows.LockFileEx(
		m.handle,
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, 1, 0,
		&ov,
	)
	if err != nil {
		return false
	}
	m.locked = true
	return true
}

func (m *windowsMutex) LockAndWrite(payload []byte) bool {
	m.mu.Lock()
	locked := m.locked
	m.mu.Unlock()

	if !locked && !m.Lock() {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := windows.SetFilePointer(m.handle, 0, nil, windows.FILE_BEGIN); err != nil {
		return false
	}
	if err := windows.SetEndOfFile(m.handle); err != nil {
		return false
	}
	var written uint32
	if err := windows.WriteFile(m.handle, payload, &written, nil); err != nil {
		return false
	}
	return int(written) == len(payload)
}

func (m *windowsMutex) Payload() ([]byte, error) {
	b, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("procmutex: read payload: %w", err)
	}
	return b, nil
}

func (m *windowsMutex) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.locked {
		return nil
	}

	var ov windows.Overlapped
	if err := windows.UnlockFileEx(m.handle, 0, 1, 0, &ov); err != nil {
		return fmt.Errorf("procmutex: unlock: %w", err)
	}
	m.locked = false
	if m.handle != windows.InvalidHandle {
		err := windows.CloseHandle(m.handle)
		m.handle = windows.InvalidHandle
		if err != nil {
			return fmt.Errorf("procmutex: close: %w", err)
		}
	}
	return nil
}
