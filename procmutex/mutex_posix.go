//go:build !windows

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

	"github.com/gofrs/flock"
)

// posixMutex backs Mutex with an advisory flock(2) held via gofrs/flock,
// which already does the right thing across Linux/macOS/BSD. The OS
// reclaims the lock automatically on process exit, abnormal or not,
// satisfying the "release on process exit" contract without any atexit
// bookkeeping here.
type posixMutex struct {
	mu   sync.Mutex
	path string
	fl   *flock.Flock
}

// New constructs a Mutex backed by the file at path. The file is created
// on first LockAndWrite if it does not exist.
func New(path string) Mutex {
	return &posixMutex{path: path, fl: flock.New(path)}
}

func (m *posixMutex) Path() string { return m.path }

func (m *posixMutex) Lock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok, err := m.fl.TryLock()
	return err == nil && ok
}

func (m *posixMutex) LockAndWrite(payload []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.fl.Locked() {
		ok, err := m.fl.TryLock()
		if err != nil || !ok {
			return false
		}
	}

	f := m.fl.File()
	if f == nil {
		return false
	}

	if err := f.Truncate(0); err != nil {
		return false
	}
	if _, err := f.Seek(0, 0); err != nil {
		return false
	}
	if _, err := f.Write(payload); err != nil {
		return false
	}
	return f.Sync() == nil
}

func (m *posixMutex) Payload() ([]byte, error) {
	b, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("procmutex: read payload: %w", err)
	}
	return b, nil
}

func (m *posixMutex) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.fl.Locked() {
		return nil
	}
	return m.fl.Unlock()
}
