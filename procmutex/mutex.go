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

// Package procmutex implements the process-wide named mutex (C1): a
// named, user-scoped lock that doubles as the storage vehicle for the
// rendezvous file. Two operations only: Lock (non-blocking, boolean
// success) and LockAndWrite (acquire then atomically publish a payload).
package procmutex

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Mutex is the C1 contract. A Mutex is not reentrant and is meant to be
// held for the lifetime of the owning server process; Release is for
// tests and graceful shutdown paths, the OS reclaims the lock on any
// process exit regardless.
type Mutex interface {
	// Lock attempts to acquire the mutex without blocking. It returns true
	// exactly once per system-wide holder; concurrent acquirers get false.
	Lock() bool

	// LockAndWrite acquires the mutex (if not already held by this
	// instance) and atomically associates payload with it so that other
	// processes can read it back via Payload. An I/O error writing the
	// payload is reported as a false return, and the caller must not
	// assume the lock is held in that case.
	LockAndWrite(payload []byte) bool

	// Payload reads back the bytes currently associated with the mutex,
	// regardless of which process holds the lock. Any process with read
	// access to Path can call this.
	Payload() ([]byte, error)

	// Path returns the on-disk location backing this mutex.
	Path() string

	// Release drops the lock. Safe to call on an unheld mutex.
	Release() error
}

// DefaultPath returns the per-OS conventional lock/rendezvous file path for
// a service name rooted at profileDir (the user profile directory; pass
// "" to use os.UserHomeDir). POSIX gets a hidden dotfile, Windows a plain
// file, matching spec.md §4.1.
func DefaultPath(profileDir, service string) (string, error) {
	if profileDir == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("procmutex: resolve profile dir: %w", err)
		}
		profileDir = dir
	}

	if runtime.GOOS == "windows" {
		return filepath.Join(profileDir, service+".ipc"), nil
	}
	return filepath.Join(profileDir, "."+service+".ipc"), nil
}
