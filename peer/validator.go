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

// Package peer validates that the process on the other end of an accepted
// connection is who the rendezvous record says the server should be: it
// resolves a pid to an executable path via OS-specific means and compares
// that against the path the client expected to connect to.
package peer

import "sync"

// Validator is the C3 contract. A single Validator is shared by every
// connection a client transport accepts over its lifetime so the
// resolved-path cache stays warm across calls.
type Validator interface {
	// Validate reports whether pid is an acceptable peer for
	// expectedPath. pid == 0 always passes (caller opted out, e.g. a
	// platform transport that cannot report credentials). pid < 0 always
	// fails (the transport reported an error resolving credentials). An
	// empty expectedPath always passes (caller has nothing to compare
	// against).
	Validate(pid int, expectedPath string) bool
}

// cachingValidator resolves pid -> executable path via resolveExe (platform
// specific) and remembers, for each expectedPath, the last pid that
// resolved to it, so repeated calls from the same long-lived peer skip the
// syscall. Any new pid invalidates the entry for the path it's compared
// against, matching spec.md's "invalidate the cache on a new pid" rule.
type cachingValidator struct {
	mu    sync.Mutex
	cache map[string]int // expectedPath -> pid last validated against it
}

// New returns the default OS-aware Validator.
func New() Validator {
	return &cachingValidator{cache: make(map[string]int)}
}

func (v *cachingValidator) Validate(pid int, expectedPath string) bool {
	if pid == 0 {
		return true
	}
	if pid < 0 {
		return false
	}
	if expectedPath == "" {
		return true
	}

	v.mu.Lock()
	cachedPid, ok := v.cache[expectedPath]
	if ok && cachedPid != pid {
		delete(v.cache, expectedPath)
	}
	v.mu.Unlock()
	if ok && cachedPid == pid {
		return true
	}

	exe, err := resolveExe(pid)
	if err != nil {
		return false
	}
	if !samePath(exe, expectedPath) {
		return false
	}

	v.mu.Lock()
	v.cache[expectedPath] = pid
	v.mu.Unlock()
	return true
}

// samePath compares a resolved executable path against the expected one,
// tolerating the "(deleted)" suffix Linux appends to /proc/<pid>/exe's
// readlink target when the on-disk binary has since been replaced or
// removed out from under a still-running process.
func samePath(resolved, expected string) bool {
	const deletedSuffix = " (deleted)"
	if resolved == expected {
		return true
	}
	if len(resolved) > len(deletedSuffix) && resolved[len(resolved)-len(deletedSuffix):] == deletedSuffix {
		return resolved[:len(resolved)-len(deletedSuffix)] == expected
	}
	return false
}
