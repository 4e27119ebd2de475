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
	"crypto/sha1" //nolint:gosec // used as a stable per-user fingerprint, not a security boundary
	"fmt"

	"github.com/google/uuid"
)

// NewPOSIXKey mints a fresh 128-bit key for POSIX hosts (Linux, macOS)
// from a single UUIDv4: its 16 bytes become the key. 122 of those bits are
// random; the other 6 are the UUID's fixed version and variant bits.
func NewPOSIXKey() string {
	id := uuid.New()
	return EncodeKey(id[:])
}

// NewWindowsKey derives a stable per-user key from the user's SID: a
// SHA-1 digest of sid, truncated to 16 bytes and hex-encoded. Unlike
// NewPOSIXKey this is deterministic for a given sid, so repeated calls for
// the same user yield the same rendezvous key across process restarts.
func NewWindowsKey(sid string) string {
	sum := sha1.Sum([]byte(sid)) //nolint:gosec
	return EncodeKey(sum[:16])
}

// Sid is a minimal accessor used by callers that already have a SID string
// in hand (typically from golang.org/x/sys/windows); kept as a thin
// function rather than a type so pathinfo has no Windows build tag of its
// own.
func Sid(raw []byte) string {
	return fmt.Sprintf("%x", raw)
}
