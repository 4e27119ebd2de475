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

// Package transport is the narrow cross-platform trait the server (C4) and
// client (C5) transports are built on: bind/accept/connect plus a Stream
// abstraction with deadline-bound I/O and a half-close, so the platform
// split lives in two small files (posix.go, pipe_windows.go) instead of a
// forest of inline build-tag branches through the protocol logic.
package transport

import (
	"context"
	"time"

	"github.com/nabbar/ipc-core/pathinfo"
)

// Stream is one accepted or dialed connection: a single request/reply
// round trip, by contract never reused across calls.
type Stream interface {
	// ReadAllWithDeadline reads until EOF or half-close, or until deadline
	// elapses, whichever happens first.
	ReadAllWithDeadline(deadline time.Time) ([]byte, error)

	// WriteAllWithDeadline writes the full payload or fails trying, under
	// deadline.
	WriteAllWithDeadline(deadline time.Time, payload []byte) error

	// ShutdownWrite half-closes the write side so the peer's
	// ReadAllWithDeadline observes EOF without the whole connection
	// closing, letting it still write its reply back.
	ShutdownWrite() error

	// PeerPID is the OS-reported pid of the process on the other end, or 0
	// if the platform transport does not support peer credentials.
	PeerPID() int

	// Close releases the connection. Safe to call after ShutdownWrite.
	Close() error
}

// Listener accepts Streams on the bound rendezvous address.
type Listener interface {
	Accept(ctx context.Context) (Stream, error)
	Close() error
	Addr() pathinfo.Address
}

// Bind opens a Listener on addr. The concrete implementation is chosen at
// build time (posix.go on POSIX hosts, pipe_windows.go on Windows);
// addr.Network is not consulted.
func Bind(addr pathinfo.Address) (Listener, error) {
	return bind(addr)
}

// Connect dials addr, failing if the connection is not established before
// ctx is done.
func Connect(ctx context.Context, addr pathinfo.Address) (Stream, error) {
	return connect(ctx, addr)
}
