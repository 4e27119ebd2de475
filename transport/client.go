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
	"context"
	"errors"
	"time"

	"github.com/nabbar/ipc-core/ipcerr"
	"github.com/nabbar/ipc-core/pathinfo"
	"github.com/nabbar/ipc-core/peer"
)

// clientMutex guards one rendezvous channel family against concurrent
// dial attempts from this process. It is only meaningful on Windows, where
// two callers racing to connect to the same named pipe can otherwise both
// trip a launch-on-demand path; newClientMutex returns a no-op on POSIX.
type clientMutex interface {
	lock() bool
	unlock()
}

// Client is the C5 component: a one-shot request/reply caller against a
// single rendezvous address, with an optional peer validation check before
// the request is even sent.
type Client struct {
	addr         pathinfo.Address
	validator    peer.Validator
	expectedPath string
	mutex        clientMutex
}

// NewClient returns a Client bound to addr. A nil validator is replaced by
// peer.New(). expectedPath is the server executable path the caller
// expects to be on the other end of the connection; an empty expectedPath
// disables validation, matching
// Validator's own empty-path rule.
func NewClient(addr pathinfo.Address, validator peer.Validator, expectedPath string) *Client {
	if validator == nil {
		validator = peer.New()
	}
	return &Client{addr: addr, validator: validator, expectedPath: expectedPath, mutex: newClientMutex(addr)}
}

// Call dials addr, writes request, reads the full reply, and reports which
// ipcerr.Category (if any) describes the failure. A nil error with
// ipcerr.NoError means the call succeeded and reply holds the response.
func (c *Client) Call(ctx context.Context, request []byte, timeout time.Duration) ([]byte, ipcerr.Category, error) {
	if !c.mutex.lock() {
		return nil, ipcerr.NoConnection, ipcerr.New(ipcerr.NoConnection, "client mutex", nil)
	}
	defer c.mutex.unlock()

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := Connect(dialCtx, c.addr)
	if err != nil {
		if errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
			return nil, ipcerr.Timeout, ipcerr.New(ipcerr.Timeout, "connect", err)
		}
		return nil, ipcerr.NoConnection, ipcerr.New(ipcerr.NoConnection, "connect", err)
	}
	defer conn.Close()

	if !c.validator.Validate(conn.PeerPID(), c.expectedPath) {
		return nil, ipcerr.InvalidServer, ipcerr.New(ipcerr.InvalidServer, "peer validation failed", nil)
	}

	deadline := time.Now().Add(timeout)
	if err := conn.WriteAllWithDeadline(deadline, request); err != nil {
		if isTimeout(err) {
			return nil, ipcerr.Timeout, ipcerr.New(ipcerr.Timeout, "write", err)
		}
		return nil, ipcerr.WriteError, ipcerr.New(ipcerr.WriteError, "write", err)
	}
	_ = conn.ShutdownWrite()

	reply, err := conn.ReadAllWithDeadline(deadline)
	if err != nil {
		if isTimeout(err) {
			return nil, ipcerr.Timeout, ipcerr.New(ipcerr.Timeout, "read", err)
		}
		return nil, ipcerr.ReadError, ipcerr.New(ipcerr.ReadError, "read", err)
	}

	return reply, ipcerr.NoError, nil
}

// isTimeout reports whether err is (or wraps) a deadline/timeout error, the
// distinguishing signal the table in spec.md's error handling section uses
// to pick ipcerr.Timeout over a bare ReadError/WriteError.
func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
