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
	"sync"
	"time"

	"github.com/nabbar/ipc-core/logger"
	"github.com/nabbar/ipc-core/pathinfo"
	"github.com/nabbar/ipc-core/peer"
)

// Handler processes one request payload and returns the reply payload to
// write back before the connection closes.
type Handler func(ctx context.Context, pid int, request []byte) ([]byte, error)

// Server is the C4 component: it owns a Listener and runs Handler against
// every accepted Stream, one at a time per connection, each on its own
// goroutine.
type Server struct {
	ln        Listener
	handler   Handler
	validator peer.Validator
	expectPid string // reserved for future peer-path comparisons; empty disables the check
	timeout   time.Duration
	log       logger.Logger

	wg       sync.WaitGroup
	cancel   context.CancelFunc
	doneCh   chan struct{}
	closeErr error
}

// acceptRetryLimit bounds consecutive Accept failures before the server
// gives up and shuts itself down; a single transient EMFILE or ECONNABORTED
// should not be fatal, but an unbroken run of failures means the listener
// itself is dead.
const acceptRetryLimit = 5

// NewServer binds addr and returns a Server ready to Serve. timeout bounds
// how long any single accepted connection's read/write phase may take.
func NewServer(addr pathinfo.Address, handler Handler, timeout time.Duration, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Discard()
	}
	ln, err := Bind(addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		ln:        ln,
		handler:   handler,
		validator: peer.New(),
		timeout:   timeout,
		log:       log,
		doneCh:    make(chan struct{}),
	}, nil
}

// Serve runs the accept loop until ctx is cancelled or Terminate is called.
// It blocks the calling goroutine; run it in its own goroutine to get a
// non-blocking server.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer close(s.doneCh)

	failures := 0
	for {
		conn, err := s.ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			failures++
			s.log.Warning("accept failed", err)
			if failures >= acceptRetryLimit {
				s.closeErr = err
				s.wg.Wait()
				return err
			}
			continue
		}
		failures = 0

		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn Stream) {
	defer s.wg.Done()
	defer conn.Close()

	deadline := time.Now().Add(s.timeout)
	req, err := conn.ReadAllWithDeadline(deadline)
	if err != nil {
		s.log.Warning("read failed", err)
		return
	}

	reply, err := s.handler(ctx, conn.PeerPID(), req)
	if err != nil {
		s.log.Error("handler failed", err)
		return
	}

	if err := conn.WriteAllWithDeadline(time.Now().Add(s.timeout), reply); err != nil {
		s.log.Warning("write failed", err)
		return
	}
	_ = conn.ShutdownWrite()
}

// Terminate stops the accept loop and waits for in-flight connections to
// finish, then closes the listener.
func (s *Server) Terminate() error {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.doneCh
	return s.ln.Close()
}

// Addr reports the bound rendezvous address.
func (s *Server) Addr() pathinfo.Address { return s.ln.Addr() }
