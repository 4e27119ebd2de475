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
	"context"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	winio "github.com/Microsoft/go-winio"

	"github.com/nabbar/ipc-core/pathinfo"
	"github.com/nabbar/ipc-core/peer"
)

type pipeStream struct {
	conn winio.PipeConn
	pid  int
}

func (s *pipeStream) ReadAllWithDeadline(deadline time.Time) ([]byte, error) {
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("transport: set read deadline: %w", err)
	}
	b, err := io.ReadAll(s.conn)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("transport: read: %w", err)
	}
	return b, nil
}

func (s *pipeStream) WriteAllWithDeadline(deadline time.Time, payload []byte) error {
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("transport: set write deadline: %w", err)
	}
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	return nil
}

func (s *pipeStream) ShutdownWrite() error {
	if err := s.conn.Flush(); err != nil {
		return fmt.Errorf("transport: flush: %w", err)
	}
	if _, err := s.conn.Write(nil); err != nil {
		return fmt.Errorf("transport: half-close: %w", err)
	}
	return nil
}

func (s *pipeStream) PeerPID() int { return s.pid }

func (s *pipeStream) Close() error { return s.conn.Close() }

type pipeListener struct {
	ln   net.Listener
	addr pathinfo.Address
}

// bind opens a named pipe listener in message mode, rejecting remote
// clients outright (PIPE_REJECT_REMOTE_CLIENTS is baked into go-winio's
// ListenPipe), since this module's transport is local-IPC only.
func bind(addr pathinfo.Address) (Listener, error) {
	ln, err := winio.ListenPipe(addr.Addr, &winio.PipeConfig{
		MessageMode:      true,
		InputBufferSize:  4096,
		OutputBufferSize: 4096,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: listen pipe %s: %w", addr.Addr, err)
	}
	return &pipeListener{ln: ln, addr: addr}, nil
}

func (l *pipeListener) Accept(ctx context.Context) (Stream, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := l.ln.Accept()
		ch <- result{c, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("transport: accept: %w", r.err)
		}
		pc, ok := r.conn.(winio.PipeConn)
		if !ok {
			r.conn.Close()
			return nil, fmt.Errorf("transport: accept: not a pipe connection")
		}

		pid := 0
		if h, ok := pipeHandle(pc); ok {
			if p, err := peer.PipePID(h); err == nil {
				pid = p
			} else {
				pid = -1
			}
		}
		return &pipeStream{conn: pc, pid: pid}, nil
	}
}

func (l *pipeListener) Close() error { return l.ln.Close() }

func (l *pipeListener) Addr() pathinfo.Address { return l.addr }

// pipeHandle recovers the raw syscall.Handle backing a winio.PipeConn via
// its SyscallConn, the same indirection net.UnixConn forces on posix.go's
// SO_PEERCRED lookup: go-winio does not expose the handle directly.
func pipeHandle(pc winio.PipeConn) (syscall.Handle, bool) {
	sc, ok := pc.(syscall.Conn)
	if !ok {
		return 0, false
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, false
	}
	var h syscall.Handle
	if ctrlErr := raw.Control(func(fd uintptr) { h = syscall.Handle(fd) }); ctrlErr != nil {
		return 0, false
	}
	return h, true
}

func connect(ctx context.Context, addr pathinfo.Address) (Stream, error) {
	conn, err := winio.DialPipeContext(ctx, addr.Addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr.Addr, err)
	}
	pc, ok := conn.(winio.PipeConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("transport: dial %s: not a pipe connection", addr.Addr)
	}

	pid := 0
	if h, ok := pipeHandle(pc); ok {
		if p, err := peer.PipeServerPID(h); err == nil {
			pid = p
		} else {
			pid = -1
		}
	}
	return &pipeStream{conn: pc, pid: pid}, nil
}
