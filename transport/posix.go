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

package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/nabbar/ipc-core/pathinfo"
	"github.com/nabbar/ipc-core/peer"
)

type posixStream struct {
	conn *net.UnixConn
	pid  int
}

func (s *posixStream) ReadAllWithDeadline(deadline time.Time) ([]byte, error) {
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("transport: set read deadline: %w", err)
	}
	b, err := io.ReadAll(s.conn)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("transport: read: %w", err)
	}
	return b, nil
}

func (s *posixStream) WriteAllWithDeadline(deadline time.Time, payload []byte) error {
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("transport: set write deadline: %w", err)
	}
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	return nil
}

func (s *posixStream) ShutdownWrite() error {
	if err := s.conn.CloseWrite(); err != nil {
		return fmt.Errorf("transport: half-close: %w", err)
	}
	return nil
}

func (s *posixStream) PeerPID() int { return s.pid }

func (s *posixStream) Close() error { return s.conn.Close() }

type posixListener struct {
	ln         *net.UnixListener
	addr       pathinfo.Address
	unlinkPath string
}

func bind(addr pathinfo.Address) (Listener, error) {
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: addr.Addr, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("transport: bind %s: %w", addr.Addr, err)
	}
	return &posixListener{ln: ln, addr: addr, unlinkPath: addr.UnlinkPath}, nil
}

func (l *posixListener) Accept(ctx context.Context) (Stream, error) {
	type result struct {
		conn *net.UnixConn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := l.ln.AcceptUnix()
		ch <- result{c, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("transport: accept: %w", r.err)
		}
		pid, err := peer.ConnPID(r.conn)
		if err != nil {
			pid = -1
		}
		return &posixStream{conn: r.conn, pid: pid}, nil
	}
}

func (l *posixListener) Close() error {
	err := l.ln.Close()
	if l.unlinkPath != "" {
		_ = os.Remove(l.unlinkPath)
	}
	return err
}

func (l *posixListener) Addr() pathinfo.Address { return l.addr }

func connect(ctx context.Context, addr pathinfo.Address) (Stream, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", addr.Addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr.Addr, err)
	}
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("transport: dial %s: not a unix connection", addr.Addr)
	}
	pid, err := peer.ConnPID(uc)
	if err != nil {
		pid = -1
	}
	return &posixStream{conn: uc, pid: pid}, nil
}
