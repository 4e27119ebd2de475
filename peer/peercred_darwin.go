//go:build darwin

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

package peer

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// ConnPID extracts the peer pid of a connected AF_UNIX stream socket via
// the macOS-only LOCAL_PEEREPID getsockopt (SOL_LOCAL level). Unlike
// Linux's SO_PEERCRED, BSD's LOCAL_PEERCRED only carries uid/gid
// (struct xucred has no pid field), so Darwin needs this separate,
// Apple-specific option. LOCAL_PEEREPID is symmetric like SO_PEERCRED:
// both the accepting and the dialing side can call it on their own fd.
func ConnPID(conn *net.UnixConn) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return -1, fmt.Errorf("peer: raw conn: %w", err)
	}

	var (
		pid     int
		credErr error
	)
	ctrlErr := raw.Control(func(fd uintptr) {
		pid, credErr = unix.GetsockoptInt(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEEREPID)
	})
	if ctrlErr != nil {
		return -1, fmt.Errorf("peer: control: %w", ctrlErr)
	}
	if credErr != nil {
		return -1, fmt.Errorf("peer: LOCAL_PEEREPID: %w", credErr)
	}
	if pid <= 0 {
		return -1, fmt.Errorf("peer: invalid peer pid %d", pid)
	}
	return pid, nil
}
