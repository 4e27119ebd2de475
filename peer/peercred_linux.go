//go:build linux

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

// ConnPID extracts the kernel-verified pid of the process on the other end
// of a connected AF_UNIX stream socket via SO_PEERCRED. SO_PEERCRED is
// symmetric: transport calls this from both the accepting and the dialing
// side. The dialing side hands the result to Validator.Validate; the
// accepting side passes it to the server's Handler. It only makes sense
// immediately around connection establishment, before the peer can exit and
// its pid be reused.
func ConnPID(conn *net.UnixConn) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return -1, fmt.Errorf("peer: raw conn: %w", err)
	}

	var (
		cred    *unix.Ucred
		credErr error
	)
	ctrlErr := raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if ctrlErr != nil {
		return -1, fmt.Errorf("peer: control: %w", ctrlErr)
	}
	if credErr != nil {
		return -1, fmt.Errorf("peer: SO_PEERCRED: %w", credErr)
	}
	if cred.Pid <= 0 {
		return -1, fmt.Errorf("peer: invalid peer pid %d", cred.Pid)
	}
	return int(cred.Pid), nil
}
