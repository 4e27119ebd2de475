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

package peer

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32                     = windows.NewLazySystemDLL("kernel32.dll")
	procGetNamedPipeClientProcessId = modkernel32.NewProc("GetNamedPipeClientProcessId")
	procGetNamedPipeServerProcessId = modkernel32.NewProc("GetNamedPipeServerProcessId")
)

// PipePID extracts the pid of the process on the other end of an accepted
// named pipe handle via GetNamedPipeClientProcessId, the Windows analogue
// of SO_PEERCRED: the pipe file system tracks the connecting process, and
// this call returns it without the client having to self-report anything.
func PipePID(handle syscall.Handle) (int, error) {
	var pid uint32
	r1, _, e1 := procGetNamedPipeClientProcessId.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(&pid)),
	)
	if r1 == 0 {
		return -1, fmt.Errorf("peer: GetNamedPipeClientProcessId: %w", e1)
	}
	return int(pid), nil
}

// PipeServerPID is PipePID's mirror image: called on a client-side pipe
// handle, it returns the pid of the process listening on the other end via
// GetNamedPipeServerProcessId. Transport uses this to resolve the server's
// pid on the dialing side, the same way ConnPID is symmetric on POSIX.
func PipeServerPID(handle syscall.Handle) (int, error) {
	var pid uint32
	r1, _, e1 := procGetNamedPipeServerProcessId.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(&pid)),
	)
	if r1 == 0 {
		return -1, fmt.Errorf("peer: GetNamedPipeServerProcessId: %w", e1)
	}
	return int(pid), nil
}
