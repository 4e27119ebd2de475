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
	"bytes"
	"fmt"

	"golang.org/x/sys/unix"
)

// resolveExe recovers the executable path of pid via the kern.procargs2
// sysctl: Darwin has no /proc, and there is no syscall-level equivalent of
// Linux's /proc/<pid>/exe readlink, so tools in this space (ps, lsof, and
// most Go process-inspection libraries) all fall back to this sysctl,
// whose buffer starts with a 4-byte argc followed by the NUL-terminated
// exec path, then the NUL-terminated argv/envp strings.
func resolveExe(pid int) (string, error) {
	buf, err := unix.SysctlRaw("kern.procargs2", pid)
	if err != nil {
		return "", fmt.Errorf("peer: sysctl procargs2 for pid %d: %w", pid, err)
	}
	if len(buf) < 4 {
		return "", fmt.Errorf("peer: short procargs2 buffer for pid %d", pid)
	}

	rest := buf[4:] // skip argc
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", fmt.Errorf("peer: no exec path in procargs2 for pid %d", pid)
	}
	return string(rest[:end]), nil
}
