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

// Command ipc-echo-client drives controller.Controller against the server
// in cmd/ipc-echo-server: it launches the server on demand, waits for it
// to publish a rendezvous record, and sends one request through it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nabbar/ipc-core/controller"
	"github.com/nabbar/ipc-core/logger"
	"github.com/nabbar/ipc-core/pathinfo"
	"github.com/nabbar/ipc-core/rendezvous"
	"github.com/nabbar/ipc-core/transport"
)

var (
	flagService    string
	flagProfileDir string
	flagMessage    string
	flagServerPath string
)

func main() {
	root := &cobra.Command{
		Use:   "ipc-echo-client",
		Short: "Send one message through the IPC core, launching the server if needed",
		RunE:  run,
	}
	root.Flags().StringVar(&flagService, "service", "ipc-echo", "service name")
	root.Flags().StringVar(&flagProfileDir, "profile-dir", "", "override rendezvous profile directory")
	root.Flags().StringVar(&flagMessage, "message", "hello", "payload to send")
	root.Flags().StringVar(&flagServerPath, "server-path", "ipc-echo-server", "server binary to launch on demand")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	log := logger.New(logrus.StandardLogger())
	log.SetLevel(logger.InfoLevel)

	version := pathinfo.ProductVersion{1, 0, 0, 0}
	store, err := rendezvous.New(flagProfileDir, flagService, version, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	serverPath, err := exec.LookPath(flagServerPath)
	if err != nil {
		return fmt.Errorf("resolve server path: %w", err)
	}

	launcher := &execLauncher{path: serverPath, log: log}
	newCaller := func(addr pathinfo.Address) controller.Caller {
		return transport.NewClient(addr, nil, serverPath)
	}

	ctl := controller.New(store, launcher, newCaller, version, 5*time.Second, 3*time.Second, log)

	reply, cat, err := ctl.Call(cmd.Context(), []byte(flagMessage))
	if err != nil {
		return fmt.Errorf("call failed (%s): %w", cat, err)
	}
	fmt.Println(string(reply))
	return nil
}

// execLauncher spawns the echo server as a child process; a real
// application would instead know its own install layout, but the
// mechanism (os/exec, no shell) is the same either way.
type execLauncher struct {
	cmd  *exec.Cmd
	path string
	log  logger.Logger
}

func (l *execLauncher) StartServer(ctx context.Context) error {
	l.cmd = exec.CommandContext(ctx, l.path)
	l.cmd.Stdout = os.Stdout
	l.cmd.Stderr = os.Stderr
	return l.cmd.Start()
}

func (l *execLauncher) TerminateServer(_ context.Context) error {
	if l.cmd == nil || l.cmd.Process == nil {
		return nil
	}
	return l.cmd.Process.Kill()
}

func (l *execLauncher) OnFatal(err error) {
	l.log.Error("server launch failed permanently", err)
}

func (l *execLauncher) OnEvent(ev controller.Event) {
	l.log.Warning("controller event", nil, "event", ev)
}

func (l *execLauncher) CanConnect(ctx context.Context, addr pathinfo.Address) bool {
	dialCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	s, err := transport.Connect(dialCtx, addr)
	if err != nil {
		return false
	}
	_ = s.Close()
	return true
}
