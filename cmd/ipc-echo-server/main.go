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

// Command ipc-echo-server is a minimal C4 server: it publishes a
// rendezvous record, binds the derived address, and echoes back whatever
// a client sends it. It exists to exercise the full C1-C4 stack
// end to end, not as a production service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nabbar/ipc-core/logger"
	"github.com/nabbar/ipc-core/pathinfo"
	"github.com/nabbar/ipc-core/rendezvous"
	"github.com/nabbar/ipc-core/transport"
)

var (
	flagService    string
	flagProfileDir string
	flagTimeout    time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "ipc-echo-server",
		Short: "Run a rendezvous-backed echo server",
		RunE:  run,
	}
	root.Flags().StringVar(&flagService, "service", "ipc-echo", "service name")
	root.Flags().StringVar(&flagProfileDir, "profile-dir", "", "override rendezvous profile directory")
	root.Flags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "per-connection deadline")

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

	addr, err := store.CreateNewPathName(currentUserSid())
	if err != nil {
		return fmt.Errorf("publish rendezvous record: %w", err)
	}
	log.Info("rendezvous record published", addr.Addr)

	srv, err := transport.NewServer(addr, echoHandler(log), flagTimeout, log)
	if err != nil {
		return fmt.Errorf("bind server: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutting down", nil)
		_ = srv.Terminate()
		cancel()
	}()

	return srv.Serve(ctx)
}

func echoHandler(log logger.Logger) transport.Handler {
	return func(_ context.Context, pid int, request []byte) ([]byte, error) {
		log.Debug("handling request", request, "peer_pid", pid)
		return request, nil
	}
}

// currentUserSid stands in for a real SID lookup (golang.org/x/sys/windows
// LookupSID on Windows); POSIX builds never consult it since
// rendezvous.Store.CreateNewPathName only uses it on GOOS=="windows".
func currentUserSid() string {
	return fmt.Sprintf("uid-%d", os.Getuid())
}
