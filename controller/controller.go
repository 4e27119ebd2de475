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

// Package controller implements the C6 component: the client-side state
// machine that decides whether to call the server directly, launch it
// first, or force a restart because the running server's version has
// drifted from what this client expects.
package controller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/ipc-core/ipcerr"
	"github.com/nabbar/ipc-core/logger"
	"github.com/nabbar/ipc-core/pathinfo"
	"github.com/nabbar/ipc-core/rendezvous"
)

// State is one of the controller's four states.
type State uint8

const (
	StateIdle State = iota
	StateLaunching
	StateVersionCheck
	StateForceRestart
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLaunching:
		return "Launching"
	case StateVersionCheck:
		return "VersionCheck"
	case StateForceRestart:
		return "ForceRestart"
	default:
		return "Unknown"
	}
}

// Event is reported to ServerLauncher.OnEvent when the controller observes
// something the host application may want to surface to a user.
type Event uint8

const (
	EventVersionMismatch Event = iota
	EventBrokenMessage
)

// versionDecision is the outcome of comparing a freshly launched server's
// published protocol and product version against this client's own, per
// the four-way rule: a server protocol newer than the client's cannot be
// talked to at all; an equal protocol is always usable regardless of
// product version; an older protocol is recoverable by forcing a restart,
// with the severity of that restart depending on whether the product
// version drifted too.
type versionDecision uint8

const (
	versionOK versionDecision = iota
	versionServerNewer
	versionOlderProtocolSameProduct
	versionOlderProduct
)

// ServerLauncher is supplied by the host application: it knows how to spawn
// and kill the actual server process. The controller never execs anything
// itself.
type ServerLauncher interface {
	// StartServer spawns the server process. It must return once the
	// process has been launched, not once it is ready to accept
	// connections — the controller handles the readiness wait itself.
	StartServer(ctx context.Context) error

	// TerminateServer asks a running server to exit.
	TerminateServer(ctx context.Context) error

	// OnFatal is called when a launch fails: StartServer returns an error
	// or the server does not become reachable within launchWait. The
	// controller does not retry the launch.
	OnFatal(err error)

	// OnEvent is called for conditions the host may want to show the
	// user, e.g. EventVersionMismatch.
	OnEvent(ev Event)

	// CanConnect reports whether addr currently accepts connections,
	// without sending a request; used for the post-launch readiness
	// poll.
	CanConnect(ctx context.Context, addr pathinfo.Address) bool
}

// Caller is the minimal transport surface the controller drives a request
// through; transport.Client satisfies it.
type Caller interface {
	Call(ctx context.Context, request []byte, timeout time.Duration) ([]byte, ipcerr.Category, error)
}

// CallerFactory builds a Caller for a freshly resolved address, since a
// version mismatch or forced restart means dialing a brand new rendezvous
// address rather than reusing a stale one.
type CallerFactory func(addr pathinfo.Address) Caller

// Controller drives the Idle -> Launching -> VersionCheck -> ForceRestart
// cycle described in spec.md: each Call forces at most one restart of the
// server, so a Call that first has to launch the server can start it twice
// (launch, then restart). A server whose protocol is newer than the
// client's fails the Call without a restart.
type Controller struct {
	mu    sync.Mutex
	state State

	store         *rendezvous.Store
	launcher      ServerLauncher
	newCaller     CallerFactory
	clientVersion pathinfo.ProductVersion
	timeout       time.Duration
	launchWait    time.Duration
	suppressDialog bool
	log           logger.Logger

	callCount            int64
	restartCount         int64
	versionMismatchCount int64
}

// New builds a Controller for one service's Store. launchWait bounds how
// long the controller polls CanConnect after StartServer before giving up.
func New(store *rendezvous.Store, launcher ServerLauncher, newCaller CallerFactory, clientVersion pathinfo.ProductVersion, timeout, launchWait time.Duration, log logger.Logger) *Controller {
	if log == nil {
		log = logger.Discard()
	}
	return &Controller{
		store:         store,
		launcher:      launcher,
		newCaller:     newCaller,
		clientVersion: clientVersion,
		timeout:       timeout,
		launchWait:    launchWait,
		log:           log,
	}
}

// SuppressDialog records whether user-facing prompts before a forced
// restart should be suppressed (e.g. for scripted/headless callers). The
// controller only stores the flag: it never reads it and does not pass it
// to the ServerLauncher.
func (c *Controller) SuppressDialog(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suppressDialog = v
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CallCount, RestartCount, and VersionMismatchCount are running totals kept
// for observability; the teacher's stack has no metrics component wired
// into this layer, so these are plain atomic counters a caller can sample
// and log rather than a prometheus.Collector.
func (c *Controller) CallCount() int64            { return atomic.LoadInt64(&c.callCount) }
func (c *Controller) RestartCount() int64          { return atomic.LoadInt64(&c.restartCount) }
func (c *Controller) VersionMismatchCount() int64  { return atomic.LoadInt64(&c.versionMismatchCount) }

// Call drives one request through the full state machine: if no server
// appears to be running, it launches one; if the running server reports a
// version this client cannot safely talk to, it is resolved per
// checkVersion's four-way decision. At most one forced restart happens per
// Call once a server is already running: InvalidServer (a peer identity
// mismatch, not a version problem) also triggers exactly one restart.
func (c *Controller) Call(ctx context.Context, request []byte) ([]byte, ipcerr.Category, error) {
	atomic.AddInt64(&c.callCount, 1)

	addr, err := c.store.GetPathName()
	if err != nil {
		return c.launchAndCall(ctx, request, false)
	}

	caller := c.newCaller(addr)
	reply, cat, err := caller.Call(ctx, request, c.timeout)
	switch cat {
	case ipcerr.NoError:
		c.setState(StateIdle)
		return reply, cat, err
	case ipcerr.NoConnection, ipcerr.Timeout:
		return c.launchAndCall(ctx, request, false)
	case ipcerr.InvalidServer:
		return c.restartAndCall(ctx, request)
	default:
		return reply, cat, err
	}
}

// EnsureConnection reports whether a version-compatible server is
// currently reachable, launching it on demand if it is not. Unlike Call,
// it never sends an application-level request: a version drift severe
// enough that a normal Call would force a restart is instead reported as
// unreachable here, since there is no request to gate that restart on.
func (c *Controller) EnsureConnection(ctx context.Context) bool {
	if addr, err := c.store.GetPathName(); err == nil && c.launcher.CanConnect(ctx, addr) {
		if decision, verr := c.checkVersion(); verr == nil {
			switch decision {
			case versionOK:
				c.setState(StateIdle)
				return true
			case versionServerNewer:
				atomic.AddInt64(&c.versionMismatchCount, 1)
				c.launcher.OnEvent(EventVersionMismatch)
				return false
			default:
				return false
			}
		}
	}

	c.setState(StateLaunching)
	if _, _, err := c.spawnAndWait(ctx, "server did not become ready"); err != nil {
		return false
	}

	decision, err := c.checkVersion()
	if err != nil {
		return false
	}
	switch decision {
	case versionOK:
		c.setState(StateIdle)
		return true
	case versionServerNewer:
		atomic.AddInt64(&c.versionMismatchCount, 1)
		c.launcher.OnEvent(EventVersionMismatch)
		return false
	default:
		return false
	}
}

// EnsureSession reports whether a session-setup request, as defined by the
// host application, can be completed against the server: it gates success
// on the request's own outcome rather than just reachability, driving it
// through the full Call machinery (launch/restart included).
func (c *Controller) EnsureSession(ctx context.Context, sessionRequest []byte) bool {
	_, cat, err := c.Call(ctx, sessionRequest)
	return err == nil && cat == ipcerr.NoError
}

// spawnAndWait starts the server and polls until it is reachable or
// launchWait elapses, reporting OnFatal on either failure. Shared by every
// path that needs "start, then wait for readiness" without caring whether
// that start followed a fresh launch or a forced restart.
func (c *Controller) spawnAndWait(ctx context.Context, timeoutMsg string) (pathinfo.Address, ipcerr.Category, error) {
	if err := c.launcher.StartServer(ctx); err != nil {
		c.launcher.OnFatal(err)
		return pathinfo.Address{}, ipcerr.NoConnection, ipcerr.New(ipcerr.NoConnection, "launch failed", err)
	}

	addr, ok := c.waitReady(ctx)
	if !ok {
		err := ipcerr.New(ipcerr.Timeout, timeoutMsg, nil)
		c.launcher.OnFatal(err)
		return pathinfo.Address{}, ipcerr.Timeout, err
	}
	return addr, ipcerr.NoError, nil
}

// launchAndCall spawns the server fresh and gates the eventual call on its
// published version. afterRestart is true once this Call has already
// forced one restart: a persistent mismatch at that point is reported
// rather than triggering a second spawn, bounding the respawn loop to at
// most one extra cycle regardless of how severe the drift is.
func (c *Controller) launchAndCall(ctx context.Context, request []byte, afterRestart bool) ([]byte, ipcerr.Category, error) {
	c.setState(StateLaunching)

	addr, cat, err := c.spawnAndWait(ctx, "server did not become ready")
	if err != nil {
		return nil, cat, err
	}

	return c.gateOnVersion(ctx, request, addr, afterRestart)
}

// gateOnVersion applies checkVersion's decision to a server that just
// became reachable. versionServerNewer fails the call outright (spec's
// "no respawn is attempted" case); the two older-version outcomes force a
// restart unless afterRestart already bounds that out, in which case the
// call proceeds against whatever the (already restarted) server reports.
func (c *Controller) gateOnVersion(ctx context.Context, request []byte, addr pathinfo.Address, afterRestart bool) ([]byte, ipcerr.Category, error) {
	c.setState(StateVersionCheck)

	decision, err := c.checkVersion()
	if err != nil {
		return nil, ipcerr.Unknown, err
	}

	switch decision {
	case versionOK:
		c.setState(StateIdle)
		caller := c.newCaller(addr)
		return caller.Call(ctx, request, c.timeout)

	case versionServerNewer:
		atomic.AddInt64(&c.versionMismatchCount, 1)
		c.launcher.OnEvent(EventVersionMismatch)
		return nil, ipcerr.VersionMismatch, ipcerr.New(ipcerr.VersionMismatch, "server protocol is newer than this client", nil)

	case versionOlderProtocolSameProduct:
		if afterRestart {
			c.setState(StateIdle)
			caller := c.newCaller(addr)
			return caller.Call(ctx, request, c.timeout)
		}
		return c.restartAndCall(ctx, request)

	default: // versionOlderProduct
		if afterRestart {
			c.setState(StateIdle)
			caller := c.newCaller(addr)
			return caller.Call(ctx, request, c.timeout)
		}
		return c.restartThenLaunch(ctx, request)
	}
}

// restartAndCall terminates then relaunches the server exactly once and,
// once ready, sends the request directly without re-checking its version.
// Used both for InvalidServer (a peer pid mismatch the restart is expected
// to clear) and for an older-protocol/same-product mismatch.
func (c *Controller) restartAndCall(ctx context.Context, request []byte) ([]byte, ipcerr.Category, error) {
	c.setState(StateForceRestart)
	atomic.AddInt64(&c.restartCount, 1)

	if err := c.launcher.TerminateServer(ctx); err != nil {
		c.log.Warning("terminate server failed", err)
	}

	c.setState(StateLaunching)
	addr, cat, err := c.spawnAndWait(ctx, "server did not become ready after restart")
	if err != nil {
		return nil, cat, err
	}

	c.setState(StateIdle)
	caller := c.newCaller(addr)
	return caller.Call(ctx, request, c.timeout)
}

// restartThenLaunch terminates the running server and re-enters the full
// launch cycle, including a second version check: an older-product
// mismatch is a deeper drift than a same-product protocol bump alone, so
// this verifies the freshly spawned server actually resolved it instead of
// trusting a single restart the way restartAndCall does.
func (c *Controller) restartThenLaunch(ctx context.Context, request []byte) ([]byte, ipcerr.Category, error) {
	c.setState(StateForceRestart)
	atomic.AddInt64(&c.restartCount, 1)

	if err := c.launcher.TerminateServer(ctx); err != nil {
		c.log.Warning("terminate server failed", err)
	}

	return c.launchAndCall(ctx, request, true)
}

// waitReady polls CanConnect until the launcher reports the server is
// reachable or launchWait elapses.
func (c *Controller) waitReady(ctx context.Context) (pathinfo.Address, bool) {
	deadline := time.Now().Add(c.launchWait)
	const pollInterval = 25 * time.Millisecond

	for time.Now().Before(deadline) {
		addr, err := c.store.GetPathName()
		if err == nil && c.launcher.CanConnect(ctx, addr) {
			return addr, true
		}
		select {
		case <-ctx.Done():
			return pathinfo.Address{}, false
		case <-time.After(pollInterval):
		}
	}
	return pathinfo.Address{}, false
}

// checkVersion compares the server's published protocol and product
// version against what this client was built against. A server speaking a
// newer wire protocol can't be talked to at all (the client predates
// whatever changed). An equal protocol is always safe to use regardless of
// product version, since the wire contract itself hasn't moved. An older
// protocol is a lower wire revision this client still knows how to force a
// restart out of; whether that restart alone suffices, or needs a second
// look at the product version too, is captured in which of the two
// "older protocol" outcomes this returns.
func (c *Controller) checkVersion() (versionDecision, error) {
	serverProto, err := c.store.ProtocolVersion()
	if err != nil {
		return versionOK, err
	}
	if serverProto > pathinfo.ProtocolVersion {
		return versionServerNewer, nil
	}
	if serverProto == pathinfo.ProtocolVersion {
		return versionOK, nil
	}

	serverProduct, err := c.store.ProductVersion()
	if err != nil {
		return versionOK, err
	}
	if serverProduct.Compare(c.clientVersion) == 0 {
		return versionOlderProtocolSameProduct, nil
	}
	return versionOlderProduct, nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
