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

// Package rendezvous implements the C2 component: the per-service record
// that tells a client where and how to reach the matching server. A Store
// owns exactly one on-disk record for one service name; Registry hands out
// one Store per name so callers never accidentally create two competing
// instances for the same service.
package rendezvous

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/nabbar/ipc-core/logger"
	"github.com/nabbar/ipc-core/pathinfo"
	"github.com/nabbar/ipc-core/peer"
	"github.com/nabbar/ipc-core/procmutex"
)

// Store owns the rendezvous record for one service name. All exported
// methods are safe for concurrent use; a single mutex serializes create,
// save, and load since they all touch the same backing file.
type Store struct {
	mu      sync.Mutex
	name    string
	path    string
	mtx     procmutex.Mutex
	record  pathinfo.Record
	loaded  bool
	mtime   time.Time
	trigger pathinfo.ReloadTrigger
	product pathinfo.ProductVersion
	log     logger.Logger
}

// New constructs a Store for service name, rooted at the conventional
// per-OS rendezvous path (see procmutex.DefaultPath). profileDir may be
// empty to use the user's home directory.
func New(profileDir, name string, product pathinfo.ProductVersion, log logger.Logger) (*Store, error) {
	path, err := procmutex.DefaultPath(profileDir, name)
	if err != nil {
		return nil, err
	}
	return &Store{
		name:    name,
		path:    path,
		mtx:     procmutex.New(path),
		trigger: pathinfo.DefaultReloadTrigger(),
		product: product,
		log:     log,
	}, nil
}

// CreateNewPathName mints a fresh key, derives the platform address for it,
// and publishes the resulting record as this store's current path name. It
// is the server-side operation: only a server calls this, once, at
// startup.
func (s *Store) CreateNewPathName(sid string) (pathinfo.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var key string
	if runtime.GOOS == "windows" {
		key = pathinfo.NewWindowsKey(sid)
	} else {
		key = pathinfo.NewPOSIXKey()
	}

	addr, err := pathinfo.ForService(key, s.name)
	if err != nil {
		return pathinfo.Address{}, err
	}

	rec := pathinfo.Record{
		Key:             key,
		ProtocolVersion: pathinfo.ProtocolVersion,
		ProductVersion:  s.product,
		ProcessID:       os.Getpid(),
		ThreadID:        os.Getpid(), // Go has no stable OS thread id to surface; pid stands in
	}

	if err := s.savePathNameLocked(rec); err != nil {
		return pathinfo.Address{}, err
	}
	return addr, nil
}

// SavePathName publishes rec as the current rendezvous record, overwriting
// whatever was there before.
func (s *Store) SavePathName(rec pathinfo.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savePathNameLocked(rec)
}

func (s *Store) savePathNameLocked(rec pathinfo.Record) error {
	b, err := pathinfo.Marshal(rec)
	if err != nil {
		return err
	}
	if !s.mtx.LockAndWrite(b) {
		return errSaveFailed
	}
	s.record = rec
	s.loaded = true
	if fi, err := os.Stat(s.path); err == nil {
		s.mtime = fi.ModTime()
	}
	return nil
}

// LoadPathName reads the current on-disk record, honoring the store's
// ReloadTrigger: on ReloadNever, a prior successful load is reused as-is;
// on ReloadOnMTimeChange, the file is re-read only if its mtime has moved
// since the last load.
func (s *Store) LoadPathName() (pathinfo.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded && s.trigger == pathinfo.ReloadNever {
		return s.record, nil
	}

	fi, err := os.Stat(s.path)
	if err != nil {
		return pathinfo.Record{}, err
	}
	if s.loaded && s.trigger == pathinfo.ReloadOnMTimeChange && !fi.ModTime().After(s.mtime) {
		return s.record, nil
	}

	b, err := s.mtx.Payload()
	if err != nil {
		return pathinfo.Record{}, err
	}
	rec, err := pathinfo.Unmarshal(b)
	if err != nil {
		return pathinfo.Record{}, err
	}

	s.record = rec
	s.loaded = true
	s.mtime = fi.ModTime()
	return rec, nil
}

// GetPathName derives the platform rendezvous Address for the currently
// loaded record, loading it first if necessary.
func (s *Store) GetPathName() (pathinfo.Address, error) {
	rec, err := s.LoadPathName()
	if err != nil {
		return pathinfo.Address{}, err
	}
	return pathinfo.ForService(rec.Key, s.name)
}

// ProtocolVersion returns the protocol version carried by the currently
// loaded record.
func (s *Store) ProtocolVersion() (int, error) {
	rec, err := s.LoadPathName()
	if err != nil {
		return 0, err
	}
	return rec.ProtocolVersion, nil
}

// ProductVersion returns the product version carried by the currently
// loaded record.
func (s *Store) ProductVersion() (pathinfo.ProductVersion, error) {
	rec, err := s.LoadPathName()
	if err != nil {
		return pathinfo.ProductVersion{}, err
	}
	return rec.ProductVersion, nil
}

// ServerProcessID returns the pid the record's writer recorded for itself.
func (s *Store) ServerProcessID() (int, error) {
	rec, err := s.LoadPathName()
	if err != nil {
		return 0, err
	}
	return rec.ProcessID, nil
}

// IsValidServer reports whether pid is an acceptable holder of this
// store's rendezvous record, delegating to v. Neither Store nor
// controller.Controller has a sandbox fallback: when LoadPathName cannot
// read the rendezvous file it returns the error, and no replacement key
// is minted on the client side.
func (s *Store) IsValidServer(v peer.Validator, pid int, expectedPath string) bool {
	return v.Validate(pid, expectedPath)
}

// errSaveFailed is returned when the underlying mutex refuses the write
// (e.g. another process holds the lock, or the filesystem rejected it).
var errSaveFailed = &storeError{"rendezvous: failed to acquire or write mutex payload"}

type storeError struct{ msg string }

func (e *storeError) Error() string { return e.msg }
