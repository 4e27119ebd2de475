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

package rendezvous

import (
	"fmt"
	"sync"

	"github.com/nabbar/ipc-core/logger"
	"github.com/nabbar/ipc-core/pathinfo"
)

// Registry hands out one Store per service name, explicitly constructed by
// the caller rather than reached for through a package-level global: two
// Registry instances in the same process (e.g. in tests) never share
// state, and a caller that only ever needs one service still has to name
// it.
type Registry struct {
	mu    sync.Mutex
	stores map[string]*Store

	profileDir string
	product    pathinfo.ProductVersion
	log        logger.Logger
}

// NewRegistry returns an empty Registry. profileDir overrides the home
// directory every Store it hands out resolves its path under.
func NewRegistry(profileDir string, product pathinfo.ProductVersion, log logger.Logger) *Registry {
	return &Registry{
		stores:     make(map[string]*Store),
		profileDir: profileDir,
		product:    product,
		log:        log,
	}
}

// StoreFor returns the Store for name, constructing it on first request.
// Subsequent calls with the same name return the same instance.
func (r *Registry) StoreFor(name string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[name]; ok {
		return s, nil
	}

	s, err := New(r.profileDir, name, r.product, r.log)
	if err != nil {
		return nil, fmt.Errorf("rendezvous: store for %q: %w", name, err)
	}
	r.stores[name] = s
	return s, nil
}
