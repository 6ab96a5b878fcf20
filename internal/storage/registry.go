// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import (
	"os"
	"runtime"
	"sync"
)

// Registry tracks every scratch file this process has created, so that
// CleanUp can reclaim them all at shutdown and Gc can sweep files whose
// owning DataStorage was dropped without an explicit Close (Design Note
// 1: an explicit owner plus a process-wide registry, rather than relying
// on finalization alone).
type Registry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewRegistry returns an empty scratch-file registry.
func NewRegistry() *Registry {
	return &Registry{paths: make(map[string]struct{})}
}

func (r *Registry) register(path string) {
	r.mu.Lock()
	r.paths[path] = struct{}{}
	r.mu.Unlock()
}

func (r *Registry) unregister(path string) {
	r.mu.Lock()
	delete(r.paths, path)
	r.mu.Unlock()
}

// CleanUp deletes every scratch file still registered and empties the
// registry. Safe to call at host shutdown; safe to call more than once.
func (r *Registry) CleanUp() {
	r.mu.Lock()
	paths := make([]string, 0, len(r.paths))
	for p := range r.paths {
		paths = append(paths, p)
	}
	r.paths = make(map[string]struct{})
	r.mu.Unlock()

	for _, p := range paths {
		os.Remove(p)
	}
}

// Gc triggers a best-effort finalization sweep: it forces a couple of GC
// cycles so that any diskBacking abandoned without an explicit Close runs
// its finalizer (which deletes its file and unregisters it), then returns.
// This is a backstop for abandoned storages, not the primary cleanup path.
func (r *Registry) Gc() {
	runtime.GC()
	runtime.GC()
}

// reclaimOneForRetry is called after a single transient I/O failure
// (§4.C, §7): it gives the registry a chance to free scratch files before
// the operation is retried once.
func (r *Registry) reclaimOneForRetry() {
	r.Gc()
}
