// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package reclaim forces garbage collection and waits for the cleanups it queues.
package reclaim

import (
	"runtime"
	"sync"
)

// Collector is the reclamation subsystem used by leak checks.
type Collector interface {
	// Collect runs a full, blocking collection cycle.
	Collect()
	// WaitForCleanups blocks until cleanups queued by the last Collect have run.
	WaitForCleanups()
}

// Runtime collects through the Go runtime.
type Runtime struct {
	mu      sync.Mutex
	barrier chan struct{}
}

// NewRuntime returns a Collector backed by runtime.GC.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// sentinel has a pointer field so it is never placed in a tiny allocation block.
type sentinel struct {
	next *sentinel
}

// Collect arms a cleanup barrier and runs runtime.GC, which returns only after
// the cycle is fully swept, so every weak pointer to an unreachable object is
// already nil and its cleanups are queued.
func (r *Runtime) Collect() {
	barrier := make(chan struct{})
	arm(barrier)

	r.mu.Lock()
	r.barrier = barrier
	r.mu.Unlock()

	runtime.GC()
}

//go:noinline
func arm(barrier chan struct{}) {
	s := &sentinel{}
	runtime.AddCleanup(s, func(c chan struct{}) { close(c) }, barrier)
}

// WaitForCleanups blocks until the barrier armed by the last Collect fired,
// which means the cleanup goroutine has started working through the cleanups
// queued by that cycle. The runtime does not order cleanups within a cycle, so
// this is the closest public equivalent of waiting for pending finalizers.
// There is no timeout. Without a preceding Collect it returns immediately.
func (r *Runtime) WaitForCleanups() {
	r.mu.Lock()
	barrier := r.barrier
	r.barrier = nil
	r.mu.Unlock()

	if barrier == nil {
		return
	}
	<-barrier
}

// Funcs adapts a pair of functions to a Collector. Nil fields are no-ops.
type Funcs struct {
	CollectFunc func()
	WaitFunc    func()
}

func (f Funcs) Collect() {
	if f.CollectFunc != nil {
		f.CollectFunc()
	}
}

func (f Funcs) WaitForCleanups() {
	if f.WaitFunc != nil {
		f.WaitFunc()
	}
}
