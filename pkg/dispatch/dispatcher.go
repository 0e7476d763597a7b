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

// Package dispatch implements a cooperative, single-threaded job queue in the
// style of a UI thread dispatcher. Jobs may be posted from any goroutine, but
// they only ever run on the goroutine that drains the queue.
package dispatch

import (
	"container/heap"
	"context"
	"errors"
	"sync"
)

var (
	// ErrClosed is returned when a job is posted to a closed dispatcher.
	ErrClosed = errors.New("dispatch: dispatcher is closed")

	// ErrNilJob is returned when a nil job is posted.
	ErrNilJob = errors.New("dispatch: nil job")

	// ErrAlreadyRunning is returned when Run is called while another Run is active.
	ErrAlreadyRunning = errors.New("dispatch: dispatcher is already running")
)

// Priority orders queued jobs. Higher priorities run first.
type Priority int

const (
	Background Priority = iota
	Layout
	Render
	Normal
	Send
)

func (p Priority) String() string {
	switch p {
	case Background:
		return "background"
	case Layout:
		return "layout"
	case Render:
		return "render"
	case Normal:
		return "normal"
	case Send:
		return "send"
	}
	return "unknown"
}

type job struct {
	fn   func()
	prio Priority
	seq  uint64
}

// jobHeap is a max-heap on priority, FIFO within a priority.
type jobHeap []job

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].prio != h[j].prio {
		return h[i].prio > h[j].prio
	}
	return h[i].seq < h[j].seq
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) {
	*h = append(*h, x.(job))
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	// the backing array must not keep the closure (and whatever it captured) alive
	old[n-1] = job{}
	*h = old[:n-1]
	return x
}

// Dispatcher is a priority job queue drained by a single owning goroutine.
//
// Post and PostWithPriority are safe for concurrent use. RunJobs executes jobs
// on the calling goroutine; callers are expected to call it only from the
// goroutine that owns the state the jobs touch.
type Dispatcher struct {
	mu      sync.Mutex
	jobs    jobHeap
	seq     uint64
	closed  bool
	running bool

	// wake is signalled whenever a job is posted or the dispatcher closes.
	wake chan struct{}
}

// New creates an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		jobs: make(jobHeap, 0, 16),
		wake: make(chan struct{}, 1),
	}
}

var (
	defaultOnce       sync.Once
	defaultDispatcher *Dispatcher
)

// Default returns the process-wide dispatcher.
func Default() *Dispatcher {
	defaultOnce.Do(func() {
		defaultDispatcher = New()
	})
	return defaultDispatcher
}

// Post queues fn at Normal priority.
func (d *Dispatcher) Post(fn func()) error {
	return d.PostWithPriority(fn, Normal)
}

// PostWithPriority queues fn at the given priority.
func (d *Dispatcher) PostWithPriority(fn func(), prio Priority) error {
	if fn == nil {
		return ErrNilJob
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.seq++
	heap.Push(&d.jobs, job{fn: fn, prio: prio, seq: d.seq})
	d.mu.Unlock()
	d.signal()
	return nil
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued jobs.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

// RunJobs runs queued jobs on the calling goroutine until the queue is empty,
// including jobs posted while draining, and returns how many ran. It may be
// called from inside a job. A job that keeps re-posting itself makes RunJobs
// spin forever.
func (d *Dispatcher) RunJobs() int {
	n := 0
	for {
		d.mu.Lock()
		if len(d.jobs) == 0 {
			d.mu.Unlock()
			return n
		}
		j := heap.Pop(&d.jobs).(job)
		d.mu.Unlock()

		j.fn()
		j.fn = nil
		n++
	}
}

// Run makes the calling goroutine the owner of the dispatcher and drains jobs
// as they arrive until ctx is done or the dispatcher is closed. Pending jobs
// are drained before Run returns because of Close.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.running = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	for {
		d.RunJobs()

		d.mu.Lock()
		closed := d.closed
		d.mu.Unlock()
		if closed {
			d.RunJobs()
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
		}
	}
}

// Invoke posts fn at Send priority and waits until it has run on the owning
// goroutine or ctx is done. It must not be called from the owning goroutine
// unless something else drains the queue.
func (d *Dispatcher) Invoke(ctx context.Context, fn func()) error {
	if fn == nil {
		return ErrNilJob
	}
	done := make(chan struct{})
	if err := d.PostWithPriority(func() {
		defer close(done)
		fn()
	}, Send); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects further posts and wakes Run. Close is idempotent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.signal()
}
