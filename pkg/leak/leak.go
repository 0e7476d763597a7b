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

// Package leak checks whether disposing an object actually releases it.
//
// A check runs in three phases, in this order, on the goroutine that owns the
// dispatcher the subject posts its deferred work to:
//
//	h, err := leak.Arrange(func() *widget.Window { return widget.NewWindow(app, "main") })
//	err = leak.Act(h)
//	leaked := leak.Assert(h)
//
// Arrange keeps only a weak pointer to the subject. Act drains the dispatcher,
// closes and disposes the subject, drains again and forces a collection.
// Assert reports whether the weak pointer still resolves.
package leak

import (
	"errors"
	"fmt"
	"sync/atomic"
	"weak"

	"github.com/modern-go/reflect2"
)

// ErrOutOfOrder is wrapped by the panic raised when Act or Assert is called
// out of sequence. It signals a bug in the caller, never a leak.
var ErrOutOfOrder = errors.New("leak: operation called out of order")

// ErrZeroSize is returned by Arrange for zero-size subject types. Every
// pointer to such a value may alias the same address, so it never becomes
// unreachable.
var ErrZeroSize = errors.New("leak: zero-size type cannot be observed")

// ArrangementError is returned by Arrange when the factory yields nil.
type ArrangementError struct {
	TypeName string
}

func (e *ArrangementError) Error() string {
	return "leak: failed creating object: " + e.TypeName
}

// State is the lifecycle of a Handle.
type State int32

const (
	Constructed State = iota
	Acted
	Asserted
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Acted:
		return "acted"
	case Asserted:
		return "asserted"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Handle observes a subject without keeping it reachable.
type Handle[T any] struct {
	ref      weak.Pointer[T]
	probe    *Probe
	caps     Capability
	hook     reflect2.StructField
	typeName string
	state    atomic.Int32
}

// TypeName returns the subject's type, e.g. "widget.Window".
func (h *Handle[T]) TypeName() string { return h.typeName }

// Capabilities returns the release operations found at Arrange time.
func (h *Handle[T]) Capabilities() Capability { return h.caps }

// State returns the handle's lifecycle state.
func (h *Handle[T]) State() State { return State(h.state.Load()) }

func (h *Handle[T]) advance(from, to State, op string) {
	if !h.state.CompareAndSwap(int32(from), int32(to)) {
		panic(fmt.Errorf("%w: %s on %s handle in state %s", ErrOutOfOrder, op, h.typeName, h.State()))
	}
}

// Arrange runs ArrangeWith on Default().
//
//go:noinline
func Arrange[T any](factory func() *T) (*Handle[T], error) {
	return ArrangeWith(Default(), factory)
}

// ArrangeWith calls factory exactly once and returns a weak handle to its
// result. The strong reference does not outlive this call. A nil p means
// Default().
//
// Zero-size types are rejected with ErrZeroSize before factory is called.
// Pointer-free types smaller than 16 bytes are served by the runtime's tiny
// allocator and share a memory block with unrelated objects; such a subject
// may be reported as leaked while a neighbour in its block is alive. Give the
// subject a pointer field or grow it past 15 bytes to avoid this.
//
//go:noinline
func ArrangeWith[T any](p *Probe, factory func() *T) (*Handle[T], error) {
	if p == nil {
		p = Default()
	}
	name := typeName[T]()
	shape := layoutOf[T]()
	if shape == zeroSize {
		return nil, fmt.Errorf("%w: %s", ErrZeroSize, name)
	}
	value := factory()
	if value == nil {
		return nil, &ArrangementError{TypeName: name}
	}

	h := &Handle[T]{probe: p, typeName: name}
	h.caps, h.hook = capabilities[T]()
	h.ref = weak.Make(value)
	if shape == tinyBlock {
		p.log().Infof("leak: %s is pointer-free and smaller than 16 bytes; it may share a block with live objects", name)
	}
	p.log().Debugf("leak: arranged %s (%s)", name, h.caps)
	return h, nil
}

// Act releases the subject and forces a collection:
// drain jobs, Close, Dispose (or the dispose hook), drain jobs, collect, wait
// for cleanups. If the subject is already gone after the first drain, Act
// returns right away. An error returned by Close or Dispose aborts the
// remaining steps and is returned as is.
//
// Act panics with ErrOutOfOrder unless h is freshly arranged.
//
//go:noinline
func (h *Handle[T]) Act() error {
	h.advance(Constructed, Acted, "Act")
	p := h.probe
	logger := p.log()

	n := p.jobs.RunJobs()
	logger.Debugf("leak: %s: ran %d jobs before release", h.typeName, n)

	alive, err := h.release()
	if err != nil {
		logger.Errorf("leak: %s: release failed: %v", h.typeName, err)
		return err
	}
	if !alive {
		logger.Debugf("leak: %s: already collected", h.typeName)
		return nil
	}

	n = p.jobs.RunJobs()
	logger.Debugf("leak: %s: ran %d jobs after release", h.typeName, n)

	p.collector.Collect()
	p.collector.WaitForCleanups()
	return nil
}

// release runs in its own frame so that no strong reference obtained here is
// live when Act goes on to collect.
//
//go:noinline
func (h *Handle[T]) release() (alive bool, err error) {
	value := h.ref.Value()
	if value == nil {
		return false, nil
	}
	var subject any = value
	value = nil

	if h.caps&Closable != 0 {
		if err = closeSubject(subject); err != nil {
			subject = nil
			return true, err
		}
	}
	switch {
	case h.caps&Disposable != 0:
		err = disposeSubject(subject)
	case h.caps&Hook != 0:
		invokeHook(h.hook, subject)
	}
	subject = nil
	return true, err
}

// IsLeaked reports whether the subject is still reachable. It is a pure query
// and may be called in any state.
//
//go:noinline
func (h *Handle[T]) IsLeaked() bool {
	return h.ref.Value() != nil
}

// Assert is IsLeaked for a handle that has been acted on. It panics with
// ErrOutOfOrder unless Act ran and Assert did not.
//
//go:noinline
func (h *Handle[T]) Assert() bool {
	h.advance(Acted, Asserted, "Assert")
	leaked := h.IsLeaked()
	if leaked {
		h.probe.log().Infof("leak: %s is still reachable after release", h.typeName)
	}
	return leaked
}

// Act calls h.Act.
func Act[T any](h *Handle[T]) error { return h.Act() }

// IsLeaked calls h.IsLeaked.
func IsLeaked[T any](h *Handle[T]) bool { return h.IsLeaked() }

// Assert calls h.Assert.
func Assert[T any](h *Handle[T]) bool { return h.Assert() }

// Check runs Arrange, Act and Assert against p.
func Check[T any](p *Probe, factory func() *T) (leaked bool, err error) {
	h, err := ArrangeWith(p, factory)
	if err != nil {
		return false, err
	}
	if err = h.Act(); err != nil {
		return false, err
	}
	return h.Assert(), nil
}
