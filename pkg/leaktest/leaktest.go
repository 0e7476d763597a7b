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

// Package leaktest wraps leak checks for use in tests.
package leaktest

import (
	"testing"

	"github.com/cloudwego/weakcheck/pkg/leak"
)

// Released fails t unless the object built by factory is collected after
// being closed and disposed. A nil probe means leak.Default().
func Released[T any](t testing.TB, p *leak.Probe, factory func() *T) bool {
	t.Helper()
	return expect(t, p, factory, false)
}

// Retained fails t unless the object built by factory is still reachable
// after being closed and disposed.
func Retained[T any](t testing.TB, p *leak.Probe, factory func() *T) bool {
	t.Helper()
	return expect(t, p, factory, true)
}

func expect[T any](t testing.TB, p *leak.Probe, factory func() *T, want bool) bool {
	t.Helper()
	if p == nil {
		p = leak.Default()
	}
	h, err := leak.ArrangeWith(p, factory)
	if err != nil {
		t.Errorf("arrange: %v", err)
		return false
	}
	if err := h.Act(); err != nil {
		t.Errorf("act on %s: %v", h.TypeName(), err)
		return false
	}
	if leaked := h.Assert(); leaked != want {
		if leaked {
			t.Errorf("%s is still reachable after Close/Dispose (capabilities: %s)", h.TypeName(), h.Capabilities())
		} else {
			t.Errorf("%s was collected, expected it to be retained", h.TypeName())
		}
		return false
	}
	return true
}
