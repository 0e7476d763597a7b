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

package scenario

import (
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/weakcheck/pkg/leak"
)

// ErrUnknownScenario is returned by Suite.Run for a name that was never added.
var ErrUnknownScenario = errors.New("scenario: unknown scenario")

// Scenario is a named leak check
type Scenario struct {
	Name       string
	Subject    string // shown in verdicts, e.g. "Window"
	ExpectLeak bool

	run      func(p *leak.Probe) (bool, error)
	teardown func()
}

// New creates a scenario checking the objects built by factory.
func New[T any](name, subject string, factory func() *T, expectLeak bool) Scenario {
	return Scenario{
		Name:       name,
		Subject:    subject,
		ExpectLeak: expectLeak,
		run: func(p *leak.Probe) (bool, error) {
			return leak.Check(p, factory)
		},
	}
}

// WithTeardown returns a copy of sc that calls fn after every run, once the
// verdict is taken. It releases whatever the scenario retained on purpose.
func (sc Scenario) WithTeardown(fn func()) Scenario {
	sc.teardown = fn
	return sc
}

// Result is the outcome of one scenario.
type Result struct {
	Scenario string
	Subject  string
	Leaked   bool
	Expected bool
	Err      error
}

// Unexpected reports whether the scenario failed or its outcome differs from
// the expectation.
func (r Result) Unexpected() bool {
	return r.Err != nil || r.Leaked != r.Expected
}

func (r Result) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("%s test failed: %v", r.Subject, r.Err)
	case r.Leaked:
		return r.Subject + " test leaked memory!"
	default:
		return r.Subject + " test passed OK"
	}
}

// Suite manages scenario execution against one probe.
type Suite struct {
	probe     *leak.Probe
	scenarios []Scenario
}

// NewSuite creates a suite. A nil probe means leak.Default().
func NewSuite(p *leak.Probe) *Suite {
	if p == nil {
		p = leak.Default()
	}
	return &Suite{probe: p}
}

// Add registers scenarios. A later scenario replaces an earlier one of the same name.
func (s *Suite) Add(scenarios ...Scenario) {
	for _, sc := range scenarios {
		if i := s.index(sc.Name); i >= 0 {
			s.scenarios[i] = sc
			continue
		}
		s.scenarios = append(s.scenarios, sc)
	}
}

func (s *Suite) index(name string) int {
	for i, sc := range s.scenarios {
		if sc.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the scenario names in registration order.
func (s *Suite) Names() []string {
	names := make([]string, 0, len(s.scenarios))
	for _, sc := range s.scenarios {
		names = append(names, sc.Name)
	}
	return names
}

// Run executes one scenario by name. It must be called on the goroutine that
// owns the probe's dispatcher.
func (s *Suite) Run(name string) (Result, error) {
	i := s.index(name)
	if i < 0 {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return s.run(s.scenarios[i]), nil
}

func (s *Suite) run(sc Scenario) Result {
	leaked, err := sc.run(s.probe)
	if sc.teardown != nil {
		sc.teardown()
	}
	return Result{
		Scenario: sc.Name,
		Subject:  sc.Subject,
		Leaked:   leaked,
		Expected: sc.ExpectLeak,
		Err:      err,
	}
}

// RunAll runs every scenario in registration order.
func (s *Suite) RunAll() []Result {
	results := make([]Result, 0, len(s.scenarios))
	for _, sc := range s.scenarios {
		results = append(results, s.run(sc))
	}
	return results
}

const (
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
	colorReset = "\x1b[0m"
)

// Write prints one verdict per line, green when the outcome matches the
// expectation and red otherwise if color is set.
func Write(w io.Writer, results []Result, color bool) error {
	for _, r := range results {
		line := r.String()
		if color {
			c := colorGreen
			if r.Unexpected() {
				c = colorRed
			}
			line = c + line + colorReset
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
