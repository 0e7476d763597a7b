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

package leak

import (
	"sync"

	"github.com/go-delve/delve/pkg/logflags"

	"github.com/cloudwego/weakcheck/pkg/dispatch"
	"github.com/cloudwego/weakcheck/pkg/reclaim"
)

// JobRunner drains the cooperative queue of the subject's owning goroutine.
type JobRunner interface {
	RunJobs() int
}

// Logger is the subset of the delve logger used here.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Probe holds the collaborators a check runs against.
type Probe struct {
	jobs      JobRunner
	collector reclaim.Collector
	logger    Logger
}

// Option configures a Probe.
type Option func(*Probe)

// WithJobRunner sets the queue drained before and after release.
func WithJobRunner(r JobRunner) Option {
	return func(p *Probe) { p.jobs = r }
}

// WithCollector sets the reclamation subsystem.
func WithCollector(c reclaim.Collector) Option {
	return func(p *Probe) { p.collector = c }
}

// WithLogger sets the logger. By default the delve debugger logger is used,
// so output follows logflags.Setup.
func WithLogger(l Logger) Option {
	return func(p *Probe) { p.logger = l }
}

// NewProbe returns a Probe draining dispatch.Default and collecting through
// the Go runtime unless overridden.
func NewProbe(opts ...Option) *Probe {
	p := &Probe{}
	for _, opt := range opts {
		opt(p)
	}
	if p.jobs == nil {
		p.jobs = dispatch.Default()
	}
	if p.collector == nil {
		p.collector = reclaim.NewRuntime()
	}
	return p
}

func (p *Probe) log() Logger {
	if p.logger != nil {
		return p.logger
	}
	return logflags.DebuggerLogger()
}

var (
	defaultOnce  sync.Once
	defaultProbe *Probe
)

// Default returns the probe used by the package-level Arrange.
func Default() *Probe {
	defaultOnce.Do(func() {
		defaultProbe = NewProbe()
	})
	return defaultProbe
}
