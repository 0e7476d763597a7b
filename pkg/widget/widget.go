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

// Package widget is a tiny retained-mode toolkit used as leak-check subjects.
// All of its state belongs to the goroutine draining the application's
// dispatcher; nothing here is safe for concurrent use.
package widget

import (
	"slices"

	"github.com/cloudwego/weakcheck/pkg/dispatch"
)

// Application owns the windows and the visual root.
type Application struct {
	dispatcher *dispatch.Dispatcher
	windows    []*Window
	root       []*Panel
	layouts    int

	// ThemeChanged is raised with the new theme name.
	ThemeChanged Event
}

// NewApplication creates an application whose deferred work goes to d.
func NewApplication(d *dispatch.Dispatcher) *Application {
	return &Application{dispatcher: d}
}

// Dispatcher returns the application's dispatcher.
func (a *Application) Dispatcher() *dispatch.Dispatcher { return a.dispatcher }

// Windows returns the number of open windows.
func (a *Application) Windows() int { return len(a.windows) }

// Panels returns the number of panels attached to the visual root.
func (a *Application) Panels() int { return len(a.root) }

// LayoutPasses returns how many layout jobs ran.
func (a *Application) LayoutPasses() int { return a.layouts }

// SetTheme raises ThemeChanged.
func (a *Application) SetTheme(name string) {
	a.ThemeChanged.Raise(name)
}

func (a *Application) post(fn func(), prio dispatch.Priority) {
	// a closed dispatcher drops deferred work, like a UI thread that has exited
	_ = a.dispatcher.PostWithPriority(fn, prio)
}

func remove[T comparable](s []T, v T) []T {
	if i := slices.Index(s, v); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}

// Window is a top-level window.
type Window struct {
	app      *Application
	title    string
	content  []*Panel
	closed   bool
	disposed bool
	width    int
	height   int
}

// NewWindow opens a window and schedules its first layout pass.
func NewWindow(app *Application, title string) *Window {
	w := &Window{app: app, title: title}
	app.windows = append(app.windows, w)
	app.post(func() {
		w.width, w.height = 800, 600
		app.layouts++
	}, dispatch.Layout)
	return w
}

// Title returns the window title.
func (w *Window) Title() string { return w.title }

// Closed reports whether Close was called.
func (w *Window) Closed() bool { return w.closed }

// Disposed reports whether Dispose was called.
func (w *Window) Disposed() bool { return w.disposed }

// SetContent replaces the window content.
func (w *Window) SetContent(panels ...*Panel) {
	w.content = panels
}

// Close hides the window. The application lets go of it in a later
// dispatcher pass.
func (w *Window) Close() {
	if w.closed {
		return
	}
	w.closed = true
	app := w.app
	app.post(func() {
		app.windows = remove(app.windows, w)
	}, dispatch.Normal)
}

// Dispose releases the window content.
func (w *Window) Dispose() {
	w.content = nil
	w.disposed = true
}

// Panel is a layout container. It has no public Dispose; the application
// detaches it through the unexported dispose hook.
type Panel struct {
	app      *Application
	children []*Panel
	theme    string
	measured bool

	dispose func()
}

// NewPanel attaches a panel to the visual root and schedules a measure pass.
func NewPanel(app *Application) *Panel {
	p := &Panel{app: app}
	app.root = append(app.root, p)
	app.post(func() {
		p.measured = true
		app.layouts++
	}, dispatch.Layout)
	p.dispose = func() {
		app.root = remove(app.root, p)
		p.children = nil
	}
	return p
}

// Add appends child panels.
func (p *Panel) Add(children ...*Panel) {
	p.children = append(p.children, children...)
}

// Measured reports whether the measure pass ran.
func (p *Panel) Measured() bool { return p.measured }

// Theme returns the last theme applied.
func (p *Panel) Theme() string { return p.theme }

// ApplyTheme is meant to be subscribed to Application.ThemeChanged.
func (p *Panel) ApplyTheme(name string) {
	p.theme = name
}

// Event is a multicast callback list.
type Event struct {
	handlers []*handler
}

type handler struct {
	fn func(string)
}

// Add subscribes fn and returns a function removing it.
func (e *Event) Add(fn func(string)) (remove func()) {
	h := &handler{fn: fn}
	e.handlers = append(e.handlers, h)
	return func() {
		if i := slices.Index(e.handlers, h); i >= 0 {
			e.handlers = slices.Delete(e.handlers, i, i+1)
		}
	}
}

// Raise calls every handler in subscription order.
func (e *Event) Raise(arg string) {
	for _, h := range slices.Clone(e.handlers) {
		h.fn(arg)
	}
}

// Len returns the number of handlers.
func (e *Event) Len() int { return len(e.handlers) }
