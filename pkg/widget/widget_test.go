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

package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/weakcheck/pkg/dispatch"
	"github.com/cloudwego/weakcheck/pkg/leak"
)

func TestWindowLifecycle(t *testing.T) {
	d := dispatch.New()
	app := NewApplication(d)

	w := NewWindow(app, "main")
	assert.Equal(t, "main", w.Title())
	assert.Equal(t, 1, app.Windows())
	assert.Equal(t, 1, d.Pending())

	d.RunJobs()
	assert.Equal(t, 1, app.LayoutPasses())

	w.Close()
	w.Close()
	assert.True(t, w.Closed())
	assert.Equal(t, 1, app.Windows(), "detach is deferred")

	d.RunJobs()
	assert.Zero(t, app.Windows())

	w.SetContent(NewPanel(app))
	w.Dispose()
	assert.True(t, w.Disposed())
	assert.Nil(t, w.content)
}

func TestPanelDisposeHook(t *testing.T) {
	d := dispatch.New()
	app := NewApplication(d)

	p := NewPanel(app)
	p.Add(NewPanel(app))
	assert.Equal(t, 2, app.Panels())
	assert.Equal(t, 2, d.RunJobs())
	assert.True(t, p.Measured())

	p.dispose()
	assert.Equal(t, 1, app.Panels())
	assert.Empty(t, p.children)
}

func TestEvent(t *testing.T) {
	var e Event
	var got []string
	removeA := e.Add(func(s string) { got = append(got, "a:"+s) })
	e.Add(func(s string) { got = append(got, "b:"+s) })
	assert.Equal(t, 2, e.Len())

	e.Raise("dark")
	removeA()
	removeA()
	e.Raise("light")
	assert.Equal(t, []string{"a:dark", "b:dark", "b:light"}, got)
	assert.Equal(t, 1, e.Len())
}

func TestThemeSubscription(t *testing.T) {
	app := NewApplication(dispatch.New())
	p := NewPanel(app)
	unsubscribe := app.ThemeChanged.Add(p.ApplyTheme)

	app.SetTheme("dark")
	assert.Equal(t, "dark", p.Theme())

	unsubscribe()
	app.SetTheme("light")
	assert.Equal(t, "dark", p.Theme())
}

func TestClosedDispatcherDropsWork(t *testing.T) {
	d := dispatch.New()
	d.Close()
	app := NewApplication(d)
	w := NewWindow(app, "late")
	w.Close()
	assert.Zero(t, d.Pending())
	assert.Same(t, d, app.Dispatcher())
}

func TestWidgetsReleased(t *testing.T) {
	d := dispatch.New()
	app := NewApplication(d)
	p := leak.NewProbe(leak.WithJobRunner(d))

	leaked, err := leak.Check(p, func() *Window { return NewWindow(app, "checked") })
	require.NoError(t, err)
	assert.False(t, leaked)
	assert.Zero(t, app.Windows())

	h, err := leak.ArrangeWith(p, func() *Panel { return NewPanel(app) })
	require.NoError(t, err)
	assert.Equal(t, leak.Hook, h.Capabilities())
	require.NoError(t, h.Act())
	assert.False(t, h.Assert())
	assert.Zero(t, app.Panels())
}

func TestSubscribedPanelLeaks(t *testing.T) {
	d := dispatch.New()
	app := NewApplication(d)
	p := leak.NewProbe(leak.WithJobRunner(d))

	leaked, err := leak.Check(p, func() *Panel {
		panel := NewPanel(app)
		app.ThemeChanged.Add(panel.ApplyTheme)
		return panel
	})
	require.NoError(t, err)
	assert.True(t, leaked)
	assert.Zero(t, app.Panels())
	assert.Equal(t, 1, app.ThemeChanged.Len())
}
