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
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/weakcheck/pkg/dispatch"
	"github.com/cloudwego/weakcheck/pkg/leak"
	"github.com/cloudwego/weakcheck/pkg/widget"
)

func newSuite() (*Suite, *widget.Application) {
	d := dispatch.New()
	app := widget.NewApplication(d)
	s := NewSuite(leak.NewProbe(leak.WithJobRunner(d)))
	s.Add(Builtin(app)...)
	return s, app
}

// TestBuiltinScenarios runs the built-in scenarios using a table-driven approach
func TestBuiltinScenarios(t *testing.T) {
	tests := []struct {
		name    string
		leaked  bool
		verdict string
	}{
		{name: "window", leaked: false, verdict: "Window test passed OK"},
		{name: "panel", leaked: false, verdict: "Panel test passed OK"},
		{name: "subscribed-panel", leaked: true, verdict: "Subscribed panel test leaked memory!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSuite()
			r, err := s.Run(tt.name)
			require.NoError(t, err)
			require.NoError(t, r.Err)
			assert.Equal(t, tt.leaked, r.Leaked)
			assert.False(t, r.Unexpected())
			assert.Equal(t, tt.verdict, r.String())
		})
	}
}

func TestRunAll(t *testing.T) {
	s, app := newSuite()
	assert.Equal(t, []string{"window", "panel", "subscribed-panel"}, s.Names())

	results := s.RunAll()
	require.Len(t, results, 3)
	for _, r := range results {
		assert.False(t, r.Unexpected(), r.String())
	}
	assert.Zero(t, app.Windows())
	assert.Zero(t, app.Panels())
	assert.Zero(t, app.ThemeChanged.Len())
}

func TestSubscribedPanelRepeated(t *testing.T) {
	s, app := newSuite()
	for i := 0; i < 5; i++ {
		r, err := s.Run("subscribed-panel")
		require.NoError(t, err)
		assert.True(t, r.Leaked)
		assert.False(t, r.Unexpected())
		assert.Zero(t, app.ThemeChanged.Len())
	}
}

func TestTeardown(t *testing.T) {
	s := NewSuite(leak.NewProbe(leak.WithJobRunner(dispatch.New())))
	var order []string
	sc := New("window", "Window", func() *widget.Window {
		order = append(order, "arrange")
		return nil
	}, false)
	s.Add(sc.WithTeardown(func() { order = append(order, "teardown") }))

	r, err := s.Run("window")
	require.NoError(t, err)
	assert.Error(t, r.Err)
	assert.Equal(t, []string{"arrange", "teardown"}, order)
}

func TestRunUnknown(t *testing.T) {
	s, _ := newSuite()
	_, err := s.Run("missing")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestArrangementFailure(t *testing.T) {
	s := NewSuite(leak.NewProbe(leak.WithJobRunner(dispatch.New())))
	s.Add(New("absent", "Window", func() *widget.Window { return nil }, false))

	r, err := s.Run("absent")
	require.NoError(t, err)
	var ae *leak.ArrangementError
	require.ErrorAs(t, r.Err, &ae)
	assert.True(t, r.Unexpected())
	assert.Equal(t, "Window test failed: leak: failed creating object: widget.Window", r.String())
}

func TestAddReplaces(t *testing.T) {
	s, _ := newSuite()
	s.Add(New("window", "Other", func() *widget.Panel { return nil }, false))
	assert.Len(t, s.Names(), 3)

	r, err := s.Run("window")
	require.NoError(t, err)
	assert.Equal(t, "Other", r.Subject)
}

func TestWrite(t *testing.T) {
	results := []Result{
		{Subject: "Window"},
		{Subject: "Panel", Leaked: true},
		{Subject: "Broken", Err: errors.New("boom")},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, results, false))
	assert.Equal(t, "Window test passed OK\nPanel test leaked memory!\nBroken test failed: boom\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, results[:2], true))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], colorGreen))
	assert.True(t, strings.HasPrefix(lines[1], colorRed))
}

func TestNewSuiteDefaultProbe(t *testing.T) {
	s := NewSuite(nil)
	assert.Same(t, leak.Default(), s.probe)
}
