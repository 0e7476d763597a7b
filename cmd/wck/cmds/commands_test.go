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

package cmds

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/weakcheck/pkg/config"
)

func TestDemo(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		scenarios []string
		code      int
		out       string
	}{
		{
			name: "all",
			code: 0,
			out:  "Window test passed OK\nPanel test passed OK\nSubscribed panel test leaked memory!\n",
		},
		{
			name: "named",
			args: []string{"panel"},
			code: 0,
			out:  "Panel test passed OK\n",
		},
		{
			name:      "from config",
			scenarios: []string{"window"},
			code:      0,
			out:       "Window test passed OK\n",
		},
		{
			name: "unknown",
			args: []string{"missing"},
			code: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf = config.Default()
			conf.Color = config.ColorNever
			conf.Scenarios = tt.scenarios

			var buf bytes.Buffer
			assert.Equal(t, tt.code, demo(&buf, tt.args))
			assert.Equal(t, tt.out, buf.String())
		})
	}
}

func TestUseColor(t *testing.T) {
	conf = config.Default()
	var buf bytes.Buffer
	assert.False(t, useColor(&buf))

	conf.Color = config.ColorAlways
	assert.True(t, useColor(&buf))
}

func TestListAndConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("color: never\nlisten: :7777\n"), 0o644))

	root := New(false)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"list", "--config", path})
	require.NoError(t, root.Execute())

	assert.Equal(t, "window\npanel\nsubscribed-panel\n", buf.String())
	require.NoError(t, loadConfErr)
	assert.Equal(t, ":7777", conf.Listen)
	assert.Equal(t, config.ColorNever, conf.Color)
}

func TestServe(t *testing.T) {
	tests := []struct {
		name   string
		listen string
		cancel bool
		code   int
	}{
		{
			// the server is shut down and reports http.ErrServerClosed
			name:   "cancelled",
			listen: "127.0.0.1:0",
			cancel: true,
			code:   0,
		},
		{
			name:   "bad address",
			listen: "127.0.0.1:-1",
			code:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf = config.Default()
			loadConfErr = nil
			listenAddr = tt.listen
			t.Cleanup(func() { listenAddr = "" })

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}
			assert.Equal(t, tt.code, serve(ctx))
		})
	}
}
