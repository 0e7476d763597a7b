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

// Package pprof serves leak scenario verdicts over HTTP.
package pprof

import (
	"bytes"
	"errors"
	"log"
	"net/http"

	"github.com/cloudwego/weakcheck/pkg/dispatch"
	"github.com/cloudwego/weakcheck/pkg/scenario"
)

// Path is where Register mounts the handler.
const Path = "/debug/pprof/leak"

// Register mounts Handler(suite, d) on mux at Path.
func Register(mux *http.ServeMux, suite *scenario.Suite, d *dispatch.Dispatcher) {
	mux.Handle(Path, Handler(suite, d))
}

// Handler runs the scenarios named by the "scenario" query parameters, or all
// of them, on the goroutine running d, and responds with one verdict per line.
func Handler(suite *scenario.Suite, d *dispatch.Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		names := r.URL.Query()["scenario"]

		var (
			results []scenario.Result
			runErr  error
		)
		err := d.Invoke(r.Context(), func() {
			if len(names) == 0 {
				results = suite.RunAll()
				return
			}
			for _, name := range names {
				res, err := suite.Run(name)
				if err != nil {
					runErr = err
					return
				}
				results = append(results, res)
			}
		})
		if err == nil {
			err = runErr
		}
		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, scenario.ErrUnknownScenario) {
				code = http.StatusNotFound
			}
			http.Error(w, err.Error(), code)
			return
		}

		var buf bytes.Buffer
		if err := scenario.Write(&buf, results, false); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write(buf.Bytes()); err != nil {
			log.Printf("failed to write leak verdicts: %v", err)
		}
	})
}
