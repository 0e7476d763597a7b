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

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestVersionString(t *testing.T) {
	tests := []struct {
		name string
		v    Version
		want string
	}{
		{name: "plain", v: Version{Major: "1", Minor: "2", Patch: "3", Build: "abc"}, want: "Version: 1.2.3\nBuild: abc"},
		{name: "metadata", v: Version{Major: "0", Minor: "1", Patch: "0", Metadata: "rc1", Build: "def"}, want: "Version: 0.1.0-rc1\nBuild: def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildInfo(t *testing.T) {
	if got := BuildInfo(); !strings.HasPrefix(got, runtime.Version()) {
		t.Errorf("BuildInfo() = %q, want prefix %q", got, runtime.Version())
	}
}
