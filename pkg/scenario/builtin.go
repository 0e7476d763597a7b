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

import "github.com/cloudwego/weakcheck/pkg/widget"

// WindowScenario opens a window; Close and Dispose release it.
func WindowScenario(app *widget.Application) Scenario {
	return New("window", "Window", func() *widget.Window {
		return widget.NewWindow(app, "leak check")
	}, false)
}

// PanelScenario attaches a panel; only its dispose hook detaches it.
func PanelScenario(app *widget.Application) Scenario {
	return New("panel", "Panel", func() *widget.Panel {
		return widget.NewPanel(app)
	}, false)
}

// SubscribedPanelScenario subscribes a panel to ThemeChanged and does not
// unsubscribe before the check, so the application keeps it alive. The
// subscription is dropped once the verdict is taken.
func SubscribedPanelScenario(app *widget.Application) Scenario {
	var unsubscribe []func()
	sc := New("subscribed-panel", "Subscribed panel", func() *widget.Panel {
		p := widget.NewPanel(app)
		unsubscribe = append(unsubscribe, app.ThemeChanged.Add(p.ApplyTheme))
		return p
	}, true)
	return sc.WithTeardown(func() {
		for _, remove := range unsubscribe {
			remove()
		}
		unsubscribe = nil
	})
}

// Builtin returns the built-in scenarios bound to app.
func Builtin(app *widget.Application) []Scenario {
	return []Scenario{
		WindowScenario(app),
		PanelScenario(app),
		SubscribedPanelScenario(app),
	}
}
