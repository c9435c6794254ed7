// Copyright 2026 The Autoware System Designer Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package view

import (
	"encoding/json"
	"time"

	"github.com/fatih/color"

	"github.com/autowarefoundation/autoware-system-designer/pkg/graph"
)

type CompileView interface {
	Render(result CompileResult)
}

type CompileResult struct {
	Graph       *graph.ResolvedSystemGraph
	Diagnostics graph.Diagnostics
}

// Human view implementation.

type compileHumanView struct {
	*HumanView
}

func (v *compileHumanView) Render(result CompileResult) {
	for _, d := range result.Diagnostics {
		label := color.YellowString("warning")
		if d.Severity == graph.SeverityError {
			label = color.RedString("error")
		}
		loc := d.Location.String()
		if loc == "" {
			v.Printf("%s [%s] %s\n", label, d.Kind, d.Detail)
		} else {
			v.Printf("%s [%s] %s: %s\n", label, d.Kind, loc, d.Detail)
		}
	}

	g := result.Graph
	if g == nil {
		v.Println(color.RedString("Failed!"), "no graph produced.")
		return
	}

	v.Printf("%s %s (mode %s): %d instances, %d topics\n",
		color.GreenString("Compiled!"), g.System, g.Mode, len(g.InstanceOrder), len(g.Topics))

	for _, topic := range g.Topics {
		v.Printf("  %s\n", color.CyanString(topic.Name))
		if topic.Publisher != nil {
			v.Printf("    pub  %s.%s\n", topic.Publisher.Path, topic.Publisher.Port)
		}
		for _, sub := range topic.Subscribers {
			v.Printf("    sub  %s.%s\n", sub.Path, sub.Port)
		}
	}
}

// JSON view implementation.

type compileJSONView struct {
	*JSONView
}

type compileJSONResult struct {
	Type        string                     `json:"type"`
	Status      string                     `json:"status"`
	Timestamp   time.Time                  `json:"timestamp"`
	Graph       *graph.ResolvedSystemGraph `json:"graph,omitempty"`
	Diagnostics graph.Diagnostics          `json:"diagnostics,omitempty"`
}

func (v *compileJSONView) Render(result CompileResult) {
	out := compileJSONResult{
		Type:        "compile",
		Timestamp:   time.Now(),
		Graph:       result.Graph,
		Diagnostics: result.Diagnostics,
	}
	if result.Graph == nil {
		out.Status = "error"
	} else {
		out.Status = "success"
	}

	if data, err := json.Marshal(out); err == nil {
		v.Println(string(data))
	}
}

func NewCompileView(v Viewer) CompileView {
	switch vt := v.(type) {
	case *HumanView:
		return &compileHumanView{HumanView: vt}
	case *JSONView:
		return &compileJSONView{JSONView: vt}
	default:
		panic("unknown view type")
	}
}
