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
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autowarefoundation/autoware-system-designer/pkg/graph"
)

func TestParseOutputFormat(t *testing.T) {
	for _, tc := range []struct {
		input   string
		want    ViewType
		wantErr bool
	}{
		{input: "", want: ViewHuman},
		{input: "human", want: ViewHuman},
		{input: "json", want: ViewJSON},
		{input: "yaml", wantErr: true},
		{input: "xml", wantErr: true},
	} {
		vt, err := ParseOutputFormat(tc.input)
		if tc.wantErr {
			assert.Error(t, err, tc.input)
			continue
		}
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, vt, tc.input)
	}
}

func TestStreamWritesThrough(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewStream(buf)

	s.Println("hello")
	s.Printf("%d topics\n", 3)

	assert.Equal(t, "hello\n3 topics\n", buf.String())
	assert.Same(t, buf, s.Out())
}

func TestValidateHumanView(t *testing.T) {
	color.NoColor = true
	buf := new(bytes.Buffer)
	v := NewValidateView(NewHumanView(NewStream(buf), LogLevelSilent))

	v.Render(ValidateResult{FileCount: 4})
	assert.Contains(t, buf.String(), "no errors found")

	buf.Reset()
	v.Render(ValidateResult{FileCount: 4, Errors: []ValidateFileError{
		{File: "Camera.node.yaml", Message: "missing launch"},
	}})
	assert.Contains(t, buf.String(), "Camera.node.yaml")
	assert.Contains(t, buf.String(), "missing launch")
}

func TestCompileHumanView(t *testing.T) {
	color.NoColor = true
	buf := new(bytes.Buffer)
	v := NewCompileView(NewHumanView(NewStream(buf), LogLevelSilent))

	v.Render(CompileResult{
		Graph: &graph.ResolvedSystemGraph{
			System:        "Demo.system",
			Mode:          "default",
			InstanceOrder: []string{"camera", "planner"},
			Topics: []*graph.Topic{{
				Name:        "/camera/output/objects",
				Publisher:   &graph.PortRef{Path: "camera", Port: "objects"},
				Subscribers: []*graph.PortRef{{Path: "planner", Port: "objects"}},
			}},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Demo.system (mode default): 2 instances, 1 topics")
	assert.Contains(t, out, "/camera/output/objects")
	assert.Contains(t, out, "pub  camera.objects")
	assert.Contains(t, out, "sub  planner.objects")
}

func TestCompileHumanView_Diagnostics(t *testing.T) {
	color.NoColor = true
	buf := new(bytes.Buffer)
	v := NewCompileView(NewHumanView(NewStream(buf), LogLevelSilent))

	v.Render(CompileResult{
		Diagnostics: graph.Diagnostics{
			{Severity: graph.SeverityError, Kind: graph.DiagUnknownEntity, Detail: "no entity named Ghost.node"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "error [UnknownEntity]")
	assert.Contains(t, out, "no graph produced")
}

func TestCompileJSONView(t *testing.T) {
	buf := new(bytes.Buffer)
	v := NewCompileView(NewJSONView(NewStream(buf), LogLevelSilent))

	v.Render(CompileResult{Graph: &graph.ResolvedSystemGraph{System: "Demo.system", Mode: "default"}})
	assert.Contains(t, buf.String(), `"status":"success"`)
	assert.Contains(t, buf.String(), `"Demo.system"`)
}
