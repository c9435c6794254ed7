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

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autowarefoundation/autoware-system-designer/api/v1alpha1"
	"github.com/autowarefoundation/autoware-system-designer/pkg/registry"
	"github.com/autowarefoundation/autoware-system-designer/pkg/variable"
)

func plannerDocument() map[string]interface{} {
	return map[string]interface{}{
		"name":   "Planner",
		"launch": map[string]interface{}{"plugin": "pkg::Planner"},
		"param_files": toList(
			map[string]interface{}{"name": "common", "path": "config/common.yaml"},
		),
		"param_values": toList(
			map[string]interface{}{"name": "rate", "type": "int", "default": 10},
			map[string]interface{}{"name": "frame", "type": "string", "default": "map"},
		),
	}
}

func overlayFixture(t *testing.T, paramSetDoc map[string]interface{}) (*registry.Registry, *FlattenResult) {
	t.Helper()
	reg := registry.New()
	testEntity(t, reg, "Planner", v1alpha1.KindNode, plannerDocument())
	if paramSetDoc != nil {
		testEntity(t, reg, "Tuning", v1alpha1.KindParameterSet, paramSetDoc)
	}
	system := testEntity(t, reg, "Vehicle", v1alpha1.KindSystem, map[string]interface{}{
		"name":           "Vehicle",
		"parameter_sets": []interface{}{"Tuning.parameter_set"},
		"components":     toList(instance("planner", "Planner.node")),
	})

	f := &flattener{reg: reg}
	result, diags := f.Flatten(system, "default")
	require.False(t, diags.HasErrors(), diags.String())
	return reg, result
}

func TestOverlayValuesAndFiles(t *testing.T) {
	reg, result := overlayFixture(t, map[string]interface{}{
		"name": "Tuning",
		"parameters": toList(map[string]interface{}{
			"node": "planner",
			"param_files": toList(
				map[string]interface{}{"name": "common", "path": "config/tuned.yaml"},
			),
			"param_values": toList(
				map[string]interface{}{"name": "rate", "value": 20},
			),
		}),
	})

	a := &overlayApplier{reg: reg}
	diags := a.Apply(result)
	require.False(t, diags.HasErrors(), diags.String())

	node := result.instances["planner"].Node
	assert.Equal(t, "config/tuned.yaml", node.ParamFiles[0].Path)

	// rate is overridden, frame keeps its declared default.
	require.Len(t, node.ParamValues, 2)
	assert.EqualValues(t, 20, node.ParamValues[0].Value)
	assert.Nil(t, node.ParamValues[1].Value)
	assert.Equal(t, "map", node.ParamValues[1].Default)
}

func TestOverlayUnknownTargetWarns(t *testing.T) {
	reg, result := overlayFixture(t, map[string]interface{}{
		"name": "Tuning",
		"parameters": toList(
			map[string]interface{}{
				"node":         "ghost",
				"param_values": toList(map[string]interface{}{"name": "rate", "value": 20}),
			},
			map[string]interface{}{
				"node":         "planner",
				"param_values": toList(map[string]interface{}{"name": "rate", "value": 30}),
			},
		),
	})

	a := &overlayApplier{reg: reg}
	diags := a.Apply(result)

	// Non-fatal: the ghost entry warns, the planner entry still applies.
	assert.False(t, diags.HasErrors())
	require.Len(t, diags, 1)
	assert.Equal(t, DiagUnknownParameterTarget, diags[0].Kind)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.EqualValues(t, 30, result.instances["planner"].Node.ParamValues[0].Value)
}

func TestOverlayTypeMismatch(t *testing.T) {
	reg, result := overlayFixture(t, map[string]interface{}{
		"name": "Tuning",
		"parameters": toList(map[string]interface{}{
			"node": "planner",
			"param_values": toList(
				map[string]interface{}{"name": "rate", "value": "fast"},
				map[string]interface{}{"name": "frame", "value": "odom"},
			),
		}),
	})

	a := &overlayApplier{reg: reg}
	diags := a.Apply(result)

	require.Len(t, diags.Errs(), 1)
	assert.Equal(t, DiagParameterTypeMismatch, diags.Errs()[0].Kind)

	node := result.instances["planner"].Node
	// The mismatched entry is rejected, the valid one still applies.
	assert.Nil(t, node.ParamValues[0].Value)
	assert.Equal(t, "odom", node.ParamValues[1].Value)
}

func TestOverlayVariableSubstitution(t *testing.T) {
	reg, result := overlayFixture(t, map[string]interface{}{
		"name": "Tuning",
		"parameters": toList(map[string]interface{}{
			"node": "planner",
			"param_files": toList(
				map[string]interface{}{"name": "common", "path": "${config_dir}/common.yaml"},
			),
			"param_values": toList(
				map[string]interface{}{"name": "frame", "value": "${frame_id}"},
			),
		}),
	})

	vars, err := variable.NewResolver([]string{"CONFIG_ROOT=/opt/autoware"})
	require.NoError(t, err)
	require.NoError(t, vars.Declare("config_dir", `${env["CONFIG_ROOT"]}/config`))
	require.NoError(t, vars.Declare("frame_id", "base_link"))

	a := &overlayApplier{reg: reg, vars: vars}
	diags := a.Apply(result)
	require.False(t, diags.HasErrors(), diags.String())

	node := result.instances["planner"].Node
	assert.Equal(t, "/opt/autoware/config/common.yaml", node.ParamFiles[0].Path)
	assert.Equal(t, "base_link", node.ParamValues[1].Value)
}

func TestTypeMatches(t *testing.T) {
	tests := []struct {
		declared string
		value    interface{}
		want     bool
	}{
		{"string", "x", true},
		{"string", 1, false},
		{"int", 3, true},
		{"int", 3.0, true},
		{"int", 3.5, false},
		{"double", 3, true},
		{"double", 3.5, true},
		{"bool", true, true},
		{"bool", "true", false},
		{"string_array", []interface{}{"a", "b"}, true},
		{"string_array", []interface{}{"a", 1}, false},
		{"", 42, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, typeMatches(tt.declared, tt.value), "%s vs %v", tt.declared, tt.value)
	}
}
