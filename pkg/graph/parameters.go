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
	"strings"

	"github.com/autowarefoundation/autoware-system-designer/api/v1alpha1"
	"github.com/autowarefoundation/autoware-system-designer/pkg/registry"
	"github.com/autowarefoundation/autoware-system-designer/pkg/variable"
)

// overlayApplier matches ParameterSet entries against the flattened
// instance table and overlays file remaps and value overrides onto the
// matched instances. Unknown targets are warnings so partial parameter
// sets stay usable across system variants.
type overlayApplier struct {
	reg  *registry.Registry
	vars *variable.Resolver
}

// Apply overlays every assigned parameter set, in assignment order.
// ParameterTypeMismatch is fatal for the offending entry only.
func (a *overlayApplier) Apply(result *FlattenResult) Diagnostics {
	var diags Diagnostics

	for _, setRef := range a.assignedSets(result) {
		entity, err := a.reg.Resolve(setRef)
		if err != nil {
			diags = append(diags, resolveDiag("", setRef, err))
			continue
		}
		var spec v1alpha1.ParameterSetSpec
		if err := decodeSpec(entity.Document, &spec); err != nil {
			diags = append(diags, errDiag(DiagDecodeError, Location{Entity: entity.Ref().String()}, "failed to decode parameter set: %v", err))
			continue
		}

		for _, entry := range spec.Parameters {
			inst, ok := result.instances[entry.Node]
			if !ok {
				diags = append(diags, warnDiag(DiagUnknownParameterTarget,
					Location{Entity: entity.Ref().String(), Path: entry.Node},
					"no instance at this path"))
				continue
			}
			diags = append(diags, a.applyEntry(entity.Ref().String(), inst, entry)...)
		}
	}

	diags = append(diags, a.substituteVariables(result)...)
	return diags
}

// assignedSets collects the parameter-set references assigned to the
// instances, in instance discovery order, each set applied once.
func (a *overlayApplier) assignedSets(result *FlattenResult) []string {
	seen := map[string]struct{}{}
	var refs []string
	for _, path := range result.order {
		for _, ref := range result.instances[path].ParameterSets {
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}
	return refs
}

func (a *overlayApplier) applyEntry(setEntity string, inst *ResolvedInstance, entry v1alpha1.ParameterSetEntry) Diagnostics {
	var diags Diagnostics
	node := inst.Node

	for _, file := range entry.ParamFiles {
		replaced := false
		for i := range node.ParamFiles {
			if node.ParamFiles[i].Name == file.Name {
				node.ParamFiles[i].Path = file.Path
				replaced = true
				break
			}
		}
		if !replaced {
			node.ParamFiles = append(node.ParamFiles, file)
		}
	}

	for _, override := range entry.ParamValues {
		applied := false
		for i := range node.ParamValues {
			if node.ParamValues[i].Name != override.Name {
				continue
			}
			declared := node.ParamValues[i].Type
			if !typeMatches(declared, override.Value) {
				diags = append(diags, errDiag(DiagParameterTypeMismatch,
					Location{Entity: setEntity, Path: inst.Path, Field: override.Name},
					"declared type %s does not accept %v (%T)", declared, override.Value, override.Value))
				applied = true
				break
			}
			node.ParamValues[i].Value = override.Value
			applied = true
			break
		}
		if !applied {
			node.ParamValues = append(node.ParamValues, v1alpha1.Parameter{
				Name: override.Name, Type: override.Type, Value: override.Value,
			})
		}
	}
	return diags
}

// substituteVariables expands `${...}` occurrences in parameter values
// and parameter-file paths using the resolved system variables.
func (a *overlayApplier) substituteVariables(result *FlattenResult) Diagnostics {
	if a.vars == nil {
		return nil
	}
	var diags Diagnostics
	for _, path := range result.order {
		node := result.instances[path].Node
		for i := range node.ParamFiles {
			out, err := a.vars.Substitute(node.ParamFiles[i].Path)
			if err != nil {
				diags = append(diags, errDiag(DiagInvalidVariable,
					Location{Path: path, Field: node.ParamFiles[i].Name}, "%v", err))
				continue
			}
			node.ParamFiles[i].Path = out
		}
		for i := range node.ParamValues {
			s, ok := node.ParamValues[i].Value.(string)
			if !ok || !strings.Contains(s, "${") {
				continue
			}
			out, err := a.vars.Resolve(s)
			if err != nil {
				diags = append(diags, errDiag(DiagInvalidVariable,
					Location{Path: path, Field: node.ParamValues[i].Name}, "%v", err))
				continue
			}
			node.ParamValues[i].Value = out
		}
	}
	return diags
}

// typeMatches checks a value against a declared parameter type. An empty
// declared type accepts anything. Integral floats satisfy int because
// the generic decode widens all numbers.
func typeMatches(declared string, value interface{}) bool {
	if declared == "" || value == nil {
		return true
	}
	base, isArray := strings.CutSuffix(declared, "_array")
	if isArray {
		list, ok := value.([]interface{})
		if !ok {
			return false
		}
		for _, elem := range list {
			if !typeMatches(base, elem) {
				return false
			}
		}
		return true
	}

	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "bool", "boolean":
		_, ok := value.(bool)
		return ok
	case "int", "integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == float64(int64(v))
		case float32:
			return v == float32(int32(v))
		}
		return false
	case "float", "double":
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	}
	// Unrecognized declared types pass through unchecked.
	return true
}
