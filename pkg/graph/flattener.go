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
	"errors"
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/autowarefoundation/autoware-system-designer/api/v1alpha1"
	"github.com/autowarefoundation/autoware-system-designer/pkg/graph/dag"
	"github.com/autowarefoundation/autoware-system-designer/pkg/registry"
)

// ResolvedInstance is one leaf node instance after flattening. Path is
// the dot-joined namespace chain from the System root and is globally
// unique.
type ResolvedInstance struct {
	Path          string             `json:"path"`
	Namespace     string             `json:"namespace"`
	Entity        string             `json:"entity"`
	ComputeUnit   string             `json:"compute_unit,omitempty"`
	ParameterSets []string           `json:"parameter_sets,omitempty"`
	Node          *v1alpha1.NodeSpec `json:"node"`
}

// scope is one composite level of the flattened tree: the System root or
// one Module instantiation. The linker resolves each scope's connections
// against its local port tables.
type scope struct {
	// path is the namespace chain to this composite; empty at the root.
	path []string
	// entity is the defining entity reference, for diagnostics.
	entity string
	// inputs and outputs are the composite's declared boundary ports.
	inputs  []v1alpha1.Port
	outputs []v1alpha1.Port
	// connections declared at this level, after variant resolution.
	connections []v1alpha1.Connection
	// children in declaration order. A child is a leaf or a sub-scope.
	children []*scopeChild
}

type scopeChild struct {
	name string
	leaf *ResolvedInstance
	sub  *scope
}

func (s *scope) child(name string) *scopeChild {
	for _, c := range s.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// FlattenResult is the flattener's output: the scope tree for the linker
// and the flat leaf table for parameter overlay and the final graph.
type FlattenResult struct {
	root      *scope
	instances map[string]*ResolvedInstance
	order     []string
	// system is the typed system view after mode-variant resolution.
	system *v1alpha1.SystemSpec
}

type flattener struct {
	reg *registry.Registry
}

// inherited carries the attributes a component passes down to nested
// instances unless they override them locally.
type inherited struct {
	computeUnit   string
	parameterSets []string
}

// Flatten turns a System entity plus an active mode into the flat
// instance table. The entity-reference graph of the base documents is
// checked for cycles up front; the walk itself carries the entity
// references on the current recursion path so cycles introduced by
// variant overrides are caught too.
func (f *flattener) Flatten(system *v1alpha1.Entity, mode string) (*FlattenResult, Diagnostics) {
	var diags Diagnostics

	if d := f.checkEntityCycles(system); d != nil {
		return nil, append(diags, *d)
	}

	doc := resolveModeVariant(system.Document, mode)
	var spec v1alpha1.SystemSpec
	if err := decodeSpec(doc, &spec); err != nil {
		return nil, append(diags, errDiag(DiagDecodeError, Location{Entity: system.Ref().String()}, "failed to decode system: %v", err))
	}

	result := &FlattenResult{instances: map[string]*ResolvedInstance{}, system: &spec}
	root := &scope{entity: system.Ref().String()}
	result.root = root

	base := inherited{parameterSets: spec.ParameterSets}
	trail := []string{system.Ref().String()}
	diags = append(diags, f.expandInstances(root, spec.Components, spec.Connections, mode, base, trail, result)...)
	if diags.HasErrors() {
		return nil, diags
	}
	return result, diags
}

// expandInstances fills a scope from its effective instance list,
// recursing into module instantiations. trail holds the entity
// references on the current recursion path, so a module that comes to
// instantiate itself transitively, even through an override block, is
// rejected instead of recursing without bound.
func (f *flattener) expandInstances(s *scope, instances []v1alpha1.InstanceSpec, connections []v1alpha1.Connection, mode string, inh inherited, trail []string, result *FlattenResult) Diagnostics {
	var diags Diagnostics

	active := make([]v1alpha1.InstanceSpec, 0, len(instances))
	for _, inst := range instances {
		if !modeAllows(inst.Modes, mode) {
			connections = dropConnectionsReferencing(connections, inst.Name)
			continue
		}
		active = append(active, inst)
	}
	s.connections = connections

	for _, inst := range active {
		entity, err := f.reg.Resolve(inst.Entity)
		if err != nil {
			return append(diags, resolveDiag(s.entity, inst.Name, err))
		}

		childInh := inherited{
			computeUnit:   inst.ComputeUnit,
			parameterSets: inst.ParameterSet,
		}
		if childInh.computeUnit == "" {
			childInh.computeUnit = inh.computeUnit
		}
		if len(childInh.parameterSets) == 0 {
			childInh.parameterSets = inh.parameterSets
		}

		contribution := inst.Name
		if inst.Namespace != "" {
			contribution = inst.Namespace
		}
		path := append(append([]string{}, s.path...), contribution)

		resolved := applyVariant(entity.Document, inst.Remove, inst.Override)

		switch entity.Kind {
		case v1alpha1.KindNode:
			leaf, d := f.emitLeaf(entity, resolved, path, childInh)
			if d != nil {
				return append(diags, *d)
			}
			if _, exists := result.instances[leaf.Path]; exists {
				return append(diags, errDiag(DiagDuplicateInstancePath,
					Location{Entity: entity.Ref().String(), Path: leaf.Path},
					"two instances resolve to the same path"))
			}
			result.instances[leaf.Path] = leaf
			result.order = append(result.order, leaf.Path)
			s.children = append(s.children, &scopeChild{name: inst.Name, leaf: leaf})

		case v1alpha1.KindModule:
			ref := entity.Ref().String()
			for _, visited := range trail {
				if visited == ref {
					return append(diags, errDiag(DiagCyclicEntityReference,
						Location{Entity: ref, Path: joinPath(path)},
						"entity instantiates itself transitively: %s", strings.Join(append(append([]string{}, trail...), ref), " -> ")))
				}
			}
			var moduleSpec v1alpha1.ModuleSpec
			if err := decodeSpec(resolved, &moduleSpec); err != nil {
				return append(diags, errDiag(DiagDecodeError, Location{Entity: ref, Path: joinPath(path)}, "failed to decode module: %v", err))
			}
			sub := &scope{
				path:    path,
				entity:  ref,
				inputs:  moduleSpec.Inputs,
				outputs: moduleSpec.Outputs,
			}
			childTrail := append(append([]string{}, trail...), ref)
			d := f.expandInstances(sub, moduleSpec.Instances, moduleSpec.Connections, mode, childInh, childTrail, result)
			diags = append(diags, d...)
			if diags.HasErrors() {
				return diags
			}
			s.children = append(s.children, &scopeChild{name: inst.Name, sub: sub})

		default:
			return append(diags, errDiag(DiagKindMismatch,
				Location{Entity: entity.Ref().String(), Path: joinPath(path)},
				"entity of kind %s cannot be instantiated", entity.Kind))
		}
	}
	return diags
}

func (f *flattener) emitLeaf(entity *v1alpha1.Entity, resolved map[string]interface{}, path []string, inh inherited) (*ResolvedInstance, *Diagnostic) {
	var nodeSpec v1alpha1.NodeSpec
	if err := decodeSpec(resolved, &nodeSpec); err != nil {
		d := errDiag(DiagDecodeError, Location{Entity: entity.Ref().String(), Path: joinPath(path)}, "failed to decode node: %v", err)
		return nil, &d
	}

	return &ResolvedInstance{
		Path:          joinPath(path),
		Namespace:     "/" + strings.Join(path, "/"),
		Entity:        entity.Ref().String(),
		ComputeUnit:   inh.computeUnit,
		ParameterSets: inh.parameterSets,
		Node:          &nodeSpec,
	}, nil
}

// checkEntityCycles walks the entity-reference graph of the base
// documents reachable from the system with an explicit stack and
// rejects modules that transitively instantiate themselves. References
// added by variant overrides are not visible here; the expansion walk
// guards those with its recursion trail.
func (f *flattener) checkEntityCycles(system *v1alpha1.Entity) *Diagnostic {
	g := dag.NewDirectedAcyclicGraph[string]()
	order := 0

	refsOf := func(e *v1alpha1.Entity) []string {
		field := "instances"
		if e.Kind == v1alpha1.KindSystem {
			field = "components"
		}
		var refs []string
		for _, elem := range asList(e.Document[field]) {
			inst, ok := elem.(map[string]interface{})
			if !ok {
				continue
			}
			if ref, ok := inst["entity"].(string); ok && ref != "" {
				refs = append(refs, ref)
			}
		}
		return refs
	}

	rootRef := system.Ref().String()
	_ = g.AddVertex(rootRef, order)
	seen := map[string]struct{}{rootRef: {}}
	stack := []*v1alpha1.Entity{system}

	type edge struct {
		from string
		to   []string
	}
	var edges []edge

	for len(stack) > 0 {
		entity := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var deps []string
		for _, ref := range refsOf(entity) {
			target, err := f.reg.Resolve(ref)
			if err != nil {
				// Unknown references get a precise diagnostic during
				// the walk itself.
				continue
			}
			deps = append(deps, ref)
			if _, ok := seen[ref]; !ok {
				seen[ref] = struct{}{}
				order++
				_ = g.AddVertex(ref, order)
				stack = append(stack, target)
			}
		}
		if len(deps) > 0 {
			edges = append(edges, edge{from: entity.Ref().String(), to: deps})
		}
	}

	for _, e := range edges {
		if err := g.AddDependencies(e.from, e.to); err != nil {
			if cycleErr := dag.AsCycleError[string](err); cycleErr != nil {
				d := errDiag(DiagCyclicEntityReference,
					Location{Entity: e.from},
					"entity instantiates itself transitively: %s", strings.Join(cycleErr.Cycle, " -> "))
				return &d
			}
			d := errDiag(DiagCyclicEntityReference, Location{Entity: e.from}, "%v", err)
			return &d
		}
	}
	return nil
}

// resolveModeVariant applies the system's per-mode override/remove blocks
// for the active mode. The blocks are mappings keyed by mode name.
func resolveModeVariant(doc map[string]interface{}, mode string) map[string]interface{} {
	remove := modeBlock(doc, "remove", mode)
	override := modeBlock(doc, "override", mode)
	resolved := applyVariant(doc, remove, override)
	delete(resolved, "override")
	delete(resolved, "remove")
	return resolved
}

func modeBlock(doc map[string]interface{}, field, mode string) map[string]interface{} {
	blocks, ok := doc[field].(map[string]interface{})
	if !ok {
		return nil
	}
	block, _ := blocks[mode].(map[string]interface{})
	return block
}

// ActiveMode selects the mode a compilation runs under. An explicit
// request must name a declared mode. Without a request, the mode marked
// default wins; a system with no modes at all runs under an implicit
// mode named "default".
func ActiveMode(spec *v1alpha1.SystemSpec, requested string) (string, *Diagnostic) {
	if requested != "" {
		if len(spec.Modes) == 0 && requested == "default" {
			return "default", nil
		}
		for _, m := range spec.Modes {
			if m.Name == requested {
				return requested, nil
			}
		}
		d := errDiag(DiagUnknownMode, Location{Entity: spec.Name, Field: "modes"}, "mode %q is not declared", requested)
		return "", &d
	}
	if len(spec.Modes) == 0 {
		return "default", nil
	}
	for _, m := range spec.Modes {
		if m.Default {
			return m.Name, nil
		}
	}
	d := errDiag(DiagNoDefaultMode, Location{Entity: spec.Name, Field: "modes"}, "no mode is marked default and none was requested")
	return "", &d
}

func modeAllows(restriction []string, mode string) bool {
	if len(restriction) == 0 {
		return true
	}
	for _, m := range restriction {
		if m == mode {
			return true
		}
	}
	return false
}

// dropConnectionsReferencing filters out connections whose endpoint path
// starts with the given local instance name. Applied when a mode
// restriction skips an instance.
func dropConnectionsReferencing(connections []v1alpha1.Connection, name string) []v1alpha1.Connection {
	kept := make([]v1alpha1.Connection, 0, len(connections))
	for _, c := range connections {
		fromHead, _, _ := strings.Cut(c.From, ".")
		toHead, _, _ := strings.Cut(c.To, ".")
		if fromHead == name || toHead == name {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func resolveDiag(parentEntity, instanceName string, err error) Diagnostic {
	loc := Location{Entity: parentEntity, Field: instanceName}
	var mismatch *registry.KindMismatchError
	if errors.As(err, &mismatch) {
		return errDiag(DiagKindMismatch, loc, "%v", err)
	}
	return errDiag(DiagUnknownEntity, loc, "%v", err)
}

func joinPath(path []string) string {
	return strings.Join(path, ".")
}

// decodeSpec converts a resolved generic tree into its typed view.
func decodeSpec(doc map[string]interface{}, out interface{}) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal resolved document: %w", err)
	}
	return yaml.Unmarshal(data, out)
}
