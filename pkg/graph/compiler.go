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
	"os"

	"github.com/go-logr/logr"

	"github.com/autowarefoundation/autoware-system-designer/api/v1alpha1"
	"github.com/autowarefoundation/autoware-system-designer/pkg/registry"
	"github.com/autowarefoundation/autoware-system-designer/pkg/variable"
)

// Flattener turns a System entity plus an active mode into the flat
// instance table, applying variant resolution at every tree level.
type Flattener interface {
	Flatten(system *v1alpha1.Entity, mode string) (*FlattenResult, Diagnostics)
}

// Linker resolves every declared connection against the flattened port
// tables and assembles the topic table.
type Linker interface {
	Link(*FlattenResult) (*LinkResult, Diagnostics)
}

// OverlayApplier overlays parameter-set entries onto the flattened
// instances and substitutes resolved variables.
type OverlayApplier interface {
	Apply(*FlattenResult) Diagnostics
}

// Compiler orchestrates the compilation pipeline end-to-end. Each stage
// can be replaced through options for testing or custom behavior.
type Compiler struct {
	reg       *registry.Registry
	flattener Flattener
	linker    func() *linker
	overlay   func(*variable.Resolver) OverlayApplier
	environ   []string
	log       logr.Logger
}

// Option mutates Compiler stage wiring before defaults are applied.
type Option func(*Compiler)

// WithFlattener overrides the flattener stage implementation.
func WithFlattener(f Flattener) Option { return func(c *Compiler) { c.flattener = f } }

// WithEnviron overrides the process environment snapshot used for
// variable resolution. Defaults to os.Environ().
func WithEnviron(environ []string) Option { return func(c *Compiler) { c.environ = environ } }

// WithLogger installs a logger. Defaults to logr.Discard().
func WithLogger(log logr.Logger) Option { return func(c *Compiler) { c.log = log } }

// NewCompiler constructs a compilation pipeline over a populated
// registry. The registry must not be mutated while compilations run.
func NewCompiler(reg *registry.Registry, opts ...Option) *Compiler {
	c := &Compiler{
		reg: reg,
		log: logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.flattener == nil {
		c.flattener = &flattener{reg: reg}
	}
	if c.linker == nil {
		c.linker = newLinker
	}
	if c.overlay == nil {
		c.overlay = func(vars *variable.Resolver) OverlayApplier {
			return &overlayApplier{reg: reg, vars: vars}
		}
	}
	if c.environ == nil {
		c.environ = os.Environ()
	}
	return c
}

// Request names what to compile: a system entity reference and an
// optional mode. An empty mode selects the system's default mode.
type Request struct {
	System string
	Mode   string
}

// Compile resolves a system into its ResolvedSystemGraph.
//
//	Flatten -> Variables -> Link -> Overlay -> Assemble
//
// The graph is nil whenever any error-severity diagnostic was recorded;
// the full ordered diagnostic list is always returned.
func (c *Compiler) Compile(req Request) (*ResolvedSystemGraph, Diagnostics) {
	var diags Diagnostics

	system, err := c.reg.Resolve(req.System)
	if err != nil {
		return nil, append(diags, resolveDiag("", req.System, err))
	}

	mode, d := c.activeMode(system, req.Mode)
	if d != nil {
		return nil, append(diags, *d)
	}
	c.log.V(1).Info("compiling system", "system", req.System, "mode", mode)

	flat, flatDiags := c.flattener.Flatten(system, mode)
	diags = append(diags, flatDiags...)
	if flat == nil || diags.HasErrors() {
		return nil, diags
	}
	c.log.V(1).Info("flattened instance tree", "instances", len(flat.order))

	vars, varDiags := c.resolveVariables(flat)
	diags = append(diags, varDiags...)
	if diags.HasErrors() {
		return nil, diags
	}

	linked, linkDiags := c.linker().Link(flat)
	diags = append(diags, linkDiags...)

	overlayDiags := c.overlay(vars).Apply(flat)
	diags = append(diags, overlayDiags...)

	if diags.HasErrors() {
		return nil, diags
	}
	c.log.V(1).Info("assembled topic table", "topics", len(linked.topics))

	graph := &ResolvedSystemGraph{
		System:        system.Ref().String(),
		Mode:          mode,
		Instances:     flat.instances,
		InstanceOrder: flat.order,
		Topics:        linked.topics,
	}
	if vars != nil {
		graph.Variables = vars.Values()
	}
	return graph, diags
}

// activeMode decodes the system's mode declarations against the request.
func (c *Compiler) activeMode(system *v1alpha1.Entity, requested string) (string, *Diagnostic) {
	var spec v1alpha1.SystemSpec
	if err := decodeSpec(system.Document, &spec); err != nil {
		d := errDiag(DiagDecodeError, Location{Entity: system.Ref().String()}, "failed to decode system: %v", err)
		return "", &d
	}
	return ActiveMode(&spec, requested)
}

// resolveVariables evaluates the system's variable declarations in
// order. Evaluation failures abort the compilation: downstream values
// would silently keep unexpanded placeholders otherwise.
func (c *Compiler) resolveVariables(flat *FlattenResult) (*variable.Resolver, Diagnostics) {
	vars, err := variable.NewResolver(c.environ)
	if err != nil {
		return nil, Diagnostics{errDiag(DiagInvalidVariable, Location{}, "%v", err)}
	}
	var diags Diagnostics
	for _, v := range flat.system.Variables {
		if err := vars.Declare(v.Name, v.Value); err != nil {
			diags = append(diags, errDiag(DiagInvalidVariable,
				Location{Entity: flat.system.Name, Field: v.Name}, "%v", err))
		}
	}
	return vars, diags
}
