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

package v1alpha1

import (
	"fmt"
	"strings"
)

// Kind identifies the entity kind of a design document.
type Kind string

const (
	KindNode         Kind = "node"
	KindModule       Kind = "module"
	KindSystem       Kind = "system"
	KindParameterSet Kind = "parameter_set"
)

// AllKinds lists every valid entity kind, in reference-suffix form.
func AllKinds() []Kind {
	return []Kind{KindNode, KindModule, KindSystem, KindParameterSet}
}

// ParseKind converts a kind suffix string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindNode, KindModule, KindSystem, KindParameterSet:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown entity kind %q (valid kinds: node, module, system, parameter_set)", s)
}

// Reference is a decoded entity reference of the form `<Name>.<kind>`,
// e.g. "LidarCenterPoint.node" or "Perception.module".
type Reference struct {
	Name string
	Kind Kind
}

func (r Reference) String() string {
	return r.Name + "." + string(r.Kind)
}

// ParseReference decodes a reference string. The name part must be
// non-empty and the suffix must be a valid kind.
func ParseReference(ref string) (Reference, error) {
	idx := strings.LastIndex(ref, ".")
	if idx <= 0 || idx == len(ref)-1 {
		return Reference{}, fmt.Errorf("invalid entity reference %q: expected '<Name>.<kind>'", ref)
	}
	kind, err := ParseKind(ref[idx+1:])
	if err != nil {
		return Reference{}, fmt.Errorf("invalid entity reference %q: %w", ref, err)
	}
	return Reference{Name: ref[:idx], Kind: kind}, nil
}

// Entity is a loaded design document before any variant resolution.
//
// The Document field keeps the raw decoded tree so that override/remove
// blocks can be merged generically before the typed views (NodeSpec,
// ModuleSpec, ...) are decoded. Entities are immutable after load: all
// variant application produces new resolved trees, never mutates Document.
type Entity struct {
	// Name is the logical entity name. It must match the `<Name>` part of
	// the defining file `<Name>.<kind>.yaml`.
	Name string
	// Kind is inferred from the filename suffix, never from content.
	Kind Kind
	// FormatVersion is the declared design-format version (major.minor.patch).
	FormatVersion string
	// Source is the path of the defining document, used in diagnostics.
	Source string
	// Document is the raw decoded tree of the defining document.
	Document map[string]interface{}
}

// Ref returns the canonical reference for this entity.
func (e *Entity) Ref() Reference {
	return Reference{Name: e.Name, Kind: e.Kind}
}

// Port declares a typed input or output interface point on a Node or the
// external boundary of a Module. Direction is implied by the containing
// list (inputs vs outputs).
type Port struct {
	// Name of the port, unique within its direction on the owning entity.
	Name string `json:"name,omitempty"`
	// MessageType is the wire type, e.g. "sensor_msgs/msg/PointCloud2".
	// Two connected ports must carry an identical MessageType.
	MessageType string `json:"message_type,omitempty"`
	// QoS is an optional quality-of-service profile label.
	QoS string `json:"qos,omitempty"`
	// RemapTarget overrides the default topic name derived from the port.
	RemapTarget string `json:"remap_target,omitempty"`
	// Global, when set, is a literal global topic name. Global ports
	// bypass namespace prefixing entirely.
	Global string `json:"global,omitempty"`
}

// Connection is a declared wiring edge between two port paths. Each path
// is dot-separated: `input.<port>` / `output.<port>` address the enclosing
// composite's external ports, `<instance>.output.<port>` addresses a child.
// The trailing segment may be a wildcard: `*` pairs same-named ports not
// already referenced explicitly at this level, `^` pairs the full port set.
type Connection struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// LaunchSpec describes how a Node is started. Exactly which fields are
// meaningful depends on the launch method; at least one of Plugin,
// Executable, or ROS2LaunchFile must be present.
type LaunchSpec struct {
	Plugin         string `json:"plugin,omitempty"`
	Executable     string `json:"executable,omitempty"`
	ROS2LaunchFile string `json:"ros2_launch_file,omitempty"`
	// UseContainer requests composition into a component container;
	// ContainerName is required when set.
	UseContainer  bool   `json:"use_container,omitempty"`
	ContainerName string `json:"container_name,omitempty"`
}

// ParameterFile references a parameter file by a stable key so that
// ParameterSets can remap the path without touching the node definition.
type ParameterFile struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

// Parameter declares a single node parameter with its type and default.
type Parameter struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
	// Default is the declared default value; ParameterSets may override it.
	Default interface{} `json:"default,omitempty"`
	// Value is the override value in ParameterSet entries.
	Value interface{} `json:"value,omitempty"`
}

// Process is an auxiliary OS process attached to a Node. Carried through
// to the resolved instance verbatim; the engine only does bookkeeping.
type Process struct {
	Name    string   `json:"name,omitempty"`
	Command []string `json:"command,omitempty"`
}

// NodeSpec is the typed view of a Node document after variant resolution.
type NodeSpec struct {
	Name       string          `json:"name,omitempty"`
	Package    string          `json:"package,omitempty"`
	Launch     *LaunchSpec     `json:"launch,omitempty"`
	Inputs     []Port          `json:"inputs,omitempty"`
	Outputs    []Port          `json:"outputs,omitempty"`
	ParamFiles []ParameterFile `json:"param_files,omitempty"`
	// ParamValues are the node's parameter declarations (name, type, default).
	ParamValues []Parameter `json:"param_values,omitempty"`
	Processes   []Process   `json:"processes,omitempty"`
}

// InstanceSpec places one entity inside a Module or System tree. It is a
// weak reference: Entity names a registry entry resolved at use time and
// never copied or cached as a pointer.
type InstanceSpec struct {
	// Name is the local instance name, unique among siblings.
	Name string `json:"name,omitempty"`
	// Entity is the `<Name>.<kind>` reference to the instantiated entity.
	Entity string `json:"entity,omitempty"`
	// Namespace, when set on a System component, replaces the local name
	// as this level's namespace contribution.
	Namespace string `json:"namespace,omitempty"`
	// ComputeUnit assigns a hardware placement label, inherited by all
	// nested instances unless they override it.
	ComputeUnit string `json:"compute_unit,omitempty"`
	// ParameterSet optionally references `<Name>.parameter_set` entities
	// to overlay onto nodes below this instance.
	ParameterSet []string `json:"parameter_set,omitempty"`
	// Modes restricts the instance to the named System modes. Empty means
	// active in every mode.
	Modes []string `json:"modes,omitempty"`
	// Override and Remove form an instance-local variant spec applied to
	// the referenced entity's document before it is flattened.
	Override map[string]interface{} `json:"override,omitempty"`
	Remove   map[string]interface{} `json:"remove,omitempty"`
}

// ModuleSpec is the typed view of a Module document after variant resolution.
type ModuleSpec struct {
	Name        string         `json:"name,omitempty"`
	Instances   []InstanceSpec `json:"instances,omitempty"`
	Inputs      []Port         `json:"inputs,omitempty"`
	Outputs     []Port         `json:"outputs,omitempty"`
	Connections []Connection   `json:"connections,omitempty"`
}

// Variable is a named System-level value. The value string may embed
// `${...}` expressions over `env` and previously declared variables.
type Variable struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

// Mode names an operating variant of a System. Exactly one mode is active
// per compilation; the one marked Default is used when none is requested.
type Mode struct {
	Name    string `json:"name,omitempty"`
	Default bool   `json:"default,omitempty"`
}

// SystemSpec is the typed view of a System document after the active
// mode's override/remove blocks have been applied.
type SystemSpec struct {
	Name          string         `json:"name,omitempty"`
	Variables     []Variable     `json:"variables,omitempty"`
	VariableFiles []string       `json:"variable_files,omitempty"`
	Modes         []Mode         `json:"modes,omitempty"`
	ParameterSets []string       `json:"parameter_sets,omitempty"`
	Components    []InstanceSpec `json:"components,omitempty"`
	Connections   []Connection   `json:"connections,omitempty"`
}

// ParameterSetEntry targets one node instance by its resolved path and
// carries parameter-file remaps and parameter value overrides for it.
type ParameterSetEntry struct {
	// Node is the dot-joined resolved instance path of the target node.
	Node        string          `json:"node,omitempty"`
	ParamFiles  []ParameterFile `json:"param_files,omitempty"`
	ParamValues []Parameter     `json:"param_values,omitempty"`
}

// ParameterSetSpec is the typed view of a ParameterSet document.
type ParameterSetSpec struct {
	Name       string              `json:"name,omitempty"`
	Parameters []ParameterSetEntry `json:"parameters,omitempty"`
}
