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
	"fmt"
	"strings"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// DiagKind identifies the defect class of a diagnostic.
type DiagKind string

const (
	// Structural defects abort before resolution begins.
	DiagDecodeError        DiagKind = "DecodeError"
	DiagUnsupportedVersion DiagKind = "UnsupportedVersion"
	DiagDuplicateEntity    DiagKind = "DuplicateEntity"
	DiagKindMismatch       DiagKind = "KindMismatch"
	DiagUnknownEntity      DiagKind = "UnknownEntity"
	DiagInvalidLaunch      DiagKind = "InvalidLaunchDescriptor"
	DiagInvalidVariable    DiagKind = "InvalidVariable"
	DiagNoDefaultMode      DiagKind = "NoDefaultMode"
	DiagUnknownMode        DiagKind = "UnknownMode"

	// Topological defects abort flattening.
	DiagCyclicEntityReference DiagKind = "CyclicEntityReference"
	DiagDuplicateInstancePath DiagKind = "DuplicateInstancePath"

	// Connection-level defects are collected per offending connection so
	// one invocation surfaces as many of them as possible.
	DiagUnresolvedPortReference   DiagKind = "UnresolvedPortReference"
	DiagTypeMismatch              DiagKind = "TypeMismatch"
	DiagMultiplePublishersOnTopic DiagKind = "MultiplePublishersOnTopic"
	DiagDuplicateConnection       DiagKind = "DuplicateConnection"

	// Parameter-level defects.
	DiagUnknownParameterTarget DiagKind = "UnknownParameterTarget"
	DiagParameterTypeMismatch  DiagKind = "ParameterTypeMismatch"
)

// abortKinds are the structural and topological classes. Compilation stops
// at the first one and produces no graph.
var abortKinds = map[DiagKind]struct{}{
	DiagDecodeError:           {},
	DiagUnsupportedVersion:    {},
	DiagDuplicateEntity:       {},
	DiagKindMismatch:          {},
	DiagUnknownEntity:         {},
	DiagInvalidLaunch:         {},
	DiagInvalidVariable:       {},
	DiagNoDefaultMode:         {},
	DiagUnknownMode:           {},
	DiagCyclicEntityReference: {},
	DiagDuplicateInstancePath: {},
}

// Aborts reports whether this kind stops the compilation immediately.
func (k DiagKind) Aborts() bool {
	_, ok := abortKinds[k]
	return ok
}

// Location identifies the offending entity, resolved instance path, and
// document field of a diagnostic. Empty parts are omitted from rendering.
type Location struct {
	// Entity is the `<Name>.<kind>` reference of the entity the defect
	// was found in.
	Entity string `json:"entity,omitempty"`
	// Path is the resolved instance path, or a connection endpoint, the
	// defect applies to.
	Path string `json:"path,omitempty"`
	// Field names the document field within the entity.
	Field string `json:"field,omitempty"`
}

func (l Location) String() string {
	parts := make([]string, 0, 3)
	if l.Entity != "" {
		parts = append(parts, l.Entity)
	}
	if l.Path != "" {
		parts = append(parts, l.Path)
	}
	if l.Field != "" {
		parts = append(parts, "field "+l.Field)
	}
	return strings.Join(parts, ": ")
}

// Diagnostic is one reported defect.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Kind     DiagKind `json:"kind"`
	Location Location `json:"location,omitempty"`
	Detail   string   `json:"detail"`
}

func (d Diagnostic) String() string {
	loc := d.Location.String()
	if loc == "" {
		return fmt.Sprintf("%s [%s] %s", d.Severity, d.Kind, d.Detail)
	}
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Kind, loc, d.Detail)
}

// Diagnostics is the ordered list of defects found during one compilation.
// Order is discovery order, which is deterministic for identical inputs.
type Diagnostics []Diagnostic

// HasErrors reports whether any error-severity diagnostic was recorded.
// When true, no resolved system graph is emitted.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errs returns only the error-severity diagnostics.
func (ds Diagnostics) Errs() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

func (ds Diagnostics) String() string {
	lines := make([]string, 0, len(ds))
	for _, d := range ds {
		lines = append(lines, d.String())
	}
	return strings.Join(lines, "\n")
}

func errDiag(kind DiagKind, loc Location, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: SeverityError, Kind: kind, Location: loc, Detail: fmt.Sprintf(format, args...)}
}

func warnDiag(kind DiagKind, loc Location, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Kind: kind, Location: loc, Detail: fmt.Sprintf(format, args...)}
}
