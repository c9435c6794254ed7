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

// Package registry indexes the loaded entity universe by (name, kind).
// A registry is populated once by the loader and read-only afterwards.
package registry

import (
	"fmt"
	"sort"

	"github.com/autowarefoundation/autoware-system-designer/api/v1alpha1"
	"github.com/autowarefoundation/autoware-system-designer/pkg/version"
)

// DuplicateEntityError reports two registered entities sharing a
// (name, kind) pair. Sources name both offending files.
type DuplicateEntityError struct {
	Ref      v1alpha1.Reference
	Existing string
	Incoming string
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("duplicate entity %s: declared in both %s and %s", e.Ref, e.Existing, e.Incoming)
}

// UnknownEntityError reports a reference to a (name, kind) pair with no
// registered entity.
type UnknownEntityError struct {
	Ref v1alpha1.Reference
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown entity %s", e.Ref)
}

// KindMismatchError reports a reference whose name exists under a
// different kind than the one requested.
type KindMismatchError struct {
	Ref    v1alpha1.Reference
	Actual v1alpha1.Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("entity %q is a %s, referenced as %s", e.Ref.Name, e.Actual, e.Ref.Kind)
}

// Registry holds every entity visible to one compilation.
type Registry struct {
	entities map[v1alpha1.Reference]*v1alpha1.Entity
}

func New() *Registry {
	return &Registry{entities: make(map[v1alpha1.Reference]*v1alpha1.Entity)}
}

// Register adds an entity after gating its declared format version.
// Registration order does not affect later resolution.
func (r *Registry) Register(e *v1alpha1.Entity) error {
	if err := version.Check(e.FormatVersion); err != nil {
		return fmt.Errorf("entity %s (%s): %w", e.Ref(), e.Source, err)
	}
	ref := e.Ref()
	if existing, ok := r.entities[ref]; ok {
		return &DuplicateEntityError{Ref: ref, Existing: existing.Source, Incoming: e.Source}
	}
	r.entities[ref] = e
	return nil
}

// Resolve parses a `<Name>.<kind>` reference string and returns the
// matching entity.
func (r *Registry) Resolve(ref string) (*v1alpha1.Entity, error) {
	parsed, err := v1alpha1.ParseReference(ref)
	if err != nil {
		return nil, err
	}
	return r.Get(parsed)
}

// Get returns the entity for an already-parsed reference.
func (r *Registry) Get(ref v1alpha1.Reference) (*v1alpha1.Entity, error) {
	if e, ok := r.entities[ref]; ok {
		return e, nil
	}
	for _, kind := range v1alpha1.AllKinds() {
		if kind == ref.Kind {
			continue
		}
		if _, ok := r.entities[v1alpha1.Reference{Name: ref.Name, Kind: kind}]; ok {
			return nil, &KindMismatchError{Ref: ref, Actual: kind}
		}
	}
	return nil, &UnknownEntityError{Ref: ref}
}

// Len returns the number of registered entities.
func (r *Registry) Len() int { return len(r.entities) }

// ByKind returns the entities of one kind, sorted by name.
func (r *Registry) ByKind(kind v1alpha1.Kind) []*v1alpha1.Entity {
	var out []*v1alpha1.Entity
	for ref, e := range r.entities {
		if ref.Kind == kind {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// References returns every registered reference, sorted for deterministic
// iteration.
func (r *Registry) References() []v1alpha1.Reference {
	refs := make([]v1alpha1.Reference, 0, len(r.entities))
	for ref := range r.entities {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Name != refs[j].Name {
			return refs[i].Name < refs[j].Name
		}
		return refs[i].Kind < refs[j].Kind
	})
	return refs
}
