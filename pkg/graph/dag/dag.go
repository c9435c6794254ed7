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

// Package dag provides a generic directed acyclic graph used to order
// entity references and detect cyclic instantiations before flattening.
package dag

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Vertex is a single graph vertex with its declaration order and the set
// of vertices it depends on.
type Vertex[T cmp.Ordered] struct {
	// ID is the unique identifier of the vertex.
	ID T
	// Order records the original declaration position. Sorting is stable
	// with respect to it so identical inputs produce identical output.
	Order int
	// DependsOn is the set of vertex IDs this vertex depends on.
	DependsOn map[T]struct{}
}

// DirectedAcyclicGraph is a mutable DAG keyed by vertex ID. It rejects
// edges that would introduce a cycle at insertion time.
type DirectedAcyclicGraph[T cmp.Ordered] struct {
	Vertices map[T]*Vertex[T]
}

// NewDirectedAcyclicGraph creates a new empty graph.
func NewDirectedAcyclicGraph[T cmp.Ordered]() *DirectedAcyclicGraph[T] {
	return &DirectedAcyclicGraph[T]{
		Vertices: make(map[T]*Vertex[T]),
	}
}

// CycleError is returned when a cycle is detected. It carries the vertex
// chain forming the cycle for precise reporting.
type CycleError[T cmp.Ordered] struct {
	Cycle []T
}

func (e *CycleError[T]) Error() string {
	parts := make([]string, 0, len(e.Cycle))
	for _, v := range e.Cycle {
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	return "graph contains a cycle: " + strings.Join(parts, " -> ")
}

// AsCycleError returns the *CycleError in err's chain, or nil.
func AsCycleError[T cmp.Ordered](err error) *CycleError[T] {
	var ce *CycleError[T]
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

// AddVertex inserts a vertex with the given declaration order. Adding the
// same ID twice is an error.
func (d *DirectedAcyclicGraph[T]) AddVertex(id T, order int) error {
	if _, exists := d.Vertices[id]; exists {
		return fmt.Errorf("vertex %v already exists in the graph", id)
	}
	d.Vertices[id] = &Vertex[T]{
		ID:        id,
		Order:     order,
		DependsOn: make(map[T]struct{}),
	}
	return nil
}

// AddDependencies records that `from` depends on each of `deps`. The edge
// set is validated: unknown vertices, self references, and edges that
// would close a cycle are rejected (the graph is left unchanged on error).
func (d *DirectedAcyclicGraph[T]) AddDependencies(from T, deps []T) error {
	fromVertex, ok := d.Vertices[from]
	if !ok {
		return fmt.Errorf("vertex %v does not exist in the graph", from)
	}

	added := make([]T, 0, len(deps))
	rollback := func() {
		for _, dep := range added {
			delete(fromVertex.DependsOn, dep)
		}
	}

	for _, dep := range deps {
		if dep == from {
			rollback()
			return fmt.Errorf("vertex %v cannot depend on itself", from)
		}
		if _, ok := d.Vertices[dep]; !ok {
			rollback()
			return fmt.Errorf("dependency %v of vertex %v does not exist in the graph", dep, from)
		}
		if _, exists := fromVertex.DependsOn[dep]; exists {
			continue
		}
		fromVertex.DependsOn[dep] = struct{}{}
		added = append(added, dep)
	}

	if cyclic, cycle := d.hasCycle(); cyclic {
		rollback()
		return &CycleError[T]{Cycle: cycle}
	}
	return nil
}

// hasCycle runs a depth-first search over the graph and reports the first
// cycle found, if any.
func (d *DirectedAcyclicGraph[T]) hasCycle() (bool, []T) {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[T]int, len(d.Vertices))
	var stack []T
	var cycle []T

	var visit func(id T) bool
	visit = func(id T) bool {
		state[id] = inStack
		stack = append(stack, id)

		for dep := range d.Vertices[id].DependsOn {
			switch state[dep] {
			case inStack:
				// Found a back edge; slice the current stack into a cycle.
				start := slices.Index(stack, dep)
				cycle = append(slices.Clone(stack[start:]), dep)
				return true
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, id := range d.sortedIDs() {
		if state[id] == unvisited {
			if visit(id) {
				return true, cycle
			}
		}
	}
	return false, nil
}

// TopologicalSort returns all vertex IDs in dependency order. Within a
// readiness level, vertices keep their declaration order, which makes the
// result deterministic for identical inputs.
func (d *DirectedAcyclicGraph[T]) TopologicalSort() ([]T, error) {
	levels, err := d.TopologicalSortLevels()
	if err != nil {
		return nil, err
	}
	order := make([]T, 0, len(d.Vertices))
	for _, level := range levels {
		order = append(order, level...)
	}
	return order, nil
}

// TopologicalSortLevels groups vertices into levels: every vertex in a
// level depends only on vertices from strictly earlier levels. Vertices in
// the same level are ordered by their declaration order.
func (d *DirectedAcyclicGraph[T]) TopologicalSortLevels() ([][]T, error) {
	if cyclic, cycle := d.hasCycle(); cyclic {
		return nil, &CycleError[T]{Cycle: cycle}
	}

	placed := make(map[T]struct{}, len(d.Vertices))
	remaining := d.sortedByOrder()

	var levels [][]T
	for len(remaining) > 0 {
		var level []T
		var next []T
		for _, id := range remaining {
			if d.ready(id, placed) {
				level = append(level, id)
			} else {
				next = append(next, id)
			}
		}
		if len(level) == 0 {
			// Unreachable once hasCycle passed, kept as a guard.
			return nil, &CycleError[T]{Cycle: next}
		}
		for _, id := range level {
			placed[id] = struct{}{}
		}
		levels = append(levels, level)
		remaining = next
	}
	return levels, nil
}

// ready reports whether every dependency of id is already placed.
func (d *DirectedAcyclicGraph[T]) ready(id T, placed map[T]struct{}) bool {
	for dep := range d.Vertices[id].DependsOn {
		if _, ok := placed[dep]; !ok {
			return false
		}
	}
	return true
}

func (d *DirectedAcyclicGraph[T]) sortedIDs() []T {
	ids := make([]T, 0, len(d.Vertices))
	for id := range d.Vertices {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (d *DirectedAcyclicGraph[T]) sortedByOrder() []T {
	ids := d.sortedIDs()
	slices.SortStableFunc(ids, func(a, b T) int {
		return cmp.Compare(d.Vertices[a].Order, d.Vertices[b].Order)
	})
	return ids
}
