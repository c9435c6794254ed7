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
	"github.com/autowarefoundation/autoware-system-designer/pkg/variable"
)

// ResolvedSystemGraph is the compiler's output: the flattened instance
// table plus the topic table. It is built once per compilation and never
// mutated afterwards; downstream generators only read it.
type ResolvedSystemGraph struct {
	// System is the compiled system's entity reference.
	System string `json:"system"`
	// Mode the graph was resolved under.
	Mode string `json:"mode"`
	// Variables resolved from the system declaration, in order.
	Variables []variable.ResolvedVariable `json:"variables,omitempty"`
	// Instances maps resolved instance paths to leaf configurations.
	Instances map[string]*ResolvedInstance `json:"instances"`
	// InstanceOrder lists the paths in tree walk order.
	InstanceOrder []string `json:"instance_order"`
	// Topics is the ordered topic table: one publisher, N subscribers.
	Topics []*Topic `json:"topics"`
}

// Instance returns the leaf at a resolved path.
func (g *ResolvedSystemGraph) Instance(path string) (*ResolvedInstance, bool) {
	inst, ok := g.Instances[path]
	return inst, ok
}

// TopicsOf returns the topics a resolved instance publishes or
// subscribes to, in table order.
func (g *ResolvedSystemGraph) TopicsOf(path string) []*Topic {
	var out []*Topic
	for _, t := range g.Topics {
		if t.Publisher != nil && t.Publisher.Path == path {
			out = append(out, t)
			continue
		}
		for _, s := range t.Subscribers {
			if s.Path == path {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
