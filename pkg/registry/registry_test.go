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

package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autowarefoundation/autoware-system-designer/api/v1alpha1"
)

func entity(name string, kind v1alpha1.Kind, source string) *v1alpha1.Entity {
	return &v1alpha1.Entity{
		Name:          name,
		Kind:          kind,
		FormatVersion: "0.3.0",
		Source:        source,
	}
}

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(entity("LidarCenterPoint", v1alpha1.KindNode, "nodes/LidarCenterPoint.node.yaml")))
	require.NoError(t, r.Register(entity("Perception", v1alpha1.KindModule, "modules/Perception.module.yaml")))

	e, err := r.Resolve("LidarCenterPoint.node")
	require.NoError(t, err)
	assert.Equal(t, "LidarCenterPoint", e.Name)
	assert.Equal(t, v1alpha1.KindNode, e.Kind)

	assert.Equal(t, 2, r.Len())
}

func TestRegisterSameNameDifferentKind(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(entity("Perception", v1alpha1.KindNode, "a.node.yaml")))
	require.NoError(t, r.Register(entity("Perception", v1alpha1.KindModule, "a.module.yaml")))

	e, err := r.Resolve("Perception.module")
	require.NoError(t, err)
	assert.Equal(t, v1alpha1.KindModule, e.Kind)
}

func TestRegisterDuplicate(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(entity("Planner", v1alpha1.KindNode, "one/Planner.node.yaml")))

	err := r.Register(entity("Planner", v1alpha1.KindNode, "two/Planner.node.yaml"))
	var dup *DuplicateEntityError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "one/Planner.node.yaml", dup.Existing)
	assert.Equal(t, "two/Planner.node.yaml", dup.Incoming)
}

func TestRegisterUnsupportedVersion(t *testing.T) {
	r := New()
	e := entity("Planner", v1alpha1.KindNode, "Planner.node.yaml")
	e.FormatVersion = "1.0.0"
	err := r.Register(e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Planner.node")
}

func TestResolveUnknown(t *testing.T) {
	r := New()
	_, err := r.Resolve("Ghost.node")
	var unknown *UnknownEntityError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Ghost", unknown.Ref.Name)
}

func TestResolveKindMismatch(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(entity("Perception", v1alpha1.KindModule, "Perception.module.yaml")))

	_, err := r.Resolve("Perception.node")
	var mismatch *KindMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, v1alpha1.KindModule, mismatch.Actual)
}

func TestResolveMalformedReference(t *testing.T) {
	r := New()
	for _, ref := range []string{"", "noDot", ".node", "Name.", "Name.widget"} {
		_, err := r.Resolve(ref)
		assert.Error(t, err, "ref %q", ref)
		var unknown *UnknownEntityError
		assert.False(t, errors.As(err, &unknown), "ref %q should fail parsing, not lookup", ref)
	}
}

func TestByKindSorted(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(entity("Zeta", v1alpha1.KindNode, "z.node.yaml")))
	require.NoError(t, r.Register(entity("Alpha", v1alpha1.KindNode, "a.node.yaml")))
	require.NoError(t, r.Register(entity("Mid", v1alpha1.KindModule, "m.module.yaml")))

	nodes := r.ByKind(v1alpha1.KindNode)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Alpha", nodes[0].Name)
	assert.Equal(t, "Zeta", nodes[1].Name)
}
