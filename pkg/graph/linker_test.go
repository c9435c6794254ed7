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
)

// buildAndLink flattens a system document and runs the linker on it.
func buildAndLink(t *testing.T, reg *registry.Registry, system *v1alpha1.Entity) (*LinkResult, Diagnostics) {
	t.Helper()
	f := &flattener{reg: reg}
	result, diags := f.Flatten(system, "default")
	require.False(t, diags.HasErrors(), diags.String())
	return newLinker().Link(result)
}

func topicByName(topics []*Topic, name string) *Topic {
	for _, tp := range topics {
		if tp.Name == name {
			return tp
		}
	}
	return nil
}

func TestLinkDirectConnection(t *testing.T) {
	reg := registry.New()
	testEntity(t, reg, "Lidar", v1alpha1.KindNode,
		nodeDocument("Lidar", nil, []map[string]interface{}{port("pointcloud", "PC2")}))
	testEntity(t, reg, "Detector", v1alpha1.KindNode,
		nodeDocument("Detector", []map[string]interface{}{port("pointcloud", "PC2")}, nil))
	system := testEntity(t, reg, "Vehicle", v1alpha1.KindSystem, map[string]interface{}{
		"name": "Vehicle",
		"components": toList(
			instance("lidar", "Lidar.node"),
			instance("detector", "Detector.node"),
		),
		"connections": toList(connection("lidar.output.pointcloud", "detector.input.pointcloud")),
	})

	linked, diags := buildAndLink(t, reg, system)
	require.False(t, diags.HasErrors(), diags.String())

	require.Len(t, linked.topics, 1)
	topic := linked.topics[0]
	assert.Equal(t, "/lidar/output/pointcloud", topic.Name)
	require.NotNil(t, topic.Publisher)
	assert.Equal(t, "lidar", topic.Publisher.Path)
	require.Len(t, topic.Subscribers, 1)
	assert.Equal(t, "detector", topic.Subscribers[0].Path)
}

func TestLinkThroughModuleBoundary(t *testing.T) {
	reg := registry.New()
	testEntity(t, reg, "Lidar", v1alpha1.KindNode,
		nodeDocument("Lidar", nil, []map[string]interface{}{port("pointcloud", "PC2")}))
	testEntity(t, reg, "Detector", v1alpha1.KindNode,
		nodeDocument("Detector", []map[string]interface{}{port("pointcloud", "PC2")}, []map[string]interface{}{port("objects", "Objects")}))
	testEntity(t, reg, "Perception", v1alpha1.KindModule, map[string]interface{}{
		"name":      "Perception",
		"instances": toList(instance("detector", "Detector.node")),
		"inputs":    toList(port("pointcloud", "PC2")),
		"outputs":   toList(port("objects", "Objects")),
		"connections": toList(
			connection("input.pointcloud", "detector.input.pointcloud"),
			connection("detector.output.objects", "output.objects"),
		),
	})
	testEntity(t, reg, "Tracker", v1alpha1.KindNode,
		nodeDocument("Tracker", []map[string]interface{}{port("objects", "Objects")}, nil))
	system := testEntity(t, reg, "Vehicle", v1alpha1.KindSystem, map[string]interface{}{
		"name": "Vehicle",
		"components": toList(
			instance("lidar", "Lidar.node"),
			instance("perception", "Perception.module"),
			instance("tracker", "Tracker.node"),
		),
		"connections": toList(
			connection("lidar.output.pointcloud", "perception.input.pointcloud"),
			connection("perception.output.objects", "tracker.input.objects"),
		),
	})

	linked, diags := buildAndLink(t, reg, system)
	require.False(t, diags.HasErrors(), diags.String())

	pc := topicByName(linked.topics, "/lidar/output/pointcloud")
	require.NotNil(t, pc)
	require.Len(t, pc.Subscribers, 1)
	assert.Equal(t, "perception.detector", pc.Subscribers[0].Path)

	objects := topicByName(linked.topics, "/perception/detector/output/objects")
	require.NotNil(t, objects)
	require.Len(t, objects.Subscribers, 1)
	assert.Equal(t, "tracker", objects.Subscribers[0].Path)
}

func TestLinkWildcardSymmetry(t *testing.T) {
	reg := registry.New()
	testEntity(t, reg, "A", v1alpha1.KindNode,
		nodeDocument("A", nil, []map[string]interface{}{port("p", "T"), port("q", "T")}))
	testEntity(t, reg, "B", v1alpha1.KindNode,
		nodeDocument("B", []map[string]interface{}{port("p", "T"), port("r", "T")}, nil))
	system := testEntity(t, reg, "Vehicle", v1alpha1.KindSystem, map[string]interface{}{
		"name": "Vehicle",
		"components": toList(
			instance("a", "A.node"),
			instance("b", "B.node"),
		),
		"connections": toList(connection("a.output.*", "b.input.*")),
	})

	linked, diags := buildAndLink(t, reg, system)
	require.False(t, diags.HasErrors(), diags.String())

	p := topicByName(linked.topics, "/a/output/p")
	require.NotNil(t, p)
	assert.Len(t, p.Subscribers, 1)

	// q is unmatched on b's side, published with no subscribers.
	q := topicByName(linked.topics, "/a/output/q")
	require.NotNil(t, q)
	assert.Empty(t, q.Subscribers)
}

func TestLinkWildcardExcludesExplicit(t *testing.T) {
	reg := registry.New()
	testEntity(t, reg, "A", v1alpha1.KindNode,
		nodeDocument("A", nil, []map[string]interface{}{port("p", "T"), port("q", "T")}))
	testEntity(t, reg, "B", v1alpha1.KindNode,
		nodeDocument("B", []map[string]interface{}{port("p", "T"), port("q", "T")}, nil))
	testEntity(t, reg, "C", v1alpha1.KindNode,
		nodeDocument("C", []map[string]interface{}{port("p", "T")}, nil))
	system := testEntity(t, reg, "Vehicle", v1alpha1.KindSystem, map[string]interface{}{
		"name": "Vehicle",
		"components": toList(
			instance("a", "A.node"),
			instance("b", "B.node"),
			instance("c", "C.node"),
		),
		"connections": toList(
			connection("a.output.p", "c.input.p"),
			connection("a.output.*", "b.input.*"),
		),
	})

	linked, diags := buildAndLink(t, reg, system)
	require.False(t, diags.HasErrors(), diags.String())

	// p went explicitly to c; the wildcard only pairs q.
	p := topicByName(linked.topics, "/a/output/p")
	require.NotNil(t, p)
	require.Len(t, p.Subscribers, 1)
	assert.Equal(t, "c", p.Subscribers[0].Path)

	q := topicByName(linked.topics, "/a/output/q")
	require.NotNil(t, q)
	require.Len(t, q.Subscribers, 1)
	assert.Equal(t, "b", q.Subscribers[0].Path)
}

func TestLinkPassthroughWildcard(t *testing.T) {
	reg := registry.New()
	testEntity(t, reg, "A", v1alpha1.KindNode,
		nodeDocument("A", nil, []map[string]interface{}{port("p", "T"), port("q", "T")}))
	testEntity(t, reg, "B", v1alpha1.KindNode,
		nodeDocument("B", []map[string]interface{}{port("p", "T"), port("q", "T")}, nil))
	system := testEntity(t, reg, "Vehicle", v1alpha1.KindSystem, map[string]interface{}{
		"name": "Vehicle",
		"components": toList(
			instance("a", "A.node"),
			instance("b", "B.node"),
		),
		"connections": toList(
			connection("a.output.p", "b.input.p"),
			connection("a.output.^", "b.input.^"),
		),
	})

	linked, diags := buildAndLink(t, reg, system)
	assert.False(t, diags.HasErrors(), diags.String())

	// The passthrough wildcard ignores explicit references, so p is
	// paired twice and flagged as a duplicate, while q links normally.
	q := topicByName(linked.topics, "/a/output/q")
	require.NotNil(t, q)
	assert.Len(t, q.Subscribers, 1)

	require.Len(t, diags, 1)
	assert.Equal(t, DiagDuplicateConnection, diags[0].Kind)
}

func TestLinkTypeMismatch(t *testing.T) {
	reg := registry.New()
	testEntity(t, reg, "A", v1alpha1.KindNode,
		nodeDocument("A", nil, []map[string]interface{}{port("data", "TypeOne")}))
	testEntity(t, reg, "B", v1alpha1.KindNode,
		nodeDocument("B", []map[string]interface{}{port("data", "TypeTwo")}, nil))
	system := testEntity(t, reg, "Vehicle", v1alpha1.KindSystem, map[string]interface{}{
		"name": "Vehicle",
		"components": toList(
			instance("a", "A.node"),
			instance("b", "B.node"),
		),
		"connections": toList(connection("a.output.data", "b.input.data")),
	})

	linked, diags := buildAndLink(t, reg, system)
	require.True(t, diags.HasErrors())
	require.Len(t, diags.Errs(), 1)
	assert.Equal(t, DiagTypeMismatch, diags.Errs()[0].Kind)

	// The publisher still names its topic but gains no subscriber.
	topic := topicByName(linked.topics, "/a/output/data")
	require.NotNil(t, topic)
	assert.Empty(t, topic.Subscribers)
}

func TestLinkUnresolvedPortSuggestions(t *testing.T) {
	reg := registry.New()
	testEntity(t, reg, "A", v1alpha1.KindNode,
		nodeDocument("A", nil, []map[string]interface{}{port("objects", "T"), port("status", "T")}))
	testEntity(t, reg, "B", v1alpha1.KindNode,
		nodeDocument("B", []map[string]interface{}{port("objects", "T")}, nil))
	system := testEntity(t, reg, "Vehicle", v1alpha1.KindSystem, map[string]interface{}{
		"name": "Vehicle",
		"components": toList(
			instance("a", "A.node"),
			instance("b", "B.node"),
		),
		"connections": toList(connection("a.output.objcets", "b.input.objects")),
	})

	_, diags := buildAndLink(t, reg, system)
	require.True(t, diags.HasErrors())
	d := diags.Errs()[0]
	assert.Equal(t, DiagUnresolvedPortReference, d.Kind)
	assert.Contains(t, d.Detail, "objects, status")
}

func TestLinkMultiplePublishers(t *testing.T) {
	reg := registry.New()
	testEntity(t, reg, "A", v1alpha1.KindNode, nodeDocument("A", nil,
		[]map[string]interface{}{{"name": "out", "message_type": "T", "remap_target": "/shared/topic"}}))
	testEntity(t, reg, "B", v1alpha1.KindNode, nodeDocument("B", nil,
		[]map[string]interface{}{{"name": "out", "message_type": "T", "remap_target": "/shared/topic"}}))
	system := testEntity(t, reg, "Vehicle", v1alpha1.KindSystem, map[string]interface{}{
		"name": "Vehicle",
		"components": toList(
			instance("a", "A.node"),
			instance("b", "B.node"),
		),
	})

	_, diags := buildAndLink(t, reg, system)
	require.True(t, diags.HasErrors())
	assert.Equal(t, DiagMultiplePublishersOnTopic, diags.Errs()[0].Kind)
}

func TestLinkFanOut(t *testing.T) {
	reg := registry.New()
	testEntity(t, reg, "Source", v1alpha1.KindNode,
		nodeDocument("Source", nil, []map[string]interface{}{port("data", "T")}))
	testEntity(t, reg, "SinkOne", v1alpha1.KindNode,
		nodeDocument("SinkOne", []map[string]interface{}{port("data", "T")}, nil))
	testEntity(t, reg, "SinkTwo", v1alpha1.KindNode,
		nodeDocument("SinkTwo", []map[string]interface{}{port("data", "T")}, nil))
	system := testEntity(t, reg, "Vehicle", v1alpha1.KindSystem, map[string]interface{}{
		"name": "Vehicle",
		"components": toList(
			instance("src", "Source.node"),
			instance("one", "SinkOne.node"),
			instance("two", "SinkTwo.node"),
		),
		"connections": toList(
			connection("src.output.data", "one.input.data"),
			connection("src.output.data", "two.input.data"),
		),
	})

	linked, diags := buildAndLink(t, reg, system)
	require.False(t, diags.HasErrors(), diags.String())
	topic := topicByName(linked.topics, "/src/output/data")
	require.NotNil(t, topic)
	assert.Len(t, topic.Subscribers, 2)
}

func TestLinkDuplicateConnectionWarns(t *testing.T) {
	reg := registry.New()
	testEntity(t, reg, "A", v1alpha1.KindNode,
		nodeDocument("A", nil, []map[string]interface{}{port("data", "T")}))
	testEntity(t, reg, "B", v1alpha1.KindNode,
		nodeDocument("B", []map[string]interface{}{port("data", "T")}, nil))
	system := testEntity(t, reg, "Vehicle", v1alpha1.KindSystem, map[string]interface{}{
		"name": "Vehicle",
		"components": toList(
			instance("a", "A.node"),
			instance("b", "B.node"),
		),
		"connections": toList(
			connection("a.output.data", "b.input.data"),
			connection("a.output.data", "b.input.data"),
		),
	})

	linked, diags := buildAndLink(t, reg, system)
	assert.False(t, diags.HasErrors(), diags.String())
	require.Len(t, diags, 1)
	assert.Equal(t, DiagDuplicateConnection, diags[0].Kind)
	assert.Equal(t, SeverityWarning, diags[0].Severity)

	topic := topicByName(linked.topics, "/a/output/data")
	require.NotNil(t, topic)
	assert.Len(t, topic.Subscribers, 1)
}

func TestLinkGlobalPort(t *testing.T) {
	reg := registry.New()
	testEntity(t, reg, "Clock", v1alpha1.KindNode, nodeDocument("Clock", nil,
		[]map[string]interface{}{{"name": "clock", "message_type": "Clock", "global": "/clock"}}))
	testEntity(t, reg, "Consumer", v1alpha1.KindNode, nodeDocument("Consumer",
		[]map[string]interface{}{{"name": "clock", "message_type": "Clock", "global": "/clock"}}, nil))
	system := testEntity(t, reg, "Vehicle", v1alpha1.KindSystem, map[string]interface{}{
		"name": "Vehicle",
		"components": toList(
			instance("clock", "Clock.node"),
			instance("consumer", "Consumer.node"),
		),
	})

	linked, diags := buildAndLink(t, reg, system)
	require.False(t, diags.HasErrors(), diags.String())

	topic := topicByName(linked.topics, "/clock")
	require.NotNil(t, topic)
	require.NotNil(t, topic.Publisher)
	assert.Equal(t, "clock", topic.Publisher.Path)
	require.Len(t, topic.Subscribers, 1)
	assert.Equal(t, "consumer", topic.Subscribers[0].Path)
}
