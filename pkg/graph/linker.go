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
	"sort"
	"strings"

	"github.com/autowarefoundation/autoware-system-designer/api/v1alpha1"
	"github.com/autowarefoundation/autoware-system-designer/pkg/graph/fieldpath"
)

// PortRef identifies one concrete port of a resolved leaf instance.
type PortRef struct {
	Path        string `json:"path"`
	Port        string `json:"port"`
	MessageType string `json:"message_type,omitempty"`
}

// Topic joins one publisher port to its ordered subscribers. A topic with
// a nil publisher is an external global topic some input subscribes to.
type Topic struct {
	Name        string     `json:"name"`
	Publisher   *PortRef   `json:"publisher,omitempty"`
	Subscribers []*PortRef `json:"subscribers,omitempty"`
}

// LinkResult is the linker's output: the ordered topic table.
type LinkResult struct {
	topics []*Topic
}

// portKey addresses one port node in the cross-scope wiring graph. A
// boundary key belongs to a composite's external port set, a leaf key to
// a resolved node instance.
type portKey struct {
	boundary bool
	owner    string
	dir      fieldpath.Direction
	port     string
}

// portInfo carries the declared port attributes for validation and topic
// naming.
type portInfo struct {
	def       v1alpha1.Port
	leaf      *ResolvedInstance
	namespace []string
}

type linker struct {
	diags Diagnostics
	// ports indexes every addressable port in the tree.
	ports map[portKey]*portInfo
	// edges is the flow-directed wiring graph (source to sink), in
	// discovery order.
	edges map[portKey][]portKey
	// leafOutputs in tree walk order, for deterministic topic ordering.
	leafOutputs []portKey
}

func newLinker() *linker {
	return &linker{
		ports: map[portKey]*portInfo{},
		edges: map[portKey][]portKey{},
	}
}

// Link resolves every connection in the scope tree and assembles the
// topic table. Connection-level defects are collected, not fatal: one
// pass surfaces as many as possible.
func (l *linker) Link(result *FlattenResult) (*LinkResult, Diagnostics) {
	l.indexScope(result.root)
	l.linkScope(result.root)
	topics := l.assembleTopics()
	return &LinkResult{topics: topics}, l.diags
}

// indexScope records every addressable port of a scope subtree.
func (l *linker) indexScope(s *scope) {
	scopeID := joinPath(s.path)
	for _, p := range s.inputs {
		l.ports[portKey{boundary: true, owner: scopeID, dir: fieldpath.DirectionInput, port: p.Name}] = &portInfo{def: p, namespace: s.path}
	}
	for _, p := range s.outputs {
		l.ports[portKey{boundary: true, owner: scopeID, dir: fieldpath.DirectionOutput, port: p.Name}] = &portInfo{def: p, namespace: s.path}
	}
	for _, child := range s.children {
		if child.leaf != nil {
			for _, p := range child.leaf.Node.Inputs {
				key := portKey{owner: child.leaf.Path, dir: fieldpath.DirectionInput, port: p.Name}
				l.ports[key] = &portInfo{def: p, leaf: child.leaf}
			}
			for _, p := range child.leaf.Node.Outputs {
				key := portKey{owner: child.leaf.Path, dir: fieldpath.DirectionOutput, port: p.Name}
				l.ports[key] = &portInfo{def: p, leaf: child.leaf}
				l.leafOutputs = append(l.leafOutputs, key)
			}
			continue
		}
		l.indexScope(child.sub)
	}
}

// linkScope resolves one scope's connections against its local port
// tables, then recurses.
func (l *linker) linkScope(s *scope) {
	type resolvedConn struct {
		from, to fieldpath.Endpoint
	}

	var concrete []resolvedConn
	var wildcards []v1alpha1.Connection

	// First pass parses endpoints and separates wildcard connections,
	// so wildcard expansion can exclude explicitly referenced ports.
	for _, conn := range s.connections {
		from, errFrom := fieldpath.Parse(conn.From)
		to, errTo := fieldpath.Parse(conn.To)
		if errFrom != nil {
			l.report(errDiag(DiagUnresolvedPortReference, l.connLoc(s, conn), "%v", errFrom))
			continue
		}
		if errTo != nil {
			l.report(errDiag(DiagUnresolvedPortReference, l.connLoc(s, conn), "%v", errTo))
			continue
		}
		if from.Wildcard() || to.Wildcard() {
			if from.Port != to.Port {
				l.report(errDiag(DiagUnresolvedPortReference, l.connLoc(s, conn), "wildcard %q cannot pair with %q", from.Port, to.Port))
				continue
			}
			wildcards = append(wildcards, conn)
			continue
		}
		concrete = append(concrete, resolvedConn{from: from, to: to})
	}

	explicit := map[string]struct{}{}
	for _, c := range concrete {
		explicit[c.from.String()] = struct{}{}
		explicit[c.to.String()] = struct{}{}
	}

	for _, conn := range wildcards {
		from, _ := fieldpath.Parse(conn.From)
		to, _ := fieldpath.Parse(conn.To)

		fromNames, ok := l.sideNames(s, from)
		if !ok {
			l.report(l.unresolved(s, conn, from))
			continue
		}
		toNames, ok := l.sideNames(s, to)
		if !ok {
			l.report(l.unresolved(s, conn, to))
			continue
		}

		passthrough := from.Port == fieldpath.WildcardPassthrough
		for _, name := range fromNames {
			if !contains(toNames, name) {
				// A name present on only one side is skipped.
				continue
			}
			f := from.WithPort(name)
			t := to.WithPort(name)
			if !passthrough {
				if _, hit := explicit[f.String()]; hit {
					continue
				}
				if _, hit := explicit[t.String()]; hit {
					continue
				}
			}
			concrete = append(concrete, resolvedConn{from: f, to: t})
		}
	}

	seen := map[string]struct{}{}
	for _, c := range concrete {
		pair := c.from.String() + " -> " + c.to.String()
		if _, dup := seen[pair]; dup {
			l.report(warnDiag(DiagDuplicateConnection, Location{Entity: s.entity, Path: joinPath(s.path)}, "connection %s declared more than once", pair))
			continue
		}
		seen[pair] = struct{}{}
		l.linkConnection(s, c.from, c.to)
	}

	for _, child := range s.children {
		if child.sub != nil {
			l.linkScope(child.sub)
		}
	}
}

// linkConnection validates one concrete connection and records its edge.
func (l *linker) linkConnection(s *scope, from, to fieldpath.Endpoint) {
	fromKey, ok := l.resolveEndpoint(s, from)
	if !ok {
		l.report(l.unresolved(s, v1alpha1.Connection{From: from.String(), To: to.String()}, from))
		return
	}
	toKey, ok := l.resolveEndpoint(s, to)
	if !ok {
		l.report(l.unresolved(s, v1alpha1.Connection{From: from.String(), To: to.String()}, to))
		return
	}

	if !l.isSource(from) {
		l.report(errDiag(DiagUnresolvedPortReference, Location{Entity: s.entity, Path: joinPath(s.path)},
			"%s cannot be a connection source", from))
		return
	}
	if !l.isSink(to) {
		l.report(errDiag(DiagUnresolvedPortReference, Location{Entity: s.entity, Path: joinPath(s.path)},
			"%s cannot be a connection sink", to))
		return
	}

	fromInfo := l.ports[fromKey]
	toInfo := l.ports[toKey]
	if fromInfo.def.MessageType != toInfo.def.MessageType {
		l.report(errDiag(DiagTypeMismatch, Location{Entity: s.entity, Path: joinPath(s.path)},
			"%s carries %s, %s carries %s", from, fromInfo.def.MessageType, to, toInfo.def.MessageType))
		return
	}

	l.edges[fromKey] = append(l.edges[fromKey], toKey)
}

// resolveEndpoint maps an endpoint seen at scope s onto a port key.
func (l *linker) resolveEndpoint(s *scope, ep fieldpath.Endpoint) (portKey, bool) {
	var key portKey
	if ep.External() {
		key = portKey{boundary: true, owner: joinPath(s.path), dir: ep.Direction, port: ep.Port}
	} else {
		child := s.child(ep.Instance)
		if child == nil {
			return portKey{}, false
		}
		if child.leaf != nil {
			key = portKey{owner: child.leaf.Path, dir: ep.Direction, port: ep.Port}
		} else {
			key = portKey{boundary: true, owner: joinPath(child.sub.path), dir: ep.Direction, port: ep.Port}
		}
	}
	_, ok := l.ports[key]
	return key, ok
}

// isSource reports whether an endpoint can feed a connection: a child's
// output, or the enclosing composite's external input flowing inward.
func (l *linker) isSource(ep fieldpath.Endpoint) bool {
	if ep.External() {
		return ep.Direction == fieldpath.DirectionInput
	}
	return ep.Direction == fieldpath.DirectionOutput
}

func (l *linker) isSink(ep fieldpath.Endpoint) bool {
	if ep.External() {
		return ep.Direction == fieldpath.DirectionOutput
	}
	return ep.Direction == fieldpath.DirectionInput
}

// sideNames lists the port names available on an endpoint's side, in
// declared order.
func (l *linker) sideNames(s *scope, ep fieldpath.Endpoint) ([]string, bool) {
	if ep.External() {
		ports := s.inputs
		if ep.Direction == fieldpath.DirectionOutput {
			ports = s.outputs
		}
		return portNames(ports), true
	}
	child := s.child(ep.Instance)
	if child == nil {
		return nil, false
	}
	if child.leaf != nil {
		ports := child.leaf.Node.Inputs
		if ep.Direction == fieldpath.DirectionOutput {
			ports = child.leaf.Node.Outputs
		}
		return portNames(ports), true
	}
	ports := child.sub.inputs
	if ep.Direction == fieldpath.DirectionOutput {
		ports = child.sub.outputs
	}
	return portNames(ports), true
}

// assembleTopics names a topic for every leaf output port and attaches
// the leaf inputs reachable through the wiring graph. Global input ports
// subscribe to their literal topic regardless of declared connections.
func (l *linker) assembleTopics() []*Topic {
	byName := map[string]*Topic{}
	var order []string

	for _, key := range l.leafOutputs {
		info := l.ports[key]
		name := topicName(info)
		pub := &PortRef{Path: info.leaf.Path, Port: key.port, MessageType: info.def.MessageType}

		if existing, ok := byName[name]; ok && existing.Publisher != nil {
			l.report(errDiag(DiagMultiplePublishersOnTopic,
				Location{Path: info.leaf.Path, Field: key.port},
				"topic %q already published by %s.%s", name, existing.Publisher.Path, existing.Publisher.Port))
			continue
		}
		topic, ok := byName[name]
		if !ok {
			topic = &Topic{Name: name}
			byName[name] = topic
			order = append(order, name)
		}
		topic.Publisher = pub

		for _, sub := range l.reachableLeafInputs(key) {
			subInfo := l.ports[sub]
			topic.Subscribers = append(topic.Subscribers, &PortRef{
				Path: subInfo.leaf.Path, Port: sub.port, MessageType: subInfo.def.MessageType,
			})
		}
	}

	// Global inputs join their named topic even without a declared
	// connection; an absent publisher means the topic is external.
	for _, s := range l.sortedLeafInputKeys() {
		info := l.ports[s]
		if info.def.Global == "" {
			continue
		}
		topic, ok := byName[info.def.Global]
		if !ok {
			topic = &Topic{Name: info.def.Global}
			byName[info.def.Global] = topic
			order = append(order, info.def.Global)
		}
		ref := &PortRef{Path: info.leaf.Path, Port: s.port, MessageType: info.def.MessageType}
		if !containsRef(topic.Subscribers, ref) {
			topic.Subscribers = append(topic.Subscribers, ref)
		}
	}

	topics := make([]*Topic, 0, len(order))
	for _, name := range order {
		topics = append(topics, byName[name])
	}
	return topics
}

// reachableLeafInputs follows the wiring graph downstream from a source
// port, crossing composite boundaries, and returns the leaf input ports
// fed by it, in edge insertion order.
func (l *linker) reachableLeafInputs(start portKey) []portKey {
	var out []portKey
	visited := map[portKey]struct{}{start: {}}
	queue := []portKey{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range l.edges[current] {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			if !next.boundary && next.dir == fieldpath.DirectionInput {
				out = append(out, next)
			}
			queue = append(queue, next)
		}
	}
	return out
}

func (l *linker) sortedLeafInputKeys() []portKey {
	var keys []portKey
	for key := range l.ports {
		if !key.boundary && key.dir == fieldpath.DirectionInput {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].owner != keys[j].owner {
			return keys[i].owner < keys[j].owner
		}
		return keys[i].port < keys[j].port
	})
	return keys
}

// topicName derives a leaf output port's topic: the literal global name
// wins, then an explicit remap target, then the namespaced default.
func topicName(info *portInfo) string {
	if info.def.Global != "" {
		return info.def.Global
	}
	if info.def.RemapTarget != "" {
		return info.def.RemapTarget
	}
	return info.leaf.Namespace + "/output/" + info.def.Name
}

func (l *linker) unresolved(s *scope, conn v1alpha1.Connection, ep fieldpath.Endpoint) Diagnostic {
	detail := "no port matches " + ep.String()
	if names, ok := l.sideNames(s, ep); ok {
		sorted := append([]string{}, names...)
		sort.Strings(sorted)
		detail += " (available: " + strings.Join(sorted, ", ") + ")"
	} else {
		detail = "no instance named " + ep.Instance + " at this level"
	}
	return errDiag(DiagUnresolvedPortReference, l.connLoc(s, conn), "%s", detail)
}

func (l *linker) connLoc(s *scope, conn v1alpha1.Connection) Location {
	return Location{Entity: s.entity, Path: joinPath(s.path), Field: conn.From + " -> " + conn.To}
}

func (l *linker) report(d Diagnostic) {
	l.diags = append(l.diags, d)
}

func portNames(ports []v1alpha1.Port) []string {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}
	return names
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func containsRef(refs []*PortRef, ref *PortRef) bool {
	for _, r := range refs {
		if r.Path == ref.Path && r.Port == ref.Port {
			return true
		}
	}
	return false
}
