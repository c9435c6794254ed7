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

// Package fieldpath parses connection endpoint paths.
//
// Grammar:
//
//	input.<port>              external input port of the enclosing composite
//	output.<port>             external output port of the enclosing composite
//	<instance>.input.<port>   input port of a sibling instance
//	<instance>.output.<port>  output port of a sibling instance
//
// The port segment may be a wildcard: `*` pairs same-named ports not
// already referenced explicitly at the same level, `^` pairs the full
// port set unconditionally.
package fieldpath

import (
	"fmt"
	"strings"
)

// Direction is the port direction an endpoint addresses.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

const (
	// WildcardMatched pairs remaining same-named ports.
	WildcardMatched = "*"
	// WildcardPassthrough pairs the full port set.
	WildcardPassthrough = "^"
)

// Endpoint is one parsed connection endpoint.
type Endpoint struct {
	// Instance is the sibling instance's local name, or empty when the
	// endpoint addresses the enclosing composite's external port.
	Instance string
	// Direction of the addressed port.
	Direction Direction
	// Port is the port name, or a wildcard.
	Port string
}

// External reports whether the endpoint addresses the enclosing
// composite's own boundary rather than a sibling instance.
func (e Endpoint) External() bool { return e.Instance == "" }

// Wildcard reports whether the port segment is a wildcard.
func (e Endpoint) Wildcard() bool {
	return e.Port == WildcardMatched || e.Port == WildcardPassthrough
}

// WithPort returns a copy addressing a concrete port name. Used during
// wildcard expansion.
func (e Endpoint) WithPort(port string) Endpoint {
	e.Port = port
	return e
}

func (e Endpoint) String() string {
	if e.External() {
		return string(e.Direction) + "." + e.Port
	}
	return e.Instance + "." + string(e.Direction) + "." + e.Port
}

// Parse decodes an endpoint path.
func Parse(path string) (Endpoint, error) {
	segments := strings.Split(path, ".")
	var ep Endpoint
	switch {
	case len(segments) >= 2 && isDirection(segments[0]):
		ep = Endpoint{
			Direction: Direction(segments[0]),
			Port:      strings.Join(segments[1:], "."),
		}
	case len(segments) >= 3 && isDirection(segments[1]):
		ep = Endpoint{
			Instance:  segments[0],
			Direction: Direction(segments[1]),
			Port:      strings.Join(segments[2:], "."),
		}
		if ep.Instance == "" {
			return Endpoint{}, fmt.Errorf("invalid endpoint path %q: empty instance name", path)
		}
	default:
		return Endpoint{}, fmt.Errorf("invalid endpoint path %q: expected '[<instance>.]input|output.<port>'", path)
	}
	if ep.Port == "" {
		return Endpoint{}, fmt.Errorf("invalid endpoint path %q: empty port name", path)
	}
	return ep, nil
}

func isDirection(s string) bool {
	return s == string(DirectionInput) || s == string(DirectionOutput)
}
