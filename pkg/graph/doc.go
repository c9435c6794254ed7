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

// Package graph compiles a system design into its resolved node graph.
//
// The Compiler runs a fixed multi-stage pipeline over a populated
// entity registry:
//
//	Flatten -> Variables -> Link -> Overlay -> Assemble
//
// Flatten expands the system's instance tree recursively, applying mode
// and instance variants at every level, and produces the flat table of
// resolved node instances. Variables evaluates the system's variable
// declarations. Link resolves every declared connection against the
// flattened port tables and derives the topic table. Overlay applies
// the assigned parameter sets onto the resolved nodes and substitutes
// variables into parameter values and file paths.
//
// Defects are reported as ordered Diagnostics. Structural and
// topological defects abort the pipeline; connection and parameter
// defects are collected so one compilation surfaces as many of them as
// possible. A ResolvedSystemGraph is produced only when no
// error-severity diagnostic was recorded.
package graph
