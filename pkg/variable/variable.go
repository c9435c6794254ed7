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

// Package variable evaluates the `${...}` expressions embedded in System
// variable declarations and substituted values. Expressions are CEL, with
// the process environment exposed as the `env` map and every previously
// declared variable bound by name.
package variable

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// Resolver evaluates variable declarations in order. Each declaration can
// reference `env` and any variable declared before it; forward references
// are compile errors.
type Resolver struct {
	env     *cel.Env
	environ map[string]string
	order   []string
	values  map[string]interface{}
}

// NewResolver builds a resolver over the given process environment, each
// entry in "KEY=VALUE" form.
func NewResolver(environ []string) (*Resolver, error) {
	envMap := make(map[string]string, len(environ))
	for _, kv := range environ {
		if idx := strings.Index(kv, "="); idx > 0 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}

	celEnv, err := cel.NewEnv(
		ext.Strings(),
		ext.Lists(),
		cel.Variable("env", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build expression environment: %w", err)
	}

	return &Resolver{
		env:     celEnv,
		environ: envMap,
		values:  make(map[string]interface{}),
	}, nil
}

// Declare evaluates a variable's value template and binds the result under
// name for later declarations. A value that is one standalone `${expr}`
// keeps the expression's native type; anything else becomes a string.
func (r *Resolver) Declare(name, value string) error {
	if _, ok := r.values[name]; ok {
		return fmt.Errorf("variable %q declared twice", name)
	}

	resolved, err := r.Resolve(value)
	if err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}

	extended, err := r.env.Extend(cel.Variable(name, cel.AnyType))
	if err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}
	r.env = extended
	r.order = append(r.order, name)
	r.values[name] = resolved
	return nil
}

// Resolve evaluates every `${...}` segment of a template string. A
// template that is exactly one expression returns the native result;
// mixed templates concatenate the stringified segments.
func (r *Resolver) Resolve(template string) (interface{}, error) {
	segments, err := splitTemplate(template)
	if err != nil {
		return nil, err
	}

	if len(segments) == 1 && segments[0].expr {
		return r.eval(segments[0].text)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if !seg.expr {
			sb.WriteString(seg.text)
			continue
		}
		out, err := r.eval(seg.text)
		if err != nil {
			return nil, err
		}
		sb.WriteString(fmt.Sprintf("%v", out))
	}
	return sb.String(), nil
}

// Substitute is Resolve with the result coerced to a string. Used for
// parameter values and file paths, which are textual in the output.
func (r *Resolver) Substitute(template string) (string, error) {
	out, err := r.Resolve(template)
	if err != nil {
		return "", err
	}
	if s, ok := out.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", out), nil
}

// Values returns the resolved variables in declaration order.
func (r *Resolver) Values() []ResolvedVariable {
	out := make([]ResolvedVariable, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, ResolvedVariable{Name: name, Value: r.values[name]})
	}
	return out
}

// Lookup returns a declared variable's value.
func (r *Resolver) Lookup(name string) (interface{}, bool) {
	v, ok := r.values[name]
	return v, ok
}

// ResolvedVariable is one evaluated System variable.
type ResolvedVariable struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

func (r *Resolver) eval(expr string) (interface{}, error) {
	ast, issues := r.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := r.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}

	ctx := map[string]interface{}{"env": r.environ}
	for name, value := range r.values {
		ctx[name] = value
	}
	out, _, err := prg.Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", expr, err)
	}
	return out.Value(), nil
}

// segment is one literal or expression piece of a template.
type segment struct {
	text string
	expr bool
}

// splitTemplate cuts a template into literal and `${...}` pieces. Braces
// nest inside expressions so CEL map and struct literals survive.
func splitTemplate(template string) ([]segment, error) {
	var segments []segment
	rest := template
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			break
		}
		if start > 0 {
			segments = append(segments, segment{text: rest[:start]})
		}
		depth := 0
		end := -1
		for i := start + 1; i < len(rest); i++ {
			switch rest[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					end = i
				}
			}
			if end >= 0 {
				break
			}
		}
		if end < 0 {
			return nil, fmt.Errorf("unterminated expression in %q", template)
		}
		segments = append(segments, segment{text: rest[start+2 : end], expr: true})
		rest = rest[end+1:]
	}
	if rest != "" || len(segments) == 0 {
		segments = append(segments, segment{text: rest})
	}
	return segments, nil
}
