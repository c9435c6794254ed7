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
	"reflect"
	"strings"
)

// mergeStrategy selects how a variant's override and remove entries are
// merged into a base field. The strategy is chosen per field name from a
// static table, never inferred from the data at runtime.
type mergeStrategy int

const (
	// strategyKeyed merges list elements by an identifying key: override
	// replaces matching elements in place and appends new ones, removal
	// deletes matching elements.
	strategyKeyed mergeStrategy = iota
	// strategyAppend appends override elements unconditionally, and
	// removes only exact structural matches. Duplicates are permitted.
	strategyAppend
	// strategyDict merges mappings key-wise, recursing into nested
	// mappings; removal deletes the named sub-keys.
	strategyDict
	// strategyReplace overwrites the base value wholesale. The default
	// for scalar fields.
	strategyReplace
)

// fieldStrategies is the per-field merge table. A field absent from the
// table falls back to strategyReplace.
var fieldStrategies = map[string]mergeStrategy{
	"instances":    strategyKeyed,
	"components":   strategyKeyed,
	"inputs":       strategyKeyed,
	"outputs":      strategyKeyed,
	"param_files":  strategyKeyed,
	"param_values": strategyKeyed,
	"processes":    strategyKeyed,
	"variables":    strategyKeyed,
	"modes":        strategyKeyed,
	"parameters":   strategyKeyed,

	"connections":    strategyAppend,
	"variable_files": strategyAppend,
	"parameter_sets": strategyAppend,
	"parameter_set":  strategyAppend,

	"launch": strategyDict,
}

// fieldKeys names the identifying attribute of the keyed fields.
var fieldKeys = map[string]string{
	"instances":    "name",
	"components":   "name",
	"inputs":       "name",
	"outputs":      "name",
	"param_files":  "name",
	"param_values": "name",
	"processes":    "name",
	"variables":    "name",
	"modes":        "name",
	"parameters":   "node",
}

// instanceFields are the keyed fields whose removal cascades into
// connection removal.
var instanceFields = map[string]struct{}{
	"instances":  {},
	"components": {},
}

func strategyFor(field string) mergeStrategy {
	if s, ok := fieldStrategies[field]; ok {
		return s
	}
	return strategyReplace
}

// applyVariant produces a resolved field set from an immutable base and a
// variant spec. Removal runs strictly before override, so an override can
// reintroduce a key the removal deleted. The base is never mutated.
func applyVariant(base, remove, override map[string]interface{}) map[string]interface{} {
	resolved, ok := deepCopy(base).(map[string]interface{})
	if !ok {
		resolved = map[string]interface{}{}
	}
	applyRemove(resolved, remove)
	applyOverride(resolved, override)
	return resolved
}

func applyRemove(resolved, remove map[string]interface{}) {
	for field, spec := range remove {
		switch strategyFor(field) {
		case strategyKeyed:
			removedKeys := removeKeyed(resolved, field, spec)
			if _, cascades := instanceFields[field]; cascades {
				removeConnectionsReferencing(resolved, removedKeys)
			}
		case strategyAppend:
			removeExact(resolved, field, spec)
		case strategyDict:
			removeDictKeys(resolved, field, spec)
		default:
			delete(resolved, field)
		}
	}
}

func applyOverride(resolved, override map[string]interface{}) {
	for field, spec := range override {
		switch strategyFor(field) {
		case strategyKeyed:
			mergeKeyed(resolved, field, spec)
		case strategyAppend:
			appendElements(resolved, field, spec)
		case strategyDict:
			mergeDict(resolved, field, spec)
		default:
			resolved[field] = deepCopy(spec)
		}
	}
}

// removeKeyed deletes base elements whose key matches a removal-spec
// element. Removal-spec elements may be mappings carrying the key
// attribute or bare key strings. Naming an absent key is a no-op.
// Returns the keys that were actually removed.
func removeKeyed(resolved map[string]interface{}, field string, spec interface{}) []string {
	base := asList(resolved[field])
	targets := map[string]struct{}{}
	for _, elem := range asList(spec) {
		if key := keyOf(field, elem); key != "" {
			targets[key] = struct{}{}
		}
	}

	var removed []string
	kept := make([]interface{}, 0, len(base))
	for _, elem := range base {
		key := keyOf(field, elem)
		if _, hit := targets[key]; hit {
			removed = append(removed, key)
			continue
		}
		kept = append(kept, elem)
	}
	resolved[field] = kept
	return removed
}

// removeConnectionsReferencing drops every connection whose endpoint path
// starts with a removed instance's local name. This runs before override
// application so no dangling edge survives into validation.
func removeConnectionsReferencing(resolved map[string]interface{}, removedNames []string) {
	if len(removedNames) == 0 {
		return
	}
	names := map[string]struct{}{}
	for _, n := range removedNames {
		names[n] = struct{}{}
	}

	references := func(path string) bool {
		head, _, _ := strings.Cut(path, ".")
		_, hit := names[head]
		return hit
	}

	kept := make([]interface{}, 0)
	for _, elem := range asList(resolved["connections"]) {
		conn, ok := elem.(map[string]interface{})
		if !ok {
			kept = append(kept, elem)
			continue
		}
		from, _ := conn["from"].(string)
		to, _ := conn["to"].(string)
		if references(from) || references(to) {
			continue
		}
		kept = append(kept, elem)
	}
	resolved["connections"] = kept
}

// removeExact deletes base elements equal to a removal-spec element in
// every attribute.
func removeExact(resolved map[string]interface{}, field string, spec interface{}) {
	targets := asList(spec)
	kept := make([]interface{}, 0)
	for _, elem := range asList(resolved[field]) {
		match := false
		for _, target := range targets {
			if reflect.DeepEqual(elem, target) {
				match = true
				break
			}
		}
		if !match {
			kept = append(kept, elem)
		}
	}
	resolved[field] = kept
}

// removeDictKeys deletes the named sub-keys of a mapping field, recursing
// where the removal spec nests.
func removeDictKeys(resolved map[string]interface{}, field string, spec interface{}) {
	base, ok := resolved[field].(map[string]interface{})
	if !ok {
		return
	}
	specMap, ok := spec.(map[string]interface{})
	if !ok {
		// Bare key list form.
		for _, key := range asList(spec) {
			if s, ok := key.(string); ok {
				delete(base, s)
			}
		}
		return
	}
	for key, sub := range specMap {
		if nested, ok := sub.(map[string]interface{}); ok {
			if baseSub, ok := base[key].(map[string]interface{}); ok {
				removeNested(baseSub, nested)
				continue
			}
		}
		delete(base, key)
	}
}

func removeNested(base, spec map[string]interface{}) {
	for key, sub := range spec {
		if nested, ok := sub.(map[string]interface{}); ok {
			if baseSub, ok := base[key].(map[string]interface{}); ok {
				removeNested(baseSub, nested)
				continue
			}
		}
		delete(base, key)
	}
}

// mergeKeyed replaces matching elements in place, preserving their
// original position, and appends elements with new keys.
func mergeKeyed(resolved map[string]interface{}, field string, spec interface{}) {
	base := asList(resolved[field])
	for _, elem := range asList(spec) {
		key := keyOf(field, elem)
		replaced := false
		if key != "" {
			for i, existing := range base {
				if keyOf(field, existing) == key {
					base[i] = deepCopy(elem)
					replaced = true
					break
				}
			}
		}
		if !replaced {
			base = append(base, deepCopy(elem))
		}
	}
	resolved[field] = base
}

func appendElements(resolved map[string]interface{}, field string, spec interface{}) {
	base := asList(resolved[field])
	for _, elem := range asList(spec) {
		base = append(base, deepCopy(elem))
	}
	resolved[field] = base
}

// mergeDict merges mappings key-wise. Nested mappings merge recursively;
// anything else replaces.
func mergeDict(resolved map[string]interface{}, field string, spec interface{}) {
	specMap, ok := spec.(map[string]interface{})
	if !ok {
		resolved[field] = deepCopy(spec)
		return
	}
	base, ok := resolved[field].(map[string]interface{})
	if !ok {
		base = map[string]interface{}{}
	}
	mergeNested(base, specMap)
	resolved[field] = base
}

func mergeNested(base, spec map[string]interface{}) {
	for key, value := range spec {
		if nested, ok := value.(map[string]interface{}); ok {
			if baseSub, ok := base[key].(map[string]interface{}); ok {
				mergeNested(baseSub, nested)
				continue
			}
		}
		base[key] = deepCopy(value)
	}
}

// keyOf extracts a keyed field element's identifying key. Bare strings
// are shorthand for the key itself, used in removal specs.
func keyOf(field string, elem interface{}) string {
	switch v := elem.(type) {
	case string:
		return v
	case map[string]interface{}:
		attr := fieldKeys[field]
		if key, ok := v[attr].(string); ok {
			return key
		}
	}
	return ""
}

func asList(v interface{}) []interface{} {
	list, _ := v.([]interface{})
	return list
}

func deepCopy(v interface{}) interface{} {
	switch value := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, elem := range value {
			out[k] = deepCopy(elem)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(value))
		for i, elem := range value {
			out[i] = deepCopy(elem)
		}
		return out
	default:
		return value
	}
}
