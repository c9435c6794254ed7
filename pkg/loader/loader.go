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

// Package loader discovers and decodes design documents. A document's
// entity kind is carried by its filename, `<Name>.<kind>.yaml`; the file
// content never declares the kind.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/yaml"

	"github.com/autowarefoundation/autoware-system-designer/api/v1alpha1"
)

// LoadResult is the per-file outcome of a load pass. Err carries decode
// and structural failures so callers can report every broken file instead
// of stopping at the first one.
type LoadResult struct {
	Path   string
	Entity *v1alpha1.Entity
	Err    error
}

// collectDesignFiles walks path and returns every `.yaml`/`.yml` file
// whose basename carries a `<Name>.<kind>` double suffix, sorted for
// deterministic ordering. Plain YAML files without a kind suffix are
// skipped silently so design trees can hold auxiliary data files.
func collectDesignFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		if _, _, err := SplitEntityFilename(path); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if _, _, err := SplitEntityFilename(p); err != nil {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// SplitEntityFilename decodes the `<Name>.<kind>.yaml` naming convention.
func SplitEntityFilename(path string) (string, v1alpha1.Kind, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")
	idx := strings.LastIndex(stem, ".")
	if idx <= 0 || idx == len(stem)-1 {
		return "", "", fmt.Errorf("file %q does not follow the '<Name>.<kind>.yaml' convention", base)
	}
	kind, err := v1alpha1.ParseKind(stem[idx+1:])
	if err != nil {
		return "", "", fmt.Errorf("file %q: %w", base, err)
	}
	return stem[:idx], kind, nil
}

// LoadDetailed loads every design document under path, decoding files in
// parallel. The result slice is ordered by file path; only path access
// failures are returned directly.
func LoadDetailed(ctx context.Context, path string) ([]LoadResult, error) {
	files, err := collectDesignFiles(path)
	if err != nil {
		return nil, err
	}

	results := make([]LoadResult, len(files))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			entity, loadErr := LoadEntity(file)
			results[i] = LoadResult{Path: file, Entity: entity, Err: loadErr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Load loads every design document under path. All per-file failures are
// aggregated so a single invocation reports every broken document.
func Load(ctx context.Context, path string) ([]*v1alpha1.Entity, error) {
	results, err := LoadDetailed(ctx, path)
	if err != nil {
		return nil, err
	}

	var errs *multierror.Error
	entities := make([]*v1alpha1.Entity, 0, len(results))
	for _, result := range results {
		if result.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", result.Path, result.Err))
			continue
		}
		entities = append(entities, result.Entity)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return entities, nil
}

// LoadEntity decodes one design document.
func LoadEntity(path string) (*v1alpha1.Entity, error) {
	name, kind, err := SplitEntityFilename(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseEntity(name, kind, path, data)
}

// ParseEntity decodes document bytes into an entity. The document's
// declared name must match the filename name; the kind always comes from
// the filename.
func ParseEntity(name string, kind v1alpha1.Kind, source string, data []byte) (*v1alpha1.Entity, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("empty YAML document")
	}

	declared, _ := doc["name"].(string)
	if declared != "" && declared != name {
		return nil, fmt.Errorf("document declares name %q but file names it %q", declared, name)
	}

	formatVersion, _ := doc["format_version"].(string)

	entity := &v1alpha1.Entity{
		Name:          name,
		Kind:          kind,
		FormatVersion: formatVersion,
		Source:        source,
		Document:      doc,
	}

	if kind == v1alpha1.KindNode {
		if err := checkLaunch(doc); err != nil {
			return nil, err
		}
	}
	return entity, nil
}

// checkLaunch validates a node's launch descriptor: at least one launch
// method, and container composition only with a plugin and a container
// name.
func checkLaunch(doc map[string]interface{}) error {
	raw, ok := doc["launch"]
	if !ok {
		return fmt.Errorf("invalid launch descriptor: node declares no launch block")
	}
	launch, ok := raw.(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid launch descriptor: launch block is not a mapping")
	}

	methods := 0
	for _, key := range []string{"plugin", "executable", "ros2_launch_file"} {
		if v, ok := launch[key].(string); ok && v != "" {
			methods++
		}
	}
	if methods == 0 {
		return fmt.Errorf("invalid launch descriptor: one of plugin, executable, or ros2_launch_file must be set")
	}

	if useContainer, _ := launch["use_container"].(bool); useContainer {
		if plugin, _ := launch["plugin"].(string); plugin == "" {
			return fmt.Errorf("invalid launch descriptor: use_container requires a plugin launch method")
		}
		if containerName, _ := launch["container_name"].(string); containerName == "" {
			return fmt.Errorf("invalid launch descriptor: use_container requires container_name")
		}
	}
	return nil
}
