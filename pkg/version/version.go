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

// Package version implements the design-format version gate. Every entity
// declares a format_version; the gate admits an entity only when its major
// version matches the supported major and its minor version does not
// exceed the supported minor. Patch is ignored for compatibility.
package version

import (
	"fmt"
	"regexp"

	goversion "github.com/hashicorp/go-version"
)

// SupportedFormatVersion is the design-format version this tool targets.
const SupportedFormatVersion = "0.3.0"

var supported = goversion.Must(goversion.NewSemver(SupportedFormatVersion))

// Full major.minor.patch is required; go-version alone would also accept
// partial forms like "0.3".
var versionRE = regexp.MustCompile(`^v?\d+\.\d+\.\d+$`)

// Parse parses a format version string of the form MAJOR.MINOR.PATCH.
func Parse(raw string) (*goversion.Version, error) {
	if !versionRE.MatchString(raw) {
		return nil, fmt.Errorf("invalid format version %q: expected 'MAJOR.MINOR.PATCH' (e.g. %q)", raw, SupportedFormatVersion)
	}
	v, err := goversion.NewSemver(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid format version %q: %w", raw, err)
	}
	return v, nil
}

// Check validates a declared format version against the supported one.
// A nil error means the entity may enter the registry.
func Check(raw string) error {
	if raw == "" {
		return fmt.Errorf("missing format_version (supported: %s)", SupportedFormatVersion)
	}
	v, err := Parse(raw)
	if err != nil {
		return err
	}
	segs := v.Segments64()
	want := supported.Segments64()
	if segs[0] != want[0] {
		return fmt.Errorf("format version %s is incompatible: supported major version is %d (supported: %s)", raw, want[0], SupportedFormatVersion)
	}
	if segs[1] > want[1] {
		return fmt.Errorf("format version %s is newer than the supported %s", raw, SupportedFormatVersion)
	}
	return nil
}
