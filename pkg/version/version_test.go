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

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "plain", raw: "0.3.0"},
		{name: "v prefix", raw: "v1.2.3"},
		{name: "missing patch", raw: "0.3", wantErr: true},
		{name: "garbage", raw: "abc", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "trailing", raw: "0.3.0-beta", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Parse(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, v.Segments64(), 3)
		})
	}
}

func TestCheckBoundary(t *testing.T) {
	// Supported is 0.3.0: same major with minor <= 3 passes, minor 4
	// fails, foreign major fails regardless of minor.
	assert.NoError(t, Check("0.3.0"))
	assert.NoError(t, Check("0.3.9"))
	assert.NoError(t, Check("0.2.0"))
	assert.NoError(t, Check("0.0.1"))

	assert.Error(t, Check("0.4.0"))
	assert.Error(t, Check("1.0.0"))
	assert.Error(t, Check("1.3.0"))
}

func TestCheckMissing(t *testing.T) {
	err := Check("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format_version")
}
