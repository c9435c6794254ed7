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

package view

import (
	"fmt"
	"io"

	"github.com/autowarefoundation/autoware-system-designer/cmd/asd/version"
)

// Stream is the sink every view writes through. Commands never touch
// os.Stdout directly, so tests can capture output by handing NewStream
// a buffer.
type Stream struct {
	w io.Writer
}

func NewStream(w io.Writer) *Stream {
	return &Stream{w: w}
}

// Out exposes the underlying writer for components that need raw
// io.Writer access, such as log handlers.
func (s *Stream) Out() io.Writer {
	return s.w
}

func (s *Stream) Println(args ...any) {
	fmt.Fprintln(s.w, args...)
}

func (s *Stream) Printf(format string, args ...any) {
	fmt.Fprintf(s.w, format, args...)
}

// PrintVersion writes the binary's version line to the stream.
func (s *Stream) PrintVersion() {
	version.Fprint(s.w)
}
