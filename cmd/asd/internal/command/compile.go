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

package command

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"

	"github.com/autowarefoundation/autoware-system-designer/cmd/asd/internal/view"
	"github.com/autowarefoundation/autoware-system-designer/pkg/graph"
	"github.com/autowarefoundation/autoware-system-designer/pkg/loader"
	"github.com/autowarefoundation/autoware-system-designer/pkg/registry"
)

type CompileOptions struct {
	Path   string
	System string
	Mode   string
}

func NewCompileCommand(cli *CLI) *cobra.Command {
	var opts CompileOptions

	cmd := &cobra.Command{
		Use:   "compile <system-reference>",
		Short: "Compile a system into its resolved node graph",
		Long: Highlight("asd compile <system-reference> -f <path>") + "\n\n" +
			"Compile a system design into the flat node graph: instances are\n" +
			"expanded recursively, connections are linked into topics, and\n" +
			"parameter sets are overlaid onto the resolved nodes.\n\n" +
			"Examples:\n" +
			"  # Compile the default mode of a system\n" +
			"  asd compile AutowareMini.system -f ./designs\n\n" +
			"  # Compile a specific operating mode as JSON\n" +
			"  asd compile AutowareMini.system -f ./designs --mode simulation -o json\n",
		Args: ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.System = args[0]
			return RunCompile(cmd.Context(), cli, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Path, "file", "f", "", "Path to the design directory")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Operating mode to compile. Defaults to the system's default mode")
	cmd.MarkFlagRequired("file")

	return cmd
}

func RunCompile(ctx context.Context, cli *CLI, opts CompileOptions) error {
	entities, err := loader.Load(ctx, opts.Path)
	if err != nil {
		return err
	}
	if len(entities) == 0 {
		return fmt.Errorf("no design files found in %q", opts.Path)
	}

	reg := registry.New()
	for _, entity := range entities {
		if err := reg.Register(entity); err != nil {
			return err
		}
	}
	cli.Logger().Debug("registered design files", "entities", reg.Len())

	compiler := graph.NewCompiler(reg, graph.WithLogger(pipelineLogger()))
	resolved, diags := compiler.Compile(graph.Request{System: opts.System, Mode: opts.Mode})

	view.NewCompileView(cli.Viewer).Render(view.CompileResult{Graph: resolved, Diagnostics: diags})
	if resolved == nil {
		return errors.New("")
	}
	return nil
}

// pipelineLogger routes compiler verbosity to stderr when --debug is
// set, keeping stdout clean for rendered output.
func pipelineLogger() logr.Logger {
	if !debugFlag {
		return logr.Discard()
	}
	stdr.SetVerbosity(1)
	return stdr.New(stdlog.New(os.Stderr, "", stdlog.LstdFlags))
}
