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

	"github.com/spf13/cobra"

	"github.com/autowarefoundation/autoware-system-designer/cmd/asd/internal/view"
	"github.com/autowarefoundation/autoware-system-designer/pkg/loader"
	"github.com/autowarefoundation/autoware-system-designer/pkg/registry"
)

type ValidateOptions struct {
	Path string
}

func NewValidateCommand(cli *CLI) *cobra.Command {
	var opts ValidateOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate design files",
		Long: Highlight("asd validate -f <path>") + "\n\n" +
			"Validate design files by file or directory.\n\n" +
			"Checks file naming, document structure, launch descriptors, format\n" +
			"versions, and duplicate entity declarations. When targeting a\n" +
			"directory, all *.<kind>.yaml files are validated recursively.\n\n" +
			"Examples:\n" +
			"  # Validate a single design file\n" +
			"  asd validate -f Perception.module.yaml\n\n" +
			"  # Validate a design directory\n" +
			"  asd validate -f ./designs\n",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunValidate(cmd.Context(), cli, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Path, "file", "f", "", "Path to a design file or directory")
	cmd.MarkFlagRequired("file")

	return cmd
}

func RunValidate(ctx context.Context, cli *CLI, opts ValidateOptions) error {
	validateView := view.NewValidateView(cli.Viewer)

	results, err := loader.LoadDetailed(ctx, opts.Path)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no design files found in %q", opts.Path)
	}

	reg := registry.New()
	resultView := view.ValidateResult{FileCount: len(results)}

	for _, result := range results {
		if result.Err != nil {
			resultView.Errors = append(resultView.Errors, view.ValidateFileError{File: result.Path, Message: result.Err.Error()})
			continue
		}
		if err := reg.Register(result.Entity); err != nil {
			resultView.Errors = append(resultView.Errors, view.ValidateFileError{File: result.Path, Message: err.Error()})
		}
	}

	validateView.Render(resultView)
	if resultView.HasErrors() {
		return errors.New("")
	}
	return nil
}
