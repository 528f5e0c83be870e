// Copyright 2011 Google Inc. All Rights Reserved.
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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qi-make/qi"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "create an empty project file in the current directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, err := resolveWorkDir(firstOrEmpty(args))
			if err != nil {
				return err
			}
			if err := qi.InitProjectFile(workDir); err != nil {
				errLine("%s.", err)
				return &exitError{1}
			}
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <src> [hdr]",
		Short: "register a source file, optionally attaching a declared header",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddDelete(true, args)
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <src> [hdr]",
		Short: "unregister a source file, or detach one of its headers",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddDelete(false, args)
		},
	}
}

// runAddDelete implements the "add"/"delete" CLI verbs, matching
// qi-make.py's main() args[0] == "add"/"delete" branch.
func runAddDelete(isAdd bool, args []string) error {
	workDir, err := resolveWorkDir(args[0])
	if err != nil {
		return err
	}
	root, proj, err := resolveRoot(workDir)
	if err != nil {
		return err
	}

	srcAbs, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	source, err := qi.StandardName(root, srcAbs)
	if err != nil {
		return err
	}

	var header string
	if len(args) >= 2 {
		hdrAbs, err := filepath.Abs(args[1])
		if err != nil {
			return err
		}
		header, err = qi.StandardName(root, hdrAbs)
		if err != nil {
			return err
		}
	}

	if isAdd {
		f, err := os.Open(srcAbs)
		if err != nil {
			errLine("the specified source file %q cannot be opened.", source)
			return &exitError{1}
		}
		f.Close()
		if header != "" {
			hdrAbs, _ := filepath.Abs(args[1])
			f, err := os.Open(hdrAbs)
			if err != nil {
				errLine("the specified header file %q cannot be opened.", header)
				return &exitError{1}
			}
			f.Close()
		}
		proj.AddSource(source, header)
	} else {
		if err := proj.DeleteSource(source, header); err != nil {
			errLine("%s.", err)
			return &exitError{1}
		}
	}

	if err := proj.Save(root); err != nil {
		errLine("%s.", err)
		return &exitError{1}
	}
	return nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [path]",
		Short: "list registered sources whose path starts with path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, err := resolveWorkDir(firstOrEmpty(args))
			if err != nil {
				return err
			}
			root, proj, err := resolveRoot(workDir)
			if err != nil {
				return err
			}

			var target string
			if len(args) == 0 {
				target = workDir
			} else {
				target, err = filepath.Abs(args[0])
				if err != nil {
					return err
				}
			}
			prefix, err := stdPrefix(root, target)
			if err != nil {
				return err
			}

			sources := make([]string, 0, len(proj.SourceHeaders))
			for s := range proj.SourceHeaders {
				sources = append(sources, s)
			}
			sort.Strings(sources)
			for _, s := range sources {
				if strings.HasPrefix(s, prefix) {
					fmt.Printf("%s: %s\n", s, joinHeaders(proj.SourceHeaders[s]))
				}
			}
			return nil
		},
	}
}
