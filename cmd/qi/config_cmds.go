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

	"github.com/spf13/cobra"

	"github.com/qi-make/qi"
)

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [NAME [VALUE]]",
		Short: "read or write the per-user config file",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetUnset(true, args)
		},
	}
}

func newUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset NAME...",
		Short: "remove one or more variables from the per-user config file",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetUnset(false, args)
		},
	}
}

// runSetUnset implements the "set"/"unset" CLI verbs, matching
// qi-make.py's main() args[0] == "set"/"unset" branch.
func runSetUnset(isSet bool, args []string) error {
	workDir, err := resolveWorkDir(firstOrEmpty(args))
	if err != nil {
		return err
	}
	root, err := qi.FindProjectRoot(workDir)
	if err != nil {
		errLine("%s.", err)
		return &exitError{1}
	}

	vars, err := qi.ReadConfig(root)
	if err != nil {
		errLine("%s.", err)
		return &exitError{1}
	}

	switch {
	case len(args) == 0:
		for name, val := range vars {
			fmt.Printf("%s = %s\n", name, val)
		}
		return nil
	case len(args) == 1:
		if isSet {
			vars[args[0]] = ""
			fmt.Printf("%s = \n", args[0])
		} else {
			delete(vars, args[0])
		}
	default:
		if isSet {
			fmt.Printf("%s = %s\n", args[0], args[1])
			vars[args[0]] = args[1]
		} else {
			for _, name := range args {
				delete(vars, name)
			}
		}
	}

	if err := qi.WriteConfig(root, vars); err != nil {
		errLine("%s.", err)
		return &exitError{1}
	}
	return nil
}
