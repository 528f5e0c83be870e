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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qi-make/qi"
)

// exitError carries a process exit code through cobra's error-return
// path without printing anything itself; every verb handler prints its
// own "Error[ at file:line]: message" line (spec.md §7) before
// returning one.
type exitError struct{ code int }

func (e *exitError) Error() string { return "" }

var flags struct {
	jobs         int
	justPrint    bool
	keepGoing    bool
	force        bool
	silent       bool
	summary      bool
	all          bool
	verbose      bool
	printVersion bool
}

// Run builds the cobra command tree, executes it and returns the
// process exit code, keeping the exit-code decision separate from
// main so it stays testable without calling os.Exit directly.
func Run() int {
	root := newRootCmd()
	err := root.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qi [options] [action [source files]]",
		Short:         "qi is a directive-driven build engine for C/C++",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.printVersion {
				printVersion()
				return nil
			}
			if len(args) == 0 {
				return runDefaultFirstAction()
			}
			return runAction(args[0], args[1:])
		},
	}

	pf := root.PersistentFlags()
	pf.IntVarP(&flags.jobs, "jobs", "j", 1, "number of workers to run external commands")
	pf.BoolVarP(&flags.justPrint, "just-print", "n", false, "don't run commands; just print them")
	pf.BoolVarP(&flags.keepGoing, "keep-going", "k", false, "don't stop on errors; keep going")
	pf.BoolVarP(&flags.force, "force", "f", false, "rebuild actions even if they are up to date")
	pf.BoolVarP(&flags.silent, "silent", "s", false, "don't echo commands when executing them")
	pf.BoolVarP(&flags.summary, "summary", "S", false, "print a summary of actions that failed")
	pf.BoolVarP(&flags.all, "all", "a", false, "process source files even if they are not registered")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "print detailed information about what is being done")
	pf.BoolVarP(&flags.printVersion, "version", "V", false, "print version information")

	root.AddCommand(
		newInitCmd(),
		newAddCmd(),
		newDeleteCmd(),
		newListCmd(),
		newSetCmd(),
		newUnsetCmd(),
		newScanCmd(),
		newParseCmd(),
	)
	return root
}

func printVersion() {
	fmt.Println("qi: a directive-driven build engine for C/C++")
	fmt.Println("Version 1.0")
}

func optionsFromFlags() qi.Options {
	return qi.Options{
		Jobs:      flags.jobs,
		JustPrint: flags.justPrint,
		KeepGoing: flags.keepGoing,
		Force:     flags.force,
		Silent:    flags.silent,
		Summary:   flags.summary,
		All:       flags.all,
		Verbose:   flags.verbose,
	}
}

// resolveWorkDir mirrors qi-make.py's main(): the working directory
// defaults to the process cwd, but a path argument (when given) steers
// it to that path's directory (or itself, if it names a directory
// already).
func resolveWorkDir(pathArg string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if pathArg == "" {
		return cwd, nil
	}
	abs, err := filepath.Abs(pathArg)
	if err != nil {
		return "", err
	}
	if fi, statErr := os.Stat(abs); statErr == nil && fi.IsDir() {
		return abs, nil
	}
	return filepath.Dir(abs), nil
}

// resolveRoot climbs from workDir to the project root and loads its
// project file, printing and wrapping errors the way every verb needs.
func resolveRoot(workDir string) (string, *qi.Project, error) {
	root, err := qi.FindProjectRoot(workDir)
	if err != nil {
		errLine("%s.", err)
		return "", nil, &exitError{1}
	}
	proj, err := qi.LoadProject(root)
	if err != nil {
		errLine("%s.", err)
		return "", nil, &exitError{1}
	}
	return root, proj, nil
}

// stdPrefix canonicalizes path against root for prefix-matching
// against the project's registered sources, collapsing filepath.Rel's
// "." (root itself) to "" so "list" with no argument matches every
// source, matching qi-make.py's getStandardName slicing behavior when
// path equals rootDir exactly.
func stdPrefix(root, path string) (string, error) {
	name, err := qi.StandardName(root, path)
	if err != nil {
		return "", err
	}
	if name == "." {
		return "", nil
	}
	return name, nil
}

func firstOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func errLine(format string, a ...interface{}) {
	fmt.Printf("Error: %s\n", fmt.Sprintf(format, a...))
}

// reportBuildError prints a *qi.BuildError the way spec.md §7 requires
// ("Error at file:line: message" when located, "Error: message"
// otherwise) and returns the exit code to propagate.
func reportBuildError(err error, code int) error {
	var be *qi.BuildError
	if errors.As(err, &be) && be.File != "" {
		fmt.Printf("Error at %s:%d: %s\n", be.File, be.Line, be.Message)
	} else {
		fmt.Printf("Error: %s\n", err)
	}
	return &exitError{code}
}

func joinHeaders(headers []string) string {
	return strings.Join(headers, " ")
}
