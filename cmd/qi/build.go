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
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qi-make/qi"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <src>",
		Short: "print the assembled directive code for a source and stop",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction("scan", args)
		},
	}
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <src>",
		Short: "parse a source and dump each action's targets, children and commands",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction("parse", args)
		},
	}
}

// newBuilderFor loads the project rooted above workDir and constructs
// the Builder every build-shaped verb (scan/parse/default action)
// shares, matching qi-make.py's main()'s common prologue.
func newBuilderFor(workDir string) (root string, proj *qi.Project, builder *qi.Builder, opts qi.Options, err error) {
	root, proj, err = resolveRoot(workDir)
	if err != nil {
		return "", nil, nil, qi.Options{}, err
	}
	userFuncs, err := qi.ParseUserFuncs(proj.UserFuncLines)
	if err != nil {
		errLine("%s.", err)
		return "", nil, nil, qi.Options{}, &exitError{1}
	}
	opts = optionsFromFlags()
	builder, err = qi.NewBuilder(root, proj.SourceHeaders, proj.InitCode, proj.FiniCode, userFuncs, opts, qi.NewConsoleReporter(os.Stderr))
	if err != nil {
		errLine("%s.", err)
		return "", nil, nil, qi.Options{}, &exitError{1}
	}
	return root, proj, builder, opts, nil
}

// runAction implements the CLI's action dispatch (qi-make.py's main()
// body from the Builder construction onward): "scan" and "parse" are
// handled specially, every other action name runs as a normal build,
// scheduled and then executed in dependency order.
func runAction(actionName string, pathArgs []string) error {
	workDir, err := resolveWorkDir(firstOrEmpty(pathArgs))
	if err != nil {
		return err
	}
	root, proj, builder, opts, err := newBuilderFor(workDir)
	if err != nil {
		return err
	}

	sources, exitErr := resolveSources(proj, root, workDir, pathArgs, opts.All)
	if exitErr != nil {
		return exitErr
	}

	var toBeUpdated [][]*qi.ActionNode
	actionDefined := false

	switch actionName {
	case "scan":
		for _, source := range sources {
			actionDefined = true
			if _, err := builder.DumpScan(source, printLine); err != nil {
				return reportBuildError(err, 2)
			}
		}

	case "parse":
		for _, source := range sources {
			names, err := builder.Parse(source)
			if err != nil {
				return reportBuildError(err, 2)
			}
			actionDefined = true
			fmt.Println(strings.Repeat("*", 30) + " " + source + strings.Repeat("*", 30))
			for _, name := range names {
				if err := builder.DumpParse(name, source, printLine); err != nil {
					return reportBuildError(err, 2)
				}
			}
		}

	default:
		if len(pathArgs) == 0 {
			layers, defined, err := builder.ScheduleIfDefined(actionName, sources)
			if err != nil {
				return reportBuildError(err, 2)
			}
			actionDefined = defined
			toBeUpdated = layers
		} else {
			layers, err := builder.Schedule([]string{actionName}, sources)
			if err != nil {
				return reportBuildError(err, 2)
			}
			actionDefined = true
			toBeUpdated = layers
		}
	}

	if !actionDefined {
		errLine("the action %q is not defined.", actionName)
		suggestAction(actionName)
		return &exitError{2}
	}

	return runBuildLayers(builder, root, toBeUpdated, opts)
}

// runDefaultFirstAction implements qi-make.py's no-action-given branch:
// every registered source under workDir has its first declared action
// scheduled, with no error if a source declares none.
func runDefaultFirstAction() error {
	workDir, err := resolveWorkDir("")
	if err != nil {
		return err
	}
	root, proj, builder, opts, err := newBuilderFor(workDir)
	if err != nil {
		return err
	}

	sources, exitErr := resolveSources(proj, root, workDir, nil, opts.All)
	if exitErr != nil {
		return exitErr
	}

	var toBeUpdated [][]*qi.ActionNode
	for _, source := range sources {
		names, err := builder.Parse(source)
		if err != nil {
			return reportBuildError(err, 2)
		}
		if len(names) == 0 {
			continue
		}
		layers, err := builder.Schedule([]string{names[0]}, []string{source})
		if err != nil {
			return reportBuildError(err, 2)
		}
		toBeUpdated = mergeLayers(toBeUpdated, layers)
	}

	return runBuildLayers(builder, root, toBeUpdated, opts)
}

// runBuildLayers executes a schedule's layers (if any) and translates
// the resulting report/error into the CLI's exit-code contract.
func runBuildLayers(builder *qi.Builder, root string, toBeUpdated [][]*qi.ActionNode, opts qi.Options) error {
	if len(toBeUpdated) == 0 {
		return nil
	}

	if err := os.Chdir(root); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := builder.Build(ctx, toBeUpdated)
	if err != nil {
		return reportBuildError(err, 2)
	}
	if opts.Summary {
		printSummary(report)
	}
	if report.Failures > 0 {
		return &exitError{3}
	}
	return nil
}

// mergeLayers combines the layer lists from independent Schedule calls
// into one, matching qi-make.py's shared toBeUpdated list accumulating
// across every (action, source) pair inspected in the same run.
func mergeLayers(dst, src [][]*qi.ActionNode) [][]*qi.ActionNode {
	for i, layer := range src {
		if i >= len(dst) {
			dst = append(dst, layer)
		} else {
			dst[i] = append(dst[i], layer...)
		}
	}
	return dst
}

// resolveSources computes the set of sources an action runs against,
// matching qi-make.py's main(): no path arguments means every
// registered source under workDir; otherwise each argument is either a
// registered (or, with -a, unregistered) file, or a directory whose
// registered sources are all included.
func resolveSources(proj *qi.Project, root, workDir string, pathArgs []string, allowUnregistered bool) ([]string, error) {
	var sources []string
	seen := map[string]bool{}

	if len(pathArgs) == 0 {
		prefix, err := stdPrefix(root, workDir)
		if err != nil {
			return nil, err
		}
		for s := range proj.SourceHeaders {
			if strings.HasPrefix(s, prefix) {
				sources = append(sources, s)
			}
		}
		if len(sources) == 0 {
			errLine("no registered source files under %q.", workDir)
			return nil, &exitError{1}
		}
		sort.Strings(sources)
		return sources, nil
	}

	for _, a := range pathArgs {
		abs, err := filepath.Abs(a)
		if err != nil {
			return nil, err
		}
		path, err := qi.StandardName(root, abs)
		if err != nil {
			return nil, err
		}
		fi, statErr := os.Stat(abs)
		switch {
		case statErr == nil && fi.IsDir():
			for s := range proj.SourceHeaders {
				if strings.HasPrefix(s, path) && !seen[s] {
					sources = append(sources, s)
					seen[s] = true
				}
			}
		case statErr == nil:
			if _, registered := proj.SourceHeaders[path]; !registered && !allowUnregistered {
				errLine("%q has not been registered.", path)
				return nil, &exitError{1}
			}
			if !seen[path] {
				sources = append(sources, path)
				seen[path] = true
			}
		}
	}

	if len(sources) == 0 {
		errLine("no valid source file specified.")
		return nil, &exitError{1}
	}
	return sources, nil
}

func printLine(s string) {
	fmt.Println(s)
}

func printSummary(report *qi.BuildReport) {
	if report.Failures == 0 {
		fmt.Println("Summary: all actions succeeded.")
		return
	}
	fmt.Printf("Summary: %d action(s) failed:\n", report.Failures)
	sources := make([]string, 0, len(report.FailedActions))
	for s := range report.FailedActions {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	for _, source := range sources {
		for _, action := range report.FailedActions[source] {
			fmt.Printf("  %s(%s)\n", action, source)
		}
	}
}
