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

// Package qi implements a build engine for C/C++ projects in which each
// source file is a self-describing build unit: directives embedded in
// comments declare named actions (build rules), which this package
// compiles into a dependency graph, schedules in topological layers and
// executes concurrently. It is the engine behind the "qi" CLI
// (cmd/qi), a spiritual successor to the original qi-make tool.
package qi

import (
	"path/filepath"
)

// Options holds the run-wide flags from spec.md §6.
type Options struct {
	Jobs       int  // -j
	JustPrint  bool // -n
	KeepGoing  bool // -k
	Force      bool // -f
	Silent     bool // -s
	Summary    bool // -S
	All        bool // -a
	Verbose    bool // -v
}

// DefaultOptions returns the zero-value-safe defaults (single-threaded,
// fail-fast), matching qi-make.py's optparse defaults.
func DefaultOptions() Options {
	return Options{Jobs: 1}
}

// Builder is the coordinator described throughout spec.md: it owns the
// Graph, the source/header registry, the symbol table seed, and the
// options for the current run. It is passed by reference to every
// subsystem; the only thing workers touch concurrently is their own
// per-action Symbols copy and an action's hasFailed flag (spec.md §5).
type Builder struct {
	Root    string
	Options Options

	Graph *Graph
	stats *statCache

	// sourceHeaders is the "source -> declared headers" map supplied by
	// the project file (or the CLI's -a passthrough for unregistered
	// sources). A source with no declared headers (nil or empty slice) is
	// entered in baseSource, which enables the base-name fallback in
	// resolveInclude.
	sourceHeaders map[string][]string
	// headerSource is the inverse of sourceHeaders, populated lazily as
	// headers are discovered or declared.
	headerSource map[string][]string
	// baseSource maps a source's extension-stripped base name to the
	// source itself, used to match "#include "foo.h"" against "foo.cpp"
	// when no headers were declared for foo.cpp.
	baseSource map[string]string

	initCode []DirectiveLine
	finiCode []DirectiveLine

	userFuncs map[string]UserFunc

	reporter Reporter
}

// Reporter receives the Info/Warning stream described in
// SPEC_FULL.md §4.I, gated on Options.Verbose for Info.
type Reporter interface {
	Info(format string, a ...interface{})
	Warning(format string, a ...interface{})
}

// NewBuilder constructs a Builder from the collaborator-supplied inputs
// spec.md §1 names as the CLI's only contract with the core: a root
// directory, a source->headers mapping, init/final code, user-defined
// functions and run options.
func NewBuilder(root string, sourceHeaders map[string][]string, initCode, finiCode []DirectiveLine, userFuncs map[string]UserFunc, opts Options, reporter Reporter) (*Builder, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		Root:          absRoot,
		Options:       opts,
		Graph:         NewGraph(),
		stats:         newStatCache(),
		sourceHeaders: sourceHeaders,
		headerSource:  make(map[string][]string),
		baseSource:    make(map[string]string),
		initCode:      initCode,
		finiCode:      finiCode,
		userFuncs:     userFuncs,
		reporter:      reporter,
	}
	for source, headers := range sourceHeaders {
		if len(headers) > 0 {
			for _, h := range headers {
				b.headerSource[h] = append(b.headerSource[h], source)
			}
		} else {
			base := trimExt(source)
			if existing, ok := b.baseSource[base]; ok {
				return nil, Errorf("%q and %q share the same base name", source, existing)
			}
			b.baseSource[base] = source
		}
	}
	return b, nil
}

func trimExt(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)]
}

func (b *Builder) infof(format string, a ...interface{}) {
	if b.reporter != nil && b.Options.Verbose {
		b.reporter.Info(format, a...)
	}
}

func (b *Builder) warnf(format string, a ...interface{}) {
	if b.reporter != nil {
		b.reporter.Warning(format, a...)
	}
}

// abs resolves a project-relative name to an absolute path under Root.
func (b *Builder) abs(name string) string {
	return filepath.Join(b.Root, filepath.FromSlash(name))
}

// isRegistered reports whether source was declared in the project file.
func (b *Builder) isRegistered(source string) bool {
	_, ok := b.sourceHeaders[source]
	return ok
}

// registeredSources returns every declared source, in map order (callers
// needing stable output should sort).
func (b *Builder) registeredSources() []string {
	out := make([]string, 0, len(b.sourceHeaders))
	for s := range b.sourceHeaders {
		out = append(out, s)
	}
	return out
}

// fileExists is a small convenience used by the "exist" builtin.
func (b *Builder) fileExists(name string) bool {
	return exists(b.abs(name))
}
