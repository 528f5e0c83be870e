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

package qi

import (
	"context"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

// eval is the Builder-bound entry point into the expression engine,
// binding callFunction/expandAction as Eval's pluggable hooks.
func (b *Builder) eval(text string, symbols Symbols, file string, line int, deferExpand bool) (string, error) {
	return Eval(text, symbols, file, line, deferExpand, b.callFunction, b.expandAction)
}

// callFunction dispatches a "$(name args...)" call to one of the builtins
// from spec.md §4.D, falling back to a registered user function. Grounded
// directly on qi-make.py's Builder.callFunction. add_prefix/add_suffix
// apply their first argument to every later argument, and mkdir always
// returns the string "1".
func (b *Builder) callFunction(name, args string, symbols Symbols, file string, line int) (string, error) {
	switch name {
	case "shell":
		out, _, err := runShell(context.Background(), args)
		if err != nil {
			return "", ErrorfAt(file, line, "%v", err)
		}
		return strings.TrimSpace(out), nil

	case "eval":
		return b.eval(args, symbols, file, line, false)

	case "print":
		b.infof("%s", args)
		return "", nil

	case "reverse":
		parts := Split(args)
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
		return strings.Join(parts, " "), nil

	case "match":
		parts := strings.Fields(args)
		if len(parts) <= 1 {
			return "", nil
		}
		re, err := regexp.Compile(parts[0])
		if err != nil {
			return "", ErrorfAt(file, line, "invalid regex %q: %v", parts[0], err)
		}
		var results []string
		for _, arg := range parts[1:] {
			m := re.FindStringSubmatch(arg)
			if len(m) > 1 {
				results = append(results, m[1])
			}
		}
		return strings.Join(results, " "), nil

	case "add_prefix":
		parts := strings.Fields(args)
		if len(parts) == 0 {
			return "", nil
		}
		var results []string
		for _, arg := range parts[1:] {
			results = append(results, parts[0]+arg)
		}
		return strings.Join(results, " "), nil

	case "add_suffix":
		parts := strings.Fields(args)
		if len(parts) == 0 {
			return "", nil
		}
		var results []string
		for _, arg := range parts[1:] {
			results = append(results, arg+parts[0])
		}
		return strings.Join(results, " "), nil

	case "list":
		var sources []string
		for _, dir := range Split(args) {
			for _, source := range b.registeredSources() {
				if strings.HasPrefix(source, dir) {
					sources = append(sources, source)
				}
			}
		}
		return strings.Join(sources, " "), nil

	case "get_headers":
		var headers []string
		for _, source := range Split(args) {
			if _, ok := b.sourceHeaders[source]; !ok {
				continue
			}
			if _, err := b.Scan(source); err != nil {
				return "", err
			}
			headers = append(headers, b.sourceHeaders[source]...)
		}
		return strings.Join(headers, " "), nil

	case "get_sources":
		var sources []string
		for _, header := range Split(args) {
			if srcs, ok := b.headerSource[header]; ok {
				sources = append(sources, srcs...)
			} else if source, ok := b.baseSource[trimExt(header)]; ok {
				sources = append(sources, source)
			}
		}
		return strings.Join(sources, " "), nil

	case "join":
		paths := strings.Fields(args)
		if len(paths) == 0 {
			return "", nil
		}
		var results []string
		for _, p := range paths[1:] {
			results = append(results, join(paths[0], p))
		}
		return strings.Join(results, " "), nil

	case "remove":
		parts := Split(args)
		if len(parts) == 0 {
			return "", nil
		}
		var set []string
		if len(parts[0]) > 2 && strings.HasPrefix(parts[0], "(") && strings.HasSuffix(parts[0], ")") {
			set = strings.Fields(parts[0][1 : len(parts[0])-1])
		} else {
			set = []string{parts[0]}
		}
		for _, arg := range parts[1:] {
			for i, s := range set {
				if s == arg {
					set = append(set[:i], set[i+1:]...)
					break
				}
			}
		}
		return strings.Join(set, " "), nil

	case "exist":
		for _, arg := range Split(args) {
			if !b.fileExists(arg) {
				return "0", nil
			}
		}
		return "1", nil

	case "compile_depends":
		seen := map[string]bool{}
		var results []string
		for _, source := range Split(args) {
			node, err := b.Scan(source)
			if err != nil {
				return "", err
			}
			order, err := b.Graph.DFS(node, false)
			if err != nil {
				return "", err
			}
			for _, n := range order {
				if n == node || seen[n.Name()] {
					continue
				}
				seen[n.Name()] = true
				results = append(results, n.Name())
			}
		}
		return strings.Join(results, " "), nil

	case "link_depends":
		var results []string
		visited := map[string]bool{}
		if err := b.getLinkDepends(strings.TrimSpace(args), &results, visited); err != nil {
			return "", err
		}
		return strings.Join(results, " "), nil

	case "file_name":
		return file, nil

	case "line_number":
		return strconv.Itoa(line), nil

	case "dir":
		return filepath.Dir(args), nil

	case "mkdir":
		// Preserved from qi-make.py: the builtin ignores makedirs errors and
		// its Go equivalent of "return True" is the string "1" (spec.md §9
		// Open Questions: mkdir's boolean result is coerced to a string).
		_ = makedirs(b.abs(args))
		return "1", nil

	case "platform":
		return goosToPlatform(), nil
	}

	return b.callUserFunc(name, args, symbols, file, line)
}

// expandAction resolves "$action(src1 src2 ...)": each source is parsed
// (so the action is guaranteed to exist if declared) and its targets are
// concatenated, space-separated. Grounded on qi-make.py's expandAction.
func (b *Builder) expandAction(action, args string, symbols Symbols, file string, line int) (string, error) {
	expanded, err := b.eval(args, symbols, file, line, false)
	if err != nil {
		return "", err
	}
	var results []string
	for _, source := range strings.Fields(expanded) {
		if _, err := b.Parse(source); err != nil {
			return "", err
		}
		node, err := b.Graph.FindAction(action, source)
		if err != nil {
			return "", err
		}
		if node != nil {
			results = append(results, node.Targets)
		}
	}
	return strings.Join(results, " "), nil
}

// getLinkDepends computes the transitive closure of sources whose
// declared headers are reachable from sourceFile's scan tree, matching
// qi-make.py's Builder.getLinkDepends (including its "source itself is
// always appended last" behavior).
func (b *Builder) getLinkDepends(sourceFile string, results *[]string, visitedHeaders map[string]bool) error {
	source, err := b.Graph.FindFile(sourceFile)
	if err != nil {
		return err
	}
	if source == nil {
		source, err = b.Scan(sourceFile)
		if err != nil {
			return err
		}
	}
	order, err := b.Graph.DFS(source, false)
	if err != nil {
		return err
	}
	contains := func(name string) bool {
		for _, r := range *results {
			if r == name {
				return true
			}
		}
		return false
	}
	for _, n := range order {
		if n == source || visitedHeaders[n.Name()] {
			continue
		}
		srcs, ok := b.headerSource[n.Name()]
		if !ok {
			continue
		}
		visitedHeaders[n.Name()] = true
		for _, matched := range srcs {
			if !contains(matched) {
				if err := b.getLinkDepends(matched, results, visitedHeaders); err != nil {
					return err
				}
			}
		}
		for _, matched := range srcs {
			if !contains(matched) {
				*results = append(*results, matched)
			}
		}
	}
	if !contains(sourceFile) {
		*results = append(*results, sourceFile)
	}
	return nil
}

// goosToPlatform mirrors Python's platform.system() naming closely enough
// for rule directives that branch on it ("Windows" vs "Linux"/"Darwin").
func goosToPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "Windows"
	case "darwin":
		return "Darwin"
	default:
		return "Linux"
	}
}
