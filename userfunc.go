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
	"regexp"
	"strconv"
	"strings"
)

// UserFunc is a registered extension to the directive language's builtin
// set. qi-make.py exec'd the project file's "[User-Defined Functions]"
// section as Python source and dispatched by reflecting on the function's
// argument count (1 or 2). Executing arbitrary source from a project file
// is not something this package does; instead a UserFunc is a plain Go
// value, and the "does it want the symbol table" distinction becomes two
// registration helpers feeding the same map.
type UserFunc func(symbols Symbols, args []string) (string, error)

// RegisterFunc registers a function that only sees its arguments,
// matching qi-make.py's single-argument user function (func_code.co_argcount == 1).
func RegisterFunc(funcs map[string]UserFunc, name string, fn func(args []string) (string, error)) {
	funcs[name] = func(_ Symbols, args []string) (string, error) { return fn(args) }
}

// RegisterFuncWithSymbols registers a function that additionally receives
// the calling scope's symbol table, matching qi-make.py's two-argument
// user function (func_code.co_argcount == 2).
func RegisterFuncWithSymbols(funcs map[string]UserFunc, name string, fn func(symbols Symbols, args []string) (string, error)) {
	funcs[name] = fn
}

// callUserFunc looks up and invokes a registered function, splitting args
// on whitespace the way qi-make.py's shell-style user functions expect.
func (b *Builder) callUserFunc(name, args string, symbols Symbols, file string, line int) (string, error) {
	fn, ok := b.userFuncs[name]
	if !ok {
		return "", ErrorfAt(file, line, "function %q is not implemented", name)
	}
	out, err := fn(symbols, strings.Fields(args))
	if err != nil {
		return "", ErrorfAt(file, line, "error when calling the user-defined function %q: %v", name, err)
	}
	return out, nil
}

var (
	reUserFuncDecl = regexp.MustCompile(`^(\w+)\s*=\s*(.*)$`)
	reUserFuncArg  = regexp.MustCompile(`\$(\*|\d+)`)
)

// ParseUserFuncs turns a project file's "[User-Defined Functions]" body
// into a UserFunc table. Each non-blank line is a declarative
// "name = shell-template" binding (spec.md §9's redesign of qi-make.py's
// exec'd Python source): the template may reference "$*" for every
// argument space-joined, or "$1".."$9" for a single positional argument.
// Calling the function runs the expanded template through the same
// process-spawning path as the "shell" builtin.
func ParseUserFuncs(lines []string) (map[string]UserFunc, error) {
	funcs := map[string]UserFunc{}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := reUserFuncDecl.FindStringSubmatch(line)
		if m == nil {
			return nil, Errorf("invalid user-defined function declaration %q", line)
		}
		name, template := m[1], m[2]
		RegisterFunc(funcs, name, func(args []string) (string, error) {
			command := reUserFuncArg.ReplaceAllStringFunc(template, func(tok string) string {
				if tok == "$*" {
					return strings.Join(args, " ")
				}
				idx, _ := strconv.Atoi(tok[1:])
				if idx < 1 || idx > len(args) {
					return ""
				}
				return args[idx-1]
			})
			out, _, err := runShell(context.Background(), command)
			return strings.TrimSpace(out), err
		})
	}
	return funcs, nil
}
