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
	"regexp"
	"strings"
)

var reActionSources = regexp.MustCompile(`^\$?(\w+)\((.*)\)$`)

// splitActionSources splits a dependents token like "link(a.c b.c)" into
// ("link", "a.c b.c"); a bare token ("foo.h") returns ok == false.
func splitActionSources(token string) (action, sources string, ok bool) {
	m := reActionSources.FindStringSubmatch(token)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// resolveDependency is called lazily the first time an action is
// inspected. It expands the action's raw Dependents text with an empty
// symbol table (dependents must be resolvable purely from parse-time
// scope, per spec.md §4.F), then walks each whitespace token, adding
// graph edges and recursing into unresolved action dependencies.
// Grounded on qi-make.py's Builder.resolveDependency.
func (b *Builder) resolveDependency(action *ActionNode, source *FileNode) error {
	action.isDependencyResolved = true

	dependents, err := b.eval(action.Dependents, Symbols{}, action.File, action.Line, false)
	if err != nil {
		return err
	}
	dependents = strings.TrimSpace(dependents)
	action.Dependents = ""
	if dependents == "" {
		return nil
	}

	for _, token := range Split(dependents) {
		name, sources, hasSources := splitActionSources(token)
		if !hasSources {
			dep, err := b.Graph.FindAction(token, source.Name())
			if err != nil {
				return err
			}
			if dep != nil {
				if !dep.isDependencyResolved {
					if err := b.resolveDependency(dep, source); err != nil {
						return err
					}
				}
				b.Graph.AddEdge(action, dep)
				continue
			}
			fnode, err := b.Graph.FindFile(token)
			if err != nil {
				return err
			}
			if fnode == nil {
				fnode, err = b.addFileNode(token, false)
				if err != nil {
					return err
				}
			}
			b.Graph.AddEdge(action, fnode)
			continue
		}

		if sources == "" {
			continue
		}
		if strings.ContainsAny(sources, "($") {
			return ErrorfAt(action.File, action.Line, "%q can't be evaluated", sources)
		}
		for _, src := range strings.Fields(sources) {
			if _, err := b.Parse(src); err != nil {
				return err
			}
			depNode, err := b.Graph.FindAction(name, src)
			if err != nil {
				return err
			}
			if depNode == nil {
				depSource, ferr := b.Graph.FindFile(src)
				if ferr != nil {
					return ferr
				}
				var srcName string
				if depSource == nil {
					srcName = src
				} else {
					srcName = depSource.Name()
				}
				return ErrorfAt(action.File, action.Line, "there is no action named %q within %q", name, srcName)
			}
			if !depNode.isDependencyResolved {
				depSource, err := b.Graph.FindFile(src)
				if err != nil {
					return err
				}
				if err := b.resolveDependency(depNode, depSource); err != nil {
					return err
				}
			}
			b.Graph.AddEdge(action, depNode)
		}
	}
	return nil
}
