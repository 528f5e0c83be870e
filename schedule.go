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

import "fmt"

// resolveAction locates (and, if necessary, parses) the action named
// action(source), matching qi-make.py's inspect() preamble.
func (b *Builder) resolveAction(action, source string) (*ActionNode, *FileNode, error) {
	actionNode, err := b.Graph.FindAction(action, source)
	if err != nil {
		return nil, nil, err
	}
	sourceNode, err := b.Graph.FindFile(source)
	if err != nil {
		return nil, nil, err
	}
	if actionNode == nil {
		if sourceNode == nil {
			if _, err := b.Parse(source); err != nil {
				return nil, nil, err
			}
			sourceNode, err = b.Graph.FindFile(source)
			if err != nil {
				return nil, nil, err
			}
			if sourceNode == nil {
				return nil, nil, Errorf("a file node named %q cannot be found", source)
			}
		}
		actionNode, err = b.Graph.FindAction(action, source)
		if err != nil {
			return nil, nil, err
		}
		if actionNode == nil {
			return nil, nil, Errorf("there is no action named %q within %q", action, source)
		}
	} else if sourceNode == nil {
		return nil, nil, Errorf("a file node named %q cannot be found", source)
	}
	return actionNode, sourceNode, nil
}

// DumpParse prints action(source)'s targets, dependency edges and
// commands, matching the "parse" CLI verb (qi-make.py's
// inspect(isParseAction=True)).
func (b *Builder) DumpParse(action, source string, out func(string)) error {
	actionNode, sourceNode, err := b.resolveAction(action, source)
	if err != nil {
		return err
	}
	if !actionNode.isDependencyResolved {
		if err := b.resolveDependency(actionNode, sourceNode); err != nil {
			return err
		}
	}
	var children string
	for _, c := range actionNode.Children() {
		children += c.Name() + " "
	}
	out(fmt.Sprintf("%s(%s): %s", action, actionNode.Targets, children))
	for _, cmd := range actionNode.Commands {
		switch cmd.Kind {
		case CmdAssignment:
			out(fmt.Sprintf("\t%s %s%s", cmd.Var, cmd.Op, cmd.RHS))
		case CmdFunctionCall:
			out(fmt.Sprintf("\t$(%s %s)", cmd.Func, cmd.Args))
		case CmdExternal:
			out("\t" + cmd.Text)
		}
	}
	return nil
}

// inspect implements spec.md §4.G: given a starting action, it walks the
// action subgraph in post-order with cycle detection and assigns each
// unscheduled node an updateOrder, appending it to its layer in
// toBeUpdated. Grounded on qi-make.py's Builder.inspect (scheduling
// branch).
func (b *Builder) inspect(action *ActionNode, source *FileNode, toBeUpdated *[][]*ActionNode) error {
	if !action.isDependencyResolved {
		if err := b.resolveDependency(action, source); err != nil {
			return err
		}
	}

	order, err := b.Graph.DFS(action, true)
	if err != nil {
		return err
	}

	for _, n := range order {
		node := n.(*ActionNode)
		if node.updateOrder >= 0 {
			continue
		}
		var timestamp int64
		updateOrder := -1
		for _, child := range node.Children() {
			if !child.IsFile() {
				if ao := child.(*ActionNode).updateOrder; ao > updateOrder {
					updateOrder = ao
				}
			}
			if child.Timestamp() > timestamp {
				timestamp = child.Timestamp()
			}
		}
		if updateOrder == -1 {
			if timestamp > node.target || node.target == 0 {
				node.updateOrder = 0
			}
		} else {
			node.updateOrder = updateOrder + 1
		}
		if node.updateOrder == -1 && b.Options.Force {
			node.updateOrder = 0
		}
		if node.updateOrder >= 0 {
			b.infof("Schedule %s at update level %d", node.name, node.updateOrder)
			for len(*toBeUpdated) <= node.updateOrder {
				*toBeUpdated = append(*toBeUpdated, nil)
			}
			(*toBeUpdated)[node.updateOrder] = append((*toBeUpdated)[node.updateOrder], node)
		}
	}
	return nil
}

// Schedule resolves and schedules every named action(source) pair,
// returning the resulting layer list (toBeUpdated[i] may run
// concurrently; layer i+1 never starts before layer i finishes).
func (b *Builder) Schedule(actions []string, sources []string) ([][]*ActionNode, error) {
	var toBeUpdated [][]*ActionNode
	for _, action := range actions {
		for _, source := range sources {
			actionNode, sourceNode, err := b.resolveAction(action, source)
			if err != nil {
				return nil, err
			}
			if err := b.inspect(actionNode, sourceNode, &toBeUpdated); err != nil {
				return nil, err
			}
		}
	}
	return toBeUpdated, nil
}

// ScheduleIfDefined schedules action against every source that declares
// it, silently skipping sources that don't — matching the CLI's
// no-source-files-given autodetect mode (qi-make.py's main(): when only
// an action is named, each candidate source is parsed first and only
// scheduled if it actually defines that action, rather than erroring).
// The returned bool reports whether action was defined by at least one
// source.
func (b *Builder) ScheduleIfDefined(action string, sources []string) ([][]*ActionNode, bool, error) {
	var toBeUpdated [][]*ActionNode
	defined := false
	for _, source := range sources {
		actions, err := b.Parse(source)
		if err != nil {
			return nil, false, err
		}
		if !containsString(actions, action) {
			continue
		}
		defined = true
		actionNode, sourceNode, err := b.resolveAction(action, source)
		if err != nil {
			return nil, false, err
		}
		if err := b.inspect(actionNode, sourceNode, &toBeUpdated); err != nil {
			return nil, false, err
		}
	}
	return toBeUpdated, defined, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
