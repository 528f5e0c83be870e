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

// Graph is the node store plus adjacency for both the file subgraph and
// the action subgraph; they share nodes but not traversals (DFS filters
// children by IsFile() against the start node's kind). Grounded on
// qi-make.py's Builder.nodes/addNode/setDependency/depthFirstSearch.
type Graph struct {
	nodes map[string]Node
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]Node)}
}

// Get returns the node registered under name, if any.
func (g *Graph) Get(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// FindFile returns the FileNode named name, erroring if a node of that
// name exists but is an ActionNode.
func (g *Graph) FindFile(name string) (*FileNode, error) {
	n, ok := g.nodes[name]
	if !ok {
		return nil, nil
	}
	f, ok := n.(*FileNode)
	if !ok {
		return nil, Errorf("%q is expected to be a file, not an action", name)
	}
	return f, nil
}

// FindAction returns the ActionNode "action(source)", erroring if a node
// of that name exists but is a FileNode.
func (g *Graph) FindAction(action, source string) (*ActionNode, error) {
	name := action + "(" + source + ")"
	n, ok := g.nodes[name]
	if !ok {
		return nil, nil
	}
	a, ok := n.(*ActionNode)
	if !ok {
		return nil, Errorf("%q is expected to be an action, not a file", name)
	}
	return a, nil
}

// GetOrCreateFile returns the existing FileNode named name, or creates
// and registers a new, unscanned one.
func (g *Graph) GetOrCreateFile(name string) *FileNode {
	if n, ok := g.nodes[name]; ok {
		return n.(*FileNode)
	}
	f := newFileNode(name)
	g.nodes[name] = f
	return f
}

// GetOrCreateAction returns the existing ActionNode "action(source)", or
// creates and registers a new one.
func (g *Graph) GetOrCreateAction(action, source string) *ActionNode {
	name := action + "(" + source + ")"
	if n, ok := g.nodes[name]; ok {
		return n.(*ActionNode)
	}
	a := newActionNode(action, source)
	g.nodes[name] = a
	return a
}

// AddEdge records parent -> child if it isn't already present. Returns
// true if a new edge was added.
func (g *Graph) AddEdge(parent, child Node) bool {
	for _, c := range parent.Children() {
		if c == child {
			return false
		}
	}
	parent.addChild(child)
	return true
}

// dfsFrame is one level of the explicit DFS stack, tracking which child
// index to resume from (qi-make.py's node.nextChild).
type dfsFrame struct {
	node      Node
	nextChild int
}

// DFS walks the subgraph reachable from start that matches start's
// IsFile() kind, in post-order (so when a node is yielded, all of its
// matching-kind descendants have already been yielded). When checkCycle
// is true, encountering a node already on the current stack is a hard
// error naming every node on the cycle; when false, revisits are simply
// skipped (used by the scanner's file-subgraph timestamp propagation,
// per spec.md §4.B).
func (g *Graph) DFS(start Node, checkCycle bool) ([]Node, error) {
	wantFile := start.IsFile()
	visited := make(map[Node]bool)
	onStack := make(map[Node]bool)
	var order []Node

	stack := []*dfsFrame{{node: start}}
	onStack[start] = true

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		advanced := false
		for top.nextChild < len(top.node.Children()) {
			child := top.node.Children()[top.nextChild]
			top.nextChild++
			if child.IsFile() != wantFile {
				continue
			}
			if visited[child] {
				continue
			}
			if len(child.Children()) == 0 {
				visited[child] = true
				order = append(order, child)
				continue
			}
			if onStack[child] {
				if checkCycle {
					return nil, cycleError(stack, child)
				}
				continue
			}
			stack = append(stack, &dfsFrame{node: child})
			onStack[child] = true
			advanced = true
			break
		}
		if advanced {
			continue
		}
		if !visited[top.node] {
			visited[top.node] = true
			order = append(order, top.node)
		}
		onStack[top.node] = false
		stack = stack[:len(stack)-1]
	}
	return order, nil
}

func cycleError(stack []*dfsFrame, closing Node) error {
	start := 0
	for i, f := range stack {
		if f.node == closing {
			start = i
			break
		}
	}
	msg := "circular dependency detected: "
	for _, f := range stack[start:] {
		msg += f.node.Name() + " -> "
	}
	msg += closing.Name()
	return Errorf("%s", msg)
}
