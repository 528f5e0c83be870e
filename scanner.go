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
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	reIncludePath = regexp.MustCompile(`^\s*(?://|/\*)\s*qi:\s*includepath\s+(.+?)\s*(?:\*/)?\s*$`)
	reInclude     = regexp.MustCompile(`^\s*(?://)?\s*#\s*include\s*["<]([^">]+)[">]\s*(/\*qi:\s*ignore\s*\*/|//qi:\s*ignore)?\s*$`)
	reBeginBlock  = regexp.MustCompile(`^\s*(?:/\*)?\s*qi:\s*begin`)
	reEndBlock    = regexp.MustCompile(`qi:\s*end\s*(?:\*/)?`)
	reOneLine     = regexp.MustCompile(`^\s*//qi:\s*(.*)$|^\s*/\*qi:\s*(.*?)\*/\s*$`)
)

// scanFrame tracks one open file on the scanner's include stack,
// mirroring qi-make.py's nodeStack entries (currentNode/file/lineNumber).
type scanFrame struct {
	node *FileNode
	sc   *bufio.Scanner
	f    *os.File
	line int
}

// Scan ensures source's FileNode exists and is fully scanned: it reads
// the file, resolves #include directives against a growable include
// path (seeded with Root), recurses into unseen headers, and extracts
// qi: directive lines into the node's code stream. Idempotent via
// FileNode.scanned. Implements spec.md §4.C.
func (b *Builder) Scan(source string) (*FileNode, error) {
	node := b.Graph.GetOrCreateFile(source)
	if node.scanned {
		return node, nil
	}
	if _, err := b.addFileNode(source, false); err != nil {
		return nil, err
	}

	b.infof("Scanning %s", source)

	node.scanned = true

	f, err := os.Open(b.abs(source))
	if err != nil {
		return nil, Errorf("failed to open or read file %q", source)
	}

	includePaths := []string{b.Root}
	stack := []*scanFrame{{node: node, sc: bufio.NewScanner(f), f: f}}
	defer func() {
		for _, fr := range stack {
			fr.f.Close()
		}
	}()

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		advanced := false
		for top.sc.Scan() {
			top.line++
			line := top.sc.Text()

			if m := reIncludePath.FindStringSubmatch(line); m != nil {
				path := filepath.Clean(join(b.Root, strings.TrimSpace(m[1])))
				if !exists(path) {
					b.warnf("%s:%d: %q is not a valid path", top.node.name, top.line, path)
				} else {
					found := false
					for _, p := range includePaths {
						if p == path {
							found = true
							break
						}
					}
					if !found {
						includePaths = append(includePaths, path)
					}
				}
				continue
			}

			if m := reInclude.FindStringSubmatch(line); m != nil {
				if m[2] != "" {
					continue // trailing "qi: ignore" suppresses resolution
				}
				child, recurse, err := b.resolveInclude(top.node, m[1], includePaths, top.line)
				if err != nil {
					return nil, err
				}
				if child == nil {
					continue
				}
				if recurse {
					cf, err := os.Open(b.abs(child.name))
					if err != nil {
						return nil, Errorf("failed to open or read file %q", child.name)
					}
					child.scanned = true
					stack = append(stack, &scanFrame{node: child, sc: bufio.NewScanner(cf), f: cf})
					advanced = true
					break
				}
				continue
			}

			if reBeginBlock.MatchString(line) {
				b.scanBlock(top.node, top.sc, &top.line)
				continue
			}

			if m := reOneLine.FindStringSubmatch(line); m != nil {
				code := m[1]
				if code == "" {
					code = m[2]
				}
				top.node.addCode(top.node.name, top.line, code)
				continue
			}
		}
		if advanced {
			continue
		}
		top.f.Close()
		stack = stack[:len(stack)-1]
	}

	order, err := b.Graph.DFS(node, false)
	if err != nil {
		return nil, err
	}
	var ts int64
	for _, n := range order {
		if n.Timestamp() > ts {
			ts = n.Timestamp()
		}
	}
	node.timestamp = ts
	return node, nil
}

// scanBlock consumes a "qi: begin" ... "qi: end" multi-line directive
// block. Lines starting with '#' are skipped (and, per spec.md §9's
// preserved Open Question, silently clear any pending continuation —
// matching qi-make.py's behavior rather than "fixing" it). A trailing
// backslash joins the next physical line onto the current directive.
func (b *Builder) scanBlock(node *FileNode, sc *bufio.Scanner, lineNo *int) {
	continuation := false
	for sc.Scan() {
		*lineNo++
		line := sc.Text()
		if reEndBlock.MatchString(line) {
			return
		}
		line = strings.TrimRight(line, " \r")
		if strings.HasPrefix(strings.TrimLeft(line, " "), "#") {
			continuation = false
			continue
		}
		backslash := strings.HasSuffix(line, "\\")
		if backslash {
			line = strings.TrimSuffix(line, "\\")
		}
		if continuation {
			node.appendToLastCode(line)
		} else {
			node.addCode(node.name, *lineNo, line)
		}
		continuation = backslash
	}
}

// resolveInclude resolves a "#include "file"" reference against
// includePaths, in order. It returns (nil, false, nil) when the file
// can't be located on any include path (a non-fatal scan condition,
// warned per spec.md §7). When found, it either binds to an existing
// registered source (matched by stripped base name, when that source
// has no declared headers) or creates a standalone header FileNode, then
// records the edge and a code-splice reference. recurse reports whether
// the caller should scan the header before continuing the parent.
func (b *Builder) resolveInclude(parent *FileNode, file string, includePaths []string, line int) (child *FileNode, recurse bool, err error) {
	file = normalizeSlashes(file)
	var header string
	for _, p := range includePaths {
		candidate := join(p, file)
		if exists(candidate) {
			header, err = standardName(b.Root, candidate)
			if err != nil {
				return nil, false, err
			}
			break
		}
	}
	if header == "" {
		b.warnf("%s:%d: unresolved include path for %q", parent.name, line, file)
		return nil, false, nil
	}

	if _, ok := b.headerSource[header]; !ok {
		base := trimExt(file)
		if source, ok := b.baseSource[base]; ok {
			b.sourceHeaders[source] = append(b.sourceHeaders[source], header)
			b.headerSource[header] = []string{source}
		}
	}

	headerNode, err := b.Graph.FindFile(header)
	if err != nil {
		return nil, false, err
	}
	if headerNode == nil {
		headerNode, err = b.addFileNode(header, true)
		if err != nil {
			return nil, false, err
		}
	}
	b.Graph.AddEdge(parent, headerNode)
	parent.addCodeInclude(headerNode)
	return headerNode, !headerNode.scanned, nil
}

// addFileNode registers a new FileNode and seeds its timestamp from
// disk. mayNotExist allows a header discovered via #include that
// couldn't be probed yet to still be tracked (it is marked scanned so
// the scan never recurses into it).
func (b *Builder) addFileNode(name string, mayNotExist bool) (*FileNode, error) {
	node := b.Graph.GetOrCreateFile(name)
	if m, ok := b.stats.stat(b.abs(name)); ok {
		node.timestamp = m
	} else {
		node.timestamp = 0
		if !mayNotExist {
			return nil, Errorf("the file or directory %q doesn't exist", name)
		}
		node.mayNotExist = true
		node.scanned = true
	}
	return node, nil
}
