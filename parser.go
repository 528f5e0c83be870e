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

var reservedActions = map[string]bool{
	"add": true, "delete": true, "list": true, "scan": true,
	"parse": true, "set": true, "unset": true, "init": true,
}

// ReservedActionNames returns the CLI verbs no action may be named
// after, for callers (e.g. cmd/qi's "did you mean" suggestion) that
// need them without reaching into the parser's internals.
func ReservedActionNames() []string {
	names := make([]string, 0, len(reservedActions))
	for name := range reservedActions {
		names = append(names, name)
	}
	return names
}

var (
	reIf         = regexp.MustCompile(`^\s*if\s+(\$)?(\w+)\s*(~=|~|!~|==|=|!=)(.*)$`)
	reIfdef      = regexp.MustCompile(`^\s*if(n)?def\s+(\w+)\s*$`)
	reElse       = regexp.MustCompile(`^\s*else\s*$`)
	reEndif      = regexp.MustCompile(`^\s*endif\s*$`)
	reRule       = regexp.MustCompile(`^(\s*)(\w+)(\([^:]*\))?:(.*)$`)
	reAssignment = regexp.MustCompile(`^(\s*)(\w+)\s*(\+=|:=|=)(.*)$`)
	reFuncCall   = regexp.MustCompile(`^\$\((\w+)\s+(.*)\)$`)
	reIndent     = regexp.MustCompile(`^(\s*)`)
)

// parseState is the per-Parse mutable state, mirroring the locals of
// qi-make.py's Builder.parse.
type parseState struct {
	ifStack       []bool
	currentAction *ActionNode
	currentIndent string
	indentSet     bool
	symbols       Symbols
}

// Parse compiles source's embedded directive language into ActionNodes.
// It scans the source first, assembles its code stream (prelude +
// spliced-in header directives + source's own directives + epilogue),
// then runs the line-classifier state machine from spec.md §4.E.
// Idempotent: a source is parsed at most once (FileNode.parsed).
func (b *Builder) Parse(source string) ([]string, error) {
	node, err := b.Scan(source)
	if err != nil {
		return nil, err
	}
	if node.parsed {
		return node.actions, nil
	}

	code, err := b.assembleCode(node)
	if err != nil {
		return nil, err
	}

	b.infof("Parsing %s", source)

	st := &parseState{symbols: b.seedSymbols(source)}
	node.actions = nil
	node.parsed = true

	for _, d := range code {
		if err := b.parseLine(node, st, d); err != nil {
			return nil, err
		}
	}
	if len(st.ifStack) > 0 {
		return nil, Errorf("unterminated 'if' in %s", source)
	}
	return node.actions, nil
}

// DumpScan prints the assembled directive code for source and falls
// through to Parse, matching the "scan" CLI verb's documented (bug
// preserved per spec.md §9 Open Questions) behavior of never early
// returning.
func (b *Builder) DumpScan(source string, out func(string)) ([]string, error) {
	node, err := b.Scan(source)
	if err != nil {
		return nil, err
	}
	code, err := b.assembleCode(node)
	if err != nil {
		return nil, err
	}
	out(strings.Repeat("*", 30) + " " + source + strings.Repeat("*", 30))
	for _, d := range code {
		out(d.Text)
	}
	return b.Parse(source)
}

// assembleCode splices initCode + source's own code (recursively
// expanding CodeElem.Include references in DFS order, each header's
// directives appearing once) + finiCode.
func (b *Builder) assembleCode(node *FileNode) ([]DirectiveLine, error) {
	out := append([]DirectiveLine{}, b.initCode...)
	visited := map[*FileNode]bool{node: true}
	out = appendCode(out, node, visited)
	out = append(out, b.finiCode...)
	return out, nil
}

func appendCode(out []DirectiveLine, node *FileNode, visited map[*FileNode]bool) []DirectiveLine {
	for _, elem := range node.code {
		if elem.Include != nil {
			if visited[elem.Include] {
				continue
			}
			visited[elem.Include] = true
			out = appendCode(out, elem.Include, visited)
			continue
		}
		out = append(out, *elem.Dir)
	}
	return out
}

// seedSymbols builds the parse-time symbol table: host environment, the
// per-user config file's key/value pairs (overriding the environment),
// and the implicit "source" variable.
func (b *Builder) seedSymbols(source string) Symbols {
	sym := hostEnvSymbols()
	cfg, err := ReadConfig(b.Root)
	if err == nil {
		for k, v := range cfg {
			sym[k] = v
		}
	}
	sym["source"] = source
	return sym
}

func (b *Builder) parseLine(node *FileNode, st *parseState, d DirectiveLine) error {
	line := d.Text

	if strings.TrimSpace(line) == "" {
		st.currentAction = nil
		return nil
	}

	if m := reIf.FindStringSubmatch(line); m != nil {
		var lhs string
		if m[1] == "$" {
			v, ok := st.symbols[m[2]]
			if !ok {
				return ErrorfAt(d.File, d.Line, "variable %q has not been defined", m[2])
			}
			lhs = v
		} else {
			lhs = m[2]
		}
		op := m[3]
		rhs, err := b.eval(strings.TrimSpace(m[4]), st.symbols, d.File, d.Line, false)
		if err != nil {
			return err
		}
		var result bool
		switch op {
		case "=", "==":
			result = lhs == rhs
		case "!=":
			result = lhs != rhs
		case "~", "~=":
			re, err := regexp.Compile(rhs)
			if err != nil {
				return ErrorfAt(d.File, d.Line, "invalid regex %q: %v", rhs, err)
			}
			result = re.MatchString(lhs)
		default: // !~
			re, err := regexp.Compile(rhs)
			if err != nil {
				return ErrorfAt(d.File, d.Line, "invalid regex %q: %v", rhs, err)
			}
			result = !re.MatchString(lhs)
		}
		st.ifStack = append(st.ifStack, result)
		return nil
	}

	if m := reIfdef.FindStringSubmatch(line); m != nil {
		_, defined := st.symbols[m[2]]
		if m[1] == "n" {
			st.ifStack = append(st.ifStack, !defined)
		} else {
			st.ifStack = append(st.ifStack, defined)
		}
		return nil
	}

	if reElse.MatchString(line) {
		if len(st.ifStack) == 0 {
			return ErrorfAt(d.File, d.Line, "'else' without corresponding 'if'")
		}
		st.ifStack[len(st.ifStack)-1] = !st.ifStack[len(st.ifStack)-1]
		return nil
	}

	if reEndif.MatchString(line) {
		if len(st.ifStack) == 0 {
			return ErrorfAt(d.File, d.Line, "'endif' without corresponding 'if'")
		}
		st.ifStack = st.ifStack[:len(st.ifStack)-1]
		return nil
	}

	for _, branch := range st.ifStack {
		if !branch {
			return nil
		}
	}

	if m := reRule.FindStringSubmatch(line); m != nil {
		indent, name, targetsRaw, depsRaw := m[1], m[2], m[3], m[4]
		if indent != "" {
			return ErrorfAt(d.File, d.Line, "indentation is not allowed when specifying rules")
		}
		if reservedActions[name] {
			return ErrorfAt(d.File, d.Line, "%q is a reserved action name", name)
		}
		var targets string
		if targetsRaw != "" {
			inner := targetsRaw[1 : len(targetsRaw)-1]
			t, err := b.eval(inner, st.symbols, d.File, d.Line, false)
			if err != nil {
				return err
			}
			targets = t
		}
		deps, err := b.eval(depsRaw, st.symbols, d.File, d.Line, true)
		if err != nil {
			return err
		}
		action, err := b.Graph.FindAction(name, node.name)
		if err != nil {
			return err
		}
		if action != nil {
			if targets != "" && action.Targets != targets {
				return ErrorfAt(d.File, d.Line, "action %q is already defined and assigned a different target name", name)
			}
			action.Dependents += " " + deps
		} else {
			action = b.Graph.GetOrCreateAction(name, node.name)
			action.Targets = targets
			action.Dependents = deps
			action.File, action.Line = d.File, d.Line
			action.target = b.effectiveTargetTimestamp(targets)
			found := false
			for _, a := range node.actions {
				if a == name {
					found = true
					break
				}
			}
			if !found {
				node.actions = append(node.actions, name)
			}
		}
		st.currentAction = action
		st.indentSet = false
		return nil
	}

	if st.currentAction != nil {
		m := reIndent.FindStringSubmatch(line)
		if m[1] == "" {
			st.currentAction = nil
		} else {
			if st.indentSet && m[1] != st.currentIndent {
				return ErrorfAt(d.File, d.Line, "indentation has changed from previous lines")
			}
			st.currentIndent = m[1]
			st.indentSet = true
		}
	}

	if m := reAssignment.FindStringSubmatch(line); m != nil {
		variable, op := m[2], m[3]
		rhs := strings.TrimSpace(m[4])
		if len(rhs) > 2 && rhs[0] == '"' && rhs[len(rhs)-1] == '"' {
			rhs = rhs[1 : len(rhs)-1]
		}
		if st.currentAction != nil {
			if _, ok := st.symbols[variable]; ok {
				return ErrorfAt(d.File, d.Line, "a variable that exists in the source scope cannot be reassigned in a rule")
			}
			deferred, err := b.eval(rhs, st.symbols, d.File, d.Line, true)
			if err != nil {
				return err
			}
			st.currentAction.Commands = append(st.currentAction.Commands, Command{
				Kind: CmdAssignment, File: d.File, Line: d.Line,
				Var: variable, Op: op, RHS: deferred,
			})
			return nil
		}
		switch op {
		case "=", ":=":
			v, err := b.eval(rhs, st.symbols, d.File, d.Line, op == ":=")
			if err != nil {
				return err
			}
			st.symbols[variable] = v
		default: // +=
			v, err := b.eval(rhs, st.symbols, d.File, d.Line, false)
			if err != nil {
				return err
			}
			if existing, ok := st.symbols[variable]; ok {
				st.symbols[variable] = existing + " " + v
			} else {
				st.symbols[variable] = v
			}
		}
		return nil
	}

	if m := reFuncCall.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		args, err := b.eval(m[2], st.symbols, d.File, d.Line, false)
		if err != nil {
			return err
		}
		if st.currentAction != nil {
			st.currentAction.Commands = append(st.currentAction.Commands, Command{
				Kind: CmdFunctionCall, File: d.File, Line: d.Line, Func: m[1], Args: args,
			})
			return nil
		}
		_, err = b.callFunction(m[1], args, st.symbols, d.File, d.Line)
		return err
	}

	if st.currentAction == nil {
		return ErrorfAt(d.File, d.Line, "syntax error: %q", line)
	}

	text, err := b.eval(strings.TrimSpace(line), st.symbols, d.File, d.Line, true)
	if err != nil {
		return err
	}
	st.currentAction.Commands = append(st.currentAction.Commands, Command{
		Kind: CmdExternal, File: d.File, Line: d.Line, Text: text,
	})
	return nil
}

// effectiveTargetTimestamp mirrors qi-make.py's addNode: the minimum
// mtime across every declared target, or 0 if any target is missing.
func (b *Builder) effectiveTargetTimestamp(targets string) int64 {
	if targets == "" {
		return 0
	}
	var ts int64
	first := true
	for _, t := range strings.Fields(targets) {
		m, ok := b.stats.stat(b.abs(t))
		if !ok {
			return 0
		}
		if first || m < ts {
			ts = m
		}
		first = false
	}
	return ts
}
