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

import "strings"

// Symbols is the variable scope used for expression substitution: the
// file-scope symbol table during parsing, or a per-action scope during
// execution. It plays the role of qi-make.py's symbolTable dict.
type Symbols map[string]string

// Clone returns an independent copy, so workers can mutate their own
// scope without touching the coordinator's (spec.md §5: "workers mutate
// only their own symbols scope, passed by value").
func (s Symbols) Clone() Symbols {
	out := make(Symbols, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// FuncCall is the pluggable hook Eval uses to invoke both built-in and
// user-defined functions, and to expand "$action(args)" action
// expansions. It is supplied by the Builder so the expression engine
// itself stays free of graph/scan concerns.
type FuncCall func(name, args string, symbols Symbols, file string, line int) (string, error)

// ActionExpand resolves "$action(src1 src2 ...)" expressions: for each
// source, ensure its action is parsed and return its declared targets,
// concatenated with spaces.
type ActionExpand func(action, args string, symbols Symbols, file string, line int) (string, error)

// Eval translates a raw expression string against symbols. When defer is
// true, function calls ("$(name args)") and action expansions
// ("$action(args)") are left untouched in the output (only bare
// variables are substituted) — this is the rule-body ":=" / command-text
// mode from spec.md §4.D. When defer is false, every construct is
// expanded immediately (eager mode, used for file-scope "=" assignments,
// rule headers and conditionals).
//
// This is a hand-written recursive-descent scanner rather than the
// backtracking regex qi-make.py used (stringParserRegex): it walks the
// input once, tracking parenthesis nesting so an inner "(...)" is
// captured verbatim, exactly preserving the documented token precedence
// action > var1 > var2 > funct > dollar > lparen > rparen.
func Eval(input string, symbols Symbols, file string, line int, deferExpand bool, call FuncCall, expand ActionExpand) (string, error) {
	type frame struct {
		buf   strings.Builder
		depth int // open-paren depth, only meaningful for funct/action frames
		kind  byte
	}
	stack := []*frame{{kind: 0}}

	i := 0
	n := len(input)
	for i < n {
		c := input[i]
		if c != '$' && c != '(' && c != ')' {
			top := stack[len(stack)-1]
			top.buf.WriteByte(c)
			i++
			continue
		}
		if c == '(' {
			top := stack[len(stack)-1]
			top.buf.WriteByte('(')
			if top.kind != 0 {
				top.depth++
			}
			i++
			continue
		}
		if c == ')' {
			top := stack[len(stack)-1]
			if top.kind == 0 {
				// A bare ")" at the outermost frame has no matching open
				// paren we're tracking; pass it through literally.
				top.buf.WriteByte(')')
				i++
				continue
			}
			top.buf.WriteByte(')')
			top.depth--
			if top.depth == 0 {
				closed := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				parent := stack[len(stack)-1]
				text := closed.buf.String()
				if deferExpand {
					parent.buf.WriteString(text)
				} else {
					var out string
					var err error
					if closed.kind == 'f' {
						name, args := splitFuncCall(text)
						out, err = call(name, args, symbols, file, line)
					} else {
						action, args := splitActionCall(text)
						out, err = expand(action, args, symbols, file, line)
					}
					if err != nil {
						return "", err
					}
					parent.buf.WriteString(out)
				}
			}
			i++
			continue
		}
		// c == '$'
		if i+1 < n && input[i+1] == '$' {
			stack[len(stack)-1].buf.WriteByte('$')
			i += 2
			continue
		}
		if i+1 < n && input[i+1] == '(' {
			// Could be "$(VAR)" (var2) or "$(name args...)" (funct). Scan
			// ahead for the first whitespace or ')' before deciding.
			j := i + 2
			for j < n && isIdentByte(input[j]) {
				j++
			}
			if j < n && input[j] == ')' {
				name := input[i+2 : j]
				top := stack[len(stack)-1]
				if v, ok := symbols[name]; ok {
					top.buf.WriteString(v)
				} else {
					top.buf.WriteString(input[i : j+1])
				}
				i = j + 1
				continue
			}
			// funct: "$(" starts a new frame; everything up to the
			// matching ")" is captured, nested parens tracked.
			stack = append(stack, &frame{kind: 'f', depth: 1})
			stack[len(stack)-1].buf.WriteString(input[i : j])
			i = j
			continue
		}
		if i+1 < n && isIdentByte(input[i+1]) {
			j := i + 1
			for j < n && isIdentByte(input[j]) {
				j++
			}
			if j < n && input[j] == '(' {
				// "$action(args...)" action expansion.
				stack = append(stack, &frame{kind: 'a', depth: 1})
				stack[len(stack)-1].buf.WriteString(input[i:j])
				stack[len(stack)-1].buf.WriteByte('(')
				i = j + 1
				continue
			}
			name := input[i+1 : j]
			top := stack[len(stack)-1]
			if v, ok := symbols[name]; ok {
				top.buf.WriteString(v)
			} else {
				top.buf.WriteString(input[i:j])
			}
			i = j
			continue
		}
		// Lone '$' not followed by a recognized construct: literal.
		stack[len(stack)-1].buf.WriteByte('$')
		i++
	}

	if len(stack) != 1 {
		return "", ErrorfAt(file, line, "unclosed left parenthesis")
	}
	return stack[0].buf.String(), nil
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// splitFuncCall turns "$(name args...)" into (name, args).
func splitFuncCall(text string) (string, string) {
	text = strings.TrimPrefix(text, "$(")
	text = strings.TrimSuffix(text, ")")
	sp := strings.IndexAny(text, " \t")
	if sp == -1 {
		return text, ""
	}
	return text[:sp], strings.TrimSpace(text[sp+1:])
}

// splitActionCall turns "$action(args...)" into (action, args).
func splitActionCall(text string) (string, string) {
	text = strings.TrimPrefix(text, "$")
	text = strings.TrimSuffix(text, ")")
	idx := strings.IndexByte(text, '(')
	if idx == -1 {
		return text, ""
	}
	return text[:idx], text[idx+1:]
}

// Split tokenizes a dependents-style expression by whitespace, while
// keeping a balanced "(...)" group attached to the token that opens it
// (so "link(a.c b.c)" stays one token). Mirrors qi-make.py's
// Builder.split.
func Split(input string) []string {
	var results []string
	start := 0
	for {
		pos := strings.IndexByte(input[start:], '(')
		if pos == -1 {
			results = append(results, strings.Fields(input[start:])...)
			return results
		}
		pos += start
		end := pos + 1
		level := 1
		for end < len(input) && level > 0 {
			switch input[end] {
			case '(':
				level++
			case ')':
				level--
			}
			end++
		}
		results = append(results, strings.Fields(input[start:pos+1])...)
		if len(results) == 0 {
			// A "(" with nothing preceding it on this segment; treat the
			// paren group itself as the lead token.
			results = append(results, "")
		}
		if level == 0 {
			results[len(results)-1] += input[pos+1 : end]
			start = end
		} else {
			results[len(results)-1] += input[pos+1 : end]
			return results
		}
	}
}
