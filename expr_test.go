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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func noCall(name, args string, symbols Symbols, file string, line int) (string, error) {
	return "CALL(" + name + "," + args + ")", nil
}

func noExpand(action, args string, symbols Symbols, file string, line int) (string, error) {
	return "EXPAND(" + action + "," + args + ")", nil
}

func TestEvalVariableSubstitution(t *testing.T) {
	symbols := Symbols{"CC": "gcc", "FLAGS": "-O2 -Wall"}
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"var1", "$CC -c foo.c", "gcc -c foo.c"},
		{"var2", "$(CC) -c foo.c", "gcc -c foo.c"},
		{"undefined var1 left as-is", "$UNDEFINED", "$UNDEFINED"},
		{"undefined var2 left as-is", "$(UNDEFINED)", "$(UNDEFINED)"},
		{"escaped dollar", "$$HOME", "$HOME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(tt.input, symbols, "f", 1, false, noCall, noExpand)
			if err != nil {
				t.Fatalf("Eval(%q) error: %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Eval(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

// Variable substitution happens unconditionally; only function calls and
// action expansions respect the defer flag (spec.md §4.D).
func TestEvalDeferLeavesCallsUntouched(t *testing.T) {
	symbols := Symbols{"SRC": "foo.c"}
	input := "$(shell echo $SRC) and $link(foo.c)"

	got, err := Eval(input, symbols, "f", 1, true, noCall, noExpand)
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	want := "$(shell echo foo.c) and $link(foo.c)"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("deferred Eval mismatch (-want +got):\n%s", diff)
	}
}

func TestEvalEagerExpandsCallsAndActions(t *testing.T) {
	symbols := Symbols{"SRC": "foo.c"}
	input := "$(shell echo $SRC) and $link(foo.c)"

	got, err := Eval(input, symbols, "f", 1, false, noCall, noExpand)
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	want := "CALL(shell,echo foo.c) and EXPAND(link,foo.c)"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("eager Eval mismatch (-want +got):\n%s", diff)
	}
}

func TestEvalNestedParens(t *testing.T) {
	symbols := Symbols{}
	got, err := Eval("$(shell echo (a (b) c))", symbols, "f", 1, false, noCall, noExpand)
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	want := "CALL(shell,echo (a (b) c))"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nested parens mismatch (-want +got):\n%s", diff)
	}
}

func TestEvalUnbalancedParens(t *testing.T) {
	if _, err := Eval("$(shell foo", Symbols{}, "f", 3, false, noCall, noExpand); err == nil {
		t.Fatal("expected an error for an unclosed left parenthesis")
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"plain", "foo.o bar.o", []string{"foo.o", "bar.o"}},
		{"action call kept whole", "link(a.c b.c) clean", []string{"link(a.c b.c)", "clean"}},
		{"nested parens", "foo bar(a (b c) d)", []string{"foo", "bar(a (b c) d)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Split(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}
