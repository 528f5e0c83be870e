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
	"os"
	"path/filepath"
	"testing"
)

type stubReporter struct {
	warnings []string
}

func (s *stubReporter) Info(format string, a ...interface{})    {}
func (s *stubReporter) Warning(format string, a ...interface{}) { s.warnings = append(s.warnings, format) }

func writeSource(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", rel, err)
	}
}

func newTestBuilder(t *testing.T, dir string, sourceHeaders map[string][]string, reporter Reporter) *Builder {
	t.Helper()
	b, err := NewBuilder(dir, sourceHeaders, nil, nil, nil, DefaultOptions(), reporter)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func TestScanOneLineDirective(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c", "//qi: ACTION = build\nint main() {}\n")

	b := newTestBuilder(t, dir, map[string][]string{"main.c": nil}, nil)
	node, err := b.Scan("main.c")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(node.code) != 1 || node.code[0].Dir == nil {
		t.Fatalf("code = %+v, want one directive line", node.code)
	}
	if node.code[0].Dir.Text != "ACTION = build" {
		t.Errorf("directive text = %q, want %q", node.code[0].Dir.Text, "ACTION = build")
	}
	if node.code[0].Dir.Line != 1 {
		t.Errorf("directive line = %d, want 1", node.code[0].Dir.Line)
	}
}

func TestScanResolvesIncludeAndRecurses(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c", "#include \"foo.h\"\n")
	writeSource(t, dir, "foo.h", "//qi: X = 1\n")

	b := newTestBuilder(t, dir, map[string][]string{"main.c": nil}, nil)
	node, err := b.Scan("main.c")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(node.code) != 1 || node.code[0].Include == nil {
		t.Fatalf("main.c code = %+v, want one include splice", node.code)
	}
	header := node.code[0].Include
	if header.name != "foo.h" {
		t.Errorf("spliced header name = %q, want foo.h", header.name)
	}
	if len(header.code) != 1 || header.code[0].Dir == nil || header.code[0].Dir.Text != "X = 1" {
		t.Errorf("header code = %+v, want one directive 'X = 1'", header.code)
	}

	found := false
	for _, c := range node.Children() {
		if c == Node(header) {
			found = true
		}
	}
	if !found {
		t.Error("expected an edge from main.c to foo.h")
	}
}

func TestScanIncludePathDirective(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c", "// qi: includepath sub\n#include \"foo.h\"\n")
	writeSource(t, dir, "sub/foo.h", "//qi: Y = 2\n")

	b := newTestBuilder(t, dir, map[string][]string{"main.c": nil}, nil)
	node, err := b.Scan("main.c")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(node.code) != 1 || node.code[0].Include == nil {
		t.Fatalf("main.c code = %+v, want one include splice", node.code)
	}
	if got := node.code[0].Include.name; got != "sub/foo.h" {
		t.Errorf("resolved header = %q, want sub/foo.h", got)
	}
}

func TestScanBlockContinuation(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c", "/* qi: begin\nACTION = build \\\ncontinued\nqi: end */\n")

	b := newTestBuilder(t, dir, map[string][]string{"main.c": nil}, nil)
	node, err := b.Scan("main.c")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(node.code) != 1 || node.code[0].Dir == nil {
		t.Fatalf("code = %+v, want one joined directive", node.code)
	}
	want := "ACTION = build continued"
	if node.code[0].Dir.Text != want {
		t.Errorf("joined directive text = %q, want %q", node.code[0].Dir.Text, want)
	}
}

func TestScanUnresolvedIncludeWarns(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c", "#include \"missing.h\"\n")

	reporter := &stubReporter{}
	b := newTestBuilder(t, dir, map[string][]string{"main.c": nil}, reporter)
	node, err := b.Scan("main.c")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(node.code) != 0 {
		t.Errorf("code = %+v, want none spliced for an unresolved include", node.code)
	}
	if len(reporter.warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", reporter.warnings)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c", "//qi: ACTION = build\n")

	b := newTestBuilder(t, dir, map[string][]string{"main.c": nil}, nil)
	first, err := b.Scan("main.c")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	second, err := b.Scan("main.c")
	if err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if first != second {
		t.Error("second Scan returned a different node for an already-scanned source")
	}
}
