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

	"github.com/google/go-cmp/cmp"
)

func TestInitProjectFileThenLoad(t *testing.T) {
	dir := t.TempDir()
	if err := InitProjectFile(dir); err != nil {
		t.Fatalf("InitProjectFile: %v", err)
	}
	if err := InitProjectFile(dir); err == nil {
		t.Fatal("expected a second InitProjectFile to fail, project file already exists")
	}

	proj, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if len(proj.SourceHeaders) != 0 {
		t.Errorf("fresh project has %d sources, want 0", len(proj.SourceHeaders))
	}
}

func TestProjectAddDeleteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := InitProjectFile(dir); err != nil {
		t.Fatalf("InitProjectFile: %v", err)
	}

	proj, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}

	proj.AddSource("foo.c", "foo.h")
	proj.AddSource("foo.c", "common.h")
	proj.AddSource("bar.c", "")
	if err := proj.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject after Save: %v", err)
	}
	want := map[string][]string{
		"foo.c": {"foo.h", "common.h"},
		"bar.c": {},
	}
	if diff := cmp.Diff(want, reloaded.SourceHeaders); diff != "" {
		t.Errorf("SourceHeaders mismatch after round-trip (-want +got):\n%s", diff)
	}

	if err := reloaded.DeleteSource("foo.c", "foo.h"); err != nil {
		t.Fatalf("DeleteSource header: %v", err)
	}
	if got := reloaded.SourceHeaders["foo.c"]; len(got) != 1 || got[0] != "common.h" {
		t.Errorf("foo.c headers after detach = %v, want [common.h]", got)
	}

	if err := reloaded.DeleteSource("bar.c", ""); err != nil {
		t.Fatalf("DeleteSource whole source: %v", err)
	}
	if _, ok := reloaded.SourceHeaders["bar.c"]; ok {
		t.Error("bar.c still present after delete")
	}

	if err := reloaded.DeleteSource("nonexistent.c", ""); err == nil {
		t.Error("expected an error deleting an unregistered source")
	}
}

func TestProjectPreservesOtherSections(t *testing.T) {
	dir := t.TempDir()
	body := "[Source Files]\n" +
		"foo.c foo.h\n" +
		"[Initialization Code]\n" +
		"CC = gcc\n" +
		"[Finalization Code]\n" +
		"[User-Defined Functions]\n" +
		"double_it = echo $1$1\n"
	if err := os.WriteFile(filepath.Join(dir, projectFileName), []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	proj, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if len(proj.InitCode) != 1 || proj.InitCode[0].Text != "CC = gcc" {
		t.Errorf("InitCode = %+v, want one line 'CC = gcc'", proj.InitCode)
	}
	if len(proj.UserFuncLines) != 1 || proj.UserFuncLines[0] != "double_it = echo $1$1" {
		t.Errorf("UserFuncLines = %v, want one declaration", proj.UserFuncLines)
	}

	proj.AddSource("bar.c", "")
	if err := proj.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject after Save: %v", err)
	}
	if len(reloaded.UserFuncLines) != 1 || reloaded.UserFuncLines[0] != "double_it = echo $1$1" {
		t.Errorf("UserFuncLines not preserved across Save: %v", reloaded.UserFuncLines)
	}
}
