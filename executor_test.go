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
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func newTestBuilderWithOptions(t *testing.T, dir string, sourceHeaders map[string][]string, opts Options) *Builder {
	t.Helper()
	b, err := NewBuilder(dir, sourceHeaders, nil, nil, nil, opts, nil)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func TestBuildSingleActionSucceeds(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c", "/* qi: begin\nbuild: \n    true\nqi: end */\n")

	b := newTestBuilderWithOptions(t, dir, map[string][]string{"main.c": nil}, DefaultOptions())
	layers, err := b.Schedule([]string{"build"}, []string{"main.c"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	report, err := b.Build(context.Background(), layers)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.Failures != 0 {
		t.Errorf("Failures = %d, want 0: %v", report.Failures, report.FailedActions)
	}
}

func TestBuildFailureStopsWithoutKeepGoing(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker_b")
	writeSource(t, dir, "main.c", fmt.Sprintf(
		"/* qi: begin\na: \n    false\nb: \n    touch %s\nqi: end */\n", marker))

	opts := DefaultOptions()
	opts.Jobs = 1
	b := newTestBuilderWithOptions(t, dir, map[string][]string{"main.c": nil}, opts)
	layers, err := b.Schedule([]string{"a", "b"}, []string{"main.c"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	report, err := b.Build(context.Background(), layers)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.Failures != 1 {
		t.Fatalf("Failures = %d, want 1: %v", report.Failures, report.FailedActions)
	}
	if names := report.FailedActions["main.c"]; len(names) != 1 || names[0] != "a" {
		t.Errorf("FailedActions[main.c] = %v, want [a]", names)
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("expected b's command to have been skipped after a's failure (no --keep-going)")
	}
}

func TestBuildKeepGoingRunsRemainingActions(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker_b")
	writeSource(t, dir, "main.c", fmt.Sprintf(
		"/* qi: begin\na: \n    false\nb: \n    touch %s\nqi: end */\n", marker))

	opts := DefaultOptions()
	opts.Jobs = 1
	opts.KeepGoing = true
	b := newTestBuilderWithOptions(t, dir, map[string][]string{"main.c": nil}, opts)
	layers, err := b.Schedule([]string{"a", "b"}, []string{"main.c"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	report, err := b.Build(context.Background(), layers)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.Failures != 1 {
		t.Fatalf("Failures = %d, want 1: %v", report.Failures, report.FailedActions)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Error("expected b's command to have run under --keep-going despite a's failure")
	}
}

func TestBuildJustPrintNeverExecutes(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	writeSource(t, dir, "main.c", fmt.Sprintf("/* qi: begin\nbuild: \n    touch %s\nqi: end */\n", marker))

	opts := DefaultOptions()
	opts.JustPrint = true
	b := newTestBuilderWithOptions(t, dir, map[string][]string{"main.c": nil}, opts)
	layers, err := b.Schedule([]string{"build"}, []string{"main.c"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	report, err := b.Build(context.Background(), layers)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.Failures != 0 {
		t.Errorf("Failures = %d, want 0", report.Failures)
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("--just-print should never have run the command")
	}
}

func TestSplitActionName(t *testing.T) {
	action, source := splitActionName("build(main.c)")
	if action != "build" || source != "main.c" {
		t.Errorf("splitActionName = (%q, %q), want (build, main.c)", action, source)
	}
	action, source = splitActionName("noparens")
	if action != "noparens" || source != "" {
		t.Errorf("splitActionName(noparens) = (%q, %q), want (noparens, \"\")", action, source)
	}
}
