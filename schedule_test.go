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

import "testing"

func layerNames(layers [][]*ActionNode) [][]string {
	out := make([][]string, len(layers))
	for i, layer := range layers {
		for _, a := range layer {
			out[i] = append(out[i], a.Name())
		}
	}
	return out
}

func TestScheduleActionWithNoTargetAlwaysRuns(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c", "//qi: build: \n")

	b := newTestBuilder(t, dir, map[string][]string{"main.c": nil}, nil)
	layers, err := b.Schedule([]string{"build"}, []string{"main.c"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	want := [][]string{{"build(main.c)"}}
	if got := layerNames(layers); len(got) != 1 || len(got[0]) != 1 || got[0][0] != want[0][0] {
		t.Errorf("layers = %v, want %v", got, want)
	}
}

func TestScheduleOrdersDependentActionsIntoLaterLayers(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c", "/* qi: begin\na: \nb: a\nqi: end */\n")

	b := newTestBuilder(t, dir, map[string][]string{"main.c": nil}, nil)
	layers, err := b.Schedule([]string{"b"}, []string{"main.c"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(layers) != 2 {
		t.Fatalf("got %d layers, want 2: %v", len(layers), layerNames(layers))
	}
	if len(layers[0]) != 1 || layers[0][0].Name() != "a(main.c)" {
		t.Errorf("layer 0 = %v, want [a(main.c)]", layerNames(layers)[0])
	}
	if len(layers[1]) != 1 || layers[1][0].Name() != "b(main.c)" {
		t.Errorf("layer 1 = %v, want [b(main.c)]", layerNames(layers)[1])
	}
}

func TestScheduleCycleErrors(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c", "/* qi: begin\na: b\nb: a\nqi: end */\n")

	b := newTestBuilder(t, dir, map[string][]string{"main.c": nil}, nil)
	if _, err := b.Schedule([]string{"a"}, []string{"main.c"}); err == nil {
		t.Fatal("expected a circular dependency error")
	}
}

func TestScheduleIsIdempotentAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c", "//qi: build: \n")

	b := newTestBuilder(t, dir, map[string][]string{"main.c": nil}, nil)
	first, err := b.Schedule([]string{"build"}, []string{"main.c"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	second, err := b.Schedule([]string{"build"}, []string{"main.c"})
	if err != nil {
		t.Fatalf("second Schedule: %v", err)
	}
	if len(first) != 1 || len(first[0]) != 1 {
		t.Fatalf("first schedule = %v, want one action in one layer", layerNames(first))
	}
	if len(second) != 0 {
		t.Errorf("second schedule of an already-scheduled action = %v, want empty (updateOrder already assigned)", layerNames(second))
	}
}

func TestScheduleIfDefinedSkipsSourcesLackingAction(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "has.c", "//qi: build: \n")
	writeSource(t, dir, "hasnot.c", "//qi: other: \n")

	b := newTestBuilder(t, dir, map[string][]string{"has.c": nil, "hasnot.c": nil}, nil)
	layers, defined, err := b.ScheduleIfDefined("build", []string{"has.c", "hasnot.c"})
	if err != nil {
		t.Fatalf("ScheduleIfDefined: %v", err)
	}
	if !defined {
		t.Fatal("expected defined=true, build is declared by has.c")
	}
	if len(layers) != 1 || len(layers[0]) != 1 || layers[0][0].Name() != "build(has.c)" {
		t.Errorf("layers = %v, want [[build(has.c)]]", layerNames(layers))
	}
}

func TestScheduleIfDefinedReportsUndefinedEverywhere(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "hasnot.c", "//qi: other: \n")

	b := newTestBuilder(t, dir, map[string][]string{"hasnot.c": nil}, nil)
	layers, defined, err := b.ScheduleIfDefined("build", []string{"hasnot.c"})
	if err != nil {
		t.Fatalf("ScheduleIfDefined: %v", err)
	}
	if defined {
		t.Error("expected defined=false, no source declares build")
	}
	if len(layers) != 0 {
		t.Errorf("layers = %v, want none", layerNames(layers))
	}
}

func TestContainsString(t *testing.T) {
	list := []string{"build", "clean"}
	if !containsString(list, "build") {
		t.Error("containsString should find a present element")
	}
	if containsString(list, "missing") {
		t.Error("containsString should not find an absent element")
	}
}
