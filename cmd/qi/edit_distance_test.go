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

package main

import "testing"

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"scna", "scan", 2},
		{"parse", "parse", 0},
		{"lst", "list", 1},
		{"", "add", 3},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b, true, 10); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEditDistanceCapsAtMax(t *testing.T) {
	got := editDistance("aaaaa", "bbbbb", true, 2)
	if got != 3 {
		t.Errorf("editDistance with cap 2 = %d, want 3 (maxEditDistance+1)", got)
	}
}
