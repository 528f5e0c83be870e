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

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	os.Stdout = w
	f()
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	return buf.String()
}

func TestSuggestActionFindsCloseMatch(t *testing.T) {
	out := captureStdout(t, func() { suggestAction("scn") })
	if !strings.Contains(out, `"scan"`) {
		t.Errorf("output = %q, want a suggestion for scan", out)
	}
}

func TestSuggestActionSilentWhenNothingClose(t *testing.T) {
	out := captureStdout(t, func() { suggestAction("xyzxyzxyzxyz") })
	if out != "" {
		t.Errorf("output = %q, want no suggestion for a wildly different name", out)
	}
}
