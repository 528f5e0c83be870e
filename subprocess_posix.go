// Copyright 2012 Google Inc. All Rights Reserved.
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

//go:build !windows
// +build !windows

package qi

import "github.com/google/shlex"

// splitCommand tokenizes an external command the way qi-make.py's
// shell() does on POSIX: with shlex-style quoting rules rather than
// plain whitespace splitting (that's the Windows path, see
// subprocess_windows.go). Grounded on github.com/google/shlex, the Go
// port of Python's shlex module used for exactly this purpose elsewhere
// in the retrieved corpus (moby/moby vendors it for the same reason).
func splitCommand(command string) ([]string, error) {
	return shlex.Split(command)
}
