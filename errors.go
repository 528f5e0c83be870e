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

import "fmt"

// BuildError is the single error type that flows out of scanning,
// parsing, evaluation, graph resolution and execution. It optionally
// carries the source location that raised it so the CLI can print
// "Error at file:line: message" the way qi-make.py's QiError did.
type BuildError struct {
	Message string
	File    string
	Line    int
}

func (e *BuildError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return e.Message
}

// Errorf builds a location-less BuildError.
func Errorf(format string, a ...interface{}) *BuildError {
	return &BuildError{Message: fmt.Sprintf(format, a...)}
}

// ErrorfAt builds a BuildError located at file:line.
func ErrorfAt(file string, line int, format string, a ...interface{}) *BuildError {
	return &BuildError{Message: fmt.Sprintf(format, a...), File: file, Line: line}
}
