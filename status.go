// Copyright 2016 Google Inc. All Rights Reserved.
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
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ConsoleReporter is the default Reporter: it writes Info lines
// (gated on --verbose by Builder.infof) and Warning lines to a writer,
// each timestamped the way qi-make.py's getTime()-prefixed verbose output
// is, but through Go's time package rather than time.strftime.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter returns a Reporter writing to w. A nil w defaults to
// os.Stderr, keeping diagnostic chatter off the command output stream
// that executed build commands write to on stdout.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleReporter{out: w}
}

func (r *ConsoleReporter) Info(format string, a ...interface{}) {
	r.print(format, a...)
}

func (r *ConsoleReporter) Warning(format string, a ...interface{}) {
	r.print("warning: "+format, a...)
}

func (r *ConsoleReporter) print(format string, a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] %s\n", time.Now().Format("01-02-2006 15:04:05"), fmt.Sprintf(format, a...))
}
