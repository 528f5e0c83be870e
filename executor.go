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
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// commandMask selects which Command kinds a call to execute should run,
// matching qi-make.py's COMMAND_ASSIGNMENT|COMMAND_FUNCTIONCALL|COMMAND_EXTERNAL bitmask.
type commandMask int

const (
	maskAssignment commandMask = 1 << iota
	maskFunctionCall
	maskExternal
)

// BuildReport summarizes a completed Build run, matching the tallies
// qi-make.py's update() prints under --summary.
type BuildReport struct {
	Failures      int
	FailedActions map[string][]string // source -> failed action names, in schedule order
}

type buildTask struct {
	action  *ActionNode
	symbols Symbols
}

// Build executes every layer produced by Schedule in strict order: layer
// i+1 is never enqueued before layer i has fully drained. Within a layer,
// up to Options.Jobs actions run concurrently via errgroup, matching
// spec.md §4.H/§5's worker-pool-plus-barrier model. Grounded on
// qi-make.py's Builder.update/parallelExecute, restructured around
// golang.org/x/sync/errgroup the way distr1-distri's batch scheduler
// drives its own worker pool.
func (b *Builder) Build(ctx context.Context, layers [][]*ActionNode) (*BuildReport, error) {
	jobs := b.Options.Jobs
	if jobs < 1 {
		jobs = 1
	}

	var outMu sync.Mutex
	var termMu sync.Mutex
	terminated := false

	for _, layer := range layers {
		tasks := make(chan buildTask, len(layer))
		for _, action := range layer {
			symbols := Symbols{}
			order, err := b.Graph.DFS(action, false)
			if err != nil {
				return nil, err
			}
			for _, n := range order {
				if an, ok := n.(*ActionNode); ok {
					if _, err := b.execute(ctx, an, symbols, maskAssignment, &outMu, 0); err != nil {
						return nil, err
					}
				}
			}
			tasks <- buildTask{action: action, symbols: symbols}
		}
		close(tasks)

		eg, egCtx := errgroup.WithContext(ctx)
		for w := 0; w < jobs; w++ {
			worker := w
			eg.Go(func() error {
				for t := range tasks {
					termMu.Lock()
					stop := terminated
					termMu.Unlock()
					if stop {
						continue
					}

					code, err := b.execute(egCtx, t.action, t.symbols, maskFunctionCall|maskExternal, &outMu, worker)
					var message string
					switch {
					case err != nil:
						message = err.Error()
						code = 1
					case code < 0:
						message = fmt.Sprintf("command was terminated by signal %d", -code)
					case code > 0:
						message = fmt.Sprintf("command execution returned %d", code)
					}
					if code != 0 {
						outMu.Lock()
						fmt.Printf("Error: %s.\n", message)
						outMu.Unlock()

						termMu.Lock()
						if code == -2 {
							terminated = true
						} else {
							t.action.hasFailed = true
							terminated = !b.Options.KeepGoing
						}
						termMu.Unlock()
					}
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	report := &BuildReport{FailedActions: map[string][]string{}}
	for _, layer := range layers {
		for _, action := range layer {
			if !action.hasFailed {
				continue
			}
			report.Failures++
			actionName, source := splitActionName(action.name)
			report.FailedActions[source] = append(report.FailedActions[source], actionName)
		}
	}
	return report, nil
}

// execute replays node's commands whose Kind is in mask against symbols,
// in declaration order. Assignment commands mutate symbols in place
// (precomputation pass); function calls and external commands are the
// actual work of a build (worker pass). Grounded on qi-make.py's
// Builder.execute.
func (b *Builder) execute(ctx context.Context, node *ActionNode, symbols Symbols, mask commandMask, outMu *sync.Mutex, worker int) (int, error) {
	for _, cmd := range node.Commands {
		switch cmd.Kind {
		case CmdAssignment:
			if mask&maskAssignment == 0 {
				continue
			}
			rhs, err := b.eval(cmd.RHS, symbols, cmd.File, cmd.Line, false)
			if err != nil {
				return 0, err
			}
			if cmd.Op != "+=" {
				symbols[cmd.Var] = rhs
			} else if existing, ok := symbols[cmd.Var]; ok {
				symbols[cmd.Var] = existing + " " + rhs
			} else {
				symbols[cmd.Var] = rhs
			}

		case CmdFunctionCall:
			if mask&maskFunctionCall == 0 {
				continue
			}
			args, err := b.eval(cmd.Args, symbols, cmd.File, cmd.Line, false)
			if err != nil {
				return 0, err
			}
			if _, err := b.callFunction(cmd.Func, args, symbols, cmd.File, cmd.Line); err != nil {
				return 0, err
			}

		case CmdExternal:
			if mask&maskExternal == 0 {
				continue
			}
			realCommand, err := b.eval(cmd.Text, symbols, cmd.File, cmd.Line, false)
			if err != nil {
				return 0, err
			}
			if realCommand == "" {
				continue
			}
			echo := true
			if realCommand[0] == '@' {
				echo = false
				realCommand = realCommand[1:]
			}
			var output string
			var code int
			if !b.Options.JustPrint {
				output, code, err = runShell(ctx, realCommand)
				if err != nil {
					return 0, err
				}
			}
			output = strings.TrimRight(output, "\r\n")

			if jobs := b.Options.Jobs; jobs <= 1 {
				if echo && !b.Options.Silent {
					fmt.Println(realCommand)
				}
				if output != "" && !b.Options.Silent {
					fmt.Println(output)
				}
			} else {
				outMu.Lock()
				if echo && !b.Options.Silent {
					fmt.Printf("[%d] %s\n", worker, realCommand)
				}
				if output != "" && !b.Options.Silent {
					fmt.Println(output)
				}
				outMu.Unlock()
			}
			if code != 0 {
				return code, nil
			}
		}
	}
	return 0, nil
}

// splitActionName splits an ActionNode's "action(source)" identity back
// into its two parts, matching qi-make.py's splitActionSources when
// applied to a node name rather than a dependents token.
func splitActionName(name string) (action, source string) {
	i := strings.IndexByte(name, '(')
	if i == -1 || !strings.HasSuffix(name, ")") {
		return name, ""
	}
	return name[:i], name[i+1 : len(name)-1]
}
