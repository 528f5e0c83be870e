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
	"fmt"

	"github.com/qi-make/qi"
)

// maxSuggestionDistance bounds how close a misspelled action name must
// be to a candidate before it's offered as a "did you mean" guess.
const maxSuggestionDistance = 3

// suggestAction prints a "did you mean" hint when an undefined action
// name is close to one of the CLI's reserved verbs — the kind of typo
// ("pasre" for "parse") that a plain "not defined" error leaves the
// user to spot by eye.
func suggestAction(actionName string) {
	best := ""
	bestDistance := maxSuggestionDistance + 1
	for _, c := range qi.ReservedActionNames() {
		d := editDistance(actionName, c, true, bestDistance)
		if d < bestDistance {
			bestDistance = d
			best = c
		}
	}
	if best != "" {
		fmt.Printf("Did you mean %q?\n", best)
	}
}
