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
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
)

const (
	projectFileName      = "qi.prj"
	sectionSourceFiles   = "[Source Files]"
	sectionInitCode      = "[Initialization Code]"
	sectionFiniCode      = "[Finalization Code]"
	sectionUserFuncs     = "[User-Defined Functions]"
)

// Project is the parsed content of a project file (qi.prj): the
// source->headers registry plus the init/final directive prologue and
// epilogue, and the raw text of every section that follows "[Source
// Files]" (kept verbatim so Save can round-trip sections this package
// doesn't interpret). Grounded on qi-make.py's main()'s project-file
// parsing block.
type Project struct {
	SourceHeaders map[string][]string
	InitCode      []DirectiveLine
	FiniCode      []DirectiveLine
	UserFuncLines []string

	otherSections string
}

// FindProjectRoot walks up from start looking for a project file,
// matching qi-make.py's rootDir-climbing loop in main().
func FindProjectRoot(start string) (string, error) {
	dir := start
	for {
		if exists(join(dir, projectFileName)) {
			return dir, nil
		}
		parent := parentDir(dir)
		if parent == dir {
			return "", Errorf("the default project file %q is not found", projectFileName)
		}
		dir = parent
	}
}

func parentDir(dir string) string {
	i := strings.LastIndexByte(strings.TrimRight(dir, "/"), '/')
	if i <= 0 {
		return "/"
	}
	return dir[:i]
}

// InitProjectFile creates an empty project file in dir, erroring if one
// already exists.
func InitProjectFile(dir string) error {
	name := join(dir, projectFileName)
	if exists(name) {
		return Errorf("the default project file %q already exists", projectFileName)
	}
	body := sectionSourceFiles + "\n" + sectionInitCode + "\n" + sectionFiniCode + "\n" + sectionUserFuncs + "\n"
	return renameio.WriteFile(name, []byte(body), 0o644)
}

// LoadProject parses root's project file.
func LoadProject(root string) (*Project, error) {
	f, err := os.Open(join(root, projectFileName))
	if err != nil {
		return nil, Errorf("unable to open or read the default project file %q", projectFileName)
	}
	defer f.Close()

	p := &Project{SourceHeaders: map[string][]string{}}
	sections := map[string][]string{}
	var rest []string
	triggered := false
	currentSection := ""
	haveSourceFiles := false

	sc := bufio.NewScanner(f)
	lineNumber := 0
	for sc.Scan() {
		lineNumber++
		line := strings.TrimRight(sc.Text(), "\r")
		if isSectionHeader(line) {
			if currentSection == sectionSourceFiles && !triggered {
				triggered = true
			}
			currentSection = line
			if line == sectionSourceFiles {
				haveSourceFiles = true
			}
			if triggered {
				rest = append(rest, line)
			}
			continue
		}
		if triggered {
			rest = append(rest, line)
		}
		if currentSection != "" {
			sections[currentSection] = append(sections[currentSection], line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !haveSourceFiles {
		return nil, ErrorfAt(projectFileName, 1, "can't locate the section containing source files")
	}

	for _, line := range sections[sectionSourceFiles] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		p.SourceHeaders[fields[0]] = append([]string{}, fields[1:]...)
	}
	for _, line := range sections[sectionInitCode] {
		p.InitCode = append(p.InitCode, DirectiveLine{File: projectFileName, Text: line})
	}
	for _, line := range sections[sectionFiniCode] {
		p.FiniCode = append(p.FiniCode, DirectiveLine{File: projectFileName, Text: line})
	}
	p.UserFuncLines = sections[sectionUserFuncs]

	if len(rest) > 0 {
		p.otherSections = strings.Join(rest, "\n") + "\n"
	}
	return p, nil
}

func isSectionHeader(line string) bool {
	return len(line) > 2 && line[0] == '[' && line[len(line)-1] == ']'
}

// Save rewrites root's project file: "[Source Files]" first, sorted, then
// every other section verbatim as originally read (or as supplied via
// otherSections), matching qi-make.py's add/delete rewrite.
func (p *Project) Save(root string) error {
	sources := make([]string, 0, len(p.SourceHeaders))
	for s := range p.SourceHeaders {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	var buf strings.Builder
	buf.WriteString(sectionSourceFiles)
	buf.WriteByte('\n')
	for _, s := range sources {
		buf.WriteString(s)
		for _, h := range p.SourceHeaders[s] {
			buf.WriteByte(' ')
			buf.WriteString(h)
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(p.otherSections)
	return renameio.WriteFile(join(root, projectFileName), []byte(buf.String()), 0o644)
}

// AddSource registers source (and, optionally, a declared header),
// matching qi-make.py's "add" verb.
func (p *Project) AddSource(source, header string) {
	if header == "" {
		if _, ok := p.SourceHeaders[source]; !ok {
			p.SourceHeaders[source] = []string{}
		}
		return
	}
	for _, h := range p.SourceHeaders[source] {
		if h == header {
			return
		}
	}
	p.SourceHeaders[source] = append(p.SourceHeaders[source], header)
}

// DeleteSource unregisters source, or detaches header from it if given,
// matching qi-make.py's "delete" verb.
func (p *Project) DeleteSource(source, header string) error {
	headers, ok := p.SourceHeaders[source]
	if !ok {
		return Errorf("no source file named %q in the default project file %q", source, projectFileName)
	}
	if header == "" {
		delete(p.SourceHeaders, source)
		return nil
	}
	for i, h := range headers {
		if h == header {
			p.SourceHeaders[source] = append(headers[:i], headers[i+1:]...)
			return nil
		}
	}
	return nil
}
