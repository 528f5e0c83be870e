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
	"os/user"
	"regexp"
	"strings"

	"github.com/google/renameio/v2"
)

var reConfigLine = regexp.MustCompile(`^(\w+)\s*=\s*(.*)$`)

// configFileName mirrors qi-make.py's getConfigFileName: a per-host,
// per-user override file living at the project root, so a shared checkout
// can carry developer-local variable overrides without touching the
// project file itself.
func configFileName(root string) string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}
	name := "unknown-user"
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	return join(root, ".qi-"+host+"-"+name+".conf")
}

// ReadConfig reads the per-user config file, returning an empty (not nil)
// map when the file doesn't exist — matching qi-make.py's
// readFromConfigFile, which treats a missing file as "no overrides" but a
// malformed one as a hard error.
func ReadConfig(root string) (map[string]string, error) {
	f, err := os.Open(configFileName(root))
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vars := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := reConfigLine.FindStringSubmatch(line)
		if m == nil {
			return nil, Errorf("unable to parse the default configuration file %q", configFileName(root))
		}
		vars[m[1]] = m[2]
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return vars, nil
}

// WriteConfig rewrites the per-user config file atomically (renameio/v2),
// matching qi-make.py's writeToConfigFile.
func WriteConfig(root string, vars map[string]string) error {
	var buf strings.Builder
	for k, v := range vars {
		buf.WriteString(k)
		buf.WriteString(" = ")
		buf.WriteString(v)
		buf.WriteByte('\n')
	}
	return renameio.WriteFile(configFileName(root), []byte(buf.String()), 0o644)
}

// hostEnvSymbols seeds a fresh symbol table from the host process
// environment, the outermost layer of qi-make.py's parse-time symbol
// table (overridden by the per-user config file, then by file-scope
// assignments).
func hostEnvSymbols() Symbols {
	sym := Symbols{}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			sym[kv[:i]] = kv[i+1:]
		}
	}
	return sym
}
