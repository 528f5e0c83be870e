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
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// join mirrors qi-make.py's join(rootDir, path): a host-separator path
// join, nothing more.
func join(root, rel string) string {
	if rel == "" {
		return root
	}
	return filepath.Join(root, rel)
}

// standardName canonicalizes an absolute path to a project-relative name
// using forward slashes, resolving symlinks first (qi-make.py's
// getStandardName via os.path.realpath). No other component may touch
// raw OS paths; everything downstream sees the standard name.
func standardName(root, path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		// The path may not exist yet (e.g. a declared-but-unbuilt target);
		// fall back to lexical cleanup.
		resolved = filepath.Clean(path)
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil {
		return normalizeSlashes(resolved), nil
	}
	return normalizeSlashes(rel), nil
}

func normalizeSlashes(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// StandardName exports standardName for cmd/qi, which needs to canonicalize
// CLI-supplied paths the same way the core package does internally.
func StandardName(root, path string) (string, error) {
	return standardName(root, path)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mtime(path string) (int64, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return fi.ModTime().UnixNano(), true
}

func makedirs(path string) error {
	return os.MkdirAll(path, 0o777)
}

// statCache memoizes mtime lookups keyed by an xxhash of the absolute
// path, the way standardbeagle/lci caches repeated filesystem probes
// during a tree walk. It serves addFileNode's timestamp probe and the
// parser's action-target timestamps, so each file is stat-ed once per
// run; include-path probing calls exists directly and is not cached. It
// never substitutes for a real mtime comparison
// and is never used for staleness hashing (spec.md §1 Non-goals rule out
// content hashing entirely).
type statCache struct {
	mu    sync.Mutex
	byKey map[uint64]cachedStat
}

type cachedStat struct {
	mtime  int64
	exists bool
}

func newStatCache() *statCache {
	return &statCache{byKey: make(map[uint64]cachedStat)}
}

func (c *statCache) stat(path string) (int64, bool) {
	key := xxhash.Sum64String(path)
	c.mu.Lock()
	if v, ok := c.byKey[key]; ok {
		c.mu.Unlock()
		return v.mtime, v.exists
	}
	c.mu.Unlock()

	m, ok := mtime(path)
	c.mu.Lock()
	c.byKey[key] = cachedStat{mtime: m, exists: ok}
	c.mu.Unlock()
	return m, ok
}

func (c *statCache) invalidate(path string) {
	key := xxhash.Sum64String(path)
	c.mu.Lock()
	delete(c.byKey, key)
	c.mu.Unlock()
}
