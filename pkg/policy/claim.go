// Copyright 2025 walteh LLC
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

package policy

import (
	"path"
	"strings"
)

// 🔒 Claim is a destination path owned by a policy entry or scaffold
type Claim struct {
	Path string // slash separated, relative to the workspace root
	Tree bool   // whether everything below Path is owned too
}

// Overlaps reports whether two claims can touch the same destination file
func (c Claim) Overlaps(other Claim) bool {
	if c.Path == other.Path {
		return true
	}
	if c.Tree && Contains(c.Path, other.Path) {
		return true
	}
	if other.Tree && Contains(other.Path, c.Path) {
		return true
	}
	return false
}

// Rebase returns the claim with its path joined under root
func (c Claim) Rebase(root string) Claim {
	return Claim{Path: Join(root, c.Path), Tree: c.Tree}
}

// Clean normalizes a slash separated relative path
func Clean(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// Join joins slash separated path elements, treating "." and "" as the root
func Join(elem ...string) string {
	return path.Join(elem...)
}

// Contains reports whether child is parent itself or lives below it
func Contains(parent, child string) bool {
	parent, child = Clean(parent), Clean(child)
	if parent == "." {
		return true
	}
	return child == parent || strings.HasPrefix(child, parent+"/")
}
