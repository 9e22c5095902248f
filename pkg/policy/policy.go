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

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// 🏷️ Kind is the merge policy applied to one destination sub-path
type Kind int

const (
	KindUnknown          Kind = iota
	ForceOverwrite            // copy every file, replacing existing ones
	SelectiveSubset           // copy only the named files, replacing existing ones
	ProtectedCreate           // copy the named files only when missing locally
	ReplaceDirectory          // delete the destination directory then copy the whole tree
	EnsureEmptyDirectory      // create the directory if missing, never populate it
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case ForceOverwrite:
		return "force-overwrite"
	case SelectiveSubset:
		return "selective-subset"
	case ProtectedCreate:
		return "protected-create"
	case ReplaceDirectory:
		return "replace-directory"
	case EnsureEmptyDirectory:
		return "ensure-empty-directory"
	default:
		return "unknown"
	}
}

// ClaimsTree reports whether the policy owns the whole subtree under its path,
// as opposed to a fixed set of files directly inside it.
func (k Kind) ClaimsTree() bool {
	switch k {
	case ForceOverwrite, ReplaceDirectory, EnsureEmptyDirectory:
		return true
	default:
		return false
	}
}

// 📜 Policy is a tagged variant over a destination sub-path
type Policy struct {
	Kind    Kind
	Files   []string // basenames, only for SelectiveSubset and ProtectedCreate
	Exclude []string // doublestar globs relative to the sub-path, only for ForceOverwrite
}

// Force returns a ForceOverwrite policy skipping paths matched by exclude
func Force(exclude ...string) Policy {
	return Policy{Kind: ForceOverwrite, Exclude: exclude}
}

// Selective returns a SelectiveSubset policy for the named files
func Selective(files ...string) Policy {
	return Policy{Kind: SelectiveSubset, Files: files}
}

// Protected returns a ProtectedCreate policy for the named files
func Protected(files ...string) Policy {
	return Policy{Kind: ProtectedCreate, Files: files}
}

// Replace returns a ReplaceDirectory policy
func Replace() Policy {
	return Policy{Kind: ReplaceDirectory}
}

// EnsureDir returns an EnsureEmptyDirectory policy
func EnsureDir() Policy {
	return Policy{Kind: EnsureEmptyDirectory}
}

// Excluded reports whether rel (slash separated, relative to the sub-path) is skipped by the policy
func (p Policy) Excluded(rel string) bool {
	for _, pattern := range p.Exclude {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// 📍 Entry binds a policy to a sub-path relative to the tree root
type Entry struct {
	Path   string
	Policy Policy
}

// Claims returns the destination paths the entry owns. Tree claiming kinds own
// their sub-path, file kinds own each named file inside it.
func (e Entry) Claims() []Claim {
	if e.Policy.Kind.ClaimsTree() {
		return []Claim{{Path: e.Path, Tree: true}}
	}
	claims := make([]Claim, 0, len(e.Policy.Files))
	for _, f := range e.Policy.Files {
		claims = append(claims, Claim{Path: Join(e.Path, f)})
	}
	return claims
}

// 📚 Table is an ordered list of entries, processed strictly in declaration order
type Table []Entry

// Validate checks that every entry is well formed and that the table never
// assigns two policies to the same path or lists a child before its parent.
func (t Table) Validate() error {
	seen := make(map[string]int, len(t))
	for i, e := range t {
		if err := e.validate(); err != nil {
			return errors.Errorf("entry %d (%s): %w", i, e.Path, err)
		}
		if j, ok := seen[e.Path]; ok {
			return errors.Errorf("entry %d (%s): path already assigned by entry %d", i, e.Path, j)
		}
		seen[e.Path] = i
	}

	// a nested tree entry must come after the entry that contains it
	for i, child := range t {
		for j := i + 1; j < len(t); j++ {
			parent := t[j]
			if parent.Policy.Kind.ClaimsTree() && Contains(parent.Path, child.Path) && parent.Path != child.Path {
				return errors.Errorf("entry %d (%s) must be declared after its parent entry %d (%s)", i, child.Path, j, parent.Path)
			}
		}
	}

	return nil
}

func (e Entry) validate() error {
	if e.Path == "" {
		return errors.New("path is required")
	}
	if path.IsAbs(e.Path) || strings.HasPrefix(e.Path, "/") {
		return errors.New("path must be relative")
	}
	if Clean(e.Path) != e.Path {
		return errors.Errorf("path must be clean (want %q)", Clean(e.Path))
	}
	if e.Path == ".." || strings.HasPrefix(e.Path, "../") {
		return errors.New("path escapes the tree root")
	}

	switch e.Policy.Kind {
	case SelectiveSubset, ProtectedCreate:
		if len(e.Policy.Files) == 0 {
			return errors.Errorf("%s requires at least one file", e.Policy.Kind)
		}
		for _, f := range e.Policy.Files {
			if f == "" || strings.Contains(f, "/") || f == "." || f == ".." {
				return errors.Errorf("invalid file name %q", f)
			}
		}
	case ForceOverwrite:
		for _, pattern := range e.Policy.Exclude {
			if !doublestar.ValidatePattern(pattern) {
				return errors.Errorf("invalid exclude pattern %q", pattern)
			}
		}
	case ReplaceDirectory, EnsureEmptyDirectory:
		if e.Path == "." {
			return errors.Errorf("%s cannot target the tree root", e.Policy.Kind)
		}
	default:
		return errors.Errorf("unknown policy kind %d", e.Policy.Kind)
	}

	return nil
}
