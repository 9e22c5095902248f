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

package status

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 Outcome is the result of applying one policy to one destination path
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	Created                // path did not exist and was written
	Overwritten            // path existed and was replaced
	Preserved              // path existed and was left untouched
	SkippedAbsent          // path is missing from the source tree
)

// String returns a string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Overwritten:
		return "overwritten"
	case Preserved:
		return "preserved"
	case SkippedAbsent:
		return "skipped"
	default:
		return "unknown"
	}
}

// 📄 Entry is a destination entry produced by the sync engine
type Entry struct {
	Path    string  // slash separated, relative to the manager root
	Outcome Outcome // what happened to the path
	Policy  string  // name of the policy that produced the outcome
}

// 💾 FileManager handles all file system operations below a root directory
type FileManager interface {
	Root() string
	WriteFile(ctx context.Context, path string, content []byte) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	FileExists(ctx context.Context, path string) (bool, error)
	CreateDir(ctx context.Context, path string) error
	RemoveDir(ctx context.Context, path string) error
	CopyFile(ctx context.Context, src, path string) error
}

var _ FileManager = (*Manager)(nil)

// 🔧 Manager implements FileManager on the local disk
type Manager struct {
	baseDir string
}

// 🏭 NewManager creates a new manager rooted at baseDir
func NewManager(baseDir string) *Manager {
	return &Manager{
		baseDir: filepath.Clean(baseDir),
	}
}

// Root returns the base directory of the manager
func (m *Manager) Root() string {
	return m.baseDir
}

// 🔒 Abs returns the absolute path for a given relative path
func (m *Manager) Abs(path string) string {
	return filepath.Join(m.baseDir, filepath.FromSlash(path))
}

// WriteFile writes content to path, creating parent directories and replacing
// any existing file atomically
func (m *Manager) WriteFile(ctx context.Context, path string, content []byte) error {
	absPath := m.Abs(path)

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	tempPath := absPath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	zerolog.Ctx(ctx).Trace().Str("path", path).Int("size", len(content)).Msg("wrote file")
	return nil
}

func (m *Manager) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(m.Abs(path))
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

func (m *Manager) FileExists(ctx context.Context, path string) (bool, error) {
	_, err := os.Lstat(m.Abs(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

func (m *Manager) CreateDir(ctx context.Context, path string) error {
	if err := os.MkdirAll(m.Abs(path), 0755); err != nil {
		return errors.Errorf("creating directory: %w", err)
	}
	return nil
}

func (m *Manager) RemoveDir(ctx context.Context, path string) error {
	if err := os.RemoveAll(m.Abs(path)); err != nil {
		return errors.Errorf("removing directory: %w", err)
	}
	return nil
}

// CopyFile copies the file at src (an absolute path outside the manager) to path
func (m *Manager) CopyFile(ctx context.Context, src, path string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer srcFile.Close()

	content, err := io.ReadAll(srcFile)
	if err != nil {
		return errors.Errorf("reading source file: %w", err)
	}

	return m.WriteFile(ctx, path, content)
}
