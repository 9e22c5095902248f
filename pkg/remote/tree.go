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

package remote

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrNotFound is returned when the requested path does not exist in the source
var ErrNotFound = errors.Base("path not found")

// 📂 CopyTree copies sub (a file or directory below root) to dest, replacing
// whatever dest held before. Version control metadata is skipped.
func CopyTree(root, sub, dest string) error {
	src := filepath.Join(root, filepath.FromSlash(sub))
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("%w: %s", ErrNotFound, sub)
		}
		return errors.Errorf("checking source: %w", err)
	}

	if err := os.RemoveAll(dest); err != nil {
		return errors.Errorf("clearing destination: %w", err)
	}

	if !info.IsDir() {
		return copyFile(src, dest, info.Mode())
	}

	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return errors.Errorf("getting relative path: %w", err)
		}
		target := filepath.Join(dest, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type().IsRegular():
			fi, err := d.Info()
			if err != nil {
				return errors.Errorf("getting file info: %w", err)
			}
			return copyFile(p, target, fi.Mode())
		default:
			// symlinks and devices are not part of a template
			return nil
		}
	})
}

func copyFile(src, dest string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer in.Close()

	return WriteFile(dest, in, mode)
}

// WriteFile streams r into dest, creating parent directories
func WriteFile(dest string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0200)
	if err != nil {
		return errors.Errorf("creating file: %w", err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return errors.Errorf("copying content: %w", err)
	}
	return out.Close()
}

// 📦 ExtractTarball unpacks the entries of a gzipped repository archive that
// live below sub into dest. The archive's single top level directory
// (e.g. "name-sha/") is stripped first. When sub names a file, dest is that file.
func ExtractTarball(r io.Reader, sub, dest string) error {
	br := bufio.NewReader(r)

	magic, err := br.Peek(2)
	if err != nil || magic[0] != 0x1f || magic[1] != 0x8b {
		head, _ := br.Peek(min(br.Buffered(), 256))
		return errors.Errorf("invalid archive format - expected gzip file, got: %q", string(head))
	}

	gz, err := gzip.NewReader(br)
	if err != nil {
		return errors.Errorf("creating gzip reader: %w", err)
	}
	defer gz.Close()

	sub = path.Clean(strings.Trim(sub, "/"))
	if sub == "" {
		sub = "."
	}

	if err := os.RemoveAll(dest); err != nil {
		return errors.Errorf("clearing destination: %w", err)
	}

	tr := tar.NewReader(gz)
	matched := 0
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Errorf("reading tar header: %w", err)
		}

		rel, ok := stripArchiveRoot(header.Name)
		if !ok {
			continue
		}

		var target string
		switch {
		case sub == ".":
			target = filepath.Join(dest, filepath.FromSlash(rel))
		case rel == sub:
			target = dest
		case strings.HasPrefix(rel, sub+"/"):
			target = filepath.Join(dest, filepath.FromSlash(strings.TrimPrefix(rel, sub+"/")))
		default:
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Errorf("creating directory %s: %w", rel, err)
			}
		case tar.TypeReg:
			if err := WriteFile(target, tr, header.FileInfo().Mode()); err != nil {
				return errors.Errorf("extracting %s: %w", rel, err)
			}
		default:
			continue
		}
		matched++
	}

	if matched == 0 {
		return errors.Errorf("%w: %s", ErrNotFound, sub)
	}
	return nil
}

// stripArchiveRoot removes the leading directory of an archive entry and
// rejects entries that would escape the extraction root.
func stripArchiveRoot(name string) (string, bool) {
	name = strings.TrimPrefix(name, "./")
	idx := strings.Index(name, "/")
	if idx < 0 {
		// pax_global_header and the like
		return "", false
	}
	rel := strings.Trim(name[idx+1:], "/")
	if rel == "" {
		return "", false
	}
	clean := path.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", false
	}
	return clean, true
}
