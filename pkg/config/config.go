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

package config

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/pkg/remote"
	"github.com/walteh/aiwf/pkg/text"
)

const (
	// DefaultRepo holds the workflow templates installed when nothing else is configured
	DefaultRepo = "github.com/phananhtuan09/ai-agent-workflow"
	DefaultRef  = "main"

	// TokenEnv names the environment variable carrying a GitHub token
	TokenEnv = "GITHUB_TOKEN"
)

// DefaultFiles are the config files looked up in the workspace root, in order
var DefaultFiles = []string{".aiwf.hcl", ".aiwf.yaml", ".aiwf.yml", ".aiwf.json"}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📦 Source is the template repository
type Source struct {
	// github.com/org/name, a git url or a local directory
	Repo string `json:"repo" yaml:"repo" hcl:"repo,optional"`
	// branch or tag
	Ref  string `json:"ref,omitempty" yaml:"ref,omitempty" hcl:"ref,optional"`
	Path string `json:"path,omitempty" yaml:"path,omitempty" hcl:"path,optional"`
	// base url for single file downloads
	RawBase string `json:"raw_base,omitempty" yaml:"raw_base,omitempty" hcl:"raw_base,optional"`
}

// 🎯 Target is one converted command flavor
type Target struct {
	ID        string `json:"id" yaml:"id" hcl:"id,label"`
	Dir       string `json:"dir" yaml:"dir" hcl:"dir"`
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty" hcl:"extension,optional"`
}

// 🔄 Convert configures command conversion
type Convert struct {
	// also convert at the end of init
	Enabled bool     `json:"enabled,omitempty" yaml:"enabled,omitempty" hcl:"enabled,optional"`
	Source  string   `json:"source,omitempty" yaml:"source,omitempty" hcl:"source,optional"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty" hcl:"pattern,optional"`
	Targets []Target `json:"targets,omitempty" yaml:"targets,omitempty" hcl:"target,block"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Source      *Source  `json:"source,omitempty" yaml:"source,omitempty" hcl:"source,block"`
	Destination string   `json:"destination,omitempty" yaml:"destination,omitempty" hcl:"destination,optional"`
	Tools       []string `json:"tools,omitempty" yaml:"tools,omitempty" hcl:"tools,optional"`
	Convert     *Convert `json:"convert,omitempty" yaml:"convert,omitempty" hcl:"convert,block"`

	// Token is read from the environment, never from the file
	Token string `json:"-" yaml:"-"`

	location string
}

// 🏭 Default returns the built in configuration
func Default() *Config {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, file string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", file).Msg("loading configuration")

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(file)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", file)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = file
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Find loads explicit when set, otherwise the first of DefaultFiles present
// in dir. Without any file the built in configuration is returned.
func Find(ctx context.Context, dir, explicit string) (*Config, error) {
	if explicit != "" {
		return Load(ctx, explicit)
	}

	for _, name := range DefaultFiles {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return Load(ctx, candidate)
		} else if !os.IsNotExist(err) {
			return nil, errors.Errorf("checking %s: %w", candidate, err)
		}
	}

	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("no config file found, using defaults")
	cfg := Default()
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv reads settings that only come from the environment
func (cfg *Config) ApplyEnv() {
	if token := os.Getenv(TokenEnv); token != "" {
		cfg.Token = token
	}
}

// 🔍 Validate fills defaults, normalizes paths and checks the configuration
func (cfg *Config) Validate() error {
	if cfg.Source == nil {
		cfg.Source = &Source{}
	}
	if cfg.Source.Repo == "" {
		cfg.Source.Repo = DefaultRepo
	}
	if cfg.Source.Ref == "" {
		cfg.Source.Ref = DefaultRef
	}

	cfg.Source.Path = cleanSlash(cfg.Source.Path)
	if strings.HasPrefix(cfg.Source.Path, "../") || cfg.Source.Path == ".." {
		return errors.Errorf("source.path %q escapes the repository", cfg.Source.Path)
	}

	if cfg.Destination == "" {
		cfg.Destination = "."
	}
	cfg.Destination = filepath.Clean(cfg.Destination)

	seen := map[string]bool{}
	for i, id := range cfg.Tools {
		id = strings.TrimSpace(id)
		if id == "" {
			return errors.Errorf("tools[%d] is empty", i)
		}
		if seen[id] {
			return errors.Errorf("tool %q is listed twice", id)
		}
		seen[id] = true
		cfg.Tools[i] = id
	}

	if cfg.Convert == nil {
		cfg.Convert = &Convert{}
	}
	return cfg.Convert.validate()
}

func (c *Convert) validate() error {
	if c.Source == "" {
		c.Source = ".claude/commands"
	}
	c.Source = cleanSlash(c.Source)

	if c.Pattern == "" {
		c.Pattern = "*.md"
	}
	if !doublestar.ValidatePattern(c.Pattern) {
		return errors.Errorf("convert.pattern %q is not a valid glob", c.Pattern)
	}

	if len(c.Targets) == 0 {
		for _, t := range text.DefaultTargets() {
			c.Targets = append(c.Targets, Target{ID: t.ID, Dir: t.Dir, Extension: t.Extension})
		}
		return nil
	}

	seen := map[string]bool{}
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.ID == "" {
			return errors.Errorf("convert.targets[%d]: id is required", i)
		}
		if seen[t.ID] {
			return errors.Errorf("convert target %q is defined twice", t.ID)
		}
		seen[t.ID] = true
		if t.Dir == "" {
			return errors.Errorf("convert target %q: dir is required", t.ID)
		}
		t.Dir = cleanSlash(t.Dir)
		if t.Extension == "" {
			t.Extension = ".md"
		}
	}
	return nil
}

func cleanSlash(p string) string {
	p = strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
	if p == "" {
		return "."
	}
	return path.Clean(p)
}

// 🏷️ RefType reports "tag" for semantic version refs and "branch" otherwise
func (cfg *Config) RefType() string {
	if cfg.Source == nil {
		return "branch"
	}
	if _, err := semver.NewVersion(cfg.Source.Ref); err == nil {
		return "tag"
	}
	return "branch"
}

// Locator returns where the templates live
func (cfg *Config) Locator() remote.Locator {
	return remote.Locator{Repo: cfg.Source.Repo, Ref: cfg.Source.Ref, Path: cfg.Source.Path}
}

// RemoteOptions returns the transport settings
func (cfg *Config) RemoteOptions() remote.Options {
	return remote.Options{Token: cfg.Token, RawBase: cfg.Source.RawBase}
}

// TextTargets returns the conversion targets
func (c *Convert) TextTargets() []text.Target {
	out := make([]text.Target, 0, len(c.Targets))
	for _, t := range c.Targets {
		out = append(out, text.Target{ID: t.ID, Dir: t.Dir, Extension: t.Extension})
	}
	return out
}

// Location is the file the config was loaded from, empty for defaults
func (cfg *Config) Location() string {
	return cfg.location
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s -> %s", cfg.Locator(), cfg.Destination)
}
