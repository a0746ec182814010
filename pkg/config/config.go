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
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/patchrc/pkg/rules"
	"github.com/walteh/patchrc/pkg/text"
	"gitlab.com/tozd/go/errors"
)

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

// 🔄 Rule is a replacement rule as written in a config file
type Rule struct {
	Name            string `json:"name" yaml:"name"`
	Start           string `json:"start" yaml:"start"`
	End             string `json:"end,omitempty" yaml:"end,omitempty"`
	Mode            string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Replacement     string `json:"replacement,omitempty" yaml:"replacement,omitempty"`
	ReplacementFile string `json:"replacement_file,omitempty" yaml:"replacement_file,omitempty"`
	Builtin         string `json:"builtin,omitempty" yaml:"builtin,omitempty"`
}

// 📦 Target groups the files a set of rules applies to
type Target struct {
	Files []string `json:"files" yaml:"files"` // doublestar globs relative to the config file
	Rules []Rule   `json:"rules" yaml:"rules"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Targets []Target `json:"targets" yaml:"targets"`
	Strict  bool     `json:"strict,omitempty" yaml:"strict,omitempty"`
	Async   bool     `json:"async,omitempty" yaml:"async,omitempty"`

	location string
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().Int("targets", len(cfg.Targets)).Msg("configuration loaded")
	return cfg, nil
}

// Dir returns the directory relative paths in the config resolve against
func (cfg *Config) Dir() string {
	if cfg.location == "" {
		return "."
	}
	return filepath.Dir(cfg.location)
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if len(cfg.Targets) == 0 {
		return errors.Errorf("at least one target is required")
	}

	for i, t := range cfg.Targets {
		if len(t.Files) == 0 {
			return errors.Errorf("target %d: files is required", i)
		}
		for _, f := range t.Files {
			if !doublestar.ValidatePattern(filepath.ToSlash(f)) {
				return errors.Errorf("target %d: invalid file pattern %q", i, f)
			}
		}
		if len(t.Rules) == 0 {
			return errors.Errorf("target %d: rules is required", i)
		}
		for j, r := range t.Rules {
			sources := 0
			for _, s := range []string{r.Replacement, r.ReplacementFile, r.Builtin} {
				if s != "" {
					sources++
				}
			}
			if sources > 1 {
				return errors.Errorf("target %d: rule %d: only one of replacement, replacement_file or builtin may be set", i, j)
			}
			if r.Builtin != "" {
				if _, ok := rules.Body(r.Builtin); !ok {
					return errors.Errorf("target %d: rule %d: unknown builtin %q", i, j, r.Builtin)
				}
			}
		}

		// Replacement files are resolved later; only shape is checked here
		if err := text.NewSpanReplacer().ValidateRules(shape(t.Rules)); err != nil {
			return errors.Errorf("target %d: %w", i, err)
		}
	}

	return nil
}

// TextRules resolves a target's rules into replacement rules, reading
// replacement files relative to the config directory
func (cfg *Config) TextRules(t Target) ([]text.ReplacementRule, error) {
	out := shape(t.Rules)
	for i, r := range t.Rules {
		switch {
		case r.ReplacementFile != "":
			path := r.ReplacementFile
			if !filepath.IsAbs(path) {
				path = filepath.Join(cfg.Dir(), path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, errors.Errorf("rule %s: reading replacement file: %w", r.Name, err)
			}
			out[i].Replacement = string(data)
		case r.Builtin != "":
			body, ok := rules.Body(r.Builtin)
			if !ok {
				return nil, errors.Errorf("rule %s: unknown builtin %q", r.Name, r.Builtin)
			}
			out[i].Replacement = body
		}
	}
	return out, nil
}

// shape converts config rules without resolving external replacement text
func shape(rs []Rule) []text.ReplacementRule {
	out := make([]text.ReplacementRule, 0, len(rs))
	for _, r := range rs {
		out = append(out, text.ReplacementRule{
			Name:        r.Name,
			Start:       r.Start,
			End:         r.End,
			Mode:        text.Mode(strings.ToLower(strings.TrimSpace(r.Mode))),
			Replacement: r.Replacement,
		})
	}
	return out
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	files := 0
	rs := 0
	for _, t := range cfg.Targets {
		files += len(t.Files)
		rs += len(t.Rules)
	}
	return cfg.Dir() + ": " + plural(len(cfg.Targets), "target") + ", " + plural(files, "file pattern") + ", " + plural(rs, "rule")
}

func plural(n int, word string) string {
	s := strconv.Itoa(n) + " " + word
	if n != 1 {
		s += "s"
	}
	return s
}
