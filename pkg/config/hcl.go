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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/walteh/patchrc/pkg/rules"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL. Built-in replacement bodies are
// available as builtin.<name>.
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "patchrc.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"builtin": builtinBodies(),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		Targets []struct {
			Files []string `hcl:"files"`
			Rules []struct {
				Name            string `hcl:"name,label"`
				Start           string `hcl:"start"`
				End             string `hcl:"end,optional"`
				Mode            string `hcl:"mode,optional"`
				Replacement     string `hcl:"replacement,optional"`
				ReplacementFile string `hcl:"replacement_file,optional"`
				Builtin         string `hcl:"builtin,optional"`
			} `hcl:"rule,block"`
		} `hcl:"target,block"`
		Strict bool `hcl:"strict,optional"`
		Async  bool `hcl:"async,optional"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Strict: hclCfg.Strict,
		Async:  hclCfg.Async,
	}
	for _, t := range hclCfg.Targets {
		target := Target{Files: t.Files}
		for _, r := range t.Rules {
			target.Rules = append(target.Rules, Rule{
				Name:            r.Name,
				Start:           r.Start,
				End:             r.End,
				Mode:            r.Mode,
				Replacement:     r.Replacement,
				ReplacementFile: r.ReplacementFile,
				Builtin:         r.Builtin,
			})
		}
		cfg.Targets = append(cfg.Targets, target)
	}

	return cfg, nil
}

func builtinBodies() cty.Value {
	vals := map[string]cty.Value{}
	for _, name := range []string{rules.UpdateBus, rules.DeleteBus} {
		body, _ := rules.Body(name)
		vals[name] = cty.StringVal(body)
	}
	return cty.ObjectVal(vals)
}
