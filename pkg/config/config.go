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
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
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

// 🌐 ServiceArgs configures the remote transformation service
type ServiceArgs struct {
	Model          string `json:"model,omitempty" yaml:"model,omitempty" hcl:"model,optional"`                               // Model name
	BaseURL        string `json:"base_url,omitempty" yaml:"base_url,omitempty" hcl:"base_url,optional"`                      // API base URL
	APIKey         string `json:"api_key,omitempty" yaml:"api_key,omitempty" hcl:"api_key,optional"`                         // Inline key (prefer env)
	APIKeyEnv      string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty" hcl:"api_key_env,optional"`             // Env var holding the key
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" hcl:"timeout_seconds,optional"` // Per-call timeout
}

// 📚 Config represents the complete configuration
type Config struct {
	InputDir   string `json:"input_dir" yaml:"input_dir" hcl:"input_dir"`                                     // Directory holding .zip/.jar archives
	OutputDir  string `json:"output_dir" yaml:"output_dir" hcl:"output_dir"`                                  // Root of the reconstructed output tree
	SourceLang string `json:"source_lang,omitempty" yaml:"source_lang,omitempty" hcl:"source_lang,optional"`  // e.g. en_us
	TargetLang string `json:"target_lang" yaml:"target_lang" hcl:"target_lang"`                               // e.g. ja_jp

	BookRoot      string `json:"book_root,omitempty" yaml:"book_root,omitempty" hcl:"book_root,optional"`                // Documentation book root segment
	PromptVersion string `json:"prompt_version,omitempty" yaml:"prompt_version,omitempty" hcl:"prompt_version,optional"` // Cache-busting lever
	CacheDir      string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty" hcl:"cache_dir,optional"`

	BatchSize            int `json:"batch_size,omitempty" yaml:"batch_size,omitempty" hcl:"batch_size,optional"`
	MaxSplitDepth        int `json:"max_split_depth,omitempty" yaml:"max_split_depth,omitempty" hcl:"max_split_depth,optional"`
	ScanWorkers          int `json:"scan_workers,omitempty" yaml:"scan_workers,omitempty" hcl:"scan_workers,optional"`
	TranslateConcurrency int `json:"translate_concurrency,omitempty" yaml:"translate_concurrency,omitempty" hcl:"translate_concurrency,optional"`
	WriteConcurrency     int `json:"write_concurrency,omitempty" yaml:"write_concurrency,omitempty" hcl:"write_concurrency,optional"`
	RequestDelayMS       int `json:"request_delay_ms,omitempty" yaml:"request_delay_ms,omitempty" hcl:"request_delay_ms,optional"`

	Service *ServiceArgs `json:"service,omitempty" yaml:"service,omitempty" hcl:"service,block"`
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid and applies defaults
func (cfg *Config) Validate() error {
	// Check required fields
	if cfg.InputDir == "" {
		return errors.Errorf("input_dir is required")
	}
	if cfg.OutputDir == "" {
		return errors.Errorf("output_dir is required")
	}
	if cfg.TargetLang == "" {
		return errors.Errorf("target_lang is required")
	}

	// Clean up paths
	cfg.InputDir = filepath.Clean(cfg.InputDir)
	cfg.OutputDir = filepath.Clean(cfg.OutputDir)

	// Set defaults
	if cfg.SourceLang == "" {
		cfg.SourceLang = "en_us"
	}
	if cfg.BookRoot == "" {
		cfg.BookRoot = "patchouli_books"
	}
	if cfg.PromptVersion == "" {
		cfg.PromptVersion = "v1"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = ".packlate-cache"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxSplitDepth <= 0 {
		cfg.MaxSplitDepth = 4
	}
	if cfg.ScanWorkers <= 0 {
		cfg.ScanWorkers = 4
	}
	if cfg.TranslateConcurrency <= 0 {
		cfg.TranslateConcurrency = 3
	}
	if cfg.WriteConcurrency <= 0 {
		cfg.WriteConcurrency = 8
	}
	if cfg.Service == nil {
		cfg.Service = &ServiceArgs{}
	}

	if strings.EqualFold(cfg.SourceLang, cfg.TargetLang) {
		return errors.Errorf("source_lang and target_lang must differ: %s", cfg.SourceLang)
	}

	return nil
}

// ⏲️ RequestDelay returns the configured inter-call delay
func (cfg *Config) RequestDelay() time.Duration {
	if cfg.RequestDelayMS <= 0 {
		return 0
	}
	return time.Duration(cfg.RequestDelayMS) * time.Millisecond
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s [%s -> %s] -> %s", cfg.InputDir, cfg.SourceLang, cfg.TargetLang, cfg.OutputDir)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func init() {
	Register(&HCLParser{})
}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var cfg Config
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
