// Package config loads the osulift run configuration. The format is picked
// by file extension: YAML, HCL, or JSON. Command-line flags may override any
// field after loading, so validation is a separate step.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 📚 Config is the complete run configuration.
type Config struct {
	// LazerDir is the lazer data directory: holds the client database and
	// the content-addressed files/ subtree.
	LazerDir string `json:"lazer_dir" yaml:"lazer_dir" hcl:"lazer_dir,optional"`
	// OutputDir is the destination root: one folder per beatmap set.
	OutputDir string `json:"output_dir" yaml:"output_dir" hcl:"output_dir,optional"`
	// Mode is "copy" or "symlink". Anything other than "copy" means symlink.
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty" hcl:"mode,optional"`
	// Workers bounds the transfer worker pool. Below 2 means sequential.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty" hcl:"workers,optional"`
	// Exclude holds glob patterns for set-relative filenames to leave out.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional"`
}

// DatabasePath returns the client database location inside the lazer dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.LazerDir, "client.db")
}

// ContentRoot returns the root of the hash-sharded blob store.
func (c *Config) ContentRoot() string {
	return filepath.Join(c.LazerDir, "files")
}

// Load reads a configuration file. A missing file is not an error: every
// field can arrive via flags instead, so an empty config is returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes config data, choosing the format from the filename.
func Parse(data []byte, filename string) (*Config, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".hcl":
		return parseHCL(data, filename)
	default:
		return nil, errors.Errorf("unsupported config extension %q", ext)
	}
}

// Validate checks the config after flag overrides have been applied.
func Validate(cfg *Config) error {
	if cfg.LazerDir == "" {
		return errors.Errorf("lazer_dir is required")
	}
	if cfg.OutputDir == "" {
		return errors.Errorf("output_dir is required")
	}
	if cfg.Workers < 0 {
		return errors.Errorf("workers must not be negative")
	}
	return nil
}

// parseJSON decodes a JSON config, rejecting unknown fields.
func parseJSON(data []byte) (*Config, error) {
	var cfg Config
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return &cfg, nil
}

// parseYAML decodes a YAML config, rejecting unknown fields.
func parseYAML(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

// parseHCL decodes an HCL config.
func parseHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
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

	return &cfg, nil
}
