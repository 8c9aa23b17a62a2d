// Package config holds the generator settings. Settings come from built-in
// defaults matching the SQLite sources, optionally overlaid by a YAML file and
// then by command line flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/colorfulnotion/opcodeh/opcerrors"
	"github.com/colorfulnotion/opcodeh/opcodes"
)

// Output formats.
const (
	FormatC    = "c"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatGo   = "go"
)

var formats = map[string]bool{FormatC: true, FormatJSON: true, FormatYAML: true, FormatGo: true}

type Config struct {
	TokenPrefix  string `json:"token_prefix" yaml:"token_prefix"`
	OpcodePrefix string `json:"opcode_prefix" yaml:"opcode_prefix"`
	// Ceiling is the largest opcode value allowed in the output.
	Ceiling int `json:"ceiling" yaml:"ceiling"`
	// Priority opcodes are numbered first, in declaration order.
	Priority []string `json:"priority" yaml:"priority"`
	// Specials are appended after all declared opcodes with cleared flags.
	Specials []string `json:"specials" yaml:"specials"`
	// Withheld declarations are skipped where they appear; each must also
	// be a special.
	Withheld     []string `json:"withheld" yaml:"withheld"`
	Format       string   `json:"format" yaml:"format"`
	MaxJumpMacro string   `json:"max_jump_macro" yaml:"max_jump_macro"`
	// GoPackage names the package of the go output format.
	GoPackage string `json:"go_package" yaml:"go_package"`
}

// Default returns the settings used for the SQLite VDBE.
func Default() *Config {
	return &Config{
		TokenPrefix:  "TK_",
		OpcodePrefix: "OP_",
		Ceiling:      opcodes.MaxOpcode,
		Priority:     append([]string(nil), opcodes.DefaultPriority...),
		Specials:     append([]string(nil), opcodes.DefaultSpecials...),
		Withheld:     []string{"OP_Abortable"},
		Format:       FormatC,
		MaxJumpMacro: "SQLITE_MX_JUMP_OPCODE",
		GoPackage:    "vdbe",
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse error in %s: %v", opcerrors.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings for internal consistency.
func (c *Config) Validate() error {
	if c.TokenPrefix == "" || c.OpcodePrefix == "" {
		return fmt.Errorf("%w: token and opcode prefixes must be set", opcerrors.ErrInvalidConfig)
	}
	if c.Ceiling < 0 || c.Ceiling > opcodes.MaxOpcode {
		return fmt.Errorf("%w: ceiling %d outside [0,%d]", opcerrors.ErrInvalidConfig, c.Ceiling, opcodes.MaxOpcode)
	}
	if !formats[c.Format] {
		return fmt.Errorf("%w: %q", opcerrors.ErrUnknownFormat, c.Format)
	}
	if c.Format == FormatC && c.MaxJumpMacro == "" {
		return fmt.Errorf("%w: max_jump_macro must be set for the c format", opcerrors.ErrInvalidConfig)
	}
	specials := make(map[string]bool, len(c.Specials))
	for _, name := range c.Specials {
		if specials[name] {
			return fmt.Errorf("%w: special %s listed twice", opcerrors.ErrInvalidConfig, name)
		}
		specials[name] = true
	}
	for _, name := range c.Withheld {
		if !specials[name] {
			return fmt.Errorf("%w: withheld %s is not a special", opcerrors.ErrInvalidConfig, name)
		}
	}
	return nil
}

// String returns the Config as a formatted JSON string
func (c *Config) String() string {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(jsonData)
}
