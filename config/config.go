package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/vfsoverlay/internal/util"
)

// Log verbosity as passed on the command line, 1 (error) to 5 (trace)
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	DefaultFsName   = "vfsoverlay"
	DefaultName     = "vfsoverlay"
	DefaultReadOnly = true

	// DefaultAttrTimeout is the attribute cache timeout in seconds
	DefaultAttrTimeout = 1.0

	// DefaultEntryTimeout is the directory entry cache timeout in seconds
	DefaultEntryTimeout = 1.0
)

// DefaultBase is the base layer used when none is configured: the host root
var DefaultBase = LayerConfig{Type: LayerLocal, Root: "/"}

// Config contains runtime configuration for building and mounting an overlay stack.
type Config struct {
	MountOptions
	LogLvl util.LogLevel // Internal log level (Default info)

	Base     LayerConfig   // Writable bottom layer (Default local "/")
	Overlays []LayerConfig // Read layers stacked above Base in order

	AttrTimeout  float64 // Attribute cache timeout in seconds (Default 1.0)
	EntryTimeout float64 // Directory entry cache timeout in seconds (Default 1.0)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	LogLvl       *int          `yaml:"log_level,omitempty" json:"log_level,omitempty"` // Verbosity 1..5
	Debug        *bool         `yaml:"debug,omitempty" json:"debug,omitempty"`
	FsName       *string       `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name         *string       `yaml:"name,omitempty" json:"name,omitempty"`
	ReadOnly     *bool         `yaml:"read_only,omitempty" json:"read_only,omitempty"`
	Base         *LayerConfig  `yaml:"base,omitempty" json:"base,omitempty"`
	Overlays     []LayerConfig `yaml:"overlays,omitempty" json:"overlays,omitempty"`
	AttrTimeout  *float64      `yaml:"attr_timeout,omitempty" json:"attr_timeout,omitempty"`
	EntryTimeout *float64      `yaml:"entry_timeout,omitempty" json:"entry_timeout,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName:   DefaultFsName,
			Name:     DefaultName,
			ReadOnly: DefaultReadOnly,
		},
		LogLvl:       DefaultLogLvl,
		Base:         DefaultBase,
		AttrTimeout:  DefaultAttrTimeout,
		EntryTimeout: DefaultEntryTimeout,
	}
}

// NewConfig creates a Config from defaults with override applied. A nil
// override yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = VerbosityToLevel(*override.LogLvl)
	}
	if override.Debug != nil {
		c.Debug = *override.Debug
	}
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
	if override.ReadOnly != nil {
		c.ReadOnly = *override.ReadOnly
	}
	if override.Base != nil {
		c.Base = *override.Base
	}
	if override.Overlays != nil {
		c.Overlays = slices.Clone(override.Overlays)
	}
	if override.AttrTimeout != nil {
		c.AttrTimeout = *override.AttrTimeout
	}
	if override.EntryTimeout != nil {
		c.EntryTimeout = *override.EntryTimeout
	}
}

// VerbosityToLevel maps CLI verbosity to a log level, clamping to 1..5
func VerbosityToLevel(verbose int) util.LogLevel {
	verbose = min(max(verbose, ErrorVerbose), TraceVerbose)
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return logLvls[verbose-1]
}

// Validate checks the layer stack, reporting every invalid layer
func (c *Config) Validate() error {
	var errs []error
	if err := c.Base.Validate(true); err != nil {
		errs = append(errs, err)
	}
	for i, layer := range c.Overlays {
		if err := layer.Validate(false); err != nil {
			errs = append(errs, fmt.Errorf("overlay %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
