package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/vfsoverlay/internal/util"
	"github.com/brettbedarf/vfsoverlay/providers"
)

// TestNewConfig_WithNilOverride tests that NewConfig creates a config with all default values
// when no override is provided.
func TestNewConfig_WithNilOverride(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(nil)

	require.NotNil(t, cfg)
	assert.Equal(t, createDefaultCfg(), cfg, "must use default values when no config provided")
	assert.NoError(t, cfg.Validate(), "defaults must be valid")
}

// TestNewConfig_WithAllOverride tests that NewConfig properly applies overrides while
// preserving defaults for unset fields.
func TestNewConfig_WithAllOverride(t *testing.T) {
	t.Parallel()

	override := createOverride()
	override.LogLvl = util.Pointer(TraceVerbose)
	cfg := NewConfig(override)

	expCfg := &Config{
		MountOptions: MountOptions{
			Debug:    true,
			FsName:   "test_fs",
			Name:     "test_name",
			ReadOnly: !DefaultReadOnly,
		},
		LogLvl:       util.TraceLevel,
		Base:         *override.Base,
		Overlays:     override.Overlays,
		AttrTimeout:  *override.AttrTimeout,
		EntryTimeout: *override.EntryTimeout,
	}
	require.NotNil(t, cfg)
	assert.Equal(t, expCfg, cfg, "must override all provided fields")
}

func TestConfig_Merge_LogLvlConversion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		verboseValue  int
		expectedLevel util.LogLevel
	}{
		{"verbose_1_error", 1, util.ErrorLevel},
		{"verbose_2_warn", 2, util.WarnLevel},
		{"verbose_3_info", 3, util.InfoLevel},
		{"verbose_4_debug", 4, util.DebugLevel},
		{"verbose_5_trace", 5, util.TraceLevel},
		{"verbose_0_clamped_to_1", 0, util.ErrorLevel},     // clamped to 1
		{"verbose_100_clamped_to_5", 100, util.TraceLevel}, // clamped to 5
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			override := &ConfigOverride{
				LogLvl: &tt.verboseValue,
			}

			cfg := NewConfig(override)

			assert.Equal(t, tt.expectedLevel, cfg.LogLvl,
				"CLI verbose %d should map to util.LogLevel %v", tt.verboseValue, tt.expectedLevel)
		})
	}
}

func TestConfig_Merge_NilOverrideVals(t *testing.T) {
	t.Parallel()

	override := &ConfigOverride{}

	cfg := NewConfig(override)

	require.NotNil(t, cfg)
	assert.Equal(t, createDefaultCfg(), cfg, "must use default values for nil override fields")
}

func TestConfig_Merge_PartialOverride(t *testing.T) {
	t.Parallel()

	override := &ConfigOverride{
		FsName:      util.Pointer("test_fs"),
		AttrTimeout: util.Pointer(DefaultAttrTimeout + 1),
	}
	cfg := NewConfig(override)

	expCfg := createDefaultCfg()
	expCfg.FsName = "test_fs"
	expCfg.AttrTimeout = DefaultAttrTimeout + 1

	require.NotNil(t, cfg)
	assert.Equal(t, expCfg, cfg, "must override all provided fields and leave rest default")
}

func TestConfig_Merge_OverlaysCopied(t *testing.T) {
	t.Parallel()

	override := &ConfigOverride{Overlays: []LayerConfig{{Type: LayerMemory}}}
	cfg := NewConfig(override)

	override.Overlays[0].Type = LayerLocal
	assert.Equal(t, LayerMemory, cfg.Overlays[0].Type, "must not alias the override's overlays")
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    LayerConfig
		layers  []LayerConfig
		wantErr string
	}{
		{
			name: "valid stack",
			base: LayerConfig{Type: LayerMemory, Backend: providers.BackendAfero},
			layers: []LayerConfig{
				{Type: LayerRedirect, Manifest: "/overlay.yaml"},
				{Type: LayerLocal, Root: "/srv", Backend: providers.BackendBilly},
			},
		},
		{
			name:    "redirect base",
			base:    LayerConfig{Type: LayerRedirect, Manifest: "/o.yaml"},
			wantErr: "base layer cannot be a redirect layer",
		},
		{
			name:    "redirect without manifest",
			base:    DefaultBase,
			layers:  []LayerConfig{{Name: "r", Type: LayerRedirect}},
			wantErr: `overlay 0: layer "r": redirect layer requires a manifest`,
		},
		{
			name:    "manifest on local layer",
			base:    LayerConfig{Type: LayerLocal, Manifest: "/o.yaml"},
			wantErr: "manifest is only valid for redirect layers",
		},
		{
			name:    "unknown type",
			base:    DefaultBase,
			layers:  []LayerConfig{{Type: LayerMemory}, {Type: "s3"}},
			wantErr: `overlay 1: layer "": unknown layer type: "s3"`,
		},
		{
			name:    "unknown backend",
			base:    LayerConfig{Type: LayerMemory, Backend: "zip"},
			wantErr: `unknown backend: "zip"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewDefaultConfig()
			cfg.Base = tt.base
			cfg.Overlays = tt.layers

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigOverrideFile_Valid(t *testing.T) {
	t.Parallel()

	type tc struct {
		ext   string
		build func() (*ConfigOverride, []byte)
	}

	cases := []tc{
		{
			ext: ".yaml",
			build: func() (*ConfigOverride, []byte) {
				o := createOverride()
				b, err := yaml.Marshal(o)
				require.NoError(t, err)
				return o, b
			},
		},
		{
			ext: ".yml",
			build: func() (*ConfigOverride, []byte) {
				o := createOverride()
				b, err := yaml.Marshal(o)
				require.NoError(t, err)
				return o, b
			},
		},
		{
			ext: ".json",
			build: func() (*ConfigOverride, []byte) {
				o := createOverride()
				b, err := json.Marshal(o)
				require.NoError(t, err)
				return o, b
			},
		},
	}

	for _, c := range cases {
		name := "valid" + c.ext
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			override, data := c.build()
			dir := t.TempDir()
			path := filepath.Join(dir, "override"+c.ext)
			require.NoError(t, os.WriteFile(path, data, 0o600))

			loaded, err := LoadConfigOverrideFile(path)

			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, *override, *loaded)
		})
	}
}

func TestNewConfigFromFile_HandWritten(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: 4
base:
  type: local
  root: /srv/project
overlays:
  - name: headers
    type: redirect
    manifest: /srv/project/overlay.yaml
  - type: memory
    backend: afero
`), 0o600))

	cfg, err := NewConfigFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, util.DebugLevel, cfg.LogLvl)
	assert.Equal(t, LayerConfig{Type: LayerLocal, Root: "/srv/project"}, cfg.Base)
	require.Len(t, cfg.Overlays, 2)
	assert.Equal(t, "headers", cfg.Overlays[0].Name)
	assert.Equal(t, LayerRedirect, cfg.Overlays[0].Type)
	assert.Equal(t, providers.BackendAfero, cfg.Overlays[1].Backend)
	assert.Equal(t, DefaultFsName, cfg.FsName, "unset fields must keep defaults")
	assert.NoError(t, cfg.Validate())
}

// TestLoadConfigOverrideFile_NonExistentFile tests error handling
// when trying to load a file that doesn't exist.
func TestLoadConfigOverrideFile_NonExistentFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does_not_exist.yaml")

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err), "expected not exist error, got %v", err)
}

// TestLoadConfigOverrideFile_UnsupportedExtension tests error handling
// for file extensions that aren't supported (.txt, .xml, etc).
func TestLoadConfigOverrideFile_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "override.txt")
	require.NoError(t, os.WriteFile(path, []byte("log_level: 1"), 0o600))

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config file extension")
}

func TestLoadConfigOverrideFile_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "override.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config file")
}

// TestNewConfigFromFile_FileError tests that file loading errors
// are properly propagated by the convenience function.
func TestNewConfigFromFile_FileError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.json")

	_, err := NewConfigFromFile(path)
	require.Error(t, err)
}

func createDefaultCfg() *Config {
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

// createOverride makes a ConfigOverride with all non-default values
func createOverride() *ConfigOverride {
	testLogVerbose := TraceVerbose
	if DefaultLogLvl == util.TraceLevel {
		testLogVerbose = DebugVerbose
	}
	return &ConfigOverride{
		LogLvl:   util.Pointer(testLogVerbose),
		Debug:    util.Pointer(true),
		FsName:   util.Pointer("test_fs"),
		Name:     util.Pointer("test_name"),
		ReadOnly: util.Pointer(!DefaultReadOnly),
		Base:     &LayerConfig{Name: "disk", Type: LayerLocal, Root: "/srv"},
		Overlays: []LayerConfig{
			{Name: "headers", Type: LayerRedirect, Manifest: "/srv/overlay.yaml"},
			{Type: LayerMemory, Backend: providers.BackendAfero},
		},
		AttrTimeout:  util.Pointer(float64(DefaultAttrTimeout + 1)),
		EntryTimeout: util.Pointer(float64(DefaultEntryTimeout + 1)),
	}
}
