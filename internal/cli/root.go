// Package cli implements the vfsoverlay command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/brettbedarf/vfsoverlay/config"
	"github.com/brettbedarf/vfsoverlay/internal/util"
	"github.com/brettbedarf/vfsoverlay/providers"
	"github.com/brettbedarf/vfsoverlay/stack"
)

// options are the flags shared by every command
type options struct {
	configPath string
	verbose    int
	verboseSet bool      // -v given explicitly; otherwise the config file's log_level applies
	logOut     io.Writer // Log destination once configuration is loaded
	base       string
	backend    string
	memoryBase bool
	overlays   []string
	jsonOutput bool
}

// NewRootCmd builds the command tree. version is reported by --version.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:     "vfsoverlay",
		Version: version,
		Short:   "Inspect and mount layered virtual filesystem overlays",
		Long: `vfsoverlay stacks a writable base directory with read-only layers,
including overlay manifests that map virtual paths to real files.

Reads are answered by the topmost layer that has a path; writes always go to the base.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.verboseSet = cmd.Flags().Changed("verbose")
			opts.logOut = cmd.ErrOrStderr()
			util.InitializeLoggerWithWriter(config.VerbosityToLevel(opts.verbose), opts.logOut)
			return nil
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	flags.IntVarP(&opts.verbose, "verbose", "v", config.InfoVerbose,
		"Log verbosity level between 1 (error) and 5 (trace)")
	flags.StringVar(&opts.base, "base", "", "Host directory used as the base layer")
	flags.StringVar(&opts.backend, "backend", "", "Filesystem library for the base layer: billy or afero")
	flags.BoolVar(&opts.memoryBase, "memory-base", false, "Use an empty in-memory base layer")
	flags.StringArrayVarP(&opts.overlays, "overlay", "o", nil,
		"Overlay manifest path inside the base layer; repeat to stack more")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	root.AddCommand(
		newCatCmd(opts),
		newLsCmd(opts),
		newStatCmd(opts),
		newResolveCmd(opts),
		newLayersCmd(opts),
		newManifestCmd(opts),
		newMountCmd(opts),
	)
	return root
}

// Execute runs the command line with os.Args
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

// loadConfig merges the config file, if any, with command line flags
func (o *options) loadConfig() (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.NewConfigFromFile(o.configPath); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if o.memoryBase && o.base != "" {
		return nil, errors.New("--base and --memory-base cannot be combined")
	}

	if o.verboseSet {
		cfg.LogLvl = config.VerbosityToLevel(o.verbose)
	}
	out := o.logOut
	if out == nil {
		out = os.Stderr
	}
	util.InitializeLoggerWithWriter(cfg.LogLvl, out)

	switch {
	case o.memoryBase:
		cfg.Base = config.LayerConfig{Name: "base", Type: config.LayerMemory}
	case o.base != "":
		cfg.Base = config.LayerConfig{Name: "base", Type: config.LayerLocal, Root: o.base}
	}
	if o.backend != "" {
		cfg.Base.Backend = providers.Backend(o.backend)
	}
	for _, m := range o.overlays {
		cfg.Overlays = append(cfg.Overlays, config.LayerConfig{Type: config.LayerRedirect, Manifest: m})
	}
	return cfg, nil
}

// buildStack loads configuration and builds the layer stack
func (o *options) buildStack() (*stack.Stack, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	s, err := stack.Build(cfg)
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}
