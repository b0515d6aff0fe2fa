package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/brettbedarf/vfsoverlay/composite"
	"github.com/brettbedarf/vfsoverlay/manifest"
	"github.com/brettbedarf/vfsoverlay/redirect"
	"github.com/brettbedarf/vfsoverlay/stack"
)

// layerInfo is one row of the layers command
type layerInfo struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Provider string `json:"provider"`
}

func newLayersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List the layers of the overlay, topmost first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, _, err := opts.buildStack()
			if err != nil {
				return err
			}

			infos := make([]layerInfo, 0, len(s.Layers))
			for i := len(s.Layers) - 1; i >= 0; i-- {
				l := s.Layers[i]
				infos = append(infos, layerInfo{
					Index:    i,
					Name:     l.Name,
					Type:     string(l.Type),
					Provider: composite.Describe(l.FS),
				})
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(w, infos)
			}
			printSection(w, "Layers")
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{strconv.Itoa(info.Index), info.Name, info.Type, info.Provider})
			}
			printTable(w, []string{"Index", "Name", "Type", "Provider"}, rows)
			return nil
		},
	}
}

func newManifestCmd(opts *options) *cobra.Command {
	var normalize bool

	cmd := &cobra.Command{
		Use:   "manifest <path>",
		Short: "Validate an overlay manifest stored in the base layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			cfg.Overlays = nil
			s, err := stack.Build(cfg)
			if err != nil {
				return err
			}

			rfs, err := redirect.New(args[0], s.FS.Base())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if normalize {
				data, err := manifest.Marshal(rfs.Manifest())
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				return err
			}

			m := rfs.Manifest()
			files, dirs := countEntries(m)
			printSuccess(w, args[0]+" is a valid overlay manifest")
			printLabelValue(w, "version", strconv.Itoa(m.Options().Version))
			printLabelValue(w, "roots", strconv.Itoa(len(m.Roots())))
			printLabelValue(w, "files", strconv.Itoa(files))
			printLabelValue(w, "directories", strconv.Itoa(dirs))
			if dir, ok := rfs.PrefixDir(); ok {
				printLabelValue(w, "prefix dir", dir)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Print the manifest re-encoded in canonical form")
	return cmd
}

// countEntries counts file and directory entries anywhere in m
func countEntries(m *manifest.Manifest) (files, dirs int) {
	var walk func(e manifest.Entry)
	walk = func(e manifest.Entry) {
		switch e := e.(type) {
		case *manifest.File:
			files++
		case *manifest.Directory:
			dirs++
			for child := range e.All() {
				walk(child)
			}
		}
	}
	for root := range m.AllRoots() {
		walk(root)
	}
	return files, dirs
}
