package cli

import (
	"github.com/spf13/cobra"

	"github.com/brettbedarf/vfsoverlay"
	"github.com/brettbedarf/vfsoverlay/composite"
)

func newCatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file as seen through the overlay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := opts.buildStack()
			if err != nil {
				return err
			}
			data, err := s.FS.ReadFile(args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newLsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory from the layer that owns it",
		Long: `List a directory as seen through the overlay. The listing comes from the
single topmost layer that has the directory; listings are not merged across layers.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := vfsoverlay.Root
			if len(args) == 1 {
				dir = args[0]
			}
			s, _, err := opts.buildStack()
			if err != nil {
				return err
			}
			names, err := s.FS.ReadDir(dir)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(w, names)
			}
			if len(names) == 0 {
				printEmptyState(w, "No entries")
				return nil
			}
			for _, name := range names {
				if s.FS.IsDirectory(vfsoverlay.Join(dir, name)) {
					name += "/"
				}
				_, _ = w.Write([]byte(name + "\n"))
			}
			return nil
		},
	}
}

// statInfo is the stat command's report
type statInfo struct {
	Path       string `json:"path"`
	Exists     bool   `json:"exists"`
	Directory  bool   `json:"directory"`
	File       bool   `json:"file"`
	Executable bool   `json:"executable"`
	Symlink    bool   `json:"symlink"`
	Layer      string `json:"layer,omitempty"`
}

func newStatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Show how the overlay classifies a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := opts.buildStack()
			if err != nil {
				return err
			}
			p := vfsoverlay.Clean(args[0])
			info := statInfo{
				Path:       p,
				Exists:     s.FS.Exists(p, true),
				Directory:  s.FS.IsDirectory(p),
				File:       s.FS.IsFile(p),
				Executable: s.FS.IsExecutableFile(p),
				Symlink:    s.FS.IsSymlink(p),
			}
			if res, ok := s.Resolve(p); ok {
				info.Layer = res.Layer.Name
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(w, info)
			}
			printSection(w, info.Path)
			printLabelValue(w, "exists", yesNo(info.Exists))
			printLabelValue(w, "directory", yesNo(info.Directory))
			printLabelValue(w, "file", yesNo(info.File))
			printLabelValue(w, "executable", yesNo(info.Executable))
			printLabelValue(w, "symlink", yesNo(info.Symlink))
			if info.Layer != "" {
				printLabelValue(w, "layer", info.Layer)
			}
			return nil
		},
	}
}

// resolveInfo is the resolve command's report
type resolveInfo struct {
	Path     string `json:"path"`
	Found    bool   `json:"found"`
	Layer    string `json:"layer,omitempty"`
	Index    int    `json:"index"`
	Provider string `json:"provider,omitempty"`
	RealPath string `json:"realPath,omitempty"`
}

func newResolveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show which layer answers a path and where its content really lives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := opts.buildStack()
			if err != nil {
				return err
			}
			p := vfsoverlay.Clean(args[0])
			info := resolveInfo{Path: p, Index: -1}
			if res, ok := s.Resolve(p); ok {
				info.Found = true
				info.Layer = res.Layer.Name
				info.Index = res.Index
				info.Provider = composite.Describe(res.Layer.FS)
				info.RealPath = res.RealPath
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(w, info)
			}
			if !info.Found {
				printWarning(w, p+" is not present in any layer")
				return nil
			}
			printSection(w, info.Path)
			printLabelValue(w, "layer", info.Layer)
			printLabelValue(w, "provider", info.Provider)
			if info.RealPath != "" {
				printLabelValue(w, "real path", info.RealPath)
			}
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
