package cli

import (
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/brettbedarf/vfsoverlay/internal/util"
	"github.com/brettbedarf/vfsoverlay/server"
)

func newMountCmd(opts *options) *cobra.Command {
	var umount bool

	cmd := &cobra.Command{
		Use:   "mount <mountpoint>",
		Short: "Mount the overlay read-only with FUSE until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := util.GetLogger("Cli.Mount")
			mnt := args[0]

			s, cfg, err := opts.buildStack()
			if err != nil {
				return err
			}

			// Try unmount if requested
			if umount {
				// ignore error if not already mounted
				_ = exec.Command("fusermount", "-u", mnt).Run()
			}

			srv := server.New(s.FS, cfg)
			if err := srv.Serve(mnt); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Mounted "+s.FS.String()+" at "+mnt)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()

			var unmounted atomic.Bool
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				srv.Wait()
				unmounted.Store(true)
				stop()
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				if unmounted.Load() {
					return nil
				}
				logger.Info().Str("mountpoint", mnt).Msg("Received signal, unmounting filesystem")
				return srv.Unmount()
			})

			if err := g.Wait(); err != nil {
				logger.Error().Err(err).Msg("Failed to unmount filesystem")
				return err
			}
			logger.Info().Msg("Filesystem unmounted successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&umount, "umount", "u", false,
		"Unmount the mountpoint first if needed. Useful for debuggers that don't exit properly.")
	return cmd
}
