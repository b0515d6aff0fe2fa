// Package server projects a vfsoverlay.FileSystem into the host through FUSE.
// The projection is read-only.
package server

import (
	stdlog "log"
	"sync/atomic"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/vfsoverlay"
	"github.com/brettbedarf/vfsoverlay/config"
	"github.com/brettbedarf/vfsoverlay/internal/util"
)

// Server serves one filesystem at a mount point
type Server struct {
	fsys   vfsoverlay.FileSystem
	cfg    *config.Config
	server *fuse.Server

	lastIno atomic.Uint64              // Last inode number handed out
	inodes  *xsync.Map[string, uint64] // Virtual path to inode number, stable for the session
}

// New creates a Server for fsys. Nothing is mounted until Serve.
func New(fsys vfsoverlay.FileSystem, cfg *config.Config) *Server {
	s := &Server{
		fsys:   fsys,
		cfg:    cfg,
		inodes: xsync.NewMap[string, uint64](),
	}
	s.lastIno.Store(fuse.FUSE_ROOT_ID)
	s.inodes.Store(vfsoverlay.Root, fuse.FUSE_ROOT_ID)
	return s
}

// Serve mounts the filesystem at mountPoint and returns once the kernel has
// accepted the mount. Requests are served in the background until Unmount.
// Wait and Unmount must not be called before Serve returns.
func (s *Server) Serve(mountPoint string) error {
	logger := util.GetLogger("Server.Serve")

	opts := s.cfg.MountOptions
	attrTimeout := seconds(s.cfg.AttrTimeout)
	entryTimeout := seconds(s.cfg.EntryTimeout)
	fuseOpts := &fs.Options{
		MountOptions: fuse.MountOptions{
			Name:   opts.Name,
			FsName: opts.FsName,
			Debug:  opts.Debug || s.cfg.LogLvl == util.TraceLevel,
			Logger: stdlog.New(util.GetLogger("Fuse"), "", 0),
		},
		AttrTimeout:  &attrTimeout,
		EntryTimeout: &entryTimeout,
	}
	if opts.ReadOnly {
		fuseOpts.MountOptions.Options = append(fuseOpts.MountOptions.Options, "ro")
	}

	srv, err := fs.Mount(mountPoint, s.root(), fuseOpts)
	if err != nil {
		return err
	}
	s.server = srv
	logger.Info().Str("mountPoint", mountPoint).Msg("Mounted")
	return nil
}

// Wait blocks until the filesystem is unmounted
func (s *Server) Wait() {
	if s.server != nil {
		s.server.Wait()
	}
}

// Unmount cleanly unmounts the filesystem.
func (s *Server) Unmount() error {
	if s.server == nil {
		return nil
	}
	return s.server.Unmount()
}

func (s *Server) root() *node {
	return &node{srv: s, path: vfsoverlay.Root}
}

// inoFor returns the session-stable inode number of a virtual path
func (s *Server) inoFor(p string) uint64 {
	if ino, ok := s.inodes.Load(p); ok {
		return ino
	}
	ino, _ := s.inodes.LoadOrStore(p, s.lastIno.Add(1))
	return ino
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
