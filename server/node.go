package server

import (
	"context"
	"errors"
	"path"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/vfsoverlay"
	"github.com/brettbedarf/vfsoverlay/internal/util"
)

const (
	dirMode  = syscall.S_IFDIR | 0o555
	fileMode = syscall.S_IFREG | 0o444
	execBits = 0o111
)

// node is one virtual path of the served filesystem
type node struct {
	fs.Inode
	srv  *Server
	path string
}

var (
	_ fs.NodeGetattrer = (*node)(nil)
	_ fs.NodeLookuper  = (*node)(nil)
	_ fs.NodeReaddirer = (*node)(nil)
	_ fs.NodeOpener    = (*node)(nil)
	_ fs.NodeReader    = (*node)(nil)
)

func (n *node) Getattr(_ context.Context, _ fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	return n.srv.fillAttr(n.path, &out.Attr)
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	child := path.Join(n.path, name)
	if errno := n.srv.fillAttr(child, &out.Attr); errno != 0 {
		return nil, errno
	}
	logger := util.GetLogger("Server.Lookup")
	logger.Trace().Str("path", child).Uint32("mode", out.Mode).Msg("Looked up")

	stable := fs.StableAttr{Mode: out.Mode & syscall.S_IFMT, Ino: out.Ino}
	return n.NewInode(ctx, &node{srv: n.srv, path: child}, stable), 0
}

func (n *node) Readdir(_ context.Context) (fs.DirStream, syscall.Errno) {
	entries, errno := n.srv.dirEntries(n.path)
	if errno != 0 {
		return nil, errno
	}
	return fs.NewListDirStream(entries), 0
}

// Open reads the contents once; reads through the handle serve that snapshot
func (n *node) Open(_ context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	data, err := n.srv.fsys.ReadFile(n.path)
	if err != nil {
		return nil, 0, toErrno(err)
	}
	return &handle{data: data}, fuse.FOPEN_KEEP_CACHE, 0
}

// Read serves from the open handle, or reads the file when there is none
func (n *node) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if h, ok := fh.(*handle); ok {
		return h.Read(ctx, dest, off)
	}
	data, err := n.srv.fsys.ReadFile(n.path)
	if err != nil {
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(window(data, off, len(dest))), 0
}

// handle holds the contents of an open file
type handle struct {
	data []byte
}

var _ fs.FileReader = (*handle)(nil)

func (h *handle) Read(_ context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	return fuse.ReadResultData(window(h.data, off, len(dest))), 0
}

// fillAttr describes p. The FileSystem interface has no size query, so
// every call reads the whole file to report its size.
func (s *Server) fillAttr(p string, attr *fuse.Attr) syscall.Errno {
	attr.Ino = s.inoFor(p)
	attr.Nlink = 1

	if p == vfsoverlay.Root || s.fsys.IsDirectory(p) {
		attr.Mode = dirMode
		attr.Nlink = 2
		return 0
	}
	if !s.fsys.Exists(p, true) {
		return syscall.ENOENT
	}

	data, err := s.fsys.ReadFile(p)
	if err != nil {
		return toErrno(err)
	}
	attr.Mode = fileMode
	if s.fsys.IsExecutableFile(p) {
		attr.Mode |= execBits
	}
	attr.Size = uint64(len(data))
	return 0
}

// dirEntries lists p with the type of every child
func (s *Server) dirEntries(p string) ([]fuse.DirEntry, syscall.Errno) {
	names, err := s.fsys.ReadDir(p)
	if err != nil {
		return nil, toErrno(err)
	}
	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		child := path.Join(p, name)
		mode := uint32(syscall.S_IFREG)
		if s.fsys.IsDirectory(child) {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: mode, Ino: s.inoFor(child)})
	}
	return entries, 0
}

// window returns at most size bytes of data starting at off
func window(data []byte, off int64, size int) []byte {
	if off >= int64(len(data)) {
		return nil
	}
	end := min(off+int64(size), int64(len(data)))
	return data[off:end]
}

func toErrno(err error) syscall.Errno {
	var errno syscall.Errno
	switch {
	case err == nil:
		return 0
	case errors.As(err, &errno):
		return errno
	case errors.Is(err, vfsoverlay.ErrNoEntry):
		return syscall.ENOENT
	case errors.Is(err, vfsoverlay.ErrUnsupported):
		return syscall.EROFS
	default:
		return syscall.EIO
	}
}
