package server

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/brettbedarf/vfsoverlay"
	"github.com/brettbedarf/vfsoverlay/composite"
	"github.com/brettbedarf/vfsoverlay/config"
	"github.com/brettbedarf/vfsoverlay/manifest"
	"github.com/brettbedarf/vfsoverlay/providers"
	"github.com/brettbedarf/vfsoverlay/redirect"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	base := providers.NewAferoMemory()
	require.NoError(t, base.WriteFile("/docs/readme.txt", []byte("hello world")))
	require.NoError(t, base.WriteFile("/bin/tool", []byte("#!")))
	require.NoError(t, base.Chmod(0o755, "/bin/tool", false))
	require.NoError(t, base.WriteFile("/real/gen.h", []byte("generated")))

	m := manifest.New(manifest.Options{},
		manifest.NewDirectory("/docs", manifest.NewFile("gen.h", "/real/gen.h", nil)),
	)
	c := composite.New(base, redirect.NewFromManifest(m, "", base))
	return New(c, config.NewDefaultConfig())
}

func TestServer_Getattr(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		path  string
		mode  uint32
		size  uint64
		errno syscall.Errno
	}{
		{"/", dirMode, 0, 0},
		{"/docs", dirMode, 0, 0},
		{"/docs/readme.txt", fileMode, 11, 0},
		{"/docs/gen.h", fileMode, 9, 0},
		{"/missing", 0, 0, syscall.ENOENT},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			var out fuse.AttrOut
			n := &node{srv: s, path: tt.path}

			errno := n.Getattr(context.Background(), nil, &out)

			assert.Equal(t, tt.errno, errno)
			if tt.errno != 0 {
				return
			}
			assert.Equal(t, tt.mode, out.Mode)
			assert.Equal(t, tt.size, out.Size)
			assert.NotZero(t, out.Ino)
		})
	}
}

func TestServer_ExecutableMode(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	var attr fuse.Attr
	require.Zero(t, s.fillAttr("/bin/tool", &attr))
	assert.Equal(t, uint32(fileMode|execBits), attr.Mode)
}

func TestServer_StableInodes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	assert.Equal(t, uint64(fuse.FUSE_ROOT_ID), s.inoFor("/"))
	first := s.inoFor("/docs/readme.txt")
	assert.Equal(t, first, s.inoFor("/docs/readme.txt"), "inode numbers must be stable per path")
	assert.NotEqual(t, first, s.inoFor("/docs"))
}

func TestServer_Readdir(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	entries, errno := s.dirEntries("/")
	require.Zero(t, errno)

	byName := make(map[string]uint32)
	for _, e := range entries {
		byName[e.Name] = e.Mode
	}
	assert.Equal(t, map[string]uint32{
		"bin":  syscall.S_IFDIR,
		"docs": syscall.S_IFDIR,
		"real": syscall.S_IFDIR,
	}, byName)

	stream, errno := (&node{srv: s, path: "/docs"}).Readdir(context.Background())
	require.Zero(t, errno)
	var names []string
	for stream.HasNext() {
		e, errno := stream.Next()
		require.Zero(t, errno)
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"readme.txt"}, names, "listings come from the owning layer only")
}

func TestServer_Read(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	n := &node{srv: s, path: "/docs/readme.txt"}

	tests := []struct {
		name string
		off  int64
		size int
		want string
	}{
		{"whole", 0, 64, "hello world"},
		{"middle", 6, 3, "wor"},
		{"tail", 6, 64, "world"},
		{"past end", 100, 4, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, errno := n.Read(context.Background(), nil, make([]byte, tt.size), tt.off)
			require.Zero(t, errno)
			data, status := res.Bytes(make([]byte, tt.size))
			require.Equal(t, fuse.OK, status)
			assert.Equal(t, tt.want, string(data))
		})
	}

	_, errno := (&node{srv: s, path: "/nope"}).Read(context.Background(), nil, make([]byte, 4), 0)
	assert.Equal(t, syscall.ENOENT, errno)
}

func TestServer_OpenReadOnly(t *testing.T) {
	t.Parallel()
	n := &node{srv: newTestServer(t), path: "/docs/readme.txt"}

	_, _, errno := n.Open(context.Background(), syscall.O_RDONLY)
	assert.Zero(t, errno)

	_, _, errno = n.Open(context.Background(), syscall.O_WRONLY)
	assert.Equal(t, syscall.EROFS, errno)

	_, _, errno = n.Open(context.Background(), syscall.O_RDWR)
	assert.Equal(t, syscall.EROFS, errno)
}

func TestServer_ReadThroughHandle(t *testing.T) {
	t.Parallel()
	base := providers.NewMemory()
	require.NoError(t, base.WriteFile("/f.txt", []byte("first")))
	n := &node{srv: New(base, config.NewDefaultConfig()), path: "/f.txt"}

	fh, _, errno := n.Open(context.Background(), syscall.O_RDONLY)
	require.Zero(t, errno)
	require.IsType(t, &handle{}, fh)

	require.NoError(t, base.WriteFile("/f.txt", []byte("second")))

	res, errno := n.Read(context.Background(), fh, make([]byte, 3), 1)
	require.Zero(t, errno)
	data, status := res.Bytes(make([]byte, 3))
	require.Equal(t, fuse.OK, status)
	assert.Equal(t, "irs", string(data), "reads through a handle must serve the contents seen at open")

	_, _, errno = (&node{srv: n.srv, path: "/missing"}).Open(context.Background(), syscall.O_RDONLY)
	assert.Equal(t, syscall.ENOENT, errno)
}

func TestToErrno(t *testing.T) {
	t.Parallel()

	assert.Zero(t, toErrno(nil))
	assert.Equal(t, syscall.ENOENT, toErrno(vfsoverlay.NoEntry(vfsoverlay.OpRead, "/x")))
	assert.Equal(t, syscall.EROFS, toErrno(vfsoverlay.Unsupported(vfsoverlay.OpWrite, "/x")))
	assert.Equal(t, syscall.EISDIR, toErrno(&vfsoverlay.PathError{Op: "read", Path: "/d", Err: syscall.EISDIR}))
	assert.Equal(t, syscall.EIO, toErrno(errors.New("boom")))
}

func TestSeconds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1500*time.Millisecond, seconds(1.5))
	assert.Equal(t, time.Duration(0), seconds(0))
}

func TestServer_UnmountBeforeServe(t *testing.T) {
	t.Parallel()

	s := New(providers.NewMemory(), config.NewDefaultConfig())
	assert.NoError(t, s.Unmount(), "unmounting an unmounted server must be a no-op")
	s.Wait()
}
