package composite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/vfsoverlay"
	"github.com/brettbedarf/vfsoverlay/internal/mocks"
	"github.com/brettbedarf/vfsoverlay/providers"
	"github.com/brettbedarf/vfsoverlay/redirect"
)

const overlayManifest = `{
  "case-sensitive": true,
  "overlay-relative": true,
  "roots": [
    { "name": /a/, "type": "directory",
      "contents": [{ "name": a.swiftmodule, "type": "file", "external-contents": b.swiftmodule }] }
  ],
  "use-external-names": true,
  "version": 0
}`

func TestComposite_ShadowPrecedence(t *testing.T) {
	t.Parallel()

	t.Run("OverlayOnly", func(t *testing.T) {
		t.Parallel()
		base := &mocks.MockFileSystem{}
		overlay := &mocks.MockFileSystem{}
		base.On("Exists", "/x", true).Return(false)
		overlay.On("Exists", "/x", true).Return(true)
		overlay.On("IsFile", "/x").Return(true)

		c := New(base, overlay)

		assert.True(t, c.Exists("/x", true))
		p, idx, ok := c.Owner("/x")
		require.True(t, ok)
		assert.Same(t, overlay, p, "existence must be attributed to the overlay")
		assert.Equal(t, 1, idx)
		assert.True(t, c.IsFile("/x"))
		base.AssertNotCalled(t, "IsFile", "/x")
	})

	t.Run("BothHavePath", func(t *testing.T) {
		t.Parallel()
		base := &mocks.MockFileSystem{}
		overlay := &mocks.MockFileSystem{}
		overlay.On("Exists", "/x", true).Return(true)
		overlay.On("ReadFile", "/x").Return([]byte("overlay"), nil)

		c := New(base, overlay)

		data, err := c.ReadFile("/x")
		require.NoError(t, err)
		assert.Equal(t, []byte("overlay"), data, "highest index must win")
		base.AssertNotCalled(t, "Exists", "/x", true)
		base.AssertNotCalled(t, "ReadFile", "/x")
	})

	t.Run("FallsThroughToBase", func(t *testing.T) {
		t.Parallel()
		base := &mocks.MockFileSystem{}
		mid := &mocks.MockFileSystem{}
		top := &mocks.MockFileSystem{}
		top.On("Exists", "/x", true).Return(false)
		mid.On("Exists", "/x", true).Return(false)
		base.On("Exists", "/x", true).Return(true)
		base.On("IsDirectory", "/x").Return(true)
		base.On("ReadDir", "/x").Return([]string{"a", "b"}, nil)

		c := New(base, mid, top)

		assert.True(t, c.IsDirectory("/x"))
		names, err := c.ReadDir("/x")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, names)
		top.AssertExpectations(t)
		mid.AssertExpectations(t)
	})
}

func TestComposite_WritesTargetBase(t *testing.T) {
	t.Parallel()

	base := providers.NewMemory()
	overlay := providers.NewAferoMemory()
	require.NoError(t, overlay.WriteFile("/x", []byte("overlay")))

	c := New(base, overlay)
	require.NoError(t, c.WriteFile("/x", []byte("base")))

	data, err := base.ReadFile("/x")
	require.NoError(t, err)
	assert.Equal(t, []byte("base"), data, "write must land in the base")

	data, err = c.ReadFile("/x")
	require.NoError(t, err)
	assert.Equal(t, []byte("overlay"), data, "the overlay must keep shadowing reads")
}

func TestComposite_MutationsRouteToBase(t *testing.T) {
	t.Parallel()

	base := &mocks.MockFileSystem{}
	overlay := &mocks.MockFileSystem{}
	base.On("WriteFile", "/f", []byte("d")).Return(nil)
	base.On("Chmod", mock.Anything, "/f", true).Return(nil)
	base.On("RemoveAll", "/f").Return(nil)
	base.On("Mkdir", "/d", false).Return(nil)
	base.On("Symlink", "/l", "/f", true).Return(nil)
	base.On("Copy", "/f", "/g").Return(nil)
	base.On("Move", "/g", "/h").Return(nil)
	base.On("Chdir", "/d").Return(nil)
	base.On("Getwd").Return("/d", true)
	base.On("HomeDir").Return("/home/me")
	base.On("CachesDir").Return("/cache", true)

	c := New(base, overlay)

	require.NoError(t, c.WriteFile("/f", []byte("d")))
	require.NoError(t, c.Chmod(0o700, "/f", true))
	require.NoError(t, c.RemoveAll("/f"))
	require.NoError(t, c.Mkdir("/d", false))
	require.NoError(t, c.Symlink("/l", "/f", true))
	require.NoError(t, c.Copy("/f", "/g"))
	require.NoError(t, c.Move("/g", "/h"))
	require.NoError(t, c.Chdir("/d"))
	cwd, ok := c.Getwd()
	assert.True(t, ok)
	assert.Equal(t, "/d", cwd)
	assert.Equal(t, "/home/me", c.HomeDir())
	dir, ok := c.CachesDir()
	assert.True(t, ok)
	assert.Equal(t, "/cache", dir)

	base.AssertExpectations(t)
	assert.Empty(t, overlay.Calls, "overlays must never receive mutations")
}

func TestComposite_NoMatch(t *testing.T) {
	t.Parallel()

	c := New(providers.NewMemory(), providers.NewMemory())

	assert.False(t, c.Exists("/nope", true))
	assert.False(t, c.IsDirectory("/nope"))
	assert.False(t, c.IsFile("/nope"))
	assert.False(t, c.IsExecutableFile("/nope"))
	assert.False(t, c.IsSymlink("/nope"))

	names, err := c.ReadDir("/nope")
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)

	_, err = c.ReadFile("/nope")
	assert.ErrorIs(t, err, vfsoverlay.ErrNoEntry)
}

func TestComposite_ErrorsUnwrapped(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	base := &mocks.MockFileSystem{}
	base.On("Exists", "/x", true).Return(true)
	base.On("ReadFile", "/x").Return(nil, boom)
	base.On("WriteFile", "/x", []byte("d")).Return(boom)

	c := New(base)

	_, err := c.ReadFile("/x")
	assert.Same(t, boom, err)
	assert.Same(t, boom, c.WriteFile("/x", []byte("d")))
}

func TestComposite_Providers(t *testing.T) {
	t.Parallel()

	base := providers.NewMemory()
	c := New(base)
	snapshot := c.Providers()
	require.Len(t, snapshot, 1)

	overlay := providers.NewAferoMemory()
	c.AddOverlay(overlay)

	assert.Len(t, snapshot, 1, "snapshots must not observe later registrations")
	all := c.Providers()
	require.Len(t, all, 2)
	assert.Same(t, base, all[0])
	assert.Same(t, overlay, all[1])
	assert.Same(t, base, c.Base())

	all[0] = overlay
	assert.Same(t, base, c.Base(), "mutating a snapshot must not reorder layers")
	assert.Equal(t, "composite(2 layers)", c.String())
	assert.Equal(t, "afero/memory", Describe(overlay))
	assert.Equal(t, "*mocks.MockFileSystem", Describe(&mocks.MockFileSystem{}))
}

func TestComposite_RedirectingLayer(t *testing.T) {
	t.Parallel()

	base := providers.NewMemory()
	require.NoError(t, base.WriteFile("/a/overlay.yaml", []byte(overlayManifest)))
	require.NoError(t, base.WriteFile("/a/b.swiftmodule", []byte("A SwiftModule")))

	rfs, err := redirect.New("/a/overlay.yaml", base)
	require.NoError(t, err)

	for name, c := range map[string]*FileSystem{
		"redirect below base": New(rfs, base),
		"redirect above base": New(base, rfs),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			data, err := c.ReadFile("/a/a.swiftmodule")
			require.NoError(t, err)
			assert.Equal(t, []byte("A SwiftModule"), data)

			data, err = c.ReadFile("/a/overlay.yaml")
			require.NoError(t, err)
			assert.Equal(t, []byte(overlayManifest), data, "unmapped paths must pass through to the real file")
		})
	}
}

func TestComposite_Nesting(t *testing.T) {
	t.Parallel()

	inner := New(providers.NewMemory(), providers.NewMemory())
	require.NoError(t, inner.WriteFile("/nested.txt", []byte("inner")))

	outer := New(providers.NewMemory(), inner)

	data, err := outer.ReadFile("/nested.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("inner"), data)
	assert.True(t, outer.IsFile("/nested.txt"))
}
