package mocks

import (
	"io/fs"

	"github.com/stretchr/testify/mock"

	"github.com/brettbedarf/vfsoverlay"
)

// MockFileSystem implements vfsoverlay.FileSystem for testing across packages
type MockFileSystem struct {
	mock.Mock
}

func (m *MockFileSystem) Exists(path string, followSymlink bool) bool {
	return m.Called(path, followSymlink).Bool(0)
}

func (m *MockFileSystem) IsDirectory(path string) bool {
	return m.Called(path).Bool(0)
}

func (m *MockFileSystem) IsFile(path string) bool {
	return m.Called(path).Bool(0)
}

func (m *MockFileSystem) IsExecutableFile(path string) bool {
	return m.Called(path).Bool(0)
}

func (m *MockFileSystem) IsSymlink(path string) bool {
	return m.Called(path).Bool(0)
}

func (m *MockFileSystem) ReadDir(path string) ([]string, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	args := m.Called(path)

	// Handle function return types (for complex tests)
	if fn, ok := args.Get(0).(func(string) []byte); ok {
		return fn(path), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockFileSystem) WriteFile(path string, data []byte) error {
	return m.Called(path, data).Error(0)
}

func (m *MockFileSystem) Chmod(mode fs.FileMode, path string, recursive bool) error {
	return m.Called(mode, path, recursive).Error(0)
}

func (m *MockFileSystem) RemoveAll(path string) error {
	return m.Called(path).Error(0)
}

func (m *MockFileSystem) Mkdir(path string, recursive bool) error {
	return m.Called(path, recursive).Error(0)
}

func (m *MockFileSystem) Symlink(path, target string, relative bool) error {
	return m.Called(path, target, relative).Error(0)
}

func (m *MockFileSystem) Copy(src, dst string) error {
	return m.Called(src, dst).Error(0)
}

func (m *MockFileSystem) Move(src, dst string) error {
	return m.Called(src, dst).Error(0)
}

func (m *MockFileSystem) Getwd() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}

func (m *MockFileSystem) Chdir(path string) error {
	return m.Called(path).Error(0)
}

func (m *MockFileSystem) HomeDir() string {
	return m.Called().String(0)
}

func (m *MockFileSystem) CachesDir() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}

var _ vfsoverlay.FileSystem = (*MockFileSystem)(nil)
