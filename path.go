package vfsoverlay

import (
	"path"
	"strings"
)

// Root is the virtual filesystem root
const Root = "/"

// Clean returns the canonical absolute form of p. Relative paths are
// anchored at [Root], so "a/b", "/a/b/" and "/a/./b" all become "/a/b".
func Clean(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// IsAbs reports whether p is an absolute virtual path
func IsAbs(p string) bool {
	return strings.HasPrefix(p, "/")
}

// IsAncestorOrEqual reports whether ancestor is p or one of its parent
// directories. Both paths must already be cleaned.
func IsAncestorOrEqual(ancestor, p string) bool {
	if ancestor == p || ancestor == Root {
		return true
	}
	return strings.HasPrefix(p, ancestor+"/")
}

// Join joins name under dir and cleans the result. name may contain several
// segments and may climb with "..", but never above [Root].
func Join(dir, name string) string {
	return Clean(path.Join(dir, name))
}
