package scanner

import (
	"io/fs"
	"os"
)

// isListed reports whether a non-directory entry belongs in the file list.
// Symlinks are resolved: links to regular files are listed, links to
// directories are not, and dangling links are listed so the report can
// record them as missing. Pipes, sockets and devices are never listed.
func isListed(path string, d fs.DirEntry) bool {
	typ := d.Type()
	if typ.IsRegular() {
		return true
	}
	if typ&fs.ModeSymlink == 0 {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return info.Mode().IsRegular()
}
