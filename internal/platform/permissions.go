package platform

import (
	"io/fs"
	"os"
	"runtime"
)

// DefaultFileMode is used for archive entries that carry no permission bits.
const DefaultFileMode fs.FileMode = 0644

// EntryMode returns the permission bits an extracted file is created with.
func EntryMode(m fs.FileMode) fs.FileMode {
	if perm := m.Perm(); perm != 0 {
		return perm
	}
	return DefaultFileMode
}

// RestoreExec reapplies mode to path when it has executable bits, since the
// umask may have cleared them at create time. No-op on Windows, which has no
// Unix permission bits.
func RestoreExec(path string, mode fs.FileMode) error {
	if runtime.GOOS == "windows" || mode&0111 == 0 {
		return nil
	}
	return os.Chmod(path, mode.Perm())
}
