//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/GosuCode/oklch-color-preview/internal/errors"
)

// openFileNoFollowRead opens a file for reading with O_NOFOLLOW so a symlink
// swapped in after ValidateImportPath is rejected. O_CLOEXEC prevents FD
// leaks across exec.
func openFileNoFollowRead(path string) (*os.File, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot read from symlink")
		}
		if stderrors.Is(err, syscall.ENOENT) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
