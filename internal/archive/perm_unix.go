//go:build unix

package archive

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
)

func setExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return pkgerrors.WithStack(&PathPermissionError{Path: path, Err: fmt.Errorf("stat: %w", err)})
	}
	if info.Mode().Perm()&0o111 != 0 {
		return nil
	}
	if err := os.Chmod(path, 0o755); err != nil {
		return pkgerrors.WithStack(&PathPermissionError{Path: path, Err: fmt.Errorf("set executable: %w", err)})
	}
	return nil
}
