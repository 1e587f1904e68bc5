package archive

import "strings"

// MakeExecutable sets mode 0755 on path when it has no execute bit. Paths
// ending in ".exe" are left alone, as is everything on platforms without
// POSIX permissions.
func MakeExecutable(path string) error {
	if strings.HasSuffix(path, ".exe") {
		return nil
	}
	return setExecutable(path)
}
