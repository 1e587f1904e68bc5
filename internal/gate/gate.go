// Package gate decides whether a found release should replace what is
// installed.
package gate

import (
	"os"

	"github.com/cjrh/lifter/internal/hit"
)

// ShouldUpdate reports whether h should be downloaded. A missing target is
// always updated. Otherwise the found version must sort after the recorded
// one as a plain string, so "9.0.0" is considered newer than "10.0.0".
func ShouldUpdate(h hit.Hit, recorded string, targetExists bool) bool {
	if !targetExists {
		return true
	}
	return h.Version > recorded
}

// TargetExists reports whether anything exists at path.
func TargetExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
