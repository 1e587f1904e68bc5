package gate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjrh/lifter/internal/hit"
)

func TestShouldUpdate(t *testing.T) {
	tests := []struct {
		name         string
		found        string
		recorded     string
		targetExists bool
		want         bool
	}{
		{"newer version", "13.0.0", "12.1.1", true, true},
		{"same version", "13.0.0", "13.0.0", true, false},
		{"older version", "12.1.1", "13.0.0", true, false},
		{"no recorded version", "1.0.0", "", true, true},
		{"missing target with same version", "13.0.0", "13.0.0", false, true},
		{"missing target with older version", "1.0", "2.0", false, true},
		{"string order, not numeric", "9.0.0", "10.0.0", true, true},
		{"string order hides numeric upgrade", "10.0.0", "9.0.0", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldUpdate(hit.Hit{Version: tt.found}, tt.recorded, tt.targetExists)
			assert.Equal(t, tt.want, got, "found %q, recorded %q, target exists %v", tt.found, tt.recorded, tt.targetExists)
		})
	}
}

func TestShouldUpdateNeverDowngradesExistingTarget(t *testing.T) {
	versions := []string{"", "0.1", "1.0.0", "1.10.0", "1.9.0", "2", "v2.0", "13.0.0"}
	for _, recorded := range versions {
		for _, found := range versions {
			if found > recorded {
				continue
			}
			assert.False(t, ShouldUpdate(hit.Hit{Version: found}, recorded, true),
				"found %q <= recorded %q should not update", found, recorded)
			assert.True(t, ShouldUpdate(hit.Hit{Version: found}, recorded, false),
				"missing target should always update (found %q, recorded %q)", found, recorded)
		}
	}
}

func TestTargetExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rg")

	assert.False(t, TargetExists(path))
	require.NoError(t, os.WriteFile(path, []byte("bin"), 0755))
	assert.True(t, TargetExists(path))
}
