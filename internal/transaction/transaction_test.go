package transaction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate(t *testing.T) {
	t.Run("replaces contents", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lifter.ini")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0640))

		err := Update(context.Background(), path, func(current []byte) ([]byte, error) {
			assert.Equal(t, "old", string(current))
			return []byte("new"), nil
		})
		require.NoError(t, err)

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

		assert.NoFileExists(t, LockPath(path), "lock file should be released")
	})

	t.Run("leaves file untouched when mutate fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lifter.ini")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

		boom := errors.New("boom")
		err := Update(context.Background(), path, func([]byte) ([]byte, error) {
			return nil, boom
		})
		require.ErrorIs(t, err, boom)

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "old", string(got))
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.ini")
		err := Update(context.Background(), path, func(b []byte) ([]byte, error) { return b, nil })
		assert.Error(t, err)
	})

	t.Run("serializes concurrent writers", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "counter")
		require.NoError(t, os.WriteFile(path, []byte("0"), 0644))

		const writers = 8
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := Update(context.Background(), path, func(current []byte) ([]byte, error) {
					n, err := strconv.Atoi(string(current))
					if err != nil {
						return nil, err
					}
					return []byte(fmt.Sprint(n + 1)), nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprint(writers), string(got))
	})
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out")

	require.NoError(t, WriteFileAtomic(path, []byte("payload"), 0600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temp files")
}
