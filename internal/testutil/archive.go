package testutil

import (
	"archive/tar"
	"bytes"
	"io/fs"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// File is an archive member. A Name ending in "/" is a directory.
type File struct {
	Name    string
	Content string
	Mode    int64 // 0644 when zero
}

func (f File) isDir() bool {
	return len(f.Name) > 0 && f.Name[len(f.Name)-1] == '/'
}

func (f File) mode() int64 {
	if f.Mode == 0 {
		return 0644
	}
	return f.Mode
}

// TarGz builds a .tar.gz archive holding files in order.
func TarGz(t *testing.T, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, f := range files {
		header := &tar.Header{Name: f.Name, Mode: f.mode(), Size: int64(len(f.Content)), Typeflag: tar.TypeReg}
		if f.isDir() {
			header = &tar.Header{Name: f.Name, Mode: 0755, Typeflag: tar.TypeDir}
		}
		require.NoError(t, tarWriter.WriteHeader(header), "write header for %s", f.Name)
		_, err := tarWriter.Write([]byte(f.Content))
		require.NoError(t, err, "write content for %s", f.Name)
	}

	require.NoError(t, tarWriter.Close())
	require.NoError(t, gzipWriter.Close())
	return buf.Bytes()
}

// Zip builds a .zip archive holding files in order.
func Zip(t *testing.T, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	for _, f := range files {
		header := &zip.FileHeader{Name: f.Name, Method: zip.Deflate}
		if f.isDir() {
			header.SetMode(fs.ModeDir | 0755)
		} else {
			header.SetMode(fs.FileMode(f.mode()))
		}
		w, err := zipWriter.CreateHeader(header)
		require.NoError(t, err, "create %s", f.Name)
		if f.isDir() {
			continue
		}
		_, err = w.Write([]byte(f.Content))
		require.NoError(t, err, "write %s", f.Name)
	}

	require.NoError(t, zipWriter.Close())
	return buf.Bytes()
}
