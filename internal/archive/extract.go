// Package archive pulls a single target file out of a downloaded artifact
// and marks it executable.
package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	pkgerrors "github.com/pkg/errors"
	"github.com/ulikunitz/xz"

	"github.com/cjrh/lifter/internal/config"
)

const defaultPerm os.FileMode = 0644

// Extractor writes the wanted file from an artifact to disk.
type Extractor struct {
	logger config.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger config.Logger) *Extractor {
	return &Extractor{logger: config.OrNop(logger)}
}

// Extract writes the payload of data to outputPath.
//
// For tar and zip containers the first regular file whose base name fully
// matches memberPattern is written; ErrMemberNotFound is returned when none
// does. Gzip streams and raw binaries are written whole and memberPattern is
// ignored. The output is replaced atomically.
func (e *Extractor) Extract(data []byte, kind Kind, memberPattern, outputPath string) error {
	switch kind {
	case TarGz:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return pkgerrors.WithStack(&ExtractionError{Kind: kind, Err: fmt.Errorf("create gzip reader: %w", err)})
		}
		defer zr.Close()
		return e.extractTar(zr, kind, memberPattern, outputPath)

	case TarXz:
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return pkgerrors.WithStack(&ExtractionError{Kind: kind, Err: fmt.Errorf("create xz reader: %w", err)})
		}
		return e.extractTar(xr, kind, memberPattern, outputPath)

	case Zip:
		return e.extractZip(data, memberPattern, outputPath)

	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return pkgerrors.WithStack(&ExtractionError{Kind: kind, Err: fmt.Errorf("create gzip reader: %w", err)})
		}
		defer zr.Close()
		e.logger.Debug("writing decompressed stream", "output", outputPath)
		return writeFile(zr, kind, outputPath, defaultPerm)

	case Raw:
		e.logger.Debug("writing raw artifact", "output", outputPath)
		return writeFile(bytes.NewReader(data), kind, outputPath, defaultPerm)

	default:
		return pkgerrors.Errorf("unsupported archive kind %v", kind)
	}
}

func (e *Extractor) extractTar(r io.Reader, kind Kind, memberPattern, outputPath string) error {
	re, err := compileMember(memberPattern)
	if err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return pkgerrors.WithStack(&ExtractionError{Kind: kind, Err: fmt.Errorf("read tar header: %w", err)})
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		base := path.Base(header.Name)
		e.logger.Debug("archive member", "kind", kind, "name", header.Name)
		if !re.MatchString(base) {
			continue
		}

		e.logger.Debug("archive member matched", "kind", kind, "name", header.Name, "output", outputPath)
		return writeFile(tr, kind, outputPath, modeOrDefault(os.FileMode(header.Mode)))
	}

	e.logger.Warn("failed to find file inside archive", "kind", kind, "pattern", memberPattern)
	return ErrMemberNotFound
}

func (e *Extractor) extractZip(data []byte, memberPattern, outputPath string) error {
	re, err := compileMember(memberPattern)
	if err != nil {
		return err
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return pkgerrors.WithStack(&ExtractionError{Kind: Zip, Err: fmt.Errorf("open zip: %w", err)})
	}

	for _, f := range zr.File {
		if !f.Mode().IsRegular() {
			continue
		}

		e.logger.Debug("archive member", "kind", Zip, "name", f.Name)
		if !re.MatchString(path.Base(f.Name)) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return pkgerrors.WithStack(&ExtractionError{Kind: Zip, Err: fmt.Errorf("open %s: %w", f.Name, err)})
		}
		defer rc.Close()

		e.logger.Debug("archive member matched", "kind", Zip, "name", f.Name, "output", outputPath)
		return writeFile(rc, Zip, outputPath, modeOrDefault(f.Mode().Perm()))
	}

	e.logger.Warn("failed to find file inside archive", "kind", Zip, "pattern", memberPattern)
	return ErrMemberNotFound
}

// compileMember fails with a ConfigError naming the field; the caller knows
// the section.
func compileMember(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, pkgerrors.WithStack(&config.ConfigError{
			Field: config.KeyArchiveMember,
			Err:   fmt.Errorf("%w: %v", config.ErrMalformedField, err),
		})
	}
	return re, nil
}

func modeOrDefault(mode os.FileMode) os.FileMode {
	if perm := mode.Perm(); perm != 0 {
		return perm
	}
	return defaultPerm
}

// trackingReader remembers read failures so a failed copy can be blamed on
// the container rather than the destination.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}

// writeFile copies r to a temporary file beside outputPath and renames it
// into place.
func writeFile(r io.Reader, kind Kind, outputPath string, perm os.FileMode) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pkgerrors.WithStack(&PathPermissionError{Path: outputPath, Err: fmt.Errorf("create dest dir: %w", err)})
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(outputPath)+".*.tmp")
	if err != nil {
		return pkgerrors.WithStack(&PathPermissionError{Path: outputPath, Err: fmt.Errorf("create temp file: %w", err)})
	}
	tmpPath := tmp.Name()

	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	src := &trackingReader{r: r}
	if _, err := io.Copy(tmp, src); err != nil {
		if src.err != nil {
			return pkgerrors.WithStack(&ExtractionError{Kind: kind, Err: fmt.Errorf("read payload: %w", err)})
		}
		return pkgerrors.WithStack(&PathPermissionError{Path: outputPath, Err: fmt.Errorf("write temp file: %w", err)})
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.WithStack(&PathPermissionError{Path: outputPath, Err: fmt.Errorf("close temp file: %w", err)})
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return pkgerrors.WithStack(&PathPermissionError{Path: outputPath, Err: fmt.Errorf("chmod temp file: %w", err)})
	}

	// Atomic rename
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return pkgerrors.WithStack(&PathPermissionError{Path: outputPath, Err: fmt.Errorf("rename temp file: %w", err)})
	}
	cleanupNeeded = false
	return nil
}
