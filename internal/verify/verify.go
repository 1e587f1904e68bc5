// Package verify checks downloaded artifacts against published SHA-256
// checksums and OpenPGP detached signatures.
package verify

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	pkgerrors "github.com/pkg/errors"

	"github.com/cjrh/lifter/internal/config"
)

// Method is a verification method.
type Method string

const (
	MethodSHA256 Method = "sha256"
	MethodGPG    Method = "gpg"
)

// Error reports a failed verification.
type Error struct {
	Method Method
	URL    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s verification of %s failed: %v", e.Method, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Downloader fetches sidecar files.
type Downloader interface {
	Download(ctx context.Context, url string, progress func(float64)) ([]byte, error)
}

// Verifier checks artifacts using sidecar files published next to them.
type Verifier struct {
	downloader Downloader
	logger     config.Logger
}

// New creates a Verifier.
func New(d Downloader, logger config.Logger) *Verifier {
	return &Verifier{downloader: d, logger: config.OrNop(logger)}
}

// Verify checks data, downloaded from downloadURL, using whatever spec
// configures. Checksums are checked before signatures. A spec with neither
// configured passes.
func (v *Verifier) Verify(ctx context.Context, downloadURL string, data []byte, spec *config.EntrySpec) error {
	if spec.ChecksumSuffix != "" {
		if err := v.verifySHA256(ctx, downloadURL, data, spec.ChecksumSuffix); err != nil {
			return err
		}
		v.logger.Info("checksum verified", "section", spec.Section, "url", downloadURL)
	}

	if spec.SignatureSuffix != "" {
		if err := v.verifyGPG(ctx, downloadURL, data, spec.SignatureSuffix, spec.Keyring); err != nil {
			return err
		}
		v.logger.Info("signature verified", "section", spec.Section, "url", downloadURL)
	}

	return nil
}

func (v *Verifier) verifySHA256(ctx context.Context, downloadURL string, data []byte, suffix string) error {
	fail := func(err error) error {
		return pkgerrors.WithStack(&Error{Method: MethodSHA256, URL: downloadURL, Err: err})
	}

	sums, err := v.downloader.Download(ctx, downloadURL+suffix, nil)
	if err != nil {
		return fail(fmt.Errorf("download checksum file: %w", err))
	}

	expected, err := findChecksum(sums, assetName(downloadURL))
	if err != nil {
		return fail(err)
	}

	sum := sha256.Sum256(data)
	actual := hex.EncodeToString(sum[:])

	// Compare checksums (case-insensitive)
	if !strings.EqualFold(actual, expected) {
		return fail(fmt.Errorf("checksum mismatch: actual %s, expected %s", actual, expected))
	}
	return nil
}

func (v *Verifier) verifyGPG(ctx context.Context, downloadURL string, data []byte, suffix, keyringPath string) error {
	fail := func(err error) error {
		return pkgerrors.WithStack(&Error{Method: MethodGPG, URL: downloadURL, Err: err})
	}

	if keyringPath == "" {
		return fail(fmt.Errorf("signature_suffix is set but no keyring is configured"))
	}
	keyring, err := loadKeyring(keyringPath)
	if err != nil {
		return fail(err)
	}

	sig, err := v.downloader.Download(ctx, downloadURL+suffix, nil)
	if err != nil {
		return fail(fmt.Errorf("download signature: %w", err))
	}

	// Verify signature (try armored first)
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	if err != nil {
		_, err = openpgp.CheckDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	}
	if err != nil {
		return fail(fmt.Errorf("verify signature: %w", err))
	}
	return nil
}

// loadKeyring reads an armored or binary OpenPGP keyring.
func loadKeyring(keyringPath string) (openpgp.EntityList, error) {
	raw, err := os.ReadFile(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}

	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(raw))
	if err != nil {
		// Try reading as non-armored keyring
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}
	return keyring, nil
}

// assetName returns the last path segment of a download URL.
func assetName(downloadURL string) string {
	if u, err := url.Parse(downloadURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(downloadURL)
}

// findChecksum finds the checksum for filename in sha256sum output.
// Format: "abc123def456  filename.tar.gz", optionally with "*" before the
// name. A file holding a single bare hash applies to any name.
func findChecksum(sums []byte, filename string) (string, error) {
	var (
		lone  string
		lines int
	)

	scanner := bufio.NewScanner(bytes.NewReader(sums))
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		lines++
		if len(parts) == 1 {
			lone = parts[0]
			continue
		}

		name := strings.TrimPrefix(parts[1], "*")
		if name == filename || path.Base(name) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}
	if lines == 1 && lone != "" {
		return lone, nil
	}

	return "", fmt.Errorf("checksum not found for %s", filename)
}
