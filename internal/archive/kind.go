package archive

import "strings"

// Kind is the container format of a downloaded artifact.
type Kind int

const (
	Unknown Kind = iota
	TarGz
	TarXz
	Zip
	Gzip
	Raw
)

func (k Kind) String() string {
	switch k {
	case TarGz:
		return "tar.gz"
	case TarXz:
		return "tar.xz"
	case Zip:
		return "zip"
	case Gzip:
		return "gz"
	case Raw:
		return "raw"
	default:
		return "unknown"
	}
}

// suffixes is checked in order; the first match wins.
var suffixes = []struct {
	kind Kind
	exts []string
}{
	{TarGz, []string{".tar.gz", ".tgz"}},
	{TarXz, []string{".tar.xz", ".txz"}},
	{Zip, []string{".zip"}},
	{Gzip, []string{".gz"}},
	{Raw, []string{".exe", ".com", ".appimage", ".AppImage"}},
}

// rawTailLen is how many trailing characters of a URL must be free of '.'
// for it to be treated as an extensionless binary.
const rawTailLen = 8

// DetectKind infers the container format from a download URL's suffix.
// URLs whose last few characters contain no '.' are taken to be bare
// executables. Anything else is Unknown.
func DetectKind(url string) Kind {
	for _, s := range suffixes {
		for _, ext := range s.exts {
			if strings.HasSuffix(url, ext) {
				return s.kind
			}
		}
	}

	tail := []rune(url)
	if len(tail) > rawTailLen {
		tail = tail[len(tail)-rawTailLen:]
	}
	if !strings.ContainsRune(string(tail), '.') {
		return Raw
	}
	return Unknown
}
