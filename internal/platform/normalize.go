package platform

import "strings"

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian, // gopsutil might return ubuntu as family
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// archNames maps architecture spellings to their Go and uname forms.
var archNames = map[string][2]string{
	"amd64":   {"amd64", "x86_64"},
	"x86_64":  {"amd64", "x86_64"},
	"arm64":   {"arm64", "aarch64"},
	"aarch64": {"arm64", "aarch64"},
	"386":     {"386", "i686"},
	"i686":    {"386", "i686"},
	"arm":     {"arm", "armv7"},
	"riscv64": {"riscv64", "riscv64"},
}

// normalizeArch returns the Go and uname spellings of arch. Unrecognized
// architectures are passed through unchanged for both.
func normalizeArch(arch string) (goArch, machine string) {
	key := strings.ToLower(strings.TrimSpace(arch))
	if names, ok := archNames[key]; ok {
		return names[0], names[1]
	}
	return arch, arch
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
