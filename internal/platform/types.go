// Package platform detects the host OS, architecture and Linux distribution
// so that release URLs and asset patterns can refer to them.
//
// The values are exposed as substitution variables: {os}, {arch},
// {machine}, {platform} and {family}.
package platform

import "context"

// Linux distribution families.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Substitution variable names.
const (
	VarOS       = "os"
	VarArch     = "arch"
	VarMachine  = "machine"
	VarPlatform = "platform"
	VarFamily   = "family"
)

// Info describes the host.
type Info struct {
	OS       string // runtime.GOOS: "linux", "darwin", "windows"
	Arch     string // Go spelling: "amd64", "arm64", or GOARCH when unrecognized
	Machine  string // uname spelling used in most asset names: "x86_64", "aarch64"
	Platform string // distro ID (Linux only, e.g., "ubuntu", "arch")
	Family   string // canonical family (e.g., "debian", "rhel", "arch")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// Vars returns the placeholder values for config substitution. Distro
// fields are empty when unknown, so configs can still reference them.
func (i *Info) Vars() map[string]string {
	return map[string]string{
		VarOS:       i.OS,
		VarArch:     i.Arch,
		VarMachine:  i.Machine,
		VarPlatform: i.Platform,
		VarFamily:   i.Family,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
