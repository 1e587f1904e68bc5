package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// HostDetector detects the running host.
type HostDetector struct {
	goos   string
	goarch string
}

// NewDetector creates a detector for the running host.
func NewDetector() *HostDetector {
	return &HostDetector{goos: runtime.GOOS, goarch: runtime.GOARCH}
}

// Detect reports OS and architecture from the Go runtime and, on Linux, the
// distribution via gopsutil. A failed distro lookup leaves those fields
// empty; only a cancelled ctx is an error.
func (d *HostDetector) Detect(ctx context.Context) (*Info, error) {
	arch, machine := normalizeArch(d.goarch)
	info := &Info{
		OS:      d.goos,
		Arch:    arch,
		Machine: machine,
	}

	if !info.IsLinux() {
		return info, nil
	}

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	if platform = normalizePlatform(platform); platform != "" {
		info.Platform = platform
		info.Family = mapFamily(family)
		info.Version = normalizePlatform(version)
	}
	return info, nil
}

// StaticDetector returns a fixed Info, for callers that pin the host values
// instead of consulting the machine.
type StaticDetector struct {
	Info Info
}

// Detect implements Detector.
func (s StaticDetector) Detect(context.Context) (*Info, error) {
	info := s.Info
	return &info, nil
}
