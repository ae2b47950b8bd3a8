//go:build !windows

package infra

import "github.com/liftops/kioskd/internal/domain"

// NewWindowSystem has no native implementation off Windows; the caller gets
// domain.ErrUnsupported and decides how loudly to fail.
func NewWindowSystem() (domain.WindowSystem, error) {
	return nil, domain.ErrUnsupported
}

// NewOverlaySurface has no native implementation off Windows.
func NewOverlaySurface(name string) (domain.OverlaySurface, error) {
	return nil, domain.ErrUnsupported
}

// NewShell has no native implementation off Windows.
func NewShell(topHeight int) (domain.RegionProvider, error) {
	return nil, domain.ErrUnsupported
}
