//go:build windows

package infra

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/liftops/kioskd/internal/domain"
)

const (
	shellClassName  = "KioskdShell"
	regionClassName = "KioskdRegion"
)

var shellClassOnce sync.Once
var shellClassErr error

func shellWndProc(hwnd, message, wParam, lParam uintptr) uintptr {
	if message == wmDestroy {
		procPostQuitMessage.Call(0)
		return 0
	}
	ret, _, _ := procDefWindowProc.Call(hwnd, message, wParam, lParam)
	return ret
}

// Win32Shell owns the fullscreen container window and the two child region
// windows hosted apps get reparented into. The container sits at the screen
// origin, so child client coordinates and screen coordinates coincide.
type Win32Shell struct {
	container uintptr
	top       uintptr
	bottom    uintptr

	screenW   int
	screenH   int
	topHeight int
}

var _ domain.RegionProvider = (*Win32Shell)(nil)

// NewShell builds the container with a top strip of topHeight pixels and a
// bottom region covering the remainder of the screen.
func NewShell(topHeight int) (domain.RegionProvider, error) {
	shellClassOnce.Do(func() {
		cb := newWndProcCallback(shellWndProc)
		shellClassErr = registerClass(shellClassName, cb, solidBrush(0x000000))
		if shellClassErr == nil {
			shellClassErr = registerClass(regionClassName, cb, solidBrush(0x000000))
		}
	})
	if shellClassErr != nil {
		return nil, shellClassErr
	}

	screenW, screenH := screenSize()
	s := &Win32Shell{screenW: screenW, screenH: screenH, topHeight: topHeight}

	container, err := runWindowThread(func() (uintptr, error) {
		c, err := createWindow(createSpec{
			className: shellClassName,
			title:     "Kiosk Shell",
			style:     wsPopup | wsVisible,
			x:         0,
			y:         0,
			w:         screenW,
			h:         screenH,
		})
		if err != nil {
			return 0, err
		}
		s.top, err = createWindow(createSpec{
			className: regionClassName,
			title:     "top",
			style:     wsChild | wsVisible,
			x:         0,
			y:         0,
			w:         screenW,
			h:         topHeight,
			parent:    c,
		})
		if err != nil {
			return 0, err
		}
		s.bottom, err = createWindow(createSpec{
			className: regionClassName,
			title:     "bottom",
			style:     wsChild | wsVisible,
			x:         0,
			y:         topHeight,
			w:         screenW,
			h:         screenH - topHeight,
			parent:    c,
		})
		if err != nil {
			return 0, err
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	s.container = container
	return s, nil
}

func (s *Win32Shell) regionHandle(name string) (uintptr, error) {
	switch name {
	case domain.RegionTop:
		return s.top, nil
	case domain.RegionBottom:
		return s.bottom, nil
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrRegionUnknown, name)
}

// Region reports the region window with its live on-screen frame. The frame
// is zero-sized until the container finishes its first layout pass, which
// callers detect through Rect.Degenerate.
func (s *Win32Shell) Region(name string) (domain.HostRegion, error) {
	h, err := s.regionHandle(name)
	if err != nil {
		return domain.HostRegion{}, err
	}

	var r winRect
	ret, _, callErr := procGetWindowRect.Call(h, uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return domain.HostRegion{}, fmt.Errorf("GetWindowRect %s: %w", name, callErr)
	}

	return domain.HostRegion{
		Name:     name,
		Handle:   domain.Handle(h),
		Frame:    r.toRect(),
		Fallback: s.fallbackFrame(name),
	}, nil
}

func (s *Win32Shell) fallbackFrame(name string) domain.Rect {
	if name == domain.RegionTop {
		return domain.Rect{X: 0, Y: 0, Width: 1920, Height: 120}
	}
	return domain.Rect{X: 0, Y: 120, Width: 1920, Height: 960}
}

func (s *Win32Shell) moveRegion(h uintptr, r domain.Rect) error {
	ret, _, err := procSetWindowPos.Call(h, hwndTop,
		uintptr(r.X), uintptr(r.Y), uintptr(r.Width), uintptr(r.Height),
		swpNoZOrder|swpNoActivate)
	if ret == 0 {
		return err
	}
	return nil
}

// ApplyCalibrationLayout grows the top region to topHeight and pins the
// bottom region to a bottomHeight strip along the lower screen edge.
func (s *Win32Shell) ApplyCalibrationLayout(topHeight, bottomHeight int) error {
	if err := s.moveRegion(s.top, domain.Rect{X: 0, Y: 0, Width: s.screenW, Height: topHeight}); err != nil {
		return err
	}
	return s.moveRegion(s.bottom, domain.Rect{
		X: 0, Y: s.screenH - bottomHeight, Width: s.screenW, Height: bottomHeight,
	})
}

// RestoreLayout returns both regions to the standard split.
func (s *Win32Shell) RestoreLayout() error {
	if err := s.moveRegion(s.top, domain.Rect{X: 0, Y: 0, Width: s.screenW, Height: s.topHeight}); err != nil {
		return err
	}
	return s.moveRegion(s.bottom, domain.Rect{
		X: 0, Y: s.topHeight, Width: s.screenW, Height: s.screenH - s.topHeight,
	})
}
