//go:build windows

package infra

import (
	"sync"

	"github.com/liftops/kioskd/internal/domain"
)

const overlayClassName = "KioskdOverlay"

// Overlay alpha of 3/255 keeps the window effectively invisible while still
// receiving input. A fully transparent layered window would be click-through.
const overlayAlpha = 3

var overlayClassOnce sync.Once
var overlayClassErr error

// overlayWndProc swallows mouse button input so clicks never reach whatever
// sits underneath. Pointer movement falls through to DefWindowProc so the
// cursor stays live.
func overlayWndProc(hwnd, message, wParam, lParam uintptr) uintptr {
	switch message {
	case wmLButtonDown, wmLButtonDblClk, wmRButtonDown, wmMButtonDown:
		return 0
	case wmDestroy:
		procPostQuitMessage.Call(0)
		return 0
	}
	ret, _, _ := procDefWindowProc.Call(hwnd, message, wParam, lParam)
	return ret
}

// Win32Overlay is a layered, borderless, always-on-top window that absorbs
// mouse clicks over the region it covers.
type Win32Overlay struct {
	hwnd uintptr

	mu      sync.Mutex
	visible bool
}

var _ domain.OverlaySurface = (*Win32Overlay)(nil)

// NewOverlaySurface creates the overlay window hidden at 1x1. Callers size it
// with SetFrame and reveal it with SetVisible.
func NewOverlaySurface(name string) (domain.OverlaySurface, error) {
	overlayClassOnce.Do(func() {
		overlayClassErr = registerClass(overlayClassName,
			newWndProcCallback(overlayWndProc), solidBrush(0x000000))
	})
	if overlayClassErr != nil {
		return nil, overlayClassErr
	}

	hwnd, err := runWindowThread(func() (uintptr, error) {
		h, err := createWindow(createSpec{
			className: overlayClassName,
			title:     name,
			exStyle:   wsExLayered | wsExTopmost | wsExToolWindow,
			style:     wsPopup,
			x:         0,
			y:         0,
			w:         1,
			h:         1,
		})
		if err != nil {
			return 0, err
		}
		procSetLayeredWindowAttrs.Call(h, 0, overlayAlpha, lwaAlpha)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return &Win32Overlay{hwnd: hwnd}, nil
}

func (o *Win32Overlay) Handle() domain.Handle {
	return domain.Handle(o.hwnd)
}

func (o *Win32Overlay) SetFrame(r domain.Rect) error {
	ret, _, err := procSetWindowPos.Call(o.hwnd, hwndTopmost,
		uintptr(r.X), uintptr(r.Y), uintptr(r.Width), uintptr(r.Height),
		swpNoActivate)
	if ret == 0 {
		return err
	}
	return nil
}

func (o *Win32Overlay) SetVisible(visible bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	cmd := uintptr(swHide)
	if visible {
		cmd = swShowNoActivate
	}
	procShowWindow.Call(o.hwnd, cmd)
	o.visible = visible
	return nil
}

func (o *Win32Overlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// RaiseTopmost reasserts the overlay's z-order without moving or resizing it.
func (o *Win32Overlay) RaiseTopmost() error {
	ret, _, err := procSetWindowPos.Call(o.hwnd, hwndTopmost, 0, 0, 0, 0,
		swpNoMove|swpNoSize|swpNoActivate)
	if ret == 0 {
		return err
	}
	return nil
}

func (o *Win32Overlay) Close() error {
	procPostMessage.Call(o.hwnd, wmClose, 0, 0)
	return nil
}
