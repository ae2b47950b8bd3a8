// Package fixtures provides in-memory fakes of the OS-facing interfaces for
// integration tests, simulating a window system the kiosk can embed into.
package fixtures

import (
	"sync"

	"github.com/liftops/kioskd/internal/domain"
)

// FakeWindowSystem implements domain.WindowSystem over an in-memory window
// table. Launched fake processes get windows assigned via AddWindow.
type FakeWindowSystem struct {
	mu sync.Mutex

	owned   map[int][]domain.WindowInfo
	parents map[domain.Handle]domain.Handle
	styles  map[domain.Handle]domain.WindowStyle
	frames  map[domain.Handle]domain.Rect
	gone    map[domain.Handle]bool
}

func NewFakeWindowSystem() *FakeWindowSystem {
	return &FakeWindowSystem{
		owned:   make(map[int][]domain.WindowInfo),
		parents: make(map[domain.Handle]domain.Handle),
		styles:  make(map[domain.Handle]domain.WindowStyle),
		frames:  make(map[domain.Handle]domain.Rect),
		gone:    make(map[domain.Handle]bool),
	}
}

// AddWindow registers a top-level window for the PID, styled the way a
// freshly started desktop app presents itself.
func (f *FakeWindowSystem) AddWindow(pid int, h domain.Handle, frame domain.Rect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owned[pid] = append(f.owned[pid], domain.WindowInfo{Handle: h, Frame: frame})
	f.frames[h] = frame
	f.styles[h] = domain.StyleCaption | domain.StyleThickFrame
}

// ParentOf reports the window's current parent.
func (f *FakeWindowSystem) ParentOf(h domain.Handle) domain.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.parents[h]
}

// StyleOf reports the window's current style bits.
func (f *FakeWindowSystem) StyleOf(h domain.Handle) domain.WindowStyle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.styles[h]
}

func (f *FakeWindowSystem) WindowsOwnedBy(pid int) ([]domain.WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owned[pid], nil
}

func (f *FakeWindowSystem) IsWindow(h domain.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.gone[h]
}

func (f *FakeWindowSystem) IsVisible(h domain.Handle) bool {
	return f.IsWindow(h)
}

func (f *FakeWindowSystem) Parent(h domain.Handle) (domain.Handle, error) {
	return f.ParentOf(h), nil
}

func (f *FakeWindowSystem) SetParent(child, parent domain.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parents[child] = parent
	return nil
}

func (f *FakeWindowSystem) Style(h domain.Handle) (domain.WindowStyle, error) {
	return f.StyleOf(h), nil
}

func (f *FakeWindowSystem) SetStyle(h domain.Handle, s domain.WindowStyle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.styles[h] = s
	return nil
}

func (f *FakeWindowSystem) Frame(h domain.Handle) (domain.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames[h], nil
}

func (f *FakeWindowSystem) SetFrame(h domain.Handle, r domain.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames[h] = r
	return nil
}

func (f *FakeWindowSystem) ApplyFrameChange(h domain.Handle) error { return nil }
func (f *FakeWindowSystem) ClearTopmost(h domain.Handle) error     { return nil }
func (f *FakeWindowSystem) ForceTopmost(h domain.Handle) error     { return nil }
func (f *FakeWindowSystem) Show(h domain.Handle) error             { return nil }

func (f *FakeWindowSystem) SetTitle(h domain.Handle, title string) error { return nil }
func (f *FakeWindowSystem) FocusWithoutRaise(h domain.Handle) error      { return nil }
func (f *FakeWindowSystem) SetTaskbarVisible(visible bool) error         { return nil }

var _ domain.WindowSystem = (*FakeWindowSystem)(nil)

// FakeShell implements domain.RegionProvider with the standard two-region
// layout at 1920x1080.
type FakeShell struct {
	mu      sync.Mutex
	regions map[string]domain.HostRegion
}

func NewFakeShell(topHeight int) *FakeShell {
	return &FakeShell{
		regions: map[string]domain.HostRegion{
			domain.RegionTop: {
				Name:     domain.RegionTop,
				Handle:   domain.Handle(801),
				Frame:    domain.Rect{X: 0, Y: 0, Width: 1920, Height: topHeight},
				Fallback: domain.Rect{X: 0, Y: 0, Width: 1920, Height: 120},
			},
			domain.RegionBottom: {
				Name:     domain.RegionBottom,
				Handle:   domain.Handle(802),
				Frame:    domain.Rect{X: 0, Y: topHeight, Width: 1920, Height: 1080 - topHeight},
				Fallback: domain.Rect{X: 0, Y: 120, Width: 1920, Height: 960},
			},
		},
	}
}

func (f *FakeShell) Region(name string) (domain.HostRegion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	region, ok := f.regions[name]
	if !ok {
		return domain.HostRegion{}, domain.ErrRegionUnknown
	}
	return region, nil
}

func (f *FakeShell) ApplyCalibrationLayout(topHeight, bottomHeight int) error { return nil }
func (f *FakeShell) RestoreLayout() error                                     { return nil }

var _ domain.RegionProvider = (*FakeShell)(nil)

// FakeLauncher implements domain.Launcher with sequential PIDs, registering
// a window for each launch when wired to a FakeWindowSystem.
type FakeLauncher struct {
	mu      sync.Mutex
	nextPID int
	ws      *FakeWindowSystem
	// WindowFrame is the native frame new fake windows get.
	WindowFrame domain.Rect
}

func NewFakeLauncher(ws *FakeWindowSystem) *FakeLauncher {
	return &FakeLauncher{
		nextPID:     5000,
		ws:          ws,
		WindowFrame: domain.Rect{X: 200, Y: 200, Width: 1024, Height: 768},
	}
}

func (f *FakeLauncher) Launch(path string) (int, error) {
	f.mu.Lock()
	f.nextPID++
	pid := f.nextPID
	f.mu.Unlock()

	f.ws.AddWindow(pid, domain.Handle(pid*10), f.WindowFrame)
	return pid, nil
}

var _ domain.Launcher = (*FakeLauncher)(nil)

// FakeProcessManager implements domain.ProcessManager; every launched PID
// counts as running until killed.
type FakeProcessManager struct {
	mu   sync.Mutex
	dead map[int]bool
}

func NewFakeProcessManager() *FakeProcessManager {
	return &FakeProcessManager{dead: make(map[int]bool)}
}

func (f *FakeProcessManager) IsRunning(pid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.dead[pid]
}

func (f *FakeProcessManager) Kill(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dead[pid] = true
	return nil
}

func (f *FakeProcessManager) CurrentPID() int { return 1 }

var _ domain.ProcessManager = (*FakeProcessManager)(nil)

// FakeSettingsStore implements domain.SettingsStore as a no-op recorder.
type FakeSettingsStore struct {
	mu            sync.Mutex
	MinifiedCalls []bool
}

func (f *FakeSettingsStore) SetLaunchMinified(value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MinifiedCalls = append(f.MinifiedCalls, value)
	return nil
}

func (f *FakeSettingsStore) EnsureLaunchMinified() (bool, error)  { return false, nil }
func (f *FakeSettingsStore) MiniIndicatorSize() (int, int, error) { return 0, 0, nil }
func (f *FakeSettingsStore) SyncFromControl() (bool, error)       { return false, nil }

var _ domain.SettingsStore = (*FakeSettingsStore)(nil)

// FakeStatusSink implements domain.StatusSink, recording everything.
type FakeStatusSink struct {
	mu       sync.Mutex
	Statuses []string
	Alerts   []string
}

func (f *FakeStatusSink) SetStatus(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Statuses = append(f.Statuses, text)
}

func (f *FakeStatusSink) Alert(title, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Alerts = append(f.Alerts, title+": "+message)
}

var _ domain.StatusSink = (*FakeStatusSink)(nil)

// FakeOverlaySurface implements domain.OverlaySurface in memory.
type FakeOverlaySurface struct {
	mu      sync.Mutex
	visible bool
	frame   domain.Rect
}

func (f *FakeOverlaySurface) Handle() domain.Handle { return domain.Handle(700) }

func (f *FakeOverlaySurface) SetFrame(r domain.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frame = r
	return nil
}

func (f *FakeOverlaySurface) SetVisible(visible bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = visible
	return nil
}

func (f *FakeOverlaySurface) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

func (f *FakeOverlaySurface) CurrentFrame() domain.Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame
}

func (f *FakeOverlaySurface) RaiseTopmost() error { return nil }
func (f *FakeOverlaySurface) Close() error        { return nil }

var _ domain.OverlaySurface = (*FakeOverlaySurface)(nil)
