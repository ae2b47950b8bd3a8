package daemon

import (
	"context"
	"sync"

	"github.com/liftops/kioskd/internal/domain"
)

// mockWindowSystem implements domain.WindowSystem for testing. All fields
// are mutex-guarded since daemons exercise it from multiple goroutines.
type mockWindowSystem struct {
	mu sync.Mutex

	gone    map[domain.Handle]bool
	hidden  map[domain.Handle]bool
	parents map[domain.Handle]domain.Handle
	styles  map[domain.Handle]domain.WindowStyle
	frames  map[domain.Handle]domain.Rect

	// owned maps PIDs to the windows the locator should find for them.
	owned map[int][]domain.WindowInfo

	setParentCalls    int
	setStyleCalls     int
	setFrameCalls     int
	clearTopmostCalls int
	forceTopmostCalls int
	frameChangeCalls  int
	showCalls         int
	focusCalls        int
	titles            []string
	taskbarVisible    []bool
}

func newMockWindowSystem() *mockWindowSystem {
	return &mockWindowSystem{
		gone:    make(map[domain.Handle]bool),
		hidden:  make(map[domain.Handle]bool),
		parents: make(map[domain.Handle]domain.Handle),
		styles:  make(map[domain.Handle]domain.WindowStyle),
		frames:  make(map[domain.Handle]domain.Rect),
		owned:   make(map[int][]domain.WindowInfo),
	}
}

// addWindow makes a window discoverable for the PID.
func (m *mockWindowSystem) addWindow(pid int, h domain.Handle, frame domain.Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owned[pid] = append(m.owned[pid], domain.WindowInfo{Handle: h, Frame: frame})
	m.frames[h] = frame
}

// correctiveCalls counts the mutating calls a guardian correction makes.
func (m *mockWindowSystem) correctiveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setParentCalls + m.setStyleCalls + m.setFrameCalls +
		m.clearTopmostCalls + m.frameChangeCalls + m.showCalls
}

func (m *mockWindowSystem) WindowsOwnedBy(pid int) ([]domain.WindowInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owned[pid], nil
}

func (m *mockWindowSystem) IsWindow(h domain.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.gone[h]
}

func (m *mockWindowSystem) IsVisible(h domain.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.gone[h] && !m.hidden[h]
}

func (m *mockWindowSystem) Parent(h domain.Handle) (domain.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.parents[h], nil
}

func (m *mockWindowSystem) SetParent(child, parent domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parents[child] = parent
	m.setParentCalls++
	return nil
}

func (m *mockWindowSystem) Style(h domain.Handle) (domain.WindowStyle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.styles[h], nil
}

func (m *mockWindowSystem) SetStyle(h domain.Handle, s domain.WindowStyle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.styles[h] = s
	m.setStyleCalls++
	return nil
}

func (m *mockWindowSystem) Frame(h domain.Handle) (domain.Rect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames[h], nil
}

func (m *mockWindowSystem) SetFrame(h domain.Handle, r domain.Rect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames[h] = r
	m.setFrameCalls++
	return nil
}

func (m *mockWindowSystem) ApplyFrameChange(h domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frameChangeCalls++
	return nil
}

func (m *mockWindowSystem) ClearTopmost(h domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearTopmostCalls++
	return nil
}

func (m *mockWindowSystem) ForceTopmost(h domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forceTopmostCalls++
	return nil
}

func (m *mockWindowSystem) Show(h domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.showCalls++
	return nil
}

func (m *mockWindowSystem) SetTitle(h domain.Handle, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = append(m.titles, title)
	return nil
}

func (m *mockWindowSystem) FocusWithoutRaise(h domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focusCalls++
	return nil
}

func (m *mockWindowSystem) SetTaskbarVisible(visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.taskbarVisible = append(m.taskbarVisible, visible)
	return nil
}

var _ domain.WindowSystem = (*mockWindowSystem)(nil)

// mockRegionProvider implements domain.RegionProvider for testing.
type mockRegionProvider struct {
	mu      sync.Mutex
	regions map[string]domain.HostRegion

	calibrationCalls []([2]int)
	restoreCalls     int
}

func newMockRegionProvider() *mockRegionProvider {
	return &mockRegionProvider{
		regions: map[string]domain.HostRegion{
			domain.RegionTop: {
				Name:     domain.RegionTop,
				Handle:   domain.Handle(801),
				Frame:    domain.Rect{X: 0, Y: 0, Width: 1920, Height: 120},
				Fallback: domain.Rect{X: 0, Y: 0, Width: 1920, Height: 120},
			},
			domain.RegionBottom: {
				Name:     domain.RegionBottom,
				Handle:   domain.Handle(802),
				Frame:    domain.Rect{X: 0, Y: 120, Width: 1920, Height: 960},
				Fallback: domain.Rect{X: 0, Y: 120, Width: 1920, Height: 960},
			},
		},
	}
}

func (m *mockRegionProvider) Region(name string) (domain.HostRegion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	region, ok := m.regions[name]
	if !ok {
		return domain.HostRegion{}, domain.ErrRegionUnknown
	}
	return region, nil
}

func (m *mockRegionProvider) setFrame(name string, frame domain.Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	region := m.regions[name]
	region.Frame = frame
	m.regions[name] = region
}

func (m *mockRegionProvider) ApplyCalibrationLayout(topHeight, bottomHeight int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calibrationCalls = append(m.calibrationCalls, [2]int{topHeight, bottomHeight})
	return nil
}

func (m *mockRegionProvider) RestoreLayout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restoreCalls++
	return nil
}

var _ domain.RegionProvider = (*mockRegionProvider)(nil)

// mockLauncher implements domain.Launcher, handing out sequential PIDs.
type mockLauncher struct {
	mu       sync.Mutex
	nextPID  int
	launched []string
	err      error
}

func newMockLauncher() *mockLauncher {
	return &mockLauncher{nextPID: 1000}
}

func (m *mockLauncher) Launch(path string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.nextPID++
	m.launched = append(m.launched, path)
	return m.nextPID, nil
}

var _ domain.Launcher = (*mockLauncher)(nil)

// mockProcessManager implements domain.ProcessManager for testing.
type mockProcessManager struct {
	mu      sync.Mutex
	dead    map[int]bool
	killed  []int
	killErr error
}

func newMockProcessManager() *mockProcessManager {
	return &mockProcessManager{dead: make(map[int]bool)}
}

func (m *mockProcessManager) IsRunning(pid int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.dead[pid]
}

func (m *mockProcessManager) markDead(pid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dead[pid] = true
}

func (m *mockProcessManager) Kill(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.killErr != nil {
		return m.killErr
	}
	m.dead[pid] = true
	m.killed = append(m.killed, pid)
	return nil
}

func (m *mockProcessManager) CurrentPID() int { return 1 }

var _ domain.ProcessManager = (*mockProcessManager)(nil)

// mockSettingsStore implements domain.SettingsStore for testing.
type mockSettingsStore struct {
	mu              sync.Mutex
	minifiedCalls   []bool
	ensureChanged   bool
	syncChanged     bool
	indicatorHeight int
	indicatorWidth  int
}

func (m *mockSettingsStore) SetLaunchMinified(value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.minifiedCalls = append(m.minifiedCalls, value)
	return nil
}

func (m *mockSettingsStore) EnsureLaunchMinified() (bool, error) {
	return m.ensureChanged, nil
}

func (m *mockSettingsStore) MiniIndicatorSize() (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indicatorHeight, m.indicatorWidth, nil
}

func (m *mockSettingsStore) SyncFromControl() (bool, error) {
	return m.syncChanged, nil
}

var _ domain.SettingsStore = (*mockSettingsStore)(nil)

// mockStatusSink implements domain.StatusSink, recording everything.
type mockStatusSink struct {
	mu       sync.Mutex
	statuses []string
	alerts   []string
}

func (m *mockStatusSink) SetStatus(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, text)
}

func (m *mockStatusSink) Alert(title, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, title+": "+message)
}

func (m *mockStatusSink) alertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}

var _ domain.StatusSink = (*mockStatusSink)(nil)

// mockOverlaySurface implements domain.OverlaySurface for testing.
type mockOverlaySurface struct {
	mu sync.Mutex

	visible    bool
	frame      domain.Rect
	raiseCalls int
	setFrames  []domain.Rect
}

func (m *mockOverlaySurface) Handle() domain.Handle { return domain.Handle(700) }

func (m *mockOverlaySurface) SetFrame(r domain.Rect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = r
	m.setFrames = append(m.setFrames, r)
	return nil
}

func (m *mockOverlaySurface) SetVisible(visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = visible
	return nil
}

func (m *mockOverlaySurface) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

func (m *mockOverlaySurface) RaiseTopmost() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raiseCalls++
	return nil
}

func (m *mockOverlaySurface) Close() error { return nil }

var _ domain.OverlaySurface = (*mockOverlaySurface)(nil)

// mockReloader implements Reloader, counting calls and releasing the gate
// the way the real controller does.
type mockReloader struct {
	mu    sync.Mutex
	state *KioskState
	calls int
}

func (m *mockReloader) Reload(ctx context.Context, reason string) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.state != nil {
		m.state.EndTransition()
	}
	return nil
}

func (m *mockReloader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Reloader = (*mockReloader)(nil)
