package usecase

import (
	"sync"

	"github.com/liftops/kioskd/internal/domain"
)

// mockWindowSystem implements domain.WindowSystem for testing.
// It records mutating calls and serves canned enumeration results.
// Safe for concurrent use since the embedder spawns a watchdog goroutine.
type mockWindowSystem struct {
	mu sync.Mutex

	enumResults [][]domain.WindowInfo // Consumed one per WindowsOwnedBy call; last repeats
	enumErr     error
	enumCalls   int

	gone    map[domain.Handle]bool
	styles  map[domain.Handle]domain.WindowStyle
	parents map[domain.Handle]domain.Handle
	frames  map[domain.Handle]domain.Rect

	setParentErr error

	setParentCalls    []domain.Handle
	setStyleCalls     []domain.WindowStyle
	setFrameCalls     []domain.Rect
	clearTopmostCalls int
	forceTopmostCalls int
	frameChangeCalls  int
	showCalls         int
	focusCalls        int
	titleCalls        []string
	taskbarVisible    []bool
}

func newMockWindowSystem() *mockWindowSystem {
	return &mockWindowSystem{
		gone:    make(map[domain.Handle]bool),
		styles:  make(map[domain.Handle]domain.WindowStyle),
		parents: make(map[domain.Handle]domain.Handle),
		frames:  make(map[domain.Handle]domain.Rect),
	}
}

func (m *mockWindowSystem) WindowsOwnedBy(pid int) ([]domain.WindowInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enumCalls++
	if m.enumErr != nil {
		return nil, m.enumErr
	}
	if len(m.enumResults) == 0 {
		return nil, nil
	}
	result := m.enumResults[0]
	if len(m.enumResults) > 1 {
		m.enumResults = m.enumResults[1:]
	}
	return result, nil
}

func (m *mockWindowSystem) IsWindow(h domain.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.gone[h]
}

func (m *mockWindowSystem) IsVisible(h domain.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.gone[h]
}

func (m *mockWindowSystem) Parent(h domain.Handle) (domain.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.parents[h], nil
}

func (m *mockWindowSystem) SetParent(child, parent domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setParentErr != nil {
		return m.setParentErr
	}
	m.parents[child] = parent
	m.setParentCalls = append(m.setParentCalls, parent)
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
	m.setStyleCalls = append(m.setStyleCalls, s)
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
	m.setFrameCalls = append(m.setFrameCalls, r)
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
	m.titleCalls = append(m.titleCalls, title)
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

// Ensure mockWindowSystem implements domain.WindowSystem.
var _ domain.WindowSystem = (*mockWindowSystem)(nil)
