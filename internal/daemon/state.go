// Package daemon contains the kiosk's long-running loops and their shared
// state: the embedding guardian, the overlay blocker, the process health
// monitor and the mode controller.
package daemon

import (
	"sync"
	"sync/atomic"

	"github.com/liftops/kioskd/internal/domain"
)

// KioskState is the single shared context object every loop reads. It holds
// the hosted-app registry, the tracked PID set, and the three mode flags
// loops check at the top of each tick. Registry reads may observe entries
// that are absent, stale or mid-update; readers re-validate against the OS
// before acting.
type KioskState struct {
	mu   sync.RWMutex
	apps map[string]domain.HostedApp // keyed by title

	loading      atomic.Bool
	calibration  atomic.Bool
	passwordOpen atomic.Bool

	// transition is the single "reload/calibration in flight" gate.
	transition atomic.Bool
}

// NewKioskState creates empty shared state.
func NewKioskState() *KioskState {
	return &KioskState{
		apps: make(map[string]domain.HostedApp),
	}
}

// Register stores the app's current PID and window, replacing any previous
// entry under the same title.
func (s *KioskState) Register(app domain.HostedApp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[app.Title] = app
}

// App returns the registry entry for the title, if any.
func (s *KioskState) App(title string) (domain.HostedApp, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[title]
	return app, ok
}

// Apps returns a snapshot of all registered apps.
func (s *KioskState) Apps() []domain.HostedApp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apps := make([]domain.HostedApp, 0, len(s.apps))
	for _, app := range s.apps {
		apps = append(apps, app)
	}
	return apps
}

// RegisteredPID returns the PID currently registered for the title, or zero.
// Health monitors use it to detect that they have gone stale.
func (s *KioskState) RegisteredPID(title string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apps[title].PID
}

// TrackedPIDs returns every registered app's PID, skipping zeros.
func (s *KioskState) TrackedPIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pids := make([]int, 0, len(s.apps))
	for _, app := range s.apps {
		if app.PID > 0 {
			pids = append(pids, app.PID)
		}
	}
	return pids
}

// ClearTracking zeroes every entry's PID and window ahead of a relaunch. The
// records themselves persist.
func (s *KioskState) ClearTracking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for title, app := range s.apps {
		app.PID = 0
		app.Window = 0
		s.apps[title] = app
	}
}

// SetLoading flips the loading flag, which suspends every guardian, monitor
// and overlay.
func (s *KioskState) SetLoading(v bool) { s.loading.Store(v) }

// Loading reports the loading flag.
func (s *KioskState) Loading() bool { return s.loading.Load() }

// SetCalibration flips the calibration flag, which suspends guardians and
// overlays while the layout is unlocked for settings use.
func (s *KioskState) SetCalibration(v bool) { s.calibration.Store(v) }

// Calibration reports the calibration flag.
func (s *KioskState) Calibration() bool { return s.calibration.Load() }

// SetPasswordDialogOpen flips the password-dialog flag, which hides overlays
// so the dialog stays reachable.
func (s *KioskState) SetPasswordDialogOpen(v bool) { s.passwordOpen.Store(v) }

// PasswordDialogOpen reports the password-dialog flag.
func (s *KioskState) PasswordDialogOpen() bool { return s.passwordOpen.Load() }

// BeginTransition acquires the single transition gate. Returns false when a
// reload or calibration switch already holds it; the caller must abort.
func (s *KioskState) BeginTransition() bool {
	return s.transition.CompareAndSwap(false, true)
}

// EndTransition releases the transition gate.
func (s *KioskState) EndTransition() {
	s.transition.Store(false)
}

// TransitionInFlight reports whether the gate is held.
func (s *KioskState) TransitionInFlight() bool {
	return s.transition.Load()
}
