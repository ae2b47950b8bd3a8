package infra

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/liftops/kioskd/internal/domain"
)

// ExecLauncher implements domain.Launcher with os/exec. Hosted applications
// expect their working directory to be the executable's directory.
type ExecLauncher struct{}

// NewLauncher creates a new process launcher.
func NewLauncher() domain.Launcher {
	return &ExecLauncher{}
}

// Launch starts the executable and returns its PID. The child is not waited
// on; liveness is the health monitor's job.
func (l *ExecLauncher) Launch(path string) (int, error) {
	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("launch %s: %w", path, err)
	}

	pid := cmd.Process.Pid

	// Reap the child in the background so it never turns into a zombie.
	go func() { _ = cmd.Wait() }()

	return pid, nil
}

var _ domain.Launcher = (*ExecLauncher)(nil)
