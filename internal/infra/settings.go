package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"

	"github.com/liftops/kioskd/internal/domain"
)

// ClientSettingsStore implements domain.SettingsStore over the hosted
// client's JSON settings document. Only the per-mode launch-minified flag and
// the indicator size are interpreted; every other field is carried through
// untouched, so the document is handled as a generic JSON object.
type ClientSettingsStore struct {
	path        string
	controlPath string
}

// NewClientSettingsStore creates a settings store for the given document and
// optional control copy.
func NewClientSettingsStore(path, controlPath string) *ClientSettingsStore {
	return &ClientSettingsStore{path: path, controlPath: controlPath}
}

const (
	keyCurrentMode   = "CurrentUserModeId"
	keyUserModes     = "UserModes"
	keyLaunchFlag    = "LaunchWithMiniIndicator"
	keyIndicator     = "MiniIndicatorSettings"
	keyWindowHeight  = "WindowHeight"
	keyWindowWidth   = "WindowWidth"
	keyModeID        = "Id"
	settingsFileMode = 0o644
)

func (s *ClientSettingsStore) read() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *ClientSettingsStore) write(doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, settingsFileMode)
}

func userModes(doc map[string]any) []any {
	modes, _ := doc[keyUserModes].([]any)
	return modes
}

// SetLaunchMinified flips the launch-minified flag on the current mode entry
// and persists the document. When the current mode cannot be matched, every
// entry is updated so the behavior is certain.
func (s *ClientSettingsStore) SetLaunchMinified(value bool) error {
	doc, err := s.read()
	if err != nil {
		return err
	}

	modes := userModes(doc)
	if len(modes) == 0 {
		return fmt.Errorf("settings %s: no %s entries", s.path, keyUserModes)
	}

	currentID, _ := doc[keyCurrentMode].(string)
	changed := false

	if currentID != "" {
		for _, m := range modes {
			mode, ok := m.(map[string]any)
			if !ok {
				continue
			}
			if id, _ := mode[keyModeID].(string); id == currentID {
				if flag, _ := mode[keyLaunchFlag].(bool); flag != value {
					mode[keyLaunchFlag] = value
					changed = true
				}
				break
			}
		}
	}

	if !changed {
		for _, m := range modes {
			mode, ok := m.(map[string]any)
			if !ok {
				continue
			}
			if flag, _ := mode[keyLaunchFlag].(bool); flag != value {
				mode[keyLaunchFlag] = value
				changed = true
			}
		}
	}

	if !changed {
		return nil
	}
	return s.write(doc)
}

// EnsureLaunchMinified sets the flag true wherever it is false or absent.
func (s *ClientSettingsStore) EnsureLaunchMinified() (bool, error) {
	doc, err := s.read()
	if err != nil {
		return false, err
	}

	changed := false
	for _, m := range userModes(doc) {
		mode, ok := m.(map[string]any)
		if !ok {
			continue
		}
		if flag, _ := mode[keyLaunchFlag].(bool); !flag {
			mode[keyLaunchFlag] = true
			changed = true
		}
	}

	if !changed {
		return false, nil
	}
	return true, s.write(doc)
}

// MiniIndicatorSize returns the current mode's indicator window size, falling
// back to the first mode that carries indicator settings.
func (s *ClientSettingsStore) MiniIndicatorSize() (int, int, error) {
	doc, err := s.read()
	if err != nil {
		return 0, 0, err
	}

	currentID, _ := doc[keyCurrentMode].(string)
	modes := userModes(doc)

	if currentID != "" {
		for _, m := range modes {
			mode, ok := m.(map[string]any)
			if !ok {
				continue
			}
			if id, _ := mode[keyModeID].(string); id == currentID {
				if h, w, ok := indicatorSize(mode); ok {
					return h, w, nil
				}
			}
		}
	}

	for _, m := range modes {
		if mode, ok := m.(map[string]any); ok {
			if h, w, ok := indicatorSize(mode); ok {
				return h, w, nil
			}
		}
	}

	return 0, 0, nil
}

func indicatorSize(mode map[string]any) (int, int, bool) {
	settings, ok := mode[keyIndicator].(map[string]any)
	if !ok {
		return 0, 0, false
	}
	h, hok := settings[keyWindowHeight].(float64)
	w, wok := settings[keyWindowWidth].(float64)
	if !hok && !wok {
		return 0, 0, false
	}
	return int(h), int(w), true
}

// SyncFromControl replaces the settings document with the control copy when
// the two differ. The previous document is kept as a .bak sibling.
func (s *ClientSettingsStore) SyncFromControl() (bool, error) {
	if s.controlPath == "" {
		return false, nil
	}

	controlData, err := os.ReadFile(s.controlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	var control map[string]any
	if err := json.Unmarshal(controlData, &control); err != nil {
		return false, fmt.Errorf("parse control settings %s: %w", s.controlPath, err)
	}

	target, err := s.read()
	if err != nil {
		return false, err
	}

	if reflect.DeepEqual(control, target) {
		return false, nil
	}

	if backup, err := json.MarshalIndent(target, "", "  "); err == nil {
		_ = os.WriteFile(s.path+".bak", backup, settingsFileMode)
	}

	return true, s.write(control)
}

var _ domain.SettingsStore = (*ClientSettingsStore)(nil)
