// Package config loads the kiosk configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/liftops/kioskd/internal/domain"
)

// App configures one hosted application.
type App struct {
	Title  string `yaml:"title"`
	Path   string `yaml:"path"`
	Region string `yaml:"region"` // "top" or "bottom"
	Fill   string `yaml:"fill"`   // "fill" or "preserve"
}

// Layout configures the shell's region geometry.
type Layout struct {
	TopHeight int `yaml:"top_height"` // strip height for the top region, px
	// Calibration layout: top region height override and bottom region
	// height while the settings UI is unlocked.
	CalibrationTopHeight    int `yaml:"calibration_top_height"`
	CalibrationBottomHeight int `yaml:"calibration_bottom_height"`
}

// Settings points at the hosted client's JSON settings documents.
type Settings struct {
	ClientPath  string `yaml:"client_path"`
	ControlPath string `yaml:"control_path"`
}

// Config is the root kiosk configuration.
type Config struct {
	Apps     []App    `yaml:"apps"`
	Layout   Layout   `yaml:"layout"`
	Settings Settings `yaml:"settings"`
	LogPath  string   `yaml:"log_path"`
}

// Default returns the configuration used when no file is present, mirroring
// the standard two-application deployment.
func Default() Config {
	appData := os.Getenv("APPDATA")
	settingsDir := filepath.Join(appData, "Rice Lake Weighing Systems", "VIRTUi3", "settings")

	return Config{
		Apps: []App{
			{
				Title:  "Indicator Client",
				Path:   `C:\Program Files (x86)\Rice Lake Weighing Systems\VIRTUi3\Client.exe`,
				Region: "top",
				Fill:   string(domain.PreserveNativeSize),
			},
			{
				Title:  "Bar-Code",
				Path:   `C:\Program Files (x86)\Rice Lake Weighing Systems\SZ3690438\Client.exe`,
				Region: "bottom",
				Fill:   string(domain.FillRegion),
			},
		},
		Layout: Layout{
			TopHeight:               120,
			CalibrationTopHeight:    900,
			CalibrationBottomHeight: 300,
		},
		Settings: Settings{
			ClientPath:  filepath.Join(settingsDir, "ClientSettingsData.json"),
			ControlPath: filepath.Join(settingsDir, "ClientSettingsData.control.json"),
		},
		LogPath: filepath.Join(os.TempDir(), "kioskd.log"),
	}
}

// Load reads the configuration file, falling back to defaults when the file
// does not exist.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the launch pipeline cannot act on.
func (c Config) Validate() error {
	if len(c.Apps) == 0 {
		return fmt.Errorf("config: no applications configured")
	}
	for _, app := range c.Apps {
		if app.Title == "" || app.Path == "" {
			return fmt.Errorf("config: application entries need title and path")
		}
		if app.Region != "top" && app.Region != "bottom" {
			return fmt.Errorf("config: app %q: region must be top or bottom", app.Title)
		}
		switch domain.FillPolicy(app.Fill) {
		case domain.FillRegion, domain.PreserveNativeSize:
		default:
			return fmt.Errorf("config: app %q: fill must be fill or preserve", app.Title)
		}
	}
	if c.Layout.TopHeight <= 0 {
		return fmt.Errorf("config: layout top_height must be positive")
	}
	return nil
}

// FillPolicy returns the app's fill policy as a domain value.
func (a App) FillPolicy() domain.FillPolicy {
	return domain.FillPolicy(a.Fill)
}
