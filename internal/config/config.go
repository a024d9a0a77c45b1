// Package config manages persistent user preferences for Phosphor.
// Settings are stored as JSON at os.UserConfigDir()/phosphor/config.json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all persistent user preferences that are not part of a
// preset (presets live under PresetDir, see Path/PresetDir).
type Config struct {
	Theme             string  `json:"theme"`
	CaptureDeviceID    int     `json:"capture_device_id"`
	MasterOpacity      float64 `json:"master_opacity"`
	TargetFPS          float64 `json:"target_fps"`
	LastPreset         string  `json:"last_preset"`
	PostProcessEnabled bool    `json:"post_process_enabled"`
	MIDIEnabled        bool    `json:"midi_enabled"`
	OSCEnabled         bool    `json:"osc_enabled"`
	OSCListenPort      int     `json:"osc_listen_port"`
	WebControlPort     int     `json:"web_control_port"`
	StatusPort         int     `json:"status_port"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Theme:              "dark",
		CaptureDeviceID:    -1,
		MasterOpacity:      1.0,
		TargetFPS:          60.0,
		PostProcessEnabled: true,
		MIDIEnabled:        true,
		OSCEnabled:         true,
		OSCListenPort:      9000,
		WebControlPort:     9001,
		StatusPort:         9002,
	}
}

// Path returns the absolute path to the config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "phosphor", "config.json"), nil
}

// PresetDir returns the directory presets are saved/loaded from
// (phosphor/presets/*.json per the persisted-paths contract).
func PresetDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "phosphor", "presets"), nil
}

// ControlConfigPath returns the path of one of the control-surface config
// files (phosphor/{midi,osc,web}.json).
func ControlConfigPath(surface string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "phosphor", surface+".json"), nil
}

// Load reads the config file and returns it. If the file is missing,
// unreadable, or malformed, the default config is returned and the original
// file (if any) is left untouched — never an error.
func Load() Config {
	path, err := Path()
	if err != nil {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default()
	}
	return cfg
}

// Save writes cfg to disk, creating the directory if needed.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
