// Package config provides startup configuration for the mask creator.
// Values come from an optional YAML file and are then overridden by flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate when a field holds an unusable value.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// InputDir is the directory scanned for images to annotate
	InputDir string `yaml:"input_dir"`

	// Extension selects which files in InputDir are annotateable (".tif")
	Extension string `yaml:"extension"`

	// LabelCount is the number of label ids, background included
	LabelCount int `yaml:"label_count"`

	// ShowBackgroundLabel tints label 0 when the mask view is on
	ShowBackgroundLabel bool `yaml:"show_background_label"`

	Display struct {
		Width      int `yaml:"width"`
		Height     int `yaml:"height"`
		PanelWidth int `yaml:"panel_width"`
	} `yaml:"display"`

	// Channels lists the derived single-channel views, in slider order
	Channels []string `yaml:"channels"`

	// DragThreshold separates a click from a click-drag
	DragThreshold time.Duration `yaml:"drag_threshold"`

	// RefreshInterval is the display loop cadence
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	Radius struct {
		Default int `yaml:"default"`
		Max     int `yaml:"max"`
	} `yaml:"radius"`

	// OverlayOpacity is the weight of the tint color in overlays (0..1)
	OverlayOpacity float64 `yaml:"overlay_opacity"`

	// MaskDirName is the subdirectory of InputDir that receives saved masks
	MaskDirName string `yaml:"mask_dir_name"`

	// ResumeMasks loads a previously saved mask when an image is opened
	ResumeMasks bool `yaml:"resume_masks"`

	// WatchInputDir picks up images added to InputDir while running
	WatchInputDir bool `yaml:"watch_input_dir"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{
		InputDir:        ".",
		Extension:       ".tif",
		LabelCount:      3,
		Channels:        []string{"red", "green", "blue"},
		DragThreshold:   250 * time.Millisecond,
		RefreshInterval: 100 * time.Millisecond,
		OverlayOpacity:  0.5,
		MaskDirName:     "masks",
	}

	cfg.Display.Width = 700
	cfg.Display.Height = 700
	cfg.Display.PanelWidth = 350

	cfg.Radius.Default = 10
	cfg.Radius.Max = 100

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the path is empty or the file doesn't exist, the defaults are returned.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.Extension = NormalizeExtension(cfg.Extension)
	return cfg, nil
}

// SaveConfig writes the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// NormalizeExtension lower-cases ext and makes sure it starts with a dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// MaskDir returns the directory saved masks are written to.
func (c *Config) MaskDir() string {
	return filepath.Join(c.InputDir, c.MaskDirName)
}

// FrameSize is the size of the composited frame: display area plus panel.
func (c *Config) FrameSize() (width, height int) {
	return c.Display.Width + c.Display.PanelWidth, c.Display.Height
}

// Validate checks every field and reports the first problem found
func (c *Config) Validate() error {
	switch {
	case c.InputDir == "":
		return fmt.Errorf("%w: input_dir is empty", ErrInvalid)
	case c.Extension == "" || c.Extension == ".":
		return fmt.Errorf("%w: extension is empty", ErrInvalid)
	case c.LabelCount < 2 || c.LabelCount > 256:
		return fmt.Errorf("%w: label_count must be in 2..256, got %d", ErrInvalid, c.LabelCount)
	case c.Display.Width <= 0 || c.Display.Height <= 0:
		return fmt.Errorf("%w: display size must be positive, got %dx%d", ErrInvalid, c.Display.Width, c.Display.Height)
	case c.Display.PanelWidth <= 0:
		return fmt.Errorf("%w: display.panel_width must be positive", ErrInvalid)
	case len(c.Channels) == 0:
		return fmt.Errorf("%w: channels is empty", ErrInvalid)
	case c.DragThreshold <= 0:
		return fmt.Errorf("%w: drag_threshold must be positive", ErrInvalid)
	case c.RefreshInterval <= 0:
		return fmt.Errorf("%w: refresh_interval must be positive", ErrInvalid)
	case c.Radius.Max < 1:
		return fmt.Errorf("%w: radius.max must be at least 1", ErrInvalid)
	case c.Radius.Default < 0 || c.Radius.Default > c.Radius.Max:
		return fmt.Errorf("%w: radius.default must be in 0..%d", ErrInvalid, c.Radius.Max)
	case c.OverlayOpacity < 0 || c.OverlayOpacity > 1:
		return fmt.Errorf("%w: overlay_opacity must be in 0..1", ErrInvalid)
	case c.MaskDirName == "" || strings.ContainsAny(c.MaskDirName, `/\`):
		return fmt.Errorf("%w: mask_dir_name must be a plain directory name", ErrInvalid)
	}
	return nil
}
