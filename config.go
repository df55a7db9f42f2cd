package pixelshapes

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the editor configuration file.
type Config struct {
	View    ViewConfig    `yaml:"view"`
	Persist PersistConfig `yaml:"persist"`
	Storage StorageConfig `yaml:"storage"`
	Debug   bool          `yaml:"debug"`
}

// ViewConfig bounds the zoom and sets the fit-to-content margin.
type ViewConfig struct {
	MinZoom     float64 `yaml:"min_zoom"`
	MaxZoom     float64 `yaml:"max_zoom"`
	DefaultZoom float64 `yaml:"default_zoom"`
	FitPadding  float64 `yaml:"fit_padding"`
}

// PersistConfig controls the debounced save.
type PersistConfig struct {
	Key      string        `yaml:"key"`
	Debounce time.Duration `yaml:"debounce"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // memory | file | sqlite
	Path   string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		View: ViewConfig{
			MinZoom:     MinZoom,
			MaxZoom:     MaxZoom,
			DefaultZoom: DefaultZoom,
			FitPadding:  FitPadding,
		},
		Persist: PersistConfig{
			Key:      DefaultStorageKey,
			Debounce: DefaultSaveDelay,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "pixelshapes.db",
		},
	}
}

// LoadConfigFile reads a YAML config file. Fields absent from the file keep
// their DefaultConfig values.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("pixelshapes: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("pixelshapes: parse config: %w", err)
	}
	if cfg.View.MinZoom <= 0 || cfg.View.MaxZoom <= 0 || cfg.View.MinZoom > cfg.View.MaxZoom {
		return Config{}, fmt.Errorf("pixelshapes: parse config: invalid zoom range [%v, %v]", cfg.View.MinZoom, cfg.View.MaxZoom)
	}
	if cfg.Persist.Debounce < 0 {
		return Config{}, fmt.Errorf("pixelshapes: parse config: negative debounce %v", cfg.Persist.Debounce)
	}
	return cfg, nil
}

// ViewLimits converts the view section.
func (c Config) ViewLimits() ViewLimits {
	return ViewLimits{
		MinZoom:     c.View.MinZoom,
		MaxZoom:     c.View.MaxZoom,
		DefaultZoom: c.View.DefaultZoom,
		Padding:     c.View.FitPadding,
	}.normalized()
}

// WorkspaceOptions returns the New options described by the config.
func (c Config) WorkspaceOptions() []Option {
	return []Option{WithViewLimits(c.ViewLimits()), WithDebug(c.Debug)}
}

// PersisterOptions returns the persister options described by the config.
func (c Config) PersisterOptions() PersisterOptions {
	return PersisterOptions{
		Key:    c.Persist.Key,
		Delay:  c.Persist.Debounce,
		Limits: c.ViewLimits(),
	}
}
