package simviewer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Scene      SceneConfig      `toml:"scene" yaml:"scene"`
	Palette    PaletteConfig    `toml:"palette" yaml:"palette"`
	Vectors    VectorsConfig    `toml:"vectors" yaml:"vectors"`
	Visibility VisibilityConfig `toml:"visibility" yaml:"visibility"`
	Collector  CollectorConfig  `toml:"collector" yaml:"collector"`
	Lights     LightsConfig     `toml:"lights" yaml:"lights"`
	Feed       FeedConfig       `toml:"feed" yaml:"feed"`
	Logging    LoggingConfig    `toml:"logging" yaml:"logging"`
}

type SceneConfig struct {
	Offset   []float32 `toml:"offset" yaml:"offset"`
	Size     []float32 `toml:"size" yaml:"size"`
	DsFactor float32   `toml:"ds_factor" yaml:"ds_factor"`
	Margin   []float32 `toml:"margin" yaml:"margin"` // relative, per axis
}

type PaletteConfig struct {
	BinsPerChannel int        `toml:"bins" yaml:"bins"`
	BinWidth       float32    `toml:"bin_width" yaml:"bin_width"` // takes precedence over bins when set
	Ambient        [3]float32 `toml:"ambient" yaml:"ambient"`
	Specular       [3]float32 `toml:"specular" yaml:"specular"`
	CullFront      bool       `toml:"cull_front" yaml:"cull_front"`
}

type VectorsConfig struct {
	Stretch         float32 `toml:"stretch" yaml:"stretch"`
	HeadLengthRatio float32 `toml:"head_length_ratio" yaml:"head_length_ratio"`
	Style           string  `toml:"style" yaml:"style"` // "head" or "shaft"
}

type KindVisibilityConfig struct {
	Owned   bool `toml:"owned" yaml:"owned"`
	General bool `toml:"general" yaml:"general"`
}

type VisibilityConfig struct {
	Points       KindVisibilityConfig `toml:"points" yaml:"points"`
	Lines        KindVisibilityConfig `toml:"lines" yaml:"lines"`
	Vectors      KindVisibilityConfig `toml:"vectors" yaml:"vectors"`
	CellDebug    bool                 `toml:"cell_debug" yaml:"cell_debug"`
	GeneralDebug bool                 `toml:"general_debug" yaml:"general_debug"`
}

type CollectorConfig struct {
	Enabled   bool `toml:"enabled" yaml:"enabled"`
	Tolerance int  `toml:"tolerance" yaml:"tolerance"`
}

type LightsConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

type FeedConfig struct {
	BindAddress    string        `toml:"bind_address" yaml:"bind_address"`
	Path           string        `toml:"path" yaml:"path"`
	ReadLimit      int64         `toml:"read_limit" yaml:"read_limit"`
	StatusInterval time.Duration `toml:"status_interval" yaml:"status_interval"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "console", "json" or "plain"
	Prefix string `toml:"prefix" yaml:"prefix"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene: SceneConfig{
			Offset:   []float32{0, 0, 0},
			Size:     []float32{480, 220, 220},
			DsFactor: 0.2,
			Margin:   []float32{DefaultMargin, DefaultMargin, DefaultMargin},
		},
		Palette: PaletteConfig{
			BinsPerChannel: 5,
			Ambient:        [3]float32{1, 1, 1},
			Specular:       [3]float32{1, 1, 1},
		},
		Vectors: VectorsConfig{
			Stretch:         1,
			HeadLengthRatio: DefaultHeadLengthRatio,
			Style:           "head",
		},
		Visibility: VisibilityConfig{
			Points:  KindVisibilityConfig{Owned: true, General: true},
			Lines:   KindVisibilityConfig{Owned: true, General: true},
			Vectors: KindVisibilityConfig{Owned: true, General: true},
		},
		Collector: CollectorConfig{
			Enabled:   true,
			Tolerance: 0,
		},
		Feed: FeedConfig{
			BindAddress:    "127.0.0.1:8765",
			Path:           "/feed",
			ReadLimit:      1 << 20,
			StatusInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Prefix: "simviewer",
		},
	}
}

// LoadConfig reads a TOML file, or YAML when the extension says so, on top of
// DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.Scene.Offset) != 3 || len(c.Scene.Size) != 3 {
		errs = append(errs, fmt.Errorf("%w: scene offset and size must be 3D", ErrDimensionMismatch))
	}
	if len(c.Scene.Margin) != 3 {
		errs = append(errs, fmt.Errorf("%w: scene margin must be 3D", ErrDimensionMismatch))
	}
	if c.Scene.DsFactor <= 0 {
		errs = append(errs, fmt.Errorf("scene ds_factor must be positive, got %v", c.Scene.DsFactor))
	}
	if _, err := c.Vectors.style(); err != nil {
		errs = append(errs, err)
	}
	if !validStretch(c.Vectors.Stretch) {
		errs = append(errs, fmt.Errorf("%w: vectors stretch %v", ErrInvalidVectorStretch, c.Vectors.Stretch))
	}
	if r := c.Vectors.HeadLengthRatio; r <= 0 || r >= 1 {
		errs = append(errs, fmt.Errorf("vectors head_length_ratio must be in (0,1), got %v", r))
	}
	switch c.Logging.Format {
	case "console", "json", "plain":
	default:
		errs = append(errs, fmt.Errorf("unknown logging format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func (v VectorsConfig) style() (VectorStyle, error) {
	switch v.Style {
	case "", "head":
		return ShaftAndHead, nil
	case "shaft":
		return ShaftOnly, nil
	}
	return ShaftAndHead, fmt.Errorf("unknown vector style %q", v.Style)
}

// Toggles converts the configured initial visibility.
func (v VisibilityConfig) Toggles() Toggles {
	kt := func(k KindVisibilityConfig) KindToggles {
		return KindToggles{OwnedVisible: k.Owned, GeneralVisible: k.General}
	}
	return Toggles{
		Points:       kt(v.Points),
		Lines:        kt(v.Lines),
		Vectors:      kt(v.Vectors),
		CellDebug:    v.CellDebug,
		GeneralDebug: v.GeneralDebug,
	}
}

// RegistryOptions derives the registry settings from the configuration.
func (c *Config) RegistryOptions() RegistryOptions {
	style, _ := c.Vectors.style()
	return RegistryOptions{
		Toggles:         c.Visibility.Toggles(),
		VectorStretch:   c.Vectors.Stretch,
		HeadLengthRatio: c.Vectors.HeadLengthRatio,
		VectorStyle:     style,
	}
}

func (p PaletteConfig) template() MaterialTemplate {
	tmpl := MaterialTemplate{Ambient: p.Ambient, Specular: p.Specular, Culling: CullNone}
	if p.CullFront {
		tmpl.Culling = CullFront
	}
	return tmpl
}
