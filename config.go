package coloring

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/jeana-hines/coloring-app-aws/imop"
	"github.com/jeana-hines/coloring-app-aws/utils"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// Config is the user configuration of the coloring application.
type Config struct {
	// Catalog is the newline-delimited artwork list, an URL or a file path.
	Catalog string `toml:"catalog"`
	// Base is the location the artwork images are resolved under.
	Base string `toml:"base"`
	// Store is the directory the progress is saved into.
	Store   string        `toml:"store"`
	History int           `toml:"history"`
	Brush   BrushConfig   `toml:"brush"`
	View    ViewSettings  `toml:"view"`
	LineArt LineArtConfig `toml:"lineart"`
}

type BrushConfig struct {
	Color    string  `toml:"color"`
	Size     float64 `toml:"size"`
	Hardness int     `toml:"hardness"`
}

type ViewSettings struct {
	MinZoom  float32 `toml:"min_zoom"`
	MaxZoom  float32 `toml:"max_zoom"`
	ZoomStep float32 `toml:"zoom_step"`
}

type LineArtConfig struct {
	KnockoutWhite bool   `toml:"knockout_white"`
	Blend         string `toml:"blend"`
	Composite     string `toml:"composite"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	v := DefaultViewConfig()
	return Config{
		Catalog: "image_list.txt",
		Base:    "images/coloring/",
		Store:   "~/.coloring/progress",
		History: DefaultHistorySize,
		Brush: BrushConfig{
			Color:    "#000000",
			Size:     3,
			Hardness: MaxHardness,
		},
		View: ViewSettings{
			MinZoom:  v.MinZoom,
			MaxZoom:  v.MaxZoom,
			ZoomStep: v.ZoomStep,
		},
		LineArt: LineArtConfig{Blend: imop.Normal, Composite: imop.SrcOver},
	}
}

// LoadConfig reads a TOML configuration file over the defaults.
// Keys missing from the file keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	path, err := homedir.Expand(path)
	if err != nil {
		return cfg, err
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("could not open the config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("could not parse %s: %w", path, err)
	}
	return cfg.Normalize()
}

// Normalize clamps every value into its valid range. An unknown blend mode
// or composite operator is an error.
func (c Config) Normalize() (Config, error) {
	def := DefaultConfig()

	if c.History < 1 {
		c.History = def.History
	}
	if _, err := utils.HexToRGBA(c.Brush.Color); err != nil {
		c.Brush.Color = def.Brush.Color
	}
	if math.IsNaN(c.Brush.Size) {
		c.Brush.Size = def.Brush.Size
	}
	c.Brush.Size = utils.Clamp(c.Brush.Size, MinBrushSize, MaxBrushSize)
	c.Brush.Hardness = utils.Clamp(c.Brush.Hardness, 0, MaxHardness)

	v := NewView(ViewConfig{
		MinZoom:  c.View.MinZoom,
		MaxZoom:  c.View.MaxZoom,
		ZoomStep: c.View.ZoomStep,
	}).Config()
	c.View = ViewSettings{MinZoom: v.MinZoom, MaxZoom: v.MaxZoom, ZoomStep: v.ZoomStep}

	if c.LineArt.Blend == "" {
		c.LineArt.Blend = imop.Normal
	}
	if err := imop.NewBlend().Set(c.LineArt.Blend); err != nil {
		return c, err
	}
	if c.LineArt.Composite == "" {
		c.LineArt.Composite = imop.SrcOver
	}
	if err := imop.InitOp().Set(c.LineArt.Composite); err != nil {
		return c, err
	}
	return c, nil
}

// StorePath returns the progress directory with a leading ~ expanded.
func (c Config) StorePath() (string, error) {
	return homedir.Expand(c.Store)
}

// BrushValue returns the configured starting brush.
func (c Config) BrushValue() Brush {
	b := DefaultBrush()
	if col, err := utils.HexToRGBA(c.Brush.Color); err == nil {
		b.SetColor(col)
	}
	b.SetSize(c.Brush.Size)
	b.SetHardness(c.Brush.Hardness)
	return b
}

// SessionOptions builds the options of a session following the configuration.
func (c Config) SessionOptions(loader Loader, progress *Progress, logger *slog.Logger) Options {
	b := c.BrushValue()
	return Options{
		Loader:   loader,
		Progress: progress,
		History:  c.History,
		Brush:    &b,
		View: ViewConfig{
			MinZoom:  c.View.MinZoom,
			MaxZoom:  c.View.MaxZoom,
			ZoomStep: c.View.ZoomStep,
		},
		LineArt: LineArtOptions{
			KnockoutWhite: c.LineArt.KnockoutWhite,
			Blend:         c.LineArt.Blend,
			Composite:     c.LineArt.Composite,
		},
		Base:   c.Base,
		Logger: logger,
	}
}
