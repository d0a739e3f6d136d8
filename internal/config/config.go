// Package config loads reflection settings and render job configuration
// from YAML or JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"planar-reflection/internal/gpu"
)

// Config holds the render job settings.
type Config struct {
	Reflection Settings `yaml:"reflection" json:"reflection"`

	// Paths
	Scene      string `yaml:"scene" json:"scene"`
	TextureDir string `yaml:"texture_dir" json:"texture_dir"`
	OutputDir  string `yaml:"output_dir" json:"output_dir"`

	// Render settings
	Frames       int     `yaml:"frames" json:"frames"`
	OrbitDegrees float64 `yaml:"orbit_degrees" json:"orbit_degrees"`
	Supersample  int     `yaml:"supersample" json:"supersample"`
	Workers      int     `yaml:"workers" json:"workers"`
	Convention   string  `yaml:"convention" json:"convention"`
	DumpPyramid  bool    `yaml:"dump_pyramid" json:"dump_pyramid"`

	// Exclude is a regular expression of renderer names kept out of the
	// reflection.
	Exclude string `yaml:"exclude" json:"exclude"`
}

// Default returns a config with default reflection settings and empty paths.
func Default() Config {
	return Config{Reflection: DefaultSettings()}
}

// Load reads a .yaml, .yml or .json config file. Fields absent from the
// file keep their defaults. Relative paths are resolved against the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config: %s: unsupported extension", path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.Scene = resolvePath(base, cfg.Scene)
	cfg.TextureDir = resolvePath(base, cfg.TextureDir)
	cfg.OutputDir = resolvePath(base, cfg.OutputDir)
	return cfg, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Scene       string
	TextureDir  string
	OutputDir   string
	Frames      int
	Supersample int
	Workers     int
	Convention  string
	Resolution  string
	NoBlur      bool
	Iterations  int
	DumpPyramid bool
}

// Resolve applies CLI overrides and fills defaults for anything unset.
func (c *Config) Resolve(flags Flags) error {
	if flags.Scene != "" {
		c.Scene = flags.Scene
	}
	if flags.TextureDir != "" {
		c.TextureDir = flags.TextureDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Frames > 0 {
		c.Frames = flags.Frames
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Convention != "" {
		c.Convention = flags.Convention
	}
	if flags.Resolution != "" {
		r, err := ParseResolution(flags.Resolution)
		if err != nil {
			return err
		}
		c.Reflection.Resolution = r
	}
	if flags.NoBlur {
		c.Reflection.ApplyBlur = false
	}
	if flags.Iterations > 0 {
		c.Reflection.Iterations = flags.Iterations
	}
	if flags.DumpPyramid {
		c.DumpPyramid = true
	}

	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}
	if c.Frames <= 0 {
		c.Frames = 1
	}
	if c.OrbitDegrees == 0 && c.Frames > 1 {
		c.OrbitDegrees = 360
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Convention == "" {
		c.Convention = gpu.ConventionOpenGL.String()
	}
	return nil
}

// Validate reports hard errors. Reflection settings are never errors;
// they are clamped by Settings.Normalize.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRequired("paths.scene", c.Scene)...)
	errs = append(errs, validateRequired("paths.output_dir", c.OutputDir)...)
	errs = append(errs, validatePositive("render.frames", c.Frames)...)
	errs = append(errs, validatePositive("render.supersample", c.Supersample)...)
	errs = append(errs, validatePositive("render.workers", c.Workers)...)
	if c.Supersample > 4 {
		errs = append(errs, ValidationError{Field: "render.supersample", Message: "must be at most 4"})
	}
	if _, err := gpu.ParseConvention(c.Convention); err != nil {
		errs = append(errs, ValidationError{Field: "render.convention", Message: err.Error()})
	}
	if c.Exclude != "" {
		if _, err := regexp.Compile(c.Exclude); err != nil {
			errs = append(errs, ValidationError{Field: "render.exclude", Message: err.Error()})
		}
	}
	return errs
}
