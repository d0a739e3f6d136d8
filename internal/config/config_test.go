package config

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"planar-reflection/internal/scene"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.True(t, s.Active)
	assert.Equal(t, Half, s.Resolution)
	assert.Equal(t, scene.LayerBit(0), s.LayerMask)
	assert.True(t, s.ApplyBlur)
	assert.Equal(t, 3, s.Iterations)
	assert.Empty(t, s.Normalize())
}

func TestNormalizeClamps(t *testing.T) {
	s := Settings{
		PlaneYPos:  math.Inf(1),
		Resolution: 5,
		LayerMask:  1,
		Iterations: 40,
		Offset:     -2,
	}
	notes := s.Normalize()
	assert.Len(t, notes, 4)
	assert.Equal(t, 0.0, s.PlaneYPos)
	assert.Equal(t, Quarter, s.Resolution)
	assert.Equal(t, MaxIterations, s.Iterations)
	assert.Equal(t, MinOffset, s.Offset)

	s = Settings{Resolution: 0, Iterations: 0, Offset: math.NaN(), LayerMask: 1}
	notes = s.Normalize()
	assert.Len(t, notes, 2)
	assert.Equal(t, Full, s.Resolution)
	assert.Equal(t, 0, s.Iterations, "zero means no blur levels")
	assert.Equal(t, 0.0, s.Offset)

	s = Settings{Resolution: Half, Iterations: -1, LayerMask: 1}
	s.Normalize()
	assert.Equal(t, MinIterations, s.Iterations)

	s = Settings{Resolution: Half, Iterations: 1, LayerMask: 1}
	s.Normalize()
	assert.Equal(t, MinIterations, s.Iterations)

	s = Settings{Resolution: 64, Iterations: 5, Offset: 9, LayerMask: 1}
	s.Normalize()
	assert.Equal(t, Eighth, s.Resolution)
	assert.Equal(t, 5, s.Iterations)
	assert.Equal(t, MaxOffset, s.Offset)
}

func TestNormalizeNotesEmptyMask(t *testing.T) {
	s := DefaultSettings()
	s.LayerMask = 0
	notes := s.Normalize()
	require.Len(t, notes, 1)
	assert.Equal(t, "reflection.layer_mask", notes[0].Field)
}

func TestParseResolution(t *testing.T) {
	for in, want := range map[string]ResolutionDivisor{
		"full": Full, "Half": Half, "quarter": Quarter, "eighth": Eighth, "8": Eighth, " 2 ": Half,
	} {
		got, err := ParseResolution(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseResolution("tiny")
	assert.Error(t, err)
	assert.Equal(t, "quarter", Quarter.String())
	assert.Equal(t, "3", ResolutionDivisor(3).String())
}

func TestResolutionDecoding(t *testing.T) {
	var y struct {
		A ResolutionDivisor `yaml:"a"`
		B ResolutionDivisor `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 4\nb: eighth\n"), &y))
	assert.Equal(t, Quarter, y.A)
	assert.Equal(t, Eighth, y.B)

	var j struct {
		A ResolutionDivisor `json:"a"`
		B ResolutionDivisor `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 2, "b": "full"}`), &j))
	assert.Equal(t, Half, j.A)
	assert.Equal(t, Full, j.B)
	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &j))
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadYAMLKeepsDefaults(t *testing.T) {
	path := writeFile(t, "job.yaml", `
scene: scenes/demo.yaml
reflection:
  plane_y: 0.5
  resolution: quarter
  iterations: 4
frames: 8
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Reflection.Active, "absent bool keeps default")
	assert.True(t, cfg.Reflection.ApplyBlur)
	assert.Equal(t, 0.5, cfg.Reflection.PlaneYPos)
	assert.Equal(t, Quarter, cfg.Reflection.Resolution)
	assert.Equal(t, 4, cfg.Reflection.Iterations)
	assert.Equal(t, 8, cfg.Frames)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "scenes", "demo.yaml"), cfg.Scene)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "job.json", `{
  "scene": "/abs/scene.yaml",
  "reflection": {"active": false, "resolution": 8, "apply_blur": false, "layer_mask": 6},
  "workers": 3
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Reflection.Active)
	assert.False(t, cfg.Reflection.ApplyBlur)
	assert.Equal(t, Eighth, cfg.Reflection.Resolution)
	assert.Equal(t, scene.LayerMask(6), cfg.Reflection.LayerMask)
	assert.Equal(t, "/abs/scene.yaml", cfg.Scene)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "job.toml", "x = 1"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "reflection:\n  resolution: tiny\n"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.Scene = "from-file.yaml"
	require.NoError(t, cfg.Resolve(Flags{}))
	assert.Equal(t, "renders", cfg.OutputDir)
	assert.Equal(t, 1, cfg.Frames)
	assert.Equal(t, 1, cfg.Supersample)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, "opengl", cfg.Convention)
	assert.Empty(t, cfg.Validate())

	require.NoError(t, cfg.Resolve(Flags{
		Scene:      "from-flag.yaml",
		Frames:     12,
		Resolution: "full",
		NoBlur:     true,
		Iterations: 7,
	}))
	assert.Equal(t, "from-flag.yaml", cfg.Scene)
	assert.Equal(t, 12, cfg.Frames)
	assert.Equal(t, 360.0, cfg.OrbitDegrees)
	assert.Equal(t, Full, cfg.Reflection.Resolution)
	assert.False(t, cfg.Reflection.ApplyBlur)
	assert.Equal(t, 7, cfg.Reflection.Iterations)

	assert.Error(t, cfg.Resolve(Flags{Resolution: "huge"}))
}

func TestValidate(t *testing.T) {
	cfg := Config{Convention: "glide", Supersample: 8, Exclude: "("}
	errs := cfg.Validate()
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, f := range []string{"paths.scene", "paths.output_dir", "render.frames", "render.workers", "render.supersample", "render.convention", "render.exclude"} {
		assert.True(t, fields[f], f)
	}
	out := FormatValidationErrors(errs)
	assert.Contains(t, out, "PATHS:")
	assert.Contains(t, out, "  - scene: is required")
	assert.Empty(t, FormatValidationErrors(nil))
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Resolve(Flags{}))
	assert.Empty(t, cfg.Validate())

	assert.Equal(t, Half, cfg.Reflection.Resolution)
	assert.Equal(t, 4, cfg.Reflection.Iterations)
	assert.Equal(t, scene.LayerBit(0), cfg.Reflection.LayerMask)
	assert.Equal(t, filepath.Join("..", "..", "examples", "scene.yaml"), cfg.Scene)
	assert.Equal(t, 8, cfg.Frames)
}
