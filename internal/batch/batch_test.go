package batch

import (
	"context"
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planar-reflection/internal/config"
	"planar-reflection/internal/gpu"
	"planar-reflection/internal/pass"
	"planar-reflection/internal/scene"
)

func testScene() *scene.Scene {
	floor := scene.DefaultMaterial()
	floor.Reflectivity = 0.5
	floor.ReflectionSlot = pass.DefaultTextureName
	floor.Queue = scene.QueueGeometry

	box := scene.DefaultMaterial()
	box.Tag = scene.TagUnlit
	box.Color = color.NRGBA{R: 255, A: 255}

	return &scene.Scene{
		Name:       "test",
		Background: color.NRGBA{R: 20, G: 30, B: 40, A: 255},
		Light:      scene.DefaultLight(),
		Cameras: []scene.Camera{
			{Name: "main", Type: scene.CameraGame, FOV: 60, Near: 0.1, Far: 100, Width: 64, Height: 36,
				Position: mgl64.Vec3{0, 2, 6}, Target: mgl64.Vec3{0, 0.5, 0}, Up: mgl64.Vec3{0, 1, 0}},
			{Name: "thumb", Type: scene.CameraPreview, FOV: 60, Near: 0.1, Far: 100, Width: 32, Height: 32,
				Position: mgl64.Vec3{0, 1, 4}, Target: mgl64.Vec3{0, 0.5, 0}, Up: mgl64.Vec3{0, 1, 0}},
		},
		Renderers: []*scene.Renderer{
			{Name: "floor", Mesh: scene.Plane(10), Material: floor, Model: mgl64.Ident4()},
			{Name: "box", Mesh: scene.Cube(1), Material: box, Model: mgl64.Translate3D(0, 1, 0)},
		},
	}
}

func testConfig(t *testing.T) Config {
	return Config{
		Scene:        testScene(),
		Settings:     config.DefaultSettings(),
		OutputDir:    t.TempDir(),
		Convention:   gpu.ConventionOpenGL,
		Frames:       2,
		OrbitDegrees: 90,
		Supersample:  2,
		Workers:      2,
		DumpPyramid:  true,
		Quiet:        true,
	}
}

func TestRunRendersEveryCameraFrame(t *testing.T) {
	cfg := testConfig(t)
	results := Run(context.Background(), cfg)
	require.Len(t, results, 4)

	for _, r := range results {
		require.True(t, r.Success, "%s/%d: %s", r.Camera, r.Frame, r.Error)
		assert.FileExists(t, filepath.Join(cfg.OutputDir, r.Image))

		switch r.Camera {
		case "main":
			assert.Equal(t, "published", r.Status)
			assert.True(t, r.Blurred)
			// The top upsample level is half the 32x18 reflection target.
			assert.Equal(t, 16, r.ReflectionWidth)
			assert.Equal(t, 9, r.ReflectionHeight)
			assert.FileExists(t, filepath.Join(cfg.OutputDir, r.Reflection))
			assert.FileExists(t, filepath.Join(cfg.OutputDir, r.Pyramid))
		case "thumb":
			assert.Equal(t, "skipped", r.Status)
			assert.Empty(t, r.Reflection)
			assert.Empty(t, r.Pyramid)
		}
	}
	assert.Equal(t, 0, results[0].Frame)
	assert.Equal(t, 1, results[1].Frame)
}

func TestRunWithoutBlur(t *testing.T) {
	cfg := testConfig(t)
	cfg.Settings.ApplyBlur = false
	cfg.Settings.Resolution = config.Full
	cfg.Frames = 1
	cfg.DumpPyramid = false

	results := Run(context.Background(), cfg)
	require.True(t, results[0].Success, results[0].Error)
	assert.False(t, results[0].Blurred)
	assert.Equal(t, 64, results[0].ReflectionWidth)
	assert.Equal(t, 36, results[0].ReflectionHeight)
	assert.Empty(t, results[0].Pyramid)

	// Half resolution publishes the raw target at its own size.
	cfg.Settings.Resolution = config.Half
	cfg.OutputDir = t.TempDir()
	results = Run(context.Background(), cfg)
	require.True(t, results[0].Success, results[0].Error)
	assert.False(t, results[0].Blurred)
	assert.Equal(t, 32, results[0].ReflectionWidth)
	assert.Equal(t, 18, results[0].ReflectionHeight)
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Run(ctx, cfg)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Equal(t, context.Canceled.Error(), r.Error)
	}
	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteManifest(t *testing.T) {
	results := []Result{
		{Camera: "main", Frame: 0, Status: "published", Blurred: true, Image: filepath.Join("main", "frame_0000.webp"),
			Reflection: filepath.Join("main", "reflection_0000.webp"), ReflectionWidth: 32, ReflectionHeight: 18, Success: true},
		{Camera: "main", Frame: 1, Error: "boom"},
		{Camera: "thumb", Frame: 0, Status: "skipped", Image: filepath.Join("thumb", "frame_0000.webp"), Success: true},
	}
	path := filepath.Join(t.TempDir(), "out", "manifest.json")
	require.NoError(t, WriteManifest(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "main/frame_0000.webp", entries[0].Image)
	assert.Equal(t, 32, entries[0].ReflectionWidth)
	assert.Equal(t, "skipped", entries[1].Status)
	assert.NotContains(t, string(data), "boom")
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "left_cam_1", safeName("left/cam 1"))
	assert.Equal(t, "main", safeName("main"))
}
