// Package batch renders every camera of a scene over a sequence of orbit
// frames with a worker pool and writes the frames as WebP.
package batch

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"planar-reflection/internal/config"
	"planar-reflection/internal/gpu"
	"planar-reflection/internal/logging"
	"planar-reflection/internal/pass"
	"planar-reflection/internal/postprocess"
	"planar-reflection/internal/raster"
	"planar-reflection/internal/registry"
	"planar-reflection/internal/scene"
	"planar-reflection/internal/target"
	"planar-reflection/internal/texture"
	"planar-reflection/internal/viewmatrix"
)

// Main camera target names.
const (
	cameraColor = "_CameraColor"
	cameraDepth = "_CameraDepth"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Scene       *scene.Scene
	Settings    config.Settings
	OutputDir   string
	TexResolver texture.Resolver
	Convention  gpu.Convention
	Exclude     *regexp.Regexp

	Frames       int
	OrbitDegrees float64
	Supersample  int
	Workers      int
	DumpPyramid  bool

	// Quiet disables the progress reporter.
	Quiet bool
}

// Result holds the outcome of rendering one frame of one camera.
type Result struct {
	Camera  string
	Frame   int
	Status  string
	Blurred bool

	Image      string
	Reflection string
	Pyramid    string

	ReflectionWidth  int
	ReflectionHeight int

	Success bool
	Error   string
}

// Run renders cfg.Frames frames for every scene camera. Cameras are
// distributed over the workers; each worker owns a device, a registry and a
// reflection feature, and renders its camera's frames in order so targets
// are reused between frames.
func Run(ctx context.Context, cfg Config) []Result {
	cams := cfg.Scene.Cameras
	frames := max(1, cfg.Frames)
	total := len(cams) * frames
	results := make([]Result, total)
	for ci, cam := range cams {
		for i := 0; i < frames; i++ {
			results[ci*frames+i] = Result{Camera: cam.Name, Frame: i, Error: "not rendered"}
		}
	}
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	if !cfg.Quiet {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						elapsed := time.Since(start).Seconds()
						rate := float64(p) / elapsed
						fmt.Printf("  [%d/%d] %.1f frames/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	// Worker pool
	workers := max(1, min(cfg.Workers, len(cams)))
	camChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wk := newWorker(cfg)
			for ci := range camChan {
				wk.processCamera(ctx, ci, results[ci*frames:(ci+1)*frames], &processed)
			}
		}()
	}

	// Send work
	for i := range cams {
		camChan <- i
	}
	close(camChan)

	wg.Wait()
	close(done)

	return results
}

type worker struct {
	cfg     Config
	dev     *raster.Device
	feature *pass.Feature
	seq     uint64
	log     *zap.Logger
}

func newWorker(cfg Config) *worker {
	dev := raster.NewDevice(raster.Options{
		Convention: cfg.Convention,
		Registry:   registry.New(),
		Textures:   cfg.TexResolver,
	})
	dev.SetLight(raster.NewLightConfig(cfg.Scene.Light))
	settings := cfg.Settings
	return &worker{
		cfg:     cfg,
		dev:     dev,
		feature: pass.New(dev, &settings, pass.Options{Exclude: cfg.Exclude}),
		log:     logging.L().Named("batch"),
	}
}

func (w *worker) processCamera(ctx context.Context, ci int, out []Result, processed *atomic.Int64) {
	base := w.cfg.Scene.Cameras[ci]
	sess := pass.NewSession(w.dev, base, w.cfg.Scene.Renderers)
	main := target.NewManager(w.dev)
	defer func() {
		w.feature.ReleaseResources(sess)
		main.ReleaseAll()
	}()

	for i := range out {
		if err := ctx.Err(); err != nil {
			out[i].Error = err.Error()
			continue
		}
		angle := w.cfg.OrbitDegrees * float64(i) / float64(len(out))
		sess.Camera = base.Orbit(angle)
		w.seq++
		out[i] = w.renderFrame(ctx, sess, main, i, w.seq)
		processed.Add(1)
		if !out[i].Success {
			w.log.Warn("frame failed",
				zap.String("camera", base.Name),
				zap.Int("frame", i),
				zap.String("error", out[i].Error))
		}
	}
}

func (w *worker) renderFrame(ctx context.Context, sess *pass.Session, main *target.Manager, i int, seq uint64) Result {
	cam := sess.Camera
	r := Result{Camera: cam.Name, Frame: i}
	fail := func(err error) Result {
		r.Error = err.Error()
		return r
	}

	res := w.feature.Render(ctx, sess, seq)
	r.Status = res.Status.String()
	r.Blurred = res.Blurred
	if res.Status == pass.StatusFailed {
		return fail(res.Err)
	}
	if res.Err != nil {
		w.log.Debug("reflection degraded", zap.String("camera", cam.Name), zap.Error(res.Err))
	}

	img, err := w.renderCamera(ctx, main, cam, seq)
	if err != nil {
		return fail(err)
	}

	dir := filepath.Join(w.cfg.OutputDir, safeName(cam.Name))
	r.Image = filepath.Join(safeName(cam.Name), fmt.Sprintf("frame_%04d.webp", i))
	if err := postprocess.WriteWebP(filepath.Join(w.cfg.OutputDir, r.Image), img); err != nil {
		return fail(err)
	}

	if res.Status == pass.StatusPublished {
		r.ReflectionWidth, r.ReflectionHeight = res.Published.Width(), res.Published.Height()
		refl, ok := w.readback(res.Published, cam)
		if ok {
			r.Reflection = filepath.Join(safeName(cam.Name), fmt.Sprintf("reflection_%04d.webp", i))
			if err := postprocess.WriteWebP(filepath.Join(dir, filepath.Base(r.Reflection)), refl); err != nil {
				return fail(err)
			}
		}
		if w.cfg.DumpPyramid {
			if sheet := w.pyramidSheet(sess, cam); sheet != nil {
				r.Pyramid = filepath.Join(safeName(cam.Name), fmt.Sprintf("pyramid_%04d.webp", i))
				if err := postprocess.WriteWebP(filepath.Join(dir, filepath.Base(r.Pyramid)), sheet); err != nil {
					return fail(err)
				}
			}
		}
	}

	r.Success = true
	return r
}

// renderCamera draws the scene from cam into a supersampled target and
// returns it at the camera's size.
func (w *worker) renderCamera(ctx context.Context, main *target.Manager, cam scene.Camera, seq uint64) (*image.NRGBA, error) {
	ss := max(1, w.cfg.Supersample)
	col, err := main.Ensure(gpu.ColorDescriptor(cameraColor, cam.Width*ss, cam.Height*ss))
	if err != nil {
		return nil, err
	}
	dep, err := main.Ensure(gpu.DepthDescriptor(cameraDepth, cam.Width*ss, cam.Height*ss))
	if err != nil {
		return nil, err
	}

	tr := viewmatrix.Camera(viewmatrix.FromCamera(cam), w.dev.Convention())
	bg := w.cfg.Scene.Background

	cb := gpu.GetCommandBuffer("Camera", seq)
	defer gpu.ReleaseCommandBuffer(cb)
	cb.SetRenderTarget(col, dep)
	cb.ClearRenderTarget(gpu.ClearAll, color.RGBA{R: bg.R, G: bg.G, B: bg.B, A: 255})
	cb.SetViewProjection(tr.View, tr.Projection)
	cb.SetInvertCulling(false)
	cb.DrawRenderers(w.cfg.Scene.Renderers, gpu.DrawSettings{Light: w.cfg.Scene.Light})
	if err := w.dev.Submit(ctx, cb); err != nil {
		return nil, err
	}

	img, ok := w.readback(col, cam)
	if !ok {
		return nil, fmt.Errorf("batch: %s: camera target unreadable", cam.Name)
	}
	if ss > 1 {
		img = postprocess.Downsample(img, cam.Width, cam.Height)
	}
	return img, nil
}

// readback copies a device texture into an upright straight-alpha image.
func (w *worker) readback(tex gpu.Texture, cam scene.Camera) (*image.NRGBA, bool) {
	rt, ok := tex.(*raster.Texture)
	if !ok {
		return nil, false
	}
	img := rt.Snapshot()
	if img == nil {
		return nil, false
	}
	if cam.FlipY && w.dev.Convention() != gpu.ConventionOpenGL {
		img = postprocess.FlipVertical(img)
	}
	return img, true
}

// pyramidSheet lays out the raw reflection and every blur level.
func (w *worker) pyramidSheet(sess *pass.Session, cam scene.Camera) image.Image {
	var panels []postprocess.Panel
	add := func(tex gpu.Texture) {
		if img, ok := w.readback(tex, cam); ok {
			panels = append(panels, postprocess.Panel{
				Label: fmt.Sprintf("%s %dx%d", strings.TrimPrefix(tex.Name(), "rt"), tex.Width(), tex.Height()),
				Image: img,
			})
		}
	}
	add(sess.Color())
	p := sess.Pyramid()
	for _, t := range p.Down {
		add(t)
	}
	for i := len(p.Up) - 1; i >= 0; i-- {
		add(p.Up[i])
	}
	if len(panels) == 0 {
		return nil
	}
	return postprocess.ContactSheet(panels, 128)
}

// safeName makes a camera name usable as a directory name.
func safeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}
