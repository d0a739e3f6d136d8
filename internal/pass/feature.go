// Package pass renders the planar reflection for a camera: the mirrored
// scene draw, the blur pyramid and the publish of the result.
package pass

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"planar-reflection/internal/config"
	"planar-reflection/internal/gpu"
	"planar-reflection/internal/logging"
	"planar-reflection/internal/profiling"
	"planar-reflection/internal/scene"
	"planar-reflection/internal/target"
)

// DefaultTextureName is the registry slot the reflection is published to.
const DefaultTextureName = "_PlanarReflection"

var (
	// ErrNotConfigured is reported by Execute before Configure succeeded.
	ErrNotConfigured = errors.New("pass: session not configured")
	// ErrSessionReleased is reported for sessions after ReleaseResources.
	ErrSessionReleased = errors.New("pass: session released")
)

// Status summarises one frame.
type Status int

const (
	StatusSkipped Status = iota
	StatusPublished
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusPublished:
		return "published"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result reports what a frame did. Err carries the diagnostic of a
// degraded or failed frame; it is never fatal to the caller.
type Result struct {
	Status    Status
	Published gpu.Texture
	Blurred   bool
	Err       error
}

// Options configures a Feature.
type Options struct {
	// Shader names the blur shader. Empty means gpu.ReflectionBlurShader.
	Shader string
	// Exclude drops renderers by name from the reflection. Optional.
	Exclude *regexp.Regexp
}

// Feature is the reflection render feature. It reads its settings at the
// start of every frame and may serve several sessions in turn.
type Feature struct {
	dev      gpu.Device
	settings *config.Settings
	exclude  *regexp.Regexp

	blur    gpu.Material
	blurErr error

	reflectSampler *profiling.Sampler
	blurSampler    *profiling.Sampler
	log            *zap.Logger
}

// New creates the feature and loads the blur material. A material that
// fails to load disables blur; the feature still publishes the raw
// reflection.
func New(dev gpu.Device, settings *config.Settings, opts Options) *Feature {
	f := &Feature{
		dev:            dev,
		settings:       settings,
		exclude:        opts.Exclude,
		reflectSampler: profiling.NewSampler(profiling.ReflectionSampler),
		blurSampler:    profiling.NewSampler(profiling.BlurSampler),
		log:            logging.L().Named("pass"),
	}
	shader := opts.Shader
	if shader == "" {
		shader = gpu.ReflectionBlurShader
	}
	m, err := dev.CreateMaterial(shader)
	switch {
	case err != nil:
		f.blurErr = fmt.Errorf("pass: load %s: %w", shader, err)
	case m == nil || m.PassCount() < 2:
		f.blurErr = fmt.Errorf("pass: %s needs 2 passes", shader)
	default:
		f.blur = m
	}
	if f.blurErr != nil {
		f.log.Warn("blur disabled", zap.Error(f.blurErr))
	}
	return f
}

// BlurAvailable reports whether the blur material loaded.
func (f *Feature) BlurAvailable() bool { return f.blur != nil }

// Samplers returns the reflection and blur profiling samplers.
func (f *Feature) Samplers() (reflect, blur *profiling.Sampler) {
	return f.reflectSampler, f.blurSampler
}

// ShouldRender reports whether cam gets a reflection this frame.
func (f *Feature) ShouldRender(cam scene.Camera) bool {
	return f.settings.Active && cam.Type != scene.CameraPreview
}

// Render runs one frame for sess: the skip check, Configure and Execute.
func (f *Feature) Render(ctx context.Context, sess *Session, frame uint64) Result {
	if !f.ShouldRender(sess.Camera) {
		f.log.Debug("skipped",
			zap.String("camera", sess.Camera.Name),
			zap.Bool("active", f.settings.Active),
			zap.Stringer("type", sess.Camera.Type))
		return Result{Status: StatusSkipped}
	}
	if err := f.Configure(sess, frame); err != nil {
		f.log.Warn("pass skipped", zap.String("camera", sess.Camera.Name), zap.Error(err))
		return Result{Status: StatusFailed, Err: err}
	}
	return f.Execute(ctx, sess, frame)
}

// Configure snapshots the settings and ensures the session's targets.
// Targets are reused while the camera size and settings are unchanged.
// A failure to allocate the color or depth target fails the frame; a
// failure to allocate the pyramid only disables blur for it.
func (f *Feature) Configure(sess *Session, frame uint64) error {
	if sess.state == StateReleased {
		return ErrSessionReleased
	}
	s := *f.settings
	for _, n := range s.Normalize() {
		f.log.Debug("setting adjusted", zap.String("field", n.Field), zap.String("message", n.Message))
	}
	if s.TextureName == "" {
		s.TextureName = DefaultTextureName
	}

	cam := sess.Camera
	color, err := sess.targets.Ensure(target.ColorDescriptor(s.TextureName, cam.Width, cam.Height, int(s.Resolution)))
	if err != nil {
		return err
	}
	depth, err := sess.targets.Ensure(target.DepthDescriptor(s.TextureName, cam.Width, cam.Height, int(s.Resolution)))
	if err != nil {
		return err
	}

	pyr := target.Pyramid{}
	sess.blurErr = nil
	if s.ApplyBlur && s.Iterations > 0 && f.blur != nil {
		pyr, err = sess.targets.EnsurePyramid(color.Width(), color.Height(), s.Iterations)
		if err != nil {
			f.log.Warn("blur skipped", zap.String("camera", cam.Name), zap.Error(err))
			sess.blurErr = err
		}
	} else {
		sess.targets.ReleasePyramid()
		if s.ApplyBlur && s.Iterations > 0 {
			sess.blurErr = f.blurErr
		}
	}

	sess.settings = s
	sess.color, sess.depth, sess.pyramid = color, depth, pyr
	sess.frame = frame
	f.transition(sess, StateConfigured)
	return nil
}

// Execute records and submits the frame for a configured session. It
// never panics and never returns an error to the frame loop: failures are
// reported in the Result and nothing is published for the frame.
func (f *Feature) Execute(ctx context.Context, sess *Session, frame uint64) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("pass: recovered: %v", r)
			f.log.Error("frame aborted", zap.String("camera", sess.Camera.Name), zap.Error(err))
			f.transition(sess, StateConfigured)
			res = Result{Status: StatusFailed, Err: err}
		}
	}()

	switch {
	case sess.state == StateReleased:
		return Result{Status: StatusFailed, Err: ErrSessionReleased}
	case sess.state != StateConfigured || sess.frame != frame:
		return Result{Status: StatusFailed, Err: ErrNotConfigured}
	}

	cb := gpu.GetCommandBuffer(profiling.ReflectionSampler, frame)
	defer gpu.ReleaseCommandBuffer(cb)

	f.transition(sess, StateRendering)
	f.recordReflection(cb, sess)

	out, blurred := sess.color, false
	if sess.settings.ApplyBlur && f.blur != nil && sess.pyramid.Levels() > 0 {
		f.transition(sess, StateBlurring)
		out = f.recordBlur(cb, sess)
		blurred = true
	}
	cb.SetGlobalTexture(sess.settings.TextureName, out)

	if err := f.dev.Submit(ctx, cb); err != nil {
		f.log.Warn("submit failed", zap.String("camera", sess.Camera.Name), zap.Error(err))
		f.transition(sess, StateConfigured)
		return Result{Status: StatusFailed, Err: err}
	}
	sess.published = out
	f.transition(sess, StatePublished)

	return Result{Status: StatusPublished, Published: out, Blurred: blurred, Err: sess.blurErr}
}

// ReleaseResources frees every target of sess. Safe to call repeatedly.
func (f *Feature) ReleaseResources(sess *Session) {
	sess.targets.ReleaseAll()
	sess.color, sess.depth, sess.pyramid, sess.published = nil, nil, target.Pyramid{}, nil
	f.transition(sess, StateReleased)
}

func (f *Feature) transition(sess *Session, to State) {
	if sess.state == to {
		return
	}
	f.log.Debug("state",
		zap.String("camera", sess.Camera.Name),
		zap.Uint64("frame", sess.frame),
		zap.Stringer("from", sess.state),
		zap.Stringer("to", to))
	sess.state = to
}
