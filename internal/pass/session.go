package pass

import (
	"fmt"

	"planar-reflection/internal/config"
	"planar-reflection/internal/gpu"
	"planar-reflection/internal/scene"
	"planar-reflection/internal/target"
)

// State is the position of a session in the per-frame sequence.
type State int

const (
	StateUninitialized State = iota
	StateConfigured
	StateRendering
	StateBlurring
	StatePublished
	StateReleased
)

var stateNames = [...]string{"uninitialized", "configured", "rendering", "blurring", "published", "released"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Session is the per-camera state of the reflection pass: the camera, the
// renderers it sees and the targets it owns. A session is used by one
// goroutine at a time.
type Session struct {
	Camera    scene.Camera
	Renderers []*scene.Renderer

	targets  *target.Manager
	state    State
	settings config.Settings
	frame    uint64

	color     gpu.Texture
	depth     gpu.Texture
	pyramid   target.Pyramid
	published gpu.Texture

	// blurErr explains why a frame asking for blur publishes the raw target.
	blurErr error
}

// NewSession returns a session for cam allocating from dev.
func NewSession(dev gpu.Device, cam scene.Camera, renderers []*scene.Renderer) *Session {
	return &Session{
		Camera:    cam,
		Renderers: renderers,
		targets:   target.NewManager(dev),
	}
}

func (s *Session) State() State              { return s.state }
func (s *Session) Frame() uint64             { return s.frame }
func (s *Session) Targets() *target.Manager  { return s.targets }
func (s *Session) Color() gpu.Texture        { return s.color }
func (s *Session) Depth() gpu.Texture        { return s.depth }
func (s *Session) Pyramid() target.Pyramid   { return s.pyramid }
func (s *Session) Settings() config.Settings { return s.settings }

// Published returns the texture published by the last completed frame.
func (s *Session) Published() gpu.Texture { return s.published }
