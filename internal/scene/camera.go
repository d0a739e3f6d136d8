package scene

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"planar-reflection/internal/mathutil"
)

// CameraType distinguishes final cameras from editor previews.
type CameraType int

const (
	CameraGame CameraType = iota
	CameraSceneView
	// CameraPreview renders material/asset thumbnails and never gets reflections.
	CameraPreview
)

func (t CameraType) String() string {
	switch t {
	case CameraGame:
		return "game"
	case CameraSceneView:
		return "sceneview"
	case CameraPreview:
		return "preview"
	}
	return fmt.Sprintf("cameratype(%d)", int(t))
}

// ParseCameraType maps a scene-file name to a CameraType.
func ParseCameraType(s string) (CameraType, error) {
	switch strings.ToLower(s) {
	case "", "game":
		return CameraGame, nil
	case "sceneview", "scene", "editor":
		return CameraSceneView, nil
	case "preview":
		return CameraPreview, nil
	}
	return CameraGame, fmt.Errorf("scene: unknown camera type %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *CameraType) UnmarshalText(b []byte) error {
	v, err := ParseCameraType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Camera is a perspective camera looking at a target.
type Camera struct {
	Name     string
	Type     CameraType
	FOV      float64 // vertical, degrees
	Near     float64
	Far      float64
	Width    int
	Height   int
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3

	// FlipY is set when the camera renders into a texture whose origin
	// differs from the backbuffer's.
	FlipY bool
}

// View returns the world-to-camera matrix.
func (c Camera) View() mgl64.Mat4 {
	up := c.Up
	if up.Len() < 1e-9 {
		up = mgl64.Vec3{0, 1, 0}
	}
	return mgl64.LookAtV(c.Position, c.Target, up)
}

// Orbit returns a copy of c rotated by angle degrees around the vertical
// axis through its target.
func (c Camera) Orbit(angle float64) Camera {
	rot := mgl64.HomogRotate3DY(mgl64.DegToRad(mathutil.WrapDegrees(angle)))
	off := c.Position.Sub(c.Target)
	c.Position = c.Target.Add(mathutil.TransformDir(rot, off))
	return c
}

// Distance returns the distance from the camera to p.
func (c Camera) Distance(p mgl64.Vec3) float64 {
	return c.Position.Sub(p).Len()
}

// Validate reports unusable intrinsics.
func (c Camera) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("scene: camera %q has size %dx%d", c.Name, c.Width, c.Height)
	}
	if c.FOV <= 0 || c.FOV >= 180 {
		return fmt.Errorf("scene: camera %q fov %.1f out of range", c.Name, c.FOV)
	}
	if c.Near <= 0 || c.Far <= c.Near || math.IsInf(c.Far, 0) {
		return fmt.Errorf("scene: camera %q clip planes %.3f..%.3f", c.Name, c.Near, c.Far)
	}
	return nil
}
