package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"planar-reflection/internal/mathutil"
	"planar-reflection/internal/scene"
)

// ResolutionDivisor scales the reflection target down from the camera
// resolution. Valid values are 1, 2, 4 and 8.
type ResolutionDivisor int

const (
	Full    ResolutionDivisor = 1
	Half    ResolutionDivisor = 2
	Quarter ResolutionDivisor = 4
	Eighth  ResolutionDivisor = 8
)

var divisorNames = map[string]ResolutionDivisor{
	"full":    Full,
	"half":    Half,
	"quarter": Quarter,
	"eighth":  Eighth,
	"eight":   Eighth,
}

// Valid reports whether r is one of the supported divisors.
func (r ResolutionDivisor) Valid() bool {
	switch r {
	case Full, Half, Quarter, Eighth:
		return true
	}
	return false
}

func (r ResolutionDivisor) String() string {
	switch r {
	case Full:
		return "full"
	case Half:
		return "half"
	case Quarter:
		return "quarter"
	case Eighth:
		return "eighth"
	}
	return strconv.Itoa(int(r))
}

// ParseResolution accepts a divisor name or number.
func ParseResolution(s string) (ResolutionDivisor, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if r, ok := divisorNames[s]; ok {
		return r, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("config: resolution %q is not full, half, quarter, eighth or a number", s)
	}
	return ResolutionDivisor(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *ResolutionDivisor) UnmarshalText(b []byte) error {
	v, err := ParseResolution(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (r ResolutionDivisor) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalJSON accepts both numbers and names.
func (r *ResolutionDivisor) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*r = ResolutionDivisor(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("config: resolution: %w", err)
	}
	return r.UnmarshalText([]byte(s))
}

// Bounds of the blur settings.
const (
	MinIterations = 2
	MaxIterations = 9
	MinOffset     = 0.0
	MaxOffset     = 3.0
)

// Settings configures the planar reflection. The pass reads a normalized
// copy at the start of every frame.
type Settings struct {
	Active     bool              `yaml:"active" json:"active"`
	PlaneYPos  float64           `yaml:"plane_y" json:"plane_y"`
	Resolution ResolutionDivisor `yaml:"resolution" json:"resolution"`
	LayerMask  scene.LayerMask   `yaml:"layer_mask" json:"layer_mask"`
	ApplyBlur  bool              `yaml:"apply_blur" json:"apply_blur"`
	Iterations int               `yaml:"iterations" json:"iterations"`
	Offset     float64           `yaml:"offset" json:"offset"`

	// TextureName is the published slot. Empty means "_PlanarReflection".
	TextureName string `yaml:"texture_name" json:"texture_name"`
}

// DefaultSettings returns half resolution, layer 0, and a three level blur.
func DefaultSettings() Settings {
	return Settings{
		Active:     true,
		PlaneYPos:  0,
		Resolution: Half,
		LayerMask:  scene.LayerBit(0),
		ApplyBlur:  true,
		Iterations: 3,
		Offset:     0,
	}
}

// Normalize clamps every out-of-range value in place and returns a notice
// for each adjustment and for an empty layer mask. It never fails.
func (s *Settings) Normalize() []ValidationError {
	var notes []ValidationError
	note := func(field, format string, args ...any) {
		notes = append(notes, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if math.IsNaN(s.PlaneYPos) || math.IsInf(s.PlaneYPos, 0) {
		note("reflection.plane_y", "%v is not finite, using 0", s.PlaneYPos)
		s.PlaneYPos = 0
	}

	if !s.Resolution.Valid() {
		fixed := snapDivisor(s.Resolution)
		note("reflection.resolution", "%d is not 1, 2, 4 or 8, using %d", int(s.Resolution), int(fixed))
		s.Resolution = fixed
	}

	// Zero iterations publishes the unblurred reflection.
	if s.Iterations != 0 && (s.Iterations < MinIterations || s.Iterations > MaxIterations) {
		fixed := mathutil.ClampInt(s.Iterations, MinIterations, MaxIterations)
		note("reflection.iterations", "%d outside [%d,%d], using %d", s.Iterations, MinIterations, MaxIterations, fixed)
		s.Iterations = fixed
	}

	switch {
	case math.IsNaN(s.Offset):
		note("reflection.offset", "NaN, using %v", MinOffset)
		s.Offset = MinOffset
	case s.Offset < MinOffset || s.Offset > MaxOffset:
		fixed := math.Max(MinOffset, math.Min(MaxOffset, s.Offset))
		note("reflection.offset", "%v outside [%v,%v], using %v", s.Offset, MinOffset, MaxOffset, fixed)
		s.Offset = fixed
	}

	if s.LayerMask == 0 {
		note("reflection.layer_mask", "empty mask reflects nothing")
	}
	return notes
}

// snapDivisor returns the largest valid divisor not above r.
func snapDivisor(r ResolutionDivisor) ResolutionDivisor {
	switch {
	case r >= Eighth:
		return Eighth
	case r >= Quarter:
		return Quarter
	case r >= Half:
		return Half
	}
	return Full
}
