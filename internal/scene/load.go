package scene

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML layout of a scene.
type File struct {
	Name       string       `yaml:"name"`
	Background []float64    `yaml:"background"`
	Light      *LightFile   `yaml:"light"`
	Cameras    []CameraFile `yaml:"cameras"`
	Objects    []ObjectFile `yaml:"objects"`
}

type LightFile struct {
	Direction [3]float64 `yaml:"direction"`
	Color     []float64  `yaml:"color"`
	Ambient   float64    `yaml:"ambient"`
}

type CameraFile struct {
	Name     string     `yaml:"name"`
	Type     CameraType `yaml:"type"`
	FOV      float64    `yaml:"fov"`
	Near     float64    `yaml:"near"`
	Far      float64    `yaml:"far"`
	Size     [2]int     `yaml:"size"`
	Position [3]float64 `yaml:"position"`
	Target   [3]float64 `yaml:"target"`
	FlipY    bool       `yaml:"flip_y"`
}

type ObjectFile struct {
	Name      string        `yaml:"name"`
	Primitive string        `yaml:"primitive"` // plane, cube
	Mesh      string        `yaml:"mesh"`      // path to a .3mf file
	MeshScale float64       `yaml:"mesh_scale"`
	Size      float64       `yaml:"size"`
	Position  [3]float64    `yaml:"position"`
	RotationY float64       `yaml:"rotation_y"` // degrees
	Scale     []float64     `yaml:"scale"`
	Layer     int           `yaml:"layer"`
	Material  *MaterialFile `yaml:"material"`
}

type MaterialFile struct {
	Tag            ShaderTag `yaml:"tag"`
	Color          []float64 `yaml:"color"`
	Texture        string    `yaml:"texture"`
	Reflectivity   float64   `yaml:"reflectivity"`
	ReflectionSlot string    `yaml:"reflection_slot"`
	Queue          int       `yaml:"queue"`
	Cull           string    `yaml:"cull"`
}

// LoadFile reads and builds a scene from a YAML file. Mesh paths are
// resolved relative to the scene file.
func LoadFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scene: parse %s: %w", path, err)
	}
	return f.Build(filepath.Dir(path))
}

// Build converts the file layout into a Scene.
func (f *File) Build(baseDir string) (*Scene, error) {
	s := &Scene{
		Name:       f.Name,
		Background: toNRGBA(f.Background, color.NRGBA{A: 255}),
		Light:      DefaultLight(),
	}
	if f.Light != nil {
		dir := mgl64.Vec3(f.Light.Direction)
		if dir.Len() > 1e-9 {
			s.Light.Direction = dir.Normalize()
		}
		s.Light.Color = toNRGBA(f.Light.Color, s.Light.Color)
		if f.Light.Ambient > 0 {
			s.Light.Ambient = f.Light.Ambient
		}
	}

	for i, cf := range f.Cameras {
		cam := Camera{
			Name:     cf.Name,
			Type:     cf.Type,
			FOV:      cf.FOV,
			Near:     cf.Near,
			Far:      cf.Far,
			Width:    cf.Size[0],
			Height:   cf.Size[1],
			Position: mgl64.Vec3(cf.Position),
			Target:   mgl64.Vec3(cf.Target),
			Up:       mgl64.Vec3{0, 1, 0},
			FlipY:    cf.FlipY,
		}
		if cam.Name == "" {
			cam.Name = fmt.Sprintf("camera%d", i)
		}
		if cam.FOV == 0 {
			cam.FOV = 60
		}
		if cam.Near == 0 {
			cam.Near = 0.1
		}
		if cam.Far == 0 {
			cam.Far = 100
		}
		if err := cam.Validate(); err != nil {
			return nil, err
		}
		s.Cameras = append(s.Cameras, cam)
	}

	for i, of := range f.Objects {
		r, err := of.build(baseDir)
		if err != nil {
			return nil, fmt.Errorf("scene: object %d: %w", i, err)
		}
		if r.Name == "" {
			r.Name = fmt.Sprintf("object%d", i)
		}
		s.Renderers = append(s.Renderers, r)
	}
	return s, nil
}

func (of ObjectFile) build(baseDir string) (*Renderer, error) {
	size := of.Size
	if size == 0 {
		size = 1
	}

	var mesh *Mesh
	switch {
	case of.Mesh != "":
		path := of.Mesh
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		meshes, err := Load3MF(path, of.MeshScale)
		if err != nil {
			return nil, err
		}
		mesh = Merge(of.Name, meshes)
	case of.Primitive == "plane":
		mesh = Plane(size)
	case of.Primitive == "cube", of.Primitive == "":
		mesh = Cube(size)
	default:
		return nil, fmt.Errorf("unknown primitive %q", of.Primitive)
	}

	if of.Layer < 0 || of.Layer > 31 {
		return nil, fmt.Errorf("layer %d out of range 0..31", of.Layer)
	}

	scale := mgl64.Vec3{1, 1, 1}
	switch len(of.Scale) {
	case 0:
	case 1:
		scale = mgl64.Vec3{of.Scale[0], of.Scale[0], of.Scale[0]}
	case 3:
		scale = mgl64.Vec3{of.Scale[0], of.Scale[1], of.Scale[2]}
	default:
		return nil, fmt.Errorf("scale needs 1 or 3 components, got %d", len(of.Scale))
	}

	model := mgl64.Translate3D(of.Position[0], of.Position[1], of.Position[2]).
		Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(of.RotationY))).
		Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))

	mat := DefaultMaterial()
	if mf := of.Material; mf != nil {
		if mf.Tag != "" {
			mat.Tag = mf.Tag
		}
		mat.Color = toNRGBA(mf.Color, mat.Color)
		mat.Texture = mf.Texture
		mat.Reflectivity = mgl64.Clamp(mf.Reflectivity, 0, 1)
		mat.ReflectionSlot = mf.ReflectionSlot
		if mf.Queue != 0 {
			mat.Queue = mf.Queue
		}
		cull, err := ParseCullMode(mf.Cull)
		if err != nil {
			return nil, err
		}
		mat.Cull = cull
	}
	mat.Name = of.Name

	return &Renderer{
		Name:     of.Name,
		Mesh:     mesh,
		Material: mat,
		Model:    model,
		Layer:    of.Layer,
	}, nil
}

// toNRGBA converts 3 or 4 components in [0,1] to a colour.
func toNRGBA(c []float64, def color.NRGBA) color.NRGBA {
	if len(c) < 3 {
		return def
	}
	to8 := func(v float64) uint8 {
		return uint8(mgl64.Clamp(v, 0, 1)*255 + 0.5)
	}
	out := color.NRGBA{R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: 255}
	if len(c) > 3 {
		out.A = to8(c[3])
	}
	return out
}
