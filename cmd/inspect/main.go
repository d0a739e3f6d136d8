package main

import (
	"fmt"
	"log"

	"github.com/alecthomas/kong"
	"github.com/go-gl/mathgl/mgl64"

	"planar-reflection/internal/config"
	"planar-reflection/internal/gpu"
	"planar-reflection/internal/pass"
	"planar-reflection/internal/raster"
	"planar-reflection/internal/registry"
	"planar-reflection/internal/scene"
	"planar-reflection/internal/target"
	"planar-reflection/internal/viewmatrix"
)

var CLI struct {
	Targets TargetsCmd `cmd:"" help:"Print reflection target and blur pyramid sizes."`
	Mirror  MirrorCmd  `cmd:"" help:"Print the mirrored view and projection for a camera."`
	Scene   SceneCmd   `cmd:"" help:"Print cameras and the renderers each reflection draws."`
}

type TargetsCmd struct {
	Width      int     `name:"width" default:"1920" help:"Camera width in pixels."`
	Height     int     `name:"height" default:"1080" help:"Camera height in pixels."`
	Resolution string  `name:"resolution" default:"half" help:"full, half, quarter or eighth."`
	Iterations int     `name:"iterations" default:"3" help:"Blur pyramid depth."`
	Offset     float64 `name:"offset" default:"0" help:"Blur spread."`
}

func (c TargetsCmd) Run() error {
	s := config.DefaultSettings()
	r, err := config.ParseResolution(c.Resolution)
	if err != nil {
		return err
	}
	s.Resolution, s.Iterations, s.Offset = r, c.Iterations, c.Offset
	for _, n := range s.Normalize() {
		fmt.Printf("note: %s\n", n.Error())
	}

	col := target.ColorDescriptor(pass.DefaultTextureName, c.Width, c.Height, int(s.Resolution))
	dep := target.DepthDescriptor(pass.DefaultTextureName, c.Width, c.Height, int(s.Resolution))
	fmt.Printf("Camera: %dx%d, resolution %s\n", c.Width, c.Height, s.Resolution)
	fmt.Printf("  %-26s %5dx%-5d %v\n", col.Name, col.Width, col.Height, col.Format)
	fmt.Printf("  %-26s %5dx%-5d %v (%d bits)\n", dep.Name, dep.Width, dep.Height, dep.Format, dep.DepthBits)

	down, up := target.PyramidDescriptors(col.Width, col.Height, s.Iterations)
	fmt.Printf("Pyramid: %d levels, offset %.2f\n", len(down), s.Offset)
	for i := range down {
		fmt.Printf("  %-26s %5dx%-5d   %-26s %5dx%-5d\n",
			down[i].Name, down[i].Width, down[i].Height, up[i].Name, up[i].Width, up[i].Height)
	}
	return nil
}

type MirrorCmd struct {
	PlaneY     float64   `name:"plane-y" default:"0" help:"Mirror plane height."`
	FOV        float64   `name:"fov" default:"60" help:"Vertical field of view in degrees."`
	Width      int       `name:"width" default:"1920"`
	Height     int       `name:"height" default:"1080"`
	Position   []float64 `name:"position" default:"0,2,6" help:"Camera position x,y,z."`
	Target     []float64 `name:"target" default:"0,0,0" help:"Camera target x,y,z."`
	Convention string    `name:"convention" default:"opengl"`
}

func vec3(v []float64) (mgl64.Vec3, error) {
	if len(v) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("need 3 components, got %d", len(v))
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

func (c MirrorCmd) Run() error {
	conv, err := gpu.ParseConvention(c.Convention)
	if err != nil {
		return err
	}
	pos, err := vec3(c.Position)
	if err != nil {
		return fmt.Errorf("position: %w", err)
	}
	tgt, err := vec3(c.Target)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	cam := scene.Camera{Name: "cli", FOV: c.FOV, Near: 0.1, Far: 100, Width: c.Width, Height: c.Height,
		Position: pos, Target: tgt, Up: mgl64.Vec3{0, 1, 0}}
	if err := cam.Validate(); err != nil {
		return err
	}
	cs := viewmatrix.FromCamera(cam)
	t := viewmatrix.Build(cs, c.PlaneY, conv)

	fmt.Printf("Aspect: %.4f, convention %s, invert culling %v\n", cs.Aspect(), conv, t.InvertCulling)
	printMat("Mirror", viewmatrix.MirrorMatrix(c.PlaneY))
	printMat("View × Mirror", t.View)
	printMat("Projection", t.Projection)
	return nil
}

func printMat(name string, m mgl64.Mat4) {
	fmt.Printf("%s:\n", name)
	for r := 0; r < 4; r++ {
		fmt.Printf("  [% 9.4f % 9.4f % 9.4f % 9.4f]\n", m.At(r, 0), m.At(r, 1), m.At(r, 2), m.At(r, 3))
	}
}

type SceneCmd struct {
	Path   string `arg:"" name:"scene" help:"Scene YAML file." type:"existingfile"`
	Config string `name:"config" help:"Config file supplying reflection settings." type:"existingfile" optional:""`
}

func (c SceneCmd) Run() error {
	sc, err := scene.LoadFile(c.Path)
	if err != nil {
		return err
	}
	cfg := config.Default()
	if c.Config != "" {
		if cfg, err = config.Load(c.Config); err != nil {
			return err
		}
	}
	s := cfg.Reflection
	s.Normalize()

	fmt.Printf("Scene %q: %d cameras, %d objects\n", sc.Name, len(sc.Cameras), len(sc.Renderers))
	dev := raster.NewDevice(raster.Options{Registry: registry.New()})
	f := pass.New(dev, &s, pass.Options{})
	for _, cam := range sc.Cameras {
		sess := pass.NewSession(dev, cam, sc.Renderers)
		w, h := target.ReflectionSize(cam.Width, cam.Height, int(s.Resolution))
		fmt.Printf("  %-12s %-10s %dx%d → reflection %dx%d, render=%v\n",
			cam.Name, cam.Type, cam.Width, cam.Height, w, h, f.ShouldRender(cam))
		if err := f.Configure(sess, 0); err != nil {
			return err
		}
		visible := f.Visible(sess)
		f.ReleaseResources(sess)
		for _, r := range visible {
			fmt.Printf("      %-20s layer %2d queue %4d %s\n", r.Name, r.Layer, r.Material.Queue, r.Material.Tag)
		}
	}
	return nil
}

func main() {
	ctx := kong.Parse(&CLI, kong.Name("inspect"))
	if err := ctx.Run(); err != nil {
		log.Fatal(err)
	}
}
