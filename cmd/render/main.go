package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"planar-reflection/internal/batch"
	"planar-reflection/internal/config"
	"planar-reflection/internal/gpu"
	"planar-reflection/internal/logging"
	"planar-reflection/internal/scene"
	"planar-reflection/internal/texture"
)

var CLI struct {
	Config      string `name:"config" help:"Path to a YAML or JSON config file." type:"existingfile" optional:""`
	Scene       string `name:"scene" help:"Scene YAML file (overrides the config)." type:"path" optional:""`
	Textures    string `name:"textures" help:"Directory of material textures." type:"path" optional:""`
	Output      string `name:"output" help:"Output directory (default: renders)." type:"path" optional:""`
	Frames      int    `name:"frames" help:"Frames per camera, orbiting the target."`
	Supersample int    `name:"supersample" help:"Supersample factor 1-4."`
	Workers     int    `name:"workers" help:"Number of worker goroutines (default: NumCPU)."`
	Convention  string `name:"convention" help:"Projection convention: opengl, direct3d, vulkan, metal."`
	Resolution  string `name:"resolution" help:"Reflection resolution: full, half, quarter, eighth."`
	Iterations  int    `name:"iterations" help:"Blur pyramid depth 2-9."`
	NoBlur      bool   `name:"no-blur" help:"Publish the raw reflection."`
	DumpPyramid bool   `name:"dump-pyramid" help:"Write a contact sheet of the blur pyramid per frame."`
	Verbose     bool   `name:"verbose" short:"v" help:"Debug logging."`
}

func run() error {
	logger, err := logging.New(CLI.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logging.Set(logger)

	// Load config
	cfg := config.Default()
	if CLI.Config != "" {
		cfg, err = config.Load(CLI.Config)
		if err != nil {
			return err
		}
	}

	// CLI flags override config file
	if err := cfg.Resolve(config.Flags{
		Scene:       CLI.Scene,
		TextureDir:  CLI.Textures,
		OutputDir:   CLI.Output,
		Frames:      CLI.Frames,
		Supersample: CLI.Supersample,
		Workers:     CLI.Workers,
		Convention:  CLI.Convention,
		Resolution:  CLI.Resolution,
		NoBlur:      CLI.NoBlur,
		Iterations:  CLI.Iterations,
		DumpPyramid: CLI.DumpPyramid,
	}); err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Fprint(os.Stderr, config.FormatValidationErrors(errs))
		return errors.New("invalid configuration")
	}
	for _, n := range cfg.Reflection.Normalize() {
		logger.Warn("reflection setting adjusted", zap.String("field", n.Field), zap.String("message", n.Message))
	}

	conv, err := gpu.ParseConvention(cfg.Convention)
	if err != nil {
		return err
	}
	var exclude *regexp.Regexp
	if cfg.Exclude != "" {
		exclude = regexp.MustCompile(cfg.Exclude)
	}

	sc, err := scene.LoadFile(cfg.Scene)
	if err != nil {
		return err
	}
	if len(sc.Cameras) == 0 {
		fmt.Println("No cameras to render.")
		return nil
	}

	// Build texture index
	texIndex := texture.BuildIndex(cfg.TextureDir)
	texCache := texture.NewCache(texIndex)
	fmt.Printf("Textures: %d indexed\n", texIndex.Len())

	r := cfg.Reflection
	fmt.Printf("Planar reflection renderer → WebP (%s)\n", sc.Name)
	fmt.Printf("Cameras: %d, Frames: %d, Objects: %d, Workers: %d\n", len(sc.Cameras), cfg.Frames, len(sc.Renderers), cfg.Workers)
	fmt.Printf("Reflection: plane y=%.2f, %s resolution, blur=%v (%d iterations, offset %.2f)\n",
		r.PlaneYPos, r.Resolution, r.ApplyBlur, r.Iterations, r.Offset)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results := batch.Run(ctx, batch.Config{
		Scene:        sc,
		Settings:     cfg.Reflection,
		OutputDir:    cfg.OutputDir,
		TexResolver:  texCache,
		Convention:   conv,
		Exclude:      exclude,
		Frames:       cfg.Frames,
		OrbitDegrees: cfg.OrbitDegrees,
		Supersample:  cfg.Supersample,
		Workers:      cfg.Workers,
		DumpPyramid:  cfg.DumpPyramid,
	})

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	var errs []batch.Result
	for _, res := range results {
		if res.Success {
			success++
		} else {
			failed++
			errs = append(errs, res)
		}
	}
	fmt.Printf("Rendered: %d/%d\n", success, len(results))

	if len(errs) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		limit := min(20, len(errs))
		for _, e := range errs[:limit] {
			fmt.Printf("  %s frame %d: %s\n", e.Camera, e.Frame, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		logger.Warn("manifest write failed", zap.Error(err))
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		return fmt.Errorf("%d frames failed", failed)
	}
	return nil
}

func main() {
	kong.Parse(&CLI,
		kong.Name("render"),
		kong.Description("Render a scene with planar reflections to WebP."))
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
