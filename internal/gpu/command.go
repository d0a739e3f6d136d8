package gpu

import (
	"image/color"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"planar-reflection/internal/scene"
)

// Op identifies a recorded command.
type Op int

const (
	OpSetRenderTarget Op = iota
	OpClear
	OpSetViewProjection
	OpSetInvertCulling
	OpDrawRenderers
	OpBlit
	OpSetGlobalTexture
	OpBeginSample
	OpEndSample
)

var opNames = [...]string{
	OpSetRenderTarget:   "SetRenderTarget",
	OpClear:             "Clear",
	OpSetViewProjection: "SetViewProjection",
	OpSetInvertCulling:  "SetInvertCulling",
	OpDrawRenderers:     "DrawRenderers",
	OpBlit:              "Blit",
	OpSetGlobalTexture:  "SetGlobalTexture",
	OpBeginSample:       "BeginSample",
	OpEndSample:         "EndSample",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "Unknown"
}

// ClearFlag selects which attachments Clear touches.
type ClearFlag int

const (
	ClearColor ClearFlag = 1 << iota
	ClearDepth

	ClearAll = ClearColor | ClearDepth
)

// DrawSettings configures a DrawRenderers command.
type DrawSettings struct {
	Tags  []scene.ShaderTag
	Light scene.Light
}

// Command is one recorded operation. Only the fields relevant to Op are set.
type Command struct {
	Op Op

	Color Texture
	Depth Texture

	ClearFlags ClearFlag
	ClearColor color.RGBA

	View       mgl64.Mat4
	Projection mgl64.Mat4

	Invert bool

	Renderers []*scene.Renderer
	Draw      DrawSettings

	Src      Texture
	Dst      Texture
	Material Material
	Pass     int // -1 for a plain bilinear copy

	Name string
}

// CommandBuffer records commands for one frame.
type CommandBuffer struct {
	Name     string
	Frame    uint64
	commands []Command
}

var cbPool = sync.Pool{
	New: func() any { return &CommandBuffer{} },
}

// GetCommandBuffer returns an empty pooled command buffer.
func GetCommandBuffer(name string, frame uint64) *CommandBuffer {
	cb := cbPool.Get().(*CommandBuffer)
	cb.Name = name
	cb.Frame = frame
	cb.commands = cb.commands[:0]
	return cb
}

// ReleaseCommandBuffer returns cb to the pool. cb must not be used afterwards.
func ReleaseCommandBuffer(cb *CommandBuffer) {
	if cb == nil {
		return
	}
	cb.Clear()
	cbPool.Put(cb)
}

// Commands returns the recorded commands in order.
func (cb *CommandBuffer) Commands() []Command {
	return cb.commands
}

// Len returns the number of recorded commands.
func (cb *CommandBuffer) Len() int {
	return len(cb.commands)
}

// Clear drops all recorded commands.
func (cb *CommandBuffer) Clear() {
	for i := range cb.commands {
		cb.commands[i] = Command{}
	}
	cb.commands = cb.commands[:0]
}

func (cb *CommandBuffer) add(c Command) {
	cb.commands = append(cb.commands, c)
}

// SetRenderTarget binds color and optional depth attachments.
func (cb *CommandBuffer) SetRenderTarget(colorTex, depthTex Texture) {
	cb.add(Command{Op: OpSetRenderTarget, Color: colorTex, Depth: depthTex})
}

// ClearRenderTarget clears the bound attachments.
func (cb *CommandBuffer) ClearRenderTarget(flags ClearFlag, c color.RGBA) {
	cb.add(Command{Op: OpClear, ClearFlags: flags, ClearColor: c})
}

// SetViewProjection replaces the shared view and projection matrices.
func (cb *CommandBuffer) SetViewProjection(view, proj mgl64.Mat4) {
	cb.add(Command{Op: OpSetViewProjection, View: view, Projection: proj})
}

// SetInvertCulling swaps which winding counts as front-facing.
func (cb *CommandBuffer) SetInvertCulling(invert bool) {
	cb.add(Command{Op: OpSetInvertCulling, Invert: invert})
}

// DrawRenderers draws renderers into the bound target in the given order.
func (cb *CommandBuffer) DrawRenderers(renderers []*scene.Renderer, settings DrawSettings) {
	list := make([]*scene.Renderer, len(renderers))
	copy(list, renderers)
	cb.add(Command{Op: OpDrawRenderers, Renderers: list, Draw: settings})
}

// Blit draws src into dst through material pass. A nil material copies
// with bilinear filtering.
func (cb *CommandBuffer) Blit(src, dst Texture, m Material, pass int) {
	if m == nil {
		pass = -1
	}
	cb.add(Command{Op: OpBlit, Src: src, Dst: dst, Material: m, Pass: pass})
}

// SetGlobalTexture publishes tex under name for shaders.
func (cb *CommandBuffer) SetGlobalTexture(name string, tex Texture) {
	cb.add(Command{Op: OpSetGlobalTexture, Name: name, Src: tex})
}

// BeginSample opens a named profiling sample.
func (cb *CommandBuffer) BeginSample(name string) {
	cb.add(Command{Op: OpBeginSample, Name: name})
}

// EndSample closes a named profiling sample.
func (cb *CommandBuffer) EndSample(name string) {
	cb.add(Command{Op: OpEndSample, Name: name})
}
