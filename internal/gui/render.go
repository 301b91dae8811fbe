package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/llmvis/internal/camera"
	"github.com/san-kum/llmvis/internal/geom"
	"github.com/san-kum/llmvis/internal/netsim"
)

const (
	sphereRings  = 8
	sphereSlices = 12
	flowRadius   = 0.1
	textBaseSize = 18
)

type overlay struct {
	text       string
	x, y, w, h float32
	size       float32
	color      rl.Color
}

// Renderer draws 3D primitives immediately inside BeginMode3D and queues
// text and rectangles until the 3D pass has ended.
type Renderer struct {
	font    rl.Font
	queue   []overlay
	in3D    bool
	hasFont bool
}

var _ netsim.Renderer = (*Renderer)(nil)

func NewRenderer(font rl.Font, hasFont bool) *Renderer {
	return &Renderer{font: font, hasFont: hasFont}
}

func vec(v geom.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z))
}

func color(c netsim.Color) rl.Color {
	to8 := func(v float64) uint8 { return uint8(geom.Clamp(v, 0, 1)*255 + 0.5) }
	return rl.NewColor(to8(c.R), to8(c.G), to8(c.B), to8(c.A))
}

// Camera3D converts the session camera for raylib.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec(c.Position),
		Target:     vec(c.Position.Add(c.Front)),
		Up:         vec(c.Up),
		Fovy:       float32(c.Zoom),
		Projection: rl.CameraPerspective,
	}
}

func (r *Renderer) Begin(c *camera.Camera) {
	r.queue = r.queue[:0]
	rl.BeginMode3D(Camera3D(c))
	r.in3D = true
}

// End closes the 3D pass and draws the queued overlay.
func (r *Renderer) End() {
	if r.in3D {
		rl.EndMode3D()
		r.in3D = false
	}
	for _, o := range r.queue {
		if o.text == "" {
			rl.DrawRectangle(int32(o.x), int32(o.y), int32(o.w), int32(o.h), o.color)
			continue
		}
		if r.hasFont {
			rl.DrawTextEx(r.font, o.text, rl.NewVector2(o.x, o.y), o.size, 1, o.color)
		} else {
			rl.DrawText(o.text, int32(o.x), int32(o.y), int32(o.size), o.color)
		}
	}
}

func (r *Renderer) RenderPanel(l *netsim.Layer, c netsim.Color) {
	p := l.PanelCorners()
	col := color(c)
	// both windings so the panel is visible from either side
	rl.DrawTriangle3D(vec(p[0]), vec(p[1]), vec(p[2]), col)
	rl.DrawTriangle3D(vec(p[0]), vec(p[2]), vec(p[3]), col)
	rl.DrawTriangle3D(vec(p[0]), vec(p[2]), vec(p[1]), col)
	rl.DrawTriangle3D(vec(p[0]), vec(p[3]), vec(p[2]), col)

	edge := col
	edge.A = 255
	for i := range p {
		rl.DrawLine3D(vec(p[i]), vec(p[(i+1)%len(p)]), edge)
	}
}

func (r *Renderer) RenderNeuron(pos geom.Vec3, size float64, c netsim.Color) {
	rl.DrawSphereEx(vec(pos), float32(size), sphereRings, sphereSlices, color(c))
}

func (r *Renderer) RenderConnection(from, to geom.Vec3, strength float64, c netsim.Color) {
	c.A *= strength
	rl.DrawLine3D(vec(from), vec(to), color(c))
}

func (r *Renderer) RenderDataFlow(start, end geom.Vec3, progress float64, c netsim.Color) {
	rl.DrawLine3D(vec(start), vec(end), color(netsim.Color{R: c.R, G: c.G, B: c.B, A: 0.3}))
	rl.DrawSphereEx(vec(start.Lerp(end, progress)), flowRadius, sphereRings, sphereSlices, color(c))
}

func (r *Renderer) RenderText(text string, x, y, scale float64, c netsim.Color) {
	r.queue = append(r.queue, overlay{
		text: text, x: float32(x), y: float32(y),
		size: float32(textBaseSize * scale), color: color(c),
	})
}

func (r *Renderer) RenderRect(x, y, w, h float64, c netsim.Color) {
	r.queue = append(r.queue, overlay{x: float32(x), y: float32(y), w: float32(w), h: float32(h), color: color(c)})
}
