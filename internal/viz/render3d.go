package viz

import (
	"math"

	"github.com/san-kum/llmvis/internal/camera"
	"github.com/san-kum/llmvis/internal/geom"
	"github.com/san-kum/llmvis/internal/netsim"
)

// OverlayText is a line of screen-space text collected during a frame. The
// terminal shows these next to the canvas instead of drawing them into it.
type OverlayText struct {
	Text  string
	X, Y  float64
	Color netsim.Color
}

// CanvasRenderer draws the model into a braille canvas through the session
// camera. Screen coordinates are canvas dots.
type CanvasRenderer struct {
	Canvas  *Canvas
	Camera  *camera.Camera
	Theme   Theme
	Overlay []OverlayText
	Rects   int

	viewProj geom.Mat4
	focal    float64
}

var _ netsim.Renderer = (*CanvasRenderer)(nil)

func NewCanvasRenderer(c *Canvas, cam *camera.Camera) *CanvasRenderer {
	return &CanvasRenderer{Canvas: c, Camera: cam, Theme: CurrentTheme}
}

// Begin clears the canvas and caches the camera matrices for this frame.
func (r *CanvasRenderer) Begin() {
	r.Canvas.Clear()
	r.Overlay = r.Overlay[:0]
	r.Rects = 0

	w, h := float64(r.Canvas.SubWidth()), float64(r.Canvas.SubHeight())
	r.viewProj = r.Camera.ProjectionMatrix(w / h).Mul(r.Camera.ViewMatrix())
	r.focal = h / 2 / math.Tan(geom.Radians(r.Camera.Zoom)/2)
}

// Project maps a world position to canvas dots. depth is the distance in
// front of the camera; ok is false for points behind the near plane.
func (r *CanvasRenderer) Project(p geom.Vec3) (x, y int, depth float64, ok bool) {
	clip := r.viewProj.MulVec4(geom.Vec4{X: p.X, Y: p.Y, Z: p.Z, W: 1})
	if clip.W <= camera.Near {
		return 0, 0, 0, false
	}
	nx, ny := clip.X/clip.W, clip.Y/clip.W
	w, h := float64(r.Canvas.SubWidth()), float64(r.Canvas.SubHeight())
	x = int(math.Round((nx + 1) / 2 * w))
	y = int(math.Round((1 - ny) / 2 * h))
	return x, y, clip.W, true
}

func (r *CanvasRenderer) RenderPanel(l *netsim.Layer, c netsim.Color) {
	corners := l.PanelCorners()
	col := r.Theme.Color(c)
	for i := range corners {
		x0, y0, _, ok0 := r.Project(corners[i])
		x1, y1, _, ok1 := r.Project(corners[(i+1)%len(corners)])
		if ok0 && ok1 {
			r.Canvas.DrawLine(x0, y0, x1, y1, col)
		}
	}
}

func (r *CanvasRenderer) RenderNeuron(pos geom.Vec3, size float64, c netsim.Color) {
	x, y, depth, ok := r.Project(pos)
	if !ok {
		return
	}
	radius := int(size * r.focal / depth)
	r.Canvas.FillCircle(x, y, radius, r.Theme.Color(c))
}

func (r *CanvasRenderer) RenderConnection(from, to geom.Vec3, strength float64, c netsim.Color) {
	x0, y0, _, ok0 := r.Project(from)
	x1, y1, _, ok1 := r.Project(to)
	if !ok0 || !ok1 {
		return
	}
	c.A *= strength
	r.Canvas.DrawLine(x0, y0, x1, y1, r.Theme.Color(c))
}

func (r *CanvasRenderer) RenderDataFlow(start, end geom.Vec3, progress float64, c netsim.Color) {
	x, y, _, ok := r.Project(start.Lerp(end, progress))
	if !ok {
		return
	}
	r.Canvas.FillCircle(x, y, 2, r.Theme.Color(c))
}

func (r *CanvasRenderer) RenderText(text string, x, y, _ float64, c netsim.Color) {
	r.Overlay = append(r.Overlay, OverlayText{Text: text, X: x, Y: y, Color: c})
}

// RenderRect only counts: overlay backgrounds are not drawn in the terminal.
func (r *CanvasRenderer) RenderRect(_, _, _, _ float64, _ netsim.Color) {
	r.Rects++
}
