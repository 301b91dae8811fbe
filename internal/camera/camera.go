// Package camera implements the free-flying viewpoint used to look at the
// network and to turn screen coordinates into world-space picking rays.
package camera

import (
	"math"

	"github.com/san-kum/llmvis/internal/geom"
)

const (
	DefaultYaw         = -90.0
	DefaultPitch       = 0.0
	DefaultSpeed       = 0.8
	DefaultSensitivity = 0.05
	DefaultZoom        = 45.0

	MinZoom  = 1.0
	MaxZoom  = 45.0
	MaxPitch = 89.0

	Near = 0.1
	Far  = 100.0
)

// Direction is a keyboard movement direction.
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
	Up
	Down
)

// Camera keeps position and an orthonormal front/up/right basis derived from
// yaw and pitch (degrees).
type Camera struct {
	Position geom.Vec3
	Front    geom.Vec3
	Up       geom.Vec3
	Right    geom.Vec3
	WorldUp  geom.Vec3

	Yaw   float64
	Pitch float64

	MovementSpeed    float64
	MouseSensitivity float64
	Zoom             float64
}

func New(position geom.Vec3) *Camera {
	c := &Camera{
		Position:         position,
		Front:            geom.Vec3{X: 0, Y: 0, Z: -1},
		Up:               geom.Vec3{X: 0, Y: 1, Z: 0},
		Right:            geom.Vec3{X: 1, Y: 0, Z: 0},
		WorldUp:          geom.Vec3{X: 0, Y: 1, Z: 0},
		Yaw:              DefaultYaw,
		Pitch:            DefaultPitch,
		MovementSpeed:    DefaultSpeed,
		MouseSensitivity: DefaultSensitivity,
		Zoom:             DefaultZoom,
	}
	c.updateVectors()
	return c
}

// Update is called once per frame. The camera has no time-driven state.
func (c *Camera) Update(dt float64) {}

func (c *Camera) ViewMatrix() geom.Mat4 {
	return geom.LookAt(c.Position, c.Position.Add(c.Front), c.Up)
}

func (c *Camera) ProjectionMatrix(aspect float64) geom.Mat4 {
	return geom.Perspective(geom.Radians(c.Zoom), aspect, Near, Far)
}

// ProcessKeyboard moves along the basis vectors by MovementSpeed*dt.
func (c *Camera) ProcessKeyboard(dir Direction, dt float64) {
	velocity := c.MovementSpeed * dt
	switch dir {
	case Forward:
		c.Position = c.Position.Add(c.Front.Scale(velocity))
	case Backward:
		c.Position = c.Position.Sub(c.Front.Scale(velocity))
	case Left:
		c.Position = c.Position.Sub(c.Right.Scale(velocity))
	case Right:
		c.Position = c.Position.Add(c.Right.Scale(velocity))
	case Up:
		c.Position = c.Position.Add(c.Up.Scale(velocity))
	case Down:
		c.Position = c.Position.Sub(c.Up.Scale(velocity))
	}
	c.updateVectors()
}

func (c *Camera) ProcessMouseMovement(dx, dy float64, constrainPitch bool) {
	c.Yaw += dx * c.MouseSensitivity
	c.Pitch += dy * c.MouseSensitivity
	if constrainPitch {
		c.Pitch = geom.Clamp(c.Pitch, -MaxPitch, MaxPitch)
	}
	c.updateVectors()
}

func (c *Camera) ProcessMouseScroll(dy float64) {
	c.Zoom = geom.Clamp(c.Zoom-dy, MinZoom, MaxZoom)
	c.updateVectors()
}

// RayDirection maps a screen position to a unit world-space direction leaving
// the camera. Screen y grows downwards.
func (c *Camera) RayDirection(mouseX, mouseY float64, screenW, screenH int) geom.Vec3 {
	if screenW <= 0 || screenH <= 0 {
		return c.Front
	}
	x := 2*mouseX/float64(screenW) - 1
	y := 1 - 2*mouseY/float64(screenH)
	clip := geom.Vec4{X: x, Y: y, Z: -1, W: 1}

	invProj, err := c.ProjectionMatrix(float64(screenW) / float64(screenH)).Inverse()
	if err != nil {
		return c.Front
	}
	eye := invProj.MulVec4(clip)
	eye = geom.Vec4{X: eye.X, Y: eye.Y, Z: -1, W: 0}

	invView, err := c.ViewMatrix().Inverse()
	if err != nil {
		return c.Front
	}
	dir := invView.MulVec4(eye).XYZ().Normalize()
	if dir.Length() == 0 {
		return c.Front
	}
	return dir
}

func (c *Camera) updateVectors() {
	yaw, pitch := geom.Radians(c.Yaw), geom.Radians(c.Pitch)
	front := geom.Vec3{
		X: math.Cos(yaw) * math.Cos(pitch),
		Y: math.Sin(pitch),
		Z: math.Sin(yaw) * math.Cos(pitch),
	}
	c.Front = front.Normalize()
	c.Right = c.Front.Cross(c.WorldUp).Normalize()
	c.Up = c.Right.Cross(c.Front).Normalize()
}
