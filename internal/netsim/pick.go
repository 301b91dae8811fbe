package netsim

import (
	"math"

	"github.com/san-kum/llmvis/internal/geom"
)

const (
	layerPickRadius = 0.6
	headPickRadius  = headSize
)

// Selection identifies a picked component. Head is -1 when a layer itself
// was picked.
type Selection struct {
	Layer    int
	Head     int
	Distance float64
}

// Pick casts a ray and returns the nearest layer or attention head it hits.
// Heads win ties against layers.
func (m *Model) Pick(origin, dir geom.Vec3) (Selection, bool) {
	dir = dir.Normalize()
	if dir.Length() == 0 {
		return Selection{}, false
	}

	best := Selection{Layer: -1, Head: -1, Distance: math.Inf(1)}
	for li, l := range m.layers {
		for hi, h := range l.heads {
			if d, ok := raySphere(origin, dir, h.Position(), headPickRadius); ok && d <= best.Distance {
				best = Selection{Layer: li, Head: hi, Distance: d}
			}
		}
		if d, ok := raySphere(origin, dir, l.position, layerPickRadius); ok && d < best.Distance {
			best = Selection{Layer: li, Head: -1, Distance: d}
		}
	}
	if best.Layer < 0 {
		return Selection{}, false
	}
	return best, true
}

// Apply highlights the selected layer or head.
func (s Selection) Apply(m *Model) {
	if s.Head >= 0 {
		m.HighlightAttentionHead(s.Layer, s.Head)
		return
	}
	m.HighlightLayer(s.Layer)
}

// raySphere returns the distance along a unit ray to the first intersection
// with a sphere in front of the origin.
func raySphere(origin, dir, center geom.Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
