package meshing

import "sort"

// HeightCurve reshapes a normalised height before it is scaled into the mesh.
// Implementations must be safe for concurrent use.
type HeightCurve interface {
	Evaluate(t float64) float64
}

// LinearCurve leaves heights unchanged.
type LinearCurve struct{}

func (LinearCurve) Evaluate(t float64) float64 { return t }

// Keyframe is one control point of a Keyframes curve.
type Keyframe struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Keyframes is a piecewise-linear curve through sorted control points.
// Inputs outside the key range hold the first or last value.
type Keyframes struct {
	keys []Keyframe
}

// NewKeyframes sorts keys by time. An empty key set behaves like LinearCurve.
func NewKeyframes(keys ...Keyframe) Keyframes {
	k := make([]Keyframe, len(keys))
	copy(k, keys)
	sort.SliceStable(k, func(i, j int) bool { return k[i].Time < k[j].Time })
	return Keyframes{keys: k}
}

// Keys returns a copy of the control points.
func (c Keyframes) Keys() []Keyframe {
	out := make([]Keyframe, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c Keyframes) Evaluate(t float64) float64 {
	n := len(c.keys)
	switch {
	case n == 0:
		return t
	case t <= c.keys[0].Time:
		return c.keys[0].Value
	case t >= c.keys[n-1].Time:
		return c.keys[n-1].Value
	}
	i := sort.Search(n, func(i int) bool { return c.keys[i].Time >= t })
	a, b := c.keys[i-1], c.keys[i]
	span := b.Time - a.Time
	if span == 0 {
		return b.Value
	}
	return a.Value + (t-a.Time)/span*(b.Value-a.Value)
}
