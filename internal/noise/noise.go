package noise

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MinScale is the smallest accepted noise scale.
	MinScale = 1e-4

	// jitterRange bounds the per-octave sample offset on each axis.
	jitterRange = 100000.0

	// GlobalSpread scales the analytic bound ±A used by Global normalisation
	// down, widening the spread of normalised heights. Octave peaks rarely
	// align, so the full bound is almost never reached; 1/1.75 was calibrated
	// against the simplex source on 241-cell tiles.
	GlobalSpread = 1 / 1.75
)

// NormalizeMode selects how raw accumulated noise is mapped into [0,1].
type NormalizeMode int

const (
	// Local uses the observed min/max of the tile itself.
	Local NormalizeMode = iota
	// Global uses a fixed bound derived from persistence and octave count so
	// neighbouring tiles agree on shared borders.
	Global
)

func (m NormalizeMode) String() string {
	if m == Global {
		return "global"
	}
	return "local"
}

// ParseNormalizeMode accepts "local" or "global" (case-insensitive).
func ParseNormalizeMode(s string) (NormalizeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "local":
		return Local, nil
	case "global":
		return Global, nil
	}
	return Local, fmt.Errorf("unknown normalize mode %q", s)
}

// Params describes one layered noise field.
type Params struct {
	Seed        int64
	Scale       float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
	Offset      mgl64.Vec2
	Origin      mgl64.Vec2
	Normalize   NormalizeMode
	Source      SourceKind
}

// Clamped returns a copy with invalid fields corrected.
func (p Params) Clamped() Params {
	if !(p.Scale > MinScale) {
		p.Scale = MinScale
	}
	if p.Octaves < 0 {
		p.Octaves = 0
	}
	if !(p.Lacunarity >= 1) {
		p.Lacunarity = 1
	}
	p.Persistence = mgl64.Clamp(p.Persistence, 0, 1)
	if math.IsNaN(p.Persistence) {
		p.Persistence = 0
	}
	return p
}

// MaxAmplitude is the sum of every octave amplitude, the largest magnitude
// the accumulated value can reach with a source bounded by [-1,1].
func (p Params) MaxAmplitude() float64 {
	sum, amp := 0.0, 1.0
	for range p.Octaves {
		sum += amp
		amp *= p.Persistence
	}
	return sum
}

// Generate fills a width x height grid with octave layered noise normalised
// into [0,1]. Identical arguments always yield identical grids.
func Generate(width, height int, params Params) HeightGrid {
	if width <= 0 || height <= 0 {
		return HeightGrid{}
	}
	p := params.Clamped()
	values := make([]float64, width*height)
	if p.Octaves == 0 {
		return HeightGrid{width: width, height: height, values: values}
	}

	src := NewSource(p.Source, p.Seed)
	jitter := make([]mgl64.Vec2, p.Octaves)
	for o := range jitter {
		jitter[o] = octaveJitter(p.Seed, o)
	}

	halfW := float64(width-1) / 2
	halfH := float64(height-1) / 2
	base := p.Origin.Add(p.Offset)

	lo, hi := math.Inf(1), math.Inf(-1)
	for y := range height {
		for x := range width {
			cx := (float64(x) - halfW + base[0]) / p.Scale
			cy := (float64(y) - halfH + base[1]) / p.Scale

			amplitude, frequency, sum := 1.0, 1.0, 0.0
			for o := range p.Octaves {
				sx := cx*frequency + jitter[o][0]
				sy := cy*frequency + jitter[o][1]
				sum += src.Eval2(sx, sy) * amplitude
				amplitude *= p.Persistence
				frequency *= p.Lacunarity
			}
			lo = min(lo, sum)
			hi = max(hi, sum)
			values[y*width+x] = sum
		}
	}

	switch p.Normalize {
	case Global:
		bound := p.MaxAmplitude() * GlobalSpread
		for i, v := range values {
			values[i] = mgl64.Clamp((v/bound+1)/2, 0, 1)
		}
	default:
		span := hi - lo
		for i, v := range values {
			if span == 0 {
				values[i] = 0
				continue
			}
			values[i] = (v - lo) / span
		}
	}
	return HeightGrid{width: width, height: height, values: values}
}

// hash2 is a SplitMix64 style integer hash, stable across runs.
func hash2(x int64, z int64, seed int64) uint64 {
	v := uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	v = v ^ (v >> 31)
	return v
}

// octaveJitter derives the sample offset of octave o from the seed alone.
func octaveJitter(seed int64, o int) mgl64.Vec2 {
	unit := func(h uint64) float64 {
		return float64(h>>11) / float64(1<<53)
	}
	// Axes interleave so no two (octave, axis) pairs share a hash input.
	jx := unit(hash2(int64(2*o), 0, seed))*2*jitterRange - jitterRange
	jy := unit(hash2(int64(2*o+1), 0, seed))*2*jitterRange - jitterRange
	return mgl64.Vec2{jx, jy}
}
