package noise

import (
	"fmt"
	"math"
	"strings"

	perlin "github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Source is a single-octave coherent noise primitive returning values in
// roughly [-1, 1]. Implementations must be safe for concurrent use once built.
type Source interface {
	Eval2(x, y float64) float64
}

// SourceKind selects the coherent noise primitive.
type SourceKind int

const (
	Simplex SourceKind = iota
	Perlin
)

func (k SourceKind) String() string {
	switch k {
	case Perlin:
		return "perlin"
	default:
		return "simplex"
	}
}

// ParseSourceKind accepts "simplex" or "perlin" (case-insensitive).
func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simplex", "opensimplex":
		return Simplex, nil
	case "perlin":
		return Perlin, nil
	}
	return Simplex, fmt.Errorf("unknown noise source %q", s)
}

// NewSource builds the primitive for kind seeded with seed.
func NewSource(kind SourceKind, seed int64) Source {
	switch kind {
	case Perlin:
		// One octave only; layering happens in Generate.
		return perlinSource{p: perlin.NewPerlin(2, 2, 1, seed)}
	default:
		return opensimplex.New(seed)
	}
}

// perlinPeriod is the lattice period of go-perlin. Its noise2 offsets inputs
// by 4096 and truncates, so only coordinates above -4096 interpolate.
const perlinPeriod = 256

type perlinSource struct {
	p *perlin.Perlin
}

// Eval2 wraps both coordinates into [0, perlinPeriod); the lattice repeats
// with that period, so wrapping is seamless.
func (s perlinSource) Eval2(x, y float64) float64 {
	return s.p.Noise2D(wrapPeriod(x), wrapPeriod(y))
}

func wrapPeriod(v float64) float64 {
	return v - perlinPeriod*math.Floor(v/perlinPeriod)
}
