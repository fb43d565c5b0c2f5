// Package falloff builds square island masks that suppress height towards
// the edges of a tile.
package falloff

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Shape constants of the falloff curve d^a / (d^a + (b - b*d)^a).
const (
	DefaultSteepness = 3.0
	DefaultShift     = 2.2
)

// Grid is an immutable size x size mask in [0,1]; 0 at the centre, 1 at the corners.
type Grid struct {
	size   int
	values []float64
}

// Size returns the edge length.
func (g Grid) Size() int { return g.size }

// At returns the mask value at column x, row y.
func (g Grid) At(x, y int) float64 { return g.values[y*g.size+x] }

// Len returns the cell count.
func (g Grid) Len() int { return len(g.values) }

// Generate builds the default-shaped mask for size.
func Generate(size int) Grid {
	return GenerateShaped(size, DefaultSteepness, DefaultShift)
}

// GenerateShaped builds a mask with explicit curve constants.
func GenerateShaped(size int, a, b float64) Grid {
	if size <= 0 {
		return Grid{}
	}
	values := make([]float64, size*size)
	span := size - 1
	for y := range size {
		// Integer offsets from the centre keep mirrored cells bit-identical.
		dy := absInt(2*y - span)
		for x := range size {
			dx := absInt(2*x - span)
			d := 0.0
			if span > 0 {
				d = float64(max(dx, dy)) / float64(span)
			}
			values[y*size+x] = Evaluate(d, a, b)
		}
	}
	return Grid{size: size, values: values}
}

// Evaluate applies the falloff curve to a normalised distance d in [0,1].
func Evaluate(d, a, b float64) float64 {
	num := math.Pow(d, a)
	den := num + math.Pow(b-b*d, a)
	if den == 0 {
		return 0
	}
	return mgl64.Clamp(num/den, 0, 1)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type shape struct {
	size int
	a, b float64
}

// Cache hands out masks keyed by size and curve shape. Grids are built once
// and never mutated, so concurrent readers may share them.
type Cache struct {
	mu    sync.RWMutex
	a, b  float64
	grids map[shape]Grid
}

// NewCache returns a cache using the default curve shape.
func NewCache() *Cache {
	return &Cache{a: DefaultSteepness, b: DefaultShift, grids: make(map[shape]Grid)}
}

// Get returns the mask for size, building it on first use.
func (c *Cache) Get(size int) Grid {
	c.mu.RLock()
	key := shape{size: size, a: c.a, b: c.b}
	g, ok := c.grids[key]
	c.mu.RUnlock()
	if ok {
		return g
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	key = shape{size: size, a: c.a, b: c.b}
	if g, ok := c.grids[key]; ok {
		return g
	}
	g = GenerateShaped(size, key.a, key.b)
	c.grids[key] = g
	return g
}

// SetShape changes the curve constants and drops every cached mask.
func (c *Cache) SetShape(a, b float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a == c.a && b == c.b {
		return
	}
	c.a, c.b = a, b
	clear(c.grids)
}

// Invalidate drops every cached mask.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	clear(c.grids)
	c.mu.Unlock()
}

// Len reports how many masks are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.grids)
}
