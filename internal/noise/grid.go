package noise

// HeightGrid is an immutable row-major grid of heights.
type HeightGrid struct {
	width  int
	height int
	values []float64
}

// NewHeightGrid copies values into a grid of the given dimensions.
// values must hold width*height entries in row-major order.
func NewHeightGrid(width, height int, values []float64) HeightGrid {
	if width <= 0 || height <= 0 {
		return HeightGrid{}
	}
	v := make([]float64, width*height)
	copy(v, values)
	return HeightGrid{width: width, height: height, values: v}
}

// Width returns the number of columns.
func (g HeightGrid) Width() int { return g.width }

// Height returns the number of rows.
func (g HeightGrid) Height() int { return g.height }

// At returns the value at column x, row y.
func (g HeightGrid) At(x, y int) float64 {
	return g.values[y*g.width+x]
}

// Values returns a copy of the backing values.
func (g HeightGrid) Values() []float64 {
	out := make([]float64, len(g.values))
	copy(out, g.values)
	return out
}

// Len returns the cell count.
func (g HeightGrid) Len() int { return len(g.values) }

// MinMax returns the smallest and largest values, or 0,0 for an empty grid.
func (g HeightGrid) MinMax() (lo, hi float64) {
	if len(g.values) == 0 {
		return 0, 0
	}
	lo, hi = g.values[0], g.values[0]
	for _, v := range g.values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// Crop drops border cells from every edge.
func (g HeightGrid) Crop(border int) HeightGrid {
	w, h := g.width-2*border, g.height-2*border
	if border <= 0 {
		return g
	}
	if w <= 0 || h <= 0 {
		return HeightGrid{}
	}
	v := make([]float64, 0, w*h)
	for y := border; y < border+h; y++ {
		row := g.values[y*g.width+border : y*g.width+border+w]
		v = append(v, row...)
	}
	return HeightGrid{width: w, height: h, values: v}
}

// Map returns a new grid with fn applied to every cell.
func (g HeightGrid) Map(fn func(x, y int, v float64) float64) HeightGrid {
	v := make([]float64, len(g.values))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			i := y*g.width + x
			v[i] = fn(x, y, g.values[i])
		}
	}
	return HeightGrid{width: g.width, height: g.height, values: v}
}
