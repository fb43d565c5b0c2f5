// Package region maps heights to terrain colours through an ordered
// threshold table.
package region

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/colornames"

	"tilegen/internal/falloff"
	"tilegen/internal/noise"
)

// Unset is the colour of cells no region claims.
var Unset = color.RGBA{}

// Region is one band of the table.
type Region struct {
	Label     string
	Threshold float64
	Color     color.RGBA
}

// Policy selects how a height is matched against the table.
type Policy int

const (
	// LastMatch picks the highest threshold that is <= height.
	LastMatch Policy = iota
	// FirstMatch picks the first region whose threshold is >= height. Thresholds
	// act as upper bounds, matching earlier pipeline revisions.
	FirstMatch
)

func (p Policy) String() string {
	if p == FirstMatch {
		return "first-match"
	}
	return "last-match"
}

// ParsePolicy accepts "last-match" or "first-match".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last", "last-match":
		return LastMatch, nil
	case "first", "first-match":
		return FirstMatch, nil
	}
	return LastMatch, fmt.Errorf("unknown classification policy %q", s)
}

// Table is an ascending sequence of regions.
type Table struct {
	regions []Region
}

// NewTable sorts regions by threshold, keeping the input order for ties.
func NewTable(regions ...Region) Table {
	r := make([]Region, len(regions))
	copy(r, regions)
	sort.SliceStable(r, func(i, j int) bool { return r[i].Threshold < r[j].Threshold })
	return Table{regions: r}
}

// Len returns the number of regions.
func (t Table) Len() int { return len(t.regions) }

// Regions returns a copy of the sorted regions.
func (t Table) Regions() []Region {
	out := make([]Region, len(t.regions))
	copy(out, t.regions)
	return out
}

// Lookup returns the index of the region h falls into under policy, or -1.
func (t Table) Lookup(h float64, policy Policy) int {
	if policy == FirstMatch {
		for i, r := range t.regions {
			if h <= r.Threshold {
				return i
			}
		}
		return -1
	}
	match := -1
	for i, r := range t.regions {
		if h < r.Threshold {
			break
		}
		match = i
	}
	return match
}

// Color returns the colour for h, or Unset.
func (t Table) Color(h float64, policy Policy) color.RGBA {
	if i := t.Lookup(h, policy); i >= 0 {
		return t.regions[i].Color
	}
	return Unset
}

// Classify colours every cell of grid in row-major order.
func Classify(grid noise.HeightGrid, t Table, policy Policy) []color.RGBA {
	w, h := grid.Width(), grid.Height()
	colors := make([]color.RGBA, w*h)
	for y := range h {
		for x := range w {
			colors[y*w+x] = t.Color(grid.At(x, y), policy)
		}
	}
	return colors
}

// ApplyFalloff returns clamp(h - mask, 0, 1) per cell. grid and mask must
// share dimensions.
func ApplyFalloff(grid noise.HeightGrid, mask falloff.Grid) noise.HeightGrid {
	return grid.Map(func(x, y int, v float64) float64 {
		return mgl64.Clamp(v-mask.At(x, y), 0, 1)
	})
}

// ClassifyWithFalloff classifies the falloff-adjusted heights of grid.
func ClassifyWithFalloff(grid noise.HeightGrid, mask falloff.Grid, t Table, policy Policy) []color.RGBA {
	return Classify(ApplyFalloff(grid, mask), t, policy)
}

// ParseColor accepts "#rrggbb", "#rrggbbaa" or an SVG colour name.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
