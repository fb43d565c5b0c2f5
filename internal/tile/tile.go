// Package tile turns generator settings into the per-tile data handed to
// callers: classified map data and the mesh built from it.
package tile

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"tilegen/internal/falloff"
	"tilegen/internal/meshing"
	"tilegen/internal/noise"
	"tilegen/internal/profiling"
	"tilegen/internal/region"
)

// DefaultSize is the tile edge length in vertices. 240 is divisible by every
// mesh stride, so each level of detail reaches the far edge.
const DefaultSize = 241

// Border is the ring of extra samples kept around each tile's height grid.
const Border = 1

// Settings are the read-only inputs of a Generator.
type Settings struct {
	Size             int
	Noise            noise.Params
	Regions          region.Table
	Policy           region.Policy
	UseFalloff       bool
	HeightMultiplier float64
	HeightCurve      meshing.HeightCurve
}

// MapData is the height and colour data of one tile.
type MapData struct {
	// Heights holds Size+2 samples per edge; the outer ring exists only for
	// seam-correct meshing. Falloff, when enabled, is already applied.
	Heights noise.HeightGrid
	// Colors holds Size*Size classified cells in row-major order.
	Colors []color.RGBA
	Size   int
	Origin mgl64.Vec2
}

// Interior returns the heights without the border ring.
func (m MapData) Interior() noise.HeightGrid {
	return m.Heights.Crop(Border)
}

// Generator computes tile data from fixed settings. It is safe for
// concurrent use.
type Generator struct {
	settings Settings
	falloff  *falloff.Cache
}

// NewGenerator returns a generator for s. A nil cache gets a private one.
func NewGenerator(s Settings, cache *falloff.Cache) *Generator {
	if s.Size <= 0 {
		s.Size = DefaultSize
	}
	if s.HeightCurve == nil {
		s.HeightCurve = meshing.LinearCurve{}
	}
	s.Noise = s.Noise.Clamped()
	if cache == nil {
		cache = falloff.NewCache()
	}
	return &Generator{settings: s, falloff: cache}
}

// Settings returns the generator's settings.
func (g *Generator) Settings() Settings { return g.settings }

// Origin returns the world origin of tile (tx, ty). Neighbouring tiles
// overlap by one sample so their edges coincide.
func (g *Generator) Origin(tx, ty int) mgl64.Vec2 {
	step := float64(g.settings.Size - 1)
	return mgl64.Vec2{float64(tx) * step, float64(ty) * step}
}

// GenerateMapData computes the noise field, applies the falloff mask and
// classifies the interior cells.
func (g *Generator) GenerateMapData(origin mgl64.Vec2) MapData {
	defer profiling.Track("tile.GenerateMapData")()

	s := g.settings
	edge := s.Size + 2*Border
	p := s.Noise
	p.Origin = origin

	heights := func() noise.HeightGrid {
		defer profiling.Track("noise.Generate")()
		return noise.Generate(edge, edge, p)
	}()
	if s.UseFalloff {
		heights = region.ApplyFalloff(heights, g.falloff.Get(edge))
	}

	colors := func() []color.RGBA {
		defer profiling.Track("region.Classify")()
		return region.Classify(heights.Crop(Border), s.Regions, s.Policy)
	}()

	return MapData{Heights: heights, Colors: colors, Size: s.Size, Origin: origin}
}

// GenerateMeshData triangulates m at the given level of detail.
func (g *Generator) GenerateMeshData(m MapData, lod int) meshing.MeshData {
	defer profiling.Track("meshing.Build")()
	return meshing.Build(m.Heights, g.settings.HeightMultiplier, g.settings.HeightCurve, lod)
}
