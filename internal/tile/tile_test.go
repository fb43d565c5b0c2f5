package tile

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"tilegen/internal/falloff"
	"tilegen/internal/meshing"
	"tilegen/internal/noise"
	"tilegen/internal/region"
)

var (
	water = color.RGBA{B: 200, A: 255}
	sand  = color.RGBA{R: 210, G: 200, B: 130, A: 255}
	grass = color.RGBA{G: 160, A: 255}
)

func testSettings(size int) Settings {
	return Settings{
		Size: size,
		Noise: noise.Params{
			Seed: 1, Scale: 50, Octaves: 4, Persistence: 0.5, Lacunarity: 2,
		},
		Regions: region.NewTable(
			region.Region{Label: "water", Threshold: 0, Color: water},
			region.Region{Label: "sand", Threshold: 0.3, Color: sand},
			region.Region{Label: "grass", Threshold: 0.6, Color: grass},
		),
		HeightMultiplier: 20,
	}
}

func TestGenerateMapDataShape(t *testing.T) {
	g := NewGenerator(testSettings(41), nil)
	m := g.GenerateMapData(mgl64.Vec2{})
	if m.Heights.Width() != 43 || m.Heights.Height() != 43 {
		t.Fatalf("heights %dx%d, want 43x43", m.Heights.Width(), m.Heights.Height())
	}
	if len(m.Colors) != 41*41 {
		t.Fatalf("colors %d, want %d", len(m.Colors), 41*41)
	}
	if in := m.Interior(); in.Width() != 41 {
		t.Fatalf("interior width %d, want 41", in.Width())
	}
	for i, c := range m.Colors {
		if c != water && c != sand && c != grass {
			t.Fatalf("cell %d has unexpected colour %v", i, c)
		}
	}
}

func TestGenerateMapDataDeterministic(t *testing.T) {
	g := NewGenerator(testSettings(33), nil)
	a := g.GenerateMapData(mgl64.Vec2{64, 32})
	b := g.GenerateMapData(mgl64.Vec2{64, 32})
	av, bv := a.Heights.Values(), b.Heights.Values()
	for i := range av {
		if av[i] != bv[i] {
			t.Fatalf("height %d differs", i)
		}
	}
	for i := range a.Colors {
		if a.Colors[i] != b.Colors[i] {
			t.Fatalf("colour %d differs", i)
		}
	}
}

func TestGenerateMapDataFalloff(t *testing.T) {
	s := testSettings(31)
	s.UseFalloff = true
	cache := falloff.NewCache()
	g := NewGenerator(s, cache)
	m := g.GenerateMapData(mgl64.Vec2{})

	// Corners are fully suppressed.
	if h := m.Heights.At(0, 0); h != 0 {
		t.Errorf("corner height %v, want 0", h)
	}
	if m.Colors[0] != water {
		t.Errorf("corner colour %v, want water", m.Colors[0])
	}
	if cache.Len() != 1 {
		t.Errorf("expected one cached mask, got %d", cache.Len())
	}
}

func TestGenerateMeshData(t *testing.T) {
	g := NewGenerator(testSettings(25), nil)
	m := g.GenerateMapData(mgl64.Vec2{})
	mesh := g.GenerateMeshData(m, 2)
	per := meshing.VerticesPerLine(25, 2)
	if len(mesh.Vertices) != per*per {
		t.Fatalf("got %d vertices, want %d", len(mesh.Vertices), per*per)
	}
	for i, v := range mesh.Vertices {
		if v.Y() < 0 || v.Y() > 20 {
			t.Fatalf("vertex %d height %v outside [0,20]", i, v.Y())
		}
	}
}

func TestOriginStep(t *testing.T) {
	g := NewGenerator(testSettings(241), nil)
	if o := g.Origin(2, -1); o != (mgl64.Vec2{480, -240}) {
		t.Errorf("Origin(2,-1) = %v", o)
	}
}

func TestNewGeneratorDefaults(t *testing.T) {
	g := NewGenerator(Settings{Noise: noise.Params{Scale: -1, Octaves: -2, Lacunarity: 0}}, nil)
	s := g.Settings()
	if s.Size != DefaultSize {
		t.Errorf("Size = %d, want %d", s.Size, DefaultSize)
	}
	if s.Noise.Scale != noise.MinScale || s.Noise.Octaves != 0 || s.Noise.Lacunarity != 1 {
		t.Errorf("noise params not clamped: %+v", s.Noise)
	}
	if s.HeightCurve == nil {
		t.Errorf("HeightCurve should default to linear")
	}
}
