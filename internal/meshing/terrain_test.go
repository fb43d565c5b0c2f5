package meshing

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"tilegen/internal/noise"
)

func flatGrid(size int, h float64) noise.HeightGrid {
	values := make([]float64, size*size)
	for i := range values {
		values[i] = h
	}
	return noise.NewHeightGrid(size, size, values)
}

func noiseGrid(interior int) noise.HeightGrid {
	return noise.Generate(interior+2, interior+2, noise.Params{
		Seed: 3, Scale: 25, Octaves: 4, Persistence: 0.5, Lacunarity: 2,
	})
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

func TestBuildVertexCount(t *testing.T) {
	for _, n := range []int{1, 2, 5, 24, 241} {
		grid := flatGrid(n+2, 0.5)
		for lod := 0; lod <= MaxLevelOfDetail; lod++ {
			mesh := Build(grid, 10, LinearCurve{}, lod)
			per := ceilDiv(n, Stride(lod))
			if got, want := len(mesh.Vertices), per*per; got != want {
				t.Fatalf("n=%d lod=%d: %d vertices, want %d", n, lod, got, want)
			}
			if len(mesh.UVs) != len(mesh.Vertices) || len(mesh.Normals) != len(mesh.Vertices) {
				t.Fatalf("n=%d lod=%d: attribute lengths differ", n, lod)
			}
			if got, want := mesh.TriangleCount(), 2*(per-1)*(per-1); got != want {
				t.Fatalf("n=%d lod=%d: %d triangles, want %d", n, lod, got, want)
			}
			if mesh.VerticesPerLine != per {
				t.Fatalf("n=%d lod=%d: VerticesPerLine=%d, want %d", n, lod, mesh.VerticesPerLine, per)
			}
		}
	}
}

func TestStride(t *testing.T) {
	want := []int{1, 2, 4, 6, 8, 10, 12}
	for lod, s := range want {
		if got := Stride(lod); got != s {
			t.Errorf("Stride(%d) = %d, want %d", lod, got, s)
		}
	}
	if Stride(-2) != 1 || Stride(40) != 12 {
		t.Errorf("out of range levels should clamp")
	}
}

func TestBuildWindingFacesUp(t *testing.T) {
	mesh := Build(noiseGrid(30), 0, nil, 0)
	for i := 0; i < mesh.TriangleCount(); i++ {
		tri := mesh.Triangle(i)
		a, b, c := mesh.Vertices[tri[0]], mesh.Vertices[tri[1]], mesh.Vertices[tri[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Y() <= 0 {
			t.Fatalf("triangle %d normal %v does not face up", i, n)
		}
	}
}

func TestBuildFlatNormals(t *testing.T) {
	mesh := Build(flatGrid(12, 0.3), 20, LinearCurve{}, 0)
	for i, n := range mesh.Normals {
		if !n.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
			t.Fatalf("normal %d = %v, want +Y", i, n)
		}
	}
}

func TestBuildVertexLayout(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = float64(i) / 24
	}
	grid := noise.NewHeightGrid(5, 5, values)
	mesh := Build(grid, 2, LinearCurve{}, 0)

	if len(mesh.Vertices) != 9 {
		t.Fatalf("got %d vertices, want 9", len(mesh.Vertices))
	}
	first := mesh.Vertices[0]
	if want := (mgl32.Vec3{-1, float32(6.0 / 24 * 2), 1}); !first.ApproxEqual(want) {
		t.Errorf("first vertex = %v, want %v", first, want)
	}
	last := mesh.Vertices[8]
	if want := (mgl32.Vec3{1, float32(18.0 / 24 * 2), -1}); !last.ApproxEqual(want) {
		t.Errorf("last vertex = %v, want %v", last, want)
	}
	if mesh.UVs[0] != (mgl32.Vec2{0, 0}) || mesh.UVs[8] != (mgl32.Vec2{1, 1}) {
		t.Errorf("uv corners = %v, %v", mesh.UVs[0], mesh.UVs[8])
	}
}

func TestBuildDeterministic(t *testing.T) {
	grid := noiseGrid(60)
	curve := NewKeyframes(Keyframe{0, 0}, Keyframe{0.4, 0.05}, Keyframe{1, 1})
	a := Build(grid, 30, curve, 2)
	b := Build(grid, 30, curve, 2)
	for i := range a.Vertices {
		if a.Vertices[i] != b.Vertices[i] || a.Normals[i] != b.Normals[i] {
			t.Fatalf("vertex %d differs", i)
		}
	}
	for i := range a.Triangles {
		if a.Triangles[i] != b.Triangles[i] {
			t.Fatalf("index %d differs", i)
		}
	}
}

func TestBuildAppliesCurveAndMultiplier(t *testing.T) {
	curve := NewKeyframes(Keyframe{0, 0}, Keyframe{1, 0.5})
	mesh := Build(flatGrid(6, 1), 8, curve, 0)
	for i, v := range mesh.Vertices {
		if v.Y() != 4 {
			t.Fatalf("vertex %d height %v, want 4", i, v.Y())
		}
	}
}

func TestBuildDegenerateGrid(t *testing.T) {
	if m := Build(flatGrid(2, 1), 1, nil, 0); len(m.Vertices) != 0 {
		t.Errorf("border-only grid produced %d vertices", len(m.Vertices))
	}
	if m := Build(noise.HeightGrid{}, 1, nil, 0); len(m.Vertices) != 0 {
		t.Errorf("empty grid produced %d vertices", len(m.Vertices))
	}
}

func TestBuildSeamNormalsMatch(t *testing.T) {
	const interior = 33
	p := noise.Params{Seed: 5, Scale: 20, Octaves: 3, Persistence: 0.5, Lacunarity: 2, Normalize: noise.Global}
	size := interior + 2
	left := Build(noise.Generate(size, size, p), 15, nil, 0)
	p.Origin[0] = interior - 1
	right := Build(noise.Generate(size, size, p), 15, nil, 0)

	for y := range interior {
		a := left.Normals[y*interior+interior-1]
		b := right.Normals[y*interior]
		if !a.ApproxEqualThreshold(b, 1e-5) {
			t.Fatalf("row %d: seam normals differ %v vs %v", y, a, b)
		}
		if left.Vertices[y*interior+interior-1].Y() != right.Vertices[y*interior].Y() {
			t.Fatalf("row %d: seam heights differ", y)
		}
	}
}

func BenchmarkBuildFullDetail(b *testing.B) {
	grid := noiseGrid(241)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Build(grid, 30, LinearCurve{}, 0)
	}
}
