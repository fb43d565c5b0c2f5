package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"tilegen/internal/noise"
)

// MaxLevelOfDetail is the coarsest supported level of detail.
const MaxLevelOfDetail = 6

// MeshData is an indexed triangle mesh of one terrain tile.
type MeshData struct {
	Vertices  []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Triangles []uint32 // index triples

	// VerticesPerLine is the vertex count along each edge.
	VerticesPerLine int
}

// TriangleCount returns the number of triangles.
func (m MeshData) TriangleCount() int { return len(m.Triangles) / 3 }

// Triangle returns the vertex indices of triangle i.
func (m MeshData) Triangle(i int) [3]uint32 {
	return [3]uint32{m.Triangles[3*i], m.Triangles[3*i+1], m.Triangles[3*i+2]}
}

// Stride returns the sample step used for a level of detail.
func Stride(lod int) int {
	lod = ClampLevelOfDetail(lod)
	if lod == 0 {
		return 1
	}
	return lod * 2
}

// ClampLevelOfDetail forces lod into [0, MaxLevelOfDetail].
func ClampLevelOfDetail(lod int) int {
	return min(max(lod, 0), MaxLevelOfDetail)
}

// VerticesPerLine returns how many vertices a mesh of interior edge n has
// along each axis at lod. It equals ceil(n / stride).
func VerticesPerLine(n, lod int) int {
	if n <= 0 {
		return 0
	}
	return (n-1)/Stride(lod) + 1
}

// Build triangulates a bordered height grid. The outermost ring of cells is
// only sampled for normals so neighbouring tiles share edge shading; it never
// becomes geometry. A nil curve is treated as LinearCurve.
func Build(grid noise.HeightGrid, heightMultiplier float64, curve HeightCurve, lod int) MeshData {
	if curve == nil {
		curve = LinearCurve{}
	}
	size := min(grid.Width(), grid.Height()) - 2
	if size <= 0 {
		return MeshData{}
	}

	stride := Stride(lod)
	perLine := VerticesPerLine(size, lod)

	// Only cells along the chosen lattice plus their neighbours are evaluated.
	elevation := func(bx, by int) float32 {
		return float32(curve.Evaluate(grid.At(bx, by)) * heightMultiplier)
	}

	half := float32(size-1) / 2
	uvSpan := float32(max(size-1, 1))

	mesh := MeshData{
		Vertices:        make([]mgl32.Vec3, 0, perLine*perLine),
		Normals:         make([]mgl32.Vec3, 0, perLine*perLine),
		UVs:             make([]mgl32.Vec2, 0, perLine*perLine),
		Triangles:       make([]uint32, 0, (perLine-1)*(perLine-1)*6),
		VerticesPerLine: perLine,
	}

	for y := 0; y < size; y += stride {
		for x := 0; x < size; x += stride {
			bx, by := x+1, y+1
			h := elevation(bx, by)
			mesh.Vertices = append(mesh.Vertices, mgl32.Vec3{float32(x) - half, h, half - float32(y)})
			mesh.UVs = append(mesh.UVs, mgl32.Vec2{float32(x) / uvSpan, float32(y) / uvSpan})

			// Central differences; z runs opposite to grid rows.
			dx := (elevation(bx+1, by) - elevation(bx-1, by)) / 2
			dz := (elevation(bx, by-1) - elevation(bx, by+1)) / 2
			mesh.Normals = append(mesh.Normals, mgl32.Vec3{-dx, 1, -dz}.Normalize())
		}
	}

	for y := 0; y < perLine-1; y++ {
		for x := 0; x < perLine-1; x++ {
			a := uint32(y*perLine + x)
			right := a + 1
			down := a + uint32(perLine)
			diag := down + 1
			// Counter-clockwise seen from +Y.
			mesh.Triangles = append(mesh.Triangles, a, right, diag, a, diag, down)
		}
	}
	return mesh
}
