package graphics

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"tilegen/internal/display"
	"tilegen/internal/meshing"
	"tilegen/internal/profiling"
)

const terrainVertexShader = `#version 410 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aUV;
uniform mat4 model;
uniform mat4 view;
uniform mat4 proj;
out vec3 Normal;
out vec2 UV;
void main() {
	Normal = aNormal;
	UV = aUV;
	gl_Position = proj * view * model * vec4(aPos, 1.0);
}
`

const terrainFragmentShader = `#version 410 core
in vec3 Normal;
in vec2 UV;
uniform sampler2D tex;
uniform vec3 lightDir;
out vec4 FragColor;
void main() {
	float diff = max(dot(normalize(Normal), normalize(-lightDir)), 0.0);
	vec3 base = texture(tex, UV).rgb;
	FragColor = vec4(base * (0.35 + 0.65 * diff), 1.0);
}
`

// floats per interleaved vertex: position, normal, uv
const vertexStride = 8

type gpuTile struct {
	vao, vbo, ebo uint32
	texture       uint32
	indexCount    int32
	model         mgl32.Mat4
}

func (t *gpuTile) release() {
	if t.vao != 0 {
		gl.DeleteVertexArrays(1, &t.vao)
	}
	if t.vbo != 0 {
		gl.DeleteBuffers(1, &t.vbo)
	}
	if t.ebo != 0 {
		gl.DeleteBuffers(1, &t.ebo)
	}
	if t.texture != 0 {
		gl.DeleteTextures(1, &t.texture)
	}
	*t = gpuTile{}
}

// TerrainRenderer draws uploaded tiles. Every method must be called on the
// goroutine that owns the GL context.
type TerrainRenderer struct {
	shader *Shader
	tiles  map[[2]int]*gpuTile
	// TileSpacing is the world distance between neighbouring tile centres.
	TileSpacing float32
}

// NewTerrainRenderer compiles the terrain shader.
func NewTerrainRenderer(tileSpacing float32) (*TerrainRenderer, error) {
	shader, err := NewShader(terrainVertexShader, terrainFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("terrain shader: %w", err)
	}
	return &TerrainRenderer{shader: shader, tiles: make(map[[2]int]*gpuTile), TileSpacing: tileSpacing}, nil
}

// At returns a display that draws into the slot of tile (tx, ty).
func (r *TerrainRenderer) At(tx, ty int) display.Display {
	return tileSlot{r: r, key: [2]int{tx, ty}}
}

type tileSlot struct {
	r   *TerrainRenderer
	key [2]int
}

// DrawTexture shows img on a flat quad covering the tile.
func (s tileSlot) DrawTexture(img image.Image) error {
	return s.r.upload(s.key, flatQuad(s.r.TileSpacing), img)
}

func (s tileSlot) DrawMesh(mesh meshing.MeshData, tex image.Image) error {
	return s.r.upload(s.key, mesh, tex)
}

func flatQuad(size float32) meshing.MeshData {
	h := size / 2
	up := mgl32.Vec3{0, 1, 0}
	return meshing.MeshData{
		Vertices:        []mgl32.Vec3{{-h, 0, h}, {h, 0, h}, {-h, 0, -h}, {h, 0, -h}},
		Normals:         []mgl32.Vec3{up, up, up, up},
		UVs:             []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		Triangles:       []uint32{0, 1, 3, 0, 3, 2},
		VerticesPerLine: 2,
	}
}

func (r *TerrainRenderer) upload(key [2]int, mesh meshing.MeshData, tex image.Image) error {
	defer profiling.Track("graphics.upload")()
	if len(mesh.Vertices) == 0 || len(mesh.Triangles) == 0 {
		return fmt.Errorf("tile %v: empty mesh", key)
	}
	if tex == nil {
		return fmt.Errorf("tile %v: missing texture", key)
	}
	texture, err := uploadTexture(tex)
	if err != nil {
		return fmt.Errorf("tile %v: %w", key, err)
	}

	data := make([]float32, 0, len(mesh.Vertices)*vertexStride)
	for i, v := range mesh.Vertices {
		n := mesh.Normals[i]
		uv := mesh.UVs[i]
		data = append(data, v[0], v[1], v[2], n[0], n[1], n[2], uv[0], uv[1])
	}

	if old, ok := r.tiles[key]; ok {
		old.release()
	}
	t := &gpuTile{
		texture:    texture,
		indexCount: int32(len(mesh.Triangles)),
		model:      mgl32.Translate3D(float32(key[0])*r.TileSpacing, 0, -float32(key[1])*r.TileSpacing),
	}

	gl.GenVertexArrays(1, &t.vao)
	gl.BindVertexArray(t.vao)

	gl.GenBuffers(1, &t.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, t.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	gl.GenBuffers(1, &t.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, t.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Triangles)*4, gl.Ptr(mesh.Triangles), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, vertexStride*4, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, vertexStride*4, 3*4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, vertexStride*4, 6*4)

	gl.BindVertexArray(0)
	r.tiles[key] = t
	return nil
}

// TileCount returns the number of uploaded tiles.
func (r *TerrainRenderer) TileCount() int { return len(r.tiles) }

// Clear releases every uploaded tile.
func (r *TerrainRenderer) Clear() {
	for k, t := range r.tiles {
		t.release()
		delete(r.tiles, k)
	}
}

// Render draws every tile from the camera's point of view.
func (r *TerrainRenderer) Render(cam *Camera) {
	defer profiling.Track("graphics.Render")()
	gl.ClearColor(0.53, 0.81, 0.92, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	view := cam.GetViewMatrix()
	proj := cam.GetProjectionMatrix()

	r.shader.Use()
	r.shader.SetMatrix4("view", &view[0])
	r.shader.SetMatrix4("proj", &proj[0])
	r.shader.SetVector3("lightDir", -0.4, -1.0, -0.3)
	r.shader.SetInt("tex", 0)
	gl.ActiveTexture(gl.TEXTURE0)

	for _, t := range r.tiles {
		r.shader.SetMatrix4("model", &t.model[0])
		gl.BindTexture(gl.TEXTURE_2D, t.texture)
		gl.BindVertexArray(t.vao)
		gl.DrawElements(gl.TRIANGLES, t.indexCount, gl.UNSIGNED_INT, nil)
	}
	gl.BindVertexArray(0)
}

// Dispose releases all GL resources.
func (r *TerrainRenderer) Dispose() {
	r.Clear()
	if r.shader != nil {
		r.shader.Delete()
	}
}
