// Package display defines the surface finished tiles are drawn on and the
// texture conversions shared by every implementation.
package display

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"

	"tilegen/internal/meshing"
	"tilegen/internal/noise"
	"tilegen/internal/tile"
)

// Display receives finished textures and meshes.
type Display interface {
	DrawTexture(img image.Image) error
	DrawMesh(mesh meshing.MeshData, texture image.Image) error
}

// DrawMode selects what DrawTile shows.
type DrawMode int

const (
	NoiseMap DrawMode = iota
	ColorMap
	Mesh
)

func (m DrawMode) String() string {
	switch m {
	case ColorMap:
		return "color"
	case Mesh:
		return "mesh"
	default:
		return "noise"
	}
}

// ParseDrawMode accepts "noise", "color" or "mesh".
func ParseDrawMode(s string) (DrawMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "noise", "noisemap", "height":
		return NoiseMap, nil
	case "color", "colour", "colormap":
		return ColorMap, nil
	case "mesh":
		return Mesh, nil
	}
	return NoiseMap, fmt.Errorf("unknown draw mode %q", s)
}

// TextureFromHeightMap maps heights in [0,1] onto a black to white ramp.
func TextureFromHeightMap(grid noise.HeightGrid) *image.RGBA {
	w, h := grid.Width(), grid.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			v := min(max(grid.At(x, y), 0), 1)
			g := uint8(v*255 + 0.5)
			img.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: 255})
		}
	}
	return img
}

// TextureFromColorMap lays row-major colours out as an image.
func TextureFromColorMap(colors []color.RGBA, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			if i := y*width + x; i < len(colors) {
				img.SetRGBA(x, y, colors[i])
			}
		}
	}
	return img
}

// Upscale enlarges img by factor with point sampling so cell edges stay sharp.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// DrawTile renders m on d in the given mode. Mesh mode triangulates
// synchronously with gen at lod.
func DrawTile(d Display, mode DrawMode, gen *tile.Generator, m tile.MapData, lod int) error {
	switch mode {
	case NoiseMap:
		return d.DrawTexture(TextureFromHeightMap(m.Interior()))
	case ColorMap:
		return d.DrawTexture(TextureFromColorMap(m.Colors, m.Size, m.Size))
	case Mesh:
		mesh := gen.GenerateMeshData(m, lod)
		return d.DrawMesh(mesh, TextureFromColorMap(m.Colors, m.Size, m.Size))
	}
	return fmt.Errorf("unknown draw mode %d", mode)
}
