package display

import (
	"bytes"
	"image"
	"image/color"
	_ "image/png"
	"os"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"golang.org/x/image/bmp"

	"tilegen/internal/meshing"
	"tilegen/internal/noise"
	"tilegen/internal/region"
	"tilegen/internal/tile"
)

type recordingDisplay struct {
	textures []image.Image
	meshes   []meshing.MeshData
}

func (r *recordingDisplay) DrawTexture(img image.Image) error {
	r.textures = append(r.textures, img)
	return nil
}

func (r *recordingDisplay) DrawMesh(m meshing.MeshData, tex image.Image) error {
	r.meshes = append(r.meshes, m)
	r.textures = append(r.textures, tex)
	return nil
}

func testTile(t *testing.T, size int) (*tile.Generator, tile.MapData) {
	t.Helper()
	gen := tile.NewGenerator(tile.Settings{
		Size:  size,
		Noise: noise.Params{Seed: 4, Scale: 10, Octaves: 3, Persistence: 0.5, Lacunarity: 2},
		Regions: region.NewTable(
			region.Region{Label: "low", Threshold: 0, Color: color.RGBA{B: 255, A: 255}},
			region.Region{Label: "high", Threshold: 0.5, Color: color.RGBA{G: 255, A: 255}},
		),
		HeightMultiplier: 5,
	}, nil)
	return gen, gen.GenerateMapData(mgl64.Vec2{})
}

func TestTextureFromHeightMap(t *testing.T) {
	g := noise.NewHeightGrid(3, 1, []float64{0, 0.5, 1})
	img := TextureFromHeightMap(g)
	if c := img.RGBAAt(0, 0); c != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("low = %v, want black", c)
	}
	if c := img.RGBAAt(1, 0); c.R != 128 {
		t.Errorf("mid = %v, want grey 128", c)
	}
	if c := img.RGBAAt(2, 0); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("high = %v, want white", c)
	}
}

func TestTextureFromColorMap(t *testing.T) {
	colors := []color.RGBA{{R: 1, A: 255}, {R: 2, A: 255}, {R: 3, A: 255}, {R: 4, A: 255}}
	img := TextureFromColorMap(colors, 2, 2)
	if img.RGBAAt(1, 0).R != 2 || img.RGBAAt(0, 1).R != 3 {
		t.Errorf("pixels not row-major")
	}
}

func TestUpscale(t *testing.T) {
	src := TextureFromColorMap([]color.RGBA{{R: 9, A: 255}, {G: 9, A: 255}}, 2, 1)
	dst := Upscale(src, 3)
	if b := dst.Bounds(); b.Dx() != 6 || b.Dy() != 3 {
		t.Fatalf("bounds %v, want 6x3", b)
	}
	r, _, _, _ := dst.At(2, 2).RGBA()
	_, g, _, _ := dst.At(3, 0).RGBA()
	if r>>8 != 9 || g>>8 != 9 {
		t.Errorf("point sampling lost cell colours")
	}
	if Upscale(src, 1) != image.Image(src) {
		t.Errorf("factor 1 should return the source")
	}
}

func TestDrawTileModes(t *testing.T) {
	gen, m := testTile(t, 9)
	for _, mode := range []DrawMode{NoiseMap, ColorMap, Mesh} {
		rec := &recordingDisplay{}
		if err := DrawTile(rec, mode, gen, m, 0); err != nil {
			t.Fatalf("%v: %v", mode, err)
		}
		if len(rec.textures) != 1 {
			t.Fatalf("%v: %d textures", mode, len(rec.textures))
		}
		if b := rec.textures[0].Bounds(); b.Dx() != 9 || b.Dy() != 9 {
			t.Errorf("%v: texture %v, want 9x9", mode, b)
		}
		if mode == Mesh && len(rec.meshes) != 1 {
			t.Errorf("mesh mode drew %d meshes", len(rec.meshes))
		}
	}
	if err := DrawTile(&recordingDisplay{}, DrawMode(9), gen, m, 0); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}

func TestParseDrawMode(t *testing.T) {
	for in, want := range map[string]DrawMode{"noise": NoiseMap, "Colour": ColorMap, "mesh": Mesh} {
		if got, err := ParseDrawMode(in); err != nil || got != want {
			t.Errorf("ParseDrawMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseDrawMode("wire"); err == nil {
		t.Errorf("expected error")
	}
}

func TestFileDisplayWritesTexture(t *testing.T) {
	dir := t.TempDir()
	_, m := testTile(t, 9)
	for _, format := range []string{"png", "bmp", "tiff"} {
		fd, err := NewFileDisplay(dir, "tile_"+format, format, 2)
		if err != nil {
			t.Fatal(err)
		}
		if err := fd.DrawTexture(TextureFromColorMap(m.Colors, m.Size, m.Size)); err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		info, err := os.Stat(fd.TexturePath())
		if err != nil || info.Size() == 0 {
			t.Fatalf("%s: texture not written: %v", format, err)
		}
	}

	f, err := os.Open(dir + "/tile_png.png")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 18 {
		t.Errorf("png width %d, want 18", b.Dx())
	}

	data, err := os.ReadFile(dir + "/tile_bmp.bmp")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bmp.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("bmp decode: %v", err)
	}

	if _, err := NewFileDisplay(dir, "x", "gif", 1); err == nil {
		t.Errorf("expected unsupported format error")
	}
}

func TestFileDisplayWritesMesh(t *testing.T) {
	dir := t.TempDir()
	gen, m := testTile(t, 9)
	fd, err := NewFileDisplay(dir, "island", "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := DrawTile(fd, Mesh, gen, m, 1); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(fd.MeshPath())
	if err != nil {
		t.Fatal(err)
	}
	obj := string(data)
	per := meshing.VerticesPerLine(9, 1)
	if got := strings.Count(obj, "\nv "); got != per*per {
		t.Errorf("obj has %d vertices, want %d", got, per*per)
	}
	if got := strings.Count(obj, "\nf "); got != 2*(per-1)*(per-1) {
		t.Errorf("obj has %d faces, want %d", got, 2*(per-1)*(per-1))
	}
	if !strings.HasPrefix(obj, "mtllib island.mtl") {
		t.Errorf("obj missing material library")
	}
	if _, err := os.Stat(dir + "/island.png"); err != nil {
		t.Errorf("mesh texture missing: %v", err)
	}
}

func TestWriteOBJIndicesAreOneBased(t *testing.T) {
	mesh := meshing.Build(noise.NewHeightGrid(4, 4, make([]float64, 16)), 1, nil, 0)
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, mesh, ""); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "f 0/") {
		t.Errorf("OBJ indices must start at 1")
	}
	if !strings.Contains(buf.String(), "f 1/1/1 2/2/2 4/4/4") {
		t.Errorf("unexpected first face:\n%s", buf.String())
	}
}
