package display

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"tilegen/internal/meshing"
)

// FileDisplay writes textures as images and meshes as Wavefront OBJ files
// into Dir, all named after Name.
type FileDisplay struct {
	Dir     string
	Name    string
	Format  string // "png", "bmp" or "tiff"
	Upscale int
}

// NewFileDisplay validates format and returns a display writing into dir.
func NewFileDisplay(dir, name, format string, upscale int) (*FileDisplay, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = "png"
	}
	if _, err := encoderFor(format); err != nil {
		return nil, err
	}
	return &FileDisplay{Dir: dir, Name: name, Format: format, Upscale: upscale}, nil
}

type encodeFunc func(w io.Writer, img image.Image) error

func encoderFor(format string) (encodeFunc, error) {
	switch format {
	case "png":
		return png.Encode, nil
	case "bmp":
		return bmp.Encode, nil
	case "tiff", "tif":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	}
	return nil, fmt.Errorf("unsupported image format %q", format)
}

// TexturePath is where DrawTexture writes.
func (f *FileDisplay) TexturePath() string {
	return filepath.Join(f.Dir, f.Name+"."+f.Format)
}

// MeshPath is where DrawMesh writes the geometry.
func (f *FileDisplay) MeshPath() string {
	return filepath.Join(f.Dir, f.Name+".obj")
}

func (f *FileDisplay) DrawTexture(img image.Image) error {
	enc, err := encoderFor(f.Format)
	if err != nil {
		return err
	}
	return writeFile(f.TexturePath(), func(w io.Writer) error {
		return enc(w, Upscale(img, f.Upscale))
	})
}

func (f *FileDisplay) DrawMesh(mesh meshing.MeshData, texture image.Image) error {
	if texture != nil {
		if err := f.DrawTexture(texture); err != nil {
			return err
		}
	}
	mtl := f.Name + ".mtl"
	if err := writeFile(filepath.Join(f.Dir, mtl), func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "newmtl terrain\nKd 1 1 1\nmap_Kd %s\n", filepath.Base(f.TexturePath()))
		return err
	}); err != nil {
		return err
	}
	return writeFile(f.MeshPath(), func(w io.Writer) error {
		return WriteOBJ(w, mesh, mtl)
	})
}

// WriteOBJ encodes mesh as Wavefront OBJ. mtllib may be empty.
func WriteOBJ(w io.Writer, mesh meshing.MeshData, mtllib string) error {
	bw := bufio.NewWriter(w)
	if mtllib != "" {
		fmt.Fprintf(bw, "mtllib %s\nusemtl terrain\n", mtllib)
	}
	for _, v := range mesh.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X(), v.Y(), v.Z())
	}
	for _, uv := range mesh.UVs {
		// OBJ texture space has v pointing up.
		fmt.Fprintf(bw, "vt %g %g\n", uv.X(), 1-uv.Y())
	}
	for _, n := range mesh.Normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n.X(), n.Y(), n.Z())
	}
	for i := range mesh.TriangleCount() {
		t := mesh.Triangle(i)
		a, b, c := t[0]+1, t[1]+1, t[2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}
	return bw.Flush()
}

func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(out); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
