package memhost

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"sort"

	"github.com/gekko3d/simviewer"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Preview renders the visible nodes of a Host as an orthographic XY
// projection. It is a debugging aid, not a renderer: every shape is drawn as
// its projected world bounds.
type Preview struct {
	Width, Height int
	Background    color.RGBA
	Face          font.Face
}

func NewPreview(width, height int) *Preview {
	return &Preview{
		Width:      width,
		Height:     height,
		Background: color.RGBA{0x20, 0x20, 0x28, 0xff},
		Face:       basicfont.Face7x13,
	}
}

// LoadFace replaces the caption face with an OpenType font from disk.
func (p *Preview) LoadFace(fontPath string, size float64) error {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return fmt.Errorf("failed to read font file: %w", err)
	}
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("failed to create face: %w", err)
	}
	p.Face = face
	return nil
}

type projected struct {
	rect   image.Rectangle
	depth  float32
	col    color.RGBA
	sphere bool
}

// Render draws the region [offset, offset+size] of h with caption in the top
// left corner.
func (p *Preview) Render(h *Host, offset, size mgl32.Vec3, caption string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(p.Background), image.Point{}, draw.Src)

	sx := float32(p.Width) / max(size.X(), 1e-6)
	sy := float32(p.Height) / max(size.Y(), 1e-6)
	toPixel := func(v mgl32.Vec3) (int, int) {
		x := (v.X() - offset.X()) * sx
		y := float32(p.Height) - (v.Y()-offset.Y())*sy
		return int(x), int(y)
	}

	var shapes []projected
	for _, n := range h.Nodes() {
		if !n.Visible || n.Kind == simviewer.NodeLight {
			continue
		}
		b := h.WorldBounds(n)
		x0, y0 := toPixel(b[0])
		x1, y1 := toPixel(b[1])
		col := color.RGBA{0xff, 0xff, 0xff, 0xff}
		if m, ok := h.Material(n.Material); ok {
			col = toRGBA(m.Diffuse)
		}
		shapes = append(shapes, projected{
			rect:   image.Rect(x0, y0, x1, y1).Canon(),
			depth:  b[1].Z(),
			col:    col,
			sphere: n.Kind == simviewer.NodeSphere,
		})
	}
	sort.SliceStable(shapes, func(i, j int) bool { return shapes[i].depth < shapes[j].depth })

	for _, s := range shapes {
		r := s.rect.Intersect(img.Bounds())
		if r.Empty() {
			// keep degenerate shapes (lines along Z) one pixel wide
			r = image.Rect(s.rect.Min.X, s.rect.Min.Y, s.rect.Min.X+1, s.rect.Min.Y+1).Intersect(img.Bounds())
		}
		if s.sphere {
			fillEllipse(img, s.rect, r, s.col)
			continue
		}
		draw.Draw(img, r, image.NewUniform(s.col), image.Point{}, draw.Over)
	}

	if caption != "" && p.Face != nil {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.White),
			Face: p.Face,
			Dot:  fixed.Point26_6{X: fixed.I(4), Y: p.Face.Metrics().Ascent + fixed.I(2)},
		}
		d.DrawString(caption)
	}
	return img
}

// fillEllipse fills the ellipse inscribed in full, restricted to clip.
func fillEllipse(img *image.RGBA, full, clip image.Rectangle, col color.RGBA) {
	cx := float32(full.Min.X+full.Max.X) / 2
	cy := float32(full.Min.Y+full.Max.Y) / 2
	rx := max(float32(full.Dx())/2, 0.5)
	ry := max(float32(full.Dy())/2, 0.5)
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		for x := clip.Min.X; x < clip.Max.X; x++ {
			dx := (float32(x) + 0.5 - cx) / rx
			dy := (float32(y) + 0.5 - cy) / ry
			if dx*dx+dy*dy <= 1 {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

func toRGBA(c mgl32.Vec3) color.RGBA {
	ch := func(v float32) uint8 {
		return uint8(mgl32.Clamp(v, 0, 1) * 255)
	}
	return color.RGBA{ch(c.X()), ch(c.Y()), ch(c.Z()), 0xff}
}

// WritePNG encodes img to w.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
