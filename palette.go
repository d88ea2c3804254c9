package simviewer

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// minBinWidth bounds the number of materials a palette may allocate.
const minBinWidth = 0.1

// Palette quantizes RGB colors into a fixed grid of bins, each backed by one
// host material. Materials differ only in their diffuse color.
type Palette struct {
	host      MaterialHost
	bins      int
	binWidth  float32
	template  MaterialTemplate
	materials []MaterialHandle
}

// NewPalette creates binsPerChannel^3 materials.
func NewPalette(binsPerChannel int, host MaterialHost, tmpl MaterialTemplate) (*Palette, error) {
	if binsPerChannel <= 0 {
		return nil, fmt.Errorf("%w: %d bins per channel", ErrInvalidPaletteConfiguration, binsPerChannel)
	}
	return NewPaletteWithWidth(1/float32(binsPerChannel), host, tmpl)
}

// NewPaletteWithWidth creates ceil(1/width)^3 materials.
func NewPaletteWithWidth(width float32, host MaterialHost, tmpl MaterialTemplate) (*Palette, error) {
	if !(width > minBinWidth) || math.IsInf(float64(width), 0) {
		return nil, fmt.Errorf("%w: bin width %v must be above %v", ErrInvalidPaletteConfiguration, width, minBinWidth)
	}

	bins := int(math.Ceil(float64(1 / width)))
	p := &Palette{
		host:      host,
		bins:      bins,
		binWidth:  width,
		template:  tmpl,
		materials: make([]MaterialHandle, 0, bins*bins*bins),
	}

	for i := 0; i < bins*bins*bins; i++ {
		m, err := host.CreateMaterial(tmpl)
		if err != nil {
			return nil, hostError(fmt.Sprintf("create material %d", i), err)
		}
		if err := host.SetDiffuseColor(m, p.indexToRGB(i)); err != nil {
			return nil, hostError(fmt.Sprintf("set diffuse of material %d", i), err)
		}
		p.materials = append(p.materials, m)
	}
	return p, nil
}

func (p *Palette) Bins() int { return p.bins }

func (p *Palette) BinWidth() float32 { return p.binWidth }

func (p *Palette) Len() int { return len(p.materials) }

// Resolve returns the material of the bin the color falls into.
func (p *Palette) Resolve(rgb mgl32.Vec3) MaterialHandle {
	return p.materials[p.rgbToIndex(rgb)]
}

// Representative returns the diffuse color the color is displayed with.
func (p *Palette) Representative(rgb mgl32.Vec3) mgl32.Vec3 {
	return p.indexToRGB(p.rgbToIndex(rgb))
}

// LegacyColor maps the color index of the v1 display protocol.
func LegacyColor(colorIndex int) mgl32.Vec3 {
	switch colorIndex {
	case 1:
		return mgl32.Vec3{1, 0, 0}
	case 2:
		return mgl32.Vec3{0, 1, 0}
	case 3:
		return mgl32.Vec3{0, 0, 1}
	case 4:
		return mgl32.Vec3{0, 1, 1}
	case 5:
		return mgl32.Vec3{1, 0, 1}
	case 6:
		return mgl32.Vec3{1, 1, 0}
	default:
		return mgl32.Vec3{1, 1, 1}
	}
}

func (p *Palette) ResolveLegacy(colorIndex int) MaterialHandle {
	return p.Resolve(LegacyColor(colorIndex))
}

// SetMaterialsAlike re-applies the shared shading to every material; the
// diffuse colors are kept.
func (p *Palette) SetMaterialsAlike(tmpl MaterialTemplate) error {
	for i, m := range p.materials {
		if err := p.host.ApplyTemplate(m, tmpl); err != nil {
			return hostError(fmt.Sprintf("apply template to material %d", i), err)
		}
	}
	p.template = tmpl
	return nil
}

func (p *Palette) SetCulling(mode CullingMode) error {
	tmpl := p.template
	tmpl.Culling = mode
	return p.SetMaterialsAlike(tmpl)
}

func (p *Palette) Culling() CullingMode { return p.template.Culling }

func (p *Palette) indexToRGB(i int) mgl32.Vec3 {
	r := i / (p.bins * p.bins)
	g := (i - r*p.bins*p.bins) / p.bins
	b := i % p.bins
	return mgl32.Vec3{
		float32(r) * p.binWidth,
		float32(g) * p.binWidth,
		float32(b) * p.binWidth,
	}
}

func (p *Palette) rgbToIndex(rgb mgl32.Vec3) int {
	r := p.channelBin(rgb.X())
	g := p.channelBin(rgb.Y())
	b := p.channelBin(rgb.Z())
	return r*p.bins*p.bins + g*p.bins + b
}

// channelBin clamps at bins-1 since 1.0 would otherwise open an extra bin.
func (p *Palette) channelBin(c float32) int {
	idx := int(c / p.binWidth)
	if idx >= p.bins {
		return p.bins - 1
	}
	if idx < 0 {
		return 0
	}
	return idx
}
