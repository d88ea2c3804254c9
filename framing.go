package simviewer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultMargin is the relative margin added around the content on resize.
const DefaultMargin = 0.1

// FrameBounds grows the box [lo,hi] by margin*size on both sides of each axis.
func FrameBounds(lo, hi, margin []float32) (offset, size []float32, err error) {
	if len(lo) != 3 || len(hi) != 3 || len(margin) != 3 {
		return nil, nil, fmt.Errorf("%w: bounds %d/%d and margin %d must all be 3D",
			ErrDimensionMismatch, len(lo), len(hi), len(margin))
	}
	offset = make([]float32, 3)
	size = make([]float32, 3)
	for d := 0; d < 3; d++ {
		size[d] = hi[d] - lo[d]
		offset[d] = lo[d] - margin[d]*size[d]
		size[d] *= 1 + 2*margin[d]
	}
	return offset, size, nil
}

// Scene is the framed region of the display. All elements hang under a root
// node that is scaled down by DsFactor and centred on the region.
type Scene struct {
	Offset   mgl32.Vec3
	Size     mgl32.Vec3
	DsFactor float32
}

func NewScene(offset, size []float32, dsFactor float32) (*Scene, error) {
	s := &Scene{DsFactor: dsFactor}
	if err := s.Resize(offset, size); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scene) Resize(offset, size []float32) error {
	if len(offset) != 3 {
		return fmt.Errorf("%w: scene offset has %d components", ErrDimensionMismatch, len(offset))
	}
	if len(size) != 3 {
		return fmt.Errorf("%w: scene size has %d components", ErrDimensionMismatch, len(size))
	}
	s.Offset = mgl32.Vec3{offset[0], offset[1], offset[2]}
	s.Size = mgl32.Vec3{size[0], size[1], size[2]}
	return nil
}

// ResizeToContent frames the box [lo,hi] with the given relative margin.
func (s *Scene) ResizeToContent(lo, hi mgl32.Vec3, margin []float32) error {
	offset, size, err := FrameBounds(lo[:], hi[:], margin)
	if err != nil {
		return err
	}
	return s.Resize(offset, size)
}

// Centre is the middle of the scene in simulation coordinates.
func (s *Scene) Centre() mgl32.Vec3 {
	return s.Offset.Add(s.Size.Mul(0.5))
}

// RootPosition places the downscaled root node so the scene centre sits at
// the origin.
func (s *Scene) RootPosition() mgl32.Vec3 {
	return s.Centre().Mul(-s.DsFactor)
}

// Rescale changes the overall downscaling and returns the correction ratio
// new/old applied to everything positioned outside the root node.
func (s *Scene) Rescale(dsFactor float32) float32 {
	correction := dsFactor / s.DsFactor
	s.DsFactor = dsFactor
	return correction
}
