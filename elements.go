package simviewer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Point is one sphere as sent by the simulator. Radius is per axis.
type Point struct {
	Centre mgl32.Vec3
	Radius mgl32.Vec3
	Color  mgl32.Vec3
}

// Line is a segment from Base to Base+Vector.
type Line struct {
	Base   mgl32.Vec3
	Vector mgl32.Vec3
	Color  mgl32.Vec3
}

// Vector is an arrow from Base along Vector; it is drawn stretched by the
// registry's stretch factor.
type Vector struct {
	Base   mgl32.Vec3
	Vector mgl32.Vec3
	Color  mgl32.Vec3
}

type VectorStyle int

const (
	ShaftAndHead VectorStyle = iota
	ShaftOnly
)

func (s VectorStyle) String() string {
	if s == ShaftOnly {
		return "shaft"
	}
	return "shaft+head"
}

// DefaultHeadLengthRatio is the fraction of a vector occupied by its head.
const DefaultHeadLengthRatio = 0.2

var upAxis = mgl32.Vec3{0, 1, 0}

// VectorAux holds the attributes derived from a vector for display. It is
// never edited directly, only recomputed by DeriveVector.
type VectorAux struct {
	Scale     mgl32.Vec3
	HeadScale mgl32.Vec3
	HeadBase  mgl32.Vec3
}

// DeriveVector computes the display attributes of v drawn stretch-times longer.
// The head keeps a fixed width unless it gets shorter than wide, after which
// it shrinks proportionally.
func DeriveVector(v Vector, stretch, headRatio float32, style VectorStyle) VectorAux {
	aux := VectorAux{
		Scale:     mgl32.Vec3{1, stretch * v.Vector.Len(), 1},
		HeadScale: mgl32.Vec3{1, 1, 1},
		HeadBase:  mgl32.Vec3{},
	}
	if style == ShaftOnly {
		return aux
	}
	aux.HeadScale[1] = aux.Scale.Y()
	aux.HeadScale[0] = float32(math.Min(float64(aux.HeadScale.Y()), 1))
	aux.HeadScale[2] = aux.HeadScale.X()
	aux.HeadBase = v.Base.Add(v.Vector.Mul(stretch * (1 - headRatio)))
	return aux
}

// rotationTo turns the +Y modelling axis onto dir.
func rotationTo(dir mgl32.Vec3) mgl32.Quat {
	if dir.Len() == 0 {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatBetweenVectors(upAxis, dir.Normalize())
}

func pointTransform(p Point) Transform {
	return Transform{
		Position: p.Centre,
		Rotation: mgl32.QuatIdent(),
		Scale:    absVec(p.Radius),
	}
}

func lineTransform(l Line) Transform {
	return Transform{
		Position: l.Base,
		Rotation: rotationTo(l.Vector),
		Scale:    mgl32.Vec3{1, l.Vector.Len(), 1},
	}
}

func shaftTransform(v Vector, aux VectorAux) Transform {
	return Transform{
		Position: v.Base,
		Rotation: rotationTo(v.Vector),
		Scale:    aux.Scale,
	}
}

func headTransform(v Vector, aux VectorAux) Transform {
	return Transform{
		Position: aux.HeadBase,
		Rotation: rotationTo(v.Vector),
		Scale:    aux.HeadScale,
	}
}

func absVec(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{mgl32.Abs(v.X()), mgl32.Abs(v.Y()), mgl32.Abs(v.Z())}
}

func minVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min(a.X(), b.X()), min(a.Y(), b.Y()), min(a.Z(), b.Z())}
}

func maxVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max(a.X(), b.X()), max(a.Y(), b.Y()), max(a.Z(), b.Z())}
}
