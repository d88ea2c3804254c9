package memhost

import (
	"github.com/gekko3d/simviewer"
	"github.com/go-gl/mathgl/mgl32"
)

// nodeMatrix places a node: scale first, then rotate, then translate.
func nodeMatrix(t simviewer.Transform) mgl32.Mat4 {
	m := mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2])
	m = m.Mul4(t.Rotation.Mat4())
	return m.Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// WorldAABB returns the world box enclosing the eight corners of the local
// box [lo,hi] once placed by t.
func WorldAABB(t simviewer.Transform, lo, hi mgl32.Vec3) [2]mgl32.Vec3 {
	m := nodeMatrix(t)
	var box [2]mgl32.Vec3
	for i := 0; i < 8; i++ {
		c := lo
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				c[axis] = hi[axis]
			}
		}
		w := m.Mul4x1(c.Vec4(1)).Vec3()
		if i == 0 {
			box = [2]mgl32.Vec3{w, w}
			continue
		}
		for axis := 0; axis < 3; axis++ {
			box[0][axis] = min(box[0][axis], w[axis])
			box[1][axis] = max(box[1][axis], w[axis])
		}
	}
	return box
}
