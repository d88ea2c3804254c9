package simviewer

import "github.com/go-gl/mathgl/mgl32"

type NodeKind int

const (
	NodeSphere NodeKind = iota
	NodeLine
	NodeVector // shaft drawn over the full vector length
	NodeShaft
	NodeHead
	NodeLight
)

func (k NodeKind) String() string {
	switch k {
	case NodeSphere:
		return "sphere"
	case NodeLine:
		return "line"
	case NodeVector:
		return "vector"
	case NodeShaft:
		return "shaft"
	case NodeHead:
		return "head"
	case NodeLight:
		return "light"
	}
	return "unknown"
}

// NodeHandle and MaterialHandle are opaque references owned by the host.
type NodeHandle string

type MaterialHandle string

// Transform places a host node. Shapes are modelled along +Y, so Scale.Y()
// stretches them lengthwise.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// SceneHost is the scene graph the registry renders into.
type SceneHost interface {
	CreateNode(kind NodeKind, name string, tr Transform) (NodeHandle, error)
	DestroyNode(h NodeHandle) error
	SetVisible(h NodeHandle, visible bool) error
	SetTransform(h NodeHandle, tr Transform) error
	BindMaterial(h NodeHandle, m MaterialHandle) error
}

type CullingMode int

const (
	CullNone CullingMode = iota
	CullFront
)

func (c CullingMode) String() string {
	if c == CullFront {
		return "front"
	}
	return "none"
}

// MaterialTemplate carries the shading shared by all palette materials.
type MaterialTemplate struct {
	Ambient  mgl32.Vec3
	Specular mgl32.Vec3
	Culling  CullingMode
}

func DefaultMaterialTemplate() MaterialTemplate {
	return MaterialTemplate{
		Ambient:  mgl32.Vec3{1, 1, 1},
		Specular: mgl32.Vec3{1, 1, 1},
		Culling:  CullNone,
	}
}

type MaterialHost interface {
	CreateMaterial(tmpl MaterialTemplate) (MaterialHandle, error)
	SetDiffuseColor(m MaterialHandle, rgb mgl32.Vec3) error
	ApplyTemplate(m MaterialHandle, tmpl MaterialTemplate) error
}

// LightParams mirrors the point light settings of the host.
type LightParams struct {
	Color     [3]float32
	Intensity float32
	Radius    float32
}

type LightHost interface {
	SceneHost
	SetLight(h NodeHandle, p LightParams) error
}

// Host is everything a Viewer needs from the scene graph.
type Host interface {
	LightHost
	MaterialHost
}
