// Package memhost is an in-memory scene graph implementing simviewer.Host.
// It keeps every node, material and light in plain tables so a viewer can run
// headless, be inspected in tests, or be rendered to a preview image.
package memhost

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gekko3d/simviewer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

var (
	ErrUnknownNode     = errors.New("unknown node")
	ErrUnknownMaterial = errors.New("unknown material")
	ErrNotALight       = errors.New("node is not a light")
)

var _ simviewer.Host = (*Host)(nil)

type Material struct {
	Handle   simviewer.MaterialHandle
	Diffuse  mgl32.Vec3
	Template simviewer.MaterialTemplate
}

type Node struct {
	Handle    simviewer.NodeHandle
	Kind      simviewer.NodeKind
	Name      string
	Transform simviewer.Transform
	Visible   bool
	Material  simviewer.MaterialHandle
	Light     simviewer.LightParams
}

// Stats counts node traffic since the host was created.
type Stats struct {
	Created   int
	Destroyed int
	Live      int
	Materials int
}

type Host struct {
	mu        sync.RWMutex
	nodes     map[simviewer.NodeHandle]*Node
	materials map[simviewer.MaterialHandle]*Material
	created   int
	destroyed int

	// HeadLengthRatio sizes the head shapes used by WorldBounds.
	HeadLengthRatio float32
}

func New() *Host {
	return &Host{
		nodes:           make(map[simviewer.NodeHandle]*Node),
		materials:       make(map[simviewer.MaterialHandle]*Material),
		HeadLengthRatio: simviewer.DefaultHeadLengthRatio,
	}
}

func makeNodeHandle() simviewer.NodeHandle { return simviewer.NodeHandle(uuid.NewString()) }

func makeMaterialHandle() simviewer.MaterialHandle {
	return simviewer.MaterialHandle(uuid.NewString())
}

func (h *Host) CreateNode(kind simviewer.NodeKind, name string, tr simviewer.Transform) (simviewer.NodeHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := &Node{
		Handle:    makeNodeHandle(),
		Kind:      kind,
		Name:      name,
		Transform: tr,
		Visible:   true,
	}
	h.nodes[n.Handle] = n
	h.created++
	return n.Handle, nil
}

func (h *Host) DestroyNode(handle simviewer.NodeHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.nodes[handle]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, handle)
	}
	delete(h.nodes, handle)
	h.destroyed++
	return nil
}

func (h *Host) node(handle simviewer.NodeHandle) (*Node, error) {
	n, ok := h.nodes[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, handle)
	}
	return n, nil
}

func (h *Host) SetVisible(handle simviewer.NodeHandle, visible bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := h.node(handle)
	if err != nil {
		return err
	}
	n.Visible = visible
	return nil
}

func (h *Host) SetTransform(handle simviewer.NodeHandle, tr simviewer.Transform) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := h.node(handle)
	if err != nil {
		return err
	}
	n.Transform = tr
	return nil
}

func (h *Host) BindMaterial(handle simviewer.NodeHandle, m simviewer.MaterialHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := h.node(handle)
	if err != nil {
		return err
	}
	if _, ok := h.materials[m]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMaterial, m)
	}
	n.Material = m
	return nil
}

func (h *Host) SetLight(handle simviewer.NodeHandle, p simviewer.LightParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := h.node(handle)
	if err != nil {
		return err
	}
	if n.Kind != simviewer.NodeLight {
		return fmt.Errorf("%w: %s is a %s", ErrNotALight, handle, n.Kind)
	}
	n.Light = p
	return nil
}

func (h *Host) CreateMaterial(tmpl simviewer.MaterialTemplate) (simviewer.MaterialHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := &Material{Handle: makeMaterialHandle(), Diffuse: mgl32.Vec3{1, 1, 1}, Template: tmpl}
	h.materials[m.Handle] = m
	return m.Handle, nil
}

func (h *Host) SetDiffuseColor(handle simviewer.MaterialHandle, rgb mgl32.Vec3) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.materials[handle]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMaterial, handle)
	}
	m.Diffuse = rgb
	return nil
}

func (h *Host) ApplyTemplate(handle simviewer.MaterialHandle, tmpl simviewer.MaterialTemplate) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.materials[handle]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMaterial, handle)
	}
	m.Template = tmpl
	return nil
}

// Node returns a copy of one node.
func (h *Host) Node(handle simviewer.NodeHandle) (Node, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n, ok := h.nodes[handle]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

func (h *Host) Material(handle simviewer.MaterialHandle) (Material, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.materials[handle]
	if !ok {
		return Material{}, false
	}
	return *m, true
}

// Nodes returns copies of all live nodes ordered by name, then handle.
func (h *Host) Nodes() []Node {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Node, 0, len(h.nodes))
	for _, n := range h.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Handle < out[j].Handle
	})
	return out
}

// NodesNamed returns the live nodes carrying the given name.
func (h *Host) NodesNamed(name string) []Node {
	var out []Node
	for _, n := range h.Nodes() {
		if n.Name == name {
			out = append(out, n)
		}
	}
	return out
}

func (h *Host) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Created:   h.created,
		Destroyed: h.destroyed,
		Live:      len(h.nodes),
		Materials: len(h.materials),
	}
}

// localBounds is the model-space box of each node shape. Elongated shapes
// are modelled along +Y starting at the origin.
func (h *Host) localBounds(kind simviewer.NodeKind) (mgl32.Vec3, mgl32.Vec3) {
	switch kind {
	case simviewer.NodeSphere:
		return mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}
	case simviewer.NodeLine, simviewer.NodeVector:
		return mgl32.Vec3{-0.3, 0, -0.3}, mgl32.Vec3{0.3, 1, 0.3}
	case simviewer.NodeShaft:
		return mgl32.Vec3{-0.3, 0, -0.3}, mgl32.Vec3{0.3, 1 - h.HeadLengthRatio, 0.3}
	case simviewer.NodeHead:
		return mgl32.Vec3{-0.9, 0, -0.9}, mgl32.Vec3{0.9, h.HeadLengthRatio, 0.9}
	default:
		return mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5}
	}
}

// WorldBounds returns the world space box of a node's shape.
func (h *Host) WorldBounds(n Node) [2]mgl32.Vec3 {
	lo, hi := h.localBounds(n.Kind)
	return WorldAABB(n.Transform, lo, hi)
}
