package simviewer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

var errHostDown = errors.New("host down")

type fakeNode struct {
	kind     NodeKind
	name     string
	tr       Transform
	visible  bool
	material MaterialHandle
	light    LightParams
}

type fakeMaterial struct {
	diffuse mgl32.Vec3
	tmpl    MaterialTemplate
}

// fakeHost records every call; failing operations are armed through failOn,
// keyed by method name, and fire on the n-th call counted from arming.
type fakeHost struct {
	mu        sync.Mutex
	seq       int
	nodes     map[NodeHandle]*fakeNode
	materials map[MaterialHandle]*fakeMaterial
	destroyed []NodeHandle
	calls     map[string]int
	failOn    map[string]int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		nodes:     make(map[NodeHandle]*fakeNode),
		materials: make(map[MaterialHandle]*fakeMaterial),
		calls:     make(map[string]int),
		failOn:    make(map[string]int),
	}
}

// fail makes the n-th next call of op fail (n=1 is the very next call).
func (h *fakeHost) fail(op string, n int) {
	h.mu.Lock()
	h.failOn[op] = h.calls[op] + n
	h.mu.Unlock()
}

func (h *fakeHost) record(op string) error {
	h.calls[op]++
	if at, ok := h.failOn[op]; ok && h.calls[op] == at {
		delete(h.failOn, op)
		return fmt.Errorf("%s: %w", op, errHostDown)
	}
	return nil
}

func (h *fakeHost) CreateNode(kind NodeKind, name string, tr Transform) (NodeHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("CreateNode"); err != nil {
		return "", err
	}
	h.seq++
	n := NodeHandle(fmt.Sprintf("n%d", h.seq))
	h.nodes[n] = &fakeNode{kind: kind, name: name, tr: tr, visible: true}
	return n, nil
}

func (h *fakeHost) DestroyNode(n NodeHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("DestroyNode"); err != nil {
		return err
	}
	if _, ok := h.nodes[n]; !ok {
		return fmt.Errorf("no node %s", n)
	}
	delete(h.nodes, n)
	h.destroyed = append(h.destroyed, n)
	return nil
}

func (h *fakeHost) withNode(op string, n NodeHandle, fn func(*fakeNode)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record(op); err != nil {
		return err
	}
	node, ok := h.nodes[n]
	if !ok {
		return fmt.Errorf("no node %s", n)
	}
	fn(node)
	return nil
}

func (h *fakeHost) SetVisible(n NodeHandle, visible bool) error {
	return h.withNode("SetVisible", n, func(fn *fakeNode) { fn.visible = visible })
}

func (h *fakeHost) SetTransform(n NodeHandle, tr Transform) error {
	return h.withNode("SetTransform", n, func(fn *fakeNode) { fn.tr = tr })
}

func (h *fakeHost) BindMaterial(n NodeHandle, m MaterialHandle) error {
	return h.withNode("BindMaterial", n, func(fn *fakeNode) { fn.material = m })
}

func (h *fakeHost) SetLight(n NodeHandle, p LightParams) error {
	return h.withNode("SetLight", n, func(fn *fakeNode) { fn.light = p })
}

func (h *fakeHost) CreateMaterial(tmpl MaterialTemplate) (MaterialHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("CreateMaterial"); err != nil {
		return "", err
	}
	m := MaterialHandle(fmt.Sprintf("m%d", len(h.materials)))
	h.materials[m] = &fakeMaterial{tmpl: tmpl}
	return m, nil
}

func (h *fakeHost) SetDiffuseColor(m MaterialHandle, rgb mgl32.Vec3) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("SetDiffuseColor"); err != nil {
		return err
	}
	h.materials[m].diffuse = rgb
	return nil
}

func (h *fakeHost) ApplyTemplate(m MaterialHandle, tmpl MaterialTemplate) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("ApplyTemplate"); err != nil {
		return err
	}
	h.materials[m].tmpl = tmpl
	return nil
}

func (h *fakeHost) node(n NodeHandle) fakeNode {
	h.mu.Lock()
	defer h.mu.Unlock()
	if node, ok := h.nodes[n]; ok {
		return *node
	}
	return fakeNode{}
}

func (h *fakeHost) live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.nodes)
}

func (h *fakeHost) liveOfKind(kind NodeKind) []fakeNode {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []fakeNode
	for _, n := range h.nodes {
		if n.kind == kind {
			out = append(out, *n)
		}
	}
	return out
}

func (h *fakeHost) count(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[op]
}
