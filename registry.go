package simviewer

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// CollectAll as a garbage collection tolerance removes every element.
const CollectAll = math.MinInt

type pointElem struct {
	Point
	lastSeen int
	node     NodeHandle
	material MaterialHandle
}

type lineElem struct {
	Line
	lastSeen int
	node     NodeHandle
	material MaterialHandle
}

// vectorElem holds either a single shaft node or a shaft and a head node,
// depending on the registry's VectorStyle. Both nodes always share
// visibility and material.
type vectorElem struct {
	Vector
	aux      VectorAux
	lastSeen int
	shaft    NodeHandle
	head     NodeHandle
	material MaterialHandle
}

func (v *vectorElem) nodes() []NodeHandle {
	if v.head == "" {
		return []NodeHandle{v.shaft}
	}
	return []NodeHandle{v.shaft, v.head}
}

type RegistryOptions struct {
	Toggles         Toggles
	VectorStretch   float32
	HeadLengthRatio float32
	VectorStyle     VectorStyle
}

func DefaultRegistryOptions() RegistryOptions {
	return RegistryOptions{
		Toggles:         DefaultToggles(),
		VectorStretch:   1,
		HeadLengthRatio: DefaultHeadLengthRatio,
		VectorStyle:     ShaftAndHead,
	}
}

func validStretch(s float32) bool {
	return s > 0 && !math.IsInf(float64(s), 1)
}

// Registry owns every displayed point, line and vector, keyed by ElementID.
// All methods serialize on one lock; no call blocks on anything but the host.
type Registry struct {
	mu sync.Mutex

	host    SceneHost
	palette *Palette
	log     Logger

	points  map[ElementID]*pointElem
	lines   map[ElementID]*lineElem
	vectors map[ElementID]*vectorElem

	tick      int
	toggles   Toggles
	stretch   float32
	headRatio float32
	style     VectorStyle
}

func NewRegistry(host SceneHost, palette *Palette, logger Logger, opts RegistryOptions) *Registry {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Registry{
		host:      host,
		palette:   palette,
		log:       logger,
		points:    make(map[ElementID]*pointElem),
		lines:     make(map[ElementID]*lineElem),
		vectors:   make(map[ElementID]*vectorElem),
		toggles:   opts.Toggles,
		stretch:   opts.VectorStretch,
		headRatio: opts.HeadLengthRatio,
		style:     opts.VectorStyle,
	}
}

// IncreaseTick marks the end of one simulation round.
func (r *Registry) IncreaseTick() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tick++
	return r.tick
}

func (r *Registry) Tick() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tick
}

type Counts struct {
	Points, Lines, Vectors int
}

func (c Counts) Total() int { return c.Points + c.Lines + c.Vectors }

func (r *Registry) Counts() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Counts{Points: len(r.points), Lines: len(r.lines), Vectors: len(r.vectors)}
}

// ============== UPSERTS ==============

func (r *Registry) UpsertPoint(id ElementID, p Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	material := r.palette.Resolve(p.Color)
	visible := r.toggles.Decide(KindPoints, id)

	if e, ok := r.points[id]; ok {
		e.Point = p
		e.lastSeen = r.tick
		return r.refresh([]NodeHandle{e.node}, []Transform{pointTransform(p)}, &e.material, material, visible)
	}

	nodes, err := r.createNodes(id, []NodeKind{NodeSphere}, []Transform{pointTransform(p)}, material, visible)
	if err != nil {
		return err
	}
	r.points[id] = &pointElem{Point: p, lastSeen: r.tick, node: nodes[0], material: material}
	r.log.Debugf("registry: added point %s", id.Name())
	return nil
}

func (r *Registry) UpsertLine(id ElementID, l Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	material := r.palette.Resolve(l.Color)
	visible := r.toggles.Decide(KindLines, id)

	if e, ok := r.lines[id]; ok {
		e.Line = l
		e.lastSeen = r.tick
		return r.refresh([]NodeHandle{e.node}, []Transform{lineTransform(l)}, &e.material, material, visible)
	}

	nodes, err := r.createNodes(id, []NodeKind{NodeLine}, []Transform{lineTransform(l)}, material, visible)
	if err != nil {
		return err
	}
	r.lines[id] = &lineElem{Line: l, lastSeen: r.tick, node: nodes[0], material: material}
	r.log.Debugf("registry: added line %s", id.Name())
	return nil
}

func (r *Registry) UpsertVector(id ElementID, v Vector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	material := r.palette.Resolve(v.Color)
	visible := r.toggles.Decide(KindVectors, id)
	aux := DeriveVector(v, r.stretch, r.headRatio, r.style)

	if e, ok := r.vectors[id]; ok {
		e.Vector = v
		e.aux = aux
		e.lastSeen = r.tick
		if r.style == ShaftAndHead && e.head == "" {
			// a failed removal may have left the shaft without its head
			nodes, err := r.createNodes(id, []NodeKind{NodeHead}, []Transform{headTransform(v, aux)}, e.material, visible)
			if err != nil {
				return err
			}
			e.head = nodes[0]
		}
		return r.refresh(e.nodes(), r.vectorTransforms(e, e.head != ""), &e.material, material, visible)
	}

	e := &vectorElem{Vector: v, aux: aux, lastSeen: r.tick, material: material}
	kinds := []NodeKind{NodeVector}
	if r.style == ShaftAndHead {
		kinds = []NodeKind{NodeShaft, NodeHead}
	}
	nodes, err := r.createNodes(id, kinds, r.vectorTransforms(e, r.style == ShaftAndHead), material, visible)
	if err != nil {
		return err
	}
	e.shaft = nodes[0]
	if len(nodes) > 1 {
		e.head = nodes[1]
	}
	r.vectors[id] = e
	r.log.Debugf("registry: added vector %s", id.Name())
	return nil
}

// vectorTransforms returns the shaft transform followed, when withHead is
// set, by the head transform.
func (r *Registry) vectorTransforms(e *vectorElem, withHead bool) []Transform {
	trs := []Transform{shaftTransform(e.Vector, e.aux)}
	if withHead {
		trs = append(trs, headTransform(e.Vector, e.aux))
	}
	return trs
}

// createNodes asks the host for one node per kind and fully configures them.
// On failure every node created so far is destroyed again.
func (r *Registry) createNodes(id ElementID, kinds []NodeKind, trs []Transform, m MaterialHandle, visible bool) ([]NodeHandle, error) {
	nodes := make([]NodeHandle, 0, len(kinds))
	rollback := func(cause error) error {
		for _, n := range nodes {
			if err := r.host.DestroyNode(n); err != nil {
				r.log.Warnf("registry: rollback of %s left node %s behind: %v", id.Name(), n, err)
			}
		}
		return cause
	}

	for i, kind := range kinds {
		n, err := r.host.CreateNode(kind, id.Name(), trs[i])
		if err != nil {
			return nil, rollback(hostError(fmt.Sprintf("create %s node for %s", kind, id.Name()), err))
		}
		nodes = append(nodes, n)
		if err := r.host.BindMaterial(n, m); err != nil {
			return nil, rollback(hostError("bind material", err))
		}
		if err := r.host.SetVisible(n, visible); err != nil {
			return nil, rollback(hostError("set visibility", err))
		}
	}
	return nodes, nil
}

// refresh pushes new transforms, material and visibility to existing nodes.
func (r *Registry) refresh(nodes []NodeHandle, trs []Transform, current *MaterialHandle, m MaterialHandle, visible bool) error {
	for i, n := range nodes {
		if err := r.host.SetTransform(n, trs[i]); err != nil {
			return hostError("set transform", err)
		}
	}
	if *current != m {
		for _, n := range nodes {
			if err := r.host.BindMaterial(n, m); err != nil {
				return hostError("bind material", err)
			}
		}
		*current = m
	}
	return r.setVisible(nodes, visible)
}

func (r *Registry) setVisible(nodes []NodeHandle, visible bool) error {
	for _, n := range nodes {
		if err := r.host.SetVisible(n, visible); err != nil {
			return hostError("set visibility", err)
		}
	}
	return nil
}

// ============== REMOVAL ==============

// RemovePoint destroys the point's node. Unknown ids are ignored.
func (r *Registry) RemovePoint(id ElementID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removePoint(id)
}

func (r *Registry) RemoveLine(id ElementID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLine(id)
}

func (r *Registry) RemoveVector(id ElementID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeVector(id)
}

// Remove drops the element of the given kind.
func (r *Registry) Remove(kind ElementKind, id ElementID) error {
	switch kind {
	case KindLines:
		return r.RemoveLine(id)
	case KindVectors:
		return r.RemoveVector(id)
	default:
		return r.RemovePoint(id)
	}
}

func (r *Registry) removePoint(id ElementID) error {
	e, ok := r.points[id]
	if !ok {
		return nil
	}
	if err := r.host.DestroyNode(e.node); err != nil {
		return hostError("destroy node of "+id.Name(), err)
	}
	delete(r.points, id)
	return nil
}

func (r *Registry) removeLine(id ElementID) error {
	e, ok := r.lines[id]
	if !ok {
		return nil
	}
	if err := r.host.DestroyNode(e.node); err != nil {
		return hostError("destroy node of "+id.Name(), err)
	}
	delete(r.lines, id)
	return nil
}

// removeVector destroys the head first so that a failing shaft leaves a
// consistent shaft-only entry behind.
func (r *Registry) removeVector(id ElementID) error {
	e, ok := r.vectors[id]
	if !ok {
		return nil
	}
	if e.head != "" {
		if err := r.host.DestroyNode(e.head); err != nil {
			return hostError("destroy head of "+id.Name(), err)
		}
		e.head = ""
	}
	if err := r.host.DestroyNode(e.shaft); err != nil {
		return hostError("destroy shaft of "+id.Name(), err)
	}
	delete(r.vectors, id)
	return nil
}

// GarbageCollect removes every element not seen for more than tolerance
// ticks. Failing removals are reported together, the rest still proceeds.
func (r *Registry) GarbageCollect(tolerance int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stale := func(lastSeen int) bool {
		return tolerance == CollectAll || r.tick-lastSeen > tolerance
	}

	var errs []error
	removed := 0
	for id, e := range r.points {
		if stale(e.lastSeen) {
			if err := r.removePoint(id); err != nil {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}
	for id, e := range r.lines {
		if stale(e.lastSeen) {
			if err := r.removeLine(id); err != nil {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}
	for id, e := range r.vectors {
		if stale(e.lastSeen) {
			if err := r.removeVector(id); err != nil {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		r.log.Debugf("registry: collected %d elements at tick %d", removed, r.tick)
	}
	return removed, errors.Join(errs...)
}

// RemoveAll clears the registry.
func (r *Registry) RemoveAll() error {
	_, err := r.GarbageCollect(CollectAll)
	return err
}

// ============== VISIBILITY ==============

func (r *Registry) Toggles() Toggles {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.toggles
}

// SetToggle sets one per-kind toggle and re-applies visibility to that kind.
func (r *Registry) SetToggle(kind ElementKind, scope ToggleScope, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggles.kind(kind).set(scope, value)
	return r.reapply(kind)
}

// Toggle flips one per-kind toggle and returns its new value.
func (r *Registry) Toggle(kind ElementKind, scope ToggleScope) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kt := r.toggles.kind(kind)
	v := !kt.get(scope)
	kt.set(scope, v)
	return v, r.reapply(kind)
}

func (r *Registry) SetCellDebug(v bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggles.CellDebug = v
	return r.reapplyAll()
}

func (r *Registry) ToggleCellDebug() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggles.CellDebug = !r.toggles.CellDebug
	return r.toggles.CellDebug, r.reapplyAll()
}

func (r *Registry) SetGeneralDebug(v bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggles.GeneralDebug = v
	return r.reapplyAll()
}

func (r *Registry) ToggleGeneralDebug() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggles.GeneralDebug = !r.toggles.GeneralDebug
	return r.toggles.GeneralDebug, r.reapplyAll()
}

// Visibility re-applies and reports the decided visibility of one element.
func (r *Registry) Visibility(kind ElementKind, id ElementID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nodes, ok := r.nodesOf(kind, id)
	if !ok {
		return false, fmt.Errorf("%w: %s %s", ErrUnknownIdentifier, kind, id.Name())
	}
	visible := r.toggles.Decide(kind, id)
	return visible, r.setVisible(nodes, visible)
}

func (r *Registry) nodesOf(kind ElementKind, id ElementID) ([]NodeHandle, bool) {
	switch kind {
	case KindPoints:
		if e, ok := r.points[id]; ok {
			return []NodeHandle{e.node}, true
		}
	case KindLines:
		if e, ok := r.lines[id]; ok {
			return []NodeHandle{e.node}, true
		}
	case KindVectors:
		if e, ok := r.vectors[id]; ok {
			return e.nodes(), true
		}
	}
	return nil, false
}

func (r *Registry) reapplyAll() error {
	var errs []error
	for _, k := range elementKinds {
		if err := r.reapply(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reapply is the only place where toggle changes reach the host.
func (r *Registry) reapply(kind ElementKind) error {
	var errs []error
	push := func(id ElementID, nodes []NodeHandle) {
		if err := r.setVisible(nodes, r.toggles.Decide(kind, id)); err != nil {
			errs = append(errs, err)
		}
	}
	switch kind {
	case KindPoints:
		for id, e := range r.points {
			push(id, []NodeHandle{e.node})
		}
	case KindLines:
		for id, e := range r.lines {
			push(id, []NodeHandle{e.node})
		}
	case KindVectors:
		for id, e := range r.vectors {
			push(id, e.nodes())
		}
	}
	return errors.Join(errs...)
}

// ============== GEOMETRY ==============

// BoundingBox returns the axis aligned box around all registered elements:
// spheres with their radius, lines and vectors by their (unstretched) ends.
func (r *Registry) BoundingBox() (mgl32.Vec3, mgl32.Vec3, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.points)+len(r.lines)+len(r.vectors) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}, ErrEmptyRegistry
	}

	inf := float32(math.Inf(1))
	lo := mgl32.Vec3{inf, inf, inf}
	hi := mgl32.Vec3{-inf, -inf, -inf}
	extend := func(a, b mgl32.Vec3) {
		lo = minVec(lo, minVec(a, b))
		hi = maxVec(hi, maxVec(a, b))
	}

	for _, p := range r.points {
		rad := absVec(p.Radius)
		extend(p.Centre.Sub(rad), p.Centre.Add(rad))
	}
	for _, l := range r.lines {
		extend(l.Base, l.Base.Add(l.Vector))
	}
	for _, v := range r.vectors {
		extend(v.Base, v.Base.Add(v.Vector.Vector))
	}
	return lo, hi, nil
}

func (r *Registry) VectorStretch() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stretch
}

// SetVectorStretch rescales every vector without touching its data. The
// stretch must be a finite positive number.
func (r *Registry) SetVectorStretch(stretch float32) error {
	if !validStretch(stretch) {
		return fmt.Errorf("%w: %v", ErrInvalidVectorStretch, stretch)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.stretch = stretch
	var errs []error
	for _, e := range r.vectors {
		e.aux = DeriveVector(e.Vector, r.stretch, r.headRatio, r.style)
		nodes := e.nodes()
		for i, tr := range r.vectorTransforms(e, e.head != "") {
			if err := r.host.SetTransform(nodes[i], tr); err != nil {
				errs = append(errs, hostError("set transform", err))
			}
		}
	}
	return errors.Join(errs...)
}

// VectorAux returns the current display attributes of a vector.
func (r *Registry) VectorAux(id ElementID) (VectorAux, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.vectors[id]
	if !ok {
		return VectorAux{}, fmt.Errorf("%w: vector %s", ErrUnknownIdentifier, id.Name())
	}
	return e.aux, nil
}
