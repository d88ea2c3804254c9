package simviewer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Viewer ties the registry to the framed scene, the fixed lights and the
// palette, and carries the settings not owned by any of them. The registry
// locks on its own; mu serializes everything touching scene, lights and
// palette.
type Viewer struct {
	mu sync.Mutex

	cfg      *Config
	log      Logger
	palette  *Palette
	registry *Registry
	scene    *Scene
	lights   *LightRig
	modules  []Module

	garbageCollecting bool
	gcTolerance       int
}

func (v *Viewer) Registry() *Registry { return v.registry }
func (v *Viewer) Palette() *Palette   { return v.palette }
func (v *Viewer) Scene() *Scene       { return v.scene }
func (v *Viewer) Lights() *LightRig   { return v.lights }
func (v *Viewer) Logger() Logger      { return v.log }
func (v *Viewer) Config() *Config     { return v.cfg }

func (v *Viewer) GarbageCollecting() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.garbageCollecting
}

func (v *Viewer) SetGarbageCollecting(enabled bool) {
	v.mu.Lock()
	v.garbageCollecting = enabled
	v.mu.Unlock()
}

// EndOfTick closes one simulation round: the tick counter advances and, when
// enabled, elements not refreshed within the tolerance are dropped.
func (v *Viewer) EndOfTick() (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	tick := v.registry.IncreaseTick()
	if !v.garbageCollecting {
		return tick, nil
	}
	removed, err := v.registry.GarbageCollect(v.gcTolerance)
	if removed > 0 {
		v.log.Debugf("viewer: tick %d collected %d elements", tick, removed)
	}
	return tick, err
}

// ResizeScene frames the current content with the given relative margin, or
// the configured one when none is given.
func (v *Viewer) ResizeScene(margin ...float32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(margin) == 0 {
		margin = v.cfg.Scene.Margin
	}
	if len(margin) != 3 {
		return fmt.Errorf("%w: scene margin has %d components", ErrDimensionMismatch, len(margin))
	}
	lo, hi, err := v.registry.BoundingBox()
	if err != nil {
		return err
	}
	v.log.Infof("viewer: detected span %v-%v x %v-%v x %v-%v",
		lo.X(), hi.X(), lo.Y(), hi.Y(), lo.Z(), hi.Z())
	if err := v.scene.ResizeToContent(lo, hi, margin); err != nil {
		return err
	}
	return v.lights.Rebuild(v.scene)
}

// ResizeSceneTo sets the scene region explicitly.
func (v *Viewer) ResizeSceneTo(offset, size []float32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.scene.Resize(offset, size); err != nil {
		return err
	}
	return v.lights.Rebuild(v.scene)
}

// RescaleScene changes the downscaling of the whole scene; element
// coordinates stay untouched, only the lights follow.
func (v *Viewer) RescaleScene(dsFactor float32) error {
	if dsFactor <= 0 {
		return fmt.Errorf("ds factor must be positive, got %v", dsFactor)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lights.Reposition(v.scene.Rescale(dsFactor))
}

func (v *Viewer) RootPosition() mgl32.Vec3 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scene.RootPosition()
}

// ToggleLights cycles the fixed lighting arrangement.
func (v *Viewer) ToggleLights() (LightsState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lights.Toggle(v.scene)
}

func (v *Viewer) ToggleFrontFaceCulling() (CullingMode, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	mode := CullFront
	if v.palette.Culling() == CullFront {
		mode = CullNone
	}
	return mode, v.palette.SetCulling(mode)
}

// Stop removes everything the viewer put into the host.
func (v *Viewer) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return errors.Join(v.lights.Remove(), v.registry.RemoveAll())
}
