package simviewer

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type LightsState int

const (
	LightsNotConfigured LightsState = iota
	LightsNone
	LightsBoth
	LightsFront
	LightsRear
	LightsCircle
)

func (s LightsState) String() string {
	switch s {
	case LightsNotConfigured:
		return "NOTUSED"
	case LightsNone:
		return "NONE"
	case LightsBoth:
		return "BOTH"
	case LightsFront:
		return "FRONT"
	case LightsRear:
		return "REAR"
	case LightsCircle:
		return "CIRCLE"
	}
	return fmt.Sprintf("LightsState(%d)", int(s))
}

const (
	rampFront = iota
	rampRear
	rampCircle
	rampCount
)

const (
	circleLightsMid  = 12
	circleLightsSide = 6

	lightIntensityStep = 0.2
	lightIntensityMin  = 0.1
)

type fixedLight struct {
	node     NodeHandle
	position mgl32.Vec3
}

// LightRig is the set of point lights placed around the scene: a front ramp,
// a rear ramp and a circle. Toggle cycles through which of them shine.
type LightRig struct {
	host  LightHost
	log   Logger
	state LightsState
	ramps [rampCount][]fixedLight

	params LightParams
}

func NewLightRig(host LightHost, logger Logger) *LightRig {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &LightRig{host: host, log: logger, state: LightsNotConfigured}
}

func (lr *LightRig) State() LightsState { return lr.state }

func (lr *LightRig) Available() bool { return lr.ramps[rampFront] != nil }

// Create (re)builds all lights for the given scene. Lights start switched off.
func (lr *LightRig) Create(sc *Scene) error {
	if err := lr.Remove(); err != nil {
		return err
	}

	o, s, ds := sc.Offset, sc.Size, sc.DsFactor
	at := func(base, size, rel float32) float32 { return (base + rel*size) * ds }

	xLeft, xCentre, xRight := at(o.X(), s.X(), 0.05), at(o.X(), s.X(), 0.5), at(o.X(), s.X(), 0.95)
	yTop, yCentre, yBottom := at(o.Y(), s.Y(), 0.05), at(o.Y(), s.Y(), 0.5), at(o.Y(), s.Y(), 0.95)
	zNear, zFar := at(o.Z(), s.Z(), 1.3), at(o.Z(), s.Z(), -0.3)
	zNearCentre, zFarCentre := at(o.Z(), s.Z(), 1.5), at(o.Z(), s.Z(), -0.5)
	zCentre := at(o.Z(), s.Z(), 0.5)

	positions := [rampCount][]mgl32.Vec3{
		rampFront: {
			{xLeft, yTop, zNear}, {xLeft, yBottom, zNear},
			{xCentre, yTop, zNearCentre}, {xCentre, yBottom, zNearCentre},
			{xRight, yTop, zNear}, {xRight, yBottom, zNear},
		},
		rampRear: {
			{xLeft, yTop, zFar}, {xLeft, yBottom, zFar},
			{xCentre, yTop, zFarCentre}, {xCentre, yBottom, zFarCentre},
			{xRight, yTop, zFar}, {xRight, yBottom, zFar},
		},
	}
	for i := 0; i < circleLightsMid; i++ {
		ang := 2 * math.Pi * float64(i) / circleLightsMid
		dx := float32(math.Cos(ang)*0.8) * s.X() * ds
		dz := float32(math.Sin(ang)*0.8) * s.Z() * ds
		positions[rampCircle] = append(positions[rampCircle], mgl32.Vec3{xCentre + dx, yCentre, zCentre + dz})
	}
	for i := 0; i < circleLightsSide; i++ {
		ang := 2*math.Pi*float64(i)/circleLightsSide + math.Pi/circleLightsSide
		dx := float32(math.Cos(ang)*0.4) * s.X() * ds
		dz := float32(math.Sin(ang)*0.4) * s.Z() * ds
		dy := float32(0.866*0.8) * s.Y() * ds
		positions[rampCircle] = append(positions[rampCircle],
			mgl32.Vec3{xCentre + dx, yCentre - dy, zCentre + dz},
			mgl32.Vec3{xCentre + dx, yCentre + dy, zCentre + dz})
	}

	lr.params = LightParams{
		Color:     [3]float32{1, 1, 1},
		Intensity: 50 * ds,
		Radius:    1.1 * s.Y() * ds,
	}

	names := [rampCount]string{"Ramp1 front", "Ramp2 rear", "Circle"}
	for ramp, list := range positions {
		for i, pos := range list {
			l, err := lr.createLight(fmt.Sprintf("PointLight %s #%d", names[ramp], i), pos)
			if err != nil {
				if rerr := lr.Remove(); rerr != nil {
					lr.log.Warnf("lights: cleanup after failed setup: %v", rerr)
					err = errors.Join(err, rerr)
				}
				return err
			}
			lr.ramps[ramp] = append(lr.ramps[ramp], l)
		}
	}

	lr.state = LightsNone
	lr.log.Debugf("lights: created %d+%d+%d lights", len(lr.ramps[rampFront]), len(lr.ramps[rampRear]), len(lr.ramps[rampCircle]))
	return nil
}

func (lr *LightRig) createLight(name string, pos mgl32.Vec3) (fixedLight, error) {
	tr := NewTransform()
	tr.Position = pos
	n, err := lr.host.CreateNode(NodeLight, name, tr)
	if err != nil {
		return fixedLight{}, hostError("create "+name, err)
	}
	discard := func(cause error) error {
		if err := lr.host.DestroyNode(n); err != nil {
			lr.log.Warnf("lights: rollback of %s left node %s behind: %v", name, n, err)
			return errors.Join(cause, hostError("destroy "+name, err))
		}
		return cause
	}
	if err := lr.host.SetLight(n, lr.params); err != nil {
		return fixedLight{}, discard(hostError("configure "+name, err))
	}
	if err := lr.host.SetVisible(n, false); err != nil {
		return fixedLight{}, discard(hostError("hide "+name, err))
	}
	return fixedLight{node: n, position: pos}, nil
}

// Remove destroys all lights. Once lights were configured, the state never
// returns to LightsNotConfigured.
func (lr *LightRig) Remove() error {
	if !lr.Available() {
		return nil
	}
	var errs []error
	for ramp := range lr.ramps {
		for _, l := range lr.ramps[ramp] {
			if err := lr.host.DestroyNode(l.node); err != nil {
				errs = append(errs, hostError("destroy light", err))
			}
		}
		lr.ramps[ramp] = nil
	}
	lr.state = LightsNone
	return errors.Join(errs...)
}

var nextLightsState = map[LightsState]LightsState{
	LightsNone:   LightsBoth,
	LightsBoth:   LightsFront,
	LightsFront:  LightsRear,
	LightsRear:   LightsCircle,
	LightsCircle: LightsNone,
}

// rampsOn lists which ramps shine in each state.
var rampsOn = map[LightsState][rampCount]bool{
	LightsNone:   {false, false, false},
	LightsBoth:   {true, true, false},
	LightsFront:  {true, false, false},
	LightsRear:   {false, true, false},
	LightsCircle: {false, false, true},
}

// Toggle advances to the next lighting arrangement. Lights removed earlier
// are rebuilt for sc first; an unconfigured rig stays unconfigured.
func (lr *LightRig) Toggle(sc *Scene) (LightsState, error) {
	if lr.state == LightsNotConfigured {
		return lr.state, nil
	}
	if !lr.Available() {
		lr.log.Infof("lights: creating light ramps before turning them on")
		if err := lr.Create(sc); err != nil {
			return lr.state, err
		}
	}

	next := nextLightsState[lr.state]
	on := rampsOn[next]
	var errs []error
	for ramp := range lr.ramps {
		for _, l := range lr.ramps[ramp] {
			if err := lr.host.SetVisible(l.node, on[ramp]); err != nil {
				errs = append(errs, hostError("switch light", err))
			}
		}
	}
	lr.state = next
	return lr.state, errors.Join(errs...)
}

// Rebuild recreates the lights for a resized scene and restores the current
// arrangement.
func (lr *LightRig) Rebuild(sc *Scene) error {
	if lr.state == LightsNotConfigured {
		return nil
	}
	want := lr.state
	if err := lr.Create(sc); err != nil {
		return err
	}
	for lr.state != want {
		if _, err := lr.Toggle(sc); err != nil {
			return err
		}
	}
	return nil
}

// Reposition follows a change of the scene's downscaling factor.
func (lr *LightRig) Reposition(correction float32) error {
	if !lr.Available() {
		return nil
	}
	lr.params.Radius *= correction
	lr.params.Intensity *= correction
	return lr.eachLight(func(l *fixedLight) error {
		l.position = l.position.Mul(correction)
		tr := NewTransform()
		tr.Position = l.position
		if err := lr.host.SetTransform(l.node, tr); err != nil {
			return hostError("move light", err)
		}
		return lr.host.SetLight(l.node, lr.params)
	})
}

func (lr *LightRig) Intensity() float32 {
	if !lr.Available() {
		return 0
	}
	return lr.params.Intensity
}

func (lr *LightRig) IncreaseIntensity() (float32, error) {
	return lr.setIntensity(lr.params.Intensity + lightIntensityStep)
}

func (lr *LightRig) DecreaseIntensity() (float32, error) {
	return lr.setIntensity(max(lr.params.Intensity-lightIntensityStep, lightIntensityMin))
}

func (lr *LightRig) setIntensity(v float32) (float32, error) {
	if !lr.Available() {
		return 0, nil
	}
	lr.params.Intensity = v
	err := lr.eachLight(func(l *fixedLight) error {
		return lr.host.SetLight(l.node, lr.params)
	})
	return v, err
}

func (lr *LightRig) eachLight(fn func(l *fixedLight) error) error {
	var errs []error
	for ramp := range lr.ramps {
		for i := range lr.ramps[ramp] {
			if err := fn(&lr.ramps[ramp][i]); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
