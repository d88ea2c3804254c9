// Package feed decodes JSON display updates and applies them to a
// simviewer.Viewer. Server exposes the same messages over a websocket.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gekko3d/simviewer"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownType      = errors.New("unknown message type")
)

// Message types.
const (
	TypePoint        = "point"
	TypeLine         = "line"
	TypeVector       = "vector"
	TypeRemovePoint  = "remove_point"
	TypeRemoveLine   = "remove_line"
	TypeRemoveVector = "remove_vector"
	TypeTick         = "tick"
	TypeClear        = "clear"
	TypeToggle       = "toggle"
	TypeResize       = "resize"
	TypeStretch      = "stretch"
)

// Toggle targets.
const (
	TogglePoints       = "points"
	ToggleLines        = "lines"
	ToggleVectors      = "vectors"
	ToggleCellDebug    = "cell_debug"
	ToggleGeneralDebug = "general_debug"
	ToggleLights       = "lights"
	ToggleCulling      = "culling"
	ToggleCollector    = "collector"
)

// Message is one display update. Which fields matter depends on Type.
type Message struct {
	Type string `json:"type"`
	ID   *int64 `json:"id,omitempty"`

	Centre *mgl32.Vec3 `json:"centre,omitempty"`
	Radius *mgl32.Vec3 `json:"radius,omitempty"`
	Base   *mgl32.Vec3 `json:"base,omitempty"`
	Vector *mgl32.Vec3 `json:"vector,omitempty"`

	Color      *mgl32.Vec3 `json:"color,omitempty"`
	ColorIndex *int        `json:"color_index,omitempty"`

	Target string   `json:"target,omitempty"`
	Scope  string   `json:"scope,omitempty"`
	Value  *float32 `json:"value,omitempty"`
}

// Reply acknowledges one message.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Tick  int    `json:"tick"`
}

// Decode parses a single JSON message.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return msg, nil
}

func (m Message) elementID() (simviewer.ElementID, error) {
	if m.ID == nil {
		return 0, fmt.Errorf("%w: %s without id", ErrMalformedMessage, m.Type)
	}
	return simviewer.ParseElementID(*m.ID)
}

// color prefers the legacy color index over an explicit color; white when
// neither is given.
func (m Message) color() mgl32.Vec3 {
	if m.ColorIndex != nil {
		return simviewer.LegacyColor(*m.ColorIndex)
	}
	if m.Color != nil {
		return *m.Color
	}
	return simviewer.LegacyColor(0)
}

func requireFields(m Message, fields ...string) error {
	for _, f := range fields {
		var missing bool
		switch f {
		case "centre":
			missing = m.Centre == nil
		case "radius":
			missing = m.Radius == nil
		case "base":
			missing = m.Base == nil
		case "vector":
			missing = m.Vector == nil
		case "value":
			missing = m.Value == nil
		}
		if missing {
			return fmt.Errorf("%w: %s without %s", ErrMalformedMessage, m.Type, f)
		}
	}
	return nil
}

// Apply performs one message on the viewer.
func Apply(v *simviewer.Viewer, m Message) error {
	reg := v.Registry()

	switch m.Type {
	case TypePoint, TypeLine, TypeVector, TypeRemovePoint, TypeRemoveLine, TypeRemoveVector:
		id, err := m.elementID()
		if err != nil {
			return err
		}
		return applyElement(reg, id, m)

	case TypeTick:
		_, err := v.EndOfTick()
		return err

	case TypeClear:
		return reg.RemoveAll()

	case TypeResize:
		err := v.ResizeScene()
		if errors.Is(err, simviewer.ErrEmptyRegistry) {
			v.Logger().Infof("feed: nothing to frame, scene left as is")
			return nil
		}
		return err

	case TypeStretch:
		if err := requireFields(m, "value"); err != nil {
			return err
		}
		return reg.SetVectorStretch(*m.Value)

	case TypeToggle:
		return applyToggle(v, m)
	}
	return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
}

func applyElement(reg *simviewer.Registry, id simviewer.ElementID, m Message) error {
	switch m.Type {
	case TypePoint:
		if err := requireFields(m, "centre", "radius"); err != nil {
			return err
		}
		return reg.UpsertPoint(id, simviewer.Point{Centre: *m.Centre, Radius: *m.Radius, Color: m.color()})
	case TypeLine:
		if err := requireFields(m, "base", "vector"); err != nil {
			return err
		}
		return reg.UpsertLine(id, simviewer.Line{Base: *m.Base, Vector: *m.Vector, Color: m.color()})
	case TypeVector:
		if err := requireFields(m, "base", "vector"); err != nil {
			return err
		}
		return reg.UpsertVector(id, simviewer.Vector{Base: *m.Base, Vector: *m.Vector, Color: m.color()})
	case TypeRemovePoint:
		return reg.RemovePoint(id)
	case TypeRemoveLine:
		return reg.RemoveLine(id)
	default:
		return reg.RemoveVector(id)
	}
}

func applyToggle(v *simviewer.Viewer, m Message) error {
	reg := v.Registry()
	switch m.Target {
	case TogglePoints, ToggleLines, ToggleVectors:
		kind := map[string]simviewer.ElementKind{
			TogglePoints:  simviewer.KindPoints,
			ToggleLines:   simviewer.KindLines,
			ToggleVectors: simviewer.KindVectors,
		}[m.Target]
		var scope simviewer.ToggleScope
		switch m.Scope {
		case "owned", "":
			scope = simviewer.ScopeOwned
		case "general":
			scope = simviewer.ScopeGeneral
		default:
			return fmt.Errorf("%w: toggle scope %q", ErrMalformedMessage, m.Scope)
		}
		_, err := reg.Toggle(kind, scope)
		return err
	case ToggleCellDebug:
		_, err := reg.ToggleCellDebug()
		return err
	case ToggleGeneralDebug:
		_, err := reg.ToggleGeneralDebug()
		return err
	case ToggleLights:
		state, err := v.ToggleLights()
		v.Logger().Infof("feed: lights %s", state)
		return err
	case ToggleCulling:
		_, err := v.ToggleFrontFaceCulling()
		return err
	case ToggleCollector:
		v.SetGarbageCollecting(!v.GarbageCollecting())
		return nil
	}
	return fmt.Errorf("%w: toggle target %q", ErrMalformedMessage, m.Target)
}
