package simviewer

import "fmt"

type ElementKind int

const (
	KindPoints ElementKind = iota
	KindLines
	KindVectors
)

var elementKinds = [...]ElementKind{KindPoints, KindLines, KindVectors}

func (k ElementKind) String() string {
	switch k {
	case KindPoints:
		return "points"
	case KindLines:
		return "lines"
	case KindVectors:
		return "vectors"
	}
	return fmt.Sprintf("ElementKind(%d)", int(k))
}

// ToggleScope selects which of the per-kind toggles is addressed.
type ToggleScope int

const (
	// ScopeOwned addresses elements that belong to a cell (the 'g' mode).
	ScopeOwned ToggleScope = iota
	// ScopeGeneral addresses general purpose elements (the 'G' mode).
	ScopeGeneral
)

// KindToggles groups the visibility switches of one element kind.
type KindToggles struct {
	OwnedVisible   bool
	GeneralVisible bool
}

func (kt KindToggles) get(scope ToggleScope) bool {
	if scope == ScopeGeneral {
		return kt.GeneralVisible
	}
	return kt.OwnedVisible
}

func (kt *KindToggles) set(scope ToggleScope, v bool) {
	if scope == ScopeGeneral {
		kt.GeneralVisible = v
		return
	}
	kt.OwnedVisible = v
}

// Toggles is the complete visibility configuration of a registry.
type Toggles struct {
	Points  KindToggles
	Lines   KindToggles
	Vectors KindToggles

	CellDebug    bool
	GeneralDebug bool
}

// DefaultToggles shows every regular element and hides all debug ones.
func DefaultToggles() Toggles {
	all := KindToggles{OwnedVisible: true, GeneralVisible: true}
	return Toggles{Points: all, Lines: all, Vectors: all}
}

func (t *Toggles) kind(k ElementKind) *KindToggles {
	switch k {
	case KindLines:
		return &t.Lines
	case KindVectors:
		return &t.Vectors
	default:
		return &t.Points
	}
}

// For returns the toggles of the given kind.
func (t Toggles) For(k ElementKind) KindToggles {
	return *t.kind(k)
}

// Decide computes the visibility of element id.
//
// General purpose elements are shown only when their kind is enabled and the
// general debug mode is on. Owned elements follow the kind switch, except that
// debug elements additionally require the cell debug mode.
func Decide(id ElementID, kt KindToggles, cellDebug, generalDebug bool) bool {
	if id.IsGeneralPurpose() {
		if kt.GeneralVisible {
			return generalDebug
		}
		return kt.GeneralVisible
	}
	if kt.OwnedVisible && id.IsDebug() {
		return cellDebug
	}
	return kt.OwnedVisible
}

// Decide evaluates the policy for an element of kind k under t.
func (t Toggles) Decide(k ElementKind, id ElementID) bool {
	return Decide(id, t.For(k), t.CellDebug, t.GeneralDebug)
}
