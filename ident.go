package simviewer

import "fmt"

// ElementID is the packed 31-bit key of a displayed element.
//
//	bits  0-15: slot of the element within its kind
//	bit     16: debug flag
//	bits 17-30: owner (cell) id, 0 for general purpose elements
//	bit     31: reserved, never set
type ElementID uint32

const (
	slotBits  = 16
	ownerBits = 14

	debugShift = slotBits
	ownerShift = slotBits + 1

	MaxSlot  = 1<<slotBits - 1
	MaxOwner = 1<<ownerBits - 1

	maskSlot  ElementID = MaxSlot
	maskDebug ElementID = 1 << debugShift
	maskOwner ElementID = MaxOwner << ownerShift

	maxRawID = 1<<31 - 1
)

// PackID builds an ElementID from its components.
func PackID(owner int, debug bool, slot int) (ElementID, error) {
	if slot < 0 || slot > MaxSlot {
		return 0, fmt.Errorf("%w: slot %d not in [0,%d]", ErrInvalidIdentifierComponent, slot, MaxSlot)
	}
	if owner < 0 || owner > MaxOwner {
		return 0, fmt.Errorf("%w: owner %d not in [0,%d]", ErrInvalidIdentifierComponent, owner, MaxOwner)
	}
	id := ElementID(owner)<<ownerShift | ElementID(slot)
	if debug {
		id |= maskDebug
	}
	return id, nil
}

// MustPackID is PackID for constant inputs; it panics on a range violation.
func MustPackID(owner int, debug bool, slot int) ElementID {
	id, err := PackID(owner, debug, slot)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseElementID validates a raw identifier as delivered by a transport.
func ParseElementID(raw int64) (ElementID, error) {
	if raw < 0 || raw > maxRawID {
		return 0, fmt.Errorf("%w: raw id %d outside 31-bit range", ErrInvalidIdentifierComponent, raw)
	}
	return ElementID(raw), nil
}

func (id ElementID) Unpack() (owner int, debug bool, slot int) {
	return id.Owner(), id.IsDebug(), id.Slot()
}

func (id ElementID) Owner() int { return int((id & maskOwner) >> ownerShift) }

func (id ElementID) Slot() int { return int(id & maskSlot) }

func (id ElementID) IsDebug() bool { return id&maskDebug != 0 }

// IsGeneralPurpose reports whether the element belongs to no cell.
func (id ElementID) IsGeneralPurpose() bool { return id&maskOwner == 0 }

// Name is the label given to the host node of this element.
func (id ElementID) Name() string {
	switch {
	case id.IsGeneralPurpose():
		return fmt.Sprintf("Global debug %d", id.Slot())
	case id.IsDebug():
		return fmt.Sprintf("%d cell's debug %d", id.Owner(), id.Slot())
	default:
		return fmt.Sprintf("%d cell's %d", id.Owner(), id.Slot())
	}
}

func (id ElementID) String() string {
	owner, debug, slot := id.Unpack()
	return fmt.Sprintf("ElementID(owner=%d debug=%t slot=%d)", owner, debug, slot)
}
