package driver

import (
	"fmt"
	"math"
)

type TagKind uint8

const (
	TagSlot TagKind = iota
	TagControl
)

// Control
// user data values above every slot index, consumed by the driver itself.
type Control uint64

const (
	ControlCancel   Control = math.MaxUint64
	ControlTimeout  Control = math.MaxUint64 - 1
	ControlWakeup   Control = math.MaxUint64 - 2
	ControlReserved Control = math.MaxUint64 - 3
)

func (c Control) String() string {
	switch c {
	case ControlCancel:
		return "cancel"
	case ControlTimeout:
		return "timeout"
	case ControlWakeup:
		return "wakeup"
	case ControlReserved:
		return "reserved"
	default:
		return fmt.Sprintf("control(%d)", uint64(c))
	}
}

// Tag
// decoded user data of a submission or completion.
type Tag struct {
	Kind    TagKind
	Slot    int
	Control Control
}

func SlotTag(slot int) Tag {
	return Tag{Kind: TagSlot, Slot: slot}
}

func ControlTag(c Control) Tag {
	return Tag{Kind: TagControl, Control: c}
}

func DecodeTag(userData uint64) Tag {
	if userData >= uint64(ControlReserved) {
		return ControlTag(Control(userData))
	}
	return SlotTag(int(userData))
}

func (t Tag) UserData() uint64 {
	if t.Kind == TagControl {
		return uint64(t.Control)
	}
	return uint64(t.Slot)
}

func (t Tag) String() string {
	if t.Kind == TagControl {
		return t.Control.String()
	}
	return fmt.Sprintf("slot(%d)", t.Slot)
}
