// Package types defines shared data types for the ethbind tool.
// These are plain values describing a board's Ethernet configuration and
// the binding resolved from it; none of them change after resolution.
package types

import (
	"fmt"
	"strings"
)

// ControllerKind identifies one of the two on-chip Ethernet MAC peripherals.
type ControllerKind int

const (
	// Gigabit is the 10/100/1000 controller (GMAC).
	Gigabit ControllerKind = iota
	// Legacy is the 10/100 controller (EMAC).
	Legacy
)

// Controllers lists every controller kind in resolution order.
var Controllers = []ControllerKind{Gigabit, Legacy}

// Interface numbers handed to board PHY logic, one per controller.
const (
	GMACIntf = 0
	EMACIntf = 1
)

func (k ControllerKind) String() string {
	switch k {
	case Gigabit:
		return "GMAC"
	case Legacy:
		return "EMAC"
	default:
		return fmt.Sprintf("ControllerKind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ControllerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Intf returns the board interface number of the controller
// (GMACIntf or EMACIntf).
func (k ControllerKind) Intf() int {
	if k == Legacy {
		return EMACIntf
	}
	return GMACIntf
}

// InterfaceSlot is the logical network interface identity (ETH0 or ETH1)
// seen by the rest of the system.
type InterfaceSlot int

const (
	Slot0 InterfaceSlot = iota
	Slot1
)

// NumSlots is the number of logical interface slots on a board.
const NumSlots = 2

func (s InterfaceSlot) String() string {
	switch s {
	case Slot0:
		return "eth0"
	case Slot1:
		return "eth1"
	default:
		return fmt.Sprintf("InterfaceSlot(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s InterfaceSlot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Index returns the numeric slot (0 or 1).
func (s InterfaceSlot) Index() int { return int(s) }

// PhyModel is a recognized PHY transceiver model.
type PhyModel int

const (
	PhyUnknown PhyModel = iota
	DM9161
	LAN8700
	KSZ8051
	KSZ90x1
)

// PhyModels lists the recognized models in precedence order. When a
// configuration selects more than one model for a slot, the first wins.
var PhyModels = []PhyModel{DM9161, LAN8700, KSZ8051, KSZ90x1}

func (m PhyModel) String() string {
	switch m {
	case DM9161:
		return "DM9161"
	case LAN8700:
		return "LAN8700"
	case KSZ8051:
		return "KSZ8051"
	case KSZ90x1:
		return "KSZ90x1"
	default:
		return "unknown"
	}
}

// ParsePhyModel maps a PHY name to its model. Matching is case-insensitive
// and tolerates the Kconfig spelling ("ETH0_PHY_KSZ90x1").
func ParsePhyModel(s string) (PhyModel, bool) {
	name := strings.TrimSpace(s)
	if i := strings.LastIndex(strings.ToUpper(name), "_PHY_"); i >= 0 {
		name = name[i+len("_PHY_"):]
	}
	for _, m := range PhyModels {
		if strings.EqualFold(name, m.String()) {
			return m, true
		}
	}
	return PhyUnknown, false
}

// MarshalText implements encoding.TextMarshaler.
func (m PhyModel) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// PhySelection is the PHY chip declared for a slot, as written by the board
// author. The empty selection means unspecified.
type PhySelection string

// Unspecified reports whether no PHY was declared.
func (p PhySelection) Unspecified() bool {
	return strings.TrimSpace(string(p)) == ""
}

// Model parses the selection.
func (p PhySelection) Model() (PhyModel, bool) {
	if p.Unspecified() {
		return PhyUnknown, false
	}
	return ParsePhyModel(string(p))
}

// Config holds the board's Ethernet configuration facts. It is built once
// at startup and passed by value to whatever resolves or consumes it.
type Config struct {
	// Board is an informational board name (e.g. "sama5d4-ek").
	Board string

	GigabitPresent bool
	LegacyPresent  bool
	GigabitIsSlot0 bool
	LegacyIsSlot0  bool

	// Phy holds the declared PHY chip for each slot, indexed by InterfaceSlot.
	Phy [NumSlots]PhySelection

	// PhyInit declares that the board supplies a PHY bring-up hook.
	PhyInit bool
}

// Present reports whether the controller is enabled.
func (c Config) Present(k ControllerKind) bool {
	if k == Legacy {
		return c.LegacyPresent
	}
	return c.GigabitPresent
}

// IsSlot0 reports the raw slot-0 flag of the controller.
func (c Config) IsSlot0(k ControllerKind) bool {
	if k == Legacy {
		return c.LegacyIsSlot0
	}
	return c.GigabitIsSlot0
}

// Binding ties a present controller to its slot and PHY model.
type Binding struct {
	Controller ControllerKind `json:"controller"`
	Slot       InterfaceSlot  `json:"slot"`
	Phy        PhyModel       `json:"phy"`
}

func (b Binding) String() string {
	return fmt.Sprintf("%s->%s->%s", b.Controller, b.Slot, b.Phy)
}

// Resolution is the validated result of resolving a Config.
type Resolution struct {
	// Bindings has one entry per present controller, Gigabit first.
	Bindings []Binding
	// PhyInit is carried over from the Config.
	PhyInit bool
}

// Lookup returns the binding of a controller, if it is present.
func (r *Resolution) Lookup(k ControllerKind) (Binding, bool) {
	for _, b := range r.Bindings {
		if b.Controller == k {
			return b, true
		}
	}
	return Binding{}, false
}

// ForSlot returns the binding occupying a slot, if any.
func (r *Resolution) ForSlot(s InterfaceSlot) (Binding, bool) {
	for _, b := range r.Bindings {
		if b.Slot == s {
			return b, true
		}
	}
	return Binding{}, false
}
