// Package resolve binds the board's Ethernet controllers to interface slots
// and resolves the PHY model each controller drives.
//
// Resolution is pure: it reads a types.Config and either returns a complete
// types.Resolution or a *Error naming the violated constraint. It never
// returns a partial result.
package resolve

import (
	"errors"
	"fmt"

	"github.com/Nativu5/ethbind/pkg/types"
)

// Kind classifies a resolution failure.
type Kind string

const (
	// ConfigurationConflict means two controllers claim the same slot.
	ConfigurationConflict Kind = "configuration_conflict"
	// UnresolvedPhyModel means a present controller's slot has no
	// recognized PHY selection.
	UnresolvedPhyModel Kind = "unresolved_phy_model"
)

// Sentinels matched by errors.Is against an *Error of the same Kind.
var (
	ErrConfigurationConflict = errors.New("conflicting slot assignment")
	ErrUnresolvedPhyModel    = errors.New("unrecognized PHY for slot")
)

// Error is a resolution failure. Controller and Slot are meaningful for
// UnresolvedPhyModel only.
type Error struct {
	Kind       Kind
	Controller types.ControllerKind
	Slot       types.InterfaceSlot
	Selection  types.PhySelection
	Msg        string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Msg
}

// Is lets errors.Is match the Kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfigurationConflict:
		return e.Kind == ConfigurationConflict
	case ErrUnresolvedPhyModel:
		return e.Kind == UnresolvedPhyModel
	}
	return false
}

// Normalize clears the slot-0 flag of any controller that is not present.
// Such a flag is inert and must never take part in resolution.
func Normalize(cfg types.Config) types.Config {
	if !cfg.GigabitPresent {
		cfg.GigabitIsSlot0 = false
	}
	if !cfg.LegacyPresent {
		cfg.LegacyIsSlot0 = false
	}
	return cfg
}

// AssignSlots returns the slot of every present controller. A controller
// sits in slot 0 when its slot-0 flag is set, otherwise in slot 1.
func AssignSlots(cfg types.Config) (map[types.ControllerKind]types.InterfaceSlot, error) {
	cfg = Normalize(cfg)

	if cfg.GigabitIsSlot0 && cfg.LegacyIsSlot0 {
		return nil, &Error{
			Kind: ConfigurationConflict,
			Slot: types.Slot0,
			Msg:  "GMAC and EMAC cannot both be ETH0",
		}
	}
	if cfg.GigabitPresent && cfg.LegacyPresent && !cfg.GigabitIsSlot0 && !cfg.LegacyIsSlot0 {
		return nil, &Error{
			Kind: ConfigurationConflict,
			Slot: types.Slot1,
			Msg:  "GMAC and EMAC cannot both be ETH1: exactly one must be ETH0",
		}
	}

	slots := make(map[types.ControllerKind]types.InterfaceSlot, len(types.Controllers))
	for _, k := range types.Controllers {
		if !cfg.Present(k) {
			continue
		}
		if cfg.IsSlot0(k) {
			slots[k] = types.Slot0
		} else {
			slots[k] = types.Slot1
		}
	}
	return slots, nil
}

// ResolvePhy returns the PHY model declared for the slot occupied by
// controller k.
func ResolvePhy(cfg types.Config, k types.ControllerKind, slot types.InterfaceSlot) (types.PhyModel, error) {
	if slot < types.Slot0 || int(slot) >= types.NumSlots {
		return types.PhyUnknown, &Error{
			Kind:       UnresolvedPhyModel,
			Controller: k,
			Slot:       slot,
			Msg:        fmt.Sprintf("%s is not an interface slot (%s)", slot, k),
		}
	}
	sel := cfg.Phy[slot]
	m, ok := sel.Model()
	if ok {
		return m, nil
	}
	msg := fmt.Sprintf("ETH%d PHY unrecognized", slot.Index())
	if sel.Unspecified() {
		msg += fmt.Sprintf(": no PHY selected for %s (%s)", slot, k)
	} else {
		msg += fmt.Sprintf(": %q is not a supported PHY for %s (%s)", string(sel), slot, k)
	}
	return types.PhyUnknown, &Error{
		Kind:       UnresolvedPhyModel,
		Controller: k,
		Slot:       slot,
		Selection:  sel,
		Msg:        msg,
	}
}

// Resolve validates cfg and produces the binding for every present
// controller. Slot conflicts are reported before PHY problems; when both
// controllers fail PHY resolution the Gigabit failure is returned.
func Resolve(cfg types.Config) (*types.Resolution, error) {
	slots, err := AssignSlots(cfg)
	if err != nil {
		return nil, err
	}

	res := &types.Resolution{PhyInit: cfg.PhyInit}
	for _, k := range types.Controllers {
		slot, ok := slots[k]
		if !ok {
			continue
		}
		phy, err := ResolvePhy(cfg, k, slot)
		if err != nil {
			return nil, err
		}
		res.Bindings = append(res.Bindings, types.Binding{Controller: k, Slot: slot, Phy: phy})
	}
	return res, nil
}

// Check reports every constraint violation in cfg at once, joined with
// errors.Join. It returns nil exactly when Resolve succeeds.
func Check(cfg types.Config) error {
	slots, err := AssignSlots(cfg)
	if err != nil {
		return err
	}
	var errs []error
	for _, k := range types.Controllers {
		slot, ok := slots[k]
		if !ok {
			continue
		}
		if _, err := ResolvePhy(cfg, k, slot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
