// Package bringup provides the entry points a board bring-up sequence calls
// to initialize the resolved Ethernet controllers.
//
// A Sequencer is parameterized by a types.Resolution; drivers receive the
// resolved binding and never re-derive slot or PHY model. When the board
// declares a PHY bring-up hook, it runs once per interface before the MAC
// driver is allowed to touch the PHY, and its failure stops that driver.
package bringup

import (
	"errors"
	"fmt"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/Nativu5/ethbind/pkg/types"
)

// HookIntf is the interface number passed to the board PHY hook. Only one
// board-level hook exists, so it is always zero regardless of controller.
const HookIntf = 0

// MACDriver initializes one MAC peripheral. Initialize is called at most
// once, before any frame I/O on the interface.
type MACDriver interface {
	Initialize(b types.Binding) error
}

// MACDriverFunc adapts a function to MACDriver.
type MACDriverFunc func(b types.Binding) error

// Initialize calls f(b).
func (f MACDriverFunc) Initialize(b types.Binding) error { return f(b) }

// PhyHook performs board-specific PHY bring-up (GPIO reset, power
// sequencing) for an interface.
type PhyHook func(intf int) error

// Drivers maps each present controller to its driver.
type Drivers map[types.ControllerKind]MACDriver

// Stage names the step of bring-up that failed.
type Stage string

const (
	StagePhyHook Stage = "phy_hook"
	StageMAC     Stage = "mac"
)

var (
	// ErrNotPresent is returned when initializing a controller the
	// configuration does not enable.
	ErrNotPresent = errors.New("controller not present in configuration")
	// ErrAlreadyInitialized is returned on a second initialization attempt.
	ErrAlreadyInitialized = errors.New("controller already initialized")
	// ErrInitialization matches every *InitError.
	ErrInitialization = errors.New("initialization failed")
)

// InitError is a runtime initialization failure of a controller.
type InitError struct {
	Controller types.ControllerKind
	Stage      Stage
	Errno      syscall.Errno
	Err        error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s %s initialization failed (%d): %v", e.Controller, e.Stage, e.Code(), e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Is matches ErrInitialization.
func (e *InitError) Is(target error) bool { return target == ErrInitialization }

// Code returns the negated errno of the failure.
func (e *InitError) Code() int { return -int(e.Errno) }

func newInitError(k types.ControllerKind, stage Stage, err error) *InitError {
	errno := syscall.EIO
	var en syscall.Errno
	if errors.As(err, &en) && en != 0 {
		errno = en
	}
	return &InitError{Controller: k, Stage: stage, Errno: errno, Err: err}
}

// Sequencer runs controller initialization for a resolved board.
type Sequencer struct {
	res     *types.Resolution
	drivers Drivers
	hook    PhyHook

	mu      sync.Mutex
	started map[types.ControllerKind]bool
}

// New returns a Sequencer for res. Every present controller needs a driver,
// and a hook must be supplied when res declares PhyInit.
func New(res *types.Resolution, drivers Drivers, hook PhyHook) (*Sequencer, error) {
	if res == nil {
		return nil, errors.New("nil resolution")
	}
	for _, b := range res.Bindings {
		if drivers[b.Controller] == nil {
			return nil, fmt.Errorf("no driver for present controller %s", b.Controller)
		}
	}
	if res.PhyInit && hook == nil {
		return nil, errors.New("configuration enables the board PHY hook but none was supplied")
	}
	return &Sequencer{
		res:     res,
		drivers: drivers,
		hook:    hook,
		started: make(map[types.ControllerKind]bool),
	}, nil
}

// InitializeGigabit initializes the GMAC.
func (s *Sequencer) InitializeGigabit() error {
	return s.initialize(types.Gigabit)
}

// InitializeLegacy initializes the EMAC.
func (s *Sequencer) InitializeLegacy() error {
	return s.initialize(types.Legacy)
}

// InitializeAll initializes every present controller in slot order. The
// controllers are independent: a failure of one does not stop the other.
// Failures are returned joined; nothing is retried.
func (s *Sequencer) InitializeAll() error {
	var errs []error
	for _, slot := range []types.InterfaceSlot{types.Slot0, types.Slot1} {
		b, ok := s.res.ForSlot(slot)
		if !ok {
			continue
		}
		if err := s.initialize(b.Controller); err != nil {
			log.Errorf("bring-up of %s failed: %v", b, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Sequencer) initialize(k types.ControllerKind) error {
	b, ok := s.res.Lookup(k)
	if !ok {
		return fmt.Errorf("%s: %w", k, ErrNotPresent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The hook and the driver each run at most once per controller, even
	// when the first attempt failed.
	if s.started[k] {
		return fmt.Errorf("%s: %w", k, ErrAlreadyInitialized)
	}
	s.started[k] = true

	if s.res.PhyInit {
		log.Debugf("running board PHY hook for %s (intf %d)", k, HookIntf)
		if err := s.hook(HookIntf); err != nil {
			return newInitError(k, StagePhyHook, err)
		}
	}

	log.Infof("initializing %s on %s (PHY %s)", k, b.Slot, b.Phy)
	if err := s.drivers[k].Initialize(b); err != nil {
		return newInitError(k, StageMAC, err)
	}
	log.Debugf("%s initialized", k)
	return nil
}
