// Package netdev adapts host Linux network interfaces to the bring-up entry
// points. It is what "ethbind init" uses when the board runs Linux and each
// MAC peripheral already has a kernel network interface.
package netdev

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"

	"github.com/Nativu5/ethbind/pkg/bringup"
	"github.com/Nativu5/ethbind/pkg/types"
)

// Netlinker is the subset of netlink used here, abstracted for testability.
type Netlinker interface {
	LinkByName(name string) (netlink.Link, error)
	LinkSetMTU(link netlink.Link, mtu int) error
	LinkSetUp(link netlink.Link) error
}

type hostNetlink struct{}

func (hostNetlink) LinkByName(name string) (netlink.Link, error) { return netlink.LinkByName(name) }
func (hostNetlink) LinkSetMTU(l netlink.Link, mtu int) error { return netlink.LinkSetMTU(l, mtu) }
func (hostNetlink) LinkSetUp(l netlink.Link) error { return netlink.LinkSetUp(l) }

// Host talks to the kernel through the real netlink socket.
var Host Netlinker = hostNetlink{}

// Driver brings up the host interface backing one MAC controller.
type Driver struct {
	// IfName is the kernel interface name (e.g. "eth0").
	IfName string
	// MTU is applied before the link is set up when non-zero.
	MTU int

	nl Netlinker
}

// NewDriver returns a Driver for ifName. A nil nl selects Host.
func NewDriver(ifName string, mtu int, nl Netlinker) *Driver {
	if nl == nil {
		nl = Host
	}
	return &Driver{IfName: ifName, MTU: mtu, nl: nl}
}

// Initialize implements bringup.MACDriver. Errors wrap the netlink error so
// that its errno survives into the bring-up result.
func (d *Driver) Initialize(b types.Binding) error {
	if d.IfName == "" {
		return fmt.Errorf("no host interface configured for %s", b.Controller)
	}
	link, err := d.nl.LinkByName(d.IfName)
	if err != nil {
		return fmt.Errorf("cannot find link %s for %s: %w", d.IfName, b.Controller, err)
	}
	attrs := link.Attrs()
	if attrs.EncapType != "" && attrs.EncapType != "ether" {
		return fmt.Errorf("link %s is %s, not an Ethernet interface", d.IfName, attrs.EncapType)
	}
	if d.MTU > 0 && attrs.MTU != d.MTU {
		log.Debugf("setting MTU of %s from %d to %d", d.IfName, attrs.MTU, d.MTU)
		if err := d.nl.LinkSetMTU(link, d.MTU); err != nil {
			return fmt.Errorf("cannot set MTU %d on %s: %w", d.MTU, d.IfName, err)
		}
	}
	if err := d.nl.LinkSetUp(link); err != nil {
		return fmt.Errorf("cannot set link %s up: %w", d.IfName, err)
	}
	log.Infof("%s (%s, PHY %s) is up on %s", b.Controller, b.Slot, b.Phy, d.IfName)
	return nil
}

var _ bringup.MACDriver = (*Driver)(nil)

// LinkInfo is the state of a host link as seen by netlink.
type LinkInfo struct {
	Name      string
	OperState string
	Up        bool
	EncapType string
	MTU       int
}

// LinkStatus queries a host link. A nil nl selects Host.
func LinkStatus(ifName string, nl Netlinker) (LinkInfo, error) {
	if nl == nil {
		nl = Host
	}
	link, err := nl.LinkByName(ifName)
	if err != nil {
		return LinkInfo{}, err
	}
	attrs := link.Attrs()
	return LinkInfo{
		Name:      ifName,
		OperState: attrs.OperState.String(),
		Up:        attrs.OperState == netlink.OperUp,
		EncapType: attrs.EncapType,
		MTU:       attrs.MTU,
	}, nil
}

// CommandHook returns a board PHY hook that runs argv once per call with
// ETHBIND_INTF set to the interface number. Its output goes to the log.
func CommandHook(argv []string) bringup.PhyHook {
	return func(intf int) error {
		if len(argv) == 0 {
			return fmt.Errorf("no PHY init command configured")
		}
		cmd := exec.Command(argv[0], argv[1:]...)
		cmd.Env = append(os.Environ(), "ETHBIND_INTF="+strconv.Itoa(intf))
		out, err := cmd.CombinedOutput()
		if len(out) > 0 {
			log.Debugf("PHY init command output: %s", out)
		}
		if err != nil {
			return fmt.Errorf("PHY init command %q failed: %w", argv[0], err)
		}
		return nil
	}
}
