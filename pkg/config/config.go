// Package config loads a board's Ethernet configuration, either from a
// YAML/JSON board file or from a Kconfig ".config", and turns it into the
// facts the resolver consumes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	log "github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"

	"github.com/Nativu5/ethbind/pkg/types"
)

// Controller is the board file section describing one MAC peripheral.
type Controller struct {
	// Enabled marks the controller as populated on the board.
	Enabled bool `json:"enabled"`
	// ETH0 assigns the controller to interface slot 0.
	ETH0 bool `json:"eth0,omitempty"`
	// Link is the host network interface backing the controller, used by
	// "ethbind init" and link checks (e.g. "eth0").
	Link string `json:"link,omitempty"`
	// MTU is applied to Link during bring-up when non-zero.
	MTU int `json:"mtu,omitempty"`
}

// PHY holds the PHY chip declared for each slot.
type PHY struct {
	ETH0 string `json:"eth0,omitempty"`
	ETH1 string `json:"eth1,omitempty"`
}

// PhyInit describes the optional board PHY bring-up hook.
type PhyInit struct {
	Enabled bool `json:"enabled"`
	// Command is run once per interface before its first PHY access.
	Command []string `json:"command,omitempty"`
}

// File is a parsed board configuration.
type File struct {
	Board   string     `json:"board"`
	GMAC    Controller `json:"gmac"`
	EMAC    Controller `json:"emac"`
	PHY     PHY        `json:"phy"`
	PhyInit PhyInit    `json:"phyInit"`

	// Path is the file the configuration was read from.
	Path string `json:"-"`
}

// Controller returns the section for a controller kind.
func (f *File) Controller(k types.ControllerKind) Controller {
	if k == types.Legacy {
		return f.EMAC
	}
	return f.GMAC
}

// Facts converts the file into resolver input.
func (f *File) Facts() types.Config {
	return types.Config{
		Board:          f.Board,
		GigabitPresent: f.GMAC.Enabled,
		LegacyPresent:  f.EMAC.Enabled,
		GigabitIsSlot0: f.GMAC.ETH0,
		LegacyIsSlot0:  f.EMAC.ETH0,
		Phy: [types.NumSlots]types.PhySelection{
			types.PhySelection(f.PHY.ETH0),
			types.PhySelection(f.PHY.ETH1),
		},
		PhyInit: f.PhyInit.Enabled,
	}
}

// Load reads a board configuration. Files ending in .yaml, .yml or .json
// are decoded strictly as board files; anything else is parsed as Kconfig.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read board configuration %s: %w", path, err)
	}

	var f *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		log.Debugf("parsing %s as board file", path)
		f, err = Parse(data)
	default:
		log.Debugf("parsing %s as Kconfig", path)
		f, err = ParseKconfig(data)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid board configuration %s: %w", path, err)
	}
	f.Path = path
	if f.Board == "" {
		f.Board = defaultBoardName(path)
	}
	log.Infof("loaded board configuration %q from %s", f.Board, path)
	return f, nil
}

// Parse decodes a YAML or JSON board file. Unknown keys are rejected so that
// a misspelled flag cannot silently drop out of the resolution.
func Parse(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.UnmarshalStrict(data, f); err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// validate rejects values that are malformed, as opposed to inconsistent.
// Inconsistencies are the resolver's job.
func (f *File) validate() error {
	if err := checkBoardName(f.Board); err != nil {
		return err
	}
	for _, k := range types.Controllers {
		c := f.Controller(k)
		if c.MTU < 0 {
			return fmt.Errorf("%s: mtu must not be negative, got %d", k, c.MTU)
		}
	}
	if f.PhyInit.Enabled && len(f.PhyInit.Command) > 0 && strings.TrimSpace(f.PhyInit.Command[0]) == "" {
		return fmt.Errorf("phyInit: command must start with a program path")
	}
	return nil
}

// checkBoardName rejects control characters; the name ends up in file names
// and generated headers.
func checkBoardName(name string) error {
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("board: name %q contains control characters", name)
		}
	}
	return nil
}

func defaultBoardName(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == ".config" || base == "." {
		return "board"
	}
	return base
}
