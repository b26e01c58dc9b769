package config

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/Nativu5/ethbind/pkg/types"
)

// Kconfig symbols read by ParseKconfig.
const (
	symGMAC      = "CONFIG_SAMA5_GMAC"
	symEMAC      = "CONFIG_SAMA5_EMAC"
	symGMACETH0  = "CONFIG_SAMA5_GMAC_ISETH0"
	symEMACETH0  = "CONFIG_SAMA5_EMAC_ISETH0"
	symPhyInit   = "CONFIG_SAMA5_PHYINIT"
	symBoardName = "CONFIG_ARCH_BOARD"
)

// phySymbol returns the Kconfig symbol selecting model m for a slot,
// e.g. CONFIG_ETH1_PHY_KSZ90x1.
func phySymbol(slot types.InterfaceSlot, m types.PhyModel) string {
	return fmt.Sprintf("CONFIG_ETH%d_PHY_%s", slot.Index(), m)
}

// ParseKconfig reads the Ethernet symbols out of a Kconfig .config. Symbols
// set to "y" are enabled; "n", "# CONFIG_X is not set" and absent symbols are
// disabled. When several PHY symbols are enabled for one slot, the first in
// types.PhyModels order wins.
func ParseKconfig(data []byte) (*File, error) {
	syms := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if name, ok := strings.CutSuffix(strings.TrimSpace(strings.TrimPrefix(line, "#")), " is not set"); ok {
				syms[name] = "n"
			}
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok || !strings.HasPrefix(name, "CONFIG_") {
			return nil, fmt.Errorf("line %d: malformed Kconfig entry %q", lineNo, line)
		}
		syms[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	enabled := func(sym string) bool { return syms[sym] == "y" }

	f := &File{
		GMAC:    Controller{Enabled: enabled(symGMAC), ETH0: enabled(symGMACETH0)},
		EMAC:    Controller{Enabled: enabled(symEMAC), ETH0: enabled(symEMACETH0)},
		PhyInit: PhyInit{Enabled: enabled(symPhyInit)},
	}
	if v, ok := syms[symBoardName]; ok {
		if s, err := strconv.Unquote(v); err == nil {
			f.Board = s
		} else {
			f.Board = v
		}
		if err := checkBoardName(f.Board); err != nil {
			return nil, err
		}
	}

	for _, slot := range []types.InterfaceSlot{types.Slot0, types.Slot1} {
		var sel string
		for _, m := range types.PhyModels {
			if enabled(phySymbol(slot, m)) {
				sel = m.String()
				break
			}
		}
		if slot == types.Slot0 {
			f.PHY.ETH0 = sel
		} else {
			f.PHY.ETH1 = sel
		}
	}
	return f, nil
}
