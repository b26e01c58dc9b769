package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Nativu5/ethbind/pkg/resolve"
	"github.com/Nativu5/ethbind/pkg/types"
)

const sampleBoardFile = `
board: sama5d4-ek
gmac:
  enabled: true
  eth0: true
  link: eth0
  mtu: 1500
emac:
  enabled: true
  link: eth1
phy:
  eth0: KSZ90x1
  eth1: DM9161
phyInit:
  enabled: true
  command: ["/usr/local/bin/phy-reset", "--board", "sama5d4-ek"]
`

const sampleKconfig = `
#
# Automatically generated file; DO NOT EDIT.
#
CONFIG_ARCH_BOARD="sama5d3-xplained"
CONFIG_SAMA5_GMAC=y
CONFIG_SAMA5_EMAC=y
# CONFIG_SAMA5_GMAC_ISETH0 is not set
CONFIG_SAMA5_EMAC_ISETH0=y
CONFIG_ETH0_PHY_KSZ8051=y
CONFIG_ETH1_PHY_KSZ90x1=y
CONFIG_SAMA5_PHYINIT=n
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ──────────────────────────────────────────────
//  Board file
// ──────────────────────────────────────────────

func TestLoad_BoardFile(t *testing.T) {
	f, err := Load(writeFile(t, "board.yaml", sampleBoardFile))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.Board != "sama5d4-ek" {
		t.Errorf("Board = %q", f.Board)
	}
	if f.GMAC.Link != "eth0" || f.GMAC.MTU != 1500 {
		t.Errorf("GMAC = %+v", f.GMAC)
	}
	if len(f.PhyInit.Command) != 3 {
		t.Errorf("PhyInit.Command = %v", f.PhyInit.Command)
	}

	want := types.Config{
		Board:          "sama5d4-ek",
		GigabitPresent: true,
		LegacyPresent:  true,
		GigabitIsSlot0: true,
		Phy:            [types.NumSlots]types.PhySelection{"KSZ90x1", "DM9161"},
		PhyInit:        true,
	}
	if got := f.Facts(); got != want {
		t.Errorf("Facts() = %+v, want %+v", got, want)
	}
}

func TestLoad_JSONBoardFile(t *testing.T) {
	content := `{"board":"b","gmac":{"enabled":true,"eth0":true},"phy":{"eth0":"LAN8700"}}`
	f, err := Load(writeFile(t, "board.json", content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !f.GMAC.Enabled || f.PHY.ETH0 != "LAN8700" {
		t.Errorf("unexpected file %+v", f)
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	content := "gmac:\n  enabled: true\n  iseth0: true\n"
	if _, err := Load(writeFile(t, "typo.yaml", content)); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestLoad_NegativeMTU(t *testing.T) {
	content := "gmac:\n  enabled: true\n  mtu: -1\n"
	_, err := Load(writeFile(t, "mtu.yaml", content))
	if err == nil || !strings.Contains(err.Error(), "mtu") {
		t.Errorf("expected mtu error, got %v", err)
	}
}

func TestLoad_BoardNameControlCharacters(t *testing.T) {
	content := "board: \"evil\\nnext\"\ngmac:\n  enabled: true\n"
	_, err := Load(writeFile(t, "ctl.yaml", content))
	if err == nil || !strings.Contains(err.Error(), "control characters") {
		t.Errorf("expected control character error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_DefaultBoardName(t *testing.T) {
	f, err := Load(writeFile(t, "my-board.yaml", "gmac:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.Board != "my-board" {
		t.Errorf("Board = %q, want my-board", f.Board)
	}
}

// An unrecognized PHY loads fine; resolution is what rejects it.
func TestLoad_UnrecognizedPhyDeferredToResolve(t *testing.T) {
	content := "gmac:\n  enabled: true\n  eth0: true\nphy:\n  eth0: RTL8211\n"
	f, err := Load(writeFile(t, "b.yaml", content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := resolve.Resolve(f.Facts()); !errors.Is(err, resolve.ErrUnresolvedPhyModel) {
		t.Errorf("expected UnresolvedPhyModel, got %v", err)
	}
}

// ──────────────────────────────────────────────
//  Kconfig
// ──────────────────────────────────────────────

func TestLoad_Kconfig(t *testing.T) {
	f, err := Load(writeFile(t, ".config", sampleKconfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := types.Config{
		Board:          "sama5d3-xplained",
		GigabitPresent: true,
		LegacyPresent:  true,
		LegacyIsSlot0:  true,
		Phy:            [types.NumSlots]types.PhySelection{"KSZ8051", "KSZ90x1"},
	}
	if got := f.Facts(); got != want {
		t.Errorf("Facts() = %+v, want %+v", got, want)
	}
}

func TestParseKconfig_Cases(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		check   func(t *testing.T, f *File)
		wantErr bool
	}{
		{
			name: "phy_precedence",
			in:   "CONFIG_SAMA5_GMAC=y\nCONFIG_ETH1_PHY_KSZ90x1=y\nCONFIG_ETH1_PHY_LAN8700=y\n",
			check: func(t *testing.T, f *File) {
				if f.PHY.ETH1 != "LAN8700" {
					t.Errorf("ETH1 = %q, want LAN8700", f.PHY.ETH1)
				}
			},
		},
		{
			name: "no_phy",
			in:   "CONFIG_SAMA5_EMAC=y\n",
			check: func(t *testing.T, f *File) {
				if f.PHY.ETH0 != "" || f.PHY.ETH1 != "" {
					t.Errorf("PHY = %+v, want empty", f.PHY)
				}
			},
		},
		{
			name: "phyinit_enabled",
			in:   "CONFIG_SAMA5_PHYINIT=y\n",
			check: func(t *testing.T, f *File) {
				if !f.PhyInit.Enabled {
					t.Error("PhyInit should be enabled")
				}
			},
		},
		{
			name: "not_set_overrides",
			in:   "CONFIG_SAMA5_GMAC=y\n# CONFIG_SAMA5_GMAC is not set\n",
			check: func(t *testing.T, f *File) {
				if f.GMAC.Enabled {
					t.Error("GMAC should be disabled by the later entry")
				}
			},
		},
		{
			name: "module_value_is_not_enabled",
			in:   "CONFIG_SAMA5_GMAC=m\n",
			check: func(t *testing.T, f *File) {
				if f.GMAC.Enabled {
					t.Error("only =y enables a symbol")
				}
			},
		},
		{
			name:    "board_name_with_newline",
			in:      "CONFIG_ARCH_BOARD=\"a\\nb\"\n",
			wantErr: true,
		},
		{
			name:    "malformed_line",
			in:      "CONFIG_SAMA5_GMAC\n",
			wantErr: true,
		},
		{
			name:    "not_a_config_symbol",
			in:      "FOO=y\n",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseKconfig([]byte(tc.in))
			if tc.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tc.check(t, f)
		})
	}
}

func TestPhySymbol(t *testing.T) {
	if got := phySymbol(types.Slot1, types.KSZ90x1); got != "CONFIG_ETH1_PHY_KSZ90x1" {
		t.Errorf("phySymbol = %q", got)
	}
}
