// Package report provides output formatting for resolved bindings.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/Nativu5/ethbind/pkg/bringup"
	"github.com/Nativu5/ethbind/pkg/types"
)

// PrintTable renders the bindings of a resolution as a human-readable table.
func PrintTable(w io.Writer, board string, res *types.Resolution) {
	table := tablewriter.NewTable(w)
	table.Header("BOARD", "CONTROLLER", "INTERFACE", "PHY", "PHY HOOK")
	hook := "(none)"
	if res.PhyInit {
		hook = fmt.Sprintf("intf %d", bringup.HookIntf)
	}
	if len(res.Bindings) == 0 {
		table.Append(board, "(none)", "(none)", "(none)", hook)
	}
	for _, b := range res.Bindings {
		table.Append(board, b.Controller.String(), b.Slot.String(), b.Phy.String(), hook)
	}
	table.Render()
}

// BindingJSON is the JSON representation of a resolved binding.
type BindingJSON struct {
	Controller string `json:"controller"`
	Interface  string `json:"interface"`
	Slot       int    `json:"slot"`
	Phy        string `json:"phy"`
}

// ResolutionJSON is the JSON representation of a resolution.
type ResolutionJSON struct {
	Board    string        `json:"board"`
	PhyInit  bool          `json:"phy_init"`
	Bindings []BindingJSON `json:"bindings"`
}

// ToJSON converts a resolution into its JSON representation.
func ToJSON(board string, res *types.Resolution) ResolutionJSON {
	out := ResolutionJSON{
		Board:    board,
		PhyInit:  res.PhyInit,
		Bindings: make([]BindingJSON, 0, len(res.Bindings)),
	}
	for _, b := range res.Bindings {
		out.Bindings = append(out.Bindings, BindingJSON{
			Controller: b.Controller.String(),
			Interface:  b.Slot.String(),
			Slot:       b.Slot.Index(),
			Phy:        b.Phy.String(),
		})
	}
	return out
}

// PrintJSON renders a resolution as JSON.
func PrintJSON(w io.Writer, board string, res *types.Resolution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ToJSON(board, res))
}

// Summary returns a one-line description such as
// "GMAC=eth0/KSZ90x1 EMAC=eth1/DM9161".
func Summary(res *types.Resolution) string {
	if len(res.Bindings) == 0 {
		return "no controllers enabled"
	}
	parts := make([]string, 0, len(res.Bindings)+1)
	for _, b := range res.Bindings {
		parts = append(parts, fmt.Sprintf("%s=%s/%s", b.Controller, b.Slot, b.Phy))
	}
	if res.PhyInit {
		parts = append(parts, "phyinit")
	}
	return strings.Join(parts, " ")
}
