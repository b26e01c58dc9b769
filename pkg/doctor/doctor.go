// Package doctor provides board configuration diagnostics.
// It checks controller presence, slot assignment, PHY selection per slot,
// the board PHY hook and, optionally, the state of host links.
package doctor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/Nativu5/ethbind/pkg/config"
	"github.com/Nativu5/ethbind/pkg/netdev"
	"github.com/Nativu5/ethbind/pkg/resolve"
	"github.com/Nativu5/ethbind/pkg/types"
)

// Severity levels for diagnostic checks.
type Severity string

const (
	Pass Severity = "PASS"
	Warn Severity = "WARN"
	Fail Severity = "FAIL"
)

// CheckResult represents one diagnostic check outcome.
type CheckResult struct {
	Check    string   `json:"check"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Board    string   `json:"board,omitempty"`
	Target   string   `json:"target,omitempty"`
}

// Report holds all diagnostic results for one or more boards.
type Report struct {
	Results []CheckResult `json:"results"`
	HasWarn bool          `json:"-"`
	HasFail bool          `json:"-"`
}

// add appends a result and updates summary flags.
func (r *Report) add(cr CheckResult) {
	r.Results = append(r.Results, cr)
	switch cr.Severity {
	case Warn:
		r.HasWarn = true
	case Fail:
		r.HasFail = true
	}
}

// filtered returns results, optionally excluding PASS entries.
func (r *Report) filtered(showPass bool) []CheckResult {
	if showPass {
		return r.Results
	}
	var out []CheckResult
	for _, cr := range r.Results {
		if cr.Severity != Pass {
			out = append(out, cr)
		}
	}
	return out
}

// ExitNonZero reports whether the report should fail the command: always
// on FAIL, and on WARN when strict is set.
func (r *Report) ExitNonZero(strict bool) bool {
	return r.HasFail || (strict && r.HasWarn)
}

// Options tune DiagnoseBoard.
type Options struct {
	// ProbeLinks queries host links named in the board file.
	ProbeLinks bool
	// Netlink is used for link probes; nil selects netdev.Host.
	Netlink netdev.Netlinker
}

// DiagnoseBoard runs all checks on a board configuration.
func DiagnoseBoard(f *config.File, opts Options) *Report {
	report := &Report{}
	cfg := f.Facts()
	at := func(cr CheckResult) CheckResult {
		cr.Board = f.Board
		return cr
	}

	// 1. Controller presence
	if !cfg.GigabitPresent && !cfg.LegacyPresent {
		report.add(at(CheckResult{
			Check:    "controllers_present",
			Severity: Warn,
			Message:  "Neither GMAC nor EMAC is enabled; no network interface will be initialized",
		}))
	} else {
		var present []string
		for _, k := range types.Controllers {
			if cfg.Present(k) {
				present = append(present, k.String())
			}
		}
		report.add(at(CheckResult{
			Check:    "controllers_present",
			Severity: Pass,
			Message:  fmt.Sprintf("Enabled controllers: %v", present),
		}))
	}

	// 2. Slot-0 flags on absent controllers are ignored
	for _, k := range types.Controllers {
		if cfg.IsSlot0(k) && !cfg.Present(k) {
			report.add(at(CheckResult{
				Check:    "inert_slot0_flag",
				Severity: Warn,
				Message:  fmt.Sprintf("%s is marked ETH0 but not enabled; the flag is ignored", k),
				Target:   k.String(),
			}))
		}
	}

	// 3. Slot assignment
	slots, err := resolve.AssignSlots(cfg)
	if err != nil {
		report.add(at(CheckResult{
			Check:    "slot_assignment",
			Severity: Fail,
			Message:  describe(err),
		}))
		// PHY checks depend on a valid slot assignment.
		checkPhyHook(report, f, at)
		return report
	}
	for _, k := range types.Controllers {
		if slot, ok := slots[k]; ok {
			report.add(at(CheckResult{
				Check:    "slot_assignment",
				Severity: Pass,
				Message:  fmt.Sprintf("%s is %s", k, slot),
				Target:   k.String(),
			}))
		}
	}

	// 4. PHY per present controller
	occupied := make(map[types.InterfaceSlot]bool)
	for _, k := range types.Controllers {
		slot, ok := slots[k]
		if !ok {
			continue
		}
		occupied[slot] = true
		check := "phy_" + strings.ToLower(k.String())
		phy, err := resolve.ResolvePhy(cfg, k, slot)
		if err != nil {
			report.add(at(CheckResult{
				Check:    check,
				Severity: Fail,
				Message:  describe(err),
				Target:   k.String(),
			}))
			continue
		}
		report.add(at(CheckResult{
			Check:    check,
			Severity: Pass,
			Message:  fmt.Sprintf("%s on %s drives a %s PHY", k, slot, phy),
			Target:   k.String(),
		}))
	}

	// 5. PHY selections nobody uses
	for _, slot := range []types.InterfaceSlot{types.Slot0, types.Slot1} {
		if sel := cfg.Phy[slot]; !sel.Unspecified() && !occupied[slot] {
			report.add(at(CheckResult{
				Check:    "unused_phy_selection",
				Severity: Warn,
				Message:  fmt.Sprintf("PHY %q is selected for %s but no enabled controller occupies it", string(sel), slot),
				Target:   slot.String(),
			}))
		}
	}

	// 6. Board PHY hook
	checkPhyHook(report, f, at)

	// 7. Host links
	if opts.ProbeLinks {
		for _, k := range types.Controllers {
			if _, ok := slots[k]; ok {
				checkLink(report, f.Controller(k), k, opts.Netlink, at)
			}
		}
	}

	return report
}

// checkPhyHook verifies that an enabled hook has something to run.
func checkPhyHook(report *Report, f *config.File, at func(CheckResult) CheckResult) {
	switch {
	case !f.PhyInit.Enabled:
		report.add(at(CheckResult{
			Check:    "phy_hook",
			Severity: Pass,
			Message:  "Board PHY hook disabled",
		}))
	case len(f.PhyInit.Command) == 0:
		report.add(at(CheckResult{
			Check:    "phy_hook",
			Severity: Warn,
			Message:  "Board PHY hook enabled but no command configured; the board must supply it at bring-up",
		}))
	default:
		report.add(at(CheckResult{
			Check:    "phy_hook",
			Severity: Pass,
			Message:  fmt.Sprintf("Board PHY hook runs %q", f.PhyInit.Command[0]),
		}))
	}
}

// checkLink uses netlink to inspect the host interface of a controller.
func checkLink(report *Report, c config.Controller, k types.ControllerKind, nl netdev.Netlinker, at func(CheckResult) CheckResult) {
	if c.Link == "" {
		report.add(at(CheckResult{
			Check:    "link_state",
			Severity: Warn,
			Message:  fmt.Sprintf("No host link configured for %s", k),
			Target:   k.String(),
		}))
		return
	}
	info, err := netdev.LinkStatus(c.Link, nl)
	if err != nil {
		report.add(at(CheckResult{
			Check:    "link_state",
			Severity: Warn,
			Message:  fmt.Sprintf("Cannot query link %s: %v", c.Link, err),
			Target:   k.String(),
		}))
		return
	}
	sev := Warn
	if info.Up {
		sev = Pass
	}
	report.add(at(CheckResult{
		Check:    "link_state",
		Severity: sev,
		Message:  fmt.Sprintf("Link %s is %s (encap: %s, MTU: %d)", info.Name, info.OperState, info.EncapType, info.MTU),
		Target:   k.String(),
	}))
}

// describe returns the resolver's diagnostic without the kind prefix.
func describe(err error) string {
	var rerr *resolve.Error
	if errors.As(err, &rerr) {
		return rerr.Msg
	}
	return err.Error()
}

// PrintTable renders the diagnostic report as a table.
// When showPass is false, only WARN/FAIL results are shown.
func PrintTable(w io.Writer, report *Report, showPass bool) {
	results := report.filtered(showPass)
	if len(results) == 0 {
		fmt.Fprintln(w, "All checks passed.")
		return
	}
	table := tablewriter.NewTable(w)
	table.Header("STATUS", "CHECK", "BOARD", "TARGET", "MESSAGE")
	for _, r := range results {
		marker := "✓"
		switch r.Severity {
		case Warn:
			marker = "!"
		case Fail:
			marker = "✗"
		}
		target := r.Target
		if target == "" {
			target = "(board)"
		}
		status := fmt.Sprintf("%s %s", marker, r.Severity)
		table.Append(status, r.Check, r.Board, target, r.Message)
	}
	table.Render()
}

// PrintJSON renders the diagnostic report as JSON.
// When showPass is false, only WARN/FAIL results are included.
func PrintJSON(w io.Writer, report *Report, showPass bool) error {
	results := report.filtered(showPass)
	if results == nil {
		results = []CheckResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// MergeReports combines multiple per-board reports into one.
func MergeReports(reports ...*Report) *Report {
	merged := &Report{}
	for _, r := range reports {
		for _, cr := range r.Results {
			merged.add(cr)
		}
	}
	return merged
}
