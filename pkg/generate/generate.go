// Package generate writes a resolved binding out as a build artifact: a C
// header of compile-time constants for the MAC drivers, or a YAML/JSON
// manifest for other tooling.
package generate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	log "github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"

	"github.com/Nativu5/ethbind/pkg/report"
	"github.com/Nativu5/ethbind/pkg/types"
	"github.com/Nativu5/ethbind/pkg/utils"
)

const (
	// FilePrefix is prepended to all files written by this tool
	// to enable safe cleanup without affecting other files.
	FilePrefix = "ethbind"

	// DefaultOutputDir is used when no --output-dir is provided.
	DefaultOutputDir = "."

	// DefaultMacroPrefix prefixes the generated header macros.
	DefaultMacroPrefix = "SAMA5"
)

// Formats lists the supported artifact formats.
var Formats = []string{"header", "yaml", "json"}

func extension(format string) (string, error) {
	switch strings.ToLower(format) {
	case "header", "h":
		return "h", nil
	case "yaml":
		return "yaml", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported format %q: use header, yaml or json", format)
	}
}

// FileName returns the deterministic file name for a board and format.
// Format: ethbind_<board>.<ext>
func FileName(board, format string) (string, error) {
	ext, err := extension(format)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s.%s", FilePrefix, utils.SanitizeName(board), ext), nil
}

// Write renders res in the given format and writes it to outputDir. It
// returns the path written. macroPrefix only affects headers.
func Write(res *types.Resolution, board, outputDir, format, macroPrefix string) (string, error) {
	log.Infof("writing %s binding artifact for board %q", format, board)

	if err := validate(res); err != nil {
		return "", fmt.Errorf("resolution is invalid: %w", err)
	}

	fileName, err := FileName(board, format)
	if err != nil {
		return "", err
	}
	data, err := Render(res, board, format, macroPrefix)
	if err != nil {
		return "", fmt.Errorf("cannot render %s artifact: %w", format, err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("cannot create output directory %s: %w", outputDir, err)
	}
	filePath := filepath.Join(outputDir, fileName)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("cannot write %s: %w", filePath, err)
	}

	log.Infof("binding artifact written to %s", filePath)
	return filePath, nil
}

// Render serializes res without touching the file system.
func Render(res *types.Resolution, board, format, macroPrefix string) ([]byte, error) {
	ext, err := extension(format)
	if err != nil {
		return nil, err
	}
	switch ext {
	case "h":
		return renderHeader(res, board, macroPrefix)
	case "json":
		return json.MarshalIndent(report.ToJSON(board, res), "", "  ")
	default:
		jsonData, err := json.Marshal(report.ToJSON(board, res))
		if err != nil {
			return nil, err
		}
		return yaml.JSONToYAML(jsonData)
	}
}

// validate re-checks the invariants downstream drivers rely on.
func validate(res *types.Resolution) error {
	if res == nil {
		return fmt.Errorf("nil resolution")
	}
	seenSlot := make(map[types.InterfaceSlot]types.ControllerKind)
	seenCtl := make(map[types.ControllerKind]bool)
	for _, b := range res.Bindings {
		if other, ok := seenSlot[b.Slot]; ok {
			return fmt.Errorf("%s and %s both bound to %s", other, b.Controller, b.Slot)
		}
		if seenCtl[b.Controller] {
			return fmt.Errorf("%s bound twice", b.Controller)
		}
		if b.Phy == types.PhyUnknown {
			return fmt.Errorf("%s has no PHY model", b.Controller)
		}
		seenSlot[b.Slot] = b.Controller
		seenCtl[b.Controller] = true
	}
	return nil
}

var headerTmpl = template.Must(template.New("header").Parse(`/* Generated by ethbind for board {{.Board}}. Do not edit. */

#ifndef {{.Guard}}
#define {{.Guard}}

/* Interface numbers for the board PHY hook */

#define GMAC_INTF {{.GMACIntf}}
#define EMAC_INTF {{.EMACIntf}}
{{range .Controllers}}
/* {{.Name}}: {{.Slot}}, PHY {{.Phy}} */

#define {{$.Prefix}}_{{.Name}} 1
{{- if .IsETH0}}
#define {{$.Prefix}}_{{.Name}}_ISETH0 1
{{- end}}
#define {{$.Prefix}}_{{.Name}}_PHY_{{.Phy}} 1
{{end}}
{{- if .PhyInit}}
#define {{.Prefix}}_PHYINIT 1
{{end}}
#endif /* {{.Guard}} */
`))

type headerController struct {
	Name   string
	Slot   string
	Phy    string
	IsETH0 bool
}

type headerData struct {
	Board       string
	Guard       string
	Prefix      string
	GMACIntf    int
	EMACIntf    int
	Controllers []headerController
	PhyInit     bool
}

func renderHeader(res *types.Resolution, board, macroPrefix string) ([]byte, error) {
	if macroPrefix == "" {
		macroPrefix = DefaultMacroPrefix
	}
	d := headerData{
		Board:    commentText(board),
		Guard:    "__ETHBIND_" + macroName(board) + "_H",
		Prefix:   macroName(macroPrefix),
		GMACIntf: types.GMACIntf,
		EMACIntf: types.EMACIntf,
		PhyInit:  res.PhyInit,
	}
	for _, b := range res.Bindings {
		d.Controllers = append(d.Controllers, headerController{
			Name:   b.Controller.String(),
			Slot:   strings.ToUpper(b.Slot.String()),
			Phy:    b.Phy.String(),
			IsETH0: b.Slot == types.Slot0,
		})
	}
	var buf bytes.Buffer
	if err := headerTmpl.Execute(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// commentText makes s safe inside a C block comment: control characters
// become spaces and comment delimiters are broken up.
func commentText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, "/*", "/ *")
	return strings.ReplaceAll(s, "*/", "* /")
}

// macroName upper-cases s and replaces anything that is not a C identifier
// character with '_'.
func macroName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// Cleanup removes artifacts created by this tool from dir. If board is
// empty, every artifact is removed; otherwise only that board's.
func Cleanup(dir, board string, dryRun bool) ([]string, error) {
	if dir == "" {
		dir = DefaultOutputDir
	}
	name := "*"
	if board != "" {
		if strings.ContainsAny(board, `*?[]\`) {
			return nil, fmt.Errorf("board name %q contains glob metacharacters", board)
		}
		name = utils.SanitizeName(board)
	}

	var matches []string
	for _, ext := range []string{"h", "yaml", "json"} {
		pattern := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", FilePrefix, name, ext))
		m, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob error for pattern %s: %w", pattern, err)
		}
		matches = append(matches, m...)
	}
	return cleanupFiles(matches, dryRun)
}

func cleanupFiles(paths []string, dryRun bool) ([]string, error) {
	removed := make([]string, 0)
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if dryRun {
			log.Infof("[dry-run] would remove: %s", p)
			removed = append(removed, p)
			continue
		}
		log.Infof("removing binding artifact: %s", p)
		if err := os.Remove(p); err != nil {
			return removed, fmt.Errorf("cannot remove %s: %w", p, err)
		}
		removed = append(removed, p)
	}
	return removed, nil
}
