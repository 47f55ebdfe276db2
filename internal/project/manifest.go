// Package project reads and rewrites the version field of a project
// manifest: Cargo.toml for Rust projects and package.json for JavaScript
// projects. Rewrites touch only the version value and keep every other
// byte of the file.
package project

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
)

// Kind is the manifest format of a project.
type Kind int

const (
	KindUnknown Kind = iota
	Rust
	JavaScript
)

// Manifest file names.
const (
	CargoManifest   = "Cargo.toml"
	PackageManifest = "package.json"
)

func (k Kind) String() string {
	switch k {
	case Rust:
		return "rust"
	case JavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// MarshalText lets reports print the kind name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// File returns the manifest file name for the kind.
func (k Kind) File() string {
	if k == JavaScript {
		return PackageManifest
	}
	return CargoManifest
}

// ParseKind parses a --project-type value. The empty string is KindUnknown,
// meaning auto-detect.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return KindUnknown, nil
	case "rust", "cargo":
		return Rust, nil
	case "js", "ts", "javascript", "typescript", "node":
		return JavaScript, nil
	default:
		return KindUnknown, clierrors.New(clierrors.KindConfig,
			"unknown project type %q (valid: rust, js)", s)
	}
}

// Manifest is a detected project manifest and its current version.
type Manifest struct {
	Kind    Kind
	Dir     string
	Path    string
	Name    string
	Version string
}

// Detect finds the manifest in dir. An explicit kind requires its manifest
// to exist; otherwise Cargo.toml wins over package.json.
func Detect(dir string, explicit Kind) (*Manifest, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, clierrors.Wrapf(err, clierrors.KindConfig, "resolving project path %s", dir)
	}

	candidates := []Kind{Rust, JavaScript}
	if explicit != KindUnknown {
		candidates = []Kind{explicit}
	}

	for _, kind := range candidates {
		path := filepath.Join(absDir, kind.File())
		if _, err := os.Stat(path); err == nil {
			return &Manifest{Kind: kind, Dir: absDir, Path: path}, nil
		}
	}

	if explicit != KindUnknown {
		return nil, clierrors.New(clierrors.KindConfig,
			"project type %s requires %s, which was not found in %s", explicit, explicit.File(), absDir)
	}
	return nil, clierrors.New(clierrors.KindConfig,
		"could not detect project type: no %s or %s in %s (use --project-type)", CargoManifest, PackageManifest, absDir)
}

// Load detects the manifest in dir and reads its version.
func Load(dir string, explicit Kind) (*Manifest, error) {
	m, err := Detect(dir, explicit)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return nil, clierrors.Wrapf(err, clierrors.KindConfig, "reading %s", m.Path)
	}
	m.Name, m.Version, err = ReadVersion(m.Kind, data)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ReadVersion returns the project name and version string stored in data.
func ReadVersion(kind Kind, data []byte) (name, version string, err error) {
	switch kind {
	case Rust:
		return readCargo(data)
	case JavaScript:
		return readPackageJSON(data)
	default:
		return "", "", clierrors.New(clierrors.KindConfig, "unsupported project type %s", kind)
	}
}

// RenderVersion returns data with its version value replaced by newVersion.
func RenderVersion(kind Kind, data []byte, newVersion string) ([]byte, error) {
	switch kind {
	case Rust:
		return renderCargo(data, newVersion)
	case JavaScript:
		return renderPackageJSON(data, newVersion)
	default:
		return nil, clierrors.New(clierrors.KindConfig, "unsupported project type %s", kind)
	}
}

type cargoManifest struct {
	Package   map[string]any `toml:"package"`
	Workspace struct {
		Package map[string]any `toml:"package"`
	} `toml:"workspace"`
	Version any `toml:"version"`
}

func readCargo(data []byte) (string, string, error) {
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return "", "", clierrors.Wrapf(err, clierrors.KindVersionParse, "parsing %s", CargoManifest)
	}
	name, _ := m.Package["name"].(string)

	for _, v := range []any{m.Package["version"], m.Workspace.Package["version"], m.Version} {
		if s, ok := v.(string); ok {
			return name, s, nil
		}
	}
	if _, inherited := m.Package["version"].(map[string]any); inherited {
		return "", "", clierrors.New(clierrors.KindVersionParse,
			"%s inherits its version from the workspace; run commitsense in the workspace root", CargoManifest)
	}
	return "", "", clierrors.New(clierrors.KindVersionParse,
		"no version found in %s ([package], [workspace.package] or top level)", CargoManifest)
}

func readPackageJSON(data []byte) (string, string, error) {
	if !gjson.ValidBytes(data) {
		return "", "", clierrors.New(clierrors.KindVersionParse, "%s is not valid JSON", PackageManifest)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return "", "", clierrors.New(clierrors.KindVersionParse, "%s root is not a JSON object", PackageManifest)
	}
	v := root.Get("version")
	if v.Type != gjson.String {
		return "", "", clierrors.New(clierrors.KindVersionParse,
			"no top-level version string in %s", PackageManifest)
	}
	return root.Get("name").String(), v.String(), nil
}

func renderPackageJSON(data []byte, newVersion string) ([]byte, error) {
	if _, _, err := readPackageJSON(data); err != nil {
		return nil, err
	}
	out, err := sjson.SetBytes(data, "version", newVersion)
	if err != nil {
		return nil, fmt.Errorf("setting version in %s: %w", PackageManifest, err)
	}
	return out, nil
}

var (
	tableHeader = regexp.MustCompile(`^\s*\[\s*([^\[\]]+?)\s*\]\s*(#.*)?$`)
	arrayHeader = regexp.MustCompile(`^\s*\[\[`)
	versionLine = regexp.MustCompile(`^(\s*((?:[A-Za-z0-9_-]+\s*\.\s*)*)version\s*=\s*)("[^"]*"|'[^']*')(.*)$`)
)

// versionTable returns the table a version line belongs to, folding a
// dotted key such as package.version into the enclosing table.
func versionTable(table, dotted string) string {
	dotted = strings.TrimSuffix(strings.Join(strings.Fields(dotted), ""), ".")
	switch {
	case dotted == "":
		return table
	case table == "":
		return dotted
	default:
		return table + "." + dotted
	}
}

// renderCargo rewrites the version line of the first of [package],
// [workspace.package] and the top level that holds a string version. Dotted
// keys like package.version count toward the table they name.
func renderCargo(data []byte, newVersion string) ([]byte, error) {
	if _, _, err := readCargo(data); err != nil {
		return nil, err
	}

	lines := bytes.SplitAfter(data, []byte("\n"))
	found := map[string]int{}
	table := ""
	for i, line := range lines {
		text := strings.TrimRight(string(line), "\r\n")
		if arrayHeader.MatchString(text) {
			table = "\x00array"
			continue
		}
		if m := tableHeader.FindStringSubmatch(text); m != nil {
			table = strings.ReplaceAll(m[1], " ", "")
			continue
		}
		if m := versionLine.FindStringSubmatch(text); m != nil {
			key := versionTable(table, m[2])
			if _, seen := found[key]; !seen {
				found[key] = i
			}
		}
	}

	for _, table := range []string{"package", "workspace.package", ""} {
		i, ok := found[table]
		if !ok {
			continue
		}
		text := string(lines[i])
		ending := text[len(strings.TrimRight(text, "\r\n")):]
		m := versionLine.FindStringSubmatch(strings.TrimRight(text, "\r\n"))
		quote := m[3][:1]
		lines[i] = []byte(m[1] + quote + newVersion + quote + m[4] + ending)
		return bytes.Join(lines, nil), nil
	}
	return nil, clierrors.New(clierrors.KindArtifactWrite, "no version line to update in %s", CargoManifest)
}
