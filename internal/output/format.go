// Package output renders a pipeline outcome for people (colored text), for
// tools (JSON, YAML) and for GitHub Actions step outputs.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/workflow"
)

// Format is a report format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the accepted --format values.
var Formats = []Format{FormatText, FormatJSON, FormatYAML}

// ParseFormat validates a --format value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", clierrors.InvalidFormat(s)
}

// ReportOptions controls Report.
type ReportOptions struct {
	Format Format
	Color  bool
}

// Report writes out in the requested format.
func Report(w io.Writer, out *workflow.Outcome, opts ReportOptions) error {
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encoding JSON report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encoding YAML report: %w", err)
		}
		return enc.Close()
	default:
		return reportText(w, out, newPalette(opts.Color))
	}
}

type palette struct {
	label, value, version, dim *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		label:   color.New(color.FgCyan, color.Bold),
		value:   color.New(color.FgWhite),
		version: color.New(color.FgGreen, color.Bold),
		dim:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.label, p.value, p.version, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func reportText(w io.Writer, out *workflow.Outcome, p palette) error {
	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "  %s %s\n", p.label.Sprintf("%-10s", label+":"), value)
	}

	fmt.Fprintf(&b, "%s %s\n", p.label.Sprint(out.Project.String()), p.dim.Sprint(out.ManifestPath))

	base := out.Baseline.Tier.String()
	ref := out.Baseline.Hash
	if len(ref) > 7 {
		ref = ref[:7]
	}
	if out.Baseline.Tag != "" {
		base = out.Baseline.Tag + " (" + base + ")"
	}
	row("Baseline", fmt.Sprintf("%s %s", p.value.Sprint(base), p.dim.Sprint(ref)))
	row("Commits", p.value.Sprint(out.Commits))

	if out.Plan == nil {
		row("Bump", p.value.Sprint("none"))
		row("Version", p.version.Sprint(out.CurrentVersion)+p.dim.Sprint(" (unchanged)"))
		b.WriteString("\n" + workflow.NoChanges + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	plan := out.Plan
	row("Bump", p.value.Sprint(plan.Bump.String()))
	row("Version", fmt.Sprintf("%s -> %s", plan.CurrentVersion, p.version.Sprint(plan.NextVersion)))
	if plan.NightlyVersion != "" {
		row("Nightly", p.version.Sprint(plan.NightlyVersion))
	}
	if out.Written {
		row("Written", p.value.Sprintf("%s, %s", out.ManifestPath, out.ChangelogPath))
	} else {
		row("Mode", p.dim.Sprint("dry run (use --write to update files)"))
	}

	b.WriteString("\n" + plan.Section + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}
