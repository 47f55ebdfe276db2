package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// CategoryStyle is the color and icon of a category in terminal output.
type CategoryStyle struct {
	Color *color.Color
	Icon  string
}

var categoryStyles = map[string]CategoryStyle{
	"added":      {Color: color.New(color.FgGreen), Icon: "+"},
	"changed":    {Color: color.New(color.FgBlue), Icon: "~"},
	"deprecated": {Color: color.New(color.FgRed), Icon: "!"},
	"removed":    {Color: color.New(color.FgRed), Icon: "-"},
	"fixed":      {Color: color.New(color.FgYellow), Icon: "*"},
	"security":   {Color: color.New(color.FgMagenta), Icon: "#"},
	"other":      {Color: color.New(color.FgWhite), Icon: "·"},
}

// FormatOptions controls terminal output.
type FormatOptions struct {
	Plain    bool // no colors or icons
	MaxWidth int  // 0 detects the terminal width
	Oneline  bool // one summary line per entry, no headers
}

// FormatTerminal writes entries grouped by version.
func FormatTerminal(entries []Entry, w io.Writer, opts FormatOptions) error {
	if opts.Oneline {
		for _, entry := range entries {
			if _, err := fmt.Fprintln(w, FormatEntrySummary(entry, opts)); err != nil {
				return err
			}
		}
		return nil
	}
	width := resolveWidth(opts.MaxWidth)

	for i, group := range groupByVersion(entries) {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeVersionHeader(group[0].Version, "", w, opts); err != nil {
			return fmt.Errorf("formatting version %s: %w", group[0].Version, err)
		}
		if err := writeCategories(group, w, opts, width); err != nil {
			return fmt.Errorf("formatting version %s: %w", group[0].Version, err)
		}
	}
	return nil
}

// FormatVersion writes one version with its date. A section without
// bullets prints its raw body instead.
func FormatVersion(v *Version, w io.Writer, opts FormatOptions) error {
	if err := writeVersionHeader(v.Version, v.Date, w, opts); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if v.Changes.IsEmpty() {
		if v.Body == "" {
			return nil
		}
		_, err := fmt.Fprintf(w, "\n%s\n", v.Body)
		return err
	}
	return writeCategories(v.Entries(), w, opts, resolveWidth(opts.MaxWidth))
}

// groupByVersion splits entries into runs sharing a version, keeping order.
func groupByVersion(entries []Entry) [][]Entry {
	var groups [][]Entry
	for i, e := range entries {
		if i == 0 || entries[i-1].Version != e.Version {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], e)
	}
	return groups
}

func writeVersionHeader(version, date string, w io.Writer, opts FormatOptions) error {
	header := "v" + version
	switch {
	case version == Unreleased:
		header = "Unreleased"
	case date != "":
		header = fmt.Sprintf("v%s (%s)", version, date)
	}

	if !opts.Plain {
		header = color.New(color.Bold).Sprint(header)
	}
	_, err := fmt.Fprintf(w, "## %s\n", header)
	return err
}

func writeCategories(entries []Entry, w io.Writer, opts FormatOptions, width int) error {
	byCategory := make(map[string][]Entry)
	for _, e := range entries {
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}

	for _, cat := range ValidCategories() {
		list, ok := byCategory[cat]
		if !ok {
			continue
		}
		style := categoryStyles[cat]
		title := strings.ToUpper(cat[:1]) + cat[1:]
		if opts.Plain {
			if _, err := fmt.Fprintf(w, "\n### %s\n", title); err != nil {
				return err
			}
		} else if _, err := fmt.Fprintf(w, "\n%s\n", style.Color.Sprintf("%s %s", style.Icon, title)); err != nil {
			return err
		}

		for _, e := range list {
			text := e.Text
			if !opts.Plain {
				text = style.Color.Sprint(wrapText(text, width-4, "    "))
			}
			if _, err := fmt.Fprintf(w, "  - %s\n", text); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText breaks text on spaces so no line exceeds width, indenting
// continuation lines. Words longer than width stay whole.
func wrapText(text string, width int, indent string) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var (
		lines []string
		line  string
	)
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > width:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"+indent)
}

// FormatEntrySummary returns a one-line summary of an entry.
func FormatEntrySummary(entry Entry, opts FormatOptions) string {
	text := entry.Text
	if len(text) > 60 {
		text = text[:57] + "..."
	}
	if opts.Plain {
		return fmt.Sprintf("[%s] %s", entry.Category, text)
	}
	style := categoryStyles[entry.Category]
	return fmt.Sprintf("%s %s", style.Color.Sprint(style.Icon), text)
}
