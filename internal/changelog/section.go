package changelog

import (
	"fmt"
	"strings"
	"time"
)

// DefaultFile is the changelog file name written next to the manifest.
const DefaultFile = "CHANGELOG.md"

// Header starts every changelog created by commitsense.
const Header = "# Changelog\n\nAll notable changes to this project will be documented in this file.\n\n"

// sectionMarker opens every release section.
const sectionMarker = "## ["

// FormatSection renders the section for a release. The markdown is trimmed;
// the date is taken from t in its own location.
func FormatSection(version string, t time.Time, markdown string) string {
	return fmt.Sprintf("%s%s] - %s\n\n%s", sectionMarker, version, t.Format(time.DateOnly), strings.TrimSpace(markdown))
}

// Insert returns the changelog content with section added above the
// previous releases. When exists is false, or the file holds only
// whitespace, the content starts from Header. Without any prior section, the
// section goes after the header's trailing blank lines, or at the end of the
// file.
func Insert(existing []byte, exists bool, section string) []byte {
	content := string(existing)
	pos := len(Header)
	if !exists || strings.TrimSpace(content) == "" {
		content = Header
	} else {
		pos = insertPosition(content)
	}

	var b strings.Builder
	b.Grow(len(content) + len(section) + 4)
	b.WriteString(content[:pos])
	if pos > 0 && pos == len(content) {
		b.WriteString(paddingBefore(content))
	}
	b.WriteString(section)
	b.WriteString("\n\n")
	b.WriteString(content[pos:])
	return []byte(b.String())
}

func insertPosition(content string) int {
	if i := strings.Index(content, sectionMarker); i >= 0 {
		return i
	}
	if i := strings.Index(content, "\n\n\n"); i >= 0 {
		return i + 2
	}
	return len(content)
}

// paddingBefore returns the newlines needed so an appended section starts
// after a blank line.
func paddingBefore(content string) string {
	switch {
	case strings.HasSuffix(content, "\n\n"):
		return ""
	case strings.HasSuffix(content, "\n"):
		return "\n"
	default:
		return "\n\n"
	}
}
