package changelog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	versionHeading  = regexp.MustCompile(`^##\s+\[([^\]]+)\](?:\s*-\s*(\S+))?`)
	categoryHeading = regexp.MustCompile(`^###\s+(.+?)\s*$`)
	bulletLine      = regexp.MustCompile(`^[-*+]\s+(.*)$`)
)

// Load reads and parses the changelog at path.
func Load(path string) (*Changelog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening changelog file: %w", err)
	}
	defer f.Close()

	return LoadFromReader(f)
}

// LoadFromReader parses markdown from r.
func LoadFromReader(r io.Reader) (*Changelog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading changelog: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse splits markdown into its header and release sections. Parsing is
// lenient: lines it does not understand stay in the section body.
func Parse(markdown string) *Changelog {
	c := &Changelog{}
	var (
		header  strings.Builder
		body    strings.Builder
		current *Version
		p       entryParser
	)

	flush := func() {
		if current == nil {
			return
		}
		p.finish()
		current.Body = strings.TrimSpace(body.String())
		c.Versions = append(c.Versions, *current)
		body.Reset()
	}

	sc := bufio.NewScanner(strings.NewReader(markdown))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if m := versionHeading.FindStringSubmatch(line); m != nil {
			flush()
			current = &Version{Version: sectionVersion(m[1]), Date: m[2]}
			p = entryParser{changes: &current.Changes, category: "other"}
			continue
		}
		if current == nil {
			header.WriteString(line)
			header.WriteByte('\n')
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
		p.line(line)
	}
	flush()

	c.Header = strings.TrimSpace(header.String())
	return c
}

func sectionVersion(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, Unreleased) {
		return Unreleased
	}
	return raw
}

// entryParser collects bullets of one section, joining indented
// continuation lines onto the preceding bullet.
type entryParser struct {
	changes  *Changes
	category string
	pending  string
	open     bool
}

func (p *entryParser) line(line string) {
	trimmed := strings.TrimSpace(line)
	if m := categoryHeading.FindStringSubmatch(trimmed); m != nil {
		p.finish()
		p.category = categoryName(m[1])
		return
	}
	if trimmed == "" {
		p.finish()
		return
	}
	if m := bulletLine.FindStringSubmatch(line); m != nil {
		p.finish()
		p.pending, p.open = m[1], true
		return
	}
	if p.open && line != trimmed {
		p.pending += " " + trimmed
	}
}

func (p *entryParser) finish() {
	if !p.open {
		return
	}
	dst := p.changes.list(p.category)
	*dst = append(*dst, strings.TrimSpace(p.pending))
	p.pending, p.open = "", false
}

func categoryName(heading string) string {
	name := strings.ToLower(strings.TrimSpace(heading))
	for _, cat := range ValidCategories() {
		if name == cat {
			return cat
		}
	}
	return "other"
}

// NormalizeVersion strips a leading "v" and lowercases version so "v1.2.0"
// and "1.2.0" compare equal.
func NormalizeVersion(version string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(version)), "v")
}
