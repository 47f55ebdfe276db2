package changelog

// Changelog is a parsed CHANGELOG.md. Versions appear in file order, which
// is newest first for files maintained by commitsense.
type Changelog struct {
	Header   string    `json:"header,omitempty" yaml:"header,omitempty"`
	Versions []Version `json:"versions" yaml:"versions"`
}

// Version is one `## [X] - DATE` section. Version holds the bracketed
// text, or "unreleased" for an `## [Unreleased]` section. Body is the raw
// markdown below the heading, trimmed.
type Version struct {
	Version string  `json:"version" yaml:"version"`
	Date    string  `json:"date,omitempty" yaml:"date,omitempty"`
	Changes Changes `json:"changes" yaml:"changes"`
	Body    string  `json:"-" yaml:"-"`
}

// Changes groups bullet entries by their `###` heading. Bullets under an
// unknown heading, or under no heading at all, land in Other.
type Changes struct {
	Added      []string `json:"added,omitempty" yaml:"added,omitempty"`
	Changed    []string `json:"changed,omitempty" yaml:"changed,omitempty"`
	Deprecated []string `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Removed    []string `json:"removed,omitempty" yaml:"removed,omitempty"`
	Fixed      []string `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	Security   []string `json:"security,omitempty" yaml:"security,omitempty"`
	Other      []string `json:"other,omitempty" yaml:"other,omitempty"`
}

// Entry is a single bullet together with its version and category.
type Entry struct {
	Text     string `json:"text" yaml:"text"`
	Category string `json:"category" yaml:"category"`
	Version  string `json:"version" yaml:"version"`
}

// Unreleased is the version identifier of an `## [Unreleased]` section.
const Unreleased = "unreleased"

// ValidCategories returns the categories in rendering order.
func ValidCategories() []string {
	return []string{"added", "changed", "deprecated", "removed", "fixed", "security", "other"}
}

// list returns a pointer to the slice backing category, or nil for an
// unknown name.
func (c *Changes) list(category string) *[]string {
	switch category {
	case "added":
		return &c.Added
	case "changed":
		return &c.Changed
	case "deprecated":
		return &c.Deprecated
	case "removed":
		return &c.Removed
	case "fixed":
		return &c.Fixed
	case "security":
		return &c.Security
	case "other":
		return &c.Other
	}
	return nil
}

// IsEmpty reports whether no category holds an entry.
func (c Changes) IsEmpty() bool {
	return c.Count() == 0
}

// Count returns the number of entries across all categories.
func (c Changes) Count() int {
	n := 0
	for _, cat := range ValidCategories() {
		n += len(*c.list(cat))
	}
	return n
}

// IsUnreleased reports whether v is the unreleased section.
func (v Version) IsUnreleased() bool {
	return v.Version == Unreleased
}

// Entries flattens v into entries in category order.
func (v Version) Entries() []Entry {
	entries := make([]Entry, 0, v.Changes.Count())
	for _, cat := range ValidCategories() {
		for _, text := range *v.Changes.list(cat) {
			entries = append(entries, Entry{Text: text, Category: cat, Version: v.Version})
		}
	}
	return entries
}
