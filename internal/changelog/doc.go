// Package changelog reads and extends markdown changelogs in the Keep a
// Changelog layout.
//
// This package implements:
//   - formatting of a release section (`## [X.Y.Z] - YYYY-MM-DD`)
//   - insertion of a new section above the previous releases
//   - parsing of CHANGELOG.md into versions and categorized entries
//   - querying and terminal display for the changelog command
package changelog
