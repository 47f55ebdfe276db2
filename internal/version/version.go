// Package version implements the semver arithmetic that turns a current
// project version and a bump decision into the next release version.
// Every function here is pure; callers inject the clock for nightly builds.
package version

import (
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
)

// BumpKind is the semantic-versioning category of a change set.
// The zero value is BumpNone. Kinds are ordered: none < patch < minor < major.
type BumpKind int

const (
	BumpNone BumpKind = iota
	BumpPatch
	BumpMinor
	BumpMajor
)

// String returns the lowercase token for the bump kind.
func (b BumpKind) String() string {
	switch b {
	case BumpPatch:
		return "patch"
	case BumpMinor:
		return "minor"
	case BumpMajor:
		return "major"
	default:
		return "none"
	}
}

// MarshalText encodes the bump as its token so JSON and YAML reports
// carry "minor" rather than an integer.
func (b BumpKind) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText decodes a bump token.
func (b *BumpKind) UnmarshalText(text []byte) error {
	parsed, err := ParseBump(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBump parses a bump token case-insensitively.
func ParseBump(s string) (BumpKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return BumpNone, nil
	case "patch":
		return BumpPatch, nil
	case "minor":
		return BumpMinor, nil
	case "major":
		return BumpMajor, nil
	default:
		return BumpNone, fmt.Errorf("unknown bump kind %q (want major, minor, patch or none)", s)
	}
}

// MaxBump returns the greatest of the given bumps, BumpNone when empty.
func MaxBump(bumps ...BumpKind) BumpKind {
	out := BumpNone
	for _, b := range bumps {
		if b > out {
			out = b
		}
	}
	return out
}

// Parse parses a manifest version string strictly. A leading "v" is not
// accepted because neither Cargo nor npm allow it in the version field.
func Parse(s string) (*semver.Version, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, clierrors.New(clierrors.KindVersionParse, "manifest version is empty")
	}
	v, err := semver.StrictNewVersion(trimmed)
	if err != nil {
		return nil, clierrors.Wrapf(err, clierrors.KindVersionParse, "parsing version %q", trimmed)
	}
	return v, nil
}

// Next applies bump to current. Every bump drops pre-release and build
// metadata; BumpNone returns current unchanged.
func Next(current *semver.Version, bump BumpKind) *semver.Version {
	switch bump {
	case BumpMajor:
		return semver.New(current.Major()+1, 0, 0, "", "")
	case BumpMinor:
		return semver.New(current.Major(), current.Minor()+1, 0, "", "")
	case BumpPatch:
		return semver.New(current.Major(), current.Minor(), current.Patch()+1, "", "")
	default:
		return current
	}
}

// NightlyPrefix is the pre-release identifier that marks nightly builds.
const NightlyPrefix = "nightly"

// Nightly returns base with a nightly.YYYYMMDD pre-release for the UTC date
// of now. Any pre-release or build metadata on base is replaced.
func Nightly(base *semver.Version, now time.Time) *semver.Version {
	pre := NightlyPrefix + "." + now.UTC().Format("20060102")
	return semver.New(base.Major(), base.Minor(), base.Patch(), pre, "")
}

// Plan is the version half of a release plan.
type Plan struct {
	Current *semver.Version
	Next    *semver.Version
	// Nightly is nil unless nightly mode was requested.
	Nightly *semver.Version
	Bump    BumpKind
}

// Emitted reports whether the plan should be handed to the artifact writer.
// A None bump without nightly produces no release.
func (p Plan) Emitted() bool {
	return p.Bump != BumpNone || p.Nightly != nil
}

// Target returns the version written to disk: nightly when requested,
// otherwise next.
func (p Plan) Target() *semver.Version {
	if p.Nightly != nil {
		return p.Nightly
	}
	return p.Next
}

// Compute combines Next and Nightly for a manifest version string.
func Compute(current string, bump BumpKind, nightly bool, now time.Time) (Plan, error) {
	cur, err := Parse(current)
	if err != nil {
		return Plan{}, err
	}
	plan := Plan{Current: cur, Bump: bump, Next: Next(cur, bump)}
	if nightly {
		plan.Nightly = Nightly(plan.Next, now)
	}
	return plan, nil
}
