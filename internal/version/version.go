// Package version implements parsing and comparison of memory bank
// release versions.
//
// Versions are strict dotted triples (major.minor.patch) of non-negative
// integers. Pre-release and build-metadata suffixes are rejected: bank
// releases never carry them, and silently ignoring a suffix would make
// two distinct releases compare equal.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"membank/internal/errors"
)

// ErrInvalidVersion indicates a version string that is not a dotted triple
// of non-negative integers.
var ErrInvalidVersion = errors.New("invalid version")

// Version is an ordered triple parsed from a "major.minor.patch" string.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Delta describes how a remote version relates to the current one.
type Delta int

const (
	// DeltaNone means the remote version is not newer than the current one.
	// This covers both equal versions and a remote that is older; downgrades
	// are not supported.
	DeltaNone Delta = iota

	// DeltaPatch means only the patch component increased.
	DeltaPatch

	// DeltaMinor means the minor component increased.
	DeltaMinor

	// DeltaMajor means the major component increased.
	DeltaMajor
)

// String returns a human-readable name for the delta.
func (d Delta) String() string {
	switch d {
	case DeltaMajor:
		return "major"
	case DeltaMinor:
		return "minor"
	case DeltaPatch:
		return "patch"
	default:
		return "none"
	}
}

// Parse parses a version string into a Version.
// A leading "v" is accepted on input but never emitted.
// Returns ErrInvalidVersion for wrong arity, non-numeric or negative
// components, and any pre-release/build suffix.
func Parse(s string) (Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "v")
	if trimmed == "" {
		return Version{}, errors.Wrapf(ErrInvalidVersion, "empty version string")
	}

	parts := strings.Split(trimmed, ".")
	if len(parts) != 3 {
		return Version{}, errors.Wrapf(ErrInvalidVersion, "%q: expected 3 components, got %d", s, len(parts))
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, errors.Wrapf(ErrInvalidVersion, "%q: component %q is not an integer", s, p)
		}
		if n < 0 {
			return Version{}, errors.Wrapf(ErrInvalidVersion, "%q: component %q is negative", s, p)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParse parses s or panics. Intended for tests and static fixtures.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical "major.minor.patch" form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare reports whether remote is newer than current and by what magnitude.
// Components are compared major first, then minor, then patch. Only a
// strictly newer remote yields a non-zero delta; an equal or older remote
// yields DeltaNone.
func Compare(current, remote Version) Delta {
	if remote.Major > current.Major {
		return DeltaMajor
	}
	if remote.Major < current.Major {
		return DeltaNone
	}

	if remote.Minor > current.Minor {
		return DeltaMinor
	}
	if remote.Minor < current.Minor {
		return DeltaNone
	}

	if remote.Patch > current.Patch {
		return DeltaPatch
	}
	return DeltaNone
}
