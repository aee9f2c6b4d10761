// Package semver holds the three part numeric version recorded in manifests
// and embedded in release tag names.
package semver

import (
	"fmt"
	"regexp"
	"strconv"

	xsemver "golang.org/x/mod/semver"
)

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// Version is an ordered (major, minor, patch) triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse accepts exactly MAJOR.MINOR.PATCH with decimal components.
func Parse(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("invalid version format: %q", s)
	}

	parts := make([]int, 3)
	for i, raw := range m[1:] {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version component %q: %w", raw, err)
		}
		parts[i] = n
	}

	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Increment bumps the patch component only.
func (v Version) Increment() Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}

// Compare returns -1, 0 or +1 comparing components numerically.
func (v Version) Compare(other Version) int {
	return xsemver.Compare(v.canonical(), other.canonical())
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) canonical() string {
	return "v" + v.String()
}
