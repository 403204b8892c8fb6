package kernel

import (
	"fmt"
)

// Version
// kernel release as reported by uname.
type Version struct {
	Major  int
	Minor  int
	Patch  int
	Flavor string
}

func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmp(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmp(v.Minor, o.Minor)
	default:
		return cmp(v.Patch, o.Patch)
	}
}

// GTE
// true when v is at least major.minor.patch.
func (v Version) GTE(major, minor, patch int) bool {
	return v.Compare(Version{Major: major, Minor: minor, Patch: patch}) >= 0
}

func (v Version) LT(major, minor, patch int) bool {
	return !v.GTE(major, minor, patch)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d%s", v.Major, v.Minor, v.Patch, v.Flavor)
}

func cmp(a, b int) int {
	if a > b {
		return 1
	} else if a < b {
		return -1
	}
	return 0
}

// Check
// reports whether the running kernel is at least major.minor.patch.
func Check(major, minor, patch int) (bool, error) {
	v, err := Get()
	if err != nil {
		return false, err
	}
	return v.GTE(major, minor, patch), nil
}

// Parse
// parses a release string such as "6.1.0-13-amd64".
func Parse(release string) (v Version, err error) {
	var (
		parsed  int
		partial string
	)
	parsed, _ = fmt.Sscanf(release, "%d.%d%s", &v.Major, &v.Minor, &partial)
	if parsed < 2 {
		err = fmt.Errorf("cannot parse kernel version: %s", release)
		return
	}
	parsed, _ = fmt.Sscanf(partial, ".%d%s", &v.Patch, &v.Flavor)
	if parsed < 1 {
		v.Flavor = partial
	}
	return
}
