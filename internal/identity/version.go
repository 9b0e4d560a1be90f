package identity

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a four-part assembly version: Major.Minor.Build.Revision.
type Version struct {
	Major    uint16
	Minor    uint16
	Build    uint16
	Revision uint16
}

// NewVersion creates a version from its four components.
func NewVersion(major, minor, build, revision uint16) Version {
	return Version{Major: major, Minor: minor, Build: build, Revision: revision}
}

// ParseVersion parses a version written as two to four dot-separated
// decimal components. Missing trailing components are zero.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 || len(parts) > 4 {
		return Version{}, fmt.Errorf("version %q: want 2 to 4 components: %w", s, ErrInvalidIdentity)
	}
	var comps [4]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Version{}, fmt.Errorf("version %q: component %d: %w", s, i, ErrInvalidIdentity)
		}
		comps[i] = uint16(n)
	}
	return Version{Major: comps[0], Minor: comps[1], Build: comps[2], Revision: comps[3]}, nil
}

// Compare returns -1, 0, or +1 depending on whether v is less than,
// equal to, or greater than o.
func (v Version) Compare(o Version) int {
	a, b := v.Packed(), o.Packed()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Packed returns the version as a single integer that orders the same way
// as the version.
func (v Version) Packed() uint64 {
	return uint64(v.Major)<<48 | uint64(v.Minor)<<32 | uint64(v.Build)<<16 | uint64(v.Revision)
}

// IsZero reports whether all components are zero.
func (v Version) IsZero() bool {
	return v == Version{}
}

// String returns the version in a.b.c.d form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
}

// VersionRange is an inclusive range of versions.
type VersionRange struct {
	Low  Version
	High Version
}

// ParseVersionRange parses "a.b.c.d" or "a.b.c.d-e.f.g.h".
func ParseVersionRange(s string) (VersionRange, error) {
	lo, hi, found := strings.Cut(s, "-")
	low, err := ParseVersion(lo)
	if err != nil {
		return VersionRange{}, err
	}
	if !found {
		return VersionRange{Low: low, High: low}, nil
	}
	high, err := ParseVersion(hi)
	if err != nil {
		return VersionRange{}, err
	}
	if low.Compare(high) > 0 {
		return VersionRange{}, fmt.Errorf("version range %q: low bound above high bound: %w", s, ErrInvalidIdentity)
	}
	return VersionRange{Low: low, High: high}, nil
}

// Contains reports whether v lies within the range.
func (r VersionRange) Contains(v Version) bool {
	return r.Low.Compare(v) <= 0 && v.Compare(r.High) <= 0
}

// String returns the range in low-high form.
func (r VersionRange) String() string {
	if r.Low == r.High {
		return r.Low.String()
	}
	return r.Low.String() + "-" + r.High.String()
}
