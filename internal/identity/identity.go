// Package identity implements the immutable values that identify units of
// metadata: assemblies, modules, and sets of units.
//
// Names, cultures, and locations compare ignoring case. Every value computes
// its hash once at construction; the hash is consistent with Equal.
package identity

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/cases"
)

// ErrInvalidIdentity is returned when an identity is constructed from
// incomplete or malformed parts.
var ErrInvalidIdentity = errors.New("invalid unit identity")

// UnitKind distinguishes the kinds of unit identity.
type UnitKind int

const (
	AssemblyUnit UnitKind = iota
	ModuleUnit
)

// String returns the unit kind name.
func (k UnitKind) String() string {
	switch k {
	case AssemblyUnit:
		return "assembly"
	case ModuleUnit:
		return "module"
	}
	return fmt.Sprintf("UnitKind(%d)", int(k))
}

// UnitIdentity is implemented by *AssemblyIdentity and *ModuleIdentity.
type UnitIdentity interface {
	// Name returns the unit name as written.
	Name() string

	// Location returns where the unit is stored. It may be empty and need
	// not be a file path.
	Location() string

	// Kind returns the unit kind.
	Kind() UnitKind

	// Hash returns a hash consistent with Equal.
	Hash() uint64

	// String returns the canonical display form.
	String() string

	aUnitIdentity()
}

// Fold returns the case-folded form of s used for case-insensitive keys.
func Fold(s string) string {
	// A Caser keeps state, so one is created per call.
	return cases.Fold().String(s)
}

// AssemblyIdentity identifies an assembly by name, culture, version, public
// key token, and location.
type AssemblyIdentity struct {
	name     string
	culture  string
	version  Version
	token    []byte
	location string

	nameKey    string
	cultureKey string
	hash       uint64
}

// NewAssemblyIdentity creates an assembly identity. The culture is empty
// for culture-neutral assemblies; the token is empty for weakly named
// assemblies. The token is copied.
func NewAssemblyIdentity(name, culture string, version Version, publicKeyToken []byte, location string) (*AssemblyIdentity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("assembly name is empty: %w", ErrInvalidIdentity)
	}
	if strings.EqualFold(culture, "neutral") {
		culture = ""
	}
	return newAssemblyIdentity(name, culture, version, bytes.Clone(publicKeyToken), location), nil
}

// MustAssemblyIdentity is like NewAssemblyIdentity but panics on error.
// It is intended for identities written as literals.
func MustAssemblyIdentity(name, culture string, version Version, publicKeyToken []byte, location string) *AssemblyIdentity {
	id, err := NewAssemblyIdentity(name, culture, version, publicKeyToken, location)
	if err != nil {
		panic(err)
	}
	return id
}

// newAssemblyIdentity builds the identity without validation. It is used
// for the empty fallback identity.
func newAssemblyIdentity(name, culture string, version Version, token []byte, location string) *AssemblyIdentity {
	a := &AssemblyIdentity{
		name:       name,
		culture:    culture,
		version:    version,
		token:      token,
		location:   location,
		nameKey:    Fold(name),
		cultureKey: Fold(culture),
	}
	a.hash = a.computeHash()
	return a
}

// EmptyAssemblyIdentity returns an identity with an empty name, version
// 0.0.0.0, neutral culture, no token, and no location. Fallback objects
// use it; it cannot be produced by NewAssemblyIdentity.
func EmptyAssemblyIdentity() *AssemblyIdentity {
	return newAssemblyIdentity("", "", Version{}, nil, "")
}

func (a *AssemblyIdentity) computeHash() uint64 {
	// The token is left out: a weakly named identity equals any token.
	var buf []byte
	buf = append(buf, a.nameKey...)
	buf = append(buf, 0)
	buf = binary.LittleEndian.AppendUint64(buf, a.version.Packed())
	buf = append(buf, a.cultureKey...)
	return xxh3.Hash(buf)
}

func (*AssemblyIdentity) aUnitIdentity() {}

// Name returns the assembly name.
func (a *AssemblyIdentity) Name() string { return a.name }

// NameKey returns the case-folded name.
func (a *AssemblyIdentity) NameKey() string { return a.nameKey }

// Culture returns the culture, empty when culture-neutral.
func (a *AssemblyIdentity) Culture() string { return a.culture }

// CultureKey returns the case-folded culture.
func (a *AssemblyIdentity) CultureKey() string { return a.cultureKey }

// Version returns the assembly version.
func (a *AssemblyIdentity) Version() Version { return a.version }

// PublicKeyToken returns a copy of the public key token.
func (a *AssemblyIdentity) PublicKeyToken() []byte { return bytes.Clone(a.token) }

// HasPublicKeyToken reports whether the assembly is strongly named.
func (a *AssemblyIdentity) HasPublicKeyToken() bool { return len(a.token) > 0 }

// TokenString returns the token as lower-case hex, or "null".
func (a *AssemblyIdentity) TokenString() string {
	if len(a.token) == 0 {
		return "null"
	}
	return hex.EncodeToString(a.token)
}

// Location returns where the assembly is stored.
func (a *AssemblyIdentity) Location() string { return a.location }

// Kind implements UnitIdentity.
func (*AssemblyIdentity) Kind() UnitKind { return AssemblyUnit }

// Hash implements UnitIdentity.
func (a *AssemblyIdentity) Hash() uint64 { return a.hash }

// ContainingAssembly returns a itself.
func (a *AssemblyIdentity) ContainingAssembly() *AssemblyIdentity { return a }

// Equal reports whether a and b identify the same assembly.
//
// Names and cultures compare ignoring case and versions must match. When
// both identities carry a public key token the tokens must be equal; when
// either is weakly named the name, version, and culture alone decide. The
// location never matters.
func (a *AssemblyIdentity) Equal(b *AssemblyIdentity) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.hash != b.hash || a.nameKey != b.nameKey || a.version != b.version || a.cultureKey != b.cultureKey {
		return false
	}
	if len(a.token) == 0 || len(b.token) == 0 {
		// Weakly named assemblies with the same name are assumed to be the
		// same assembly, wherever they were loaded from.
		return true
	}
	return bytes.Equal(a.token, b.token)
}

// StrictEqual is like Equal but also requires identical tokens when one
// side is weakly named.
func (a *AssemblyIdentity) StrictEqual(b *AssemblyIdentity) bool {
	return a.Equal(b) && bytes.Equal(a.token, b.token)
}

// WithLocation returns a copy of a stored at location.
func (a *AssemblyIdentity) WithLocation(location string) *AssemblyIdentity {
	return newAssemblyIdentity(a.name, a.culture, a.version, a.token, location)
}

// Retarget returns a copy of a with another version.
func (a *AssemblyIdentity) Retarget(version Version) *AssemblyIdentity {
	return newAssemblyIdentity(a.name, a.culture, version, a.token, a.location)
}

// DisplayName returns the display form used in serialized type names:
// "Name, Version=a.b.c.d, Culture=neutral, PublicKeyToken=null".
func (a *AssemblyIdentity) DisplayName() string {
	culture := a.culture
	if culture == "" {
		culture = "neutral"
	}
	return fmt.Sprintf("%s, Version=%s, Culture=%s, PublicKeyToken=%s", a.name, a.version, culture, a.TokenString())
}

// String implements UnitIdentity.
func (a *AssemblyIdentity) String() string {
	var sb strings.Builder
	sb.WriteString("Assembly(Name=")
	sb.WriteString(a.name)
	sb.WriteString(", Version=")
	sb.WriteString(a.version.String())
	if a.culture != "" {
		sb.WriteString(", Culture=")
		sb.WriteString(a.culture)
	} else {
		sb.WriteString(", Culture=neutral")
	}
	if len(a.token) == 0 {
		sb.WriteString(", PublicKeyToken=null")
		if a.location != "" {
			sb.WriteString(", Location=")
			sb.WriteString(a.location)
		}
	} else {
		sb.WriteString(", PublicKeyToken=")
		sb.WriteString(hex.EncodeToString(a.token))
	}
	sb.WriteString(")")
	return sb.String()
}

// ModuleIdentity identifies a module by name and either its containing
// assembly or its location.
type ModuleIdentity struct {
	name     string
	location string
	assembly *AssemblyIdentity

	nameKey     string
	locationKey string
	hash        uint64
}

// NewModuleIdentity creates a module identity. containing may be nil for a
// module that is not part of an assembly.
func NewModuleIdentity(name, location string, containing *AssemblyIdentity) (*ModuleIdentity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("module name is empty: %w", ErrInvalidIdentity)
	}
	return newModuleIdentity(name, location, containing), nil
}

// EmptyModuleIdentity returns the module identity used by fallback objects.
// It belongs to the empty assembly identity.
func EmptyModuleIdentity() *ModuleIdentity {
	return newModuleIdentity("", "", EmptyAssemblyIdentity())
}

func newModuleIdentity(name, location string, containing *AssemblyIdentity) *ModuleIdentity {
	m := &ModuleIdentity{
		name:        name,
		location:    location,
		assembly:    containing,
		nameKey:     Fold(name),
		locationKey: Fold(location),
	}
	var buf []byte
	buf = append(buf, m.nameKey...)
	buf = append(buf, 0)
	if containing != nil {
		buf = binary.LittleEndian.AppendUint64(buf, containing.Hash())
	} else {
		buf = append(buf, m.locationKey...)
	}
	m.hash = xxh3.Hash(buf)
	return m
}

func (*ModuleIdentity) aUnitIdentity() {}

// Name returns the module name.
func (m *ModuleIdentity) Name() string { return m.name }

// NameKey returns the case-folded name.
func (m *ModuleIdentity) NameKey() string { return m.nameKey }

// Location returns where the module is stored.
func (m *ModuleIdentity) Location() string { return m.location }

// LocationKey returns the case-folded location.
func (m *ModuleIdentity) LocationKey() string { return m.locationKey }

// ContainingAssembly returns the assembly the module belongs to, or nil.
func (m *ModuleIdentity) ContainingAssembly() *AssemblyIdentity { return m.assembly }

// Kind implements UnitIdentity.
func (*ModuleIdentity) Kind() UnitKind { return ModuleUnit }

// Hash implements UnitIdentity.
func (m *ModuleIdentity) Hash() uint64 { return m.hash }

// Equal reports whether m and o identify the same module.
func (m *ModuleIdentity) Equal(o *ModuleIdentity) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil {
		return false
	}
	if (m.assembly == nil) != (o.assembly == nil) {
		return false
	}
	if m.assembly != nil && !m.assembly.Equal(o.assembly) {
		return false
	}
	if m.nameKey != o.nameKey {
		return false
	}
	if m.assembly != nil {
		return true
	}
	return m.locationKey == o.locationKey
}

// String implements UnitIdentity.
func (m *ModuleIdentity) String() string {
	if m.assembly == nil {
		return "Module(Location=\"" + m.location + "\" Name=" + m.name + ")"
	}
	return "Module(Name=" + m.name + " ContainingAssembly=" + m.assembly.String() + ")"
}

// Equal reports whether two unit identities identify the same unit. Units
// of different kinds are never equal.
func Equal(a, b UnitIdentity) bool {
	switch a := a.(type) {
	case *AssemblyIdentity:
		b, ok := b.(*AssemblyIdentity)
		return ok && a.Equal(b)
	case *ModuleIdentity:
		b, ok := b.(*ModuleIdentity)
		return ok && a.Equal(b)
	}
	return false
}

// UnitSetIdentity identifies a set of units.
type UnitSetIdentity struct {
	units []UnitIdentity
}

// NewUnitSetIdentity creates a unit set identity from its members.
func NewUnitSetIdentity(units ...UnitIdentity) (*UnitSetIdentity, error) {
	for i, u := range units {
		if u == nil {
			return nil, fmt.Errorf("unit set member %d is nil: %w", i, ErrInvalidIdentity)
		}
	}
	return &UnitSetIdentity{units: append([]UnitIdentity(nil), units...)}, nil
}

// Units returns the member identities in order.
func (s *UnitSetIdentity) Units() []UnitIdentity {
	return append([]UnitIdentity(nil), s.units...)
}

// Contains reports whether the set has a member equal to u.
func (s *UnitSetIdentity) Contains(u UnitIdentity) bool {
	for _, m := range s.units {
		if Equal(m, u) {
			return true
		}
	}
	return false
}
