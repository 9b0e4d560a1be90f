package typename

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/you-not-fish/metaid/internal/identity"
)

// Version returns the Version property, or 0.0.0.0 if there is none.
func (a *AssemblyName) Version() (identity.Version, error) {
	v, ok := a.Lookup("Version")
	if !ok {
		return identity.Version{}, nil
	}
	return identity.ParseVersion(v)
}

// Culture returns the Culture property. "neutral" is returned as "".
func (a *AssemblyName) Culture() string {
	c, _ := a.Lookup("Culture")
	if strings.EqualFold(c, "neutral") {
		return ""
	}
	return c
}

// PublicKeyToken returns the decoded PublicKeyToken property. "null" and
// a missing property both yield no token.
func (a *AssemblyName) PublicKeyToken() ([]byte, error) {
	t, ok := a.Lookup("PublicKeyToken")
	if !ok || t == "" || strings.EqualFold(t, "null") {
		return nil, nil
	}
	tok, err := hex.DecodeString(t)
	if err != nil {
		return nil, fmt.Errorf("public key token %q: %w", t, identity.ErrInvalidIdentity)
	}
	return tok, nil
}

// IsRetargetable reports whether the name carries Retargetable=Yes.
func (a *AssemblyName) IsRetargetable() bool {
	r, _ := a.Lookup("Retargetable")
	return strings.EqualFold(r, "yes")
}

// Identity converts the name to an assembly identity stored at location.
func (a *AssemblyName) Identity(location string) (*identity.AssemblyIdentity, error) {
	v, err := a.Version()
	if err != nil {
		return nil, err
	}
	tok, err := a.PublicKeyToken()
	if err != nil {
		return nil, err
	}
	return identity.NewAssemblyIdentity(a.Name, a.Culture(), v, tok, location)
}

// ParseAssemblyIdentity parses a display name into an identity with no
// location.
func ParseAssemblyIdentity(s string) (*identity.AssemblyIdentity, error) {
	a, err := ParseAssemblyName(s)
	if err != nil {
		return nil, fmt.Errorf("assembly name %q: %w", s, err)
	}
	return a.Identity("")
}
