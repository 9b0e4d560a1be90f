// Package host binds assembly references to loaded assemblies under a
// unification policy.
//
// A Host owns a types.Universe and is installed as its resolver, so every
// type reference that crosses an assembly boundary is unified before the
// target assembly is looked up.
package host

import (
	"bytes"
	"log/slog"

	"github.com/you-not-fish/metaid/internal/identity"
	"github.com/you-not-fish/metaid/internal/types"
)

// Host loads units into a universe and resolves references between them.
type Host struct {
	u      *types.Universe
	logger *slog.Logger
	policy *Policy
	rules  *rules
	uopts  []types.Option
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger used by the host and its universe.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) { h.logger = l }
}

// WithPolicy sets the unification policy. The default policy has no
// aliases and no redirects.
func WithPolicy(p *Policy) Option {
	return func(h *Host) { h.policy = p }
}

// WithUniverseOptions passes options through to the universe. Resolver
// and core assembly options are overridden by the host.
func WithUniverseOptions(opts ...types.Option) Option {
	return func(h *Host) { h.uopts = append(h.uopts, opts...) }
}

// New creates a host and its universe.
func New(opts ...Option) (*Host, error) {
	h := &Host{policy: &Policy{}}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	r, err := h.policy.compile(types.DefaultCoreAssembly)
	if err != nil {
		return nil, err
	}
	h.rules = r
	uopts := append([]types.Option{types.WithLogger(h.logger)}, h.uopts...)
	uopts = append(uopts, types.WithResolver(h), types.WithCoreAssembly(r.core))
	h.u = types.NewUniverse(uopts...)
	h.logger.Debug("host created",
		"core", r.core.DisplayName(),
		"aliases", len(r.coreAliases),
		"redirects", len(r.redirects))
	return h, nil
}

// Universe returns the host's universe.
func (h *Host) Universe() *types.Universe { return h.u }

// Load creates an assembly for id in the host's universe.
func (h *Host) Load(id *identity.AssemblyIdentity) (*types.Assembly, error) {
	return h.u.NewAssembly(id)
}

// LoadModule creates a standalone module for id.
func (h *Host) LoadModule(id *identity.ModuleIdentity) (*types.Module, error) {
	return h.u.NewModule(id)
}

// Unify maps a referenced identity to the identity it binds to. Core
// aliases and any version of the core assembly unify to the core
// assembly. Otherwise the first matching redirect retargets the version.
// Identities no rule applies to are returned unchanged.
func (h *Host) Unify(ref *identity.AssemblyIdentity) *identity.AssemblyIdentity {
	if ref == nil || ref.Name() == "" {
		return ref
	}
	core := h.rules.core
	if ref == core {
		return ref
	}
	if sameFamily(ref, core) {
		if ref.Version() != core.Version() {
			h.logger.Debug("unified to core assembly", "ref", ref.DisplayName())
		}
		return core
	}
	for _, alias := range h.rules.coreAliases {
		if sameFamily(ref, alias) {
			h.logger.Debug("unified to core assembly", "ref", ref.DisplayName(), "alias", alias.Name())
			return core
		}
	}
	for i := range h.rules.redirects {
		rd := &h.rules.redirects[i]
		if rd.matches(ref) {
			h.logger.Debug("binding redirect applied",
				"ref", ref.DisplayName(),
				"range", rd.old.String(),
				"version", rd.target.String())
			return ref.Retarget(rd.target)
		}
	}
	return ref
}

// ResolveAssembly implements types.UnitResolver.
func (h *Host) ResolveAssembly(ref *identity.AssemblyIdentity) (*types.Assembly, bool) {
	return h.u.LookupAssembly(h.Unify(ref))
}

// Probe returns the assembly ref binds to, or the fallback assembly if
// none is loaded.
func (h *Host) Probe(ref *identity.AssemblyIdentity) *types.Assembly {
	if a, ok := h.ResolveAssembly(ref); ok {
		return a
	}
	return h.u.Fallbacks().Assembly
}

// sameFamily reports whether a and b differ at most in version and
// location.
func sameFamily(a, b *identity.AssemblyIdentity) bool {
	return a.NameKey() == b.NameKey() &&
		a.CultureKey() == b.CultureKey() &&
		bytes.Equal(a.PublicKeyToken(), b.PublicKeyToken())
}
