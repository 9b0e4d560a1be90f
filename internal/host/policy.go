package host

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/you-not-fish/metaid/internal/identity"
	"github.com/you-not-fish/metaid/internal/typename"
)

// ErrInvalidPolicy is returned for a policy file that cannot be read,
// decoded, or validated.
var ErrInvalidPolicy = errors.New("invalid unification policy")

// Policy configures how referenced assembly identities are unified with
// the identities bound at load time.
type Policy struct {
	// CoreAssembly is the display name of the core assembly. Empty means
	// types.DefaultCoreAssembly.
	CoreAssembly string `yaml:"core_assembly" toml:"core_assembly" validate:"omitempty,assemblyname"`

	// CoreAliases are display names that unify to the core assembly.
	CoreAliases []string `yaml:"core_aliases" toml:"core_aliases" validate:"dive,required,assemblyname"`

	Redirects []Redirect `yaml:"redirects" toml:"redirects" validate:"dive"`
}

// Redirect maps a range of versions of an assembly to a single version.
// PublicKeyToken and Culture restrict the redirect when set.
type Redirect struct {
	Name           string `yaml:"name" toml:"name" validate:"required"`
	PublicKeyToken string `yaml:"public_key_token" toml:"public_key_token" validate:"omitempty,hexadecimal,len=16"`
	Culture        string `yaml:"culture" toml:"culture"`
	OldVersion     string `yaml:"old_version" toml:"old_version" validate:"required,versionrange"`
	NewVersion     string `yaml:"new_version" toml:"new_version" validate:"required,version"`
}

var policyValidate *validator.Validate

func init() {
	policyValidate = validator.New()
	for tag, fn := range map[string]validator.Func{
		"assemblyname": func(fl validator.FieldLevel) bool {
			_, err := typename.ParseAssemblyIdentity(fl.Field().String())
			return err == nil
		},
		"version": func(fl validator.FieldLevel) bool {
			_, err := identity.ParseVersion(fl.Field().String())
			return err == nil
		},
		"versionrange": func(fl validator.FieldLevel) bool {
			_, err := identity.ParseVersionRange(fl.Field().String())
			return err == nil
		},
	} {
		if err := policyValidate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
}

// Validate checks the policy against its field constraints.
func (p *Policy) Validate() error {
	if err := policyValidate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return nil
}

// LoadPolicy reads a policy file. The format is chosen by extension:
// .yaml and .yml for YAML, .toml for TOML.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	p, err := ParsePolicy(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	return p, nil
}

// ParsePolicy decodes and validates a policy. format is a file extension
// with or without the leading dot.
func ParsePolicy(data []byte, format string) (*Policy, error) {
	var p Policy
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
		}
	case "toml":
		md, err := toml.Decode(string(data), &p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown key %s", ErrInvalidPolicy, undecoded[0])
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidPolicy, format)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// rules is the compiled form of a Policy.
type rules struct {
	core        *identity.AssemblyIdentity
	coreAliases []*identity.AssemblyIdentity
	redirects   []redirect
}

type redirect struct {
	name       string // folded
	token      []byte
	culture    string // folded
	anyCulture bool
	old        identity.VersionRange
	target     identity.Version
}

func (r *redirect) matches(id *identity.AssemblyIdentity) bool {
	if id.NameKey() != r.name || !r.old.Contains(id.Version()) {
		return false
	}
	if !r.anyCulture && id.CultureKey() != r.culture {
		return false
	}
	if r.token != nil && !bytes.Equal(id.PublicKeyToken(), r.token) {
		return false
	}
	return true
}

func (p *Policy) compile(defaultCore *identity.AssemblyIdentity) (*rules, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r := &rules{core: defaultCore}
	var err error
	if p.CoreAssembly != "" {
		if r.core, err = typename.ParseAssemblyIdentity(p.CoreAssembly); err != nil {
			return nil, fmt.Errorf("%w: core assembly: %w", ErrInvalidPolicy, err)
		}
	}
	for _, s := range p.CoreAliases {
		id, err := typename.ParseAssemblyIdentity(s)
		if err != nil {
			return nil, fmt.Errorf("%w: core alias: %w", ErrInvalidPolicy, err)
		}
		r.coreAliases = append(r.coreAliases, id)
	}
	for _, rd := range p.Redirects {
		c := redirect{name: identity.Fold(rd.Name)}
		if c.old, err = identity.ParseVersionRange(rd.OldVersion); err != nil {
			return nil, fmt.Errorf("%w: redirect %s: %w", ErrInvalidPolicy, rd.Name, err)
		}
		if c.target, err = identity.ParseVersion(rd.NewVersion); err != nil {
			return nil, fmt.Errorf("%w: redirect %s: %w", ErrInvalidPolicy, rd.Name, err)
		}
		if rd.PublicKeyToken != "" {
			if c.token, err = hex.DecodeString(rd.PublicKeyToken); err != nil {
				return nil, fmt.Errorf("%w: redirect %s: public key token: %v", ErrInvalidPolicy, rd.Name, err)
			}
		}
		switch {
		case rd.Culture == "":
			c.anyCulture = true
		case !strings.EqualFold(rd.Culture, "neutral"):
			c.culture = identity.Fold(rd.Culture)
		}
		r.redirects = append(r.redirects, c)
	}
	return r, nil
}
