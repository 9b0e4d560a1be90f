package types

import (
	"strings"

	"github.com/you-not-fish/metaid/internal/intern"
)

// keyer wraps the intern table. A shape with a missing component key gets
// NoKey instead of a table panic: only fallbacks and objects built over
// them have missing keys.
type keyer struct {
	t *intern.Table
}

func missing(keys ...intern.Key) bool {
	for _, k := range keys {
		if k == intern.NoKey {
			return true
		}
	}
	return false
}

func keysOf(ts []TypeReference) ([]intern.Key, bool) {
	keys := make([]intern.Key, len(ts))
	for i, t := range ts {
		keys[i] = t.InternedKey()
		if keys[i] == intern.NoKey {
			return nil, false
		}
	}
	return keys, true
}

func (k keyer) rootNamespace(unit intern.Key) intern.Key {
	if missing(unit) {
		return intern.NoKey
	}
	return k.t.RootNamespace(unit)
}

func (k keyer) namespace(parent intern.Key, name string) intern.Key {
	if missing(parent) {
		return intern.NoKey
	}
	return k.t.Namespace(parent, name)
}

// namespacePath interns each segment of a dotted namespace name below
// root.
func (k keyer) namespacePath(root intern.Key, path string) intern.Key {
	key := root
	if path == "" {
		return key
	}
	for _, seg := range strings.Split(path, ".") {
		key = k.namespace(key, seg)
	}
	return key
}

func (k keyer) namespaceType(ns intern.Key, name string, arity int) intern.Key {
	if missing(ns) {
		return intern.NoKey
	}
	return k.t.NamespaceType(ns, name, arity)
}

func (k keyer) nestedType(containing intern.Key, name string, arity int) intern.Key {
	if missing(containing) {
		return intern.NoKey
	}
	return k.t.NestedType(containing, name, arity)
}

func (k keyer) genericTypeParam(def intern.Key, index int) intern.Key {
	if missing(def) {
		return intern.NoKey
	}
	return k.t.GenericTypeParam(def, index)
}

func (k keyer) genericMethodParam(method intern.Key, index int) intern.Key {
	if missing(method) {
		return intern.NoKey
	}
	return k.t.GenericMethodParam(method, index)
}

func (k keyer) field(containing intern.Key, name string, typ intern.Key) intern.Key {
	if missing(containing, typ) {
		return intern.NoKey
	}
	return k.t.Field(containing, name, typ)
}

func (k keyer) modifiers(mods []*CustomModifier) ([]intern.ModifierShape, bool) {
	shapes := make([]intern.ModifierShape, len(mods))
	for i, m := range mods {
		mk := m.modifier.InternedKey()
		if mk == intern.NoKey {
			return nil, false
		}
		shapes[i] = intern.ModifierShape{Modifier: mk, Optional: m.optional}
	}
	return shapes, true
}

// signature builds the shape of a signature whose parameter and return
// types have already been mapped to their key-relevant form.
func (k keyer) signature(conv CallingConvention, ret TypeReference, retByRef bool, retMods []*CustomModifier, params, extra []SignatureParam) (intern.SignatureShape, bool) {
	sig := intern.SignatureShape{
		CallingConvention: uint8(conv),
		Return:            ret.InternedKey(),
		ReturnByRef:       retByRef,
	}
	if sig.Return == intern.NoKey {
		return sig, false
	}
	var ok bool
	if sig.ReturnModifiers, ok = k.modifiers(retMods); !ok {
		return sig, false
	}
	if sig.Params, ok = k.params(params); !ok {
		return sig, false
	}
	if sig.ExtraArgs, ok = k.params(extra); !ok {
		return sig, false
	}
	return sig, true
}

func (k keyer) params(params []SignatureParam) ([]intern.ParamShape, bool) {
	if len(params) == 0 {
		return nil, true
	}
	shapes := make([]intern.ParamShape, len(params))
	for i, p := range params {
		pk := p.Type.InternedKey()
		if pk == intern.NoKey {
			return nil, false
		}
		mods, ok := k.modifiers(p.Modifiers)
		if !ok {
			return nil, false
		}
		shapes[i] = intern.ParamShape{Type: pk, ByRef: p.ByRef, Modifiers: mods}
	}
	return shapes, true
}
