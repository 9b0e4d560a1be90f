package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/metaid/internal/host"
	"github.com/you-not-fish/metaid/internal/identity"
)

const testPolicy = `core_aliases:
  - mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089
redirects:
  - name: Lib
    old_version: 1.0.0.0-1.9.9.9
    new_version: 2.0.0.0
`

func writePolicy(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// run executes the root command in-process and captures its output.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestIdentityCommand(t *testing.T) {
	out, _, err := run(t, "identity", "mscorlib, Version=4.0.0.0, PublicKeyToken=b77a5c561934e089", "lib, Version=1.0")
	require.NoError(t, err)
	assert.Contains(t, out, "mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089\n")
	assert.Contains(t, out, "lib, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null\n")
	assert.Contains(t, out, "hash=")

	_, _, err = run(t, "identity", "Lib, Version=x")
	assert.ErrorIs(t, err, identity.ErrInvalidIdentity)

	_, _, err = run(t, "identity")
	assert.Error(t, err)
}

func TestEqualCommand(t *testing.T) {
	policy := writePolicy(t, "policy.yaml", testPolicy)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			"weak against strong",
			[]string{"equal", "Lib, Version=1.0.0.0", "Lib, Version=1.0.0.0, PublicKeyToken=0123456789abcdef"},
			"equal:   true\nstrict:  false\nunified: true\n",
		},
		{
			"case differs",
			[]string{"equal", "Foo, Version=1.0.0.0", "foo, Version=1.0.0.0"},
			"equal:   true\nstrict:  true\nunified: true\n",
		},
		{
			"core alias",
			[]string{"--config", policy, "equal", "mscorlib, Version=4.0.0.0, PublicKeyToken=b77a5c561934e089", "System.Runtime, Version=8.0.0.0, PublicKeyToken=b03f5f7f11d50a3a"},
			"equal:   false\nstrict:  false\nunified: true\n",
		},
		{
			"redirected versions",
			[]string{"--config", policy, "equal", "Lib, Version=1.2.0.0", "Lib, Version=2.0.0.0"},
			"equal:   false\nstrict:  false\nunified: true\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestUnifyCommand(t *testing.T) {
	policy := writePolicy(t, "policy.yaml", testPolicy)

	out, errOut, err := run(t, "--verbose", "--config", policy, "unify",
		"Lib, Version=1.5.0.0",
		"mscorlib, Version=4.0.0.0, PublicKeyToken=b77a5c561934e089",
		"Other, Version=1.0.0.0")
	require.NoError(t, err)
	assert.Contains(t, out, "Lib, Version=1.5.0.0, Culture=neutral, PublicKeyToken=null -> Lib, Version=2.0.0.0, Culture=neutral, PublicKeyToken=null\n")
	assert.Contains(t, out, "-> System.Runtime, Version=8.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a (core)\n")
	assert.Contains(t, out, "Other, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null -> Other, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null\n")
	assert.Contains(t, errOut, "binding redirect applied")
	assert.Contains(t, errOut, "policy loaded")

	// Without --verbose nothing is logged.
	_, errOut, err = run(t, "--config", policy, "unify", "Lib, Version=1.5.0.0")
	require.NoError(t, err)
	assert.Empty(t, errOut)

	_, _, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "unify", "Lib")
	assert.ErrorIs(t, err, host.ErrInvalidPolicy)
}

func TestInternCommand(t *testing.T) {
	out, _, err := run(t, "--pointer-size", "4", "intern", "--describe", "--metrics",
		"System.Int32[]",
		"System.Int32[], System.Runtime, Version=8.0.0.0, PublicKeyToken=b03f5f7f11d50a3a",
		"System.Int32*",
		"System.Int64")
	require.NoError(t, err)
	assert.Contains(t, out, "[System.Runtime]System.Int32[]\tkind=")
	assert.Contains(t, out, "[System.Runtime]System.Int32*\tkind=")
	assert.Contains(t, out, "size=4")
	assert.Contains(t, out, "size=8")
	assert.Contains(t, out, "same key")
	assert.Contains(t, out, "=vector(#")
	assert.Contains(t, out, `metaid_intern_lookups_total{kind=`)
}

func TestInternCommandScope(t *testing.T) {
	out, _, err := run(t, "intern", "--scope", "Coll, Version=1.0.0.0", "Coll.List`1[Coll.Item]")
	require.NoError(t, err)
	assert.Contains(t, out, "[Coll]Coll.List`1<[Coll]Coll.Item>\t")

	_, _, err = run(t, "intern", "List`1[")
	assert.Error(t, err)

	_, _, err = run(t, "intern", "--scope", "Coll, Version=?", "A")
	assert.Error(t, err)
}

func TestPolicyCommand(t *testing.T) {
	yml := writePolicy(t, "policy.yml", testPolicy)
	out, _, err := run(t, "policy", yml)
	require.NoError(t, err)
	assert.Equal(t, "core: System.Runtime, Version=8.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a\n"+
		"alias: mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089\n"+
		"redirect: Lib 1.0.0.0-1.9.9.9 -> 2.0.0.0\n", out)

	toml := writePolicy(t, "policy.toml", "[[redirects]]\nname = \"Lib\"\nold_version = \"1.0\"\n")
	_, _, err = run(t, "policy", toml)
	assert.ErrorIs(t, err, host.ErrInvalidPolicy)
}
