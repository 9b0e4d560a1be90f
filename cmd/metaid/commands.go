package main

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/you-not-fish/metaid/internal/host"
	"github.com/you-not-fish/metaid/internal/identity"
	"github.com/you-not-fish/metaid/internal/intern"
	"github.com/you-not-fish/metaid/internal/typename"
	"github.com/you-not-fish/metaid/internal/types"
)

func newIdentityCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "identity <display-name>...",
		Short: "Parse assembly display names and print their identities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := intern.New()
			out := cmd.OutOrStdout()
			for _, s := range args {
				id, err := typename.ParseAssemblyIdentity(s)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, id.DisplayName())
				fmt.Fprintf(out, "  hash=%016x key=%d\n", id.Hash(), table.Assembly(id))
			}
			return nil
		},
	}
}

func newEqualCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "equal <display-name> <display-name>",
		Short: "Compare two assembly identities, before and after unification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := typename.ParseAssemblyIdentity(args[0])
			if err != nil {
				return err
			}
			b, err := typename.ParseAssemblyIdentity(args[1])
			if err != nil {
				return err
			}
			h, err := g.newHost(nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "equal:   %t\n", a.Equal(b))
			fmt.Fprintf(out, "strict:  %t\n", a.StrictEqual(b))
			fmt.Fprintf(out, "unified: %t\n", h.Unify(a).Equal(h.Unify(b)))
			return nil
		},
	}
}

func newUnifyCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "unify <display-name>...",
		Short: "Print the identity each reference binds to under the policy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := g.newHost(nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range args {
				ref, err := typename.ParseAssemblyIdentity(s)
				if err != nil {
					return err
				}
				to := h.Unify(ref)
				mark := ""
				if h.Universe().IsCoreAssembly(ref) {
					mark = " (core)"
				}
				fmt.Fprintf(out, "%s -> %s%s\n", ref.DisplayName(), to.DisplayName(), mark)
			}
			return nil
		},
	}
}

func newInternCmd(g *globals) *cobra.Command {
	var (
		scope    string
		describe bool
		metrics  bool
	)
	cmd := &cobra.Command{
		Use:   "intern <type-name>...",
		Short: "Bind serialized type names and print their interned keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			table := intern.New(intern.WithRegisterer(reg))
			h, err := g.newHost(table)
			if err != nil {
				return err
			}
			u := h.Universe()

			var in identity.UnitIdentity = u.CoreAssembly()
			if scope != "" {
				if in, err = typename.ParseAssemblyIdentity(scope); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			byKey := make(map[intern.Key][]string)
			var order []intern.Key
			for _, s := range args {
				t, err := u.ParseType(s, in)
				if err != nil {
					return err
				}
				k := t.InternedKey()
				fmt.Fprintf(out, "%s\tkind=%q key=%d size=%d\n", t, t.Kind(), k, u.Sizes().Sizeof(t))
				if describe && k != intern.NoKey {
					fmt.Fprintf(out, "  %s\n", table.Describe(k))
				}
				if _, ok := byKey[k]; !ok {
					order = append(order, k)
				}
				byKey[k] = append(byKey[k], s)
			}
			for _, k := range order {
				if names := byKey[k]; len(names) > 1 && k != intern.NoKey {
					fmt.Fprintf(out, "same key %d: %s\n", k, strings.Join(names, " | "))
				}
			}
			if metrics {
				return writeMetrics(cmd, reg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "assembly that unqualified type names are bound in (default: the core assembly)")
	cmd.Flags().BoolVar(&describe, "describe", false, "print the interned shape behind each key")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "print intern table counters")
	return cmd
}

// writeMetrics prints the counters gathered from reg, one per line.
func writeMetrics(cmd *cobra.Command, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter().GetValue() == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			fmt.Fprintf(out, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
	return nil
}

func newPolicyCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "policy <file>",
		Short: "Validate a unification policy file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := host.LoadPolicy(args[0])
			if err != nil {
				return err
			}
			if _, err := host.New(host.WithPolicy(p), host.WithLogger(g.logger)); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			core := p.CoreAssembly
			if core == "" {
				core = types.DefaultCoreAssembly.DisplayName()
			}
			fmt.Fprintf(out, "core: %s\n", core)
			for _, a := range p.CoreAliases {
				fmt.Fprintf(out, "alias: %s\n", a)
			}
			for _, r := range p.Redirects {
				fmt.Fprintf(out, "redirect: %s %s -> %s\n", r.Name, r.OldVersion, r.NewVersion)
			}
			return nil
		},
	}
}
