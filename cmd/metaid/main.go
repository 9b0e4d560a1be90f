// Package main implements metaid, a command-line tool for inspecting
// assembly identities and interned type shapes.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/you-not-fish/metaid/internal/host"
	"github.com/you-not-fish/metaid/internal/intern"
	"github.com/you-not-fish/metaid/internal/types"
)

// Version information
const Version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globals holds the persistent flags and what is built from them.
type globals struct {
	verbose     bool
	config      string
	pointerSize int64

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "metaid",
		Short:         "Inspect assembly identities and interned type shapes",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if g.verbose {
				level = slog.LevelDebug
			}
			g.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log resolution and unification decisions")
	root.PersistentFlags().StringVar(&g.config, "config", "", "unification policy file (.yaml, .yml, or .toml)")
	root.PersistentFlags().Int64Var(&g.pointerSize, "pointer-size", 8, "pointer size in bytes for size calculations")

	root.AddCommand(
		newIdentityCmd(g),
		newEqualCmd(g),
		newUnifyCmd(g),
		newInternCmd(g),
		newPolicyCmd(g),
	)
	return root
}

// newHost creates a host configured from the persistent flags. table may
// be nil.
func (g *globals) newHost(table *intern.Table) (*host.Host, error) {
	opts := []host.Option{host.WithLogger(g.logger)}
	if g.config != "" {
		p, err := host.LoadPolicy(g.config)
		if err != nil {
			return nil, err
		}
		g.logger.Debug("policy loaded", "path", g.config, "redirects", len(p.Redirects))
		opts = append(opts, host.WithPolicy(p))
	}
	uopts := []types.Option{types.WithPointerSize(g.pointerSize)}
	if table != nil {
		uopts = append(uopts, types.WithTable(table))
	}
	opts = append(opts, host.WithUniverseOptions(uopts...))
	return host.New(opts...)
}
