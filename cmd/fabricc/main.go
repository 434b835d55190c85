// Command fabricc is the thin CLI wrapper around internal/compiler's
// callable operations (spec §6). The CLI surface itself is
// deliberately minimal: it maps flags onto the core's functions and
// reports the core's exit codes, nothing more.
package main

import (
	"fmt"
	"os"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/compiler"
	"github.com/shubham184/fabric-compiler/internal/config"
	"github.com/shubham184/fabric-compiler/internal/graphexport"
	"github.com/shubham184/fabric-compiler/internal/state"
	"github.com/spf13/cobra"
)

// loadSettings reads an optional fabric.yaml from root and layers the
// CLI-supplied overrides on top (spec §9); unknown fabric.yaml keys
// are a load error, not a silent pass-through.
func loadSettings(root string, overrides config.Settings) (*config.Settings, error) {
	overrides.Root = root
	return config.Load(root, overrides)
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	if coder, ok := err.(cerrors.ExitCoder); ok {
		return coder.ExitCode()
	}
	return 1
}

func rootCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "fabricc",
		Short: "Compile declarative model definitions into dialect SQL",
	}
	cmd.PersistentFlags().StringVar(&root, "root", ".", "model definitions root directory")

	cmd.AddCommand(
		generateCmd(&root),
		validateCmd(&root),
		stateCmd(&root),
		exportGraphCmd(&root),
	)
	return cmd
}

func generateCmd(root *string) *cobra.Command {
	var outDir, dialectName string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate SQL artifacts for every model",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*root, config.Settings{OutDir: outDir, Dialect: dialectName})
			if err != nil {
				return err
			}
			result, err := compiler.Generate(settings.Root, settings.OutDir, settings.Dialect)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d artifact(s)\n", len(result.Artifacts))
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "output directory for generated SQL (overrides fabric.yaml)")
	cmd.Flags().StringVar(&dialectName, "dialect", "", "target SQL dialect (overrides fabric.yaml)")
	return cmd
}

func validateCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the model corpus without generating SQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*root, config.Settings{})
			if err != nil {
				return err
			}
			diags, err := compiler.Validate(settings.Root)
			for _, d := range diags {
				fmt.Fprintln(cmd.ErrOrStderr(), d.String())
			}
			return err
		},
	}
}

func stateCmd(root *string) *cobra.Command {
	cmd := &cobra.Command{Use: "state", Short: "Inspect and update per-environment snapshots"}

	var env string
	cmd.PersistentFlags().StringVar(&env, "env", "", "target environment (overrides fabric.yaml)")

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Snapshot the current corpus for an environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*root, config.Settings{Env: env})
			if err != nil {
				return err
			}
			_, err = compiler.InitState(settings.Root, settings.Env)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the persisted snapshot for an environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*root, config.Settings{Env: env})
			if err != nil {
				return err
			}
			snap, exists, err := compiler.ShowState(settings.Root, settings.Env)
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintln(cmd.OutOrStdout(), "no snapshot")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d model(s) in snapshot\n", len(snap.Models))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "plan",
		Short: "Diff the current corpus against the persisted snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*root, config.Settings{Env: env})
			if err != nil {
				return err
			}
			changes, _, err := compiler.Plan(settings.Root, settings.Env)
			if err != nil {
				return err
			}
			for _, c := range changes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.Kind, c.Model)
			}
			return nil
		},
	})

	var modeFlag string
	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the plan, writing the updated snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*root, config.Settings{Env: env, Mode: modeFlag})
			if err != nil {
				return err
			}
			changes, err := compiler.Apply(settings.Root, settings.Env, state.Mode(settings.Mode))
			if err != nil {
				return err
			}
			for _, c := range changes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.Kind, c.Model)
			}
			return nil
		},
	}
	applyCmd.Flags().StringVar(&modeFlag, "mode", "", "dry-run|auto-apply|confirm (overrides fabric.yaml)")
	cmd.AddCommand(applyCmd)

	return cmd
}

func exportGraphCmd(root *string) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export-graph",
		Short: "Export the dependency graph for lineage tooling",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*root, config.Settings{})
			if err != nil {
				return err
			}
			out, err := compiler.ExportGraph(settings.Root, graphexport.Format(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(graphexport.FormatNodesEdges), "nodes_edges|hierarchical")
	return cmd
}
