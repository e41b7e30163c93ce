// quiche-admin exposes the Target Registry's and Build Engine's own
// introspection surface: alias/generator resolution traces, relevant-
// parameter gathering, and dependency reports. It is not a build-runner
// frontend — it always operates against a small fixed demonstration
// target graph (see registerDemoTargets) so the subcommands below have
// something real to introspect without this tool parsing a user-authored
// build script.
//
// Usage:
//
//	quiche-admin resolve <target>
//	quiche-admin relevant <target>
//	quiche-admin report <target>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solsword/quiche"
	"github.com/solsword/quiche/engine"
)

var storePath string
var inMemory bool

func main() {
	root := &cobra.Command{
		Use:   "quiche-admin",
		Short: "Introspect a quiche target registry and dependency graph",
	}
	root.PersistentFlags().StringVar(&storePath, "store", "", "Path to the BadgerDB store directory (overrides QUICHE_STORE_DIR env var)")
	root.PersistentFlags().BoolVar(&inMemory, "memory", false, "Use an in-memory store instead of --store")

	root.AddCommand(resolveCmd())
	root.AddCommand(relevantCmd())
	root.AddCommand(reportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "quiche-admin: %v\n", err)
		os.Exit(1)
	}
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <target>",
		Short: "Print the resolution trace for a target name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine()
			if err != nil {
				return err
			}
			fmt.Println(e.ResolveTrace(args[0]))
			return nil
		},
	}
}

func relevantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relevant <target>",
		Short: "List a target's relevant parameter names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine()
			if err != nil {
				return err
			}
			names, err := e.Relevant(args[0])
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("(no relevant parameters)")
				return nil
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <target>",
		Short: "Print a recursive dependency report for a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine()
			if err != nil {
				return err
			}
			fmt.Print(e.DependencyReport(args[0]))
			return nil
		},
	}
}

func buildEngine() (*engine.Engine, error) {
	cfg := quiche.Config{StorePath: storePath, InMemoryStore: inMemory}
	if cfg.StorePath == "" && !cfg.InMemoryStore {
		if env := os.Getenv("QUICHE_STORE_DIR"); env != "" {
			cfg.StorePath = env
		} else {
			cfg.InMemoryStore = true
		}
	}

	e, err := quiche.NewDefault(cfg)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	if err := registerDemoTargets(e); err != nil {
		return nil, fmt.Errorf("register demo targets: %w", err)
	}
	return e, nil
}

// registerDemoTargets installs a small fixed target graph so resolve,
// relevant, and report have something concrete to walk: a base value, a
// scaled derivative parameterized by "rate", and a template generator
// producing one scored target per named model.
func registerDemoTargets(e *engine.Engine) error {
	if err := e.Task(nil, []string{"seed"}, "base", nil, func(inputs []any, params map[string]any) (any, error) {
		seed, _ := params["seed"].(int)
		return seed, nil
	}); err != nil {
		return err
	}
	if err := e.Task([]string{"base"}, []string{"rate"}, "scaled", nil, func(inputs []any, params map[string]any) (any, error) {
		base, _ := inputs[0].(int)
		rate, _ := params["rate"].(int)
		return base * rate, nil
	}); err != nil {
		return err
	}
	if err := e.TemplateTask(
		[]string{"scaled"},
		nil,
		"score:{model}",
		nil,
		func(groups map[string]string, inputs []any, params map[string]any) (any, error) {
			return fmt.Sprintf("score for %s: %v", groups["model"], inputs[0]), nil
		},
	); err != nil {
		return err
	}
	e.AddAlias("latest", "scaled")
	return nil
}
