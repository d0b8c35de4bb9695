package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arthur-debert/entigraph/diagram"
	"github.com/arthur-debert/entigraph/persist"
)

// CLI wraps a Cobra root command and a dedicated Viper instance, the
// pattern nanostore/cmd/viper_cli.go uses to keep flag/env/config-file
// precedence in one place rather than scattering os.Getenv calls through
// the command bodies.
type CLI struct {
	v       *viper.Viper
	rootCmd *cobra.Command
}

// NewCLI builds the entigraphctl command tree.
func NewCLI() *CLI {
	cli := &CLI{v: viper.New()}
	cli.setupViper()
	cli.buildRootCommand()
	return cli
}

func (cli *CLI) setupViper() {
	cli.v.AutomaticEnv()
	cli.v.SetEnvPrefix("ENTIGRAPH")
	cli.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cli.v.SetDefault("log-level", "info")
}

func (cli *CLI) buildRootCommand() {
	root := &cobra.Command{
		Use:   "entigraphctl",
		Short: "Demonstrate the entigraph entity graph store",
		Long: `entigraphctl builds a small sample entity tree, registers it, mutates
one of its entities, and re-versions the tree, then renders the result in
different forms depending on the subcommand.

Configuration precedence: command line flags, then ENTIGRAPH_* environment
variables, then defaults.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.v.BindPFlags(cmd.Flags())
		},
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "info", "log level: debug|info|warn|error")
	_ = cli.v.BindPFlag("log-level", flags.Lookup("log-level"))

	root.AddCommand(cli.demoCommand())
	root.AddCommand(cli.diagramCommand())
	root.AddCommand(cli.exportCommand())

	cli.rootCmd = root
}

func (cli *CLI) demoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the sample scenario and print a summary of what changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := initLogging(cli.v.GetString("log-level"))
			result, err := runDemo(logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "project root before: %s\n", result.before.RootEcsID)
			fmt.Fprintf(cmd.OutOrStdout(), "project root after:  %s\n", result.after.RootEcsID)
			fmt.Fprintf(cmd.OutOrStdout(), "modified: %d  moved: %d  added: %d  removed: %d  unchanged: %d\n",
				len(result.diff.Modified), len(result.diff.Moved), len(result.diff.Added),
				len(result.diff.Removed), len(result.diff.Unchanged))
			return nil
		},
	}
}

func (cli *CLI) diagramCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diagram",
		Short: "Print a Mermaid flowchart of the sample scenario's diff",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := initLogging(cli.v.GetString("log-level"))
			result, err := runDemo(logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), diagram.MermaidDiff(result.after, result.diff))
			return nil
		},
	}
}

func (cli *CLI) exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <out.yaml>",
		Short: "Run the sample scenario and export the final tree as a YAML snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := initLogging(cli.v.GetString("log-level"))
			result, err := runDemo(logger)
			if err != nil {
				return err
			}
			snap := persist.ExportTree(result.after)
			if err := persist.WriteFile(context.Background(), args[0], snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote snapshot to %s\n", args[0])
			return nil
		},
	}
	return cmd
}

// Execute runs the CLI against os.Args.
func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func main() {
	if err := NewCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
