package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stuffbucket/slnpd/internal/schema"
)

var schemaFlags struct {
	path    string
	verbose bool
}

var schemaCmd = &cobra.Command{
	Use:   "schema [command]",
	Short: "List the commands and parameters of a schema",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSchema,
}

func init() {
	f := schemaCmd.Flags()
	f.StringVar(&schemaFlags.path, "schema", "", "Command schema YAML (default: built-in ILL schema)")
	f.BoolVarP(&schemaFlags.verbose, "verbose", "v", false, "Show parameter patterns")
}

func runSchema(cmd *cobra.Command, args []string) error {
	reg, err := schema.Load(schemaFlags.path)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	cmds := reg.Commands()
	if len(args) == 1 {
		c, ok := reg.Lookup(schema.CommandName(args[0]))
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		cmds = []*schema.Command{c}
	}

	out := cmd.OutOrStdout()
	for i, c := range cmds {
		if i > 0 {
			fmt.Fprintln(out)
		}
		header := fmt.Sprintf("%s %s", title(string(c.Name)), subtle("-> "+string(c.Handler)))
		if c.Login {
			header += " " + warning("[login]")
		}
		fmt.Fprintln(out, header)
		for _, p := range c.Params {
			mark := " "
			if p.Mandatory {
				mark = "*"
			}
			fmt.Fprintf(out, "  %s %s %s", mark, key(p.Name), subtle(fmt.Sprintf("level %d", p.Level)))
			if schemaFlags.verbose {
				fmt.Fprintf(out, " %s", value(p.Pattern.String()))
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}
