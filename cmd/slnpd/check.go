package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stuffbucket/slnpd/internal/schema"
	"github.com/stuffbucket/slnpd/internal/server"
	"github.com/stuffbucket/slnpd/internal/slnp"
)

var checkFlags struct {
	schemaPath        string
	rejectUnspecified bool
	quiet             bool
}

var checkCmd = &cobra.Command{
	Use:   "check [file|-]",
	Short: "Parse and validate SLNP requests offline",
	Long: `Parse every request in a file (or stdin) and validate it against the command
schema without contacting a server. Prints the parameter tree of each valid
request and the wire error of each invalid one.

Examples:
  slnpd check order.slnp
  slnpd check --schema custom.yaml - < requests.slnp`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkFlags.schemaPath, "schema", "", "Command schema YAML (default: built-in ILL schema)")
	f.BoolVar(&checkFlags.rejectUnspecified, "reject-unspecified", false, "Reject parameters not declared in the schema")
	f.BoolVarP(&checkFlags.quiet, "quiet", "q", false, "Only print failures")
}

var errInvalidRequests = errors.New("invalid requests")

func runCheck(cmd *cobra.Command, args []string) error {
	in, closeIn, err := openInput(args)
	if err != nil {
		return err
	}
	defer closeIn()

	reg, err := schema.Load(checkFlags.schemaPath)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	out := cmd.OutOrStdout()
	frames := server.NewFrameReader(in, 0)
	var total, failed int
	for {
		frame, err := frames.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read requests: %w", err)
		}
		total++
		if !checkFrame(out, reg, frame) {
			failed++
		}
	}

	if total == 0 {
		return errors.New("no complete request found (missing SLNPEndCommand?)")
	}
	fmt.Fprintln(out)
	if failed > 0 {
		fmt.Fprintf(out, "%s %d of %d requests invalid\n", errorf("✗"), failed, total)
		return errInvalidRequests
	}
	fmt.Fprintf(out, "%s %d requests valid\n", success("✓"), total)
	return nil
}

func checkFrame(out io.Writer, reg *schema.Registry, frame server.Frame) bool {
	if frame.Terminator == slnp.TokenQuit {
		// A server drops whatever precedes SLNPQuit in the same frame.
		if !checkFlags.quiet {
			note := "(ends session)"
			if frame.Lines > 1 {
				note = fmt.Sprintf("(ends session, %d preceding lines ignored)", frame.Lines-1)
			}
			fmt.Fprintf(out, "%s %s\n", key(slnp.TokenQuit), subtle(note))
		}
		return true
	}

	tree := slnp.Parse(frame.Raw)
	if tree.Valid {
		cmd, _ := reg.Lookup(schema.CommandName(tree.Name))
		slnp.Validate(tree, cmd, checkFlags.rejectUnspecified)
	}

	if !tree.Valid {
		name := tree.Name
		if name == "" {
			name = "request"
		}
		fmt.Fprintf(out, "%s %s\n", errorf("✗"), key(name))
		fmt.Fprintf(out, "  %s\n", errorf(strings.TrimSuffix(slnp.Render(tree.Name, slnp.Failure(tree.Err)), "\n")))
		if tree.ErrLine > 0 {
			fmt.Fprintf(out, "  %s %d: %s\n", subtle("line"), tree.ErrLine, value(tree.ErrText))
		}
		return false
	}

	if checkFlags.quiet {
		return true
	}
	fmt.Fprintf(out, "%s %s %s\n", success("✓"), key(tree.Name),
		subtle(fmt.Sprintf("(%d params, %d groups)", tree.LeafCount(), tree.Groups())))
	for _, e := range tree.Entries() {
		indent := strings.Repeat("  ", e.Level)
		fmt.Fprintf(out, "%s%s %s=%s\n", indent, subtle(e.Key), key(e.Name), value(e.Value))
	}
	return true
}

// openInput opens the file named by args, or stdin for "-" or no argument.
func openInput(args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
