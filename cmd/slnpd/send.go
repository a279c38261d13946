package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stuffbucket/slnpd/internal/config"
	"github.com/stuffbucket/slnpd/internal/server"
	"github.com/stuffbucket/slnpd/internal/slnp"
)

var sendFlags struct {
	addr      string
	transport string
	timeout   time.Duration
	raw       bool
}

var sendCmd = &cobra.Command{
	Use:   "send [file|-]",
	Short: "Send SLNP requests to a running server",
	Long: `Send every request in a file (or stdin) over one session and print the
responses. A request without a terminator line gets SLNPEndCommand appended.
The session ends with SLNPQuit.

Examples:
  slnpd send --addr ill.example.org:9001 order.slnp
  printf 'SLNPAlive\nSLNPEndCommand\n' | slnpd send`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

func init() {
	f := sendCmd.Flags()
	f.StringVarP(&sendFlags.addr, "addr", "a", "127.0.0.1"+config.DefaultListenAddr, "Server address or socket path")
	f.StringVar(&sendFlags.transport, "transport", server.TransportTCP, "Transport: tcp or unix")
	f.DurationVar(&sendFlags.timeout, "timeout", 5*time.Second, "Dial and response timeout")
	f.BoolVar(&sendFlags.raw, "raw", false, "Print responses without styling")
}

func runSend(cmd *cobra.Command, args []string) error {
	in, closeIn, err := openInput(args)
	if err != nil {
		return err
	}
	defer closeIn()

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read requests: %w", err)
	}
	requests := splitRequests(string(data))
	if len(requests) == 0 {
		return errors.New("no requests to send")
	}

	transport, err := server.TransportByName(sendFlags.transport)
	if err != nil {
		return err
	}
	client := server.NewClient(server.ClientConfig{
		Address:   sendFlags.addr,
		Transport: transport,
		Timeout:   sendFlags.timeout,
	})
	conn, err := client.Dial()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Quit() }()

	out := cmd.OutOrStdout()
	for _, req := range requests {
		resp, err := conn.Send(req)
		printResponse(out, resp)
		if err != nil {
			return err
		}
	}
	return nil
}

// splitRequests cuts text into requests at terminator lines. Trailing text
// without a terminator becomes a final request; a quit line stops the list.
func splitRequests(text string) []string {
	var (
		out []string
		cur []string
	)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		tok, ok := slnp.IsTerminator(line)
		if ok && tok == slnp.TokenQuit {
			return out
		}
		if strings.TrimSpace(line) == "" && len(cur) == 0 {
			continue
		}
		cur = append(cur, line)
		if ok {
			out = append(out, strings.Join(cur, "\n")+"\n")
			cur = nil
		}
	}
	if len(cur) > 0 && strings.TrimSpace(strings.Join(cur, "")) != "" {
		out = append(out, strings.Join(cur, "\n"))
	}
	return out
}

func printResponse(out io.Writer, resp string) {
	for _, line := range strings.Split(strings.TrimSuffix(resp, "\n"), "\n") {
		if line == "" {
			continue
		}
		if sendFlags.raw {
			fmt.Fprintln(out, line)
			continue
		}
		fmt.Fprintln(out, codeStyle(line))
	}
}
