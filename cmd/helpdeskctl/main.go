// helpdeskctl is a command line client for the help desk API.
//
// Register or log in to obtain a token, then pass it with --token or the
// HELPDESK_TOKEN environment variable:
//
//	helpdeskctl login --email ada@example.edu --password secret
//	export HELPDESK_TOKEN=...
//	helpdeskctl create --name Ada --issue "printer jammed"
//	helpdeskctl tickets --status Open
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/spec-kit/helpdesk/pkg/client"
)

const defaultServer = "http://localhost:8080"

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *cmdEnv, args []string) error
}

type cmdEnv struct {
	api     *client.Client
	session *client.Session
	out     io.Writer
}

var commands = []command{
	{"register", "create an account and print its session", runRegister},
	{"login", "log in and print the session", runLogin},
	{"me", "show the identity behind the token", runMe},
	{"tickets", "list visible tickets", runTickets},
	{"create", "open a ticket", runCreate},
	{"resolve", "resolve a ticket (admin)", runResolve},
	{"delete", "delete a ticket", runDelete},
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintf(os.Stderr, "error: %s\n", apiErr.Message)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		server  string
		token   string
		timeout time.Duration
	)

	flagSet := pflag.NewFlagSet("helpdeskctl", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&server, "server", envOr("HELPDESK_SERVER", defaultServer), "API base URL")
	flagSet.StringVar(&token, "token", os.Getenv("HELPDESK_TOKEN"), "bearer token from login or register")
	flagSet.DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(flagSet)
		return nil
	}

	name := flagSet.Arg(0)
	cmd, ok := lookup(name)
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}

	env := &cmdEnv{
		api: client.New(server, client.WithTimeout(timeout)),
		out: out,
	}
	if token != "" {
		env.session = &client.Session{Token: token}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return cmd.run(ctx, env, flagSet.Args()[1:])
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: helpdeskctl [flags] <command> [command flags]\n\nCommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(os.Stderr, "\nFlags:\n%s", flagSet.FlagUsages())
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
