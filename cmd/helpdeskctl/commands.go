package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"
)

var errSessionRequired = errors.New("this command needs --token or HELPDESK_TOKEN")

func runRegister(ctx context.Context, env *cmdEnv, args []string) error {
	var email, password, role string
	flagSet := pflag.NewFlagSet("register", pflag.ContinueOnError)
	flagSet.StringVar(&email, "email", "", "account email")
	flagSet.StringVar(&password, "password", "", "account password")
	flagSet.StringVar(&role, "role", "", "student or admin (default student)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	session, err := env.api.Register(ctx, email, password, role)
	if err != nil {
		return err
	}
	return printJSON(env.out, session)
}

func runLogin(ctx context.Context, env *cmdEnv, args []string) error {
	var email, password string
	flagSet := pflag.NewFlagSet("login", pflag.ContinueOnError)
	flagSet.StringVar(&email, "email", "", "account email")
	flagSet.StringVar(&password, "password", "", "account password")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	session, err := env.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return printJSON(env.out, session)
}

func runMe(ctx context.Context, env *cmdEnv, _ []string) error {
	if env.session == nil {
		return errSessionRequired
	}
	identity, err := env.api.Me(ctx, env.session)
	if err != nil {
		return err
	}
	return printJSON(env.out, identity)
}

func runTickets(ctx context.Context, env *cmdEnv, args []string) error {
	var status string
	flagSet := pflag.NewFlagSet("tickets", pflag.ContinueOnError)
	flagSet.StringVar(&status, "status", "", "filter by Open or Resolved")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	// A missing session is sent anonymously; the server decides.
	tickets, err := env.api.ListTickets(ctx, env.session, status)
	if err != nil {
		return err
	}
	return printJSON(env.out, tickets)
}

func runCreate(ctx context.Context, env *cmdEnv, args []string) error {
	var name, issue string
	flagSet := pflag.NewFlagSet("create", pflag.ContinueOnError)
	flagSet.StringVar(&name, "name", "", "student name shown on the ticket")
	flagSet.StringVar(&issue, "issue", "", "issue description")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if env.session == nil {
		return errSessionRequired
	}
	ticket, err := env.api.CreateTicket(ctx, env.session, name, issue)
	if err != nil {
		return err
	}
	return printJSON(env.out, ticket)
}

func runResolve(ctx context.Context, env *cmdEnv, args []string) error {
	id, err := singleID("resolve", args)
	if err != nil {
		return err
	}
	if env.session == nil {
		return errSessionRequired
	}
	ticket, err := env.api.ResolveTicket(ctx, env.session, id)
	if err != nil {
		return err
	}
	return printJSON(env.out, ticket)
}

func runDelete(ctx context.Context, env *cmdEnv, args []string) error {
	id, err := singleID("delete", args)
	if err != nil {
		return err
	}
	if env.session == nil {
		return errSessionRequired
	}
	if err := env.api.DeleteTicket(ctx, env.session, id); err != nil {
		return err
	}
	_, err = fmt.Fprintf(env.out, "deleted %s\n", id)
	return err
}

func singleID(name string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: helpdeskctl %s <ticket-id>", name)
	}
	return args[0], nil
}
