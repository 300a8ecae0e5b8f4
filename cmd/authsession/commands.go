package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uitable"
	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/identity"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/sessions"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func signUpCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:   "signup",
		Usage:  "Create an account and log in",
		Flags:  credentialFlags(),
		Action: managerAction(cfg, authenticate(cfg, identity.SignUp)),
	}
}

func logInCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Log in with an existing account",
		Flags:  credentialFlags(),
		Action: managerAction(cfg, authenticate(cfg, identity.SignIn)),
	}
}

func logOutCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session",
		Action: managerAction(cfg, func(c *cli.Context, m *auth.Manager) error {
			m.LogOut(c.Context)
			fmt.Fprintln(c.App.Writer, "Logged out.")
			return nil
		}),
	}
}

func statusCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the stored session",
		Action: managerAction(cfg, func(c *cli.Context, m *auth.Manager) error {
			s := m.Restore(c.Context)
			if s == nil {
				fmt.Fprintln(c.App.Writer, "Not logged in.")
				return nil
			}
			printSession(c.App.Writer, s, time.Now())
			return nil
		}),
	}
}

func tokenCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Print the current bearer token",
		Action: managerAction(cfg, func(c *cli.Context, m *auth.Manager) error {
			m.Restore(c.Context)
			tok, err := m.TokenSource().Token()
			if err != nil {
				return cli.Exit(fmt.Sprintf("%s; please use `%s login` to continue", err, c.App.Name), 1)
			}
			fmt.Fprintln(c.App.Writer, tok.AccessToken)
			return nil
		}),
	}
}

func watchCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stay running and report session changes until the session ends",
		Action: managerAction(cfg, func(c *cli.Context, m *auth.Manager) error {
			if m.Restore(c.Context) == nil {
				fmt.Fprintln(c.App.Writer, "Not logged in.")
				return nil
			}

			ended := make(chan struct{})
			var endOnce sync.Once
			unsubscribe := m.Subscribe(func(s *sessions.Session) {
				if s == nil {
					fmt.Fprintf(c.App.Writer, "%s session ended\n", time.Now().Format(time.Kitchen))
					endOnce.Do(func() { close(ended) })
					return
				}
				fmt.Fprintf(c.App.Writer, "%s logged in as %s until %s\n",
					time.Now().Format(time.Kitchen), s.Email(), s.ExpiresAt().Local().Format(time.Kitchen))
			})
			defer unsubscribe()

			select {
			case <-ended:
			case <-c.Context.Done():
			}
			return nil
		}),
	}
}

func authenticate(cfg config.Config, mode identity.Mode) func(c *cli.Context, m *auth.Manager) error {
	return func(c *cli.Context, m *auth.Manager) error {
		if cfg.GetAPIKey() == "" {
			return errors.New("FIREBASE_API_KEY is not set")
		}

		creds, err := newPrompter().credentials(c.String(flagEmail), c.String(flagPassword))
		if err != nil {
			return err
		}
		if err := creds.validate(mode == identity.SignUp); err != nil {
			return cli.Exit(err.Error(), 1)
		}

		var s *sessions.Session
		if mode == identity.SignUp {
			s, err = m.SignUp(c.Context, creds.Email, creds.Password)
		} else {
			s, err = m.LogIn(c.Context, creds.Email, creds.Password)
		}
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		fmt.Fprintf(c.App.Writer, "Logged in as %s.\n", s.Email())
		printSession(c.App.Writer, s, time.Now())
		return nil
	}
}

func printSession(w io.Writer, s *sessions.Session, now time.Time) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("EMAIL", s.Email())
	table.AddRow("USER ID", s.UserID())
	table.AddRow("EXPIRES", s.ExpiresAt().Local().Format(time.RFC1123))
	table.AddRow("REMAINING", s.Remaining(now).Round(time.Second))

	if claims, err := token.Inspect(s.Token()); err == nil {
		table.AddRow("ISSUER", claims.Issuer)
		table.AddRow("SUBJECT", claims.Subject)
	}

	fmt.Fprintln(w, table)
}
