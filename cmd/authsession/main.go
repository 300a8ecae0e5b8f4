package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "\n%s\n\n", err)
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	cfg := config.New()
	setupLogging(cfg.GetLogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newApp(cfg).RunContext(ctx, os.Args)
}

func newApp(cfg config.Config) *cli.App {
	app := cli.NewApp()
	app.Name = cfg.GetAppName()
	app.Usage = "Sign in to the identity provider and keep the session across runs"
	app.Commands = []*cli.Command{
		signUpCommand(cfg),
		logInCommand(cfg),
		logOutCommand(cfg),
		statusCommand(cfg),
		tokenCommand(cfg),
		watchCommand(cfg),
	}
	app.Action = func(c *cli.Context) error {
		displayAppname(cfg.GetAppName())
		return cli.ShowAppHelp(c)
	}
	return app
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
