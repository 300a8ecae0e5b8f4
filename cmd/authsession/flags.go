package main

import "github.com/urfave/cli/v2"

const (
	flagEmail    = "email"
	flagPassword = "password"
)

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagEmail,
			Aliases: []string{"e"},
			Usage:   "Account email; prompted for when omitted",
		},
		&cli.StringFlag{
			Name:    flagPassword,
			Aliases: []string{"p"},
			Usage:   "Account password; prompted for without echo when omitted",
			EnvVars: []string{"AUTH_PASSWORD"},
		},
	}
}
