package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"
)

// Provider minimum for new accounts
const minPasswordLength = 6

type credentials struct {
	Email    string
	Password string
}

// validate enforces the caller-side preconditions of a credential exchange.
func (cr credentials) validate(newAccount bool) error {
	passwordRules := []validation.Rule{validation.Required}
	if newAccount {
		passwordRules = append(passwordRules, validation.RuneLength(minPasswordLength, 0))
	}
	if err := validation.Validate(cr.Email, validation.Required, is.Email); err != nil {
		return errors.Wrap(err, "email")
	}
	if err := validation.Validate(cr.Password, passwordRules...); err != nil {
		return errors.Wrap(err, "password")
	}
	return nil
}

// prompter reads whatever credentials were not supplied as flags.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

func newPrompter() *prompter {
	return &prompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stderr,
		fd:  int(os.Stdin.Fd()),
	}
}

func (p *prompter) credentials(email, password string) (credentials, error) {
	var err error
	if email == "" {
		if email, err = p.readLine("Email: "); err != nil {
			return credentials{}, errors.Wrap(err, "error reading email")
		}
	}
	if password == "" {
		if password, err = p.readPassword("Password: "); err != nil {
			return credentials{}, errors.Wrap(err, "error reading password")
		}
	}
	return credentials{Email: strings.TrimSpace(email), Password: password}, nil
}

func (p *prompter) readLine(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *prompter) readPassword(label string) (string, error) {
	if !terminal.IsTerminal(p.fd) {
		return p.readLine(label)
	}
	fmt.Fprint(p.out, label)
	password, err := terminal.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
