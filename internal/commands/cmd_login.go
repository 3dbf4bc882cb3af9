package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

type LoginCmd struct {
	flags         *Flags
	email         string
	passwordStdin bool
}

// NewLoginCmd creates a new login command
func NewLoginCmd(flags *Flags) *LoginCmd {
	return &LoginCmd{flags: flags}
}

// Register adds the login command to the application
func (cmd *LoginCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "login",
		Usage:       "Sign in with e-mail and password",
		UsageText:   "atreader login --email you@example.com",
		Description: "Prompts for the password without echo. Use --password-stdin to pipe it in.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "account e-mail or login",
				Sources:     cli.EnvVars("ATREADER_EMAIL"),
				Destination: &cmd.email,
			},
			&cli.BoolFlag{
				Name:        "password-stdin",
				Usage:       "read the password from stdin",
				Destination: &cmd.passwordStdin,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LoginCmd) run(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer
	in := bufio.NewReader(c.Root().Reader)

	email := cmd.email
	if email == "" && !cmd.passwordStdin {
		fmt.Fprint(out, "E-mail: ")
		line, err := readLine(in)
		if err != nil {
			return err
		}
		email = line
	}

	password, err := cmd.readPassword(c, in)
	if err != nil {
		return err
	}

	s, err := cmd.flags.App.Auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	cmd.flags.App.Coordinator.DidLogin(ctx)

	fmt.Fprintf(out, "Signed in. Session valid until %s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func (cmd *LoginCmd) readPassword(c *cli.Command, in *bufio.Reader) (string, error) {
	if !cmd.passwordStdin {
		if f, ok := c.Root().Reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			fmt.Fprint(c.Root().ErrWriter, "Password: ")
			secret, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(c.Root().ErrWriter)
			if err != nil {
				return "", fmt.Errorf("read password: %w", err)
			}
			return string(secret), nil
		}
	}
	return readLine(in)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
