package commands

import (
	"context"
	"fmt"

	"github.com/jrsteele09/atreader/sso"
	"github.com/urfave/cli/v3"
)

type SSOCmd struct {
	flags  *Flags
	cookie string
}

// NewSSOCmd creates a new sso command
func NewSSOCmd(flags *Flags) *SSOCmd {
	return &SSOCmd{flags: flags}
}

// Register adds the sso command to the application
func (cmd *SSOCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "sso",
		Usage:     "Sign in on the website's own login page",
		UsageText: "atreader sso [--cookie VALUE]",
		Description: `Opens a browser window on the login page and waits until the site sets its
login cookie, then trades it for an API token. Close the window or press
Ctrl+C to cancel. With --cookie the browser is skipped and the given login
cookie value is exchanged directly.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "cookie",
				Usage:       "exchange this login cookie value instead of opening a browser",
				Destination: &cmd.cookie,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *SSOCmd) run(ctx context.Context, c *cli.Command) error {
	container := cmd.flags.App
	out := c.Root().Writer

	var err error
	if cmd.cookie != "" {
		_, err = container.Auth.LoginWithSSO(ctx, sso.Cookie{
			Name:  container.Config.GetLoginCookieName(),
			Value: cmd.cookie,
		})
	} else {
		fmt.Fprintln(out, "Complete the sign-in in the browser window...")
		_, err = container.Auth.LoginWithBrowser(ctx, container.NewSurface())
	}
	if err != nil {
		return err
	}

	state := container.Coordinator.DidLogin(ctx)
	if user := container.Coordinator.User(); user != nil {
		fmt.Fprintf(out, "Signed in as %s\n", user.Username)
		return nil
	}
	fmt.Fprintf(out, "Signed in (%s)\n", state)
	return nil
}
