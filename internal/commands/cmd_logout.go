package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type LogoutCmd struct {
	flags *Flags
}

// NewLogoutCmd creates a new logout command
func NewLogoutCmd(flags *Flags) *LogoutCmd {
	return &LogoutCmd{flags: flags}
}

// Register adds the logout command to the application
func (cmd *LogoutCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "logout",
		Usage:       "Forget the stored session",
		UsageText:   "atreader logout",
		Description: "Removes the session from the OS secret store. Works offline.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *LogoutCmd) run(ctx context.Context, c *cli.Command) error {
	if err := cmd.flags.App.Auth.Logout(); err != nil {
		return err
	}
	cmd.flags.App.Coordinator.DidLogout()
	fmt.Fprintln(c.Root().Writer, "Signed out")
	return nil
}
