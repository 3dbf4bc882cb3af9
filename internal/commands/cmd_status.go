package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/jrsteele09/atreader/bootstrap"
	"github.com/urfave/cli/v3"
)

type StatusCmd struct {
	flags *Flags
}

// NewStatusCmd creates a new status command
func NewStatusCmd(flags *Flags) *StatusCmd {
	return &StatusCmd{flags: flags}
}

// Register adds the status command to the application
func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "status",
		Usage:       "Validate the stored session with the server",
		UsageText:   "atreader status",
		Description: "A session the server rejects is removed.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *StatusCmd) run(ctx context.Context, c *cli.Command) error {
	container := cmd.flags.App
	out := c.Root().Writer

	state := container.Coordinator.Bootstrap(ctx)
	if state != bootstrap.StateAuthenticated {
		fmt.Fprintln(out, "Not signed in")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if user := container.Coordinator.User(); user != nil {
		_, _ = fmt.Fprintf(w, "User:\t%s (id %d)\n", user.Username, user.ID)
	}
	if s := container.Auth.CurrentSession(); s != nil {
		_, _ = fmt.Fprintf(w, "Expires:\t%s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04"))
		_, _ = fmt.Fprintf(w, "Refreshable:\t%t\n", s.RefreshToken != nil)
	}
	return w.Flush()
}
