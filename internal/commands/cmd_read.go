package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type ReadCmd struct {
	flags *Flags
}

// NewReadCmd creates a new read command
func NewReadCmd(flags *Flags) *ReadCmd {
	return &ReadCmd{flags: flags}
}

// Register adds the read command to the application
func (cmd *ReadCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "read",
		Usage:       "Print the text of a chapter",
		UsageText:   "atreader read WORK_ID CHAPTER_ID",
		Description: "Prints the chapter as the server returns it.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *ReadCmd) run(ctx context.Context, c *cli.Command) error {
	ids, err := intArgs(c, "WORK_ID", "CHAPTER_ID")
	if err != nil {
		return err
	}

	text, err := cmd.flags.App.Repository.FetchChapterText(ctx, ids[0], ids[1])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.Root().Writer, text)
	return err
}
