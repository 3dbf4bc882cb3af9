package commands

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
)

type ContentsCmd struct {
	flags *Flags
}

// NewContentsCmd creates a new contents command
func NewContentsCmd(flags *Flags) *ContentsCmd {
	return &ContentsCmd{flags: flags}
}

// Register adds the contents command to the application
func (cmd *ContentsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "contents",
		Usage:     "List the chapters of a book",
		UsageText: "atreader contents WORK_ID",
		Action:    cmd.run,
	})

	return app
}

func (cmd *ContentsCmd) run(ctx context.Context, c *cli.Command) error {
	ids, err := intArgs(c, "WORK_ID")
	if err != nil {
		return err
	}

	chapters, err := cmd.flags.App.Repository.FetchWorkContent(ctx, ids[0])
	if err != nil {
		return err
	}
	sort.SliceStable(chapters, func(i, j int) bool { return chapters[i].Order < chapters[j].Order })

	w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tID\tTITLE")
	for _, ch := range chapters {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\n", ch.Order, ch.ID, ch.Title)
	}
	return w.Flush()
}
