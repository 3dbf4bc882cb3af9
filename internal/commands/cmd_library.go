package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/jrsteele09/atreader/reader"
	"github.com/urfave/cli/v3"
)

type LibraryCmd struct {
	flags    *Flags
	page     int
	pageSize int
}

// NewLibraryCmd creates a new library command
func NewLibraryCmd(flags *Flags) *LibraryCmd {
	return &LibraryCmd{flags: flags}
}

// Register adds the library command to the application
func (cmd *LibraryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "library",
		Aliases:   []string{"ls"},
		Usage:     "List the books in your library",
		UsageText: "atreader library [--page N] [--page-size N]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "page",
				Usage:       "page number, starting at 1",
				Value:       reader.DefaultPage,
				Destination: &cmd.page,
			},
			&cli.IntFlag{
				Name:        "page-size",
				Usage:       "books per page",
				Value:       reader.DefaultPageSize,
				Destination: &cmd.pageSize,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LibraryCmd) run(ctx context.Context, c *cli.Command) error {
	works, err := cmd.flags.App.Repository.FetchLibrary(ctx, cmd.page, cmd.pageSize)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if len(works) == 0 {
		fmt.Fprintln(out, "No books found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tAUTHOR")
	for _, work := range works {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", work.ID, work.Title, work.AuthorName)
	}
	return w.Flush()
}
