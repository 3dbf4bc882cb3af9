package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/jrsteele09/atreader/reader"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

type ProgressCmd struct {
	flags   *Flags
	offset  float64
	percent float64
}

// NewProgressCmd creates a new progress command
func NewProgressCmd(flags *Flags) *ProgressCmd {
	return &ProgressCmd{flags: flags}
}

// Register adds the progress command to the application
func (cmd *ProgressCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "progress",
		Usage: "Sync reading positions",
		Commands: []*cli.Command{
			{
				Name:      "sync",
				Usage:     "Fetch reading positions from the server",
				UsageText: "atreader progress sync",
				Action:    cmd.runSync,
			},
			{
				Name:      "push",
				Usage:     "Send a reading position to the server",
				UsageText: "atreader progress push --percent 42 WORK_ID CHAPTER_ID",
				Flags: []cli.Flag{
					&cli.FloatFlag{
						Name:        "offset",
						Usage:       "scroll offset within the chapter",
						Destination: &cmd.offset,
					},
					&cli.FloatFlag{
						Name:        "percent",
						Usage:       "percentage of the chapter read (0-100)",
						Destination: &cmd.percent,
					},
				},
				Action: cmd.runPush,
			},
		},
	})

	return app
}

func (cmd *ProgressCmd) runSync(ctx context.Context, c *cli.Command) error {
	container := cmd.flags.App

	applied, err := container.Progress.Pull(ctx)
	if err != nil {
		return err
	}

	positions, err := container.Progress.Local()
	if err != nil {
		return err
	}

	out := c.Root().Writer
	fmt.Fprintf(out, "%d position(s) updated\n", applied)
	if len(positions) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WORK\tCHAPTER\tPERCENT\tUPDATED")
	for _, p := range positions {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%.1f\t%s\n", p.WorkID, p.ChapterID, p.Percent, p.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (cmd *ProgressCmd) runPush(ctx context.Context, c *cli.Command) error {
	ids, err := intArgs(c, "WORK_ID", "CHAPTER_ID")
	if err != nil {
		return err
	}
	if cmd.percent < 0 || cmd.percent > 100 {
		return errors.Wrapf(apperrors.ErrInvalidInput, "percent must be between 0 and 100, got %v", cmd.percent)
	}

	err = cmd.flags.App.Progress.Record(ctx, reader.ReadingPosition{
		WorkID:    ids[0],
		ChapterID: ids[1],
		Offset:    cmd.offset,
		Percent:   cmd.percent,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Root().Writer, "Position saved")
	return nil
}
