package commands

import (
	"strconv"

	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// intArgs parses the command's positional arguments as positive ids.
func intArgs(c *cli.Command, names ...string) ([]int, error) {
	if c.Args().Len() != len(names) {
		return nil, errors.Wrapf(apperrors.ErrInvalidInput, "expected %d argument(s), got %d", len(names), c.Args().Len())
	}
	out := make([]int, len(names))
	for i, name := range names {
		v, err := strconv.Atoi(c.Args().Get(i))
		if err != nil || v <= 0 {
			return nil, errors.Wrapf(apperrors.ErrInvalidInput, "%s must be a positive integer, got %q", name, c.Args().Get(i))
		}
		out[i] = v
	}
	return out, nil
}
