package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/jrsteele09/atreader/auth"
	"github.com/jrsteele09/atreader/internal/app"
	"github.com/jrsteele09/atreader/internal/commands"
	"github.com/jrsteele09/atreader/internal/config"
	"github.com/jrsteele09/atreader/session/keyring"
)

const appName = "atreader"

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	if err := setupLogger("info", os.Stderr); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	flags := &commands.Flags{}

	root := &cli.Command{
		Name:        appName,
		Usage:       "Read your author.today library from the terminal",
		UsageText:   "atreader [global options] command [command options]",
		Description: "Sign in with a password or through the website, then browse and read your library.",
		Version:     build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (trace, debug, info, warn, error)",
				Sources:     cli.EnvVars("ATREADER_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("ATREADER_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "lang",
				Usage:       "language for messages (en, ru)",
				Value:       commands.DefaultLang(),
				Destination: &flags.Lang,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := setupLogger(flags.LogLevel, os.Stderr); err != nil {
				return ctx, err
			}

			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			store, err := keyring.New(cfg.GetKeyringService())
			if err != nil {
				return ctx, err
			}

			flags.App, err = app.New(cfg, store, log.Logger)
			if err != nil {
				return ctx, err
			}
			return ctx, nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() > 0 {
				return fmt.Errorf("unknown command %q. Run 'atreader --help' for usage", c.Args().First())
			}
			displayAppname(c.Root().Writer)
			fmt.Fprintln(c.Root().Writer, "Run 'atreader --help' for usage")
			return nil
		},
	}

	root = commands.NewLoginCmd(flags).Register(root)
	root = commands.NewSSOCmd(flags).Register(root)
	root = commands.NewLogoutCmd(flags).Register(root)
	root = commands.NewStatusCmd(flags).Register(root)
	root = commands.NewLibraryCmd(flags).Register(root)
	root = commands.NewContentsCmd(flags).Register(root)
	root = commands.NewReadCmd(flags).Register(root)
	root = commands.NewProgressCmd(flags).Register(root)

	exitCode := 0
	if err := root.Run(ctx, os.Args); err != nil {
		log.Debug().Err(err).Msg("Command failed")
		if auth.Known(err) {
			fmt.Fprintln(os.Stderr, auth.UserMessage(err, flags.Language()))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		exitCode = 1
	}

	stop()
	os.Exit(exitCode)
}

func setupLogger(level string, out io.Writer) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out}).Level(parsedLevel)
	return nil
}

func displayAppname(out io.Writer) {
	myFigure := figure.NewFigure(appName, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}
