package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/riadafridishibly/hashreport/app"
	"github.com/riadafridishibly/hashreport/digest"
	"github.com/riadafridishibly/hashreport/log"
)

var version = "dev"

func newCLI() *cli.App {
	cliApp := cli.NewApp()
	cliApp.Name = filepath.Base(os.Args[0])
	cliApp.Usage = "write a size and content hash report for every file under a directory"
	cliApp.ArgsUsage = "<directory> <report_filename>"
	cliApp.Version = version
	// No subcommands: "help" must stay usable as a directory name.
	cliApp.HideHelp = true
	cliApp.Flags = []cli.Flag{
		cli.HelpFlag,
		cli.BoolFlag{
			Name:   "absolute-paths, a",
			Usage:  "use absolute paths in the report instead of paths relative to <directory>",
			EnvVar: "HASHREPORT_ABSOLUTE_PATHS",
		},
		cli.StringFlag{
			Name:   "hashalgo, ha",
			Usage:  "hash algorithm (" + strings.Join(digest.Names(), ", ") + ")",
			Value:  digest.DefaultAlgorithm,
			EnvVar: "HASHREPORT_HASHALGO",
		},
		cli.IntFlag{
			Name:   "start-at",
			Usage:  "index into the file list to begin hashing from; the report is truncated",
			EnvVar: "HASHREPORT_START_AT",
		},
		cli.BoolFlag{
			Name:   "record",
			Usage:  "record the run in the journal so it can be resumed with --resume",
			EnvVar: "HASHREPORT_RECORD",
		},
		cli.BoolFlag{
			Name:   "resume",
			Usage:  "append the entries missing from an interrupted report recorded in the journal",
			EnvVar: "HASHREPORT_RESUME",
		},
		cli.StringFlag{
			Name:   "journal",
			Usage:  "path of the run journal database, implies --record (default: user cache directory)",
			EnvVar: "HASHREPORT_JOURNAL",
		},
	}
	cliApp.Action = runAction

	log.ConfigureLogging(cliApp)

	return cliApp
}

func runAction(c *cli.Context) error {
	if c.Bool("help") {
		return cli.ShowAppHelp(c)
	}
	if c.NArg() != 2 {
		_ = cli.ShowAppHelp(c)
		return cli.NewExitError("expected <directory> and <report_filename>", 1)
	}

	a, err := app.NewApp(app.Config{
		Directory:     c.Args().Get(0),
		Report:        c.Args().Get(1),
		AbsolutePaths: c.Bool("absolute-paths"),
		Algorithm:     c.String("hashalgo"),
		StartAt:       c.Int("start-at"),
		Record:        c.Bool("record"),
		Resume:        c.Bool("resume"),
		JournalPath:   c.String("journal"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}

// flagsFirst moves flags ahead of the positional arguments so they may be
// given in either place, as in "hashreport dir report.tsv --start-at 5".
// Everything after "--" is left positional.
func flagsFirst(cliApp *cli.App, args []string) []string {
	takesValue := map[string]bool{}
	for _, f := range cliApp.Flags {
		if _, ok := f.(cli.BoolFlag); ok {
			continue
		}
		for _, name := range strings.Split(f.GetName(), ",") {
			takesValue[strings.TrimSpace(name)] = true
		}
	}

	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			positional = append(positional, arg)
			continue
		}

		flags = append(flags, arg)
		name := strings.TrimLeft(arg, "-")
		if !strings.Contains(name, "=") && takesValue[name] && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}

	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

func main() {
	cliApp := newCLI()
	args := append([]string{os.Args[0]}, flagsFirst(cliApp, os.Args[1:])...)
	if err := cliApp.Run(args); err != nil {
		logrus.Fatal(err)
	}
}
