// Package log configures the process-wide logrus logger from command
// line flags.
package log

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// logger is replaced in tests.
var logger = logrus.StandardLogger()

var logFlags = []cli.Flag{
	cli.BoolFlag{
		Name:   "debug",
		Usage:  "same as --log-level debug",
		EnvVar: "HASHREPORT_DEBUG",
	},
	cli.StringFlag{
		Name:   "log-format",
		Usage:  "log format (text or json)",
		Value:  "text",
		EnvVar: "HASHREPORT_LOG_FORMAT",
	},
	cli.StringFlag{
		Name:   "log-level, l",
		Usage:  "log level (debug, info, warn, error, fatal, panic)",
		Value:  logrus.InfoLevel.String(),
		EnvVar: "HASHREPORT_LOG_LEVEL",
	},
}

// Configure applies a level and format to the logger; debug overrides level.
func Configure(level, format string, debug bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	if debug {
		lvl = logrus.DebugLevel
	}

	switch format {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(new(logrus.JSONFormatter))
	default:
		return fmt.Errorf("unknown log format %q, expected text or json", format)
	}

	logger.SetOutput(os.Stderr)
	logger.SetLevel(lvl)
	return nil
}

// ConfigureLogging adds the logging flags to app and applies them before
// its action runs.
func ConfigureLogging(app *cli.App) {
	app.Flags = append(app.Flags, logFlags...)

	next := app.Before
	app.Before = func(c *cli.Context) error {
		if err := Configure(c.String("log-level"), c.String("log-format"), c.Bool("debug")); err != nil {
			return err
		}
		if next != nil {
			return next(c)
		}
		return nil
	}
}
