// Package app runs the enumerate, hash and report pipeline for one
// invocation of hashreport.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/riadafridishibly/hashreport/digest"
	"github.com/riadafridishibly/hashreport/journal"
	"github.com/riadafridishibly/hashreport/report"
	"github.com/riadafridishibly/hashreport/scanner"
)

var ErrResumeWithStart = errors.New("--resume and --start-at cannot be combined")

type App struct {
	config  Config
	scanner *scanner.Scanner
	journal *journal.Journal

	rootPath   string
	reportPath string
	algorithm  string

	log *logrus.Entry
}

func NewApp(config Config) (*App, error) {
	if config.Resume && config.StartAt != 0 {
		return nil, ErrResumeWithStart
	}

	if config.Algorithm == "" {
		config.Algorithm = digest.DefaultAlgorithm
	}
	algorithm, ok := digest.Canonical(config.Algorithm)
	if !ok {
		_, err := digest.New(config.Algorithm)
		return nil, err
	}

	rootPath, err := filepath.Abs(config.Directory)
	if err != nil {
		return nil, fmt.Errorf("resolve directory %s: %w", config.Directory, err)
	}
	reportPath, err := filepath.Abs(config.Report)
	if err != nil {
		return nil, fmt.Errorf("resolve report %s: %w", config.Report, err)
	}

	a := &App{
		config:     config,
		rootPath:   rootPath,
		reportPath: reportPath,
		algorithm:  algorithm,
		log: logrus.WithFields(logrus.Fields{
			"root":   rootPath,
			"report": reportPath,
		}),
	}
	a.scanner = scanner.NewScanner(rootPath).OnProgress(a.updateProgressStatus)

	return a, nil
}

func (a *App) Scanner() *scanner.Scanner {
	return a.scanner
}

// Run enumerates the root directory and writes the report. In resume mode
// it appends the entries missing from an interrupted report instead.
func (a *App) Run(ctx context.Context) error {
	if err := a.openJournal(); err != nil {
		return err
	}
	defer a.closeJournal()

	current := &journal.Run{
		Report:    a.reportPath,
		Root:      a.rootPath,
		Algorithm: a.algorithm,
		Relative:  !a.config.AbsolutePaths,
		StartAt:   a.config.StartAt,
		StartedAt: time.Now(),
	}

	var recorded *journal.Run
	if a.config.Resume {
		run, err := a.journal.Get(a.reportPath)
		if err != nil {
			return err
		}
		if run.Finished() {
			a.log.WithField("finished", run.FinishedAt).Info("Report is already complete, nothing to resume")
			return nil
		}
		if err := run.Matches(current); err != nil {
			return err
		}
		recorded = run
	}

	a.log.WithField("algorithm", a.algorithm).Info("Enumerating files")
	files, err := a.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("enumerate %s: %w", a.rootPath, err)
	}
	current.Total = len(files)

	opts := report.Options{
		Algorithm: a.algorithm,
		StartAt:   a.config.StartAt,
	}
	if !a.config.AbsolutePaths {
		opts.RelativeTo = a.rootPath
	}

	if recorded != nil {
		if recorded.Total != len(files) {
			a.log.Warnf("Directory now has %d files, the interrupted run listed %d; resumed entries may be shifted",
				len(files), recorded.Total)
		}

		done, err := report.Recover(a.reportPath)
		if err != nil {
			return err
		}
		opts.StartAt = recorded.StartAt + done
		opts.Append = true
		a.log.Infof("Resuming after %d completed lines at index %d", done, opts.StartAt)
	} else if a.journal != nil {
		if err := a.journal.Start(current); err != nil {
			a.log.WithError(err).Warn("Could not record run in journal")
		}
	}

	summary, err := report.Write(ctx, files, a.reportPath, opts)
	a.updateFinalStatus(summary, err)
	if err != nil {
		return err
	}

	if a.journal != nil {
		if err := a.journal.Finish(a.reportPath, time.Now()); err != nil {
			a.log.WithError(err).Warn("Could not mark run finished in journal")
		}
	}

	return nil
}

// openJournal is required for resume; otherwise a journal that cannot be
// opened only costs the ability to resume later. Runs that neither record
// nor resume leave no state behind.
func (a *App) openJournal() error {
	if !a.config.Record && !a.config.Resume && a.config.JournalPath == "" {
		return nil
	}

	path := a.config.JournalPath
	if path == "" {
		var err error
		path, err = journal.DefaultPath()
		if err != nil {
			if a.config.Resume {
				return fmt.Errorf("locate journal: %w", err)
			}
			a.log.WithError(err).Warn("Could not locate journal, resume will not be possible")
			return nil
		}
	}

	j, err := journal.Open(path)
	if err != nil {
		if a.config.Resume {
			return fmt.Errorf("open journal %s: %w", path, err)
		}
		a.log.WithError(err).WithField("journal", path).Warn("Could not open journal, resume will not be possible")
		return nil
	}

	a.journal = j
	return nil
}

func (a *App) closeJournal() {
	if a.journal == nil {
		return
	}
	if err := a.journal.Close(); err != nil {
		a.log.WithError(err).Warn("Could not close journal")
	}
	a.journal = nil
}
