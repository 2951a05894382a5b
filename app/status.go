package app

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/riadafridishibly/hashreport/report"
	"github.com/riadafridishibly/hashreport/scanner"
)

func (a *App) updateProgressStatus(progress scanner.ScanResult) {
	if progress.Done {
		a.log.Infof("Found %s files in %s",
			humanize.Comma(progress.FileCount),
			progress.Elapsed.Round(time.Millisecond),
		)
		return
	}

	a.log.WithField("path", progress.ScannedPath).Infof("Scanning: %s files so far", humanize.Comma(progress.FileCount))
}

func (a *App) updateFinalStatus(summary report.Summary, err error) {
	entry := a.log.WithFields(logrus.Fields{
		"lines":   summary.Lines,
		"missing": summary.Missing,
		"bytes":   summary.Bytes,
	})

	if err != nil {
		entry.WithError(err).Errorf("Report stopped after %s lines; completed lines are kept", humanize.Comma(int64(summary.Lines)))
		return
	}

	entry.Infof("Report written: %s files, %s hashed in %s",
		humanize.Comma(int64(summary.Lines)),
		humanize.Bytes(uint64(summary.Bytes)),
		summary.Elapsed.Round(time.Millisecond),
	)
}
