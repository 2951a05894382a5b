// Package report hashes a list of files and writes one tab-separated line
// per file to a report.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/riadafridishibly/hashreport/digest"
)

var ErrNegativeStart = errors.New("start index must not be negative")

const progressLogFreq = 10 * time.Second

type Options struct {
	// RelativeTo, when set, makes display paths relative to this directory.
	// Otherwise paths are written exactly as listed.
	RelativeTo string

	// Algorithm names the hash; empty means digest.DefaultAlgorithm.
	Algorithm string

	// StartAt is the index of the first listed file to hash.
	StartAt int

	// Append keeps existing report contents instead of truncating.
	Append bool
}

type Summary struct {
	Lines   int
	Missing int
	Bytes   int64
	Elapsed time.Duration
}

// Write hashes files[opts.StartAt:] in order and writes one line per file
// to outPath. Files that no longer exist get a NotFound line; any other
// failure stops the run and is returned, leaving the lines written so far
// in place.
func Write(ctx context.Context, files []string, outPath string, opts Options) (Summary, error) {
	var summary Summary

	algorithm := opts.Algorithm
	if algorithm == "" {
		algorithm = digest.DefaultAlgorithm
	}
	canonical, ok := digest.Canonical(algorithm)
	if !ok {
		_, err := digest.New(algorithm)
		return summary, err
	}
	algorithm = canonical
	if opts.StartAt < 0 {
		return summary, fmt.Errorf("%w: %d", ErrNegativeStart, opts.StartAt)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if opts.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	out, err := os.OpenFile(outPath, flags, 0o644)
	if err != nil {
		return summary, fmt.Errorf("open report: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"report":    outPath,
		"algorithm": algorithm,
	})

	start := time.Now()
	lastLog := start
	total := len(files) - opts.StartAt

	err = func() error {
		for i := opts.StartAt; i < len(files); i++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			line, err := hashEntry(files[i], opts.RelativeTo, algorithm)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}

			if _, err := io.WriteString(out, line.String()); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			summary.Lines++
			if line.Missing {
				summary.Missing++
				log.WithField("path", files[i]).Warn("File not found")
			} else {
				summary.Bytes += line.Size
				log.WithField("path", files[i]).Debug("Hashed file")
			}

			if time.Since(lastLog) >= progressLogFreq {
				lastLog = time.Now()
				log.Infof("Hashed %s/%s files (%s), next index %d",
					humanize.Comma(int64(summary.Lines)), humanize.Comma(int64(total)),
					humanize.Bytes(uint64(summary.Bytes)), i+1)
			}
		}
		return nil
	}()

	closeErr := out.Close()
	summary.Elapsed = time.Since(start)

	if err != nil {
		return summary, err
	}
	if closeErr != nil {
		return summary, fmt.Errorf("close report: %w", closeErr)
	}
	return summary, nil
}

// DisplayPath returns the path recorded for file.
func DisplayPath(file, relativeTo string) (string, error) {
	if relativeTo == "" {
		return file, nil
	}
	return filepath.Rel(relativeTo, file)
}

func hashEntry(path, relativeTo, algorithm string) (Line, error) {
	display, err := DisplayPath(path, relativeTo)
	if err != nil {
		return Line{}, err
	}

	sum, err := hashFile(path, algorithm)
	if errors.Is(err, fs.ErrNotExist) {
		return Line{Path: display, Missing: true}, nil
	}
	if err != nil {
		return Line{}, err
	}

	// Size is taken separately from the read, as it appears on disk now.
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Line{Path: display, Missing: true}, nil
	}
	if err != nil {
		return Line{}, err
	}

	return Line{Path: display, Size: info.Size(), Digest: sum}, nil
}

func hashFile(path, algorithm string) (string, error) {
	h, err := digest.New(algorithm)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}

	sum, err := digest.Sum(file, h)

	closeErr := file.Close()

	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if closeErr != nil {
		return "", closeErr
	}

	return sum, nil
}
