package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/sirupsen/logrus"
)

type Scanner struct {
	rootPath string

	// Called at most every eventSendingFreq while the walk is running, and
	// once more with Done set when it finishes.
	onProgress func(ScanResult)

	// atomic total files listed
	fileCount atomic.Int64

	// Scanner start time to track how much time does it take to complete the scan
	startTime time.Time

	// ElapsedTime from scanner start in millisecond
	elapsedTime atomic.Int64

	log *logrus.Entry
}

func NewScanner(rootPath string) *Scanner {
	return &Scanner{
		rootPath: rootPath,
		log:      logrus.WithField("root", rootPath),
	}
}

// OnProgress registers fn to receive throttled progress while scanning.
// fn may be called from several goroutines, but never concurrently.
func (s *Scanner) OnProgress(fn func(ScanResult)) *Scanner {
	s.onProgress = fn
	return s
}

func (s *Scanner) FileCount() int64 {
	return s.fileCount.Load()
}

func (s *Scanner) ElapsedTime() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	elapsed := s.elapsedTime.Load()
	if elapsed == 0 {
		return time.Since(s.startTime)
	}
	return time.Duration(elapsed) * time.Millisecond
}

// Enumerate lists every file under root in walk order.
func Enumerate(ctx context.Context, root string) ([]string, error) {
	return NewScanner(root).Scan(ctx)
}

const eventSendingFreq = 2 * time.Second

// Scan walks the root directory and returns the files found, ordered
// depth-first with the entries of each directory in lexical order. A root
// that does not exist yields an empty list.
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	s.startTime = time.Now()
	s.fileCount.Store(0)
	s.elapsedTime.Store(0)

	info, err := os.Stat(s.rootPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("Root directory does not exist, nothing to enumerate")
			return []string{}, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		s.log.Warn("Root is not a directory, nothing to enumerate")
		return []string{}, nil
	}

	var (
		mu    sync.Mutex
		paths []string
	)

	ticker := time.NewTicker(eventSendingFreq)
	defer ticker.Stop()

	var progressMu sync.Mutex
	report := func(r ScanResult) {
		if s.onProgress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		s.onProgress(r)
	}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return fs.SkipAll
		}

		if err != nil {
			// Unreadable directories are skipped like any walk would.
			s.log.WithError(err).WithField("path", path).Debug("Skipping unreadable path")
			return nil
		}

		if d.IsDir() || !isListed(path, d) {
			return nil
		}

		mu.Lock()
		paths = append(paths, path)
		mu.Unlock()
		fileCount := s.fileCount.Add(1)

		select {
		case <-ticker.C:
			report(ScanResult{ScannedPath: path, FileCount: fileCount, Elapsed: time.Since(s.startTime)})
		default:
		}

		return nil
	}

	conf := fastwalk.Config{Follow: false, NumWorkers: runtime.NumCPU()}
	err = fastwalk.Walk(&conf, s.rootPath, walkFn)
	// A cancelled walk ends with fs.SkipAll; report why it stopped instead.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}

	sortWalkOrder(paths)

	s.elapsedTime.Store(max(time.Since(s.startTime).Milliseconds(), 1))
	report(ScanResult{FileCount: s.fileCount.Load(), Elapsed: s.ElapsedTime(), Done: true})

	if paths == nil {
		paths = []string{}
	}
	return paths, nil
}

// sortWalkOrder orders paths the way a sequential depth-first walk with
// sorted directory entries visits them. Separators compare lower than any
// file name byte, so "a/b" sorts before "a.txt" just as the contents of
// directory "a" are visited before its sibling "a.txt".
func sortWalkOrder(paths []string) {
	keys := make(map[string]string, len(paths))
	for _, p := range paths {
		keys[p] = strings.ReplaceAll(p, string(os.PathSeparator), "\x00")
	}
	slices.SortFunc(paths, func(a, b string) int {
		return strings.Compare(keys[a], keys[b])
	})
}
