package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Recover prepares an interrupted report for appending. It counts the
// complete lines in path and cuts off a trailing partial line, if any. A
// report that does not exist has zero lines.
func Recover(path string) (int, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open report: %w", err)
	}

	lines, err := truncatePartialLine(f)
	closeErr := f.Close()
	if err != nil {
		return 0, err
	}
	if closeErr != nil {
		return 0, fmt.Errorf("close report: %w", closeErr)
	}
	return lines, nil
}

func truncatePartialLine(f *os.File) (int, error) {
	var (
		lines int
		read  int64
		end   int64 // offset just past the last newline
	)

	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
				end = read + int64(i) + 1
			}
			lines += bytes.Count(chunk, []byte{'\n'})
			read += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read report: %w", err)
		}
	}

	if read > end {
		if err := f.Truncate(end); err != nil {
			return 0, fmt.Errorf("truncate partial line: %w", err)
		}
	}

	return lines, nil
}
