package scanner

import (
	"time"
)

type ScanResult struct {
	ScannedPath string        // Last file listed before this event
	FileCount   int64         // Total files listed so far
	Elapsed     time.Duration // Time since the scan started
	Done        bool
}
