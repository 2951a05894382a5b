package report

import (
	"strconv"
	"strings"
)

// NotFound is recorded in place of size and digest when a listed file is
// gone by the time it is hashed.
const NotFound = "ERROR - File not found"

// Line is one record of the report.
type Line struct {
	Path   string
	Size   int64
	Digest string

	// Missing marks a file that could not be found at hashing time. Size
	// and Digest are unset when it is true.
	Missing bool
}

// String formats the line as it is stored, including the trailing newline.
// Tabs and newlines inside Path are written as-is.
func (l Line) String() string {
	var b strings.Builder
	b.WriteString(l.Path)
	b.WriteByte('\t')
	if l.Missing {
		b.WriteString(NotFound)
	} else {
		b.WriteString(strconv.FormatInt(l.Size, 10))
		b.WriteByte('\t')
		b.WriteString(l.Digest)
	}
	b.WriteByte('\n')
	return b.String()
}
