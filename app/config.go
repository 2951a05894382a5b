package app

type Config struct {
	Directory     string
	Report        string
	AbsolutePaths bool
	Algorithm     string
	StartAt       int

	// Record keeps a journal entry for the run so it can be resumed.
	// Giving JournalPath implies it.
	Record bool

	// Resume continues the run recorded in the journal for Report instead
	// of starting at StartAt.
	Resume bool

	// JournalPath overrides journal.DefaultPath.
	JournalPath string
}
