package domain

// FileState is the outcome of processing one file in an indexing run.
type FileState string

const (
	FileIndexed   FileState = "indexed"
	FileReindexed FileState = "reindexed"
	FileUnchanged FileState = "unchanged"
	FileSkipped   FileState = "skipped"
	FileOrphaned  FileState = "orphaned"
	FileFailed    FileState = "failed"
)

// ErrorKind classifies a recoverable per-file error.
type ErrorKind string

const (
	ErrorKindExtraction ErrorKind = "extraction"
	ErrorKindEmbedding  ErrorKind = "embedding"
	ErrorKindTooLarge   ErrorKind = "too_large"
	ErrorKindStoreFull  ErrorKind = "store_full"
	ErrorKindStorage    ErrorKind = "storage"
	ErrorKindFilesystem ErrorKind = "filesystem"
)

// FileError records a recoverable failure for one file.
type FileError struct {
	Path    string
	Name    string
	Message string
	Kind    ErrorKind
}

// IndexReport summarises an indexing run.
type IndexReport struct {
	// Indexed counts files seen for the first time and written.
	Indexed int

	// Reindexed counts changed files whose chunks were replaced.
	Reindexed int

	// Unchanged counts files skipped by change detection.
	Unchanged int

	// Skipped counts files skipped by settings or limits.
	Skipped int

	// Cleaned lists paths whose chunks were removed by the orphan sweep.
	Cleaned []string

	Errors []FileError

	// Halted is set when the store size cap stopped the run.
	Halted bool

	// Cancelled is set when the context was cancelled mid-run.
	Cancelled bool

	// Chunks is the number of chunk records written.
	Chunks int
}

// Succeeded returns the number of files written in this run.
func (r *IndexReport) Succeeded() int {
	return r.Indexed + r.Reindexed
}

// IndexStatus is a point-in-time view of the indexer.
type IndexStatus struct {
	Running     bool
	CurrentFile string
	Processed   int
	Total       int
}

// ChangeKind classifies a file system event.
type ChangeKind int

const (
	// ChangeModified covers creates and writes.
	ChangeModified ChangeKind = iota
	// ChangeRemoved covers removals and renames away.
	ChangeRemoved
)

// FileChange is one path affected by a batch of watch events.
type FileChange struct {
	Path string
	Kind ChangeKind
}
