package source

import (
	"fmt"

	"fortio.org/safecast"
)

// FileSet maps FileIDs to human-readable names. The middle end only ever
// sees spans produced upstream, so this set stores names, not contents.
type FileSet struct {
	names []string
}

func NewFileSet() *FileSet {
	// Index 0 is reserved for NoFile.
	return &FileSet{names: []string{"<synthetic>"}}
}

// Add registers a file name and returns its ID.
func (fs *FileSet) Add(name string) FileID {
	id, err := safecast.Conv[uint32](len(fs.names))
	if err != nil {
		panic(fmt.Errorf("file count overflow: %w", err))
	}
	fs.names = append(fs.names, name)
	return FileID(id)
}

// Name returns the registered name for id, or a placeholder for ids the
// set has never seen.
func (fs *FileSet) Name(id FileID) string {
	if int(id) >= len(fs.names) {
		return fmt.Sprintf("<file#%d>", id)
	}
	return fs.names[id]
}

// Format renders a span as "name:start-end" for diagnostics output.
func (fs *FileSet) Format(s Span) string {
	return fmt.Sprintf("%s:%d-%d", fs.Name(s.File), s.Start, s.End)
}
