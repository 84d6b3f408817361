package source

import (
	"fmt"
)

// Span is a half-open byte range [Start, End) inside one source file.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover extends s to enclose other. Spans from different files do not
// combine; s is returned unchanged.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Synthetic reports whether the span was made up by the compiler rather
// than read from user source.
func (s Span) Synthetic() bool {
	return s.File == NoFile && s.Start == 0 && s.End == 0
}
