package diag

import (
	"fmt"
)

// Code is a stable numeric identifier for a diagnostic kind.
//
// Ranges: 1000s lexical, 2000s syntactic (both owned by upstream stages),
// 3000s semantic and layout. The middle end only emits from the 3000 range.
type Code uint16

const (
	UnknownCode Code = 0

	// Layout diagnostics.
	LayoutInfo               Code = 3000
	LayoutUnboundedRecursive Code = 3001
	LayoutDependsOnUnbounded Code = 3002
)

func (c Code) String() string {
	return fmt.Sprintf("SB%04d", uint16(c))
}
