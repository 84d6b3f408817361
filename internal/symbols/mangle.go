package symbols

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Mangled returns the linker-visible name for id.
//
// Extern and no_mangle symbols keep their source name verbatim, since
// the linker must see exactly what the foreign side declared. Everything
// else is NFC-normalized first, so two spellings of the same identifier
// never produce two distinct linker names, then encoded length-prefixed
// under the "_SB" namespace.
func (t *Table) Mangled(id SymbolID) string {
	s := t.MustLookup(id)
	if s.IsExtern() || s.NoMangle() {
		return s.Name
	}
	name := norm.NFC.String(s.Name)
	return fmt.Sprintf("_SB%d%s", len(name), name)
}
