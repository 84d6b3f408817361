package symbols

import (
	"testing"
)

func TestMangled(t *testing.T) {
	tab := NewTable(8)

	tests := []struct {
		name   string
		symbol Symbol
		want   string
	}{
		{
			name:   "plain function",
			symbol: Symbol{Name: "point_len", Kind: SymbolFunc},
			want:   "_SB9point_len",
		},
		{
			name:   "extern keeps source name",
			symbol: Symbol{Name: "malloc", Kind: SymbolFunc, Flags: SymbolFlagExtern},
			want:   "malloc",
		},
		{
			name:   "no_mangle keeps source name",
			symbol: Symbol{Name: "main", Kind: SymbolFunc, Flags: SymbolFlagNoMangle},
			want:   "main",
		},
		{
			name: "decomposed identifier normalizes to one linker name",
			// "e" + combining acute accent; NFC folds it into U+00E9,
			// which is 2 bytes in UTF-8, so the length prefix is 5.
			symbol: Symbol{Name: "café", Kind: SymbolFunc},
			want:   "_SB5café",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tab.Insert(tt.symbol)
			if got := tab.Mangled(id); got != tt.want {
				t.Errorf("Mangled() = %q, want %q", got, tt.want)
			}
		})
	}
}
