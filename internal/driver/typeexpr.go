package driver

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"

	"sable/internal/types"
)

// typeParser is a recursive-descent parser for manifest type
// expressions:
//
//	i32  Point  Pair[u8, bool]  (u8, u16)  ()  [4]u8
//	*T  *mut T  fn(i32, i32) -> bool  fn()
//
// Identifiers that match the enclosing declaration's parameter list
// resolve to positional type parameters; everything else must name a
// builtin or a manifest declaration.
type typeParser struct {
	sc     *scope
	src    string
	params []string
	pos    int
}

func (p *typeParser) parse() (types.Type, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return types.NoType, fmt.Errorf("%q: expected a type", p.src)
	}
	switch {
	case p.peek() == '*':
		return p.pointer()
	case p.peek() == '(':
		return p.tuple()
	case p.peek() == '[':
		return p.array()
	default:
		return p.named()
	}
}

func (p *typeParser) pointer() (types.Type, error) {
	p.pos++ // '*'
	mut := p.keyword("mut")
	elem, err := p.parse()
	if err != nil {
		return types.NoType, err
	}
	if mut {
		return p.sc.reg.MutPtr(elem), nil
	}
	return p.sc.reg.Ptr(elem), nil
}

func (p *typeParser) tuple() (types.Type, error) {
	elems, err := p.list('(', ')')
	if err != nil {
		return types.NoType, err
	}
	return p.sc.reg.Tuple(elems...), nil
}

func (p *typeParser) array() (types.Type, error) {
	p.pos++ // '['
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return types.NoType, fmt.Errorf("%q: expected an array length at byte %d", p.src, p.pos)
	}
	n, err := strconv.ParseUint(p.src[start:p.pos], 10, 32)
	if err != nil {
		return types.NoType, fmt.Errorf("%q: array length: %w", p.src, err)
	}
	count, err := safecast.Conv[uint32](n)
	if err != nil {
		return types.NoType, fmt.Errorf("%q: array length: %w", p.src, err)
	}
	if !p.expect(']') {
		return types.NoType, fmt.Errorf("%q: expected ']' at byte %d", p.src, p.pos)
	}
	elem, err := p.parse()
	if err != nil {
		return types.NoType, err
	}
	return p.sc.reg.Array(count, elem), nil
}

func (p *typeParser) named() (types.Type, error) {
	name := p.ident()
	if name == "" {
		return types.NoType, fmt.Errorf("%q: expected a type name at byte %d", p.src, p.pos)
	}
	if name == "fn" {
		return p.funcType()
	}
	if idx, ok := paramIndex(p.params, name); ok {
		return p.sc.reg.Param(idx), nil
	}
	tv, ok := p.sc.names[name]
	if !ok {
		return types.NoType, fmt.Errorf("unknown type %q", name)
	}
	p.skipSpace()
	if p.pos < len(p.src) && p.peek() == '[' {
		args, err := p.list('[', ']')
		if err != nil {
			return types.NoType, err
		}
		if len(args) == 0 {
			return types.NoType, fmt.Errorf("%q: empty type argument list", p.src)
		}
		return p.sc.reg.Named(tv, args...), nil
	}
	return p.sc.reg.Named(tv), nil
}

func (p *typeParser) funcType() (types.Type, error) {
	p.skipSpace()
	if p.pos >= len(p.src) || p.peek() != '(' {
		return types.NoType, fmt.Errorf("%q: expected '(' after fn", p.src)
	}
	args, err := p.list('(', ')')
	if err != nil {
		return types.NoType, err
	}
	result := p.sc.reg.Unit()
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], "->") {
		p.pos += 2
		result, err = p.parse()
		if err != nil {
			return types.NoType, err
		}
	}
	return p.sc.reg.Func(args, result), nil
}

// list parses a delimited, comma-separated type list, empty allowed.
func (p *typeParser) list(open, close byte) ([]types.Type, error) {
	if !p.expect(open) {
		return nil, fmt.Errorf("%q: expected %q at byte %d", p.src, string(open), p.pos)
	}
	var elems []types.Type
	p.skipSpace()
	if p.pos < len(p.src) && p.peek() == close {
		p.pos++
		return elems, nil
	}
	for {
		t, err := p.parse()
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("%q: unterminated list", p.src)
		}
		switch p.peek() {
		case ',':
			p.pos++
		case close:
			p.pos++
			return elems, nil
		default:
			return nil, fmt.Errorf("%q: expected ',' or %q at byte %d", p.src, string(close), p.pos)
		}
	}
}

func (p *typeParser) peek() byte {
	return p.src[p.pos]
}

func (p *typeParser) expect(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

// keyword consumes word when it appears next as a whole identifier.
func (p *typeParser) keyword(word string) bool {
	p.skipSpace()
	rest := p.src[p.pos:]
	if !strings.HasPrefix(rest, word) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(rest[len(word):])
	if isIdentRune(r) {
		return false
	}
	p.pos += len(word)
	return true
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isIdentRune(r) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func paramIndex(params []string, name string) (uint32, bool) {
	for i, pn := range params {
		if pn == name {
			idx, err := safecast.Conv[uint32](i)
			if err != nil {
				panic(fmt.Errorf("parameter index overflow: %w", err))
			}
			return idx, true
		}
	}
	return 0, false
}
