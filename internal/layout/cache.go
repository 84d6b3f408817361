package layout

import (
	"fmt"
	"strconv"

	"sable/internal/types"
)

// Cache holds every computed layout, keyed both by definition and by
// fully substituted structural type. The engine fills the definition
// side; Ensure grows the type side until Seal, after which every lookup
// is pure and the cache can be shared across goroutines.
type Cache struct {
	reg    *types.Registry
	target Target

	byTVar map[types.TVar]*Layout
	byType map[types.Type]*Layout
	failed map[types.TVar]bool

	sealed bool
}

func newCache(reg *types.Registry, target Target) *Cache {
	return &Cache{
		reg:    reg,
		target: target,
		byTVar: make(map[types.TVar]*Layout, reg.NumDefs()),
		byType: make(map[types.Type]*Layout, reg.NumDefs()),
		failed: make(map[types.TVar]bool),
	}
}

// Target returns the machine description the layouts were computed for.
func (c *Cache) Target() Target { return c.target }

// Registry returns the type registry the cache was built over.
func (c *Cache) Registry() *types.Registry { return c.reg }

// Seal forbids further layout computation. Of and ByTVar stay available
// and are safe for concurrent use once the cache is sealed.
func (c *Cache) Seal() { c.sealed = true }

// Sealed reports whether the cache has been sealed.
func (c *Cache) Sealed() bool { return c.sealed }

// Failed reports whether the definition was skipped because it sits on
// an embedding cycle or depends on one.
func (c *Cache) Failed(tv types.TVar) bool { return c.failed[tv] }

// ByTVar returns the layout of a monomorphic definition. Generic and
// failed definitions have none.
func (c *Cache) ByTVar(tv types.TVar) (*Layout, bool) {
	l, ok := c.byTVar[tv]
	return l, ok
}

// Of returns the cached layout for t without computing anything. A miss
// on a type the compilation actually uses means an earlier stage forgot
// to ensure it.
func (c *Cache) Of(t types.Type) (*Layout, bool) {
	l, ok := c.byType[t]
	return l, ok
}

// Ensure computes and caches the layout of a fully substituted type,
// composing the definition layouts the engine produced. It reports false
// when the type involves a failed definition. Ensure mutates the cache
// and must not be called after Seal.
func (c *Cache) Ensure(t types.Type) (*Layout, bool) {
	if l, ok := c.byType[t]; ok {
		return l, true
	}
	if c.sealed {
		panic(fmt.Errorf("layout: cache is sealed, no layout for %s", c.reg.TypeString(t)))
	}
	l, ok := c.build(t)
	if !ok {
		return nil, false
	}
	if err := l.Check(); err != nil {
		panic(fmt.Errorf("layout: %s: %w", c.reg.TypeString(t), err))
	}
	c.byType[t] = l
	return l, true
}

func (c *Cache) build(t types.Type) (*Layout, bool) {
	if c.reg.HasParams(t) {
		panic(fmt.Errorf("layout: %s still has unsubstituted parameters", c.reg.TypeString(t)))
	}
	n := c.reg.MustShape(t)
	switch n.Kind {
	case types.KindNamed:
		return c.buildNamed(n.TVar, n.Args)
	case types.KindTuple:
		names := make([]string, len(n.Args))
		elems := make([]*Layout, len(n.Args))
		for i, a := range n.Args {
			el, ok := c.Ensure(a)
			if !ok {
				return nil, false
			}
			names[i] = strconv.Itoa(i)
			elems[i] = el
		}
		return packMembers(names, elems), true
	case types.KindArray:
		el, ok := c.Ensure(n.Elem)
		if !ok {
			return nil, false
		}
		return c.arrayLayout(el, n.Len), true
	case types.KindPtr, types.KindMutPtr, types.KindFunc:
		return c.pointerLayout(), true
	default:
		panic(fmt.Errorf("layout: cannot lay out %s", c.reg.TypeString(t)))
	}
}

func (c *Cache) buildNamed(tv types.TVar, args []types.Type) (*Layout, bool) {
	if c.failed[tv] {
		return nil, false
	}
	if len(args) == 0 {
		l, ok := c.byTVar[tv]
		if !ok {
			panic(fmt.Errorf("layout: definition %v was never computed", tv))
		}
		return l, true
	}
	d := c.reg.MustDef(tv)
	switch d.Kind {
	case types.DefStruct:
		info, _ := c.reg.StructInfo(tv)
		names := make([]string, len(info.Fields))
		fields := make([]*Layout, len(info.Fields))
		for i, f := range info.Fields {
			fl, ok := c.Ensure(c.reg.Substitute(f.Type, args))
			if !ok {
				return nil, false
			}
			names[i] = f.Name
			fields[i] = fl
		}
		return packMembers(names, fields), true
	case types.DefEnum:
		info, _ := c.reg.EnumInfo(tv)
		return c.packEnum(tv, info, args)
	default:
		panic(fmt.Errorf("layout: %q takes no type arguments", d.Name))
	}
}

// computeDef lays out one definition. The engine calls it in dependency
// order, so every embedded definition already has its layout.
func (c *Cache) computeDef(tv types.TVar) {
	d := c.reg.MustDef(tv)
	var l *Layout
	switch d.Kind {
	case types.DefBuiltin:
		l = c.builtinLayout(tv)
	case types.DefStruct:
		info, _ := c.reg.StructInfo(tv)
		if len(info.Params) > 0 {
			return // instantiations are laid out on demand
		}
		names := make([]string, len(info.Fields))
		fields := make([]*Layout, len(info.Fields))
		for i, f := range info.Fields {
			fl, ok := c.Ensure(f.Type)
			if !ok {
				panic(fmt.Errorf("layout: field %q of %q lost its layout", f.Name, d.Name))
			}
			names[i] = f.Name
			fields[i] = fl
		}
		l = packMembers(names, fields)
	case types.DefEnum:
		info, _ := c.reg.EnumInfo(tv)
		if len(info.Params) > 0 {
			return
		}
		el, ok := c.packEnum(tv, info, nil)
		if !ok {
			panic(fmt.Errorf("layout: enum %q lost a payload layout", d.Name))
		}
		l = el
	default:
		panic(fmt.Errorf("layout: cannot compute %v of kind %v", tv, d.Kind))
	}
	if err := l.Check(); err != nil {
		panic(fmt.Errorf("layout: %s: %w", d.Name, err))
	}
	c.byTVar[tv] = l
	c.byType[c.reg.Named(tv)] = l
}

// packEnum lays out a tagged union: the discriminant at offset zero and
// every variant payload at one shared, maximally aligned offset. Args
// substitute the definition's parameters; nil means the definition is
// monomorphic.
func (c *Cache) packEnum(tv types.TVar, info *types.EnumInfo, args []types.Type) (*Layout, bool) {
	tagSize := discriminantSize(len(info.Variants))
	tag := &Layout{Size: tagSize, Align: tagSize, Rep: RepScalar, Scalar: unsignedKind(tagSize)}

	payloadSize, payloadAlign := uint32(0), uint32(1)
	names := make([]string, 0, len(info.Variants))
	payloads := make([]*Layout, 0, len(info.Variants))
	for i, v := range info.Variants {
		if len(v.Payload) == 0 {
			continue // bare variants contribute only the tag
		}
		pt, _ := c.reg.VariantPayload(tv, i)
		if args != nil {
			pt = c.reg.Substitute(pt, args)
		}
		pl, ok := c.Ensure(pt)
		if !ok {
			return nil, false
		}
		payloadSize = max(payloadSize, pl.Size)
		payloadAlign = max(payloadAlign, pl.Align)
		names = append(names, v.Name)
		payloads = append(payloads, pl)
	}

	payloadOffset := roundUp(tagSize, payloadAlign)
	align := max(tagSize, payloadAlign)
	size := roundUp(payloadOffset+payloadSize, align)

	members := make([]Member, 0, len(payloads)+1)
	members = append(members, Member{Name: "tag", Offset: 0, Layout: tag})
	for i, pl := range payloads {
		members = append(members, Member{Name: names[i], Offset: payloadOffset, Layout: pl})
	}
	return &Layout{
		Size:          size,
		Align:         align,
		Rep:           RepAggregate,
		Members:       members,
		TagSize:       tagSize,
		PayloadOffset: payloadOffset,
	}, true
}

func (c *Cache) builtinLayout(tv types.TVar) *Layout {
	info, ok := c.reg.BuiltinInfo(tv)
	if !ok {
		panic(fmt.Errorf("layout: %v is not a builtin", tv))
	}
	b := c.reg.Builtins()
	var k ScalarKind
	switch tv {
	case b.Never, b.Bool, b.U8:
		k = ScalarU8
	case b.Order, b.I8:
		k = ScalarI8
	case b.U16:
		k = ScalarU16
	case b.U32:
		k = ScalarU32
	case b.U64:
		k = ScalarU64
	case b.Usize:
		k = ScalarUsize
	case b.I16:
		k = ScalarI16
	case b.I32:
		k = ScalarI32
	case b.I64:
		k = ScalarI64
	case b.Isize:
		k = ScalarIsize
	default:
		panic(fmt.Errorf("layout: unknown builtin %v", tv))
	}
	return &Layout{Size: info.Size, Align: info.Align, Rep: RepScalar, Scalar: k}
}

func (c *Cache) pointerLayout() *Layout {
	return &Layout{
		Size:   c.target.PtrSize,
		Align:  c.target.PtrAlign,
		Rep:    RepScalar,
		Scalar: ScalarUsize,
	}
}

func (c *Cache) arrayLayout(elem *Layout, count uint32) *Layout {
	// elem.Size is already a multiple of elem.Align, so it is the stride.
	size := uint64(elem.Size) * uint64(count)
	if size > uint64(^uint32(0)) {
		panic(fmt.Errorf("layout: array of %d elements overflows the address space", count))
	}
	l := &Layout{
		Size:  uint32(size),
		Align: elem.Align,
		Rep:   RepArray,
		Elem:  elem,
		Count: count,
	}
	if l.Size == 0 {
		l.Size = l.Align
	}
	return l
}

// packMembers lays members out in order, each at the next offset that
// honors its alignment. Empty aggregates still occupy one alignment unit
// so every value has a distinct address.
func packMembers(names []string, layouts []*Layout) *Layout {
	size, align := uint32(0), uint32(1)
	members := make([]Member, len(layouts))
	for i, ml := range layouts {
		size = roundUp(size, ml.Align)
		members[i] = Member{Name: names[i], Offset: size, Layout: ml}
		size += ml.Size
		align = max(align, ml.Align)
	}
	size = roundUp(size, align)
	if size == 0 {
		size = align
	}
	return &Layout{Size: size, Align: align, Rep: RepAggregate, Members: members}
}

// discriminantSize returns the narrowest unsigned width that can
// enumerate the given number of variants.
func discriminantSize(variants int) uint32 {
	n := uint64(variants)
	switch {
	case n <= 1<<8:
		return 1
	case n <= 1<<16:
		return 2
	case n <= 1<<32:
		return 4
	default:
		return 8
	}
}

func unsignedKind(size uint32) ScalarKind {
	switch size {
	case 1:
		return ScalarU8
	case 2:
		return ScalarU16
	case 4:
		return ScalarU32
	default:
		return ScalarU64
	}
}

func roundUp(n, align uint32) uint32 {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}
