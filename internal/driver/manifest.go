// Package driver feeds the middle end from outside the library
// boundary: it loads type manifests, builds the demo modules, renders
// layout listings and keeps a disk cache of computed artifacts. Nothing
// in here is required for compilation; the packages below it stay pure.
package driver

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"sable/internal/source"
	"sable/internal/types"
)

// Manifest is a set of type declarations loaded from a TOML file. It
// exists so layouts can be inspected without a front end: the harness
// reads declarations from the manifest and hands the registry straight
// to the layout engine.
type Manifest struct {
	Module string
	Path   string

	// Registry holds every declaration, builtins included. Unfrozen;
	// the pipeline freezes it.
	Registry *types.Registry

	// Decls lists the manifest's own definitions in file order, for
	// rendering. Builtins are not listed.
	Decls []types.TVar

	// Files maps the manifest's spans back to its path.
	Files *source.FileSet
}

type manifestFile struct {
	Module  moduleSection   `toml:"module"`
	Structs []structSection `toml:"struct"`
	Enums   []enumSection   `toml:"enum"`
}

type moduleSection struct {
	Name string `toml:"name"`
}

type structSection struct {
	Name   string         `toml:"name"`
	Params []string       `toml:"params"`
	Fields []fieldSection `toml:"field"`
}

type fieldSection struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type enumSection struct {
	Name     string           `toml:"name"`
	Params   []string         `toml:"params"`
	Variants []variantSection `toml:"variant"`
}

type variantSection struct {
	Name    string   `toml:"name"`
	Payload []string `toml:"payload"`
}

// LoadManifest reads a type manifest. Declarations may reference each
// other in any order; registration happens in two passes, names first.
func LoadManifest(path string) (*Manifest, error) {
	var mf manifestFile
	meta, err := toml.DecodeFile(path, &mf)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("module") {
		return nil, fmt.Errorf("%s: missing [module]", path)
	}
	if !meta.IsDefined("module", "name") || strings.TrimSpace(mf.Module.Name) == "" {
		return nil, fmt.Errorf("%s: missing [module].name", path)
	}

	files := source.NewFileSet()
	file := files.Add(path)
	m := &Manifest{
		Module:   strings.TrimSpace(mf.Module.Name),
		Path:     path,
		Registry: types.NewRegistry(),
		Files:    files,
	}

	// First pass: claim every name so bodies can refer forward.
	sc := newScope(m.Registry)
	declSpan := func(ordinal int, name string) source.Span {
		start := uint32(ordinal)
		return source.Span{File: file, Start: start, End: start + uint32(len(name))}
	}
	ordinal := 0
	for _, s := range mf.Structs {
		if err := validDeclName(s.Name); err != nil {
			return nil, fmt.Errorf("%s: struct: %w", path, err)
		}
		tv := m.Registry.RegisterStruct(s.Name, declSpan(ordinal, s.Name), s.Params)
		if err := sc.claim(s.Name, tv); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		m.Decls = append(m.Decls, tv)
		ordinal++
	}
	for _, e := range mf.Enums {
		if err := validDeclName(e.Name); err != nil {
			return nil, fmt.Errorf("%s: enum: %w", path, err)
		}
		tv := m.Registry.RegisterEnum(e.Name, declSpan(ordinal, e.Name), e.Params)
		if err := sc.claim(e.Name, tv); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		m.Decls = append(m.Decls, tv)
		ordinal++
	}

	// Second pass: resolve member types against the full name set.
	for _, s := range mf.Structs {
		fields := make([]types.StructField, 0, len(s.Fields))
		for _, f := range s.Fields {
			if strings.TrimSpace(f.Name) == "" {
				return nil, fmt.Errorf("%s: struct %q: field without a name", path, s.Name)
			}
			ft, err := sc.parseType(f.Type, s.Params)
			if err != nil {
				return nil, fmt.Errorf("%s: struct %q field %q: %w", path, s.Name, f.Name, err)
			}
			fields = append(fields, types.StructField{Name: f.Name, Type: ft})
		}
		m.Registry.SetStructFields(sc.names[s.Name], fields)
	}
	for _, e := range mf.Enums {
		if len(e.Variants) == 0 {
			return nil, fmt.Errorf("%s: enum %q has no variants", path, e.Name)
		}
		variants := make([]types.EnumVariant, 0, len(e.Variants))
		for _, v := range e.Variants {
			if strings.TrimSpace(v.Name) == "" {
				return nil, fmt.Errorf("%s: enum %q: variant without a name", path, e.Name)
			}
			payload := make([]types.Type, 0, len(v.Payload))
			for _, p := range v.Payload {
				pt, err := sc.parseType(p, e.Params)
				if err != nil {
					return nil, fmt.Errorf("%s: enum %q variant %q: %w", path, e.Name, v.Name, err)
				}
				payload = append(payload, pt)
			}
			variants = append(variants, types.EnumVariant{Name: v.Name, Payload: payload})
		}
		m.Registry.SetEnumVariants(sc.names[e.Name], variants)
	}

	return m, nil
}

func validDeclName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("declaration without a name")
	}
	if trimmed != name {
		return fmt.Errorf("name %q has surrounding whitespace", name)
	}
	return nil
}

// scope resolves manifest type names: builtins plus the manifest's own
// declarations.
type scope struct {
	reg   *types.Registry
	names map[string]types.TVar
}

func newScope(reg *types.Registry) *scope {
	b := reg.Builtins()
	return &scope{
		reg: reg,
		names: map[string]types.TVar{
			"never": b.Never,
			"bool":  b.Bool,
			"order": b.Order,
			"u8":    b.U8,
			"u16":   b.U16,
			"u32":   b.U32,
			"u64":   b.U64,
			"usize": b.Usize,
			"i8":    b.I8,
			"i16":   b.I16,
			"i32":   b.I32,
			"i64":   b.I64,
			"isize": b.Isize,
		},
	}
}

func (sc *scope) claim(name string, tv types.TVar) error {
	if _, taken := sc.names[name]; taken {
		return fmt.Errorf("type %q declared twice", name)
	}
	sc.names[name] = tv
	return nil
}

// parseType parses one manifest type expression against this scope.
// Identifiers matching params resolve to positional type parameters.
func (sc *scope) parseType(src string, params []string) (types.Type, error) {
	p := &typeParser{sc: sc, src: src, params: params}
	t, err := p.parse()
	if err != nil {
		return types.NoType, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return types.NoType, fmt.Errorf("%q: trailing input at byte %d", src, p.pos)
	}
	return t, nil
}
