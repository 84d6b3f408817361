package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"sable/internal/source"
)

// BuiltinInfo stores the declared storage shape of a builtin type.
type BuiltinInfo struct {
	Size  uint32
	Align uint32
}

// StructField describes a single field inside a struct definition.
type StructField struct {
	Name string
	Type Type
	Span source.Span
}

// StructInfo stores metadata for a struct definition.
type StructInfo struct {
	Name   string
	Decl   source.Span
	Params []string
	Fields []StructField
}

func (r *Registry) registerBuiltin(name string, size, align uint32) TVar {
	r.mutcheck()
	slot := r.appendBuiltinInfo(BuiltinInfo{Size: size, Align: align})
	return r.appendDef(Def{Name: name, Kind: DefBuiltin, Payload: slot})
}

// RegisterStruct allocates a struct definition slot and returns its TVar.
// Fields are attached later via SetStructFields, so mutually referential
// definitions can be registered in any order.
func (r *Registry) RegisterStruct(name string, decl source.Span, params []string) TVar {
	r.mutcheck()
	slot := r.appendStructInfo(StructInfo{Name: name, Decl: decl, Params: slices.Clone(params)})
	return r.appendDef(Def{Name: name, Decl: decl, Kind: DefStruct, Payload: slot})
}

// SetStructFields stores the resolved field descriptors for the struct.
func (r *Registry) SetStructFields(tv TVar, fields []StructField) {
	r.mutcheck()
	info := r.structInfo(tv)
	if info == nil {
		return
	}
	info.Fields = cloneStructFields(fields)
}

// BuiltinInfo returns the storage shape for a builtin TVar.
func (r *Registry) BuiltinInfo(tv TVar) (*BuiltinInfo, bool) {
	info := r.builtinInfo(tv)
	if info == nil {
		return nil, false
	}
	return info, true
}

// StructInfo returns metadata for the provided struct TVar.
func (r *Registry) StructInfo(tv TVar) (*StructInfo, bool) {
	info := r.structInfo(tv)
	if info == nil {
		return nil, false
	}
	return info, true
}

func (r *Registry) builtinInfo(tv TVar) *BuiltinInfo {
	d, ok := r.Def(tv)
	if !ok || d.Kind != DefBuiltin {
		return nil
	}
	if d.Payload == 0 || int(d.Payload) >= len(r.prims) {
		return nil
	}
	return &r.prims[d.Payload]
}

func (r *Registry) structInfo(tv TVar) *StructInfo {
	d, ok := r.Def(tv)
	if !ok || d.Kind != DefStruct {
		return nil
	}
	if d.Payload == 0 || int(d.Payload) >= len(r.structs) {
		return nil
	}
	return &r.structs[d.Payload]
}

func (r *Registry) appendBuiltinInfo(info BuiltinInfo) uint32 {
	r.prims = append(r.prims, info)
	slot, err := safecast.Conv[uint32](len(r.prims) - 1)
	if err != nil {
		panic(fmt.Errorf("builtin info overflow: %w", err))
	}
	return slot
}

func (r *Registry) appendStructInfo(info StructInfo) uint32 {
	r.structs = append(r.structs, info)
	slot, err := safecast.Conv[uint32](len(r.structs) - 1)
	if err != nil {
		panic(fmt.Errorf("struct info overflow: %w", err))
	}
	return slot
}

func cloneStructFields(fields []StructField) []StructField {
	if len(fields) == 0 {
		return nil
	}
	return slices.Clone(fields)
}

func cloneTypes(ts []Type) []Type {
	if len(ts) == 0 {
		return nil
	}
	return slices.Clone(ts)
}
