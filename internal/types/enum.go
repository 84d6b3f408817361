package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"sable/internal/source"
)

// EnumVariant describes a single variant of an enum definition. Payload
// holds the constructor argument types, in declaration order.
type EnumVariant struct {
	Name    string
	Payload []Type
	Span    source.Span
}

// EnumInfo stores metadata for an enum definition.
type EnumInfo struct {
	Name     string
	Decl     source.Span
	Params   []string
	Variants []EnumVariant
}

// RegisterEnum allocates an enum definition slot and returns its TVar.
func (r *Registry) RegisterEnum(name string, decl source.Span, params []string) TVar {
	r.mutcheck()
	slot := r.appendEnumInfo(EnumInfo{Name: name, Decl: decl, Params: slices.Clone(params)})
	return r.appendDef(Def{Name: name, Decl: decl, Kind: DefEnum, Payload: slot})
}

// SetEnumVariants stores the resolved variants for the enum.
func (r *Registry) SetEnumVariants(tv TVar, variants []EnumVariant) {
	r.mutcheck()
	info := r.enumInfo(tv)
	if info == nil {
		return
	}
	info.Variants = cloneEnumVariants(variants)
}

// EnumInfo returns metadata for the provided enum TVar.
func (r *Registry) EnumInfo(tv TVar) (*EnumInfo, bool) {
	info := r.enumInfo(tv)
	if info == nil {
		return nil, false
	}
	return info, true
}

// VariantPayload interns the payload tuple type of the given variant.
// Variants without payload yield the unit type.
func (r *Registry) VariantPayload(tv TVar, variant int) (Type, bool) {
	info := r.enumInfo(tv)
	if info == nil || variant < 0 || variant >= len(info.Variants) {
		return NoType, false
	}
	return r.Tuple(info.Variants[variant].Payload...), true
}

func (r *Registry) enumInfo(tv TVar) *EnumInfo {
	d, ok := r.Def(tv)
	if !ok || d.Kind != DefEnum {
		return nil
	}
	if d.Payload == 0 || int(d.Payload) >= len(r.enums) {
		return nil
	}
	return &r.enums[d.Payload]
}

func (r *Registry) appendEnumInfo(info EnumInfo) uint32 {
	r.enums = append(r.enums, info)
	slot, err := safecast.Conv[uint32](len(r.enums) - 1)
	if err != nil {
		panic(fmt.Errorf("enum info overflow: %w", err))
	}
	return slot
}

func cloneEnumVariants(variants []EnumVariant) []EnumVariant {
	if len(variants) == 0 {
		return nil
	}
	out := slices.Clone(variants)
	for i := range out {
		out[i].Payload = cloneTypes(out[i].Payload)
	}
	return out
}
