package layout

import (
	"slices"

	"sable/internal/types"
)

// depGraph records, per definition, which other definitions must be laid
// out first. An edge exists only for direct embedding: pointer and
// function types already have a known size, so they never contribute.
type depGraph struct {
	reg    *types.Registry
	embeds map[types.TVar]uint64
	deps   map[types.TVar][]types.TVar
	rdeps  map[types.TVar][]types.TVar
}

func buildGraph(reg *types.Registry) *depGraph {
	g := &depGraph{
		reg:    reg,
		embeds: computeEmbeds(reg),
		deps:   make(map[types.TVar][]types.TVar),
		rdeps:  make(map[types.TVar][]types.TVar),
	}
	for i := 1; i < reg.NumDefs(); i++ {
		tv := types.TVar(i)
		set := make(map[types.TVar]struct{})
		for _, ct := range componentTypes(reg, tv) {
			g.addTypeDeps(ct, set)
		}
		deps := make([]types.TVar, 0, len(set))
		for d := range set {
			deps = append(deps, d)
		}
		slices.Sort(deps)
		g.deps[tv] = deps
		for _, d := range deps {
			g.rdeps[d] = append(g.rdeps[d], tv)
		}
	}
	for _, rs := range g.rdeps {
		slices.Sort(rs)
	}
	return g
}

// componentTypes lists the types a definition's layout is built from:
// struct field types and enum variant payload types.
func componentTypes(reg *types.Registry, tv types.TVar) []types.Type {
	d := reg.MustDef(tv)
	switch d.Kind {
	case types.DefStruct:
		info, _ := reg.StructInfo(tv)
		out := make([]types.Type, 0, len(info.Fields))
		for _, f := range info.Fields {
			out = append(out, f.Type)
		}
		return out
	case types.DefEnum:
		info, _ := reg.EnumInfo(tv)
		var out []types.Type
		for _, v := range info.Variants {
			out = append(out, v.Payload...)
		}
		return out
	default:
		return nil
	}
}

// addTypeDeps walks a component type and records every definition it
// directly embeds. Arguments of a generic application count only when
// the applied definition actually embeds the matching parameter.
func (g *depGraph) addTypeDeps(t types.Type, out map[types.TVar]struct{}) {
	n, ok := g.reg.Shape(t)
	if !ok {
		return
	}
	switch n.Kind {
	case types.KindNamed:
		out[n.TVar] = struct{}{}
		mask := g.embeds[n.TVar]
		for i, a := range n.Args {
			if embedded(mask, i) {
				g.addTypeDeps(a, out)
			}
		}
	case types.KindTuple:
		for _, a := range n.Args {
			g.addTypeDeps(a, out)
		}
	case types.KindArray:
		g.addTypeDeps(n.Elem, out)
	}
}

// order returns the definitions whose dependencies all resolved, in an
// order where every dependency precedes its dependents, plus the stuck
// remainder: members of embedding cycles and definitions that need them.
func (g *depGraph) order() (ready, stuck []types.TVar) {
	missing := make(map[types.TVar]int, len(g.deps))
	var queue []types.TVar
	for i := 1; i < g.reg.NumDefs(); i++ {
		tv := types.TVar(i)
		missing[tv] = len(g.deps[tv])
		if missing[tv] == 0 {
			queue = append(queue, tv)
		}
	}
	for len(queue) > 0 {
		tv := queue[0]
		queue = queue[1:]
		ready = append(ready, tv)
		for _, d := range g.rdeps[tv] {
			missing[d]--
			if missing[d] == 0 {
				queue = append(queue, d)
			}
		}
	}
	for i := 1; i < g.reg.NumDefs(); i++ {
		tv := types.TVar(i)
		if missing[tv] > 0 {
			stuck = append(stuck, tv)
		}
	}
	return ready, stuck
}

// cycleFrom returns an embedding cycle that starts and ends at tv,
// following only stuck definitions. Nil means tv merely depends on a
// cycle without sitting on one.
func (g *depGraph) cycleFrom(start types.TVar, stuck map[types.TVar]bool) []types.TVar {
	var path []types.TVar
	dead := make(map[types.TVar]bool)
	var walk func(tv types.TVar) bool
	walk = func(tv types.TVar) bool {
		for _, d := range g.deps[tv] {
			if d == start {
				return true
			}
			if !stuck[d] || dead[d] {
				continue
			}
			dead[d] = true
			path = append(path, d)
			if walk(d) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	if !walk(start) {
		return nil
	}
	return append([]types.TVar{start}, path...)
}

// computeEmbeds finds, for every definition, which of its type
// parameters end up directly embedded in its storage. This is a fixed
// point because a parameter may be forwarded through other generic
// definitions before it reaches a field.
func computeEmbeds(reg *types.Registry) map[types.TVar]uint64 {
	embeds := make(map[types.TVar]uint64, reg.NumDefs())
	for changed := true; changed; {
		changed = false
		for i := 1; i < reg.NumDefs(); i++ {
			tv := types.TVar(i)
			var mask uint64
			for _, ct := range componentTypes(reg, tv) {
				mask |= paramsIn(reg, embeds, ct)
			}
			if mask != embeds[tv] {
				embeds[tv] = mask
				changed = true
			}
		}
	}
	return embeds
}

// paramsIn returns the parameter indices of the enclosing definition
// that occur embedded (not behind a pointer or function type) inside t.
func paramsIn(reg *types.Registry, embeds map[types.TVar]uint64, t types.Type) uint64 {
	n, ok := reg.Shape(t)
	if !ok {
		return 0
	}
	switch n.Kind {
	case types.KindParam:
		return paramBit(n.Index)
	case types.KindTuple:
		var mask uint64
		for _, a := range n.Args {
			mask |= paramsIn(reg, embeds, a)
		}
		return mask
	case types.KindArray:
		return paramsIn(reg, embeds, n.Elem)
	case types.KindNamed:
		var mask uint64
		for i, a := range n.Args {
			if embedded(embeds[n.TVar], i) {
				mask |= paramsIn(reg, embeds, a)
			}
		}
		return mask
	default:
		return 0
	}
}

func embedded(mask uint64, index int) bool {
	if index >= 64 {
		return true
	}
	return mask&(1<<uint(index)) != 0
}

// paramBit marks a parameter index in an embedding mask. Indices past 64
// collapse into treating every parameter as embedded, which is safe but
// coarse.
func paramBit(index uint32) uint64 {
	if index >= 64 {
		return ^uint64(0)
	}
	return 1 << index
}
