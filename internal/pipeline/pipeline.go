// Package pipeline drives the middle end: layout computation over a
// frozen registry, then MIR translation, then Core lowering. Stages are
// strictly ordered and the run stops at the first failed one; user
// diagnostics and internal faults travel on separate channels.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"sable/internal/core"
	"sable/internal/diag"
	"sable/internal/hir"
	"sable/internal/layout"
	"sable/internal/mir"
)

// ErrDiagnostics reports that the run stopped because user diagnostics
// were emitted; the returned Result still carries the bag.
var ErrDiagnostics = errors.New("pipeline: diagnostics reported")

// Options configures a run. The zero value picks the default target,
// one goroutine per processor, and a reasonable diagnostic cap.
type Options struct {
	// Target is the machine model layouts are computed for.
	Target layout.Target
	// Jobs bounds translation and lowering parallelism; <= 0 means one
	// per processor.
	Jobs int
	// MaxDiagnostics caps the bag; <= 0 means DefaultMaxDiagnostics.
	MaxDiagnostics int
}

// DefaultMaxDiagnostics caps the bag when Options does not.
const DefaultMaxDiagnostics = 256

// Result is the output of a run. Layouts and Diags are always set;
// MIR and Core are nil when the run stopped before their stage.
type Result struct {
	Layouts *layout.Cache
	MIR     *mir.Program
	Core    *core.Program
	Diags   *diag.Bag
}

// Run executes the full middle end over one module. The module's
// registry and symbol table are frozen here if the caller has not done
// so already. Functions are translated and lowered in parallel; the
// output order is the input order regardless of scheduling.
func Run(ctx context.Context, m *hir.Module, opts Options) (*Result, error) {
	if m == nil || m.Types == nil || m.Symbols == nil {
		return nil, internal("setup", fmt.Errorf("module, registry and symbol table must all be present"))
	}
	target := opts.Target
	if target.Triple == "" {
		target = layout.X86_64LinuxGNU()
	}
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = DefaultMaxDiagnostics
	}

	m.Types.Freeze()
	m.Symbols.Freeze()

	bag := diag.NewBag(maxDiags)
	cache := layout.NewEngine(m.Types, target).Compute(bag)
	res := &Result{Layouts: cache, Diags: bag}
	if bag.HasErrors() {
		return res, ErrDiagnostics
	}

	// Seeding interns types, so it runs alone; afterwards the cache is
	// sealed and every lookup below is pure.
	if err := mir.SeedLayouts(cache, m.Symbols, m); err != nil {
		return res, internal("layout seeding", err)
	}
	cache.Seal()

	mb := mir.NewBuilder(m.Types, m.Symbols, cache)
	mirFuncs := make([]*mir.Func, len(m.Funcs))
	err := runIndexed(ctx, opts.Jobs, len(m.Funcs), func(i int) error {
		f, ferr := mb.Function(m.Funcs[i])
		if ferr != nil {
			return ferr
		}
		mirFuncs[i] = f
		return nil
	})
	if err != nil {
		return res, internal("mir translation", err)
	}
	res.MIR = &mir.Program{Module: m.Name, Funcs: mirFuncs}

	lo := core.NewLowerer(m.Types, m.Symbols)
	coreFuncs := make([]*core.Func, len(m.Funcs))
	err = runIndexed(ctx, opts.Jobs, len(mirFuncs), func(i int) error {
		f, ferr := lo.Function(mirFuncs[i])
		if ferr != nil {
			return ferr
		}
		coreFuncs[i] = f
		return nil
	})
	if err != nil {
		return res, internal("core lowering", err)
	}
	res.Core = &core.Program{Module: m.Name, Funcs: coreFuncs}

	return res, nil
}
