// Package driver implements the per-region compile loop this codebase is
// otherwise only a library for: fetch a guest instruction word, decode it,
// let the decoder drive region.Builder/lower.Compiler, repeat until the
// region builder says the region is done, then finalize. spec.md §1 places
// "the enclosing binary translator (driver, dispatcher, signal handling,
// translation cache)" out of scope except for the two knobs it names in
// §6's Configuration; this package supplies a minimal concrete driver
// around those knobs so the region builder has a real caller.
//
// Grounded on wazevo/engine.go's compileModule/compileLocalWasmFunction
// loop (fetch-this-function's-code -> run one frontend.Compiler over it ->
// handle the error -> move to the next function).
package driver

import (
	"fmt"

	"github.com/kr/pretty"
	"github.com/pkg/errors"

	"github.com/rv64mir/region/internal/lower"
	"github.com/rv64mir/region/internal/mir"
	"github.com/rv64mir/region/internal/region"
	"github.com/rv64mir/region/internal/regionapi"
	"github.com/rv64mir/region/internal/riscv"
)

// GuestMemory is the minimal read interface the driver needs from the
// emulator's guest address space: one 32-bit instruction word fetch.
// spec.md §1 places guest memory itself out of scope ("the host
// virtual-memory shadow"); this is just enough of a seam for the compile
// loop to read code without depending on a concrete memory implementation.
type GuestMemory interface {
	FetchInstruction(pc uint64) (uint32, error)
}

// Result is what CompileRegion hands back to the enclosing translator:
// the finalized container, whether every decoded instruction lowered
// successfully (spec.md §4.7 "Unimplemented instruction" sets this false
// without aborting translation), and the branch-targets table for
// diagnostics.
type Result struct {
	Container *mir.Container
	Success   bool
	Entries   []region.Entry
}

// CompileRegion runs spec.md §4.1's decode loop end to end: construct a
// builder at startPC, repeatedly fetch+decode+lower until
// IsRegionEndReached, then Finalize at the PC following the last decoded
// instruction. Per spec.md
// §4.7, an unimplemented instruction does not abort the loop — Unimplemented
// sets the unconditional-branch-just-emitted flag, so the very next
// IsRegionEndReached check (there being no pending branch-targets entry at
// the post-exit PC) ends the region the same way a real unconditional
// branch would.
func CompileRegion(mem GuestMemory, startPC uint64, offsets regionapi.ThreadStateOffsets, cfg region.Config) (Result, error) {
	container := mir.NewContainer()
	b := region.NewBuilder(container, startPC, cfg)
	c := lower.NewCompiler(b, offsets)

	var stopPC uint64
	for {
		stopPC = b.CurrentPC()
		if b.IsRegionEndReached() {
			break
		}

		insn, err := mem.FetchInstruction(b.CurrentPC())
		if err != nil {
			return Result{}, errors.Wrapf(err, "fetch instruction at pc=%#x", b.CurrentPC())
		}

		b.StartInsn()
		riscv.Decode(c, b.CurrentPC(), insn)

		if regionapi.FrontEndLoggingEnabled {
			fmt.Printf("--------- translated pc=%#x insn=%#08x ---------\n", b.CurrentPC(), insn)
			fmt.Printf("%# v\n", pretty.Formatter(b.Entries()))
		}

		b.AdvancePC(4)
	}

	if err := b.Finalize(stopPC); err != nil {
		return Result{}, errors.Wrap(err, "finalize region")
	}

	if regionapi.FrontEndLoggingEnabled {
		fmt.Printf("--------- region finalized: success=%v blocks=%d ---------\n", b.Success(), container.BlockCount())
		fmt.Printf("%# v\n", pretty.Formatter(b.Entries()))
	}

	return Result{
		Container: container,
		Success:   b.Success(),
		Entries:   b.Entries(),
	}, nil
}
