// Package region implements the region builder: the component that
// incrementally constructs an MIR control-flow graph as a decoder's
// semantics callbacks fire, tracks every translated guest address, decides
// when the region ends, and — after decoding — rewires intra-region jumps
// into direct MIR branches. See spec.md §4.1-§4.3 and SPEC_FULL.md.
//
// Grounded on frontend.Compiler's per-function entry-block setup and on
// ssa/builder.go's block/edge wiring conventions in the teacher codebase.
package region

import (
	"fmt"

	"github.com/rv64mir/region/internal/mir"
)

// Builder is the region builder described by spec.md §4.1. One Builder
// corresponds to exactly one translation region (spec.md §3 "Lifecycles").
type Builder struct {
	container *mir.Container
	cfg       Config

	currentPC uint64
	startPC   uint64

	currentBlock *mir.Block
	entryBlock   *mir.Block

	// flags is the per-region EFLAGS-like scratch register allocated at
	// construction (spec.md §4.1 "Allocates the flags virtual register").
	flags mir.GPReg

	targets *branchTargets

	// ubJustEmitted is "the previous instruction set the unconditional
	// branch just emitted flag" from spec.md §4.1 step 1/2.
	ubJustEmitted bool

	// currentIsJumpTarget records, for the instruction StartInsn most
	// recently opened, whether the branch-targets table already had an
	// entry for its PC *before* that call recorded it — i.e. some
	// earlier-decoded jump already wants to land here. Per spec.md §4.2
	// the jump resolver only splits blocks after decoding finishes, so
	// such an address is not yet a block boundary in the MIR being built,
	// but it will become one (internal/region/resolve.go's SplitBlock).
	// internal/lower consults this to invalidate register caching that
	// would otherwise span the future split point.
	currentIsJumpTarget bool

	success          bool
	instructionsSeen int
}

// NewBuilder constructs a region builder rooted at startPC, per spec.md
// §4.1 "Construction". It allocates the flags register, an empty
// branch-targets table, and the entry/continuation block pair: an entry
// block with a single unconditional pseudo-branch into an (initially empty)
// continuation block, which becomes the current block. This preamble gives
// the register allocator a safe spill slot at region entry without
// polluting the first translated block.
func NewBuilder(container *mir.Container, startPC uint64, cfg Config) *Builder {
	b := &Builder{
		container: container,
		cfg:       cfg,
		currentPC: startPC,
		startPC:   startPC,
		flags:     container.AllocGPReg(),
		targets:   newBranchTargets(),
		success:   true,
	}

	entry := container.NewBlock()
	continuation := container.NewBlock()
	jump := container.AllocInstruction().AsJump(continuation)
	entry.InsertInstruction(jump)

	b.entryBlock = entry
	b.currentBlock = continuation
	return b
}

// Container returns the MIR container this builder emits into, for the
// semantics-lowering layer (internal/lower) and the jump resolver.
func (b *Builder) Container() *mir.Container { return b.container }

// CurrentBlock returns the block instructions are currently appended to.
func (b *Builder) CurrentBlock() *mir.Block { return b.currentBlock }

// SetCurrentBlock redirects subsequent InsertInstruction calls to blk. Used
// by internal/lower to move between the blocks of the store-conditional
// diagram (lrsc.go); EmitMemoryAccess switches to its own continue block
// itself.
func (b *Builder) SetCurrentBlock(blk *mir.Block) { b.currentBlock = blk }

// FlagsReg returns the per-region EFLAGS-like scratch register (spec.md
// §4.1).
func (b *Builder) FlagsReg() mir.GPReg { return b.flags }

// CurrentPC returns the guest program counter of the instruction currently
// being (or about to be) translated (spec.md §6).
func (b *Builder) CurrentPC() uint64 { return b.currentPC }

// CurrentIsKnownJumpTarget reports whether the instruction StartInsn most
// recently opened is an address some earlier-decoded jump already wants to
// reach. Such a PC will become a block boundary once the post-decode jump
// resolver splits its containing block (spec.md §4.2), even though it is
// not one yet.
func (b *Builder) CurrentIsKnownJumpTarget() bool { return b.currentIsJumpTarget }

// AdvancePC moves the guest program counter forward by the byte size of the
// instruction just decoded (spec.md §6).
func (b *Builder) AdvancePC(byteSize uint64) { b.currentPC += byteSize }

// Success reports whether every instruction translated so far was
// supported. It goes sticky-false the moment Unimplemented is called and
// never recovers within this region (spec.md §4.1, §4.7).
func (b *Builder) Success() bool { return b.success }

// Entries, defined in targets.go, is the read-only branch-targets accessor
// spec.md §6 requires for testing.

// IsRegionEndReached implements spec.md §4.1 step 1: true iff the previous
// instruction set the unconditional-branch-just-emitted flag AND the
// branch-targets table has no entry for the current PC (i.e. no earlier
// conditional branch targets this fallthrough address), or the driver's
// instruction cap (SPEC_FULL.md §4.1 "(ADDED) Construction signature") has
// been reached.
func (b *Builder) IsRegionEndReached() bool {
	if b.cfg.MaxInstructions > 0 && b.instructionsSeen >= b.cfg.MaxInstructions {
		return true
	}
	if !b.ubJustEmitted {
		return false
	}
	return b.targets.lookup(b.currentPC) == nil
}

// StartInsn implements spec.md §4.1 step 2. If the previous instruction was
// an unconditional branch, a fresh block is opened (the fallthrough of a
// conditional whose target had been taken, or a dead-code landing for the
// splitter). The unconditional-branch flag is cleared, and a pending
// position entry is recorded for the current PC.
func (b *Builder) StartInsn() {
	if b.ubJustEmitted {
		b.currentBlock = b.container.NewBlock()
	}
	b.ubJustEmitted = false
	b.instructionsSeen++

	b.currentIsJumpTarget = b.targets.lookup(b.currentPC) != nil

	var pos position
	if !b.currentBlock.Empty() {
		pos = position{blk: b.currentBlock, instr: b.currentBlock.Tail()}
	} else {
		pos = position{blk: b.currentBlock, instr: nil}
	}
	b.targets.recordTranslated(b.currentPC, pos)
}

// CompareAndBranch implements spec.md §4.1 "Direct conditional branch": it
// emits a compare into the flags register, creates then/else blocks, wires
// edges current->then and current->else, terminates current with a
// conditional branch on cond, emits GenJump(targetPC) in the then block, and
// leaves the builder positioned on the else block (the fallthrough path).
func (b *Builder) CompareAndBranch(width mir.Width, v1, v2 mir.Value, cond mir.HostCondition, targetPC uint64) {
	cmp := b.container.AllocInstruction().AsIcmp(width, v1, v2, cond)
	b.currentBlock.InsertInstruction(cmp)

	thenBlk := b.container.NewBlock()
	elseBlk := b.container.NewBlock()

	br := b.container.AllocInstruction().AsBrcond(cond, thenBlk, elseBlk)
	b.currentBlock.InsertInstruction(br)

	b.currentBlock = thenBlk
	b.genJump(targetPC)

	b.currentBlock = elseBlk
}

// Branch implements spec.md §4.1 "Direct unconditional branch": sets the
// unconditional-branch flag and emits GenJump(targetPC).
func (b *Builder) Branch(targetPC uint64) {
	b.ubJustEmitted = true
	b.genJump(targetPC)
}

// BranchRegister implements spec.md §4.1 "Indirect branch": copies base to
// a temporary, adds the sign-extended offset, masks bit 0 (the RISC-V
// indirect-jump alignment rule — SPEC_FULL.md/DESIGN.md Open Question 3
// follows the source and masks only bit 0), then emits an indirect
// pseudo-jump that always exits the region.
func (b *Builder) BranchRegister(base mir.Value, offset int64) {
	c := b.container

	tmp := c.AllocGPValue(mir.TypeI64)
	copyInstr := c.AllocInstruction().AsCopy(base, tmp)
	b.currentBlock.InsertInstruction(copyInstr)

	offConst := c.AllocGPValue(mir.TypeI64)
	offInstr := c.AllocInstruction().AsIconst(mir.Width64, uint64(offset), offConst)
	b.currentBlock.InsertInstruction(offInstr)

	sum := c.AllocGPValue(mir.TypeI64)
	addInstr := c.AllocInstruction().AsALU(mir.OpIadd, mir.Width64, tmp, offConst, sum)
	b.currentBlock.InsertInstruction(addInstr)

	maskConst := c.AllocGPValue(mir.TypeI64)
	maskInstr := c.AllocInstruction().AsIconst(mir.Width64, ^uint64(1), maskConst)
	b.currentBlock.InsertInstruction(maskInstr)

	masked := c.AllocGPValue(mir.TypeI64)
	andInstr := c.AllocInstruction().AsALU(mir.OpAnd, mir.Width64, sum, maskConst, masked)
	b.currentBlock.InsertInstruction(andInstr)

	jmp := c.AllocInstruction().AsIndirectJump(masked)
	b.currentBlock.InsertInstruction(jmp)

	b.ubJustEmitted = true
}

// genJump implements spec.md §4.1 "GenJump(target)": if target is not in
// the branch-targets table, an unresolved (pending) entry is inserted.
// JumpWithPendingSignalsCheck is chosen when target <= the current PC (a
// back edge, spec.md §3 invariant), else JumpWithoutPendingSignalsCheck.
func (b *Builder) genJump(target uint64) {
	if b.targets.lookup(target) == nil {
		b.targets.recordPending(target)
	}
	kind := mir.JumpWithoutPendingSignalsCheck
	if target <= b.currentPC {
		kind = mir.JumpWithPendingSignalsCheck
	}
	instr := b.container.AllocInstruction().AsPseudoJump(kind, target)
	b.currentBlock.InsertInstruction(instr)
}

// ExitGeneratedCode implements spec.md §4.1 "ExitGeneratedCode(target)":
// emits an ExitGeneratedCode pseudo-jump unconditionally. Used by
// Unimplemented and by EmitMemoryAccess's fault recovery blocks; the jump
// resolver's pending-signal exit block (buildSignalExitBlock) emits the same
// pseudo-jump kind directly.
func (b *Builder) ExitGeneratedCode(target uint64) {
	if b.targets.lookup(target) == nil {
		b.targets.recordPending(target)
	}
	instr := b.container.AllocInstruction().AsPseudoJump(mir.ExitGeneratedCode, target)
	b.currentBlock.InsertInstruction(instr)
}

// Unimplemented implements spec.md §4.1/§4.7 "Unimplemented instruction":
// sets the sticky success=false flag, emits an ExitGeneratedCode at the
// current PC, and sets the unconditional-branch flag so decoding may
// continue past it.
func (b *Builder) Unimplemented() {
	b.success = false
	b.ExitGeneratedCode(b.currentPC)
	b.ubJustEmitted = true
}

// EmitMemoryAccess implements the recovery-block protocol of spec.md §4.5
// around a just-constructed OpLoad/OpStore instruction: it creates a
// continue block and a recovery block, adds edges from the current block to
// both, associates instr with the recovery block, appends instr followed by
// an unconditional jump to continue, emits ExitGeneratedCode(current PC) in
// the recovery block, and switches the current block to continue.
func (b *Builder) EmitMemoryAccess(instr *mir.Instruction) {
	current := b.currentBlock

	continueBlk := b.container.NewBlock()
	recoveryBlk := b.container.NewBlock()
	recoveryBlk.MarkRecovery()

	instr.SetRecoveryBlock(recoveryBlk)
	current.InsertInstruction(instr)

	b.container.AddEdge(current, recoveryBlk)

	jmp := b.container.AllocInstruction().AsJump(continueBlk)
	current.InsertInstruction(jmp)

	b.currentBlock = recoveryBlk
	b.ExitGeneratedCode(b.currentPC)

	b.currentBlock = continueBlk
}

// Finalize implements spec.md §4.1 "Finalize(stop_pc)". If the current
// block is empty or does not end in a control transfer, GenJump(stopPC) is
// emitted so every block terminates in one. Every translated
// branch-targets entry's "none" sentinel is resolved to the block's first
// instruction, and every other stored iterator is advanced by one position
// (§4.1 step 2 recorded the position *before* the guest instruction's host
// instructions were emitted; callers expect the position *of* the first
// one). Finally, the jump resolver runs if configured.
func (b *Builder) Finalize(stopPC uint64) error {
	if b.currentBlock.Empty() || !b.currentBlock.Tail().IsControlTransfer() {
		b.genJump(stopPC)
	}

	for _, addr := range b.targets.sortedAddrs() {
		e := b.targets.entries[addr]
		if !e.translated() {
			continue
		}
		if !e.hasInstr {
			first := e.blk.Root()
			if first == nil {
				return fmt.Errorf("region: invariant violation: translated block for 0x%x is still empty at Finalize", addr)
			}
			e.instr = first
			e.hasInstr = true
			continue
		}
		next := e.instr.Next()
		if next == nil {
			return fmt.Errorf("region: invariant violation: no instruction follows the recorded position for 0x%x", addr)
		}
		e.instr = next
	}

	if b.cfg.LinkJumpsWithinRegion {
		if err := resolveJumps(b); err != nil {
			return err
		}
	}
	b.validate()
	return nil
}
