package region

import (
	"fmt"

	"github.com/rv64mir/region/internal/mir"
	"github.com/rv64mir/region/internal/regionapi"
)

// resolveJumps implements spec.md §4.2: the post-decode pass that rewrites
// every OpPseudoJump terminator whose target was translated inside this
// region into a direct MIR branch, splitting blocks as needed so every
// such jump's translated target becomes the first instruction of some block.
// Back-edge pseudo-jumps (JumpWithPendingSignalsCheck) are rewired through
// an inserted pending-signals-check block rather than directly, per spec.md
// §4.2 "Pending-signal check on back edges". Pseudo-jumps whose target
// falls outside the region (or is a Syscall/ExitGeneratedCode) are left
// untouched — they remain real exits back to the dispatcher.
//
// The outer loop re-reads container.BlockCount() every iteration rather
// than snapshotting it up front, since splitting a block or building a
// pending-signals-check block appends new blocks that must themselves be
// visited (a freshly split suffix block's terminator might itself still be
// a pseudo-jump needing resolution).
func resolveJumps(b *Builder) error {
	c := b.container

	exitBlocks := make(map[uint64]*mir.Block)
	checkBlocks := make(map[uint64]*mir.Block)

	for i := 0; i < c.BlockCount(); i++ {
		blk := c.BlockAt(i)
		if blk.Empty() {
			continue
		}

		term := blk.Tail()
		if term.Opcode() != mir.OpPseudoJump {
			continue
		}

		kind, target := term.PseudoJump()
		if kind == mir.Syscall || kind == mir.ExitGeneratedCode {
			continue
		}

		e := b.targets.lookup(target)
		if e == nil || !e.translated() {
			continue
		}

		destBlk, err := targetBlock(c, e)
		if err != nil {
			return err
		}

		// A self-referential split (the jump's own block contained the
		// target mid-block) relocates term into the new suffix block; blk's
		// tail is now the plain connecting jump SplitBlock inserted. Leave
		// term for the loop to reach when it gets to that suffix block.
		if blk.Tail() != term {
			continue
		}

		switch kind {
		case mir.JumpWithoutPendingSignalsCheck:
			replacement := c.AllocInstruction().AsJump(destBlk)
			blk.SpliceTerminator(term, replacement)
			c.AddEdge(blk, destBlk)

		case mir.JumpWithPendingSignalsCheck:
			checkBlk, ok := checkBlocks[target]
			if !ok {
				exitBlk, ok2 := exitBlocks[target]
				if !ok2 {
					exitBlk = buildSignalExitBlock(b, target)
					exitBlocks[target] = exitBlk
				}
				checkBlk = buildPendingSignalsCheck(c, exitBlk, destBlk)
				checkBlocks[target] = checkBlk
			}
			replacement := c.AllocInstruction().AsJump(checkBlk)
			blk.SpliceTerminator(term, replacement)
			c.AddEdge(blk, checkBlk)

		default:
			return fmt.Errorf("region: invariant violation: unexpected pseudo-jump kind %v targeting a translated address 0x%x", kind, target)
		}
	}

	// Re-home every translated entry onto the block its instruction lives in
	// now, so an entry whose instruction a split moved into a new block
	// refers to that block (spec.md §4.2 step 3).
	for _, e := range b.targets.entries {
		if e.translated() && e.hasInstr && e.instr.Block() != nil {
			e.blk = e.instr.Block()
		}
	}

	return nil
}

// targetBlock returns the block a translated branch-targets entry's address
// lands on as its *first* instruction, splitting the owning block if the
// entry currently sits mid-block (spec.md §4.2 step 3).
//
// e.instr's owning block is looked up fresh via Instruction.Block() rather
// than trusting e.blk: an earlier split (triggered by a different target
// address sharing the same original block) may already have re-homed
// e.instr onto a different block than the one recorded at StartInsn time.
//
// A self-referential back edge (one whose own containing block is also the
// split target, spec.md §4.2 step 3's "If the block currently being
// processed equals the prefix, retarget...") can cause the very same
// address to be resolved twice: once while splitting its block, and again
// once the loop reaches the split-off suffix block and finds its own
// pseudo-jump targeting its own block's root. That second resolution's
// recorded instruction can be the pseudo-jump Block.SpliceTerminator just
// replaced on a *different* address's resolution in the meantime — detached
// from its block's instruction list (no prev, no next) but still reporting
// its old owner via Instruction.Block(), since splicing a terminator out
// never needed to clear that field for any other purpose. Splitting on a
// detached instruction would corrupt the list (it has no prev to re-link),
// so that case resolves to the owner's current root directly instead.
func targetBlock(c *mir.Container, e *targetEntry) (*mir.Block, error) {
	if !e.hasInstr || e.instr == nil {
		return nil, fmt.Errorf("region: invariant violation: translated target 0x%x has no resolved instruction", e.addr)
	}
	owner := e.instr.Block()
	if owner == nil {
		return nil, fmt.Errorf("region: invariant violation: translated target 0x%x's instruction has no owning block", e.addr)
	}
	if e.instr == owner.Root() {
		return owner, nil
	}
	if e.instr.Prev() == nil && e.instr.Next() == nil {
		return owner, nil
	}
	return c.SplitBlock(owner, e.instr), nil
}

// buildSignalExitBlock builds the dedicated exit block a back edge to target
// diverts into when the pending-signals check trips: an unconditional
// ExitGeneratedCode(target) so the dispatcher can service the signal before
// re-entering the region at exactly the back edge's destination (spec.md
// §4.2, §4.6).
func buildSignalExitBlock(b *Builder, target uint64) *mir.Block {
	c := b.container
	if b.targets.lookup(target) == nil {
		b.targets.recordPending(target)
	}
	blk := c.NewBlock()
	instr := c.AllocInstruction().AsPseudoJump(mir.ExitGeneratedCode, target)
	blk.InsertInstruction(instr)
	return blk
}

// buildPendingSignalsCheck builds the block spec.md §4.2 requires in front
// of every back edge: load the pending-signals byte from thread state,
// compare it against regionapi.KPendingSignalsPresent, and branch to exitBlk
// if a signal is pending or straight to destBlk (the loop header) otherwise.
func buildPendingSignalsCheck(c *mir.Container, exitBlk, destBlk *mir.Block) *mir.Block {
	checkBlk := c.NewBlock()

	loadVal := c.AllocGPValue(mir.TypeI8)
	load := c.AllocInstruction().AsThreadStateLoad(regionapi.DefaultThreadStateOffsets.PendingSignalsStatus, loadVal)
	checkBlk.InsertInstruction(load)

	constVal := c.AllocGPValue(mir.TypeI8)
	konst := c.AllocInstruction().AsIconst(mir.Width32, uint64(regionapi.KPendingSignalsPresent), constVal)
	checkBlk.InsertInstruction(konst)

	cmp := c.AllocInstruction().AsIcmp(mir.Width32, loadVal, constVal, mir.CondEqual)
	checkBlk.InsertInstruction(cmp)

	br := c.AllocInstruction().AsBrcond(mir.CondEqual, exitBlk, destBlk)
	checkBlk.InsertInstruction(br)

	return checkBlk
}
