package mir

import "fmt"

// BlockID uniquely identifies a Block within one Container.
type BlockID uint32

// Block is a MIR basic block: an ordered, node-stable sequence of
// instructions with explicit predecessor/successor edges, per spec.md §3.
// Like ssa.basicBlock it is an intrusive linked list (root/tail pointers
// plus each Instruction's prev/next), which is what lets a Position
// recorded before a later InsertInstruction call remain valid (spec.md §3
// "Positions must remain stable across appends to the same block").
type Block struct {
	id   BlockID
	root *Instruction
	tail *Instruction

	preds []predEdge
	succs []*Block

	// recovery marks a block reached only via a fault handler (spec.md §3).
	// A recovery block must terminate in ExitGeneratedCode and is never
	// rewritten into a local branch by the jump resolver (spec.md §3, §4.2).
	recovery bool

	// invalid marks a block removed from the CFG, kept rather than
	// physically deleted so any stale references are easy to detect
	// defensively. No pass in this module sets it; SplitBlock leaves both
	// halves valid.
	invalid bool
}

type predEdge struct {
	from   *Block
	branch *Instruction
}

// ID returns this block's unique identifier.
func (b *Block) ID() BlockID { return b.id }

// Name returns a debug name, e.g. "blk3".
func (b *Block) Name() string { return fmt.Sprintf("blk%d", b.id) }

// Root returns the first instruction of this block, or nil if empty.
func (b *Block) Root() *Instruction { return b.root }

// Tail returns the last instruction of this block, or nil if empty.
func (b *Block) Tail() *Instruction { return b.tail }

// Empty reports whether this block has no instructions.
func (b *Block) Empty() bool { return b.root == nil }

// Recovery reports whether this is a fault-recovery block.
func (b *Block) Recovery() bool { return b.recovery }

// MarkRecovery flags this block as a fault-recovery block (spec.md §4.5).
func (b *Block) MarkRecovery() { b.recovery = true }

// Valid reports whether this block is still part of the CFG.
func (b *Block) Valid() bool { return !b.invalid }

// Preds returns the number of predecessor edges into this block.
func (b *Block) Preds() int { return len(b.preds) }

// Succs returns the successor blocks of this block, in edge-insertion order.
func (b *Block) Succs() []*Block { return b.succs }

// InsertInstruction appends instr to the tail of this block. If instr is a
// direct unconditional/conditional branch, the corresponding CFG edge(s) are
// wired automatically, mirroring ssa.basicBlock.InsertInstruction.
func (b *Block) InsertInstruction(instr *Instruction) {
	if b.tail != nil {
		b.tail.next = instr
		instr.prev = b.tail
	} else {
		b.root = instr
	}
	b.tail = instr
	instr.setOwner(b)

	switch instr.opcode {
	case OpJump:
		b.addEdgeTo(instr.blk, instr)
	case OpBrcond:
		b.addEdgeTo(instr.blk, instr)
		b.addEdgeTo(instr.blk2, instr)
	}
}

func (b *Block) addEdgeTo(succ *Block, branch *Instruction) {
	succ.preds = append(succ.preds, predEdge{from: b, branch: branch})
	b.succs = append(b.succs, succ)
}

// removeEdgeTo drops the first successor edge to succ (used when rewriting a
// terminator in place during jump resolution).
func (b *Block) removeEdgeTo(succ *Block) {
	for i, s := range b.succs {
		if s == succ {
			b.succs = append(b.succs[:i], b.succs[i+1:]...)
			break
		}
	}
	for i, p := range succ.preds {
		if p.from == b {
			succ.preds = append(succ.preds[:i], succ.preds[i+1:]...)
			break
		}
	}
}

// SpliceTerminator replaces old (which must be b's tail) with replacement in
// place: same linked-list node positions are kept stable for every *other*
// instruction, exactly the in-place-overwrite discipline
// ssa.builder.swapInstruction uses so any stray reference to the terminator
// position stays valid (spec.md §4.2 "Iterator stability"). The caller is
// responsible for wiring replacement's CFG edges (e.g. via
// Container.AddEdge): unlike InsertInstruction, no auto-wiring happens here,
// since the resolver often needs to replace a pseudo-jump with a direct
// branch whose edge set differs from what InsertInstruction would infer.
func (b *Block) SpliceTerminator(old, replacement *Instruction) {
	if b.tail != old {
		panic("mir: spliceTerminatorReplacement called on non-tail instruction")
	}
	replacement.prev = old.prev
	if old.prev != nil {
		old.prev.next = replacement
	} else {
		b.root = replacement
	}
	b.tail = replacement
	replacement.setOwner(b)
	old.prev, old.next = nil, nil
}
