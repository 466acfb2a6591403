package mir

// Container owns every Block and Instruction in one translation region: the
// "MIR builder (external)" component of spec.md §2, implemented here as a
// node-stable arena so that Position values recorded by the region builder
// stay valid across further appends and even across block splitting
// (spec.md §3, §9).
type Container struct {
	blocks       pool[Block]
	instructions pool[Instruction]

	blockList []*Block

	nextGPID   uint32
	nextSIMDID uint32
	nextValID  uint32
}

// NewContainer returns an empty, arena-backed MIR container.
func NewContainer() *Container {
	return &Container{blocks: newPool[Block](), instructions: newPool[Instruction]()}
}

// NewBlock allocates a new, empty Block and registers it for iteration.
func (c *Container) NewBlock() *Block {
	b := c.blocks.allocate()
	b.id = BlockID(len(c.blockList))
	b.preds = nil
	b.succs = nil
	c.blockList = append(c.blockList, b)
	return b
}

// BlockCount returns the number of blocks allocated so far. Callers that
// must also visit blocks allocated *while* iterating (the jump resolver,
// spec.md §4.2) should re-check this on every iteration rather than cache
// it, since SplitBlock and similar calls append to the backing list.
func (c *Container) BlockCount() int { return len(c.blockList) }

// BlockAt returns the i-th block in allocation order.
func (c *Container) BlockAt(i int) *Block { return c.blockList[i] }

// Blocks returns every block allocated so far, in allocation order. The
// returned slice must not be mutated by the caller; callers that need to
// walk blocks created *during* their own pass (e.g. the jump resolver,
// spec.md §4.2) should re-slice from this underlying list rather than copy
// it up front.
func (c *Container) Blocks() []*Block { return c.blockList }

// AllocInstruction allocates a fresh, unattached Instruction. The caller is
// expected to populate it via one of the as* constructors and then call
// Block.InsertInstruction.
func (c *Container) AllocInstruction() *Instruction {
	i := c.instructions.allocate()
	i.reset()
	return i
}

// AllocGPValue allocates a fresh general-purpose Value of type t.
func (c *Container) AllocGPValue(t Type) Value {
	id := c.nextValID
	c.nextValID++
	return newValue(id, t)
}

// AllocGPReg allocates a fresh general-purpose virtual register.
func (c *Container) AllocGPReg() GPReg {
	id := c.nextGPID
	c.nextGPID++
	return GPReg{newVReg(id, RegClassGP)}
}

// AllocSIMDReg allocates a fresh SIMD/floating-point virtual register.
func (c *Container) AllocSIMDReg() SIMDReg {
	id := c.nextSIMDID
	c.nextSIMDID++
	return SIMDReg{newVReg(id, RegClassSIMD)}
}

// AddEdge adds a CFG edge from -> to that is not implied by a branch
// instruction already inserted (used by the jump resolver when rewriting a
// pseudo-jump terminator into a direct branch, spec.md §4.2 step 4).
func (c *Container) AddEdge(from, to *Block) {
	from.addEdgeTo(to, from.tail)
}

// IsControlTransfer reports whether insn is a valid block terminator, per
// the MIR container contract (spec.md §6).
func (c *Container) IsControlTransfer(insn *Instruction) bool {
	return insn.IsControlTransfer()
}

// SplitBlock splits blk immediately before at (which must not be blk's root
// instruction) into two blocks: blk keeps every instruction before at, and a
// freshly allocated block inherits at and everything after it, including
// blk's terminator and its outgoing edges. A new unconditional jump from blk
// to the new block is appended to blk so that control flow through the
// split point is preserved. This is the block-splitting graph surgery
// spec.md §4.2 step 3 requires; see internal/region/resolve.go for the
// policy that decides when to call it.
func (c *Container) SplitBlock(blk *Block, at *Instruction) *Block {
	if at == blk.root {
		panic("mir: SplitBlock called with at == block root; nothing to split")
	}

	newBlock := c.NewBlock()

	// Re-home the moved instruction chain [at, blk.tail] onto newBlock.
	oldTail := blk.tail
	prefix := at.prev
	prefix.next = nil
	at.prev = nil

	newBlock.root = at
	newBlock.tail = oldTail
	blk.tail = prefix

	for n := at; n != nil; n = n.next {
		n.setOwner(newBlock)
	}

	// Re-home the terminator's CFG edges: newBlock inherits blk's successors
	// and recovery flag (the terminator, and any load/store recovery
	// association, now lives in newBlock).
	newBlock.succs = blk.succs
	newBlock.recovery = blk.recovery
	blk.succs = nil
	blk.recovery = false
	for _, succ := range newBlock.succs {
		for i := range succ.preds {
			if succ.preds[i].from == blk {
				succ.preds[i].from = newBlock
			}
		}
	}

	// blk now falls straight through into newBlock.
	jump := c.AllocInstruction()
	jump.AsJump(newBlock)
	blk.InsertInstruction(jump)

	return newBlock
}
