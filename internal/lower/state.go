package lower

import (
	"github.com/rv64mir/region/internal/mir"
	"github.com/rv64mir/region/internal/region"
	"github.com/rv64mir/region/internal/regionapi"
)

// GuestState tracks, for each of the 32 RISC-V integer and 32 floating-point
// registers, the MIR Value currently holding its contents within this
// region. spec.md §6 names GetReg/SetReg/GetFpReg/NanBoxAndSetFpReg as a
// decoder-facing contract but leaves their backing storage unspecified;
// here every access is backed by the thread-state register bank
// (regionapi.ThreadStateOffsets GPRBase/FPRBase) rather than kept purely
// region-local, since a register read may need a value a previous region
// left behind and a register write must be visible to whatever region runs
// next. Reads are cached, scoped to the current MIR block rather than the
// whole region, to avoid redundant reloads of a register already touched
// earlier in the same block; writes are stored through immediately rather
// than deferred to an exit-time epilogue, which keeps GuestState itself
// simple at the cost of not eliding redundant stores (an optimization
// spec.md §1 explicitly disclaims: "No guarantee of generated-code
// performance parity with hand-written lowerings").
//
// A region-wide cache would be unsound: region.Builder.CompareAndBranch
// forks decoding into two real CFG paths (a "then" block holding the taken
// jump and an "else" block holding the fallthrough instructions), and an
// ordinary forward branch over a register write means the write's MIR
// instruction lives only on the fallthrough path while a reader after the
// branch target may be reached via the taken path instead, where that
// instruction never executed. Caching per block only (and reloading from
// thread state again on a block boundary) keeps every cached Value
// dominated by the instruction that defined it.
//
// A plain "current MIR block changed" check is not enough on its own,
// though: spec.md §4.2 splits blocks lazily, after decoding finishes, so a
// forward branch target that lands in the middle of an already-open block
// (e.g. a conditional skips over one register write and lands on the very
// next guest instruction) is still decoded into that same block and would
// otherwise keep reading the stale cached Value right up until the
// resolver later carves the target off into its own block. Any PC that
// region.Builder.CurrentIsKnownJumpTarget reports true for is treated as a
// block boundary for caching purposes even before that split happens.
type GuestState struct {
	gpr      [32]mir.Value
	gprKnown [32]bool
	fpr      [32]mir.Value
	fprKnown [32]bool

	// lastBlock and lastPC are the block/PC the cache above was populated
	// against. lastBlock changing means the builder itself opened a new
	// block (StartInsn, CompareAndBranch, EmitMemoryAccess, the LR/SC
	// diagram); lastPC changing onto a known jump target means the block
	// is still the same one but will be split at this PC once the jump
	// resolver runs. Either invalidates the cache.
	lastBlock *mir.Block
	lastPC    uint64
	havePC    bool

	zero mir.Value

	offsets regionapi.ThreadStateOffsets
}

// sync drops every cached register whose Value was recorded against a
// different block, or against a PC the jump resolver will later split this
// block at, than b's current position — keeping the per-block cache sound
// across both real CFG forks and future mid-block splits (see the
// GuestState doc comment). The x0 zero constant is a region-wide invariant,
// not a thread-state cache entry, so it survives.
func (s *GuestState) sync(b *region.Builder) {
	cur := b.CurrentBlock()
	pc := b.CurrentPC()

	boundary := cur != s.lastBlock
	if !boundary && (!s.havePC || pc != s.lastPC) && b.CurrentIsKnownJumpTarget() {
		boundary = true
	}
	s.lastPC = pc
	s.havePC = true
	if !boundary {
		return
	}
	s.lastBlock = cur
	for i := 1; i < 32; i++ {
		s.gprKnown[i] = false
	}
	for i := 0; i < 32; i++ {
		s.fprKnown[i] = false
	}
}

// newGuestState materializes the canonical x0 zero constant into b's
// current block (the empty continuation block at construction time) and
// returns an otherwise-empty GuestState.
func newGuestState(b *region.Builder, offsets regionapi.ThreadStateOffsets) *GuestState {
	c := b.Container()
	zeroVal := c.AllocGPValue(mir.TypeI64)
	zeroInstr := c.AllocInstruction().AsIconst(mir.Width64, 0, zeroVal)
	b.CurrentBlock().InsertInstruction(zeroInstr)

	s := &GuestState{zero: zeroVal, offsets: offsets}
	s.gpr[0] = zeroVal
	s.gprKnown[0] = true
	return s
}

// GetReg returns the Value currently holding guest GPR idx's contents,
// loading it from thread state on first use within the current cache scope
// (see GuestState.sync). Reading x0
// always returns the region-wide zero constant (RISC-V hardwires x0 to
// zero).
func (c *Compiler) GetReg(idx uint32) mir.Value {
	if idx == 0 {
		return c.state.zero
	}
	c.state.sync(c.b)
	if c.state.gprKnown[idx] {
		return c.state.gpr[idx]
	}
	cc := c.b.Container()
	v := cc.AllocGPValue(mir.TypeI64)
	load := cc.AllocInstruction().AsThreadStateLoad(c.state.offsets.GPRBase+idx*8, v)
	c.b.CurrentBlock().InsertInstruction(load)
	c.state.gpr[idx] = v
	c.state.gprKnown[idx] = true
	return v
}

// SetReg writes v as guest GPR idx's new contents: cached for any later
// GetReg in the current cache scope (see GuestState.sync), and stored
// through to thread state immediately so
// it is visible once the region exits. Writes to x0 are discarded (RISC-V
// requires x0 writes to have no effect).
func (c *Compiler) SetReg(idx uint32, v mir.Value) {
	if idx == 0 {
		return
	}
	cc := c.b.Container()
	store := cc.AllocInstruction().AsThreadStateStore(c.state.offsets.GPRBase+idx*8, v)
	c.b.CurrentBlock().InsertInstruction(store)
	c.state.sync(c.b)
	c.state.gpr[idx] = v
	c.state.gprKnown[idx] = true
}

// GetImm materializes the guest immediate imm as a fresh 64-bit MIR Value,
// per spec.md §6's GetImm contract.
func (c *Compiler) GetImm(imm int64) mir.Value {
	cc := c.b.Container()
	v := cc.AllocGPValue(mir.TypeI64)
	instr := cc.AllocInstruction().AsIconst(mir.Width64, uint64(imm), v)
	c.b.CurrentBlock().InsertInstruction(instr)
	return v
}
