package lower

import "github.com/rv64mir/region/internal/mir"

// nanBoxMask is the upper 32 bits a NaN-boxed single-precision value carries
// (spec.md §9 "NaN-boxing": "storing a single-precision float in the low 32
// bits of a 64-bit register with the upper bits all-ones").
const nanBoxMask uint64 = 0xFFFFFFFF00000000

// GetFpReg returns the Value currently holding guest FPR idx's contents,
// loading it from thread state on first use within the current cache scope
// (see GuestState.sync).
func (c *Compiler) GetFpReg(idx uint32) mir.Value {
	c.state.sync(c.b)
	if c.state.fprKnown[idx] {
		return c.state.fpr[idx]
	}
	cc := c.b.Container()
	v := cc.AllocGPValue(mir.TypeI64)
	load := cc.AllocInstruction().AsThreadStateLoad(c.state.offsets.FPRBase+idx*8, v)
	c.b.CurrentBlock().InsertInstruction(load)
	c.state.fpr[idx] = v
	c.state.fprKnown[idx] = true
	return v
}

// NanBoxAndSetFpReg NaN-boxes a 32-bit single-precision value v (sign-
// extended bit pattern in a 64-bit Value's low 32 bits) into the full
// 64-bit double-precision slot the FPR bank stores, per spec.md §6/§9, then
// writes it through to thread state.
func (c *Compiler) NanBoxAndSetFpReg(idx uint32, v mir.Value) {
	cc := c.b.Container()

	widened := cc.AllocGPValue(mir.TypeI64)
	ext := cc.AllocInstruction().AsExtend(false, v, 32, 64, widened)
	c.b.CurrentBlock().InsertInstruction(ext)

	mask := cc.AllocGPValue(mir.TypeI64)
	maskInstr := cc.AllocInstruction().AsIconst(mir.Width64, nanBoxMask, mask)
	c.b.CurrentBlock().InsertInstruction(maskInstr)

	boxed := cc.AllocGPValue(mir.TypeI64)
	orInstr := cc.AllocInstruction().AsALU(mir.OpOr, mir.Width64, widened, mask, boxed)
	c.b.CurrentBlock().InsertInstruction(orInstr)

	store := cc.AllocInstruction().AsThreadStateStore(c.state.offsets.FPRBase+idx*8, boxed)
	c.b.CurrentBlock().InsertInstruction(store)

	c.state.sync(c.b)
	c.state.fpr[idx] = boxed
	c.state.fprKnown[idx] = true
}
