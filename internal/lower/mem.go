package lower

import "github.com/rv64mir/region/internal/mir"

func (c *Compiler) effectiveAddress(rs1 uint32, imm int64) mir.Value {
	base, offset := c.GetReg(rs1), c.GetImm(imm)
	return c.emitALU(mir.OpIadd, mir.Width64, base, offset)
}

func (c *Compiler) extendLoadResult(v mir.Value, size MemSize, signed bool) mir.Value {
	if size == MemDouble {
		return v
	}
	cc := c.b.Container()
	result := cc.AllocGPValue(mir.TypeI64)
	instr := cc.AllocInstruction().AsExtend(signed, v, size.bits(), 64, result)
	c.b.CurrentBlock().InsertInstruction(instr)
	return result
}

// Load implements spec.md §4.4's read-direction "Loads/stores" family: the
// effective address is base + sign-extended displacement, the load is
// wired through the recovery-block protocol of spec.md §4.5, and a
// sub-64-bit result is extended to register width per the signedness the
// decoder selected.
func (c *Compiler) Load(rd, rs1 uint32, imm int64, size MemSize, signed bool) {
	addr := c.effectiveAddress(rs1, imm)

	cc := c.b.Container()
	raw := cc.AllocGPValue(mir.TypeI64)
	instr := cc.AllocInstruction().AsLoad(size.width(), signed, addr, raw)
	c.b.EmitMemoryAccess(instr)

	c.SetReg(rd, c.extendLoadResult(raw, size, signed))
}

// Store implements spec.md §4.4's write-direction "Loads/stores" family,
// also wired through the recovery-block protocol of spec.md §4.5.
func (c *Compiler) Store(rs1, rs2 uint32, imm int64, size MemSize) {
	addr := c.effectiveAddress(rs1, imm)
	value := c.GetReg(rs2)

	cc := c.b.Container()
	instr := cc.AllocInstruction().AsStore(size.width(), addr, value)
	c.b.EmitMemoryAccess(instr)
}
