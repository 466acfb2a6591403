package lower

import "github.com/rv64mir/region/internal/mir"

// emitALU allocates a fresh result Value and appends one AsALU instruction
// computing op(v1, v2) at width w into it. spec.md §4.4 describes the host
// ISA as needing a copy when it "cannot destructively reuse" an operand
// register; that constraint belongs to the (out-of-scope, spec.md §1)
// register-allocation/emission pipeline, not to MIR, since mir.Instruction
// already takes two independent source Values and a separate result Value.
func (c *Compiler) emitALU(op mir.Opcode, w mir.Width, v1, v2 mir.Value) mir.Value {
	cc := c.b.Container()
	result := cc.AllocGPValue(mir.TypeI64)
	instr := cc.AllocInstruction().AsALU(op, w, v1, v2, result)
	c.b.CurrentBlock().InsertInstruction(instr)
	return result
}

func (c *Compiler) signExtend32to64(v mir.Value) mir.Value {
	cc := c.b.Container()
	result := cc.AllocGPValue(mir.TypeI64)
	instr := cc.AllocInstruction().AsExtend(true, v, 32, 64, result)
	c.b.CurrentBlock().InsertInstruction(instr)
	return result
}

// Op implements the ALU 64-bit family, spec.md §4.4.
func (c *Compiler) Op(op mir.Opcode, rd, rs1, rs2 uint32) {
	v1, v2 := c.GetReg(rs1), c.GetReg(rs2)
	c.SetReg(rd, c.emitALU(op, mir.Width64, v1, v2))
}

// Op32 implements the ALU 32-bit (W-suffixed) family: the operation runs at
// 32 bits, then the result is sign-extended back to 64, per spec.md §4.4.
func (c *Compiler) Op32(op mir.Opcode, rd, rs1, rs2 uint32) {
	v1, v2 := c.GetReg(rs1), c.GetReg(rs2)
	c.SetReg(rd, c.signExtend32to64(c.emitALU(op, mir.Width32, v1, v2)))
}

// OpImm implements the 64-bit immediate-ALU family.
func (c *Compiler) OpImm(op mir.Opcode, rd, rs1 uint32, imm int64) {
	v1, v2 := c.GetReg(rs1), c.GetImm(imm)
	c.SetReg(rd, c.emitALU(op, mir.Width64, v1, v2))
}

// OpImm32 implements the 32-bit immediate-ALU (*IW) family.
func (c *Compiler) OpImm32(op mir.Opcode, rd, rs1 uint32, imm int64) {
	v1, v2 := c.GetReg(rs1), c.GetImm(imm)
	c.SetReg(rd, c.signExtend32to64(c.emitALU(op, mir.Width32, v1, v2)))
}

func (c *Compiler) shiftImm(op mir.Opcode, w mir.Width, rs1 uint32, shamt uint32) mir.Value {
	v1, amt := c.GetReg(rs1), c.GetImm(int64(shamt))
	return c.emitALU(op, w, v1, amt)
}

// Slli/Srli/Srai implement the 64-bit immediate shift family.
func (c *Compiler) Slli(rd, rs1 uint32, shamt uint32) {
	c.SetReg(rd, c.shiftImm(mir.OpShl, mir.Width64, rs1, shamt))
}

func (c *Compiler) Srli(rd, rs1 uint32, shamt uint32) {
	c.SetReg(rd, c.shiftImm(mir.OpShrU, mir.Width64, rs1, shamt))
}

func (c *Compiler) Srai(rd, rs1 uint32, shamt uint32) {
	c.SetReg(rd, c.shiftImm(mir.OpShrS, mir.Width64, rs1, shamt))
}

// ShiftImm32 implements the W-suffixed immediate shift family: spec.md
// §4.4's "ALU 32-bit" bullet ("Shifts materialize the shift amount in a
// fixed-register class that the allocator will lower to a count register")
// is a backend register-allocation detail; at the MIR level the shift
// amount is simply another operand Value.
func (c *Compiler) ShiftImm32(op mir.Opcode, rd, rs1 uint32, shamt uint32) {
	c.SetReg(rd, c.signExtend32to64(c.shiftImm(op, mir.Width32, rs1, shamt)))
}

// Rori/Roriw implement the rotate-right-immediate family at 64 and 32 bits
// (the latter sign-extended, matching every other *W op).
func (c *Compiler) Rori(rd, rs1 uint32, shamt uint32) {
	c.SetReg(rd, c.shiftImm(mir.OpRotr, mir.Width64, rs1, shamt))
}

func (c *Compiler) Roriw(rd, rs1 uint32, shamt uint32) {
	c.SetReg(rd, c.signExtend32to64(c.shiftImm(mir.OpRotr, mir.Width32, rs1, shamt)))
}

// Lui materializes imm<<12 directly into rd.
func (c *Compiler) Lui(rd uint32, imm int64) {
	c.SetReg(rd, c.GetImm(imm<<12))
}

// Auipc reads the current guest PC, materializes it, and adds the shifted
// immediate, per spec.md §4.4.
func (c *Compiler) Auipc(rd uint32, imm int64) {
	cc := c.b.Container()
	pcVal := cc.AllocGPValue(mir.TypeI64)
	pcInstr := cc.AllocInstruction().AsPCRead(c.b.CurrentPC(), pcVal)
	c.b.CurrentBlock().InsertInstruction(pcInstr)

	offset := c.GetImm(imm << 12)
	c.SetReg(rd, c.emitALU(mir.OpIadd, mir.Width64, pcVal, offset))
}
