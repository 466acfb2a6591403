package lower

import "github.com/rv64mir/region/internal/mir"

// CondBranch implements spec.md §4.1's "Direct conditional branch" from the
// decoder side: read both compared registers and hand them to the region
// builder's CompareAndBranch.
func (c *Compiler) CondBranch(cond mir.HostCondition, rs1, rs2 uint32, targetPC uint64) {
	v1, v2 := c.GetReg(rs1), c.GetReg(rs2)
	c.b.CompareAndBranch(mir.Width64, v1, v2, cond, targetPC)
}

// Jal implements the direct unconditional jump-and-link: materialize the
// return address into rd (skipped for x0, the common "j" pseudo-op with no
// link), then branch.
func (c *Compiler) Jal(rd uint32, targetPC uint64) {
	if rd != 0 {
		c.SetReg(rd, c.GetImm(int64(c.b.CurrentPC()+4)))
	}
	c.b.Branch(targetPC)
}

// Jalr implements the indirect jump-and-link. The base register is read
// before rd is written: RISC-V defines JALR's target as computed from
// rs1's original value even when rd == rs1.
func (c *Compiler) Jalr(rd, rs1 uint32, imm int64) {
	base := c.GetReg(rs1)
	if rd != 0 {
		c.SetReg(rd, c.GetImm(int64(c.b.CurrentPC()+4)))
	}
	c.b.BranchRegister(base, imm)
}
