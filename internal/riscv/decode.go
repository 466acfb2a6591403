// Package riscv implements a minimal RV64I decoder feeding a
// lower.SemanticsListener, scoped to exactly the instruction families
// spec.md §4.4 names (ALU, ALU-W, immediate ALU, loads/stores, LR/SC,
// branches, JAL/JALR, LUI/AUIPC). Everything else decodes to
// Unimplemented. spec.md §1 places the decoder itself out of scope
// ("external collaborators"); this package exists purely so the end-to-end
// scenarios in spec.md §8 and the CLI have a real caller instead of
// hand-simulated callback sequences.
//
// Grounded on the bit-field instruction-format convention the RISC-style
// VMs in the retrieval pack document with field-layout comments (e.g.
// bassosimone-risc32's `<Opcode:5><RegisterA:5>...` comments and its small
// per-field Decode* helpers), adapted to the real RV64I encoding.
package riscv

// Field decoders. RV64I's base instruction encoding: opcode in bits 0-6,
// funct3 in bits 12-14, funct7 in bits 25-31, with rd/rs1/rs2 and the
// immediate at positions that vary by format (R/I/S/B/U/J).

func opcode(insn uint32) uint32 { return insn & 0x7f }
func rd(insn uint32) uint32     { return (insn >> 7) & 0x1f }
func funct3(insn uint32) uint32 { return (insn >> 12) & 0x7 }
func rs1(insn uint32) uint32    { return (insn >> 15) & 0x1f }
func rs2(insn uint32) uint32    { return (insn >> 20) & 0x1f }
func funct7(insn uint32) uint32 { return (insn >> 25) & 0x7f }

func immI(insn uint32) int64 {
	return int64(int32(insn)) >> 20
}

func immS(insn uint32) int64 {
	hi := (insn >> 25) & 0x7f
	lo := (insn >> 7) & 0x1f
	raw := (hi << 5) | lo
	return signExtend(uint64(raw), 12)
}

func immB(insn uint32) int64 {
	bit12 := (insn >> 31) & 0x1
	bit11 := (insn >> 7) & 0x1
	bits10_5 := (insn >> 25) & 0x3f
	bits4_1 := (insn >> 8) & 0xf
	raw := (bit12 << 12) | (bit11 << 11) | (bits10_5 << 5) | (bits4_1 << 1)
	return signExtend(uint64(raw), 13)
}

func immU(insn uint32) int64 {
	return int64(int32(insn & 0xfffff000))
}

func immJ(insn uint32) int64 {
	bit20 := (insn >> 31) & 0x1
	bits19_12 := (insn >> 12) & 0xff
	bit11 := (insn >> 20) & 0x1
	bits10_1 := (insn >> 21) & 0x3ff
	raw := (bit20 << 20) | (bits19_12 << 12) | (bit11 << 11) | (bits10_1 << 1)
	return signExtend(uint64(raw), 21)
}

func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

func shamt6(insn uint32) uint32 { return (insn >> 20) & 0x3f }
