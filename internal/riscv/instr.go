package riscv

import (
	"github.com/rv64mir/region/internal/lower"
	"github.com/rv64mir/region/internal/mir"
)

// Major opcodes, RV64I base encoding (insn bits 0-6).
const (
	opLoad    = 0x03
	opMiscMem = 0x0f
	opImm     = 0x13
	opAuipc   = 0x17
	opImm32   = 0x1b
	opStore   = 0x23
	opAmo     = 0x2f
	opOp      = 0x33
	opLui     = 0x37
	opOp32    = 0x3b
	opBranch  = 0x63
	opJalr    = 0x67
	opJal     = 0x6f
	opSystem  = 0x73
)

// AMO funct5 values (insn bits 27-31) this decoder recognizes; every other
// AMO variant (AMOSWAP, AMOADD, ...) falls through to Unimplemented, per
// spec.md §4.4's "atomic variants outside LR/SC".
const (
	amoLR = 0x02
	amoSC = 0x03
)

// Decode decodes the 32-bit instruction word insn, fetched from guest
// address pc, and drives exactly one callback on l. Compressed (16-bit)
// instructions are out of scope; a caller feeding a 2-byte-aligned stream
// is expected to have already expanded them or to not use the C extension.
func Decode(l lower.SemanticsListener, pc uint64, insn uint32) {
	switch opcode(insn) {
	case opLoad:
		decodeLoad(l, insn)
	case opStore:
		decodeStore(l, insn)
	case opImm:
		decodeOpImm(l, insn)
	case opImm32:
		decodeOpImm32(l, insn)
	case opOp:
		decodeOp(l, insn)
	case opOp32:
		decodeOp32(l, insn)
	case opLui:
		l.Lui(rd(insn), immU(insn)>>12)
	case opAuipc:
		l.Auipc(rd(insn), immU(insn)>>12)
	case opBranch:
		decodeBranch(l, pc, insn)
	case opJal:
		l.Jal(rd(insn), uint64(int64(pc)+immJ(insn)))
	case opJalr:
		l.Jalr(rd(insn), rs1(insn), immI(insn))
	case opAmo:
		decodeAmo(l, insn)
	case opMiscMem, opSystem:
		l.Unimplemented()
	default:
		l.Unimplemented()
	}
}

func decodeLoad(l lower.SemanticsListener, insn uint32) {
	imm := immI(insn)
	switch funct3(insn) {
	case 0b000:
		l.Load(rd(insn), rs1(insn), imm, lower.MemByte, true)
	case 0b001:
		l.Load(rd(insn), rs1(insn), imm, lower.MemHalf, true)
	case 0b010:
		l.Load(rd(insn), rs1(insn), imm, lower.MemWord, true)
	case 0b011:
		l.Load(rd(insn), rs1(insn), imm, lower.MemDouble, true)
	case 0b100:
		l.Load(rd(insn), rs1(insn), imm, lower.MemByte, false)
	case 0b101:
		l.Load(rd(insn), rs1(insn), imm, lower.MemHalf, false)
	case 0b110:
		l.Load(rd(insn), rs1(insn), imm, lower.MemWord, false)
	default:
		l.Unimplemented()
	}
}

func decodeStore(l lower.SemanticsListener, insn uint32) {
	imm := immS(insn)
	switch funct3(insn) {
	case 0b000:
		l.Store(rs1(insn), rs2(insn), imm, lower.MemByte)
	case 0b001:
		l.Store(rs1(insn), rs2(insn), imm, lower.MemHalf)
	case 0b010:
		l.Store(rs1(insn), rs2(insn), imm, lower.MemWord)
	case 0b011:
		l.Store(rs1(insn), rs2(insn), imm, lower.MemDouble)
	default:
		l.Unimplemented()
	}
}

func decodeOpImm(l lower.SemanticsListener, insn uint32) {
	rdv, rs1v, imm := rd(insn), rs1(insn), immI(insn)
	switch funct3(insn) {
	case 0b000:
		l.OpImm(mir.OpIadd, rdv, rs1v, imm)
	case 0b010:
		l.OpImm(mir.OpSltS, rdv, rs1v, imm)
	case 0b011:
		l.OpImm(mir.OpSltU, rdv, rs1v, imm)
	case 0b100:
		l.OpImm(mir.OpXor, rdv, rs1v, imm)
	case 0b110:
		l.OpImm(mir.OpOr, rdv, rs1v, imm)
	case 0b111:
		l.OpImm(mir.OpAnd, rdv, rs1v, imm)
	case 0b001:
		if funct7(insn)>>1 == 0b011000 {
			l.Rori(rdv, rs1v, shamt6(insn))
		} else {
			l.Slli(rdv, rs1v, shamt6(insn))
		}
	case 0b101:
		switch funct7(insn) >> 1 {
		case 0b011000:
			l.Rori(rdv, rs1v, shamt6(insn))
		case 0b010000:
			l.Srai(rdv, rs1v, shamt6(insn))
		default:
			l.Srli(rdv, rs1v, shamt6(insn))
		}
	default:
		l.Unimplemented()
	}
}

func decodeOpImm32(l lower.SemanticsListener, insn uint32) {
	rdv, rs1v, imm := rd(insn), rs1(insn), immI(insn)
	shamt := (insn >> 20) & 0x1f
	switch funct3(insn) {
	case 0b000:
		l.OpImm32(mir.OpIadd, rdv, rs1v, imm)
	case 0b001:
		if funct7(insn) == 0b0110000 {
			l.Roriw(rdv, rs1v, shamt)
		} else {
			l.ShiftImm32(mir.OpShl, rdv, rs1v, shamt)
		}
	case 0b101:
		switch funct7(insn) {
		case 0b0110000:
			l.Roriw(rdv, rs1v, shamt)
		case 0b0100000:
			l.ShiftImm32(mir.OpShrS, rdv, rs1v, shamt)
		default:
			l.ShiftImm32(mir.OpShrU, rdv, rs1v, shamt)
		}
	default:
		l.Unimplemented()
	}
}

func decodeOp(l lower.SemanticsListener, insn uint32) {
	rdv, rs1v, rs2v := rd(insn), rs1(insn), rs2(insn)
	f7 := funct7(insn)
	if f7 == 0b0000001 {
		switch funct3(insn) {
		case 0b000:
			l.Op(mir.OpMul, rdv, rs1v, rs2v)
		case 0b001:
			l.Op(mir.OpMulhSS, rdv, rs1v, rs2v)
		case 0b010:
			l.Op(mir.OpMulhSU, rdv, rs1v, rs2v)
		case 0b011:
			l.Op(mir.OpMulhUU, rdv, rs1v, rs2v)
		case 0b100:
			l.Op(mir.OpDivS, rdv, rs1v, rs2v)
		case 0b101:
			l.Op(mir.OpDivU, rdv, rs1v, rs2v)
		case 0b110:
			l.Op(mir.OpRemS, rdv, rs1v, rs2v)
		case 0b111:
			l.Op(mir.OpRemU, rdv, rs1v, rs2v)
		}
		return
	}
	if f7 == 0b0100000 {
		switch funct3(insn) {
		case 0b000:
			l.Op(mir.OpIsub, rdv, rs1v, rs2v)
		case 0b101:
			l.Op(mir.OpShrS, rdv, rs1v, rs2v) // sra
		case 0b111:
			l.Op(mir.OpAndNot, rdv, rs1v, rs2v) // andn
		case 0b110:
			l.Op(mir.OpOrNot, rdv, rs1v, rs2v) // orn
		case 0b100:
			l.Op(mir.OpXorNot, rdv, rs1v, rs2v) // xnor
		default:
			l.Unimplemented()
		}
		return
	}
	if f7 == 0b0110000 && funct3(insn) == 0b101 {
		l.Op(mir.OpRotr, rdv, rs1v, rs2v)
		return
	}
	switch funct3(insn) {
	case 0b000:
		l.Op(mir.OpIadd, rdv, rs1v, rs2v)
	case 0b001:
		l.Op(mir.OpShl, rdv, rs1v, rs2v)
	case 0b010:
		l.Op(mir.OpSltS, rdv, rs1v, rs2v)
	case 0b011:
		l.Op(mir.OpSltU, rdv, rs1v, rs2v)
	case 0b100:
		l.Op(mir.OpXor, rdv, rs1v, rs2v)
	case 0b101:
		l.Op(mir.OpShrU, rdv, rs1v, rs2v)
	case 0b110:
		l.Op(mir.OpOr, rdv, rs1v, rs2v)
	case 0b111:
		l.Op(mir.OpAnd, rdv, rs1v, rs2v)
	default:
		l.Unimplemented()
	}
}

func decodeOp32(l lower.SemanticsListener, insn uint32) {
	rdv, rs1v, rs2v := rd(insn), rs1(insn), rs2(insn)
	f7 := funct7(insn)
	if f7 == 0b0000001 {
		switch funct3(insn) {
		case 0b000:
			l.Op32(mir.OpMul, rdv, rs1v, rs2v)
		case 0b100:
			l.Op32(mir.OpDivS, rdv, rs1v, rs2v)
		case 0b101:
			l.Op32(mir.OpDivU, rdv, rs1v, rs2v)
		case 0b110:
			l.Op32(mir.OpRemS, rdv, rs1v, rs2v)
		case 0b111:
			l.Op32(mir.OpRemU, rdv, rs1v, rs2v)
		default:
			l.Unimplemented()
		}
		return
	}
	switch funct3(insn) {
	case 0b000:
		if f7 == 0b0100000 {
			l.Op32(mir.OpIsub, rdv, rs1v, rs2v)
		} else {
			l.Op32(mir.OpIadd, rdv, rs1v, rs2v)
		}
	case 0b001:
		l.Op32(mir.OpShl, rdv, rs1v, rs2v)
	case 0b101:
		if f7 == 0b0100000 {
			l.Op32(mir.OpShrS, rdv, rs1v, rs2v)
		} else {
			l.Op32(mir.OpShrU, rdv, rs1v, rs2v)
		}
	default:
		l.Unimplemented()
	}
}

func decodeBranch(l lower.SemanticsListener, pc uint64, insn uint32) {
	target := uint64(int64(pc) + immB(insn))
	a, b := rs1(insn), rs2(insn)
	switch funct3(insn) {
	case 0b000:
		l.CondBranch(mir.CondEqual, a, b, target)
	case 0b001:
		l.CondBranch(mir.CondNotEqual, a, b, target)
	case 0b100:
		l.CondBranch(mir.CondSignedLess, a, b, target)
	case 0b101:
		l.CondBranch(mir.CondSignedGreaterEqual, a, b, target)
	case 0b110:
		l.CondBranch(mir.CondUnsignedBelow, a, b, target)
	case 0b111:
		l.CondBranch(mir.CondUnsignedAboveEqual, a, b, target)
	default:
		l.Unimplemented()
	}
}

func decodeAmo(l lower.SemanticsListener, insn uint32) {
	size := lower.MemWord
	if funct3(insn) == 0b011 {
		size = lower.MemDouble
	}
	switch (insn >> 27) & 0x1f {
	case amoLR:
		l.MemoryRegionReservationLoad(rd(insn), rs1(insn), size)
	case amoSC:
		l.MemoryRegionReservationExchange(rd(insn), rs1(insn), rs2(insn), size)
	default:
		l.Unimplemented()
	}
}
