// Package lower implements the semantics-lowering layer: the decoder-facing
// SemanticsListener callback surface named in spec.md §4.4/§6, realized as
// Compiler, which turns each callback into MIR through a region.Builder.
// Grounded on frontend.Compiler's role as the sole implementer of the
// per-opcode callback surface the decoder drives, and on frontend/lower.go's
// giant opcode switch.
package lower

import "github.com/rv64mir/region/internal/mir"

// MemSize is the width of a guest memory access, per spec.md §4.4's
// "operand-type enumeration selects byte/half/word/double".
type MemSize uint8

const (
	MemByte MemSize = iota
	MemHalf
	MemWord
	MemDouble
)

func (s MemSize) width() mir.Width {
	switch s {
	case MemByte:
		return mir.Width8
	case MemHalf:
		return mir.Width16
	case MemWord:
		return mir.Width32
	default:
		return mir.Width64
	}
}

func (s MemSize) bits() uint64 {
	switch s {
	case MemByte:
		return 8
	case MemHalf:
		return 16
	case MemWord:
		return 32
	default:
		return 64
	}
}

// SemanticsListener is the fixed callback menu spec.md §6 describes as the
// "decoder contract (in)": one method per instruction family (§9's
// "capability trait" note), plus GetReg/SetReg/GetFpReg/NanBoxAndSetFpReg/
// GetImm for register and immediate access and Unimplemented as the
// catch-all a decoder calls for any family outside §4.4's list (floating-
// point arithmetic, vector, CSR, fence, syscall, atomics other than LR/SC).
type SemanticsListener interface {
	// ALU families, spec.md §4.4.
	Op(op mir.Opcode, rd, rs1, rs2 uint32)
	Op32(op mir.Opcode, rd, rs1, rs2 uint32)
	OpImm(op mir.Opcode, rd, rs1 uint32, imm int64)
	OpImm32(op mir.Opcode, rd, rs1 uint32, imm int64)
	Slli(rd, rs1 uint32, shamt uint32)
	Srli(rd, rs1 uint32, shamt uint32)
	Srai(rd, rs1 uint32, shamt uint32)
	ShiftImm32(op mir.Opcode, rd, rs1 uint32, shamt uint32)
	Rori(rd, rs1 uint32, shamt uint32)
	Roriw(rd, rs1 uint32, shamt uint32)
	Lui(rd uint32, imm int64)
	Auipc(rd uint32, imm int64)

	// Memory families, spec.md §4.4/§4.5.
	Load(rd, rs1 uint32, imm int64, size MemSize, signed bool)
	Store(rs1, rs2 uint32, imm int64, size MemSize)

	// Reservation protocol, spec.md §4.6.
	MemoryRegionReservationLoad(rd, rs1 uint32, size MemSize)
	MemoryRegionReservationExchange(rd, rs1, rs2 uint32, size MemSize)

	// Control transfer, spec.md §4.1.
	CondBranch(cond mir.HostCondition, rs1, rs2 uint32, targetPC uint64)
	Jal(rd uint32, targetPC uint64)
	Jalr(rd, rs1 uint32, imm int64)

	// Register/immediate access, spec.md §6.
	GetReg(idx uint32) mir.Value
	SetReg(idx uint32, v mir.Value)
	GetFpReg(idx uint32) mir.Value
	NanBoxAndSetFpReg(idx uint32, v mir.Value)
	GetImm(imm int64) mir.Value

	Unimplemented()
}

// UnimplementedListener implements every SemanticsListener family method by
// calling the embedded Compiler's Unimplemented, so a decoder variant that
// supports only a subset of these families can embed it and override just
// the ones it handles — the same "embed a default, override what you
// support" shape used throughout the teacher's visitor-style callback sets.
// GetReg/SetReg/GetFpReg/NanBoxAndSetFpReg/GetImm/Unimplemented are not
// redefined here: they are promoted straight from the embedded *Compiler,
// since every decoder needs real register/immediate access regardless of
// which instruction families it lowers.
type UnimplementedListener struct {
	*Compiler
}

func (u UnimplementedListener) Op(mir.Opcode, uint32, uint32, uint32)     { u.Unimplemented() }
func (u UnimplementedListener) Op32(mir.Opcode, uint32, uint32, uint32)   { u.Unimplemented() }
func (u UnimplementedListener) OpImm(mir.Opcode, uint32, uint32, int64)   { u.Unimplemented() }
func (u UnimplementedListener) OpImm32(mir.Opcode, uint32, uint32, int64) { u.Unimplemented() }
func (u UnimplementedListener) Slli(uint32, uint32, uint32)               { u.Unimplemented() }
func (u UnimplementedListener) Srli(uint32, uint32, uint32)               { u.Unimplemented() }
func (u UnimplementedListener) Srai(uint32, uint32, uint32)               { u.Unimplemented() }
func (u UnimplementedListener) ShiftImm32(mir.Opcode, uint32, uint32, uint32) {
	u.Unimplemented()
}
func (u UnimplementedListener) Rori(uint32, uint32, uint32)  { u.Unimplemented() }
func (u UnimplementedListener) Roriw(uint32, uint32, uint32) { u.Unimplemented() }
func (u UnimplementedListener) Lui(uint32, int64)            { u.Unimplemented() }
func (u UnimplementedListener) Auipc(uint32, int64)          { u.Unimplemented() }

func (u UnimplementedListener) Load(uint32, uint32, int64, MemSize, bool) { u.Unimplemented() }
func (u UnimplementedListener) Store(uint32, uint32, int64, MemSize)      { u.Unimplemented() }

func (u UnimplementedListener) MemoryRegionReservationLoad(uint32, uint32, MemSize) {
	u.Unimplemented()
}
func (u UnimplementedListener) MemoryRegionReservationExchange(uint32, uint32, uint32, MemSize) {
	u.Unimplemented()
}

func (u UnimplementedListener) CondBranch(mir.HostCondition, uint32, uint32, uint64) {
	u.Unimplemented()
}
func (u UnimplementedListener) Jal(uint32, uint64)         { u.Unimplemented() }
func (u UnimplementedListener) Jalr(uint32, uint32, int64) { u.Unimplemented() }

var _ SemanticsListener = UnimplementedListener{}
