package riscv

import (
	"testing"

	"github.com/rv64mir/region/internal/lower"
	"github.com/rv64mir/region/internal/mir"
	"github.com/stretchr/testify/require"
)

// recorder implements lower.SemanticsListener by appending the name of
// whichever method fired, so decode tests can assert on the single call a
// given instruction word produces without a real region.Builder. Every
// family Decode can reach is overridden directly (not left to promote from
// lower.UnimplementedListener's embedded *Compiler, which is nil here).
type recorder struct {
	lower.UnimplementedListener
	calls      []string
	lastTarget uint64
}

func newRecorder() *recorder { return &recorder{} }

func (r *recorder) Op(op mir.Opcode, rd, rs1, rs2 uint32)   { r.calls = append(r.calls, "Op") }
func (r *recorder) Op32(op mir.Opcode, rd, rs1, rs2 uint32) { r.calls = append(r.calls, "Op32") }
func (r *recorder) OpImm(op mir.Opcode, rd, rs1 uint32, imm int64) {
	r.calls = append(r.calls, "OpImm")
}
func (r *recorder) OpImm32(op mir.Opcode, rd, rs1 uint32, imm int64) {
	r.calls = append(r.calls, "OpImm32")
}
func (r *recorder) Slli(rd, rs1, shamt uint32) { r.calls = append(r.calls, "Slli") }
func (r *recorder) Srli(rd, rs1, shamt uint32) { r.calls = append(r.calls, "Srli") }
func (r *recorder) Srai(rd, rs1, shamt uint32) { r.calls = append(r.calls, "Srai") }
func (r *recorder) ShiftImm32(op mir.Opcode, rd, rs1, shamt uint32) {
	r.calls = append(r.calls, "ShiftImm32")
}
func (r *recorder) Rori(rd, rs1, shamt uint32)  { r.calls = append(r.calls, "Rori") }
func (r *recorder) Roriw(rd, rs1, shamt uint32) { r.calls = append(r.calls, "Roriw") }
func (r *recorder) Lui(rd uint32, imm int64)    { r.calls = append(r.calls, "Lui") }
func (r *recorder) Auipc(rd uint32, imm int64)  { r.calls = append(r.calls, "Auipc") }
func (r *recorder) Load(rd, rs1 uint32, imm int64, size lower.MemSize, signed bool) {
	r.calls = append(r.calls, "Load")
}
func (r *recorder) Store(rs1, rs2 uint32, imm int64, size lower.MemSize) {
	r.calls = append(r.calls, "Store")
}
func (r *recorder) MemoryRegionReservationLoad(rd, rs1 uint32, size lower.MemSize) {
	r.calls = append(r.calls, "LR")
}
func (r *recorder) MemoryRegionReservationExchange(rd, rs1, rs2 uint32, size lower.MemSize) {
	r.calls = append(r.calls, "SC")
}
func (r *recorder) CondBranch(cond mir.HostCondition, rs1, rs2 uint32, target uint64) {
	r.calls = append(r.calls, "CondBranch")
	r.lastTarget = target
}
func (r *recorder) Jal(rd uint32, target uint64) {
	r.calls = append(r.calls, "Jal")
	r.lastTarget = target
}
func (r *recorder) Jalr(rd, rs1 uint32, imm int64) { r.calls = append(r.calls, "Jalr") }
func (r *recorder) Unimplemented()                 { r.calls = append(r.calls, "Unimplemented") }

func TestDecodeAddi(t *testing.T) {
	r := newRecorder()
	// addi x1, x0, 5
	insn := uint32(5<<20) | (0 << 15) | (0b000 << 12) | (1 << 7) | opImm
	Decode(r, 0x1000, insn)
	require.Equal(t, []string{"OpImm"}, r.calls)
}

func TestDecodeSlli(t *testing.T) {
	r := newRecorder()
	// slli x1, x2, 4
	insn := uint32(4<<20) | (2 << 15) | (0b001 << 12) | (1 << 7) | opImm
	Decode(r, 0, insn)
	require.Equal(t, []string{"Slli"}, r.calls)
}

func TestDecodeAdd(t *testing.T) {
	r := newRecorder()
	// add x1, x2, x3
	insn := uint32(0b0000000<<25) | (3 << 20) | (2 << 15) | (0b000 << 12) | (1 << 7) | opOp
	Decode(r, 0x1000, insn)
	require.Equal(t, []string{"Op"}, r.calls)
}

func TestDecodeMulAndSub(t *testing.T) {
	r := newRecorder()
	// mul x1, x2, x3
	mul := uint32(0b0000001<<25) | (3 << 20) | (2 << 15) | (0b000 << 12) | (1 << 7) | opOp
	Decode(r, 0, mul)
	// sub x1, x2, x3
	sub := uint32(0b0100000<<25) | (3 << 20) | (2 << 15) | (0b000 << 12) | (1 << 7) | opOp
	Decode(r, 0, sub)
	require.Equal(t, []string{"Op", "Op"}, r.calls)
}

func TestDecodeBeq(t *testing.T) {
	r := newRecorder()
	// beq x1, x2, +16
	var insn uint32
	imm := uint32(16)
	insn |= opBranch
	insn |= 0b000 << 12
	insn |= 1 << 15
	insn |= 2 << 20
	insn |= ((imm >> 11) & 0x1) << 7
	insn |= ((imm >> 1) & 0xf) << 8
	insn |= ((imm >> 5) & 0x3f) << 25
	insn |= ((imm >> 12) & 0x1) << 31
	Decode(r, 0x2000, insn)
	require.Equal(t, []string{"CondBranch"}, r.calls)
	require.EqualValues(t, 0x2010, r.lastTarget)
}

func TestDecodeLoadStore(t *testing.T) {
	r := newRecorder()
	// lw x1, 0(x2)
	lw := uint32(0<<20) | (2 << 15) | (0b010 << 12) | (1 << 7) | opLoad
	Decode(r, 0, lw)
	// sw x3, 0(x2)
	sw := uint32(0b0000000<<25) | (3 << 20) | (2 << 15) | (0b010 << 12) | (0 << 7) | opStore
	Decode(r, 0, sw)
	require.Equal(t, []string{"Load", "Store"}, r.calls)
}

func TestDecodeLrSc(t *testing.T) {
	r := newRecorder()
	// lr.w x1, (x2): funct5=00010, funct3=010
	lr := uint32(amoLR<<27) | (2 << 15) | (0b010 << 12) | (1 << 7) | opAmo
	Decode(r, 0, lr)
	// sc.w x3, x4, (x2): funct5=00011
	sc := uint32(amoSC<<27) | (4 << 20) | (2 << 15) | (0b010 << 12) | (3 << 7) | opAmo
	Decode(r, 0, sc)
	require.Equal(t, []string{"LR", "SC"}, r.calls)
}

func TestDecodeUnsupportedFamily(t *testing.T) {
	r := newRecorder()
	// ecall: opcode SYSTEM, all other fields zero
	Decode(r, 0, opSystem)
	require.Equal(t, []string{"Unimplemented"}, r.calls)
}

func TestDecodeJal(t *testing.T) {
	r := newRecorder()
	// jal x1, +0x100
	var insn uint32
	imm := uint32(0x100)
	insn |= opJal
	insn |= 1 << 7
	insn |= ((imm >> 12) & 0xff) << 12
	insn |= ((imm >> 11) & 0x1) << 20
	insn |= ((imm >> 1) & 0x3ff) << 21
	insn |= ((imm >> 20) & 0x1) << 31
	Decode(r, 0x4000, insn)
	require.Equal(t, []string{"Jal"}, r.calls)
	require.EqualValues(t, 0x4100, r.lastTarget)
}
