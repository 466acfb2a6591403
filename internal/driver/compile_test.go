package driver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv64mir/region/internal/mir"
	"github.com/rv64mir/region/internal/region"
	"github.com/rv64mir/region/internal/regionapi"
)

// program is a GuestMemory backed by a flat, PC-indexed instruction slice,
// in the same spirit as bassosimone-risc32's VM.M word array.
type program struct {
	base  uint64
	words []uint32
}

func (p *program) FetchInstruction(pc uint64) (uint32, error) {
	idx := (pc - p.base) / 4
	if idx >= uint64(len(p.words)) {
		return 0, errEndOfProgram
	}
	return p.words[idx], nil
}

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const errEndOfProgram = sentinelErr("end of program")

func encodeR(op uint32, f7 uint32, rs2, rs1, f3, rdv uint32) uint32 {
	return (f7 << 25) | (rs2 << 20) | (rs1 << 15) | (f3 << 12) | (rdv << 7) | op
}

func encodeI(op uint32, imm uint32, rs1, f3, rdv uint32) uint32 {
	return (imm << 20) | (rs1 << 15) | (f3 << 12) | (rdv << 7) | op
}

func TestCompileRegionStraightLineAdd(t *testing.T) {
	// addi x1, x0, 1; addi x2, x0, 2; add x3, x1, x2; jalr x0,x0,0
	prog := &program{words: []uint32{
		encodeI(opImm(), 1, 0, 0, 1),
		encodeI(opImm(), 2, 0, 0, 2),
		encodeR(opOp(), 0, 2, 1, 0, 3),
		encodeI(opJalr(), 0, 0, 0, 0),
	}}

	res, err := CompileRegion(prog, 0, regionapi.DefaultThreadStateOffsets, region.DefaultConfig)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Greater(t, res.Container.BlockCount(), 0)
}

func TestCompileRegionUnimplementedMarksFailure(t *testing.T) {
	// A SYSTEM-opcode word (ecall) is outside spec.md §4.4's supported
	// families and must mark the region unsuccessful without crashing the
	// loop.
	prog := &program{words: []uint32{0x73}}

	res, err := CompileRegion(prog, 0, regionapi.DefaultThreadStateOffsets, region.DefaultConfig)
	require.NoError(t, err)
	require.False(t, res.Success)
}

func opImm() uint32    { return 0x13 }
func opOp() uint32     { return 0x33 }
func opBranch() uint32 { return 0x63 }
func opJalr() uint32   { return 0x67 }
func opAmo() uint32    { return 0x2f }

func encodeB(imm, rs2, rs1, f3 uint32) uint32 {
	bit12 := (imm >> 12) & 0x1
	bit11 := (imm >> 11) & 0x1
	bits10_5 := (imm >> 5) & 0x3f
	bits4_1 := (imm >> 1) & 0xf
	return (bit12 << 31) | (bits10_5 << 25) | (rs2 << 20) | (rs1 << 15) | (f3 << 12) | (bits4_1 << 8) | (bit11 << 7) | opBranch()
}

func encodeAmo(funct5, rs2, rs1, f3, rdv uint32) uint32 {
	return (funct5 << 27) | (rs2 << 20) | (rs1 << 15) | (f3 << 12) | (rdv << 7) | opAmo()
}

func TestCompileRegionForwardBranch(t *testing.T) {
	// beq x1,x2,+8; addi x3,x3,1; <target>: addi x4,x4,1; jalr x0,x0,0
	prog := &program{words: []uint32{
		encodeB(8, 2, 1, 0b000),
		encodeI(opImm(), 1, 3, 0, 3),
		encodeI(opImm(), 1, 4, 0, 4),
		encodeI(opJalr(), 0, 0, 0, 0),
	}}

	res, err := CompileRegion(prog, 0, regionapi.DefaultThreadStateOffsets, region.DefaultConfig)
	require.NoError(t, err)
	require.True(t, res.Success)

	foundTarget := false
	for _, e := range res.Entries {
		if e.Addr == 8 {
			require.True(t, e.Translated)
			foundTarget = true
		}
	}
	require.True(t, foundTarget)
}

func TestCompileRegionBackEdgeLoop(t *testing.T) {
	// L: addi x1,x1,-1; bne x1,x0,L; jalr x0,x0,0
	prog := &program{words: []uint32{
		encodeI(opImm(), uint32(int32(-1))&0xfff, 1, 0, 1),
		encodeB(uint32(int32(-4)), 0, 1, 0b001),
		encodeI(opJalr(), 0, 0, 0, 0),
	}}

	res, err := CompileRegion(prog, 0, regionapi.DefaultThreadStateOffsets, region.DefaultConfig)
	require.NoError(t, err)
	require.True(t, res.Success)
}

// TestCompileRegionBackEdgeLoopWithPreamble covers a back edge whose loop
// header (L) is preceded by another instruction in the same block: resolving
// the back edge's pseudo-jump (which sits in CompareAndBranch's separate
// "then" block) requires SplitBlock to carve L off the middle of its
// containing block before the pending-signals check can target it.
func TestCompileRegionBackEdgeLoopWithPreamble(t *testing.T) {
	// addi x5,x5,1; L: addi x1,x1,-1; bne x1,x0,L; jalr x0,x0,0
	prog := &program{words: []uint32{
		encodeI(opImm(), 1, 5, 0, 5),
		encodeI(opImm(), uint32(int32(-1))&0xfff, 1, 0, 1),
		encodeB(uint32(int32(-4)), 0, 1, 0b001),
		encodeI(opJalr(), 0, 0, 0, 0),
	}}

	res, err := CompileRegion(prog, 0, regionapi.DefaultThreadStateOffsets, region.DefaultConfig)
	require.NoError(t, err)
	require.True(t, res.Success)
}

// TestCompileRegionRegisterWriteAcrossBranchReloadsFromThreadState guards
// against a region-wide register cache: beq x1,x2,+8 forks decoding into a
// taken block (direct jump to the target) and a fallthrough block holding
// `addi x3,x3,5`. The target block's `add x4,x3,x0` is reachable via the
// taken path, which never executed the fallthrough's write to x3, so it
// must reload x3 from thread state rather than reuse the fallthrough's
// cached MIR Value (which is only valid on the fallthrough block's own
// path, per GuestState's per-block cache scoping).
func TestCompileRegionRegisterWriteAcrossBranchReloadsFromThreadState(t *testing.T) {
	// beq x1,x2,+8; addi x3,x3,5; <target>: add x4,x3,x0; jalr x0,x0,0
	prog := &program{words: []uint32{
		encodeB(8, 2, 1, 0b000),
		encodeI(opImm(), 5, 3, 0, 3),
		encodeR(opOp(), 0, 0, 3, 0, 4),
		encodeI(opJalr(), 0, 0, 0, 0),
	}}

	res, err := CompileRegion(prog, 0, regionapi.DefaultThreadStateOffsets, region.DefaultConfig)
	require.NoError(t, err)
	require.True(t, res.Success)

	var targetBlock *mir.Block
	for _, e := range res.Entries {
		if e.Addr == 8 {
			require.True(t, e.Translated)
			targetBlock = e.Block
		}
	}
	require.NotNil(t, targetBlock)

	x3Offset := regionapi.DefaultThreadStateOffsets.GPRBase + 3*8
	foundReload := false
	for instr := targetBlock.Root(); instr != nil; instr = instr.Next() {
		if instr.Opcode() == mir.OpThreadStateLoad && instr.Imm() == uint64(x3Offset) {
			foundReload = true
			break
		}
	}
	require.True(t, foundReload, "expected the taken-branch target block to reload x3 from thread state rather than reuse the fallthrough block's cached value")
}

func TestCompileRegionLrScPair(t *testing.T) {
	// lr.d x10, (x11); sc.d x12, x13, (x11); jalr x0,x0,0
	const funct3D = 0b011
	prog := &program{words: []uint32{
		encodeAmo(0x02, 0, 11, funct3D, 10),
		encodeAmo(0x03, 13, 11, funct3D, 12),
		encodeI(opJalr(), 0, 0, 0, 0),
	}}

	res, err := CompileRegion(prog, 0, regionapi.DefaultThreadStateOffsets, region.DefaultConfig)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Greater(t, res.Container.BlockCount(), 3)
}
