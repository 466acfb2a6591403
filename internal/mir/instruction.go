package mir

import "fmt"

// Instruction is a single MIR instruction. As in the teacher's ssa.Instruction,
// we use one flattened struct for every Opcode rather than a Go interface
// per instruction kind, since Go has no sum/union types; each field's
// meaning depends on Opcode. Instructions live in a pool (see Container) and
// are threaded into their owning Block via prev/next, which is what gives
// Position values their stability across later appends (spec.md §3).
type Instruction struct {
	opcode Opcode
	width  Width
	cond   HostCondition

	v1, v2, v3 Value
	imm        uint64

	// blk is the jump/then target; blk2 is the else target for OpBrcond.
	blk, blk2 *Block

	// kind/targetAddr apply to OpPseudoJump: the guest address it targets and
	// the resolver policy that address was classified under at emission time.
	kind       PseudoJumpKind
	targetAddr uint64

	// recoveryBlk associates an OpLoad/OpStore with the recovery block a
	// runtime fault on this instruction diverts to (spec.md §4.5 step 3).
	recoveryBlk *Block

	rValue Value

	prev, next *Instruction

	// owner is the block this instruction currently lives in. It is updated
	// by Block.InsertInstruction and by Container.SplitBlock when a chain of
	// instructions is re-homed onto a freshly split block, which is what lets
	// a previously recorded Position resolve its current block independently
	// of whichever Block pointer happened to be stored in the Position at
	// recording time (spec.md §3, §4.2 step 3).
	owner *Block
}

// Block returns the block this instruction currently lives in.
func (i *Instruction) Block() *Block { return i.owner }

// Opcode returns the operation this instruction performs.
func (i *Instruction) Opcode() Opcode { return i.opcode }

// Width returns the ALU/compare width (32 or 64 bits) this instruction
// operates at.
func (i *Instruction) Width() Width { return i.width }

// Return returns the Value this instruction defines, or ValueInvalid if it
// defines none (e.g. a terminator).
func (i *Instruction) Return() Value { return i.rValue }

// Args returns the up-to-three Value operands of this instruction.
func (i *Instruction) Args() (v1, v2, v3 Value) { return i.v1, i.v2, i.v3 }

// Imm returns the raw immediate/offset payload carried by this instruction.
func (i *Instruction) Imm() uint64 { return i.imm }

// Cond returns the HostCondition this compare/branch operates under.
func (i *Instruction) Cond() HostCondition { return i.cond }

// BlockTargets returns the jump targets of a terminator: (then, else) for
// OpBrcond, (target, nil) for OpJump, (nil, nil) otherwise (the pseudo-jump
// family carries its target as a guest address, resolved separately).
func (i *Instruction) BlockTargets() (then, els *Block) { return i.blk, i.blk2 }

// PseudoJump returns the kind and guest target address of an OpPseudoJump.
func (i *Instruction) PseudoJump() (PseudoJumpKind, uint64) { return i.kind, i.targetAddr }

// RecoveryBlock returns the block a fault on this OpLoad/OpStore diverts to.
func (i *Instruction) RecoveryBlock() *Block { return i.recoveryBlk }

// SetRecoveryBlock associates this OpLoad/OpStore with the block a runtime
// fault on it diverts to (spec.md §4.5 step 3).
func (i *Instruction) SetRecoveryBlock(b *Block) { i.recoveryBlk = b }

// Next returns the next instruction in program order within the same Block,
// or nil if i is the block's tail.
func (i *Instruction) Next() *Instruction { return i.next }

// Prev returns the previous instruction in program order within the same
// Block, or nil if i is the block's root.
func (i *Instruction) Prev() *Instruction { return i.prev }

// IsControlTransfer reports whether this instruction is a valid block
// terminator, per the MIR container contract (spec.md §6).
func (i *Instruction) IsControlTransfer() bool {
	switch i.opcode {
	case OpJump, OpBrcond, OpPseudoJump, OpIndirectJump, OpSyscallJump:
		return true
	default:
		return false
	}
}

func (i *Instruction) reset() {
	*i = Instruction{opcode: OpInvalid, v1: ValueInvalid, v2: ValueInvalid, v3: ValueInvalid, rValue: ValueInvalid}
}

func (i *Instruction) setOwner(b *Block) { i.owner = b }

// --- constructors; mirrors ssa.Instruction's As* setter convention ---

func (i *Instruction) AsALU(op Opcode, w Width, v1, v2 Value, result Value) *Instruction {
	i.opcode, i.width, i.v1, i.v2, i.rValue = op, w, v1, v2, result
	return i
}

func (i *Instruction) AsIconst(w Width, imm uint64, result Value) *Instruction {
	i.opcode, i.width, i.imm, i.rValue = OpIconst, w, imm, result
	return i
}

func (i *Instruction) AsCopy(src, result Value) *Instruction {
	i.opcode, i.v1, i.rValue = OpCopy, src, result
	return i
}

func (i *Instruction) AsExtend(signed bool, src Value, fromBits, toBits uint64, result Value) *Instruction {
	if signed {
		i.opcode = OpSExtend
	} else {
		i.opcode = OpUExtend
	}
	i.v1, i.imm, i.rValue = src, fromBits<<32|toBits, result
	return i
}

func (i *Instruction) AsPCRead(pc uint64, result Value) *Instruction {
	i.opcode, i.imm, i.rValue = OpPCRead, pc, result
	return i
}

// AsIcmp compares v1 against v2 under cond and writes the per-region flags
// register (spec.md §4.1: "a single per-region scratch used by every host
// instruction that writes EFLAGS-like state"). Unlike every other ALU op,
// the destination is not a fresh Value: flags are real, destructively
// updated host state, not SSA-tracked data.
func (i *Instruction) AsIcmp(w Width, v1, v2 Value, cond HostCondition) *Instruction {
	i.opcode, i.width, i.v1, i.v2, i.cond = OpIcmp, w, v1, v2, cond
	return i
}

func (i *Instruction) AsLoad(w Width, signed bool, addr Value, result Value) *Instruction {
	i.opcode, i.width, i.v1, i.rValue = OpLoad, w, addr, result
	if signed {
		i.imm = 1
	}
	return i
}

func (i *Instruction) AsStore(w Width, addr, value Value) *Instruction {
	i.opcode, i.width, i.v1, i.v2 = OpStore, w, addr, value
	return i
}

func (i *Instruction) AsThreadStateLoad(offset uint32, result Value) *Instruction {
	i.opcode, i.imm, i.rValue = OpThreadStateLoad, uint64(offset), result
	return i
}

func (i *Instruction) AsThreadStateStore(offset uint32, value Value) *Instruction {
	i.opcode, i.imm, i.v1 = OpThreadStateStore, uint64(offset), value
	return i
}

func (i *Instruction) AsHostTryLock(addr Value, result Value) *Instruction {
	i.opcode, i.v1, i.rValue = OpHostTryLock, addr, result
	return i
}

func (i *Instruction) AsHostCAS(addr, expected, newVal Value, result Value) *Instruction {
	i.opcode, i.v1, i.v2, i.v3, i.rValue = OpHostCAS, addr, expected, newVal, result
	return i
}

func (i *Instruction) AsHostSetOwner(addr, cpu Value) *Instruction {
	i.opcode, i.v1, i.v2 = OpHostSetOwner, addr, cpu
	return i
}

func (i *Instruction) AsJump(target *Block) *Instruction {
	i.opcode, i.blk = OpJump, target
	return i
}

func (i *Instruction) AsBrcond(cond HostCondition, then, els *Block) *Instruction {
	i.opcode, i.cond, i.blk, i.blk2 = OpBrcond, cond, then, els
	return i
}

func (i *Instruction) AsPseudoJump(kind PseudoJumpKind, target uint64) *Instruction {
	i.opcode, i.kind, i.targetAddr = OpPseudoJump, kind, target
	return i
}

func (i *Instruction) AsIndirectJump(addr Value) *Instruction {
	i.opcode, i.v1 = OpIndirectJump, addr
	return i
}

func (i *Instruction) AsSyscallJump(target uint64) *Instruction {
	i.opcode, i.targetAddr = OpSyscallJump, target
	return i
}

func (i *Instruction) String() string {
	return fmt.Sprintf("%v", i.opcode)
}

func (o Opcode) String() string {
	names := [...]string{
		"invalid", "iadd", "isub", "and", "or", "xor", "and_not", "or_not", "xor_not",
		"shl", "shr_u", "shr_s", "rotr", "slt_s", "slt_u",
		"mul", "mulh_ss", "mulh_su", "mulh_uu", "div_s", "div_u", "rem_s", "rem_u",
		"iconst", "copy", "uextend", "sextend", "pc_read",
		"icmp", "load", "store",
		"thread_state_load", "thread_state_store", "host_try_lock", "host_cas", "host_set_owner",
		"jump", "brcond", "pseudo_jump", "indirect_jump", "syscall_jump",
	}
	if int(o) < len(names) {
		return names[o]
	}
	return fmt.Sprintf("opcode(%d)", o)
}
