package mir

import "golang.org/x/arch/x86/x86asm"

// HostCondition is the host (x86-64) condition code a RISC-V branch opcode
// lowers to, per spec.md §4.1: "terminates current with a conditional
// pseudo-branch on the host condition code corresponding to the RISC-V
// branch opcode (equal, not-equal, signed-less/greater-equal,
// unsigned-below/above-equal)".
//
// Rather than invent a parallel enum, we reuse golang.org/x/arch/x86/x86asm's
// jump mnemonics directly as the representation, restricted to the six this
// spec needs.
type HostCondition = x86asm.Op

const (
	CondEqual              HostCondition = x86asm.JE
	CondNotEqual           HostCondition = x86asm.JNE
	CondSignedLess         HostCondition = x86asm.JL
	CondSignedGreaterEqual HostCondition = x86asm.JGE
	CondUnsignedBelow      HostCondition = x86asm.JB
	CondUnsignedAboveEqual HostCondition = x86asm.JAE
)

// Invert returns the condition that is true exactly when c is false.
func Invert(c HostCondition) HostCondition {
	switch c {
	case CondEqual:
		return CondNotEqual
	case CondNotEqual:
		return CondEqual
	case CondSignedLess:
		return CondSignedGreaterEqual
	case CondSignedGreaterEqual:
		return CondSignedLess
	case CondUnsignedBelow:
		return CondUnsignedAboveEqual
	case CondUnsignedAboveEqual:
		return CondUnsignedBelow
	default:
		panic("mir: Invert of non-branch HostCondition")
	}
}
