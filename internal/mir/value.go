package mir

import "fmt"

// Type is the value type carried by a Value or a VReg.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeF32
	TypeF64
)

func (t Type) String() string {
	switch t {
	case TypeI8:
		return "i8"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	default:
		return "invalid"
	}
}

// RegClass distinguishes the general-purpose and SIMD/floating-point virtual
// register id spaces. They share the numbering space of VReg but are wrapped
// in distinct Go types (GPReg, SIMDReg) below so that a GP register can never
// be handed to an API expecting a SIMD register, and vice versa, per
// spec.md §3 ("wrapped in distinct semantic types so they cannot be confused
// at call sites").
type RegClass uint8

const (
	RegClassInvalid RegClass = iota
	RegClassGP
	RegClassSIMD
)

// VReg is an opaque virtual-register id produced by Container.AllocGPReg
// or Container.AllocSIMDReg.
// The low 32 bits are the identifier; bits 32-39 carry the RegClass, in the
// same packed-uint64 style as backend.regalloc.VReg in the teacher codebase.
type VReg uint64

const vRegIDInvalid = ^uint32(0)

// InvalidVReg is the sentinel returned for "no register".
const InvalidVReg VReg = VReg(vRegIDInvalid)

func newVReg(id uint32, class RegClass) VReg {
	return VReg(id) | VReg(class)<<32
}

// ID returns the bare identifier, stripped of its RegClass tag.
func (v VReg) ID() uint32 { return uint32(v) }

// Class returns the RegClass this VReg was allocated with.
func (v VReg) Class() RegClass { return RegClass(v >> 32) }

// Valid reports whether v is not the InvalidVReg sentinel.
func (v VReg) Valid() bool { return v.ID() != vRegIDInvalid }

func (v VReg) String() string {
	switch v.Class() {
	case RegClassGP:
		return fmt.Sprintf("gp%d", v.ID())
	case RegClassSIMD:
		return fmt.Sprintf("simd%d", v.ID())
	default:
		return fmt.Sprintf("vreg%d(invalid-class)", v.ID())
	}
}

// GPReg wraps a VReg known (by construction) to belong to the general
// purpose register class.
type GPReg struct{ VReg }

// SIMDReg wraps a VReg known (by construction) to belong to the SIMD /
// floating point register class.
type SIMDReg struct{ VReg }

// Value is a reference to the result produced by an Instruction, or to a
// block parameter. It packs the Type into the high 32 bits the same way
// ssa.Value does in the teacher's ssa package, so a Value carries its own
// type without a side table.
type Value uint64

// ValueInvalid is the sentinel "no value" result.
const ValueInvalid Value = Value(vRegIDInvalid)

func newValue(id uint32, t Type) Value {
	return Value(id) | Value(t)<<32
}

// ID returns the bare identifier of this Value.
func (v Value) ID() uint32 { return uint32(v) }

// Type returns the Type this Value was allocated with.
func (v Value) Type() Type { return Type(v >> 32) }

// Valid reports whether v is not ValueInvalid.
func (v Value) Valid() bool { return v.ID() != vRegIDInvalid }

func (v Value) String() string {
	if !v.Valid() {
		return "<invalid>"
	}
	return fmt.Sprintf("v%d:%s", v.ID(), v.Type())
}
