// Package regionapi holds small, dependency-light runtime-support types
// shared by internal/region, internal/lower, and internal/driver: thread-state
// field offsets and compile-time debug/validation flags. Grounded on
// wazevoapi.ModuleContextOffsetData (named offset constants for everything
// generated code indexes by a known base pointer) and wazevoapi's
// debug_consts.go.
package regionapi

// ThreadStateOffsets names the byte offsets of the per-thread state fields
// generated code reads and writes, per spec.md §6 "Thread-state layout
// (consumed by generated code)". The translator never assumes any
// process-wide mutable state (spec.md §9): every access goes through one of
// these offsets off a thread-state base pointer supplied by the calling
// convention.
type ThreadStateOffsets struct {
	// PendingSignalsStatus is the offset of the byte field that is zero when
	// no signal is pending, or KPendingSignalsPresent when one is.
	PendingSignalsStatus uint32
	// ReservationAddress is the offset of the 8-byte field holding the guest
	// address of the currently reserved aligned region, or NullGuestAddress
	// when no reservation is outstanding.
	ReservationAddress uint32
	// ReservationValue is the offset of the 8-byte field holding the
	// snapshot of the reserved memory word.
	ReservationValue uint32
	// GPRBase is the offset of the first of 32 8-byte slots holding the
	// guest integer register file. spec.md §6 names GetReg/SetReg as a
	// decoder-facing contract but leaves their backing storage unspecified;
	// realizing guest registers as thread-state-resident slots (rather than
	// region-local values that would need an explicit spill epilogue) keeps
	// GetReg/SetReg's semantics correct across region boundaries without
	// adding a separate save/restore pass (see DESIGN.md).
	GPRBase uint32
	// FPRBase is the offset of the first of 32 8-byte slots holding the
	// guest floating-point register file (double-precision, NaN-boxed for
	// single-precision values per spec.md §6/§9).
	FPRBase uint32
	// CPUID is the offset of the 8-byte field holding the id of the CPU
	// currently running this thread, passed through to the host SetOwner
	// helper on a successful load-reserved (spec.md §4.6: "calls a host
	// helper SetOwner(addr, cpu)"). spec.md does not name this field's
	// storage explicitly; it is realized here as another thread-state slot
	// rather than a separate out-of-band argument, consistent with every
	// other piece of per-thread state this component reads.
	CPUID uint32
}

// DefaultThreadStateOffsets is the layout used by internal/lower and
// internal/driver when no other layout is supplied.
var DefaultThreadStateOffsets = ThreadStateOffsets{
	PendingSignalsStatus: 0,
	ReservationAddress:   8,
	ReservationValue:     16,
	GPRBase:              24,
	FPRBase:              24 + 32*8,
	CPUID:                24 + 2*32*8,
}

// KPendingSignalsPresent is the sentinel value of the pending-signals byte
// that means "a signal is pending" (spec.md §6).
const KPendingSignalsPresent uint8 = 1

// NullGuestAddress marks "no reservation active" in ReservationAddress
// (spec.md §4.6).
const NullGuestAddress uint64 = 0
