package lower

import "github.com/rv64mir/region/internal/mir"

// MemoryRegionReservationLoad implements load-reserved (spec.md §4.6): the
// guest memory word at rs1 is loaded through the usual recovery-block
// protocol, then its aligned address and value are stashed into the
// per-thread reservation slots and the host SetOwner helper is called so a
// concurrent store-conditional on another guest thread can tell who holds
// the reservation.
func (c *Compiler) MemoryRegionReservationLoad(rd, rs1 uint32, size MemSize) {
	cc := c.b.Container()
	off := c.state.offsets

	alignedAddr := c.GetReg(rs1)

	raw := cc.AllocGPValue(mir.TypeI64)
	loadInstr := cc.AllocInstruction().AsLoad(size.width(), true, alignedAddr, raw)
	c.b.EmitMemoryAccess(loadInstr)
	loaded := c.extendLoadResult(raw, size, true)

	storeAddr := cc.AllocInstruction().AsThreadStateStore(off.ReservationAddress, alignedAddr)
	c.b.CurrentBlock().InsertInstruction(storeAddr)

	storeVal := cc.AllocInstruction().AsThreadStateStore(off.ReservationValue, loaded)
	c.b.CurrentBlock().InsertInstruction(storeVal)

	cpu := cc.AllocGPValue(mir.TypeI64)
	loadCPU := cc.AllocInstruction().AsThreadStateLoad(off.CPUID, cpu)
	c.b.CurrentBlock().InsertInstruction(loadCPU)

	setOwner := cc.AllocInstruction().AsHostSetOwner(alignedAddr, cpu)
	c.b.CurrentBlock().InsertInstruction(setOwner)

	c.SetReg(rd, loaded)
}

// MemoryRegionReservationExchange implements store-conditional (spec.md
// §4.6), building exactly the block diagram the spec draws: start reads and
// single-shot-clears the reservation address, then branches on an address
// mismatch to failure; on match, addr_match calls the host TryLock helper
// and branches on contention to failure; on a successful lock, lock_success
// performs the locked compare-exchange against the reservation-value
// snapshot and branches on the CAS's own failure flag to failure or to
// swap_success, which sets result 0. Every path merges into continue
// with rd holding the SC result (0 success, 1 failure).
//
// The lock-table entry's release ("the lock entry is cleared by writing
// zero to its first word", spec.md §4.6) is modeled as part of what the
// OpHostCAS helper itself does, not as a separate MIR store: the host
// helper's contract is "locked compare-exchange, releasing the lock before
// returning", the same way OpHostTryLock's contract already folds "attempt
// the lock" into one instruction rather than a separate test-and-set.
func (c *Compiler) MemoryRegionReservationExchange(rd, rs1, rs2 uint32, size MemSize) {
	cc := c.b.Container()
	off := c.state.offsets

	alignedAddr := c.GetReg(rs1)
	newVal := c.GetReg(rs2)

	storedAddr := cc.AllocGPValue(mir.TypeI64)
	loadStored := cc.AllocInstruction().AsThreadStateLoad(off.ReservationAddress, storedAddr)
	c.b.CurrentBlock().InsertInstruction(loadStored)

	nullConst := c.GetImm(0)
	clearStore := cc.AllocInstruction().AsThreadStateStore(off.ReservationAddress, nullConst)
	c.b.CurrentBlock().InsertInstruction(clearStore)

	mismatchCmp := cc.AllocInstruction().AsIcmp(mir.Width64, storedAddr, alignedAddr, mir.CondNotEqual)
	c.b.CurrentBlock().InsertInstruction(mismatchCmp)

	failureBlk := cc.NewBlock()
	addrMatchBlk := cc.NewBlock()
	continueBlk := cc.NewBlock()

	mismatchBr := cc.AllocInstruction().AsBrcond(mir.CondNotEqual, failureBlk, addrMatchBlk)
	c.b.CurrentBlock().InsertInstruction(mismatchBr)

	// failure: result = 1, merge into continue.
	c.b.SetCurrentBlock(failureBlk)
	c.SetReg(rd, c.GetImm(1))
	failJump := cc.AllocInstruction().AsJump(continueBlk)
	failureBlk.InsertInstruction(failJump)

	// addr_match: attempt the lock.
	c.b.SetCurrentBlock(addrMatchBlk)
	lockResult := cc.AllocGPValue(mir.TypeI64)
	tryLock := cc.AllocInstruction().AsHostTryLock(alignedAddr, lockResult)
	addrMatchBlk.InsertInstruction(tryLock)

	lockSuccessBlk := cc.NewBlock()
	lockCmp := cc.AllocInstruction().AsIcmp(mir.Width64, lockResult, c.GetImm(0), mir.CondEqual)
	addrMatchBlk.InsertInstruction(lockCmp)
	lockBr := cc.AllocInstruction().AsBrcond(mir.CondEqual, failureBlk, lockSuccessBlk)
	addrMatchBlk.InsertInstruction(lockBr)

	// lock_success: locked compare-exchange against the reservation snapshot.
	c.b.SetCurrentBlock(lockSuccessBlk)
	expectedVal := cc.AllocGPValue(mir.TypeI64)
	loadExpected := cc.AllocInstruction().AsThreadStateLoad(off.ReservationValue, expectedVal)
	lockSuccessBlk.InsertInstruction(loadExpected)

	casResult := cc.AllocGPValue(mir.TypeI64)
	cas := cc.AllocInstruction().AsHostCAS(alignedAddr, expectedVal, newVal, casResult)
	lockSuccessBlk.InsertInstruction(cas)

	swapSuccessBlk := cc.NewBlock()
	casCmp := cc.AllocInstruction().AsIcmp(mir.Width64, casResult, c.GetImm(1), mir.CondEqual)
	lockSuccessBlk.InsertInstruction(casCmp)
	casBr := cc.AllocInstruction().AsBrcond(mir.CondEqual, failureBlk, swapSuccessBlk)
	lockSuccessBlk.InsertInstruction(casBr)

	// swap_success: result = 0, merge into continue.
	c.b.SetCurrentBlock(swapSuccessBlk)
	c.SetReg(rd, c.GetImm(0))
	swapJump := cc.AllocInstruction().AsJump(continueBlk)
	swapSuccessBlk.InsertInstruction(swapJump)

	c.b.SetCurrentBlock(continueBlk)
}
