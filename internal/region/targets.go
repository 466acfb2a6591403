package region

import (
	"sort"

	"github.com/rv64mir/region/internal/mir"
)

// position is a (block, instruction) pair, per spec.md §3
// "Machine-instruction position". instr == nil is the "none" sentinel: the
// first instruction of blk, once one exists. It is resolved to a concrete
// instruction during Finalize (spec.md §4.1 step 2).
type position struct {
	blk   *mir.Block
	instr *mir.Instruction
}

// targetEntry is one row of the branch-targets table (spec.md §3
// "Branch-targets table"). A nil blk means "outside / pending": some
// intra-region jump wants to reach addr, but it is not (yet, or ever) inside
// this region.
type targetEntry struct {
	addr     uint64
	blk      *mir.Block
	instr    *mir.Instruction
	hasInstr bool // false selects the "none" sentinel even when blk != nil
}

func (e *targetEntry) translated() bool { return e.blk != nil }

// branchTargets is the ordered guest-address -> position mapping described
// in spec.md §3/§4.3. The backing store is an unordered map (for O(1)
// lookup/record, as every StartInsn and GenJump call does one), with a
// dedicated sorted-keys helper next to it for the ascending-order walk the
// splitting pass requires (spec.md §3 "Iteration must be by ascending guest
// address to keep the splitting pass deterministic") — the same split
// between "the map" and "a sort helper" ssa/basic_block_sort.go keeps next
// to ssa/basic_block.go's otherwise-unordered predecessor/successor slices.
type branchTargets struct {
	entries map[uint64]*targetEntry
}

func newBranchTargets() *branchTargets {
	return &branchTargets{entries: make(map[uint64]*targetEntry)}
}

// lookup returns the entry for addr, or nil if none exists.
func (t *branchTargets) lookup(addr uint64) *targetEntry {
	return t.entries[addr]
}

// recordTranslated records that addr was translated inside the region, with
// its first host instruction starting at pos. If an "outside/pending" entry
// already existed for addr (some earlier jump wanted to reach it before it
// was known to be in-region), it is upgraded in place.
func (t *branchTargets) recordTranslated(addr uint64, pos position) *targetEntry {
	e := t.entries[addr]
	if e == nil {
		e = &targetEntry{addr: addr}
		t.entries[addr] = e
	}
	e.blk = pos.blk
	e.instr = pos.instr
	e.hasInstr = pos.instr != nil
	return e
}

// recordPending ensures an entry exists for addr with a null block, meaning
// "some intra-region jump wants to reach this address" (spec.md §3). If an
// entry already exists (translated or pending), it is left untouched.
func (t *branchTargets) recordPending(addr uint64) *targetEntry {
	e := t.entries[addr]
	if e == nil {
		e = &targetEntry{addr: addr}
		t.entries[addr] = e
	}
	return e
}

// sortedAddrs returns every recorded guest address in ascending order.
func (t *branchTargets) sortedAddrs() []uint64 {
	addrs := make([]uint64, 0, len(t.entries))
	for a := range t.entries {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Entry is the read-only view of one branch-targets row, exposed to tests
// per spec.md §6 "Read-only accessor to the branch-targets table (for
// testing)".
type Entry struct {
	Addr        uint64
	Block       *mir.Block
	Instruction *mir.Instruction
	Translated  bool
}

// Entries returns every branch-targets row in ascending-address order.
func (b *Builder) Entries() []Entry {
	addrs := b.targets.sortedAddrs()
	out := make([]Entry, 0, len(addrs))
	for _, a := range addrs {
		e := b.targets.entries[a]
		out = append(out, Entry{Addr: a, Block: e.blk, Instruction: e.instr, Translated: e.translated()})
	}
	return out
}
