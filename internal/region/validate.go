package region

import (
	"fmt"

	"github.com/rv64mir/region/internal/regionapi"
)

// validate checks spec.md §7's IR invariants ("For every region R and every
// guest address A translated inside R, the branch-targets table entry for A
// has a non-null block, and that block belongs to R's CFG") at a point
// Finalize's ordinary error returns only assume rather than re-check once
// the jump resolver has had a chance to move things around. Gated by
// regionapi.RegionBuilderValidationEnabled, matching
// wazevoapi.SSAValidationEnabled's policy of asserting eagerly rather than
// letting a malformed CFG propagate silently (spec.md §7 "IR invariant
// violation... the system aborts with a precondition violation").
func (b *Builder) validate() {
	if !regionapi.RegionBuilderValidationEnabled {
		return
	}
	for _, e := range b.Entries() {
		if !e.Translated {
			continue
		}
		if e.Instruction == nil {
			panic(fmt.Sprintf("region: invariant violation: translated target 0x%x has no resolved instruction", e.Addr))
		}
		// The owning block actually in the CFG is looked up fresh from
		// e.Instruction here rather than taken from e.Block (see
		// targetBlock's doc comment).
		owner := e.Instruction.Block()
		if owner == nil {
			panic(fmt.Sprintf("region: invariant violation: translated target 0x%x's instruction has no owning block", e.Addr))
		}
		if !owner.Valid() {
			panic(fmt.Sprintf("region: invariant violation: translated target 0x%x's block was invalidated", e.Addr))
		}
	}
}
