package lower

import (
	"github.com/rv64mir/region/internal/region"
	"github.com/rv64mir/region/internal/regionapi"
)

// Compiler is the concrete SemanticsListener a driver hands to a decoder:
// every callback lowers straight into the given region.Builder's current
// block. One Compiler is constructed per region, matching the Builder's own
// lifetime (spec.md §3 "Lifecycles").
type Compiler struct {
	b     *region.Builder
	state *GuestState
}

// NewCompiler wraps b with a fresh GuestState backed by offsets, ready to
// receive SemanticsListener callbacks for b's region.
func NewCompiler(b *region.Builder, offsets regionapi.ThreadStateOffsets) *Compiler {
	return &Compiler{
		b:     b,
		state: newGuestState(b, offsets),
	}
}

// Unimplemented forwards to the region builder's catch-all (spec.md §4.3
// "Unimplemented instruction"): it marks the region unsuccessful and exits
// to the current guest PC so the driver can retry byte-for-byte in an
// interpreter.
func (c *Compiler) Unimplemented() {
	c.b.Unimplemented()
}

var _ SemanticsListener = (*Compiler)(nil)
