package regionapi

// These consts are used by internal/region and internal/driver. Grounded on wazevoapi's
// debug_consts.go: keep every debug/validation toggle in one file instead
// of scattered build tags, so "where do we have debug logging / validation"
// is a single lookup.

// ----- Validations -----
// These must stay enabled by default; spec.md §7 treats an IR invariant
// violation as a programming error that should abort loudly rather than
// silently corrupt the CFG.
const (
	// RegionBuilderValidationEnabled guards region.Builder.validate, the
	// post-Finalize sweep over the branch-targets table asserting the
	// spec.md §3/§7 invariants the region builder and jump resolver would
	// otherwise only assume hold.
	RegionBuilderValidationEnabled = true
)

// ----- Debug output -----
// Disabled by default, same as wazevoapi.FrontEndLoggingEnabled: flip it
// and rebuild to see per-instruction translation output. There is no
// runtime flag for this one (unlike cmd/rv64mir-translate's own -q, which
// only silences that tool's summary logging) since it instruments the
// region builder's decode loop itself, not a single caller.
const (
	// FrontEndLoggingEnabled, when true, makes internal/driver.CompileRegion
	// pretty-print the branch-targets table after every translated
	// instruction and again once the region is finalized.
	FrontEndLoggingEnabled = false
)
