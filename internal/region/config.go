package region

// Config holds the two driver-supplied knobs spec.md §6 names under
// "Configuration".
type Config struct {
	// LinkJumpsWithinRegion gates the jump-resolver pass (spec.md §4.2).
	// Defaulting to true is recommended but not required by spec.md §6;
	// DefaultConfig follows that recommendation.
	LinkJumpsWithinRegion bool

	// MaxInstructions is the driver's instruction-count cap for this region
	// (spec.md §5 "Cancellation and timeout", §7 "Region-too-long"). Zero
	// means no cap. When the cap is reached, the next IsRegionEndReached
	// call returns true regardless of the unconditional-branch/fallthrough
	// rule in spec.md §4.1.
	MaxInstructions int
}

// DefaultConfig is link_jumps_within_region = true, no instruction cap.
var DefaultConfig = Config{LinkJumpsWithinRegion: true}
