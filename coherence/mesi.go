// Package coherence implements each core's private, direct-mapped MESI
// data cache: tag/state memory (TSRAM), data memory (DSRAM), the hit
// logic that issues bus requests on a miss, and the snoop/fill handlers
// invoked by the bus arbiter.
package coherence

// MesiState is one of the four MESI coherence states. Numeric values
// match the TSRAM dump packing (bits[13:12] of the packed word).
type MesiState uint8

// MESI states.
const (
	Invalid MesiState = iota
	Shared
	Exclusive
	Modified
)

// String renders the state for trace/debug output.
func (s MesiState) String() string {
	switch s {
	case Invalid:
		return "I"
	case Shared:
		return "S"
	case Exclusive:
		return "E"
	case Modified:
		return "M"
	default:
		return "?"
	}
}
