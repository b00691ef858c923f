package stoplight

// #region stoplight
// Stoplight is the three-valued risk indicator carried by sessions, artifacts
// and recovery phase states. Ordered best to worst: GREEN, YELLOW, RED.
type Stoplight string

const (
	Green  Stoplight = "GREEN"
	Yellow Stoplight = "YELLOW"
	Red    Stoplight = "RED"
)

// All lists the indicator values in rank order.
var All = []Stoplight{Green, Yellow, Red}

// Valid reports whether s is one of the three known values.
func (s Stoplight) Valid() bool {
	switch s {
	case Green, Yellow, Red:
		return true
	}
	return false
}

// Rank returns the ordinal of s (GREEN=0, YELLOW=1, RED=2). Unknown values rank as -1.
func (s Stoplight) Rank() int {
	switch s {
	case Green:
		return 0
	case Yellow:
		return 1
	case Red:
		return 2
	}
	return -1
}

// #endregion stoplight

// #region worst
// Worst reduces lights to the single worst value. An empty input is GREEN.
func Worst(lights ...Stoplight) Stoplight {
	worst := Green
	for _, l := range lights {
		if l.Rank() > worst.Rank() {
			worst = l
		}
	}
	return worst
}

// #endregion worst
