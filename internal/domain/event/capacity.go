package event

type CapacityStatus string

const (
	StatusAvailable CapacityStatus = "available"
	StatusFewSpots  CapacityStatus = "few-spots"
	StatusFull      CapacityStatus = "full"
	StatusWaitlist  CapacityStatus = "waitlist"
)

// fewSpotsRatio is the fill ratio at which an event starts showing "few spots left".
const fewSpotsRatio = 0.90

type Capacity struct {
	Max        int `json:"max"`
	Registered int `json:"registered"`
}

// Status classifies the capacity. It never returns StatusWaitlist.
// A zero (or negative) max is treated as always full.
func (c Capacity) Status() CapacityStatus {
	if c.Max <= 0 || c.Registered >= c.Max {
		return StatusFull
	}

	if float64(c.Registered)/float64(c.Max) >= fewSpotsRatio {
		return StatusFewSpots
	}

	return StatusAvailable
}

// SpotsLeft never goes below zero, upstream may let registered exceed max.
func (c Capacity) SpotsLeft() int {
	left := c.Max - c.Registered
	if left < 0 {
		return 0
	}
	return left
}

// ForRegistration is the status used once a user goes ahead and registers:
// a full event turns into a waitlist entry.
func (s CapacityStatus) ForRegistration() CapacityStatus {
	if s == StatusFull {
		return StatusWaitlist
	}
	return s
}
