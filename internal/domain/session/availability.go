package session

// Availability is the derived view of remaining seats for a session. It is
// recomputed from confirmed-booking rows on every read and never cached
// beyond a single request, since a stale count directly causes overbooking
// displays.
type Availability struct {
	Capacity    int   `json:"capacity"`
	BookedCount int64 `json:"booked_count"`
	SpotsLeft   int64 `json:"spots_left"`
	IsFull      bool  `json:"is_full"`
}

// ComputeAvailability derives the availability view from a session's capacity
// and its confirmed-booking count. spots_left is clamped at zero; overbooked
// reports whether the raw value was negative, which indicates a broken
// capacity invariant and should be surfaced as a consistency alarm by the
// caller rather than silently hidden.
func ComputeAvailability(capacity int, bookedCount int64) (av Availability, overbooked bool) {
	spotsLeft := int64(capacity) - bookedCount
	overbooked = spotsLeft < 0
	if spotsLeft < 0 {
		spotsLeft = 0
	}
	return Availability{
		Capacity:    capacity,
		BookedCount: bookedCount,
		SpotsLeft:   spotsLeft,
		IsFull:      spotsLeft <= 0,
	}, overbooked
}
