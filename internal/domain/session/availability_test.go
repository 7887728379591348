package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeAvailability(t *testing.T) {
	cases := []struct {
		name        string
		capacity    int
		bookedCount int64
		spotsLeft   int64
		isFull      bool
		overbooked  bool
	}{
		{"empty session", 10, 0, 10, false, false},
		{"partially booked", 10, 4, 6, false, false},
		{"one seat left", 10, 9, 1, false, false},
		{"exactly full", 10, 10, 0, true, false},
		{"overbooked clamps to zero", 10, 12, 0, true, true},
		{"capacity one", 1, 0, 1, false, false},
		{"capacity one full", 1, 1, 0, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			av, overbooked := ComputeAvailability(tc.capacity, tc.bookedCount)
			assert.Equal(t, tc.capacity, av.Capacity)
			assert.Equal(t, tc.bookedCount, av.BookedCount)
			assert.Equal(t, tc.spotsLeft, av.SpotsLeft)
			assert.Equal(t, tc.isFull, av.IsFull)
			assert.Equal(t, tc.overbooked, overbooked)
		})
	}
}
