package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestBooking(t *testing.T, roomID, start string, duration int) *Booking {
	t.Helper()
	b, err := NewBooking(roomID, []uuid.UUID{uuid.New()}, 1, 30000, 0, day(t, start), duration, "", testNow)
	require.NoError(t, err)
	return b
}

func window(t *testing.T, start, endExclusive string) Window {
	t.Helper()
	w, err := NewWindow(day(t, start), day(t, endExclusive))
	require.NoError(t, err)
	return w
}

func TestIsAvailable_EmptyRoom(t *testing.T) {
	assert.True(t, IsAvailable(nil, window(t, "2024-01-01", "2024-01-02"), nil))
}

func TestIsAvailable_DaysOneToThree(t *testing.T) {
	bookings := []*Booking{newTestBooking(t, "101", "2024-01-01", 3)}

	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"overlaps last day", "2024-01-03", "2024-01-05", false},
		{"starts day after", "2024-01-04", "2024-01-06", true},
		{"ends on first day", "2023-12-30", "2024-01-02", false},
		{"ends day before", "2023-12-29", "2024-01-01", true},
		{"inside", "2024-01-02", "2024-01-03", false},
		{"swallows booking", "2023-12-31", "2024-01-05", false},
		{"same span", "2024-01-01", "2024-01-04", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAvailable(bookings, window(t, tt.start, tt.end), nil))
		})
	}
}

func TestIsAvailable_DisjointBookingsBothFit(t *testing.T) {
	a := newTestBooking(t, "101", "2024-01-01", 2)
	w := window(t, "2024-01-03", "2024-01-05")
	assert.True(t, IsAvailable([]*Booking{a}, w, nil))

	b := newTestBooking(t, "101", "2024-01-03", 2)
	assert.True(t, IsAvailable([]*Booking{b}, StayWindow(a.BookingDate(), a.DurationDays()), nil))
}

func TestIsAvailable_ExcludesSelf(t *testing.T) {
	b := newTestBooking(t, "101", "2024-01-01", 3)
	id := b.ID()
	w := window(t, "2024-01-02", "2024-01-03")
	assert.False(t, IsAvailable([]*Booking{b}, w, nil))
	assert.True(t, IsAvailable([]*Booking{b}, w, &id))
}

func TestIsAvailable_CheckoutReleasesRoom(t *testing.T) {
	b := newTestBooking(t, "101", "2024-01-01", 5)
	w := window(t, "2024-01-03", "2024-01-04")
	assert.False(t, IsAvailable([]*Booking{b}, w, nil))

	require.NoError(t, b.CheckIn(testNow))
	require.NoError(t, b.CheckOut(testNow.Add(time.Hour)))
	assert.True(t, IsAvailable([]*Booking{b}, w, nil))
}

func TestIsAvailable_CancelledDoesNotBlock(t *testing.T) {
	b := newTestBooking(t, "101", "2024-01-01", 2)
	require.NoError(t, b.Cancel(uuid.New(), testNow))
	assert.True(t, IsAvailable([]*Booking{b}, window(t, "2024-01-01", "2024-01-03"), nil))
}

func TestConflicts_ReturnsBlockingBookings(t *testing.T) {
	a := newTestBooking(t, "101", "2024-01-01", 2)
	b := newTestBooking(t, "101", "2024-01-05", 2)
	c := newTestBooking(t, "101", "2024-01-10", 2)

	got := Conflicts([]*Booking{a, b, c}, window(t, "2024-01-02", "2024-01-07"), nil)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID(), got[0].ID())
	assert.Equal(t, b.ID(), got[1].ID())
}
