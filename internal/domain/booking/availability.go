package booking

import "github.com/google/uuid"

// IsAvailable reports whether none of bookings claims a day of w.
// Bookings matching exclude are skipped, as are checked-out and cancelled ones:
// an early check-out frees the rest of its interval immediately.
func IsAvailable(bookings []*Booking, w Window, exclude *uuid.UUID) bool {
	return len(Conflicts(bookings, w, exclude)) == 0
}

// Conflicts returns the bookings that block w.
func Conflicts(bookings []*Booking, w Window, exclude *uuid.UUID) []*Booking {
	req := w.Inclusive()
	var out []*Booking
	for _, b := range bookings {
		if exclude != nil && b.ID() == *exclude {
			continue
		}
		if !b.HoldsRoom() {
			continue
		}
		if conflicts(b.OccupiedInterval(), req) {
			out = append(out, b)
		}
	}
	return out
}

// conflicts is true when the request starts or ends inside occ, or swallows it whole.
func conflicts(occ, req Interval) bool {
	if occ.Contains(req.Start) || occ.Contains(req.End) {
		return true
	}
	return req.Start.Before(occ.Start) && req.End.After(occ.End)
}
