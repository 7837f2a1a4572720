package application

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/roomdesk/service-booking/internal/events/schema"
	"github.com/roomdesk/service-booking/internal/platform/domain"
)

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	guest := env.newGuest(t)

	dto, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		RoomID:           "101",
		GuestIDs:         []uuid.UUID{guest},
		Guests:           []ResolveGuestRequest{{Name: "Fatima Rahman", NationalID: "AZ567890"}},
		TotalAmountCents: 30000,
		PaidAmountCents:  5000,
		BookingDate:      "2024-01-01",
		DurationDays:     3,
	})
	require.NoError(t, err)

	assert.Equal(t, "upcoming", dto.Status)
	assert.Equal(t, "2024-01-03", dto.LastNight)
	assert.Equal(t, int64(25000), dto.BalanceCents)
	require.Len(t, dto.GuestIDs, 2)
	assert.Equal(t, guest, dto.PrimaryGuestID)
	assert.Equal(t, 2, dto.NumberOfPeople)

	resolved, err := env.guestRepo.FindByNationalID(ctx, "AZ567890")
	require.NoError(t, err)
	assert.Equal(t, resolved.ID(), dto.GuestIDs[1])

	assert.Equal(t, []string{schema.BookingCreated}, env.publisher.eventTypes())
}

func TestCreateBooking_RejectsOverlap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.book(t, "101", "2024-01-01", 3)

	_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		RoomID: "101", GuestIDs: []uuid.UUID{env.newGuest(t)}, BookingDate: "2024-01-03", DurationDays: 2,
	})
	assert.True(t, domain.IsConflict(err), "got %v", err)

	_, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		RoomID: "101", GuestIDs: []uuid.UUID{env.newGuest(t)}, BookingDate: "2024-01-04", DurationDays: 2,
	})
	assert.NoError(t, err)

	_, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		RoomID: "102", GuestIDs: []uuid.UUID{env.newGuest(t)}, BookingDate: "2024-01-02", DurationDays: 1,
	})
	assert.NoError(t, err, "other rooms are independent")
}

func TestCreateBooking_Failures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	guest := env.newGuest(t)

	_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		RoomID: "999", GuestIDs: []uuid.UUID{guest}, BookingDate: "2024-01-01", DurationDays: 1,
	})
	assert.True(t, domain.IsNotFound(err))

	_, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		RoomID: "101", GuestIDs: []uuid.UUID{uuid.New()}, BookingDate: "2024-01-01", DurationDays: 1,
	})
	assert.True(t, domain.IsNotFound(err))

	_, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		RoomID: "101", BookingDate: "2024-01-01", DurationDays: 1,
	})
	assert.True(t, domain.IsValidation(err), "no guests")

	_, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		RoomID: "101", GuestIDs: []uuid.UUID{guest}, BookingDate: "2024-01-01", DurationDays: 1,
		TotalAmountCents: 100, PaidAmountCents: 200,
	})
	assert.True(t, domain.IsValidation(err))

	_, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		RoomID: "101", GuestIDs: []uuid.UUID{guest}, BookingDate: "01/01/2024", DurationDays: 1,
	})
	assert.True(t, domain.IsValidation(err))

	assert.Empty(t, env.publisher.Calls)
}

func TestIsAvailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.book(t, "101", "2024-01-01", 3)

	ok, err := env.bookings.IsAvailable(ctx, "101", mustDate(t, "2024-01-03"), mustDate(t, "2024-01-05"), nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = env.bookings.IsAvailable(ctx, "101", mustDate(t, "2024-01-04"), mustDate(t, "2024-01-06"), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.bookings.IsAvailable(ctx, "101", mustDate(t, "2024-01-02"), mustDate(t, "2024-01-03"), &b.ID)
	require.NoError(t, err)
	assert.True(t, ok, "own booking excluded")

	_, err = env.bookings.IsAvailable(ctx, "101", mustDate(t, "2024-01-05"), mustDate(t, "2024-01-05"), nil)
	assert.True(t, domain.IsValidation(err))

	_, err = env.bookings.IsAvailable(ctx, "999", mustDate(t, "2024-01-01"), mustDate(t, "2024-01-02"), nil)
	assert.True(t, domain.IsNotFound(err))

	result, err := env.bookings.CheckAvailability(ctx, "101", mustDate(t, "2023-12-31"), mustDate(t, "2024-01-02"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{b.BookingNumber}, result.ConflictingWith)
}

func TestCheckIn_Twice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.book(t, "101", "2024-01-01", 2)

	first, err := env.bookings.CheckIn(ctx, b.ID, StayPaymentRequest{})
	require.NoError(t, err)

	env.clock.Set(env.clock.Now().Add(time.Hour))
	_, err = env.bookings.CheckIn(ctx, b.ID, StayPaymentRequest{})
	assert.True(t, domain.IsInvalidState(err))

	again, err := env.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, first.CheckInAt, again.CheckInAt)
}

func TestCheckIn_RoomAlreadyOccupied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	current := env.book(t, "101", "2024-01-01", 2)
	next := env.book(t, "101", "2024-01-03", 2)

	_, err := env.bookings.CheckIn(ctx, current.ID, StayPaymentRequest{})
	require.NoError(t, err)

	_, err = env.bookings.CheckIn(ctx, next.ID, StayPaymentRequest{})
	assert.True(t, domain.IsConflict(err), "got %v", err)

	_, err = env.bookings.CheckOut(ctx, current.ID, StayPaymentRequest{})
	require.NoError(t, err)
	_, err = env.bookings.CheckIn(ctx, next.ID, StayPaymentRequest{})
	assert.NoError(t, err)
}

func TestCheckOut_ReleasesRoomEarly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.book(t, "101", "2024-01-01", 5)

	_, err := env.bookings.CheckOut(ctx, b.ID, StayPaymentRequest{})
	assert.True(t, domain.IsInvalidState(err), "check-out before check-in")

	_, err = env.bookings.CheckIn(ctx, b.ID, StayPaymentRequest{})
	require.NoError(t, err)
	out, err := env.bookings.CheckOut(ctx, b.ID, StayPaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "checked_out", out.Status)

	ok, err := env.bookings.IsAvailable(ctx, "101", mustDate(t, "2024-01-02"), mustDate(t, "2024-01-04"), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	env.book(t, "101", "2024-01-01", 1)
}

func int64Ptr(v int64) *int64 { return &v }

func TestCheckInAndOut_TakePayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.book(t, "101", "2024-01-01", 3)

	in, err := env.bookings.CheckIn(ctx, b.ID, StayPaymentRequest{PaidAmountCents: int64Ptr(10000)})
	require.NoError(t, err)
	assert.Equal(t, "checked_in", in.Status)
	assert.Equal(t, int64(10000), in.PaidAmountCents)

	out, err := env.bookings.CheckOut(ctx, b.ID, StayPaymentRequest{PaidAmountCents: int64Ptr(30000)})
	require.NoError(t, err)
	assert.Equal(t, "checked_out", out.Status)
	assert.Equal(t, int64(0), out.BalanceCents)

	assert.Equal(t, []string{
		schema.BookingCreated,
		schema.BookingCheckedIn, schema.BookingPaymentUpdated,
		schema.BookingCheckedOut, schema.BookingPaymentUpdated,
	}, env.publisher.eventTypes())
}

func TestCheckIn_InvalidPaymentKeepsBookingUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.book(t, "101", "2024-01-01", 3)

	_, err := env.bookings.CheckIn(ctx, b.ID, StayPaymentRequest{PaidAmountCents: int64Ptr(30001)})
	assert.True(t, domain.IsValidation(err), "got %v", err)

	stored, err := env.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "upcoming", stored.Status)
	assert.Nil(t, stored.CheckInAt)
	assert.Equal(t, int64(0), stored.PaidAmountCents)

	_, err = env.bookings.CheckIn(ctx, b.ID, StayPaymentRequest{PaidAmountCents: int64Ptr(0)})
	require.NoError(t, err)
	_, err = env.bookings.CheckOut(ctx, b.ID, StayPaymentRequest{PaidAmountCents: int64Ptr(-1)})
	assert.True(t, domain.IsValidation(err), "payments never go down")

	stored, err = env.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "checked_in", stored.Status)
	assert.Equal(t, []string{schema.BookingCreated, schema.BookingCheckedIn}, env.publisher.eventTypes())
}

func TestCancelBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	upcoming := env.book(t, "101", "2024-01-01", 2)
	arrived := env.book(t, "102", "2024-01-01", 2)

	cancelled, err := env.bookings.CancelBooking(ctx, upcoming.ID, env.admin)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = env.bookings.CheckIn(ctx, upcoming.ID, StayPaymentRequest{})
	assert.True(t, domain.IsInvalidState(err))

	_, err = env.bookings.CheckIn(ctx, arrived.ID, StayPaymentRequest{})
	require.NoError(t, err)
	_, err = env.bookings.CancelBooking(ctx, arrived.ID, env.admin)
	assert.True(t, domain.IsInvalidState(err))

	still, err := env.bookings.GetBooking(ctx, arrived.ID)
	require.NoError(t, err)
	assert.Nil(t, still.CancelledAt)

	// The cancelled stay no longer blocks the room.
	env.book(t, "101", "2024-01-01", 2)
}

func TestExtendBooking_ChecksOnlyNewDays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.book(t, "101", "2024-01-01", 3)
	env.book(t, "101", "2024-01-05", 2)

	_, err := env.bookings.CheckIn(ctx, a.ID, StayPaymentRequest{})
	require.NoError(t, err)

	extended, err := env.bookings.ExtendBooking(ctx, a.ID, ExtendBookingRequest{ExtraDays: 1, ExtraAmountCents: 10000})
	require.NoError(t, err)
	assert.Equal(t, 4, extended.DurationDays)
	assert.Equal(t, int64(40000), extended.TotalAmountCents)
	assert.Equal(t, "2024-01-04", extended.LastNight)

	_, err = env.bookings.ExtendBooking(ctx, a.ID, ExtendBookingRequest{ExtraDays: 1})
	assert.True(t, domain.IsConflict(err), "2024-01-05 is taken")

	current, err := env.bookings.GetBooking(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, current.DurationDays)

	_, err = env.bookings.ExtendBooking(ctx, a.ID, ExtendBookingRequest{ExtraDays: 0})
	assert.True(t, domain.IsValidation(err))
}

func TestExtendBooking_OnlyStayInProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	upcoming := env.book(t, "101", "2024-01-05", 3)
	_, err := env.bookings.ExtendBooking(ctx, upcoming.ID, ExtendBookingRequest{ExtraDays: 2})
	assert.True(t, domain.IsInvalidState(err), "got %v", err)

	stored, err := env.bookings.GetBooking(ctx, upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.DurationDays)
	assert.Equal(t, "upcoming", stored.Status)

	cancelled := env.book(t, "102", "2024-01-01", 2)
	_, err = env.bookings.CancelBooking(ctx, cancelled.ID, env.admin)
	require.NoError(t, err)
	_, err = env.bookings.ExtendBooking(ctx, cancelled.ID, ExtendBookingRequest{ExtraDays: 1})
	assert.True(t, domain.IsInvalidState(err))
}

func TestExtendBooking_RejectsOverflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.book(t, "101", "2024-01-01", 3)
	_, err := env.bookings.UpdatePayment(ctx, b.ID, UpdatePaymentRequest{PaidAmountCents: 30000})
	require.NoError(t, err)
	_, err = env.bookings.CheckIn(ctx, b.ID, StayPaymentRequest{})
	require.NoError(t, err)

	_, err = env.bookings.ExtendBooking(ctx, b.ID, ExtendBookingRequest{ExtraDays: 1, ExtraAmountCents: math.MaxInt64})
	assert.True(t, domain.IsValidation(err), "got %v", err)

	_, err = env.bookings.ExtendBooking(ctx, b.ID, ExtendBookingRequest{ExtraDays: math.MaxInt - 1})
	assert.True(t, domain.IsValidation(err), "got %v", err)

	stored, err := env.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.DurationDays)
	assert.Equal(t, int64(30000), stored.TotalAmountCents)
	assert.Equal(t, int64(30000), stored.PaidAmountCents)
}

func TestCreateBooking_RejectsHugeDuration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		RoomID: "201", GuestIDs: []uuid.UUID{env.newGuest(t)}, BookingDate: "2024-01-01", DurationDays: math.MaxInt,
	})
	assert.True(t, domain.IsValidation(err), "got %v", err)

	ok, err := env.bookings.IsAvailable(ctx, "201", mustDate(t, "2024-01-02"), mustDate(t, "2024-01-03"), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	env.book(t, "201", "2024-01-01", 3)
	ok, err = env.bookings.IsAvailable(ctx, "201", mustDate(t, "2024-01-02"), mustDate(t, "2024-01-03"), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateBooking_ConflictRegistersNoGuests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.book(t, "101", "2024-01-01", 3)

	_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		RoomID:       "101",
		Guests:       []ResolveGuestRequest{{Name: "Nusrat Jahan", NationalID: "QX-1001"}},
		BookingDate:  "2024-01-02",
		DurationDays: 1,
	})
	require.True(t, domain.IsConflict(err), "got %v", err)

	_, err = env.guestRepo.FindByNationalID(ctx, "QX-1001")
	assert.True(t, domain.IsNotFound(err))

	_, err = env.bookings.CreateBatch(ctx, CreateBatchBookingRequest{
		Rooms:        []BatchRoomRequest{{RoomID: "102"}, {RoomID: "101"}},
		Guests:       []ResolveGuestRequest{{Name: "Nusrat Jahan", NationalID: "QX-1001"}},
		BookingDate:  "2024-01-02",
		DurationDays: 1,
	})
	require.True(t, domain.IsConflict(err), "got %v", err)

	_, err = env.guestRepo.FindByNationalID(ctx, "QX-1001")
	assert.True(t, domain.IsNotFound(err))

	_, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		RoomID: "102",
		Guests: []ResolveGuestRequest{
			{Name: "Nusrat Jahan", NationalID: "QX-1001"},
			{Name: "Nusrat Jahan", NationalID: "qx-1001 "},
		},
		BookingDate:  "2024-01-02",
		DurationDays: 1,
	})
	assert.True(t, domain.IsValidation(err), "same identity twice")
	_, err = env.guestRepo.FindByNationalID(ctx, "QX-1001")
	assert.True(t, domain.IsNotFound(err))
}

func TestUpdatePayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.book(t, "101", "2024-01-01", 3)

	updated, err := env.bookings.UpdatePayment(ctx, b.ID, UpdatePaymentRequest{PaidAmountCents: 10000})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), updated.BalanceCents)

	_, err = env.bookings.UpdatePayment(ctx, b.ID, UpdatePaymentRequest{PaidAmountCents: 9999})
	assert.True(t, domain.IsValidation(err), "below current")

	_, err = env.bookings.UpdatePayment(ctx, b.ID, UpdatePaymentRequest{PaidAmountCents: 30001})
	assert.True(t, domain.IsValidation(err), "above total")

	same, err := env.bookings.UpdatePayment(ctx, b.ID, UpdatePaymentRequest{PaidAmountCents: 10000})
	require.NoError(t, err)
	assert.Equal(t, updated.Version, same.Version, "unchanged amount is a no-op")

	assert.Equal(t, []string{schema.BookingCreated, schema.BookingPaymentUpdated}, env.publisher.eventTypes())
}

func TestCreateBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dtos, err := env.bookings.CreateBatch(ctx, CreateBatchBookingRequest{
		Rooms:            []BatchRoomRequest{{RoomID: "101", NumberOfPeople: 2}, {RoomID: "102", NumberOfPeople: 1}, {RoomID: "201", NumberOfPeople: 3}},
		Guests:           []ResolveGuestRequest{{Name: "Kamal Hossain", NationalID: "CY123456"}},
		TotalAmountCents: 90001,
		PaidAmountCents:  60002,
		BookingDate:      "2024-01-10",
		DurationDays:     2,
	})
	require.NoError(t, err)
	require.Len(t, dtos, 3)

	assert.Equal(t, int64(30001), dtos[0].TotalAmountCents)
	assert.Equal(t, int64(30000), dtos[1].TotalAmountCents)
	assert.Equal(t, int64(20001), dtos[0].PaidAmountCents)
	assert.Equal(t, int64(20001), dtos[1].PaidAmountCents)
	assert.Equal(t, int64(20000), dtos[2].PaidAmountCents)
	assert.Equal(t, 3, dtos[2].NumberOfPeople)
	assert.Equal(t, dtos[0].PrimaryGuestID, dtos[2].PrimaryGuestID)
}

func TestCreateBatch_AllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.book(t, "201", "2024-01-11", 1)

	_, err := env.bookings.CreateBatch(ctx, CreateBatchBookingRequest{
		Rooms:        []BatchRoomRequest{{RoomID: "101"}, {RoomID: "201"}},
		GuestIDs:     []uuid.UUID{env.newGuest(t)},
		BookingDate:  "2024-01-10",
		DurationDays: 2,
	})
	assert.True(t, domain.IsConflict(err))

	room101, err := env.bookings.GetRoomBookings(ctx, "101", ViewAll)
	require.NoError(t, err)
	assert.Empty(t, room101)

	_, err = env.bookings.CreateBatch(ctx, CreateBatchBookingRequest{
		Rooms:        []BatchRoomRequest{{RoomID: "101"}, {RoomID: "101"}},
		GuestIDs:     []uuid.UUID{env.newGuest(t)},
		BookingDate:  "2024-01-10",
		DurationDays: 2,
	})
	assert.True(t, domain.IsValidation(err))
}

func TestSplitAmount_PaidNeverExceedsTotal(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for total := int64(0); total <= 23; total++ {
			for paid := int64(0); paid <= total; paid++ {
				tp, pp := splitAmount(total, n), splitAmount(paid, n)
				var sumT, sumP int64
				for i := 0; i < n; i++ {
					require.LessOrEqual(t, pp[i], tp[i], "n=%d total=%d paid=%d", n, total, paid)
					sumT += tp[i]
					sumP += pp[i]
				}
				require.Equal(t, total, sumT)
				require.Equal(t, paid, sumP)
			}
		}
	}
}

func TestDeleteBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	free := env.book(t, "101", "2024-01-01", 1)
	referenced := env.book(t, "102", "2024-01-01", 1)

	require.NoError(t, env.bookings.DeleteBooking(ctx, free.ID))
	_, err := env.bookings.GetBooking(ctx, free.ID)
	assert.True(t, domain.IsNotFound(err))

	req, err := env.cancellations.RequestCancellation(ctx, referenced.ID, env.manager, RequestCancellationRequest{})
	require.NoError(t, err)
	_, err = env.cancellations.RejectCancellation(ctx, req.ID, env.admin)
	require.NoError(t, err)

	err = env.bookings.DeleteBooking(ctx, referenced.ID)
	assert.True(t, domain.IsInvalidState(err))
}

func TestRoomViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	past := env.book(t, "101", "2023-12-28", 2)
	current := env.book(t, "101", "2024-01-01", 2)
	upcoming := env.book(t, "101", "2024-01-05", 2)
	env.book(t, "102", "2024-01-01", 1)
	called := env.book(t, "201", "2024-01-01", 1)
	_, err := env.bookings.CancelBooking(ctx, called.ID, env.admin)
	require.NoError(t, err)

	_, err = env.bookings.CheckIn(ctx, past.ID, StayPaymentRequest{})
	require.NoError(t, err)
	_, err = env.bookings.CheckOut(ctx, past.ID, StayPaymentRequest{})
	require.NoError(t, err)
	_, err = env.bookings.CheckIn(ctx, current.ID, StayPaymentRequest{})
	require.NoError(t, err)

	views := map[RoomBookingView]uuid.UUID{ViewPast: past.ID, ViewCurrent: current.ID, ViewUpcoming: upcoming.ID}
	for view, want := range views {
		got, err := env.bookings.GetRoomBookings(ctx, "101", view)
		require.NoError(t, err)
		require.Len(t, got, 1, string(view))
		assert.Equal(t, want, got[0].ID, string(view))
	}

	all, err := env.bookings.GetRoomBookings(ctx, "101", ViewAll)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	occupied, err := env.bookings.OccupiedRoomIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"101"}, occupied)

	booked, err := env.bookings.BookedRoomIDs(ctx, mustDate(t, "2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, []string{"101", "102"}, booked, "cancelled stay on 201 does not hold the room")

	_, err = ParseRoomBookingView("future")
	assert.True(t, domain.IsValidation(err))
}

func TestGetGuestBookingsAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	guest := env.newGuest(t)

	for _, room := range []string{"101", "102"} {
		_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
			RoomID: room, GuestIDs: []uuid.UUID{guest}, BookingDate: "2024-01-01", DurationDays: 1,
		})
		require.NoError(t, err)
	}
	env.book(t, "201", "2024-01-01", 1)

	mine, err := env.bookings.GetGuestBookings(ctx, guest)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = env.bookings.GetGuestBookings(ctx, uuid.New())
	assert.True(t, domain.IsNotFound(err))

	stats, err := env.bookings.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalBookings)
	assert.Equal(t, int64(3), stats.ByStatus["upcoming"])

	page, err := env.bookings.ListBookings(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalPages)
}

func TestConcurrentCreates_OneWinnerPerRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	guests := make([]uuid.UUID, 20)
	for i := range guests {
		guests[i] = env.newGuest(t)
	}

	var won, conflicted atomic.Int32
	var g errgroup.Group
	for i := range guests {
		guest := guests[i]
		// Every request overlaps every other one on 2024-02-03.
		start := mustDate(t, "2024-02-01").AddDate(0, 0, i%3)
		g.Go(func() error {
			_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
				RoomID:       "101",
				GuestIDs:     []uuid.UUID{guest},
				BookingDate:  start.Format("2006-01-02"),
				DurationDays: 3,
			})
			switch {
			case err == nil:
				won.Add(1)
			case domain.IsConflict(err):
				conflicted.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), won.Load())
	assert.Equal(t, int32(19), conflicted.Load())
}

func TestConcurrentExtendAndCreate_NoDoubleBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		base := mustDate(t, "2024-03-01").AddDate(0, 0, round*10)
		b := env.book(t, "201", base.Format("2006-01-02"), 2)
		_, err := env.bookings.CheckIn(ctx, b.ID, StayPaymentRequest{})
		require.NoError(t, err)
		next := base.AddDate(0, 0, 2).Format("2006-01-02")
		guest := env.newGuest(t)

		var g errgroup.Group
		g.Go(func() error {
			_, err := env.bookings.ExtendBooking(ctx, b.ID, ExtendBookingRequest{ExtraDays: 1})
			if err != nil && !domain.IsConflict(err) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
				RoomID: "201", GuestIDs: []uuid.UUID{guest}, BookingDate: next, DurationDays: 1,
			})
			if err != nil && !domain.IsConflict(err) {
				return err
			}
			return nil
		})
		require.NoError(t, g.Wait())

		booked, err := env.bookings.BookedRoomIDs(ctx, mustDate(t, next))
		require.NoError(t, err)
		assert.Equal(t, []string{"201"}, booked)

		holders, err := env.bookingRepo.FindActiveOn(ctx, mustDate(t, next))
		require.NoError(t, err)
		assert.Len(t, holders, 1, "exactly one booking holds %s", next)
	}
}
