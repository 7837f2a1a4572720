package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	guestDomain "github.com/roomdesk/service-booking/internal/domain/guest"
	roomDomain "github.com/roomdesk/service-booking/internal/domain/room"
	"github.com/roomdesk/service-booking/internal/platform/kafka"
	"github.com/roomdesk/service-booking/internal/platform/lock"
	"github.com/roomdesk/service-booking/internal/repository"
)

// mockPublisher records published events.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error {
	args := m.Called(ctx, topic, ce)
	return args.Error(0)
}

// eventTypes lists the published event types in order.
func (m *mockPublisher) eventTypes() []string {
	var types []string
	for _, c := range m.Calls {
		types = append(types, c.Arguments.Get(2).(kafka.CloudEvent).Type)
	}
	return types
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type testEnv struct {
	bookings      *BookingService
	cancellations *CancellationService
	rooms         *RoomService
	guests        *GuestService
	bookingRepo   *repository.MemoryBookingRepository
	requestRepo   *repository.MemoryCancellationRequestRepository
	guestRepo     *repository.MemoryGuestRepository
	publisher     *mockPublisher
	clock         *fakeClock
	admin         uuid.UUID
	manager       uuid.UUID
}

var testRooms = []roomDomain.Room{
	{ID: "101", RoomNumber: "101", Floor: 1, Category: roomDomain.CategoryDouble, Beds: 2, Bathrooms: 1, HasAC: true},
	{ID: "102", RoomNumber: "102", Floor: 1, Category: roomDomain.CategoryCouple, Beds: 1, Bathrooms: 1, HasAC: false},
	{ID: "201", RoomNumber: "201", Floor: 2, Category: roomDomain.CategoryConnecting, Beds: 3, Bathrooms: 2, HasAC: true},
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	catalog, err := repository.NewStaticRoomCatalog(testRooms)
	require.NoError(t, err)

	pub := &mockPublisher{}
	pub.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	fc := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	clock := NewClock(fc.Now, time.UTC)
	logger := zap.NewNop()

	env := &testEnv{
		bookingRepo: repository.NewMemoryBookingRepository(),
		requestRepo: repository.NewMemoryCancellationRequestRepository(),
		guestRepo:   repository.NewMemoryGuestRepository(),
		publisher:   pub,
		clock:       fc,
		admin:       uuid.New(),
		manager:     uuid.New(),
	}
	env.bookings = NewBookingService(
		env.bookingRepo, env.requestRepo, env.guestRepo, catalog,
		repository.NoopTransactor{}, lock.NewKeyedMutex(), clock, pub, logger,
	)
	env.cancellations = NewCancellationService(env.bookings, env.requestRepo, logger)
	env.rooms = NewRoomService(catalog, env.bookingRepo)
	env.guests = NewGuestService(env.guestRepo, clock, logger)
	return env
}

func (e *testEnv) newGuest(t *testing.T) uuid.UUID {
	t.Helper()
	g, err := guestDomain.NewGuest("Guest "+uuid.NewString()[:6], uuid.NewString(), "", nil, e.clock.Now())
	require.NoError(t, err)
	require.NoError(t, e.guestRepo.Save(context.Background(), g))
	return g.ID()
}

func (e *testEnv) book(t *testing.T, roomID, date string, days int) *BookingDTO {
	t.Helper()
	dto, err := e.bookings.CreateBooking(context.Background(), CreateBookingRequest{
		RoomID:           roomID,
		GuestIDs:         []uuid.UUID{e.newGuest(t)},
		TotalAmountCents: int64(days) * 10000,
		BookingDate:      date,
		DurationDays:     days,
	})
	require.NoError(t, err)
	return dto
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := bookingDomain.ParseDate(s)
	require.NoError(t, err)
	return d
}
