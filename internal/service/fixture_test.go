package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository/memory"
	"github.com/iliyamo/table-reservation/internal/schedule"
)

const (
	testDate        = "2030-05-02"
	feedbackBaseURL = "https://tables.example.com/feedback"
)

var (
	customerAnna = Actor{UserID: "u-anna", Email: "anna@example.com", Role: model.RoleCustomer}
	customerBen  = Actor{UserID: "u-ben", Email: "ben@example.com", Role: model.RoleCustomer}
	waiterOne    = Actor{UserID: "w-1", Email: "w1@example.com", Role: model.RoleWaiter}
	waiterTwo    = Actor{UserID: "w-2", Email: "w2@example.com", Role: model.RoleWaiter}
	waiterOther  = Actor{UserID: "w-3", Email: "w3@example.com", Role: model.RoleWaiter}
	admin        = Actor{UserID: "a-1", Email: "admin@example.com", Role: model.RoleAdmin}
)

// spyOrders counts successful AddDish calls per dish while delegating to
// the store.  When failAt is set, the failAt-th call fails once.
type spyOrders struct {
	*memory.Store
	mu     sync.Mutex
	calls  map[string]int
	total  int
	failAt int
}

func (s *spyOrders) AddDish(ctx context.Context, reservationID, dishID string) error {
	s.mu.Lock()
	s.total++
	if s.failAt > 0 && s.total == s.failAt {
		s.failAt = 0
		s.mu.Unlock()
		return errors.New("order store unavailable")
	}
	s.calls[dishID]++
	s.mu.Unlock()
	return s.Store.AddDish(ctx, reservationID, dishID)
}

type publishedEvent struct {
	eventType string
	payload   any
}

type recordingSink struct {
	events []publishedEvent
	err    error
}

func (r *recordingSink) Publish(ctx context.Context, eventType string, payload any) error {
	r.events = append(r.events, publishedEvent{eventType, payload})
	return r.err
}

type stubTokens struct{}

func (stubTokens) MintFeedbackToken(reservationID string) (string, error) {
	return "fb-" + reservationID, nil
}

type stubQR struct{}

func (stubQR) Encode(url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("empty url")
	}
	return []byte("png:" + url), nil
}

type fixture struct {
	store  *memory.Store
	orders *spyOrders
	events *recordingSink
	svc    *ReservationService
	now    time.Time
}

// newFixture seeds two locations:
//
//	loc-1: tables t-1 (4 seats), t-2 (6 seats); waiters w-1, w-2
//	loc-2: table t-9 (4 seats); waiter w-3
//
// The clock starts at 2030-05-01 09:00 UTC.
func newFixture(t *testing.T, boundary schedule.BoundaryRule) *fixture {
	t.Helper()
	return newFixtureWithCatalog(t, boundary, schedule.DefaultCatalog())
}

func newFixtureWithCatalog(t *testing.T, boundary schedule.BoundaryRule, catalog schedule.Catalog) *fixture {
	t.Helper()
	st := memory.New()
	st.AddLocation(model.Location{ID: "loc-1", Address: "1 Harbour Street", Name: "Harbour"})
	st.AddLocation(model.Location{ID: "loc-2", Address: "9 Hill Road", Name: "Hill"})
	st.AddTable(model.Table{ID: "t-1", LocationID: "loc-1", TableNumber: "1", Capacity: 4})
	st.AddTable(model.Table{ID: "t-2", LocationID: "loc-1", TableNumber: "2", Capacity: 6})
	st.AddTable(model.Table{ID: "t-9", LocationID: "loc-2", TableNumber: "1", Capacity: 4})
	st.AddUser(model.User{ID: "u-anna", Email: "anna@example.com", FirstName: "Anna", LastName: "Berg", Role: model.RoleCustomer, IsActive: true})
	st.AddUser(model.User{ID: "u-ben", Email: "ben@example.com", FirstName: "Ben", Role: model.RoleCustomer, IsActive: true})
	st.AddUser(model.User{ID: "w-1", Email: "w1@example.com", FirstName: "Wanda", LastName: "One", Role: model.RoleWaiter, LocationID: "loc-1", IsActive: true})
	st.AddUser(model.User{ID: "w-2", Email: "w2@example.com", FirstName: "Walt", LastName: "Two", Role: model.RoleWaiter, LocationID: "loc-1", IsActive: true})
	st.AddUser(model.User{ID: "w-3", Email: "w3@example.com", FirstName: "Wes", Role: model.RoleWaiter, LocationID: "loc-2", IsActive: true})
	st.AddUser(model.User{ID: "a-1", Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true})

	f := &fixture{
		store:  st,
		orders: &spyOrders{Store: st, calls: make(map[string]int)},
		events: &recordingSink{},
		now:    time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	logger := log.New("test")
	logger.SetOutput(io.Discard)
	f.svc = NewReservationService(Deps{
		Reservations: st,
		Tables:       st,
		Locations:    st,
		Users:        st,
		PreOrders:    st,
		Orders:       f.orders,
		Feedback:     st,
		Tokens:       stubTokens{},
		Events:       f.events,
		QR:           stubQR{},
	}, Config{
		Catalog:         catalog,
		Boundary:        boundary,
		EditCutoff:      30 * time.Minute,
		FeedbackBaseURL: feedbackBaseURL,
	}, logger, WithClock(func() time.Time { return f.now }))
	return f
}

func booking(table, date, from, to string, guests int) BookingDetails {
	return BookingDetails{LocationID: "loc-1", TableID: table, Date: date, TimeFrom: from, TimeTo: to, GuestsNumber: guests}
}

func (f *fixture) mustBook(t *testing.T, actor Actor, req BookingRequest) *model.Reservation {
	t.Helper()
	r, err := f.svc.Upsert(context.Background(), actor, req)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return r
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}
