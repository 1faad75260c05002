package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/schedule"
)

func TestUpsertCustomerCreatesReservation(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 3)})

	if r.ID == "" || r.Version != 1 {
		t.Fatalf("expected new id and version 1, got %q v%d", r.ID, r.Version)
	}
	if r.Status != model.StatusReserved || r.ClientType != model.ClientCustomer {
		t.Fatalf("unexpected status/client: %s %s", r.Status, r.ClientType)
	}
	if r.UserEmail != "anna@example.com" || r.UserInfo != "Customer Anna Berg" {
		t.Fatalf("unexpected guest fields: %q %q", r.UserEmail, r.UserInfo)
	}
	if r.LocationAddress != "1 Harbour Street" || r.TableNumber != "1" || r.TableCapacity != 4 {
		t.Fatalf("table/location not denormalised: %+v", r)
	}
	if r.TimeSlot() != "12:15 - 13:45" {
		t.Fatalf("TimeSlot() = %q", r.TimeSlot())
	}
	if r.WaiterID == "" {
		t.Fatal("customer booking should get a waiter")
	}
}

func TestUpsertValidation(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	tests := []struct {
		name string
		d    BookingDetails
		kind apperr.Kind
	}{
		{"bad date", booking("t-1", "2030-13-01", "12:15", "13:45", 2), apperr.KindBadRequest},
		{"bad time", booking("t-1", testDate, "12.15", "13:45", 2), apperr.KindBadRequest},
		{"reversed times", booking("t-1", testDate, "13:45", "12:15", 2), apperr.KindBadRequest},
		{"zero guests", booking("t-1", testDate, "12:15", "13:45", 0), apperr.KindBadRequest},
		{"off grid", booking("t-1", testDate, "12:00", "13:30", 2), apperr.KindConflict},
		{"outside hours", booking("t-1", testDate, "23:00", "23:45", 2), apperr.KindConflict},
		{"in the past", booking("t-1", "2030-04-30", "12:15", "13:45", 2), apperr.KindConflict},
		{"unknown location", BookingDetails{LocationID: "loc-404", TableID: "t-1", Date: testDate, TimeFrom: "12:15", TimeTo: "13:45", GuestsNumber: 2}, apperr.KindNotFound},
		{"unknown table", booking("t-404", testDate, "12:15", "13:45", 2), apperr.KindNotFound},
		{"table at other location", booking("t-9", testDate, "12:15", "13:45", 2), apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Upsert(ctx, customerAnna, CustomerRequest{tt.d})
			wantKind(t, err, tt.kind)
		})
	}
}

func TestUpsertRejectsOverCapacity(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	_, err := f.svc.Upsert(context.Background(), customerAnna, CustomerRequest{booking("t-2", testDate, "12:15", "13:45", 8)})
	wantKind(t, err, apperr.KindConflict)
	for _, part := range []string{"t-2", "6", "8"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("message %q should mention %s", err.Error(), part)
		}
	}
}

func TestUpsertRejectsDoubleBooking(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 2)})

	_, err := f.svc.Upsert(ctx, customerBen, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 2)})
	wantKind(t, err, apperr.KindConflict)

	// Other tables and slots stay bookable.
	f.mustBook(t, customerBen, CustomerRequest{booking("t-2", testDate, "12:15", "13:45", 2)})
	f.mustBook(t, customerBen, CustomerRequest{booking("t-1", testDate, "14:00", "15:30", 2)})

	active, _ := f.store.ListByDateLocationTable(ctx, time.Date(2030, 5, 2, 0, 0, 0, 0, time.UTC), "loc-1", "t-1")
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			if schedule.Inclusive.Overlaps(active[i].Slot(), active[j].Slot()) {
				t.Fatalf("double booking: %s and %s", active[i].ID, active[j].ID)
			}
		}
	}
}

func TestUpsertAssignsLeastBusyWaiter(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	// Two bookings made by w-1 itself keep w-1 busy.
	for _, slot := range [][2]string{{"10:30", "12:00"}, {"12:15", "13:45"}} {
		f.mustBook(t, waiterOne, StaffRequest{BookingDetails: booking("t-2", testDate, slot[0], slot[1], 2), ClientType: model.ClientVisitor})
	}
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "17:30", "19:00", 2)})
	if r.WaiterID != "w-2" {
		t.Fatalf("expected least busy waiter w-2, got %s", r.WaiterID)
	}
}

func TestUpsertWaiterTieGoesToFirstWaiter(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "17:30", "19:00", 2)})
	if r.WaiterID != "w-1" {
		t.Fatalf("tie should go to w-1, got %s", r.WaiterID)
	}
}

func TestUpsertStaffBooking(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()

	visitor := f.mustBook(t, waiterTwo, StaffRequest{
		BookingDetails: booking("t-1", testDate, "19:15", "20:45", 2),
		ClientType:     model.ClientVisitor,
		VisitorName:    "Mia",
	})
	if visitor.WaiterID != "w-2" || visitor.ClientType != model.ClientVisitor || visitor.UserEmail != "" || visitor.UserInfo != "Visitor Mia" {
		t.Fatalf("unexpected visitor booking: %+v", visitor)
	}

	onBehalf := f.mustBook(t, waiterTwo, StaffRequest{
		BookingDetails: booking("t-2", testDate, "19:15", "20:45", 2),
		ClientType:     model.ClientCustomer,
		CustomerEmail:  "ben@example.com",
	})
	if onBehalf.UserEmail != "ben@example.com" || onBehalf.WaiterID != "w-2" {
		t.Fatalf("unexpected on-behalf booking: %+v", onBehalf)
	}

	_, err := f.svc.Upsert(ctx, waiterOther, StaffRequest{BookingDetails: booking("t-1", testDate, "10:30", "12:00", 2), ClientType: model.ClientVisitor})
	wantKind(t, err, apperr.KindUnauthorized)

	_, err = f.svc.Upsert(ctx, customerAnna, StaffRequest{BookingDetails: booking("t-1", testDate, "10:30", "12:00", 2), ClientType: model.ClientVisitor})
	wantKind(t, err, apperr.KindUnauthorized)

	_, err = f.svc.Upsert(ctx, waiterTwo, StaffRequest{BookingDetails: booking("t-1", testDate, "10:30", "12:00", 2), ClientType: model.ClientCustomer})
	wantKind(t, err, apperr.KindBadRequest)

	_, err = f.svc.Upsert(ctx, waiterTwo, StaffRequest{BookingDetails: booking("t-1", testDate, "10:30", "12:00", 2), ClientType: model.ClientCustomer, CustomerEmail: "ghost@example.com"})
	wantKind(t, err, apperr.KindNotFound)
}

func TestUpsertEditCutoff(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", "2030-05-01", "17:30", "19:00", 2)})

	edit := CustomerRequest{booking("t-1", "2030-05-01", "17:30", "19:00", 3)}
	edit.ID = r.ID

	f.now = time.Date(2030, 5, 1, 17, 20, 0, 0, time.UTC)
	_, err := f.svc.Upsert(ctx, customerAnna, edit)
	wantKind(t, err, apperr.KindConflict)

	f.now = time.Date(2030, 5, 1, 16, 50, 0, 0, time.UTC)
	updated, err := f.svc.Upsert(ctx, customerAnna, edit)
	if err != nil {
		t.Fatalf("edit 40 minutes ahead: %v", err)
	}
	if updated.ID != r.ID || updated.GuestsNumber != 3 || updated.Version != 2 {
		t.Fatalf("unexpected edit result: %+v", updated)
	}
}

func TestUpsertEditRules(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 2)})
	f.store.PutPreOrder(model.PreOrder{ID: "po-1", ReservationID: r.ID, Status: model.PreOrderSubmitted, Items: []model.PreOrderItem{
		{DishID: "soup", Quantity: 2, Status: model.ItemConfirmed},
		{DishID: "cake", Quantity: 5, Status: model.ItemCancelled},
		{DishID: "tea", Quantity: 1, Status: model.ItemConfirmed},
	}})

	edit := CustomerRequest{booking("t-1", testDate, "14:00", "15:30", 2)}
	edit.ID = r.ID

	_, err := f.svc.Upsert(ctx, customerBen, edit)
	wantKind(t, err, apperr.KindUnauthorized)

	moved, err := f.svc.Upsert(ctx, customerAnna, edit)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if moved.WaiterID != r.WaiterID {
		t.Fatalf("edit must keep waiter %s, got %s", r.WaiterID, moved.WaiterID)
	}
	if moved.PreOrderCount != 3 {
		t.Fatalf("PreOrderCount = %d, want 3", moved.PreOrderCount)
	}
	if moved.TimeSlot() != "14:00 - 15:30" {
		t.Fatalf("slot not moved: %s", moved.TimeSlot())
	}

	// The assigned waiter may edit as well.
	waiter := Actor{UserID: r.WaiterID, Role: model.RoleWaiter}
	again := StaffRequest{BookingDetails: booking("t-1", testDate, "14:00", "15:30", 4), ClientType: model.ClientCustomer, CustomerEmail: "anna@example.com"}
	again.ID = r.ID
	if _, err := f.svc.Upsert(ctx, waiter, again); err != nil {
		t.Fatalf("waiter edit: %v", err)
	}

	missing := CustomerRequest{booking("t-1", testDate, "14:00", "15:30", 2)}
	missing.ID = "nope"
	_, err = f.svc.Upsert(ctx, customerAnna, missing)
	wantKind(t, err, apperr.KindNotFound)
}

func TestUpsertEditOnlyWhileReserved(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 2)})
	if _, err := f.svc.StartService(ctx, Actor{UserID: r.WaiterID, Role: model.RoleWaiter}, r.ID); err != nil {
		t.Fatalf("StartService: %v", err)
	}
	edit := CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 3)}
	edit.ID = r.ID
	_, err := f.svc.Upsert(ctx, customerAnna, edit)
	wantKind(t, err, apperr.KindConflict)
}

func TestStartServiceMergesConfirmedPreOrderUnits(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 2)})
	f.store.PutPreOrder(model.PreOrder{ID: "po-1", ReservationID: r.ID, Status: model.PreOrderSubmitted, Items: []model.PreOrderItem{
		{DishID: "X", Quantity: 2, Status: model.ItemConfirmed},
		{DishID: "Y", Quantity: 1, Status: model.ItemCancelled},
	}})
	waiter := Actor{UserID: r.WaiterID, Role: model.RoleWaiter}

	started, err := f.svc.StartService(ctx, waiter, r.ID)
	if err != nil {
		t.Fatalf("StartService: %v", err)
	}
	if f.orders.calls["X"] != 2 || f.orders.calls["Y"] != 0 || len(f.orders.calls) != 1 {
		t.Fatalf("AddDish calls = %v, want X:2 only", f.orders.calls)
	}
	if started.Status != model.StatusInProgress || started.OrderCount != 2 {
		t.Fatalf("unexpected started reservation: status=%s orderCount=%d", started.Status, started.OrderCount)
	}

	_, err = f.svc.StartService(ctx, waiter, r.ID)
	wantKind(t, err, apperr.KindConflict)
}

func TestStartServiceRetryDoesNotDuplicateDishes(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 2)})
	f.store.PutPreOrder(model.PreOrder{ID: "po-1", ReservationID: r.ID, Status: model.PreOrderSubmitted, Items: []model.PreOrderItem{
		{DishID: "X", Quantity: 2, Status: model.ItemConfirmed},
		{DishID: "Y", Quantity: 1, Status: model.ItemConfirmed},
	}})
	waiter := Actor{UserID: r.WaiterID, Role: model.RoleWaiter}

	f.orders.failAt = 2
	_, err := f.svc.StartService(ctx, waiter, r.ID)
	wantKind(t, err, apperr.KindInternal)
	if got, _ := f.svc.Get(ctx, waiter, r.ID); got.Status != model.StatusReserved {
		t.Fatalf("failed start left status %s", got.Status)
	}

	started, err := f.svc.StartService(ctx, waiter, r.ID)
	if err != nil {
		t.Fatalf("retried StartService: %v", err)
	}
	order, err := f.store.GetOrderByReservation(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{"X": 2, "Y": 1}
	for _, l := range order.Lines {
		if l.Quantity != want[l.DishID] {
			t.Fatalf("order line %s has %d units, want %d", l.DishID, l.Quantity, want[l.DishID])
		}
	}
	if len(order.Lines) != 2 || started.OrderCount != 3 {
		t.Fatalf("order = %+v, orderCount = %d", order.Lines, started.OrderCount)
	}
}

func TestConcurrentCreatesBookSlotOnce(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	guests := []Actor{customerAnna, customerBen}

	const n = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		kinds    = make(map[apperr.Kind]int)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(actor Actor) {
			defer wg.Done()
			_, err := f.svc.Upsert(ctx, actor, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 2)})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
				return
			}
			kinds[apperr.KindOf(err)]++
		}(guests[i%len(guests)])
	}
	wg.Wait()

	if accepted != 1 || kinds[apperr.KindConflict] != n-1 {
		t.Fatalf("accepted=%d errors=%v, want 1 accepted and %d conflicts", accepted, kinds, n-1)
	}
	stored, err := f.store.ListByDateLocationTable(ctx, mustDate(t, testDate), "loc-1", "t-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored %d active reservations on t-1, want 1", len(stored))
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestStartServiceSkipsUnsubmittedPreOrder(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 2)})
	f.store.PutPreOrder(model.PreOrder{ID: "po-1", ReservationID: r.ID, Status: model.PreOrderDraft, Items: []model.PreOrderItem{
		{DishID: "X", Quantity: 2, Status: model.ItemConfirmed},
	}})
	started, err := f.svc.StartService(context.Background(), Actor{UserID: r.WaiterID, Role: model.RoleWaiter}, r.ID)
	if err != nil {
		t.Fatalf("StartService: %v", err)
	}
	if len(f.orders.calls) != 0 || started.OrderCount != 0 {
		t.Fatalf("draft pre-order must not be merged: calls=%v orderCount=%d", f.orders.calls, started.OrderCount)
	}
}

func TestStartServiceRequiresAssignedWaiter(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	r := f.mustBook(t, waiterOne, StaffRequest{BookingDetails: booking("t-1", testDate, "12:15", "13:45", 2), ClientType: model.ClientVisitor})

	_, err := f.svc.StartService(ctx, waiterTwo, r.ID)
	wantKind(t, err, apperr.KindUnauthorized)
	_, err = f.svc.StartService(ctx, waiterOne, "missing")
	wantKind(t, err, apperr.KindNotFound)
}

func TestCompleteVisitorIssuesFeedbackToken(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	r := f.mustBook(t, waiterOne, StaffRequest{BookingDetails: booking("t-1", testDate, "12:15", "13:45", 2), ClientType: model.ClientVisitor})
	f.store.SetDishPrice("X", 1250)
	f.store.PutPreOrder(model.PreOrder{ReservationID: r.ID, Status: model.PreOrderSubmitted, Items: []model.PreOrderItem{
		{DishID: "X", Quantity: 2, Status: model.ItemConfirmed},
	}})
	f.store.AddFeedback(model.Feedback{ReservationID: r.ID, Type: model.FeedbackService, Rate: 4})
	f.store.AddFeedback(model.Feedback{ReservationID: r.ID, Type: model.FeedbackService, Rate: 2})
	if _, err := f.svc.StartService(ctx, waiterOne, r.ID); err != nil {
		t.Fatalf("StartService: %v", err)
	}

	res, err := f.svc.Complete(ctx, waiterOne, r.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	token := res.Reservation.FeedbackToken
	if token == "" || !strings.Contains(res.FeedbackURL, token) || !strings.HasPrefix(res.FeedbackURL, feedbackBaseURL+"?token=") {
		t.Fatalf("feedback url %q does not carry stored token %q", res.FeedbackURL, token)
	}
	if len(res.QRCode) == 0 {
		t.Fatal("visitor completion must return a QR code")
	}
	if res.Reservation.Status != model.StatusFinished {
		t.Fatalf("status = %s", res.Reservation.Status)
	}

	if len(f.events.events) != 1 || f.events.events[0].eventType != EventReservationCompleted {
		t.Fatalf("expected one completion event, got %+v", f.events.events)
	}
	rep := f.events.events[0].payload.(model.ReservationReport)
	if rep.HoursWorked != 1.5 || rep.OrderRevenueCents != 2500 || rep.Waiter != "Wanda One" {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if rep.AvgServiceFeedback != 3 || rep.MinServiceFeedback != 2 || rep.AvgCuisineFeedback != 0 || rep.MinCuisineFeedback != 0 {
		t.Fatalf("unexpected feedback stats: %+v", rep)
	}

	_, err = f.svc.Complete(ctx, waiterOne, r.ID)
	wantKind(t, err, apperr.KindConflict)
}

func TestCompleteCustomerReturnsNoQR(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 2)})
	res, err := f.svc.Complete(context.Background(), admin, r.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.FeedbackURL != "" || len(res.QRCode) != 0 || res.Reservation.FeedbackToken != "" {
		t.Fatalf("customer completion should not issue feedback token: %+v", res)
	}
}

func TestCompletePublishFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	f.events.err = errors.New("broker down")
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 2)})
	res, err := f.svc.Complete(context.Background(), Actor{UserID: r.WaiterID, Role: model.RoleWaiter}, r.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Reservation.Status != model.StatusFinished {
		t.Fatalf("status = %s", res.Reservation.Status)
	}
}

func TestCompleteRules(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	r := f.mustBook(t, waiterOne, StaffRequest{BookingDetails: booking("t-1", testDate, "12:15", "13:45", 2), ClientType: model.ClientVisitor})

	_, err := f.svc.Complete(ctx, waiterTwo, r.ID)
	wantKind(t, err, apperr.KindUnauthorized)

	if _, err := f.svc.Cancel(ctx, waiterOne, r.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	_, err = f.svc.Complete(ctx, waiterOne, r.ID)
	wantKind(t, err, apperr.KindConflict)
}

func TestCancelAuthorization(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	book := func(slotFrom, slotTo string) *model.Reservation {
		return f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, slotFrom, slotTo, 2)})
	}

	r1 := book("10:30", "12:00")
	_, err := f.svc.Cancel(ctx, customerBen, r1.ID)
	wantKind(t, err, apperr.KindUnauthorized)
	_, err = f.svc.Cancel(ctx, waiterOther, r1.ID)
	wantKind(t, err, apperr.KindUnauthorized)
	cancelled, err := f.svc.Cancel(ctx, customerAnna, r1.ID)
	if err != nil || cancelled.Status != model.StatusCancelled {
		t.Fatalf("owner cancel: %v %+v", err, cancelled)
	}
	_, err = f.svc.Cancel(ctx, customerAnna, r1.ID)
	wantKind(t, err, apperr.KindConflict)

	// A waiter at the same location may cancel even when not assigned.
	r2 := book("12:15", "13:45")
	other := waiterOne
	if r2.WaiterID == "w-1" {
		other = waiterTwo
	}
	if _, err := f.svc.Cancel(ctx, other, r2.ID); err != nil {
		t.Fatalf("same-location waiter cancel: %v", err)
	}

	r3 := book("14:00", "15:30")
	if _, err := f.svc.Cancel(ctx, admin, r3.ID); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}

	// The freed slot can be booked again.
	f.mustBook(t, customerBen, CustomerRequest{booking("t-1", testDate, "10:30", "12:00", 2)})
}

func TestCancelRejectsStartedOrFinished(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	r := f.mustBook(t, waiterOne, StaffRequest{BookingDetails: booking("t-1", testDate, "12:15", "13:45", 2), ClientType: model.ClientVisitor})
	if _, err := f.svc.StartService(ctx, waiterOne, r.ID); err != nil {
		t.Fatalf("StartService: %v", err)
	}
	_, err := f.svc.Cancel(ctx, admin, r.ID)
	wantKind(t, err, apperr.KindConflict)

	if _, err := f.svc.Complete(ctx, waiterOne, r.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	_, err = f.svc.Cancel(ctx, admin, r.ID)
	wantKind(t, err, apperr.KindConflict)
}

func TestGetAndLists(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 2)})
	f.mustBook(t, customerAnna, CustomerRequest{booking("t-2", testDate, "10:30", "12:00", 2)})

	if got, err := f.svc.Get(ctx, customerAnna, r.ID); err != nil || got.ID != r.ID {
		t.Fatalf("Get own: %v", err)
	}
	_, err := f.svc.Get(ctx, customerBen, r.ID)
	wantKind(t, err, apperr.KindUnauthorized)
	_, err = f.svc.Get(ctx, customerAnna, "missing")
	wantKind(t, err, apperr.KindNotFound)

	mine, err := f.svc.ListForCustomer(ctx, customerAnna)
	if err != nil || len(mine) != 2 {
		t.Fatalf("ListForCustomer = %d, %v", len(mine), err)
	}
	if mine[0].TimeFrom > mine[1].TimeFrom {
		t.Fatal("ListForCustomer should be ordered by start time")
	}

	assigned, err := f.svc.ListForWaiter(ctx, Actor{UserID: r.WaiterID, Role: model.RoleWaiter}, testDate)
	if err != nil || len(assigned) == 0 {
		t.Fatalf("ListForWaiter = %v, %v", assigned, err)
	}
	_, err = f.svc.ListForWaiter(ctx, customerAnna, testDate)
	wantKind(t, err, apperr.KindUnauthorized)
}

func TestHalfOpenBoundaryAllowsTouchingBookings(t *testing.T) {
	f := newFixture(t, schedule.HalfOpen)
	f.svc.cfg.Catalog = schedule.Catalog{
		Open:     model.MustTimeOfDay("12:00"),
		Close:    model.MustTimeOfDay("16:00"),
		Duration: time.Hour,
	}
	f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:00", "13:00", 2)})
	f.mustBook(t, customerBen, CustomerRequest{booking("t-1", testDate, "13:00", "14:00", 2)})

	g := newFixture(t, schedule.Inclusive)
	g.svc.cfg.Catalog = f.svc.cfg.Catalog
	g.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:00", "13:00", 2)})
	_, err := g.svc.Upsert(context.Background(), customerBen, CustomerRequest{booking("t-1", testDate, "13:00", "14:00", 2)})
	wantKind(t, err, apperr.KindConflict)
}
