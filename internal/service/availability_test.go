package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/schedule"
)

func TestAvailabilityEmptyDayOffersFullCatalog(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	got, err := f.svc.Availability(context.Background(), "loc-2", testDate, 2, "")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(got) != 1 || got[0].Table.ID != "t-9" {
		t.Fatalf("expected only table t-9, got %+v", got)
	}
	if want := schedule.DefaultCatalog().Generate(); !reflect.DeepEqual(got[0].Slots, want) {
		t.Fatalf("slots = %v, want %v", got[0].Slots, want)
	}
}

func TestAvailabilityFiltersByCapacity(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	got, err := f.svc.Availability(context.Background(), "loc-1", testDate, 5, "")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(got) != 1 || got[0].Table.ID != "t-2" {
		t.Fatalf("expected only the 6 seat table, got %+v", got)
	}
}

func TestAvailabilityRemovesBookedSlots(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "12:15", "13:45", 2)})

	got, err := f.svc.Availability(context.Background(), "loc-1", testDate, 2, "")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	for _, ta := range got {
		for _, s := range ta.Slots {
			if ta.Table.ID == "t-1" && s.Start == model.MustTimeOfDay("12:15") {
				t.Fatalf("booked slot still offered on t-1")
			}
		}
		if ta.Table.ID == "t-1" && len(ta.Slots) != 6 {
			t.Fatalf("t-1 should have 6 free slots, got %d", len(ta.Slots))
		}
		if ta.Table.ID == "t-2" && len(ta.Slots) != 7 {
			t.Fatalf("t-2 should be untouched, got %d slots", len(ta.Slots))
		}
	}
}

func TestAvailabilityOmitsFullyBookedTable(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	for _, s := range schedule.DefaultCatalog().Generate() {
		f.mustBook(t, waiterOther, StaffRequest{
			BookingDetails: BookingDetails{LocationID: "loc-2", TableID: "t-9", Date: testDate,
				TimeFrom: s.Start.String(), TimeTo: s.End.String(), GuestsNumber: 2},
			ClientType: model.ClientVisitor,
		})
	}
	got, err := f.svc.Availability(context.Background(), "loc-2", testDate, 2, "")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("fully booked table should be omitted, got %+v", got)
	}
}

func TestAvailabilityCancelledReservationFreesSlot(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	r := f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "17:30", "19:00", 2)})

	before, _ := f.svc.Availability(ctx, "loc-1", testDate, 4, "17:45")
	for _, ta := range before {
		if ta.Table.ID == "t-1" {
			t.Fatalf("t-1 should not offer 17:30 while booked")
		}
	}
	if _, err := f.svc.Cancel(ctx, customerAnna, r.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	after, _ := f.svc.Availability(ctx, "loc-1", testDate, 4, "17:45")
	found := false
	for _, ta := range after {
		if ta.Table.ID == "t-1" && len(ta.Slots) == 1 && ta.Slots[0].Start == model.MustTimeOfDay("17:30") {
			found = true
		}
	}
	if !found {
		t.Fatalf("cancelled slot not returned: %+v", after)
	}
}

func TestNarrowToRequested(t *testing.T) {
	grid := schedule.DefaultCatalog().Generate()
	tests := []struct {
		at   string
		want string
	}{
		{"11:00", "10:30"}, // contained
		{"12:05", "12:15"}, // gap, next start within tolerance
		{"13:50", "14:00"},
		{"10:20", "10:30"}, // before opening, within tolerance
		{"09:00", ""},      // too early
		{"23:00", ""},      // too late
	}
	for _, tt := range tests {
		got := NarrowToRequested(grid, model.MustTimeOfDay(tt.at))
		switch {
		case tt.want == "" && len(got) != 0:
			t.Errorf("%s: expected no slot, got %v", tt.at, got)
		case tt.want != "" && (len(got) != 1 || got[0].Start.String() != tt.want):
			t.Errorf("%s: got %v, want start %s", tt.at, got, tt.want)
		}
	}
}

func TestFreeSlotsTouchingBookingStaysFree(t *testing.T) {
	grid := []model.TimeSlot{
		{Start: model.MustTimeOfDay("10:00"), End: model.MustTimeOfDay("11:00")},
		{Start: model.MustTimeOfDay("11:00"), End: model.MustTimeOfDay("12:00")},
	}
	booked := []model.TimeSlot{{Start: model.MustTimeOfDay("11:00"), End: model.MustTimeOfDay("12:00")}}
	got := FreeSlots(grid, booked, schedule.HalfOpen)
	if len(got) != 1 || got[0] != grid[0] {
		t.Fatalf("FreeSlots = %v", got)
	}
	if got := FreeSlots(grid, booked, schedule.Inclusive); len(got) != 0 {
		t.Fatalf("inclusive FreeSlots = %v, want none", got)
	}
}

func TestAvailabilityGaplessGridOffersOnlyBookableSlots(t *testing.T) {
	cat := schedule.Catalog{
		Open:     model.MustTimeOfDay("10:30"),
		Close:    model.MustTimeOfDay("16:30"),
		Duration: 90 * time.Minute,
	}
	for _, rule := range []schedule.BoundaryRule{schedule.Inclusive, schedule.HalfOpen} {
		f := newFixtureWithCatalog(t, rule, cat)
		ctx := context.Background()
		f.mustBook(t, customerAnna, CustomerRequest{booking("t-1", testDate, "10:30", "12:00", 2)})

		got, err := f.svc.Availability(ctx, "loc-1", testDate, 2, "")
		if err != nil {
			t.Fatalf("%s: Availability: %v", rule, err)
		}
		var t1 []model.TimeSlot
		for _, ta := range got {
			if ta.Table.ID == "t-1" {
				t1 = ta.Slots
			}
		}
		if len(t1) == 0 {
			t.Fatalf("%s: t-1 has no free slot", rule)
		}
		adjacentListed := t1[0].Start == model.MustTimeOfDay("12:00")
		if adjacentListed != (rule == schedule.HalfOpen) {
			t.Fatalf("%s: t-1 slots = %v", rule, t1)
		}
		first := t1[0]
		if _, err := f.svc.Upsert(ctx, customerBen, CustomerRequest{booking("t-1", testDate, first.Start.String(), first.End.String(), 2)}); err != nil {
			t.Fatalf("%s: listed slot %s is not bookable: %v", rule, first, err)
		}
	}
}

func TestAvailabilityErrors(t *testing.T) {
	f := newFixture(t, schedule.Inclusive)
	ctx := context.Background()
	_, err := f.svc.Availability(ctx, "loc-404", testDate, 2, "")
	wantKind(t, err, apperr.KindNotFound)
	_, err = f.svc.Availability(ctx, "loc-1", "2030-02-30", 2, "")
	wantKind(t, err, apperr.KindBadRequest)
	_, err = f.svc.Availability(ctx, "loc-1", testDate, 0, "")
	wantKind(t, err, apperr.KindBadRequest)
	_, err = f.svc.Availability(ctx, "loc-1", testDate, 2, "7pm")
	wantKind(t, err, apperr.KindBadRequest)
}
