// Package memory is a map-backed implementation of every store the
// reservation service and the auth handlers depend on.  It is used by the
// tests and by the server when STORE=memory.  All methods are safe for
// concurrent use and return copies so callers cannot mutate stored state.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/utils"
)

// Store holds all entities in memory.
type Store struct {
	mu           sync.RWMutex
	reservations map[string]model.Reservation
	locations    map[string]model.Location
	tables       map[string]model.Table
	users        map[string]model.User
	preOrders    map[string]model.PreOrder // by reservation id
	orders       map[string]model.Order    // by reservation id
	dishPrices   map[string]int64
	feedback     []model.Feedback
	refresh      []model.RefreshToken
	nextTokenID  uint64
	now          func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		reservations: make(map[string]model.Reservation),
		locations:    make(map[string]model.Location),
		tables:       make(map[string]model.Table),
		users:        make(map[string]model.User),
		preOrders:    make(map[string]model.PreOrder),
		orders:       make(map[string]model.Order),
		dishPrices:   make(map[string]int64),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ---- seeding ----

// AddLocation inserts or replaces a location.
func (s *Store) AddLocation(l model.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[l.ID] = l
}

// AddTable inserts or replaces a table.
func (s *Store) AddTable(t model.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.ID] = t
}

// AddUser inserts or replaces a user.  Emails are stored lower-cased.
func (s *Store) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	s.users[u.ID] = u
}

// PutPreOrder stores the pre-order for its reservation.
func (s *Store) PutPreOrder(p model.PreOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Items = append([]model.PreOrderItem(nil), p.Items...)
	s.preOrders[p.ReservationID] = p
}

// SetDishPrice sets the unit price used when AddDish creates a line.
func (s *Store) SetDishPrice(dishID string, cents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dishPrices[dishID] = cents
}

// AddFeedback appends a feedback row.
func (s *Store) AddFeedback(f model.Feedback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	s.feedback = append(s.feedback, f)
}

// ---- reservations ----

func (s *Store) Upsert(ctx context.Context, r *model.Reservation) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(r)
}

// SaveIfFree runs check against the active reservations sharing r's date,
// location and table and writes r only if check passes.  Both happen under
// the store lock, so two bookers of the same slot cannot both succeed.
func (s *Store) SaveIfFree(ctx context.Context, r *model.Reservation, check func(sameTable []model.Reservation) error) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sameTable []model.Reservation
	for _, cur := range s.reservations {
		if cur.Status.Active() && sameDay(cur.Date, r.Date) && cur.LocationID == r.LocationID && cur.TableID == r.TableID {
			sameTable = append(sameTable, cur)
		}
	}
	sortReservations(sameTable)
	if err := check(sameTable); err != nil {
		return nil, err
	}
	return s.upsertLocked(r)
}

func (s *Store) upsertLocked(r *model.Reservation) (*model.Reservation, error) {
	cur, ok := s.reservations[r.ID]
	switch {
	case r.Version == 0 && ok:
		return nil, repository.ErrVersionConflict
	case r.Version != 0 && !ok:
		return nil, repository.ErrNotFound
	case ok && cur.Version != r.Version:
		return nil, repository.ErrVersionConflict
	}
	saved := *r
	saved.Version = r.Version + 1
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = s.now()
	}
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = s.now()
	}
	s.reservations[saved.ID] = saved
	out := saved
	return &out, nil
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.reservations[id]
	return ok, nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *Store) Cancel(ctx context.Context, id string, version int) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if cur.Version != version {
		return nil, repository.ErrVersionConflict
	}
	cur.Status = model.StatusCancelled
	cur.Version++
	cur.UpdatedAt = s.now()
	s.reservations[id] = cur
	out := cur
	return &out, nil
}

func (s *Store) ListByDateAndLocation(ctx context.Context, date time.Time, locationID string) ([]model.Reservation, error) {
	return s.filterReservations(func(r *model.Reservation) bool {
		return r.Status.Active() && sameDay(r.Date, date) && r.LocationID == locationID
	}), nil
}

func (s *Store) ListByDateLocationTable(ctx context.Context, date time.Time, locationID, tableID string) ([]model.Reservation, error) {
	return s.filterReservations(func(r *model.Reservation) bool {
		return r.Status.Active() && sameDay(r.Date, date) && r.LocationID == locationID && r.TableID == tableID
	}), nil
}

func (s *Store) CountForWaiterOnDate(ctx context.Context, waiterID string, date time.Time) (int, error) {
	return len(s.filterReservations(func(r *model.Reservation) bool {
		return r.Status.Active() && r.WaiterID == waiterID && sameDay(r.Date, date)
	})), nil
}

func (s *Store) ListByEmail(ctx context.Context, email string) ([]model.Reservation, error) {
	return s.filterReservations(func(r *model.Reservation) bool {
		return r.UserEmail != "" && strings.EqualFold(r.UserEmail, email)
	}), nil
}

func (s *Store) ListByWaiterOnDate(ctx context.Context, waiterID string, date time.Time) ([]model.Reservation, error) {
	return s.filterReservations(func(r *model.Reservation) bool {
		return r.WaiterID == waiterID && sameDay(r.Date, date)
	}), nil
}

// filterReservations returns matches ordered by date, start time and id.
func (s *Store) filterReservations(keep func(*model.Reservation) bool) []model.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if keep(&r) {
			out = append(out, r)
		}
	}
	sortReservations(out)
	return out
}

// sortReservations orders by date, start time and id.
func sortReservations(out []model.Reservation) {
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.TimeFrom != b.TimeFrom {
			return a.TimeFrom < b.TimeFrom
		}
		return a.ID < b.ID
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ---- locations & tables ----

func (s *Store) GetLocation(ctx context.Context, id string) (*model.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.locations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (s *Store) GetTable(ctx context.Context, id string) (*model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

// ListTablesByLocation returns tables ordered by table number then id.
func (s *Store) ListTablesByLocation(ctx context.Context, locationID string) ([]model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Table
	for _, t := range s.tables {
		if t.LocationID == locationID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TableNumber != out[j].TableNumber {
			return out[i].TableNumber < out[j].TableNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ---- users ----

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Create hashes password and inserts u, mirroring repository.UserRepo.Create.
func (s *Store) Create(ctx context.Context, u *model.User, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	u.PasswordHash = hash
	u.IsActive = true
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *Store) ListWaitersByLocation(ctx context.Context, locationID string) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.User
	for _, u := range s.users {
		if u.Role == model.RoleWaiter && u.LocationID == locationID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- pre-orders, orders, feedback ----

func (s *Store) GetPreOrderByReservation(ctx context.Context, reservationID string) (*model.PreOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.preOrders[reservationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.Items = append([]model.PreOrderItem(nil), p.Items...)
	return &p, nil
}

func (s *Store) GetOrderByReservation(ctx context.Context, reservationID string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[reservationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o.Lines = append([]model.OrderLine(nil), o.Lines...)
	return &o, nil
}

func (s *Store) AddDish(ctx context.Context, reservationID, dishID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[reservationID]
	if !ok {
		o = model.Order{ID: uuid.NewString(), ReservationID: reservationID}
	}
	found := false
	for i := range o.Lines {
		if o.Lines[i].DishID == dishID {
			o.Lines[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		o.Lines = append(o.Lines, model.OrderLine{DishID: dishID, Quantity: 1, PriceCents: s.dishPrices[dishID]})
	}
	s.orders[reservationID] = o
	return nil
}

func (s *Store) ListFeedback(ctx context.Context, reservationID string, typ model.FeedbackType) ([]model.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Feedback
	for _, f := range s.feedback {
		if f.ReservationID == reservationID && f.Type == typ {
			out = append(out, f)
		}
	}
	return out, nil
}

// ---- refresh tokens ----

func (s *Store) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTokenID++
	s.refresh = append(s.refresh, model.RefreshToken{
		ID: s.nextTokenID, UserID: userID, TokenHash: tokenHash, ExpiresAt: exp, CreatedAt: s.now(),
	})
	return nil
}

func (s *Store) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.refresh {
		if t.TokenHash != tokenHash {
			continue
		}
		if t.RevokedAt != nil || s.now().After(t.ExpiresAt) {
			return "", repository.ErrNotFound
		}
		return t.UserID, nil
	}
	return "", repository.ErrNotFound
}

func (s *Store) RevokeByHash(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for i := range s.refresh {
		if s.refresh[i].TokenHash == tokenHash && s.refresh[i].RevokedAt == nil {
			s.refresh[i].RevokedAt = &now
		}
	}
	return nil
}

func (s *Store) RevokeAllForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for i := range s.refresh {
		if s.refresh[i].UserID == userID && s.refresh[i].RevokedAt == nil {
			s.refresh[i].RevokedAt = &now
		}
	}
	return nil
}
