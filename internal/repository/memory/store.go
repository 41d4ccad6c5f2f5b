// Package memory is an in-process implementation of the repository contracts.
// It backs unit tests and STORE_DRIVER=memory local runs.  A single mutex
// guards every collection, so each method, including BookSlot, is atomic.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
	"github.com/iliyamo/qnova-vr-booking/internal/repository"
)

type tupleKey struct {
	date, time, service string
}

// Store holds all collections.  Use the Slots, Bookings, Contacts and
// Payments views to obtain the individual repository implementations.
type Store struct {
	mu       sync.Mutex
	slots    map[string]model.TimeSlot
	tuples   map[tupleKey]string
	bookings map[string]model.Booking
	contacts []model.ContactMessage
	payments map[string]model.PaymentTransaction
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		slots:    make(map[string]model.TimeSlot),
		tuples:   make(map[tupleKey]string),
		bookings: make(map[string]model.Booking),
		payments: make(map[string]model.PaymentTransaction),
	}
}

func (s *Store) Slots() *Slots       { return &Slots{s: s} }
func (s *Store) Bookings() *Bookings { return &Bookings{s: s} }
func (s *Store) Contacts() *Contacts { return &Contacts{s: s} }
func (s *Store) Payments() *Payments { return &Payments{s: s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

var (
	_ repository.SlotStore    = (*Slots)(nil)
	_ repository.BookingStore = (*Bookings)(nil)
	_ repository.SlotBooker   = (*Bookings)(nil)
	_ repository.ContactStore = (*Contacts)(nil)
	_ repository.PaymentStore = (*Payments)(nil)
)

// Slots implements repository.SlotStore.
type Slots struct{ s *Store }

func (v *Slots) InsertMany(_ context.Context, slots []model.TimeSlot) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var n int64
	for i := range slots {
		if v.s.insertSlotLocked(slots[i]) {
			n++
		}
	}
	return n, nil
}

func (v *Slots) Create(_ context.Context, slot *model.TimeSlot) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if !v.s.insertSlotLocked(*slot) {
		return repository.ErrDuplicate
	}
	return nil
}

func (v *Slots) GetByID(_ context.Context, id string) (*model.TimeSlot, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	slot, ok := v.s.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneSlot(slot)
	return &out, nil
}

func (v *Slots) ListByDate(_ context.Context, date string) ([]model.TimeSlot, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []model.TimeSlot
	for _, slot := range v.s.slots {
		if slot.Date == date {
			out = append(out, cloneSlot(slot))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ServiceType < out[j].ServiceType
	})
	return out, nil
}

func (v *Slots) ExistsForDate(_ context.Context, date string) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, slot := range v.s.slots {
		if slot.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (v *Slots) Update(_ context.Context, slot *model.TimeSlot, expect repository.SlotState) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cur, ok := v.s.slots[slot.ID]
	if !ok || cur.Status != expect.Status || !sameID(cur.BookingID, expect.BookingID) {
		return 0, nil
	}
	next := cloneSlot(*slot)
	cur.Status = next.Status
	cur.BookingID = next.BookingID
	cur.CustomerInfo = next.CustomerInfo
	cur.UpdatedAt = next.UpdatedAt
	v.s.slots[cur.ID] = cur
	return 1, nil
}

func (v *Slots) Delete(_ context.Context, id string) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	slot, ok := v.s.slots[id]
	if !ok {
		return 0, nil
	}
	delete(v.s.slots, id)
	delete(v.s.tuples, keyOf(slot))
	return 1, nil
}

func (v *Slots) ReleaseByBookingIDs(_ context.Context, ids []string, now time.Time) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	var n int64
	for id, slot := range v.s.slots {
		if slot.BookingID == nil || !set[*slot.BookingID] {
			continue
		}
		slot.Status = model.SlotAvailable
		slot.BookingID = nil
		slot.CustomerInfo = nil
		slot.UpdatedAt = now
		v.s.slots[id] = slot
		n++
	}
	return n, nil
}

// insertSlotLocked stores slot unless its tuple is taken.
func (s *Store) insertSlotLocked(slot model.TimeSlot) bool {
	k := keyOf(slot)
	if _, taken := s.tuples[k]; taken {
		return false
	}
	if _, taken := s.slots[slot.ID]; taken {
		return false
	}
	s.slots[slot.ID] = cloneSlot(slot)
	s.tuples[k] = slot.ID
	return true
}

// Bookings implements repository.BookingStore and repository.SlotBooker.
type Bookings struct{ s *Store }

func (v *Bookings) Create(_ context.Context, b *model.Booking) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, taken := v.s.bookings[b.ID]; taken {
		return repository.ErrDuplicate
	}
	v.s.bookings[b.ID] = *b
	return nil
}

// BookSlot performs the insert and the conditional transition under one
// lock acquisition.
func (v *Bookings) BookSlot(_ context.Context, slotID string, b *model.Booking, now time.Time) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	slot, ok := v.s.slots[slotID]
	if !ok || slot.Status != model.SlotAvailable {
		return repository.ErrSlotTaken
	}
	if _, taken := v.s.bookings[b.ID]; taken {
		return repository.ErrDuplicate
	}
	v.s.bookings[b.ID] = *b
	id := b.ID
	ci := b.Customer()
	slot.Status = model.SlotBooked
	slot.BookingID = &id
	slot.CustomerInfo = &ci
	slot.UpdatedAt = now
	v.s.slots[slotID] = slot
	return nil
}

func (v *Bookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	b, ok := v.s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (v *Bookings) ListByDate(_ context.Context, date string) ([]model.Booking, error) {
	return v.filter(func(b model.Booking) bool { return b.Date == date }, func(a, b model.Booking) bool {
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

func (v *Bookings) ListRecent(_ context.Context, limit int) ([]model.Booking, error) {
	out := v.filter(func(model.Booking) bool { return true }, func(a, b model.Booking) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (v *Bookings) ListByEmailDomain(_ context.Context, domain string) ([]model.Booking, error) {
	suffix := "@" + strings.ToLower(domain)
	return v.filter(func(b model.Booking) bool {
		return strings.HasSuffix(strings.ToLower(b.Email), suffix)
	}, func(a, b model.Booking) bool { return a.CreatedAt.Before(b.CreatedAt) }), nil
}

func (v *Bookings) UpdateStatus(_ context.Context, id, status string) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	b, ok := v.s.bookings[id]
	if !ok {
		return 0, nil
	}
	b.Status = status
	v.s.bookings[id] = b
	return 1, nil
}

func (v *Bookings) DeleteMany(_ context.Context, ids []string) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := v.s.bookings[id]; ok {
			delete(v.s.bookings, id)
			n++
		}
	}
	return n, nil
}

func (v *Bookings) filter(keep func(model.Booking) bool, less func(a, b model.Booking) bool) []model.Booking {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []model.Booking{}
	for _, b := range v.s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Contacts implements repository.ContactStore.
type Contacts struct{ s *Store }

func (v *Contacts) Create(_ context.Context, m *model.ContactMessage) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.contacts = append(v.s.contacts, *m)
	return nil
}

func (v *Contacts) ListRecent(_ context.Context, limit int) ([]model.ContactMessage, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make([]model.ContactMessage, len(v.s.contacts))
	copy(out, v.s.contacts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Payments implements repository.PaymentStore.
type Payments struct{ s *Store }

func (v *Payments) Create(_ context.Context, p *model.PaymentTransaction) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, taken := v.s.payments[p.SessionID]; taken {
		return repository.ErrDuplicate
	}
	v.s.payments[p.SessionID] = *p
	return nil
}

func (v *Payments) GetBySessionID(_ context.Context, sessionID string) (*model.PaymentTransaction, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.payments[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (v *Payments) UpdateStatus(_ context.Context, sessionID, status, paymentStatus string, now time.Time) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.payments[sessionID]
	if !ok {
		return 0, nil
	}
	p.Status = status
	p.PaymentStatus = paymentStatus
	p.UpdatedAt = now
	v.s.payments[sessionID] = p
	return 1, nil
}

// keyOf folds the service name the way the case-insensitive MySQL
// collation of uq_time_slots_tuple does.
func keyOf(slot model.TimeSlot) tupleKey {
	return tupleKey{date: slot.Date, time: slot.Time, service: strings.ToLower(slot.ServiceType)}
}

// cloneSlot copies the pointer fields so callers never share state with
// the store.
func cloneSlot(slot model.TimeSlot) model.TimeSlot {
	if slot.BookingID != nil {
		id := *slot.BookingID
		slot.BookingID = &id
	}
	if slot.CustomerInfo != nil {
		ci := *slot.CustomerInfo
		slot.CustomerInfo = &ci
	}
	return slot
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
