// Package memstore keeps every collection in process memory. It enforces the
// same unique keys as the MongoDB store and backs tests and STORE_BACKEND=memory.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"careops/backend/internal/models"
	"careops/backend/internal/store"
)

// table holds rows in insertion order.
type table[T any] struct {
	rows  map[string]T
	order []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) del(id string) {
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

func paginate[T any](in []T, p store.Page) []T {
	if p.Skip >= len(in) {
		return []T{}
	}
	in = in[p.Skip:]
	if p.Limit > 0 && p.Limit < len(in) {
		in = in[:p.Limit]
	}
	return in
}

// DB is the shared state behind every memstore collection.
type DB struct {
	mu        sync.RWMutex
	contacts  *table[models.Contact]
	bookings  *table[models.Booking]
	inventory *table[models.InventoryItem]
	alerts    *table[models.Alert]
	messages  *table[models.Message]
	users     *table[models.User]
}

func NewDB() *DB {
	return &DB{
		contacts:  newTable[models.Contact](),
		bookings:  newTable[models.Booking](),
		inventory: newTable[models.InventoryItem](),
		alerts:    newTable[models.Alert](),
		messages:  newTable[models.Message](),
		users:     newTable[models.User](),
	}
}

// New returns a Store whose collections share one in-memory DB.
func New() *store.Store {
	db := NewDB()
	return &store.Store{
		Contacts:  &contactStore{db},
		Bookings:  &bookingStore{db},
		Inventory: &inventoryStore{db},
		Alerts:    &alertStore{db},
		Messages:  &messageStore{db},
		Users:     &userStore{db},
	}
}

// --- contacts ---

type contactStore struct{ db *DB }

func (s *contactStore) Insert(ctx context.Context, c *models.Contact) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c.GenIDIfEmpty()
	if _, ok := s.db.contacts.rows[c.ID]; ok {
		return store.ErrDuplicate
	}
	s.db.contacts.put(c.ID, *c)
	return nil
}

func (s *contactStore) Get(ctx context.Context, id string) (*models.Contact, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	c, ok := s.db.contacts.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *contactStore) List(ctx context.Context, page store.Page) ([]models.Contact, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return paginate(s.db.contacts.all(), page), nil
}

func (s *contactStore) Replace(ctx context.Context, c *models.Contact) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.contacts.rows[c.ID]; !ok {
		return store.ErrNotFound
	}
	s.db.contacts.put(c.ID, *c)
	return nil
}

func (s *contactStore) Delete(ctx context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.contacts.rows[id]; !ok {
		return store.ErrNotFound
	}
	s.db.contacts.del(id)
	return nil
}

func (s *contactStore) Count(ctx context.Context, createdSince *time.Time) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, c := range s.db.contacts.rows {
		if createdSince == nil || !c.CreatedAt.Before(*createdSince) {
			n++
		}
	}
	return n, nil
}

// --- bookings ---

type bookingStore struct{ db *DB }

func matchBooking(b models.Booking, f store.BookingFilter) bool {
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if b.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.StartFrom != nil && b.StartTime.Before(*f.StartFrom) {
		return false
	}
	if f.StartBefore != nil && !b.StartTime.Before(*f.StartBefore) {
		return false
	}
	return true
}

func (s *bookingStore) Insert(ctx context.Context, b *models.Booking) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	b.GenIDIfEmpty()
	if _, ok := s.db.bookings.rows[b.ID]; ok {
		return store.ErrDuplicate
	}
	s.db.bookings.put(b.ID, *b)
	return nil
}

func (s *bookingStore) Get(ctx context.Context, id string) (*models.Booking, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	b, ok := s.db.bookings.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (s *bookingStore) List(ctx context.Context, f store.BookingFilter) ([]models.Booking, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := []models.Booking{}
	for _, b := range s.db.bookings.all() {
		if matchBooking(b, f) {
			out = append(out, b)
		}
	}
	return paginate(out, f.Page), nil
}

func (s *bookingStore) Replace(ctx context.Context, b *models.Booking) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.bookings.rows[b.ID]; !ok {
		return store.ErrNotFound
	}
	s.db.bookings.put(b.ID, *b)
	return nil
}

func (s *bookingStore) DeleteByContact(ctx context.Context, contactID string) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for _, b := range s.db.bookings.all() {
		if b.ContactID == contactID {
			s.db.bookings.del(b.ID)
			n++
		}
	}
	return n, nil
}

func (s *bookingStore) Count(ctx context.Context, f store.BookingFilter) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, b := range s.db.bookings.rows {
		if matchBooking(b, f) {
			n++
		}
	}
	return n, nil
}

// --- inventory ---

type inventoryStore struct{ db *DB }

func (s *inventoryStore) nameTaken(name, exceptID string) bool {
	for id, it := range s.db.inventory.rows {
		if id != exceptID && it.ItemName == name {
			return true
		}
	}
	return false
}

func (s *inventoryStore) Insert(ctx context.Context, item *models.InventoryItem) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	item.GenIDIfEmpty()
	if _, ok := s.db.inventory.rows[item.ID]; ok || s.nameTaken(item.ItemName, "") {
		return store.ErrDuplicate
	}
	s.db.inventory.put(item.ID, *item)
	return nil
}

func (s *inventoryStore) Get(ctx context.Context, id string) (*models.InventoryItem, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	it, ok := s.db.inventory.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &it, nil
}

func (s *inventoryStore) List(ctx context.Context, page store.Page) ([]models.InventoryItem, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return paginate(s.db.inventory.all(), page), nil
}

func (s *inventoryStore) ListLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := []models.InventoryItem{}
	for _, it := range s.db.inventory.all() {
		if it.IsLowStock() {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *inventoryStore) Replace(ctx context.Context, item *models.InventoryItem) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.inventory.rows[item.ID]; !ok {
		return store.ErrNotFound
	}
	if s.nameTaken(item.ItemName, item.ID) {
		return store.ErrDuplicate
	}
	s.db.inventory.put(item.ID, *item)
	return nil
}

func (s *inventoryStore) Count(ctx context.Context, lowStockOnly bool) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, it := range s.db.inventory.rows {
		if !lowStockOnly || it.IsLowStock() {
			n++
		}
	}
	return n, nil
}

// --- alerts ---

type alertStore struct{ db *DB }

func matchAlert(a models.Alert, f store.AlertFilter) bool {
	if !f.IncludeDismissed && a.IsDismissed {
		return false
	}
	if f.Type != nil && a.Type != *f.Type {
		return false
	}
	if f.Severity != nil && a.Severity != *f.Severity {
		return false
	}
	return true
}

func (s *alertStore) findActive(key models.AlertKey) (models.Alert, bool) {
	for _, a := range s.db.alerts.rows {
		if a.IsDismissed {
			continue
		}
		if k, ok := a.Key(); ok && k == key {
			return a, true
		}
	}
	return models.Alert{}, false
}

func (s *alertStore) Insert(ctx context.Context, a *models.Alert) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a.GenIDIfEmpty()
	if _, ok := s.db.alerts.rows[a.ID]; ok {
		return store.ErrDuplicate
	}
	if key, ok := a.Key(); ok && !a.IsDismissed {
		if _, exists := s.findActive(key); exists {
			return store.ErrDuplicate
		}
	}
	s.db.alerts.put(a.ID, *a)
	return nil
}

func (s *alertStore) Get(ctx context.Context, id string) (*models.Alert, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	a, ok := s.db.alerts.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *alertStore) FindActive(ctx context.Context, key models.AlertKey) (*models.Alert, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	a, ok := s.findActive(key)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *alertStore) List(ctx context.Context, f store.AlertFilter) ([]models.Alert, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := []models.Alert{}
	for _, a := range s.db.alerts.all() {
		if matchAlert(a, f) {
			out = append(out, a)
		}
	}
	// newest first; insertion order breaks ties
	reverse(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Page), nil
}

func (s *alertStore) Count(ctx context.Context, f store.AlertFilter) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, a := range s.db.alerts.rows {
		if matchAlert(a, f) {
			n++
		}
	}
	return n, nil
}

func (s *alertStore) Dismiss(ctx context.Context, id string, at time.Time) (*models.Alert, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.alerts.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !a.IsDismissed {
		a.IsDismissed = true
		a.DismissedAt = &at
		s.db.alerts.put(id, a)
	}
	return &a, nil
}

// --- messages ---

type messageStore struct{ db *DB }

func matchMessage(m models.Message, f store.MessageFilter) bool {
	if f.ContactID != nil && m.ContactID != *f.ContactID {
		return false
	}
	if f.Direction != nil && m.Direction != *f.Direction {
		return false
	}
	return true
}

func (s *messageStore) Insert(ctx context.Context, m *models.Message) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m.GenIDIfEmpty()
	if _, ok := s.db.messages.rows[m.ID]; ok {
		return store.ErrDuplicate
	}
	s.db.messages.put(m.ID, *m)
	return nil
}

func (s *messageStore) Replace(ctx context.Context, m *models.Message) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.messages.rows[m.ID]; !ok {
		return store.ErrNotFound
	}
	s.db.messages.put(m.ID, *m)
	return nil
}

func (s *messageStore) Get(ctx context.Context, id string) (*models.Message, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	m, ok := s.db.messages.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (s *messageStore) List(ctx context.Context, f store.MessageFilter) ([]models.Message, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := []models.Message{}
	for _, m := range s.db.messages.all() {
		if matchMessage(m, f) {
			out = append(out, m)
		}
	}
	reverse(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Page), nil
}

func (s *messageStore) Count(ctx context.Context, f store.MessageFilter) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, m := range s.db.messages.rows {
		if matchMessage(m, f) {
			n++
		}
	}
	return n, nil
}

func (s *messageStore) DeleteByContact(ctx context.Context, contactID string) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for _, m := range s.db.messages.all() {
		if m.ContactID == contactID {
			s.db.messages.del(m.ID)
			n++
		}
	}
	return n, nil
}

func (s *messageStore) hasStaffReply(contactID string) bool {
	for _, m := range s.db.messages.rows {
		if m.ContactID == contactID && m.Direction == models.DirectionOutgoing && m.StaffID != nil {
			return true
		}
	}
	return false
}

func (s *messageStore) HasStaffReply(ctx context.Context, contactID string) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.hasStaffReply(contactID), nil
}

func (s *messageStore) CountUnanswered(ctx context.Context) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	replied := map[string]bool{}
	var n int64
	for _, m := range s.db.messages.rows {
		if m.Direction != models.DirectionIncoming {
			continue
		}
		r, seen := replied[m.ContactID]
		if !seen {
			r = s.hasStaffReply(m.ContactID)
			replied[m.ContactID] = r
		}
		if !r {
			n++
		}
	}
	return n, nil
}

func (s *messageStore) Conversations(ctx context.Context, page store.Page) ([]models.ConversationSummary, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	byContact := map[string]*models.ConversationSummary{}
	var order []string
	for _, m := range s.db.messages.all() {
		cs, ok := byContact[m.ContactID]
		if !ok {
			cs = &models.ConversationSummary{ContactID: m.ContactID}
			byContact[m.ContactID] = cs
			order = append(order, m.ContactID)
		}
		cs.MessageCount++
		if cs.MessageCount == 1 || !m.CreatedAt.Before(cs.LastMessage.CreatedAt) {
			cs.LastMessage = m
		}
	}
	out := make([]models.ConversationSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byContact[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessage.CreatedAt.After(out[j].LastMessage.CreatedAt)
	})
	return paginate(out, page), nil
}

// --- users ---

type userStore struct{ db *DB }

func (s *userStore) Insert(ctx context.Context, u *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u.GenIDIfEmpty()
	for _, other := range s.db.users.rows {
		if other.ID == u.ID || strings.EqualFold(other.Email, u.Email) {
			return store.ErrDuplicate
		}
	}
	s.db.users.put(u.ID, *u)
	return nil
}

func (s *userStore) Get(ctx context.Context, id string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	u, ok := s.db.users.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, u := range s.db.users.rows {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
