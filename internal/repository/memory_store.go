package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

// MemoryStore keeps everything in process. Transactions are serialized and
// rolled back by restoring a snapshot, which gives the same per-ticket
// read-then-write atomicity as the Postgres store. Writes made outside a
// transaction wait for the running one, so a rollback never discards them.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data memoryData
}

type memoryData struct {
	tickets   map[string]domain.Ticket
	customers map[string]domain.Customer
	notes     map[string][]domain.Note
	history   map[string][]domain.StatusHistory
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: memoryData{
		tickets:   map[string]domain.Ticket{},
		customers: map[string]domain.Customer{},
		notes:     map[string][]domain.Note{},
		history:   map[string][]domain.StatusHistory{},
	}}
}

func (d memoryData) clone() memoryData {
	cp := memoryData{
		tickets:   make(map[string]domain.Ticket, len(d.tickets)),
		customers: make(map[string]domain.Customer, len(d.customers)),
		notes:     make(map[string][]domain.Note, len(d.notes)),
		history:   make(map[string][]domain.StatusHistory, len(d.history)),
	}
	for k, v := range d.tickets {
		cp.tickets[k] = *v.Clone()
	}
	for k, v := range d.customers {
		cp.customers[k] = v
	}
	for k, v := range d.notes {
		cp.notes[k] = append([]domain.Note(nil), v...)
	}
	for k, v := range d.history {
		cp.history[k] = append([]domain.StatusHistory(nil), v...)
	}
	return cp
}

// Repos implements Store.
func (s *MemoryStore) Repos() Repositories {
	return s.repos(false)
}

func (s *MemoryStore) repos(inTx bool) Repositories {
	return Repositories{
		Tickets:   &memoryTickets{s: s, inTx: inTx},
		Customers: &memoryCustomers{s: s, inTx: inTx},
		Notes:     &memoryNotes{s: s, inTx: inTx},
		History:   &memoryHistory{s: s, inTx: inTx},
	}
}

// lockWrite takes the data lock for a write and returns its release.
func (s *MemoryStore) lockWrite(inTx bool) func() {
	if !inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !inTx {
			s.txMu.Unlock()
		}
	}
}

// WithinTx implements Store.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, s.repos(true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

type memoryTickets struct {
	s    *MemoryStore
	inTx bool
}

func (r *memoryTickets) Create(_ context.Context, t *domain.Ticket) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	defer r.s.lockWrite(r.inTx)()
	r.s.data.tickets[t.ID] = *t.Clone()
	return nil
}

func (r *memoryTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.data.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (r *memoryTickets) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryTickets) Update(_ context.Context, t *domain.Ticket) error {
	defer r.s.lockWrite(r.inTx)()
	if _, ok := r.s.data.tickets[t.ID]; !ok {
		return ErrNotFound
	}
	r.s.data.tickets[t.ID] = *t.Clone()
	return nil
}

func (r *memoryTickets) UpdateSLAStatus(_ context.Context, id string, status domain.SLAStatus) error {
	defer r.s.lockWrite(r.inTx)()
	t, ok := r.s.data.tickets[id]
	if !ok {
		return ErrNotFound
	}
	t.SLAStatus = status
	r.s.data.tickets[id] = t
	return nil
}

func (r *memoryTickets) Delete(_ context.Context, id string) error {
	defer r.s.lockWrite(r.inTx)()
	if _, ok := r.s.data.tickets[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.data.tickets, id)
	delete(r.s.data.notes, id)
	delete(r.s.data.history, id)
	return nil
}

func (r *memoryTickets) ListOpen(_ context.Context) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Ticket
	for _, t := range r.s.data.tickets {
		if t.Status.IsOpen() {
			result = append(result, *t.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *memoryTickets) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	var result []domain.Ticket
	for _, t := range r.s.data.tickets {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, t.Priority) {
			continue
		}
		if filter.Department != nil && (t.Department == nil || *t.Department != *filter.Department) {
			continue
		}
		if filter.CustomerID != nil && t.CustomerID != *filter.CustomerID {
			continue
		}
		if term != "" && !r.matches(t, term) {
			continue
		}
		result = append(result, *t.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return []domain.Ticket{}, nil
	}
	result = result[offset:]
	if limit := limitOrDefault(filter.Limit, 50); len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memoryTickets) matches(t domain.Ticket, term string) bool {
	if strings.Contains(strings.ToLower(t.TicketNo), term) || strings.Contains(strings.ToLower(t.Description), term) {
		return true
	}
	c, ok := r.s.data.customers[t.CustomerID]
	return ok && (strings.Contains(strings.ToLower(c.Name), term) || strings.Contains(c.Phone, term))
}

func (r *memoryTickets) CountCreatedSince(_ context.Context, since time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, t := range r.s.data.tickets {
		if !t.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *memoryTickets) CountByStatus(_ context.Context) (map[domain.TicketStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for _, t := range r.s.data.tickets {
		counts[t.Status]++
	}
	return counts, nil
}

func (r *memoryTickets) MaxDailySequence(_ context.Context, day time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	highest := 0
	for _, t := range r.s.data.tickets {
		if seq, ok := domain.TicketSequence(t.TicketNo, day); ok && seq > highest {
			highest = seq
		}
	}
	return highest, nil
}

// LockDailySequence is a no-op: WithinTx already serializes writers.
func (r *memoryTickets) LockDailySequence(context.Context, time.Time) error { return nil }

type memoryCustomers struct {
	s    *MemoryStore
	inTx bool
}

func (r *memoryCustomers) Create(_ context.Context, c *domain.Customer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	defer r.s.lockWrite(r.inTx)()
	r.s.data.customers[c.ID] = *c
	return nil
}

func (r *memoryCustomers) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.data.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *memoryCustomers) GetByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.data.customers {
		if c.Phone == phone {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryCustomers) GetByIDs(_ context.Context, ids []string) (map[string]domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make(map[string]domain.Customer, len(ids))
	for _, id := range ids {
		if c, ok := r.s.data.customers[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}

func (r *memoryCustomers) Search(_ context.Context, q CustomerQuery) ([]domain.Customer, error) {
	if q.Phone == "" && q.Name == "" && q.Email == "" {
		return []domain.Customer{}, nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	name := strings.ToLower(q.Name)
	email := strings.ToLower(q.Email)
	var result []domain.Customer
	for _, c := range r.s.data.customers {
		switch {
		case q.Phone != "" && strings.Contains(c.Phone, q.Phone),
			name != "" && strings.Contains(strings.ToLower(c.Name), name),
			email != "" && c.Email != nil && strings.Contains(strings.ToLower(*c.Email), email):
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	if limit := limitOrDefault(q.Limit, 10); len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type memoryNotes struct {
	s    *MemoryStore
	inTx bool
}

func (r *memoryNotes) Append(_ context.Context, n *domain.Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	defer r.s.lockWrite(r.inTx)()
	if _, ok := r.s.data.tickets[n.TicketID]; !ok {
		return ErrNotFound
	}
	r.s.data.notes[n.TicketID] = append(r.s.data.notes[n.TicketID], *n)
	return nil
}

func (r *memoryNotes) ListByTicket(_ context.Context, ticketID string) ([]domain.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.Note(nil), r.s.data.notes[ticketID]...), nil
}

type memoryHistory struct {
	s    *MemoryStore
	inTx bool
}

func (r *memoryHistory) Append(_ context.Context, h *domain.StatusHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	defer r.s.lockWrite(r.inTx)()
	if _, ok := r.s.data.tickets[h.TicketID]; !ok {
		return ErrNotFound
	}
	r.s.data.history[h.TicketID] = append(r.s.data.history[h.TicketID], *h)
	return nil
}

func (r *memoryHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.StatusHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.StatusHistory(nil), r.s.data.history[ticketID]...), nil
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}
