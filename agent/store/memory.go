package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ktios/frontdesk/agent/availability"
)

// Memory is an in-process Store used by tests and by local development when
// the database is disabled. A single mutex stands in for the per-bucket
// advisory lock, which trivially serializes check-then-create.
type Memory struct {
	mu            sync.Mutex
	reservations  map[string]*Reservation
	customers     map[string]*Customer // (tenant, phone) key
	conversations map[string]*Conversation
	handoffs      []*HandoffRequest
	messages      []*Message
	now           func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		reservations:  map[string]*Reservation{},
		customers:     map[string]*Customer{},
		conversations: map[string]*Conversation{},
		now:           time.Now,
	}
}

// SetNow overrides the clock. Test helper.
func (m *Memory) SetNow(now func() time.Time) {
	m.now = now
}

// PutConversation seeds a conversation row.
func (m *Memory) PutConversation(cv *Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[cv.ID] = cv
}

// PutReservation seeds a reservation row.
func (m *Memory) PutReservation(r *Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[r.ID] = r
}

// Reservation returns a copy of one row, for assertions.
func (m *Memory) Reservation(id string) (Reservation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return Reservation{}, false
	}
	return *r, true
}

// Customers returns copies of all customer rows, for assertions.
func (m *Memory) Customers() []Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Customer, 0, len(m.customers))
	for _, c := range m.customers {
		out = append(out, *c)
	}
	return out
}

// Handoffs returns copies of all handoff rows, for assertions.
func (m *Memory) Handoffs() []HandoffRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HandoffRequest, 0, len(m.handoffs))
	for _, h := range m.handoffs {
		out = append(out, *h)
	}
	return out
}

// Messages returns copies of all message rows, for assertions.
func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, 0, len(m.messages))
	for _, msg := range m.messages {
		out = append(out, *msg)
	}
	return out
}

func (m *Memory) WindowLoad(_ context.Context, tenantID string, from, to time.Time) (availability.Load, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.windowLoadLocked(tenantID, from, to), nil
}

func (m *Memory) windowLoadLocked(tenantID string, from, to time.Time) availability.Load {
	var load availability.Load
	for _, r := range m.reservations {
		if r.TenantID != tenantID {
			continue
		}
		if r.Status != ReservationPending && r.Status != ReservationConfirmed {
			continue
		}
		if r.StartTime.Before(from) || r.StartTime.After(to) {
			continue
		}
		load.Reservations++
		load.Guests += r.PartySize
	}
	return load
}

func (m *Memory) CreateConfirmed(_ context.Context, policy availability.Policy, p CreateParams) (CreateOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, rejected := availability.HoursGate(policy, p.StartTime); rejected {
		return CreateOutcome{Rejection: &r}, nil
	}
	load := m.windowLoadLocked(p.TenantID, p.StartTime.Add(-policy.Window), p.StartTime.Add(policy.Window))
	if r := availability.Apply(policy, p.StartTime, p.PartySize, load); !r.Available {
		return CreateOutcome{Rejection: &r}, nil
	}

	now := m.now().UTC()
	key := p.TenantID + "|" + p.CustomerPhone
	cust, ok := m.customers[key]
	if !ok {
		cust = &Customer{
			ID:        uuid.NewString(),
			TenantID:  p.TenantID,
			FullName:  p.CustomerName,
			PhoneE164: p.CustomerPhone,
			Email:     p.CustomerEmail,
			CreatedAt: now,
		}
		m.customers[key] = cust
	} else {
		// Fill-only semantics: never overwrite existing non-empty fields.
		if cust.FullName == "" {
			cust.FullName = p.CustomerName
		}
		if cust.Email == "" {
			cust.Email = p.CustomerEmail
		}
	}
	cust.UpdatedAt = now

	res := &Reservation{
		ID:                   uuid.NewString(),
		TenantID:             p.TenantID,
		CustomerID:           cust.ID,
		SourceConversationID: p.SourceConversationID,
		PartySize:            p.PartySize,
		StartTime:            p.StartTime,
		Status:               ReservationConfirmed,
		Notes:                p.Notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	m.reservations[res.ID] = res

	custCopy := *cust
	resCopy := *res
	return CreateOutcome{Reservation: &resCopy, Customer: &custCopy}, nil
}

func (m *Memory) ModifyReservation(_ context.Context, tenantID, reservationID string, ch Changes) (*Reservation, error) {
	if ch.IsEmpty() {
		return nil, ErrNoChanges
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.reservations[reservationID]
	if !ok || res.TenantID != tenantID {
		return nil, ErrNotFound
	}

	if ch.Status != nil && !CanTransition(res.Status, *ch.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, *ch.Status)
	}
	if ch.StartTime != nil {
		res.StartTime = *ch.StartTime
	}
	if ch.PartySize != nil {
		res.PartySize = *ch.PartySize
	}
	if ch.Notes != nil {
		res.Notes = *ch.Notes
	}
	if ch.Status != nil {
		res.Status = *ch.Status
	}
	res.UpdatedAt = m.now().UTC()

	out := *res
	return &out, nil
}

func (m *Memory) CancelReservation(_ context.Context, tenantID, reservationID, reason string) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.reservations[reservationID]
	if !ok || res.TenantID != tenantID {
		return nil, ErrNotFound
	}
	if res.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", ErrTerminalStatus, res.Status)
	}

	res.Status = ReservationCancelled
	res.Notes = AppendNote(res.Notes, "Annulation: "+reason)
	res.UpdatedAt = m.now().UTC()

	out := *res
	return &out, nil
}

func (m *Memory) OpenHandoff(_ context.Context, tenantID, conversationID, reason string, priority HandoffPriority) (*HandoffRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	req := &HandoffRequest{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ConversationID: conversationID,
		Reason:         reason,
		Priority:       priority,
		Status:         "open",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.handoffs = append(m.handoffs, req)

	if cv, ok := m.conversations[conversationID]; ok && cv.TenantID == tenantID {
		cv.Status = ConversationHandoff
		cv.UpdatedAt = now
	}

	out := *req
	return &out, nil
}

func (m *Memory) ConversationSuppressed(_ context.Context, tenantID, conversationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cv, ok := m.conversations[conversationID]
	if !ok || cv.TenantID != tenantID {
		return false, nil
	}
	return cv.Status == ConversationHandoff, nil
}

func (m *Memory) AppendMessage(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *msg
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = m.now().UTC()
	}
	m.messages = append(m.messages, &cp)
	return nil
}
