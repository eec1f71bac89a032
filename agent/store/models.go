package store

import (
	"time"

	"github.com/uptrace/bun"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationNoShow    ReservationStatus = "no_show"
)

// ValidReservationStatus reports whether s is one of the enum values.
func ValidReservationStatus(s string) bool {
	switch ReservationStatus(s) {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationNoShow:
		return true
	}
	return false
}

// CanTransition encodes the one-way status machine: pending and confirmed
// flip freely between each other, cancelled and no_show are terminal.
func CanTransition(from, to ReservationStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case ReservationPending, ReservationConfirmed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationCancelled || s == ReservationNoShow
}

type ConversationStatus string

const (
	ConversationOpen    ConversationStatus = "open"
	ConversationHandoff ConversationStatus = "handoff"
)

type HandoffPriority string

const (
	PriorityLow    HandoffPriority = "low"
	PriorityNormal HandoffPriority = "normal"
	PriorityHigh   HandoffPriority = "high"
)

func ValidHandoffPriority(p string) bool {
	switch HandoffPriority(p) {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// Reservation rows are never physically deleted; cancellation is a status.
type Reservation struct {
	bun.BaseModel `bun:"table:reservations,alias:r"`

	ID                   string            `bun:"id,pk" json:"id"`
	TenantID             string            `bun:"tenant_id,notnull" json:"tenant_id"`
	CustomerID           string            `bun:"customer_id,notnull" json:"customer_id"`
	SourceConversationID string            `bun:"source_conversation_id,nullzero" json:"source_conversation_id,omitempty"`
	PartySize            int               `bun:"party_size,notnull" json:"party_size"`
	StartTime            time.Time         `bun:"start_time,notnull" json:"start_time"`
	Status               ReservationStatus `bun:"status,notnull" json:"status"`
	Notes                string            `bun:"notes,nullzero" json:"notes,omitempty"`
	CreatedAt            time.Time         `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt            time.Time         `bun:"updated_at,notnull" json:"updated_at"`
}

// Customer is owned by the store and referenced by reservations. PhoneE164
// is the primary external identifier, unique per tenant.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID        string    `bun:"id,pk" json:"id"`
	TenantID  string    `bun:"tenant_id,notnull" json:"tenant_id"`
	FullName  string    `bun:"full_name,nullzero" json:"full_name,omitempty"`
	PhoneE164 string    `bun:"phone_e164,notnull" json:"phone_e164"`
	Email     string    `bun:"email,nullzero" json:"email,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

type Conversation struct {
	bun.BaseModel `bun:"table:conversations,alias:cv"`

	ID         string             `bun:"id,pk" json:"id"`
	TenantID   string             `bun:"tenant_id,notnull" json:"tenant_id"`
	ChannelID  string             `bun:"channel_id,nullzero" json:"channel_id,omitempty"`
	CustomerID string             `bun:"customer_id,nullzero" json:"customer_id,omitempty"`
	Status     ConversationStatus `bun:"status,notnull" json:"status"`
	CreatedAt  time.Time          `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt  time.Time          `bun:"updated_at,notnull" json:"updated_at"`
}

// HandoffRequest is append-only; one row per handoff tool call.
type HandoffRequest struct {
	bun.BaseModel `bun:"table:handoff_requests,alias:h"`

	ID             string          `bun:"id,pk" json:"id"`
	TenantID       string          `bun:"tenant_id,notnull" json:"tenant_id"`
	ConversationID string          `bun:"conversation_id,notnull" json:"conversation_id"`
	Reason         string          `bun:"reason,notnull" json:"reason"`
	Priority       HandoffPriority `bun:"priority,notnull" json:"priority"`
	Status         string          `bun:"status,notnull" json:"status"`
	CreatedAt      time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt      time.Time       `bun:"updated_at,notnull" json:"updated_at"`
}

// Message is the durable transcript store; the core appends the inbound and
// outbound halves of each turn, the ephemeral model transcript stays in the
// orchestrator.
type Message struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID             string         `bun:"id,pk" json:"id"`
	TenantID       string         `bun:"tenant_id,notnull" json:"tenant_id"`
	ConversationID string         `bun:"conversation_id,notnull" json:"conversation_id"`
	Direction      string         `bun:"direction,notnull" json:"direction"`
	Role           string         `bun:"role,notnull" json:"role"`
	Content        string         `bun:"content,nullzero" json:"content,omitempty"`
	Meta           map[string]any `bun:"meta,type:jsonb,nullzero" json:"meta,omitempty"`
	CreatedAt      time.Time      `bun:"created_at,notnull" json:"created_at"`
}
