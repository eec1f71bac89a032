package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ktios/frontdesk/agent/availability"
)

var (
	ErrNotFound             = errors.New("reservation not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrTerminalStatus       = errors.New("reservation status is terminal")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrNoChanges            = errors.New("no changes specified")
)

// CreateParams describes one confirmed-reservation write. Customer name and
// email only fill missing customer fields, they never overwrite.
type CreateParams struct {
	TenantID             string
	SourceConversationID string
	CustomerPhone        string
	CustomerName         string
	CustomerEmail        string
	PartySize            int
	StartTime            time.Time
	Notes                string
}

// CreateOutcome is the result of CreateConfirmed: either a committed
// reservation plus its customer, or a policy rejection (and nothing written).
type CreateOutcome struct {
	Reservation *Reservation
	Customer    *Customer
	Rejection   *availability.Result
}

// Changes is a partial reservation update; nil fields are left untouched.
type Changes struct {
	StartTime *time.Time
	PartySize *int
	Notes     *string
	Status    *ReservationStatus
}

func (c Changes) IsEmpty() bool {
	return c.StartTime == nil && c.PartySize == nil && c.Notes == nil && c.Status == nil
}

// Store is the persistence contract driven by the tool executor and the
// orchestrator. Every mutating call is one bounded transaction.
type Store interface {
	availability.OccupancySource

	// CreateConfirmed re-evaluates the availability policy inside the
	// transaction, after serializing concurrent creates for the same
	// (tenant, time bucket), then upserts the customer by phone and inserts
	// a confirmed reservation.
	CreateConfirmed(ctx context.Context, policy availability.Policy, p CreateParams) (CreateOutcome, error)

	// ModifyReservation applies a partial update. ErrNoChanges for an empty
	// set, ErrNotFound when the id does not exist for the tenant,
	// ErrInvalidTransition for a disallowed status move.
	ModifyReservation(ctx context.Context, tenantID, reservationID string, ch Changes) (*Reservation, error)

	// CancelReservation sets status=cancelled and appends the reason to
	// notes. ErrTerminalStatus when already cancelled or no_show.
	CancelReservation(ctx context.Context, tenantID, reservationID, reason string) (*Reservation, error)

	// OpenHandoff inserts an open HandoffRequest and flips the conversation
	// to handoff in the same transaction.
	OpenHandoff(ctx context.Context, tenantID, conversationID, reason string, priority HandoffPriority) (*HandoffRequest, error)

	ConversationSuppressed(ctx context.Context, tenantID, conversationID string) (bool, error)

	AppendMessage(ctx context.Context, msg *Message) error
}

// AppendNote joins prior notes and a new line the way the cancellation path
// does: existing notes are never overwritten.
func AppendNote(existing, line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return existing
	}
	if strings.TrimSpace(existing) == "" {
		return line
	}
	return existing + "\n" + line
}
