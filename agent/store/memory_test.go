package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ktios/frontdesk/agent/availability"
)

func dinnerSlot() time.Time {
	return time.Date(2026, time.September, 12, 19, 0, 0, 0, time.UTC)
}

func createParams(phone string) CreateParams {
	return CreateParams{
		TenantID:             "t1",
		SourceConversationID: "conv-1",
		CustomerPhone:        phone,
		CustomerName:         "Marie Dupont",
		PartySize:            4,
		StartTime:            dinnerSlot(),
	}
}

func TestCreateConfirmedWritesReservationAndCustomer(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	out, err := m.CreateConfirmed(context.Background(), availability.DefaultPolicy, createParams("+33612345678"))
	if err != nil {
		t.Fatalf("CreateConfirmed: %v", err)
	}
	if out.Rejection != nil {
		t.Fatalf("unexpected rejection: %+v", out.Rejection)
	}
	if out.Reservation.Status != ReservationConfirmed {
		t.Fatalf("status = %q, want confirmed", out.Reservation.Status)
	}
	if out.Reservation.CustomerID != out.Customer.ID {
		t.Fatal("reservation not linked to customer")
	}
	if out.Reservation.SourceConversationID != "conv-1" {
		t.Fatalf("source_conversation_id = %q", out.Reservation.SourceConversationID)
	}

	got, ok := m.Reservation(out.Reservation.ID)
	if !ok {
		t.Fatal("reservation not persisted")
	}
	if !got.StartTime.Equal(dinnerSlot()) || got.PartySize != 4 {
		t.Fatalf("persisted row mismatch: %+v", got)
	}
}

func TestCreateConfirmedUpsertsCustomerByPhone(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	first, err := m.CreateConfirmed(ctx, availability.DefaultPolicy, createParams("+33612345678"))
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Second booking for the same phone with a different name must keep the
	// original identity.
	p := createParams("+33612345678")
	p.CustomerName = "M. Dupont"
	p.CustomerEmail = "marie@example.com"
	p.StartTime = dinnerSlot().Add(48 * time.Hour)
	second, err := m.CreateConfirmed(ctx, availability.DefaultPolicy, p)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	if second.Customer.ID != first.Customer.ID {
		t.Fatal("same phone produced two customer rows")
	}
	if second.Customer.FullName != "Marie Dupont" {
		t.Fatalf("FullName = %q, existing name must not be overwritten", second.Customer.FullName)
	}
	if second.Customer.Email != "marie@example.com" {
		t.Fatalf("Email = %q, empty field must be filled", second.Customer.Email)
	}
	if n := len(m.Customers()); n != 1 {
		t.Fatalf("customer rows = %d, want 1", n)
	}
}

func TestCreateConfirmedRejectsWhenWindowFull(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	// Fill the ±2h window to 78 guests so a party of 4 no longer fits.
	seed := createParams("+33600000001")
	seed.PartySize = 78
	policy := availability.DefaultPolicy
	if out, err := m.CreateConfirmed(ctx, policy, seed); err != nil || out.Rejection != nil {
		t.Fatalf("seed create: out=%+v err=%v", out, err)
	}

	out, err := m.CreateConfirmed(ctx, policy, createParams("+33600000002"))
	if err != nil {
		t.Fatalf("CreateConfirmed: %v", err)
	}
	if out.Rejection == nil {
		t.Fatal("expected a policy rejection")
	}
	if out.Rejection.Reason != availability.ReasonCapacity {
		t.Fatalf("reason = %q, want %q", out.Rejection.Reason, availability.ReasonCapacity)
	}
	if out.Reservation != nil {
		t.Fatal("rejected create must not return a reservation")
	}
	// Nothing written for the rejected caller.
	if n := len(m.Customers()); n != 1 {
		t.Fatalf("customer rows = %d, want only the seeded one", n)
	}
}

func TestCreateConfirmedRejectsOutsideHours(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	p := createParams("+33612345678")
	p.StartTime = time.Date(2026, time.September, 12, 9, 0, 0, 0, time.UTC)

	out, err := m.CreateConfirmed(context.Background(), availability.DefaultPolicy, p)
	if err != nil {
		t.Fatalf("CreateConfirmed: %v", err)
	}
	if out.Rejection == nil || out.Rejection.Reason != availability.ReasonOutsideHours {
		t.Fatalf("rejection = %+v, want %q", out.Rejection, availability.ReasonOutsideHours)
	}
}

func TestModifyReservation(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.PutReservation(&Reservation{
		ID:        "r1",
		TenantID:  "t1",
		PartySize: 2,
		StartTime: dinnerSlot(),
		Status:    ReservationConfirmed,
	})

	newSize := 6
	res, err := m.ModifyReservation(context.Background(), "t1", "r1", Changes{PartySize: &newSize})
	if err != nil {
		t.Fatalf("ModifyReservation: %v", err)
	}
	if res.PartySize != 6 {
		t.Fatalf("PartySize = %d, want 6", res.PartySize)
	}
	if !res.StartTime.Equal(dinnerSlot()) {
		t.Fatal("untouched field changed")
	}
}

func TestModifyReservationErrors(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.PutReservation(&Reservation{ID: "r1", TenantID: "t1", Status: ReservationCancelled})

	if _, err := m.ModifyReservation(context.Background(), "t1", "r1", Changes{}); !errors.Is(err, ErrNoChanges) {
		t.Fatalf("empty changes: err = %v, want ErrNoChanges", err)
	}

	size := 4
	if _, err := m.ModifyReservation(context.Background(), "t1", "missing", Changes{PartySize: &size}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrNotFound", err)
	}
	if _, err := m.ModifyReservation(context.Background(), "t2", "r1", Changes{PartySize: &size}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign tenant: err = %v, want ErrNotFound", err)
	}

	st := ReservationConfirmed
	if _, err := m.ModifyReservation(context.Background(), "t1", "r1", Changes{Status: &st}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancelled -> confirmed: err = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelReservationAppendsReason(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.PutReservation(&Reservation{
		ID:       "r1",
		TenantID: "t1",
		Status:   ReservationConfirmed,
		Notes:    "terrasse",
	})

	res, err := m.CancelReservation(context.Background(), "t1", "r1", "contretemps")
	if err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}
	if res.Status != ReservationCancelled {
		t.Fatalf("status = %q, want cancelled", res.Status)
	}
	if want := "terrasse\nAnnulation: contretemps"; res.Notes != want {
		t.Fatalf("notes = %q, want %q", res.Notes, want)
	}
}

func TestCancelReservationTerminal(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.PutReservation(&Reservation{ID: "r1", TenantID: "t1", Status: ReservationCancelled})
	m.PutReservation(&Reservation{ID: "r2", TenantID: "t1", Status: ReservationNoShow})

	for _, id := range []string{"r1", "r2"} {
		if _, err := m.CancelReservation(context.Background(), "t1", id, "x"); !errors.Is(err, ErrTerminalStatus) {
			t.Fatalf("%s: err = %v, want ErrTerminalStatus", id, err)
		}
	}
}

func TestOpenHandoffFlipsConversation(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.PutConversation(&Conversation{ID: "conv-1", TenantID: "t1", Status: ConversationOpen})

	req, err := m.OpenHandoff(context.Background(), "t1", "conv-1", "client insistant", PriorityHigh)
	if err != nil {
		t.Fatalf("OpenHandoff: %v", err)
	}
	if req.Status != "open" || req.Priority != PriorityHigh || req.Reason != "client insistant" {
		t.Fatalf("handoff row mismatch: %+v", req)
	}

	suppressed, err := m.ConversationSuppressed(context.Background(), "t1", "conv-1")
	if err != nil {
		t.Fatalf("ConversationSuppressed: %v", err)
	}
	if !suppressed {
		t.Fatal("conversation not suppressed after handoff")
	}
}

func TestConversationSuppressedUnknownConversation(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	suppressed, err := m.ConversationSuppressed(context.Background(), "t1", "nope")
	if err != nil {
		t.Fatalf("ConversationSuppressed: %v", err)
	}
	if suppressed {
		t.Fatal("unknown conversation must not be suppressed")
	}
}

func TestAppendNote(t *testing.T) {
	t.Parallel()

	if got := AppendNote("", "Annulation: x"); got != "Annulation: x" {
		t.Fatalf("empty notes: %q", got)
	}
	if got := AppendNote("a", "b"); got != "a\nb" {
		t.Fatalf("append: %q", got)
	}
	if got := AppendNote("a", "  "); got != "a" {
		t.Fatalf("blank line: %q", got)
	}
}
