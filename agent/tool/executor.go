package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ktios/frontdesk/agent/availability"
	contractx "github.com/ktios/frontdesk/agent/contract"
	storex "github.com/ktios/frontdesk/agent/store"
)

// Result payloads, one per tool. These are the canonical wire shapes fed back
// to the model as tool messages.

type AvailabilityResult struct {
	Available        bool     `json:"available"`
	Reason           string   `json:"reason,omitempty"`
	Suggestions      []string `json:"suggestions,omitempty"`
	StartTime        string   `json:"start_time,omitempty"`
	PartySize        int      `json:"party_size,omitempty"`
	CurrentOccupancy *int     `json:"current_occupancy,omitempty"`
}

type CreateResult struct {
	Success       bool     `json:"success"`
	ReservationID string   `json:"reservation_id,omitempty"`
	Status        string   `json:"status,omitempty"`
	StartTime     string   `json:"start_time,omitempty"`
	PartySize     int      `json:"party_size,omitempty"`
	CustomerName  string   `json:"customer_name,omitempty"`
	Error         string   `json:"error,omitempty"`
	Suggestions   []string `json:"suggestions,omitempty"`
}

type MutationResult struct {
	Success       bool   `json:"success"`
	ReservationID string `json:"reservation_id,omitempty"`
	Status        string `json:"status,omitempty"`
	Error         string `json:"error,omitempty"`
}

type HandoffResult struct {
	Success          bool   `json:"success"`
	HandoffRequestID string `json:"handoff_request_id,omitempty"`
	Status           string `json:"status,omitempty"`
	Message          string `json:"message,omitempty"`
	Error            string `json:"error,omitempty"`
}

type ErrorResult struct {
	Error string `json:"error"`
}

const handoffAck = "Un membre de l'équipe va vous contacter sous peu."

// Scope carries the identifiers the orchestrator injects for one turn.
// Model-supplied values never override these.
type Scope struct {
	TenantID       string
	ConversationID string
	CustomerPhone  string
}

// Executor dispatches validated tool calls against the store and the
// availability checker. Each call is independent; domain failures come back
// as payloads and never cross the boundary as Go errors.
type Executor struct {
	store   storex.Store
	checker *availability.Checker
	policy  availability.Policy
	scope   Scope
}

func NewExecutor(st storex.Store, policy availability.Policy, scope Scope) *Executor {
	return &Executor{
		store:   st,
		checker: availability.NewChecker(policy, st),
		policy:  policy,
		scope:   scope,
	}
}

// Execute routes one call to its handler. The error return is always nil;
// it exists to satisfy the executor contract.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case ToolCheckAvailability:
		return e.checkAvailability(ctx, args), nil
	case ToolCreateReservation:
		return e.createReservation(ctx, args), nil
	case ToolModifyReservation:
		return e.modifyReservation(ctx, args), nil
	case ToolCancelReservation:
		return e.cancelReservation(ctx, args), nil
	case ToolHandoffToHuman:
		return e.handoffToHuman(ctx, args), nil
	default:
		return ErrorResult{Error: fmt.Sprintf("tool '%s' not recognized", name)}, nil
	}
}

func (e *Executor) checkAvailability(ctx context.Context, args map[string]any) any {
	in, err := decodeCheckAvailability(args)
	if err != nil {
		return ErrorResult{Error: err.Error()}
	}

	res, err := e.checker.Check(ctx, e.scope.TenantID, in.StartTime, in.PartySize)
	if err != nil {
		if errors.Is(err, contractx.ErrValidation) {
			return ErrorResult{Error: err.Error()}
		}
		log.Warn().Err(err).Str("tenant_id", e.scope.TenantID).Msg("availability check failed")
		return ErrorResult{Error: "Erreur check_availability: " + err.Error()}
	}

	if !res.Available {
		occ := res.CurrentOccupancy
		return AvailabilityResult{
			Available:        false,
			Reason:           res.Reason,
			Suggestions:      formatTimes(res.Suggestions),
			CurrentOccupancy: &occ,
		}
	}

	occ := res.CurrentOccupancy
	return AvailabilityResult{
		Available:        true,
		StartTime:        in.StartTime.Format(time.RFC3339),
		PartySize:        in.PartySize,
		CurrentOccupancy: &occ,
	}
}

func (e *Executor) createReservation(ctx context.Context, args map[string]any) any {
	// The caller's phone is authoritative context, injected like tenant id
	// when the model leaves it out.
	if rawCustomer, ok := args["customer"].(map[string]any); ok {
		if _, ok := rawCustomer["phone_e164"]; !ok && e.scope.CustomerPhone != "" {
			rawCustomer["phone_e164"] = e.scope.CustomerPhone
		}
	}

	in, err := decodeCreateReservation(args)
	if err != nil {
		return CreateResult{Success: false, Error: err.Error()}
	}

	out, err := e.store.CreateConfirmed(ctx, e.policy, storex.CreateParams{
		TenantID:             e.scope.TenantID,
		SourceConversationID: e.scope.ConversationID,
		CustomerPhone:        in.CustomerPhone,
		CustomerName:         in.CustomerName,
		CustomerEmail:        in.CustomerEmail,
		PartySize:            in.PartySize,
		StartTime:            in.StartTime,
		Notes:                in.Notes,
	})
	if err != nil {
		log.Warn().Err(err).Str("tenant_id", e.scope.TenantID).Msg("reservation create failed")
		return CreateResult{Success: false, Error: "Erreur création: " + err.Error()}
	}

	if out.Rejection != nil {
		return CreateResult{
			Success:     false,
			Error:       "Créneau devenu indisponible",
			Suggestions: formatTimes(out.Rejection.Suggestions),
		}
	}

	customerName := out.Customer.FullName
	if customerName == "" {
		customerName = "Client"
	}
	return CreateResult{
		Success:       true,
		ReservationID: out.Reservation.ID,
		Status:        string(out.Reservation.Status),
		StartTime:     out.Reservation.StartTime.Format(time.RFC3339),
		PartySize:     out.Reservation.PartySize,
		CustomerName:  customerName,
	}
}

func (e *Executor) modifyReservation(ctx context.Context, args map[string]any) any {
	in, err := decodeModifyReservation(args)
	if err != nil {
		return MutationResult{Success: false, Error: err.Error()}
	}

	res, err := e.store.ModifyReservation(ctx, e.scope.TenantID, in.ReservationID, in.Changes)
	if err != nil {
		return MutationResult{Success: false, Error: mutationError(err, "Erreur modification")}
	}
	return MutationResult{Success: true, ReservationID: res.ID, Status: string(res.Status)}
}

func (e *Executor) cancelReservation(ctx context.Context, args map[string]any) any {
	in, err := decodeCancelReservation(args)
	if err != nil {
		return MutationResult{Success: false, Error: err.Error()}
	}

	res, err := e.store.CancelReservation(ctx, e.scope.TenantID, in.ReservationID, in.Reason)
	if err != nil {
		return MutationResult{Success: false, Error: mutationError(err, "Erreur annulation")}
	}
	return MutationResult{Success: true, ReservationID: res.ID, Status: string(res.Status)}
}

func (e *Executor) handoffToHuman(ctx context.Context, args map[string]any) any {
	in, err := decodeHandoff(args)
	if err != nil {
		return HandoffResult{Success: false, Error: err.Error()}
	}

	req, err := e.store.OpenHandoff(ctx, e.scope.TenantID, e.scope.ConversationID, in.Reason, in.Priority)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", e.scope.ConversationID).Msg("handoff create failed")
		return HandoffResult{Success: false, Error: "Erreur handoff: " + err.Error()}
	}

	return HandoffResult{
		Success:          true,
		HandoffRequestID: req.ID,
		Status:           req.Status,
		Message:          handoffAck,
	}
}

// mutationError maps store sentinels to the stable machine-readable error
// text; anything else is a transient infrastructure failure.
func mutationError(err error, infraPrefix string) string {
	switch {
	case errors.Is(err, storex.ErrNotFound):
		return "not found"
	case errors.Is(err, storex.ErrNoChanges):
		return "no changes specified"
	case errors.Is(err, storex.ErrTerminalStatus):
		return "reservation already cancelled"
	case errors.Is(err, storex.ErrInvalidTransition):
		return err.Error()
	default:
		return infraPrefix + ": " + err.Error()
	}
}

func formatTimes(ts []time.Time) []string {
	if len(ts) == 0 {
		return nil
	}
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Format(time.RFC3339))
	}
	return out
}
