package tool

import (
	"fmt"
	"math"
	"time"

	storex "github.com/ktios/frontdesk/agent/store"
)

// Argument decoding fails closed: a missing required field, a wrong type, or
// an out-of-range value is a validation error surfaced to the model as a
// structured tool error. Nothing is silently defaulted except documented
// optional fields.

type checkAvailabilityArgs struct {
	StartTime time.Time
	PartySize int
}

type createReservationArgs struct {
	CustomerPhone string
	CustomerName  string
	CustomerEmail string
	StartTime     time.Time
	PartySize     int
	Notes         string
}

type modifyReservationArgs struct {
	ReservationID string
	Changes       storex.Changes
}

type cancelReservationArgs struct {
	ReservationID string
	Reason        string
}

type handoffArgs struct {
	Reason   string
	Priority storex.HandoffPriority
}

const defaultCancelReason = "Annulée par le client"

func decodeCheckAvailability(args map[string]any) (checkAvailabilityArgs, error) {
	startTime, err := requireTimestamp(args, "start_time")
	if err != nil {
		return checkAvailabilityArgs{}, err
	}
	partySize, err := requirePartySize(args)
	if err != nil {
		return checkAvailabilityArgs{}, err
	}
	return checkAvailabilityArgs{StartTime: startTime, PartySize: partySize}, nil
}

func decodeCreateReservation(args map[string]any) (createReservationArgs, error) {
	startTime, err := requireTimestamp(args, "start_time")
	if err != nil {
		return createReservationArgs{}, err
	}
	partySize, err := requirePartySize(args)
	if err != nil {
		return createReservationArgs{}, err
	}

	rawCustomer, ok := args["customer"]
	if !ok || rawCustomer == nil {
		return createReservationArgs{}, fmt.Errorf("customer is required")
	}
	customer, ok := rawCustomer.(map[string]any)
	if !ok {
		return createReservationArgs{}, fmt.Errorf("customer must be an object")
	}
	phone, err := requireString(customer, "phone_e164")
	if err != nil {
		return createReservationArgs{}, err
	}

	name, err := optionalString(customer, "full_name")
	if err != nil {
		return createReservationArgs{}, err
	}
	email, err := optionalString(customer, "email")
	if err != nil {
		return createReservationArgs{}, err
	}
	notes, err := optionalString(args, "notes")
	if err != nil {
		return createReservationArgs{}, err
	}

	return createReservationArgs{
		CustomerPhone: phone,
		CustomerName:  name,
		CustomerEmail: email,
		StartTime:     startTime,
		PartySize:     partySize,
		Notes:         notes,
	}, nil
}

func decodeModifyReservation(args map[string]any) (modifyReservationArgs, error) {
	id, err := requireString(args, "reservation_id")
	if err != nil {
		return modifyReservationArgs{}, err
	}

	rawChanges, ok := args["changes"]
	if !ok || rawChanges == nil {
		return modifyReservationArgs{}, fmt.Errorf("changes is required")
	}
	changesMap, ok := rawChanges.(map[string]any)
	if !ok {
		return modifyReservationArgs{}, fmt.Errorf("changes must be an object")
	}

	var ch storex.Changes
	if _, present := changesMap["start_time"]; present {
		t, err := requireTimestamp(changesMap, "start_time")
		if err != nil {
			return modifyReservationArgs{}, err
		}
		ch.StartTime = &t
	}
	if _, present := changesMap["party_size"]; present {
		n, err := requireInt(changesMap, "party_size")
		if err != nil {
			return modifyReservationArgs{}, err
		}
		if n < 1 {
			return modifyReservationArgs{}, fmt.Errorf("party_size must be >= 1")
		}
		ch.PartySize = &n
	}
	if _, present := changesMap["notes"]; present {
		notes, err := requireString(changesMap, "notes")
		if err != nil {
			return modifyReservationArgs{}, err
		}
		ch.Notes = &notes
	}
	if _, present := changesMap["status"]; present {
		raw, err := requireString(changesMap, "status")
		if err != nil {
			return modifyReservationArgs{}, err
		}
		if !storex.ValidReservationStatus(raw) {
			return modifyReservationArgs{}, fmt.Errorf("status %q is not a valid reservation status", raw)
		}
		status := storex.ReservationStatus(raw)
		ch.Status = &status
	}

	if ch.IsEmpty() {
		return modifyReservationArgs{}, fmt.Errorf("no changes specified")
	}

	return modifyReservationArgs{ReservationID: id, Changes: ch}, nil
}

func decodeCancelReservation(args map[string]any) (cancelReservationArgs, error) {
	id, err := requireString(args, "reservation_id")
	if err != nil {
		return cancelReservationArgs{}, err
	}
	reason, err := optionalString(args, "reason")
	if err != nil {
		return cancelReservationArgs{}, err
	}
	if reason == "" {
		reason = defaultCancelReason
	}
	return cancelReservationArgs{ReservationID: id, Reason: reason}, nil
}

func decodeHandoff(args map[string]any) (handoffArgs, error) {
	reason, err := requireString(args, "reason")
	if err != nil {
		return handoffArgs{}, err
	}
	raw, err := optionalString(args, "priority")
	if err != nil {
		return handoffArgs{}, err
	}
	if raw == "" {
		raw = string(storex.PriorityNormal)
	}
	if !storex.ValidHandoffPriority(raw) {
		return handoffArgs{}, fmt.Errorf("priority %q is not one of low, normal, high", raw)
	}
	return handoffArgs{Reason: reason, Priority: storex.HandoffPriority(raw)}, nil
}

/* ------------------------------ field helpers ----------------------------- */

func requireString(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%s is required", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

func optionalString(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s, nil
}

func requireInt(args map[string]any, key string) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}

func requirePartySize(args map[string]any) (int, error) {
	n, err := requireInt(args, "party_size")
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("party_size must be >= 1")
	}
	return n, nil
}

func requireTimestamp(args map[string]any, key string) (time.Time, error) {
	raw, err := requireString(args, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an ISO 8601 timestamp with timezone: %v", key, err)
	}
	return t, nil
}
