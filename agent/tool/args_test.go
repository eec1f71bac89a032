package tool

import (
	"strings"
	"testing"
	"time"

	storex "github.com/ktios/frontdesk/agent/store"
)

func TestDecodeCheckAvailability(t *testing.T) {
	t.Parallel()

	got, err := decodeCheckAvailability(map[string]any{
		"start_time": "2026-02-20T19:00:00-05:00",
		"party_size": float64(4),
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := time.Date(2026, time.February, 20, 19, 0, 0, 0, time.FixedZone("", -5*3600))
	if !got.StartTime.Equal(want) {
		t.Fatalf("StartTime = %v, want %v", got.StartTime, want)
	}
	if got.PartySize != 4 {
		t.Fatalf("PartySize = %d, want 4", got.PartySize)
	}
}

func TestDecodeCheckAvailabilityRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing start_time", map[string]any{"party_size": float64(2)}, "start_time is required"},
		{"bad timestamp", map[string]any{"start_time": "demain soir", "party_size": float64(2)}, "ISO 8601"},
		{"missing party_size", map[string]any{"start_time": "2026-02-20T19:00:00Z"}, "party_size is required"},
		{"zero party_size", map[string]any{"start_time": "2026-02-20T19:00:00Z", "party_size": float64(0)}, "party_size must be >= 1"},
		{"fractional party_size", map[string]any{"start_time": "2026-02-20T19:00:00Z", "party_size": 2.5}, "must be an integer"},
		{"string party_size", map[string]any{"start_time": "2026-02-20T19:00:00Z", "party_size": "quatre"}, "must be an integer"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := decodeCheckAvailability(tc.args)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestDecodeCreateReservation(t *testing.T) {
	t.Parallel()

	got, err := decodeCreateReservation(map[string]any{
		"customer": map[string]any{
			"phone_e164": "+14185551234",
			"full_name":  "Marie Dupont",
		},
		"start_time": "2026-02-20T19:00:00Z",
		"party_size": float64(4),
		"notes":      "anniversaire",
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CustomerPhone != "+14185551234" || got.CustomerName != "Marie Dupont" || got.Notes != "anniversaire" {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestDecodeCreateReservationRequiresPhone(t *testing.T) {
	t.Parallel()

	_, err := decodeCreateReservation(map[string]any{
		"customer":   map[string]any{"full_name": "Marie"},
		"start_time": "2026-02-20T19:00:00Z",
		"party_size": float64(2),
	})
	if err == nil || !strings.Contains(err.Error(), "phone_e164 is required") {
		t.Fatalf("err = %v, want phone_e164 required", err)
	}

	_, err = decodeCreateReservation(map[string]any{
		"start_time": "2026-02-20T19:00:00Z",
		"party_size": float64(2),
	})
	if err == nil || !strings.Contains(err.Error(), "customer is required") {
		t.Fatalf("err = %v, want customer required", err)
	}
}

func TestDecodeModifyReservation(t *testing.T) {
	t.Parallel()

	got, err := decodeModifyReservation(map[string]any{
		"reservation_id": "res-1",
		"changes": map[string]any{
			"party_size": float64(6),
			"status":     "confirmed",
		},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ReservationID != "res-1" {
		t.Fatalf("ReservationID = %q", got.ReservationID)
	}
	if got.Changes.PartySize == nil || *got.Changes.PartySize != 6 {
		t.Fatalf("PartySize change = %v", got.Changes.PartySize)
	}
	if got.Changes.Status == nil || *got.Changes.Status != storex.ReservationConfirmed {
		t.Fatalf("Status change = %v", got.Changes.Status)
	}
	if got.Changes.StartTime != nil || got.Changes.Notes != nil {
		t.Fatal("unspecified fields must stay nil")
	}
}

func TestDecodeModifyReservationRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args map[string]any
		want string
	}{
		{"empty changes", map[string]any{"reservation_id": "r", "changes": map[string]any{}}, "no changes specified"},
		{"missing changes", map[string]any{"reservation_id": "r"}, "changes is required"},
		{"bad status", map[string]any{"reservation_id": "r", "changes": map[string]any{"status": "archived"}}, "not a valid reservation status"},
		{"bad start_time", map[string]any{"reservation_id": "r", "changes": map[string]any{"start_time": "ce soir"}}, "ISO 8601"},
		{"missing id", map[string]any{"changes": map[string]any{"notes": "x"}}, "reservation_id is required"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := decodeModifyReservation(tc.args)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestDecodeCancelReservationDefaultsReason(t *testing.T) {
	t.Parallel()

	got, err := decodeCancelReservation(map[string]any{"reservation_id": "res-1"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Reason != "Annulée par le client" {
		t.Fatalf("Reason = %q, want default", got.Reason)
	}

	got, err = decodeCancelReservation(map[string]any{"reservation_id": "res-1", "reason": "contretemps"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Reason != "contretemps" {
		t.Fatalf("Reason = %q", got.Reason)
	}
}

func TestDecodeHandoff(t *testing.T) {
	t.Parallel()

	got, err := decodeHandoff(map[string]any{"reason": "client insistant", "priority": "high"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Priority != storex.PriorityHigh {
		t.Fatalf("Priority = %q, want high", got.Priority)
	}

	got, err = decodeHandoff(map[string]any{"reason": "question complexe"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Priority != storex.PriorityNormal {
		t.Fatalf("Priority = %q, want default normal", got.Priority)
	}

	if _, err := decodeHandoff(map[string]any{"reason": "x", "priority": "urgent"}); err == nil {
		t.Fatal("invalid priority accepted")
	}
	if _, err := decodeHandoff(map[string]any{"priority": "low"}); err == nil {
		t.Fatal("missing reason accepted")
	}
}
