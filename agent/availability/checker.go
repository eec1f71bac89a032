package availability

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/ktios/frontdesk/agent/contract"
)

// Rejection reasons surfaced to the model. Kept as the venue-facing French
// codes the rest of the product shows to operators.
const (
	ReasonOutsideHours  = "en_dehors_heures"
	ReasonCapacity      = "capacité_atteinte"
	ReasonTooConcurrent = "trop_réservations_simultanées"
)

// Policy holds the advisory capacity rules for one venue.
type Policy struct {
	OpenHour      int           `envconfig:"OPEN_HOUR" split_words:"true" default:"11"`
	CloseHour     int           `envconfig:"CLOSE_HOUR" split_words:"true" default:"23"`
	MaxCapacity   int           `envconfig:"MAX_CAPACITY" split_words:"true" default:"80"`
	MaxConcurrent int           `envconfig:"MAX_CONCURRENT" split_words:"true" default:"15"`
	Window        time.Duration `envconfig:"WINDOW" split_words:"true" default:"2h"`
}

// DefaultPolicy matches the venue defaults: open 11-23, 80 covers, 15
// concurrent reservations, demand aggregated over a ±2h window.
var DefaultPolicy = Policy{
	OpenHour:      11,
	CloseHour:     23,
	MaxCapacity:   80,
	MaxConcurrent: 15,
	Window:        2 * time.Hour,
}

// Load is the aggregated demand inside one availability window: total guests
// and number of reservations in status pending or confirmed.
type Load struct {
	Guests       int
	Reservations int
}

// Result is the advisory outcome of one availability check. A positive
// result does not hold the slot.
type Result struct {
	Available        bool
	Reason           string
	Suggestions      []time.Time
	CurrentOccupancy int
}

// OccupancySource reads the aggregated demand for a tenant inside a window.
type OccupancySource interface {
	WindowLoad(ctx context.Context, tenantID string, from, to time.Time) (Load, error)
}

// Checker applies Policy against live occupancy.
type Checker struct {
	policy Policy
	occ    OccupancySource
}

func NewChecker(policy Policy, occ OccupancySource) *Checker {
	if policy.Window <= 0 {
		policy.Window = DefaultPolicy.Window
	}
	return &Checker{policy: policy, occ: occ}
}

// Check runs the policy gates in order: operating hours, capacity,
// concurrency. Store failures are returned as errors; policy rejections are
// not errors.
func (c *Checker) Check(ctx context.Context, tenantID string, startTime time.Time, partySize int) (Result, error) {
	if partySize < 1 {
		return Result{}, fmt.Errorf("%w: party_size must be >= 1", contractx.ErrValidation)
	}

	if r, rejected := HoursGate(c.policy, startTime); rejected {
		return r, nil
	}

	load, err := c.occ.WindowLoad(ctx, tenantID, startTime.Add(-c.policy.Window), startTime.Add(c.policy.Window))
	if err != nil {
		return Result{}, fmt.Errorf("window load: %w", err)
	}

	return Apply(c.policy, startTime, partySize, load), nil
}

// HoursGate rejects requests outside operating hours and proposes three
// fixed same-day fallback slots. Placeholder policy, not a slot search.
func HoursGate(p Policy, startTime time.Time) (Result, bool) {
	hour := startTime.Hour()
	if hour >= p.OpenHour && hour <= p.CloseHour {
		return Result{}, false
	}
	return Result{
		Available: false,
		Reason:    ReasonOutsideHours,
		Suggestions: []time.Time{
			sameDayAt(startTime, 18),
			sameDayAt(startTime, 19),
			sameDayAt(startTime, 20),
		},
	}, true
}

// Apply evaluates the capacity and concurrency gates against an
// already-aggregated load. Pure; callers that hold a transaction reuse it
// against their own in-transaction aggregate.
func Apply(p Policy, startTime time.Time, partySize int, load Load) Result {
	if load.Guests+partySize > p.MaxCapacity {
		return Result{
			Available: false,
			Reason:    ReasonCapacity,
			Suggestions: []time.Time{
				startTime.Add(1 * time.Hour),
				startTime.Add(2 * time.Hour),
			},
			CurrentOccupancy: load.Guests,
		}
	}

	if load.Reservations >= p.MaxConcurrent {
		return Result{
			Available: false,
			Reason:    ReasonTooConcurrent,
			Suggestions: []time.Time{
				startTime.Add(30 * time.Minute),
				startTime.Add(1 * time.Hour),
			},
			CurrentOccupancy: load.Guests,
		}
	}

	return Result{
		Available:        true,
		CurrentOccupancy: load.Guests,
	}
}

func sameDayAt(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}
