package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/ktios/frontdesk/agent/availability"
)

// Config for the Postgres-backed store.
type Config struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

// OpenDB dials Postgres through pgdriver and wraps it in a bun.DB.
func OpenDB(cfg Config) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Postgres implements Store on a shared bun.DB. Every mutating method is one
// transaction with standard commit/rollback; there are no application-level
// locks besides the per-bucket advisory lock in CreateConfirmed.
type Postgres struct {
	db  *bun.DB
	now func() time.Time
}

var _ Store = (*Postgres)(nil)

func NewPostgres(db *bun.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

func (p *Postgres) WindowLoad(ctx context.Context, tenantID string, from, to time.Time) (availability.Load, error) {
	return windowLoad(ctx, p.db, tenantID, from, to)
}

func windowLoad(ctx context.Context, db bun.IDB, tenantID string, from, to time.Time) (availability.Load, error) {
	var load availability.Load
	err := db.NewSelect().
		Model((*Reservation)(nil)).
		ColumnExpr("count(*)").
		ColumnExpr("coalesce(sum(party_size), 0)").
		Where("tenant_id = ?", tenantID).
		Where("status IN (?)", bun.In([]ReservationStatus{ReservationPending, ReservationConfirmed})).
		Where("start_time BETWEEN ? AND ?", from, to).
		Scan(ctx, &load.Reservations, &load.Guests)
	if err != nil {
		return availability.Load{}, fmt.Errorf("aggregate window load: %w", err)
	}
	return load, nil
}

// CreateConfirmed serializes concurrent creates per (tenant, 2h start-time
// bucket) with a transactional advisory lock, re-runs the policy gates on
// in-transaction aggregates, and only then writes. Two overlapping creates
// therefore cannot both pass the capacity gate.
func (p *Postgres) CreateConfirmed(ctx context.Context, policy availability.Policy, params CreateParams) (CreateOutcome, error) {
	var out CreateOutcome

	err := p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("SELECT pg_advisory_xact_lock(?)", createLockKey(params.TenantID, params.StartTime)).Exec(ctx); err != nil {
			return fmt.Errorf("acquire create lock: %w", err)
		}

		if r, rejected := availability.HoursGate(policy, params.StartTime); rejected {
			out.Rejection = &r
			return nil
		}
		load, err := windowLoad(ctx, tx, params.TenantID, params.StartTime.Add(-policy.Window), params.StartTime.Add(policy.Window))
		if err != nil {
			return err
		}
		if r := availability.Apply(policy, params.StartTime, params.PartySize, load); !r.Available {
			out.Rejection = &r
			return nil
		}

		now := p.now().UTC()
		cust := &Customer{
			ID:        uuid.NewString(),
			TenantID:  params.TenantID,
			FullName:  params.CustomerName,
			PhoneE164: params.CustomerPhone,
			Email:     params.CustomerEmail,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := tx.NewInsert().
			Model(cust).
			On("CONFLICT (tenant_id, phone_e164) DO UPDATE").
			Set("full_name = coalesce(c.full_name, EXCLUDED.full_name)").
			Set("email = coalesce(c.email, EXCLUDED.email)").
			Set("updated_at = EXCLUDED.updated_at").
			Returning("*").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert customer: %w", err)
		}

		res := &Reservation{
			ID:                   uuid.NewString(),
			TenantID:             params.TenantID,
			CustomerID:           cust.ID,
			SourceConversationID: params.SourceConversationID,
			PartySize:            params.PartySize,
			StartTime:            params.StartTime,
			Status:               ReservationConfirmed,
			Notes:                params.Notes,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if _, err := tx.NewInsert().Model(res).Exec(ctx); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}

		out.Reservation = res
		out.Customer = cust
		return nil
	})
	if err != nil {
		return CreateOutcome{}, err
	}
	return out, nil
}

func (p *Postgres) ModifyReservation(ctx context.Context, tenantID, reservationID string, ch Changes) (*Reservation, error) {
	if ch.IsEmpty() {
		return nil, ErrNoChanges
	}

	res := new(Reservation)
	err := p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(res).
			Where("r.id = ?", reservationID).
			Where("r.tenant_id = ?", tenantID).
			For("UPDATE").
			Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("load reservation: %w", err)
		}

		q := tx.NewUpdate().
			Model((*Reservation)(nil)).
			Where("id = ?", reservationID).
			Where("tenant_id = ?", tenantID).
			Set("updated_at = ?", p.now().UTC())

		if ch.StartTime != nil {
			res.StartTime = *ch.StartTime
			q = q.Set("start_time = ?", *ch.StartTime)
		}
		if ch.PartySize != nil {
			res.PartySize = *ch.PartySize
			q = q.Set("party_size = ?", *ch.PartySize)
		}
		if ch.Notes != nil {
			res.Notes = *ch.Notes
			q = q.Set("notes = ?", *ch.Notes)
		}
		if ch.Status != nil {
			if !CanTransition(res.Status, *ch.Status) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, *ch.Status)
			}
			res.Status = *ch.Status
			q = q.Set("status = ?", *ch.Status)
		}

		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.UpdatedAt = p.now().UTC()
	return res, nil
}

func (p *Postgres) CancelReservation(ctx context.Context, tenantID, reservationID, reason string) (*Reservation, error) {
	res := new(Reservation)
	err := p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(res).
			Where("r.id = ?", reservationID).
			Where("r.tenant_id = ?", tenantID).
			For("UPDATE").
			Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("load reservation: %w", err)
		}
		if res.Status.IsTerminal() {
			return fmt.Errorf("%w: %s", ErrTerminalStatus, res.Status)
		}

		res.Status = ReservationCancelled
		res.Notes = AppendNote(res.Notes, "Annulation: "+reason)
		res.UpdatedAt = p.now().UTC()

		if _, err := tx.NewUpdate().
			Model((*Reservation)(nil)).
			Where("id = ?", reservationID).
			Where("tenant_id = ?", tenantID).
			Set("status = ?", res.Status).
			Set("notes = ?", res.Notes).
			Set("updated_at = ?", res.UpdatedAt).
			Exec(ctx); err != nil {
			return fmt.Errorf("cancel reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Postgres) OpenHandoff(ctx context.Context, tenantID, conversationID, reason string, priority HandoffPriority) (*HandoffRequest, error) {
	now := p.now().UTC()
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

	err := p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(req).Exec(ctx); err != nil {
			return fmt.Errorf("insert handoff request: %w", err)
		}
		if _, err := tx.NewUpdate().
			Model((*Conversation)(nil)).
			Where("id = ?", conversationID).
			Where("tenant_id = ?", tenantID).
			Set("status = ?", ConversationHandoff).
			Set("updated_at = ?", now).
			Exec(ctx); err != nil {
			return fmt.Errorf("mark conversation handoff: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (p *Postgres) ConversationSuppressed(ctx context.Context, tenantID, conversationID string) (bool, error) {
	suppressed, err := p.db.NewSelect().
		Model((*Conversation)(nil)).
		Where("cv.id = ?", conversationID).
		Where("cv.tenant_id = ?", tenantID).
		Where("cv.status = ?", ConversationHandoff).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("read conversation status: %w", err)
	}
	return suppressed, nil
}

func (p *Postgres) AppendMessage(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = p.now().UTC()
	}
	if _, err := p.db.NewInsert().Model(msg).Exec(ctx); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// createLockKey buckets the requested start time into the availability
// window size so overlapping creates for the same slot contend on one lock.
func createLockKey(tenantID string, startTime time.Time) int64 {
	bucket := startTime.UTC().Truncate(2 * time.Hour).Unix()
	h := fnv.New64a()
	h.Write([]byte(tenantID))
	fmt.Fprintf(h, ":%d", bucket)
	return int64(h.Sum64())
}
