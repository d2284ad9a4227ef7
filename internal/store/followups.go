// internal/store/followups.go
package store

import (
	"context"
	"fmt"
	"time"
)

// FollowUp is one scheduled re-engagement of a merchant.
type FollowUp struct {
	ID         int64     `json:"id"`
	MerchantID string    `json:"merchantId"`
	DueAt      time.Time `json:"dueAt"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
}

// ScheduleFollowUp inserts a pending follow-up and returns its id.
func (s *Store) ScheduleFollowUp(ctx context.Context, merchantID string, dueAt time.Time, reason string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO follow_ups (merchant_id, due_at, reason, status, created_at)
		VALUES ($1, $2, $3, 'pending', $4)
		RETURNING id`,
		merchantID, dueAt.UTC(), reason, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("schedule follow-up: %w", err)
	}
	return id, nil
}

// DueFollowUps returns pending follow-ups whose due time has passed.
func (s *Store) DueFollowUps(ctx context.Context, now time.Time) ([]FollowUp, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, merchant_id, due_at, reason, status
		FROM follow_ups
		WHERE status = 'pending' AND due_at <= $1
		ORDER BY due_at ASC`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("load due follow-ups: %w", err)
	}
	defer rows.Close()

	var due []FollowUp
	for rows.Next() {
		var f FollowUp
		if err := rows.Scan(&f.ID, &f.MerchantID, &f.DueAt, &f.Reason, &f.Status); err != nil {
			return nil, fmt.Errorf("scan follow-up: %w", err)
		}
		due = append(due, f)
	}
	return due, rows.Err()
}

// MarkFollowUpDispatched flips one follow-up out of the pending state.
func (s *Store) MarkFollowUpDispatched(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE follow_ups SET status = 'dispatched', dispatched_at = $2
		WHERE id = $1 AND status = 'pending'`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark follow-up dispatched: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("follow-up %d: %w", id, ErrNotFound)
	}
	return nil
}
