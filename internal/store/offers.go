// internal/store/offers.go
package store

import (
	"context"
	"fmt"
	"time"

	"uwizard-workers/internal/models"
)

// SaveOffers persists one generated offer set atomically. A new set replaces
// any pending offers for the merchant so stale quotes cannot be accepted.
func (s *Store) SaveOffers(ctx context.Context, merchantID string, offers []models.Offer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin offers tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE offers SET status = 'superseded'
		WHERE merchant_id = $1 AND status = 'pending'`, merchantID); err != nil {
		return fmt.Errorf("supersede pending offers: %w", err)
	}

	now := time.Now().UTC()
	for _, offer := range offers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO offers
				(merchant_id, amount, fee, term_days, payback, est_daily, buy_rate, expected_margin, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9)`,
			merchantID, offer.Amount, offer.Fee, offer.TermDays, offer.Payback,
			offer.EstDaily, offer.BuyRate, offer.ExpectedMargin, now,
		); err != nil {
			return fmt.Errorf("insert offer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit offers tx: %w", err)
	}
	return nil
}

// PendingOffers returns the current pending offer set for a merchant, lowest
// amount first.
func (s *Store) PendingOffers(ctx context.Context, merchantID string) ([]models.Offer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT amount, fee, term_days, payback, est_daily, buy_rate, expected_margin
		FROM offers
		WHERE merchant_id = $1 AND status = 'pending'
		ORDER BY amount ASC`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("load pending offers: %w", err)
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		var o models.Offer
		if err := rows.Scan(&o.Amount, &o.Fee, &o.TermDays, &o.Payback, &o.EstDaily, &o.BuyRate, &o.ExpectedMargin); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}
