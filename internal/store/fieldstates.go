// internal/store/fieldstates.go
package store

import (
	"context"
	"fmt"
	"time"

	"uwizard-workers/internal/models"
)

// UpsertFieldState writes one collected field value. An existing row for the
// same (merchant, field) pair is overwritten and its verification timestamp
// refreshed.
func (s *Store) UpsertFieldState(ctx context.Context, rec models.FieldStateRecord) error {
	verifiedAt := rec.LastVerifiedAt
	if verifiedAt == nil {
		now := time.Now().UTC()
		verifiedAt = &now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO field_states
			(merchant_id, field_id, value, source, confidence, last_verified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (merchant_id, field_id) DO UPDATE SET
			value = EXCLUDED.value,
			source = EXCLUDED.source,
			confidence = EXCLUDED.confidence,
			last_verified_at = EXCLUDED.last_verified_at`,
		rec.MerchantID, rec.FieldID, rec.Value, rec.Source, rec.Confidence, *verifiedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert field state: %w", err)
	}
	return nil
}

// ClearFieldState removes a collected value, returning the field to missing.
func (s *Store) ClearFieldState(ctx context.Context, merchantID, fieldID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM field_states
		WHERE merchant_id = $1 AND field_id = $2`,
		merchantID, fieldID,
	)
	if err != nil {
		return fmt.Errorf("clear field state: %w", err)
	}
	return nil
}
