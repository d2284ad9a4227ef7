// internal/store/merchants.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"uwizard-workers/internal/models"
)

// GetMerchant loads the identity row for a merchant.
func (s *Store) GetMerchant(ctx context.Context, merchantID string) (*models.Merchant, error) {
	var m models.Merchant
	var dba, phone, email sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, legal_name, dba, phone, email, status
		FROM merchants
		WHERE id = $1`, merchantID).Scan(
		&m.ID, &m.LegalName, &dba, &phone, &email, &m.Status,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("merchant %s: %w", merchantID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load merchant: %w", err)
	}

	m.DBA = dba.String
	m.Phone = phone.String
	m.Email = email.String
	return &m, nil
}

// GetMerchantState assembles the full decisioning snapshot: identity,
// collected field states, and the trailing statement metrics when present.
func (s *Store) GetMerchantState(ctx context.Context, merchantID string) (*models.MerchantState, error) {
	merchant, err := s.GetMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	fields, err := s.loadFieldStates(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	metrics, err := s.LoadMetrics(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	return &models.MerchantState{
		MerchantID: merchant.ID,
		Status:     merchant.Status,
		Fields:     fields,
		Metrics:    metrics,
	}, nil
}

func (s *Store) loadFieldStates(ctx context.Context, merchantID string) (map[string]models.FieldStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT field_id, value, last_verified_at
		FROM field_states
		WHERE merchant_id = $1`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("load field states: %w", err)
	}
	defer rows.Close()

	fields := make(map[string]models.FieldStatus)
	for rows.Next() {
		var fieldID string
		var value sql.NullString
		var verifiedAt sql.NullTime

		if err := rows.Scan(&fieldID, &value, &verifiedAt); err != nil {
			return nil, fmt.Errorf("scan field state: %w", err)
		}

		var st models.FieldStatus
		if value.Valid {
			v := value.String
			st.Value = &v
		}
		if verifiedAt.Valid {
			t := verifiedAt.Time
			st.LastVerifiedAt = &t
		}
		fields[fieldID] = st
	}
	return fields, rows.Err()
}

// LoadMetrics aggregates the three most recent statement months. Returns nil
// when the merchant has no statements on file.
func (s *Store) LoadMetrics(ctx context.Context, merchantID string) (*models.Metrics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT statement_month, total_deposits, avg_daily_balance, ending_balance, nsf_count, days_negative
		FROM statement_metrics
		WHERE merchant_id = $1
		ORDER BY statement_month DESC
		LIMIT 3`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("load statement metrics: %w", err)
	}
	defer rows.Close()

	var months []models.MonthlyMetrics
	for rows.Next() {
		var m models.MonthlyMetrics
		if err := rows.Scan(&m.StatementMonth, &m.TotalDeposits, &m.AvgDailyBalance, &m.EndingBalance, &m.NSFCount, &m.DaysNegative); err != nil {
			return nil, fmt.Errorf("scan statement month: %w", err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(months) == 0 {
		return nil, nil
	}

	metrics := models.AggregateMonths(months)
	return &metrics, nil
}

// SaveMonthlyMetrics upserts one statement month for a merchant.
func (s *Store) SaveMonthlyMetrics(ctx context.Context, merchantID string, month models.MonthlyMetrics) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO statement_metrics
			(merchant_id, statement_month, total_deposits, avg_daily_balance, ending_balance, nsf_count, days_negative, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (merchant_id, statement_month) DO UPDATE SET
			total_deposits = EXCLUDED.total_deposits,
			avg_daily_balance = EXCLUDED.avg_daily_balance,
			ending_balance = EXCLUDED.ending_balance,
			nsf_count = EXCLUDED.nsf_count,
			days_negative = EXCLUDED.days_negative,
			updated_at = EXCLUDED.updated_at`,
		merchantID, month.StatementMonth, month.TotalDeposits, month.AvgDailyBalance,
		month.EndingBalance, month.NSFCount, month.DaysNegative, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save statement month: %w", err)
	}
	return nil
}
