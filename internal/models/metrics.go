// internal/models/metrics.go
package models

// MonthlyMetrics is one statement month of the optional breakdown.
type MonthlyMetrics struct {
	StatementMonth  string  `json:"statement_month"`
	TotalDeposits   float64 `json:"total_deposits"`
	AvgDailyBalance float64 `json:"avg_daily_balance"`
	EndingBalance   float64 `json:"ending_balance"`
	NSFCount        int     `json:"nsf_count"`
	DaysNegative    int     `json:"days_negative"`
}

// AggregateMonths rolls a set of statement months up into the snapshot shape.
// Averages use the number of months provided, so callers pass the trailing
// window they care about (normally three).
func AggregateMonths(months []MonthlyMetrics) Metrics {
	m := Metrics{Months: months}
	if len(months) == 0 {
		return m
	}

	var deposits, balance float64
	for _, month := range months {
		deposits += month.TotalDeposits
		balance += month.AvgDailyBalance
		m.TotalNSF3M += month.NSFCount
		m.TotalDaysNegative3M += month.DaysNegative
	}
	m.AvgMonthlyRevenue = deposits / float64(len(months))
	m.AvgDailyBalance3M = balance / float64(len(months))
	return m
}

// Metrics is the financial snapshot supplied per underwriting request.
type Metrics struct {
	AvgMonthlyRevenue   float64          `json:"avg_monthly_revenue"`
	AvgDailyBalance3M   float64          `json:"avg_daily_balance_3m"`
	TotalNSF3M          int              `json:"total_nsf_3m"`
	TotalDaysNegative3M int              `json:"total_days_negative_3m"`
	Months              []MonthlyMetrics `json:"months,omitempty"`
}
