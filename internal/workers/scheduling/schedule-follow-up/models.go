// internal/workers/scheduling/schedule-follow-up/models.go
package schedulefollowup

type Input struct {
	MerchantID string `json:"merchantId"`
	Days       int    `json:"days,omitempty"`
	Reason     string `json:"reason"`
}

type Output struct {
	FollowUpID int64  `json:"followUpId"`
	DueAt      string `json:"dueAt"`
}
