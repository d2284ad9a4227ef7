// internal/workers/intake/sync-crm-fields/models.go
package synccrmfields

type Input struct {
	MerchantID string `json:"merchantId"`
	OrgID      int    `json:"orgId"`
}

type Output struct {
	SyncedFields []string `json:"syncedFields"`
}
