// internal/workers/infrastructure/index-decision-event/models.go
package indexdecisionevent

type Input struct {
	EventType  string                 `json:"eventType"`
	MerchantID string                 `json:"merchantId"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

type Output struct {
	DocumentID string `json:"documentId"`
	Index      string `json:"index"`
	IndexedAt  string `json:"indexedAt"`
}

// event is the document shape written to the index.
type event struct {
	EventType  string                 `json:"event_type"`
	MerchantID string                 `json:"merchant_id"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Timestamp  string                 `json:"@timestamp"`
}
