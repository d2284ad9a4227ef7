// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Decisioning / Underwriting Errors
const (
	ErrCodeRuleCatalogLoadFailed     ErrorCode = "RULE_CATALOG_LOAD_FAILED"
	ErrCodeTemplateCatalogLoadFailed ErrorCode = "TEMPLATE_CATALOG_LOAD_FAILED"
	ErrCodeTemplateNotFound          ErrorCode = "TEMPLATE_NOT_FOUND"

	ErrCodeFieldValidationFailed   ErrorCode = "FIELD_VALIDATION_FAILED"
	ErrCodeUnknownField            ErrorCode = "UNKNOWN_FIELD"
	ErrCodeMetricsValidationFailed ErrorCode = "METRICS_VALIDATION_FAILED"
	ErrCodeMerchantNotFound        ErrorCode = "MERCHANT_NOT_FOUND"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeOfferPersistFailed       ErrorCode = "OFFER_PERSIST_FAILED"

	ErrCodeEventIndexFailed              ErrorCode = "EVENT_INDEX_FAILED"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"

	ErrCodeMessageSendFailed ErrorCode = "MESSAGE_SEND_FAILED"

	ErrCodeCRMSyncFailed    ErrorCode = "CRM_SYNC_FAILED"
	ErrCodeCRMNotConfigured ErrorCode = "CRM_NOT_CONFIGURED"

	ErrCodeFollowUpScheduleFailed ErrorCode = "FOLLOWUP_SCHEDULE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewRuleCatalogLoadFailedError creates a retryable catalog load error.
func NewRuleCatalogLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRuleCatalogLoadFailed,
		Message:   "Failed to load rule catalog",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateCatalogLoadFailedError creates a retryable catalog load error.
func NewTemplateCatalogLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateCatalogLoadFailed,
		Message:   "Failed to load template catalog",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template error.
func NewTemplateNotFoundError(templateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Template not found in catalog",
		Details:   fmt.Sprintf("templateId: %s", templateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFieldValidationFailedError creates a non-retryable field validation error.
func NewFieldValidationFailedError(fieldID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFieldValidationFailed,
		Message:   "Field value failed validation",
		Details:   fmt.Sprintf("fieldId: %s, %s", fieldID, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownFieldError creates a non-retryable unknown field error.
func NewUnknownFieldError(fieldID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownField,
		Message:   "Field is not part of the field catalog",
		Details:   fmt.Sprintf("fieldId: %s", fieldID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMetricsValidationFailedError creates a non-retryable metrics validation error.
func NewMetricsValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMetricsValidationFailed,
		Message:   "Bank statement metrics failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMerchantNotFoundError creates a non-retryable merchant lookup error.
func NewMerchantNotFoundError(merchantID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMerchantNotFound,
		Message:   "Merchant not found",
		Details:   fmt.Sprintf("merchantId: %s", merchantID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOfferPersistFailedError creates a retryable offer persistence error.
func NewOfferPersistFailedError(merchantID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOfferPersistFailed,
		Message:   "Failed to persist generated offers",
		Details:   fmt.Sprintf("merchantId: %s, error: %s", merchantID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventIndexFailedError creates a retryable event indexing error.
func NewEventIndexFailedError(eventType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventIndexFailed,
		Message:   "Failed to index decision event",
		Details:   fmt.Sprintf("eventType: %s, error: %s", eventType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMessageSendFailedError creates a retryable message delivery error.
func NewMessageSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMessageSendFailed,
		Message:   "Merchant message delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCRMSyncFailedError creates a retryable CRM sync error.
func NewCRMSyncFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCRMSyncFailed,
		Message:   "CRM deal sync failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCRMNotConfiguredError creates a non-retryable CRM configuration error.
func NewCRMNotConfiguredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeCRMNotConfigured,
		Message:   "CRM integration is not configured",
		Details:   "missing API token",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFollowUpScheduleFailedError creates a retryable follow-up scheduling error.
func NewFollowUpScheduleFailedError(merchantID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFollowUpScheduleFailed,
		Message:   "Failed to schedule follow-up",
		Details:   fmt.Sprintf("merchantId: %s, error: %s", merchantID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      "AUTHENTICATION_ERROR",
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeRuleCatalogLoadFailed:         "RULE_CATALOG_LOAD_FAILED",
	ErrCodeTemplateCatalogLoadFailed:     "TEMPLATE_CATALOG_LOAD_FAILED",
	ErrCodeTemplateNotFound:              "TEMPLATE_NOT_FOUND",
	ErrCodeFieldValidationFailed:         "FIELD_VALIDATION_FAILED",
	ErrCodeUnknownField:                  "UNKNOWN_FIELD",
	ErrCodeMetricsValidationFailed:       "METRICS_VALIDATION_FAILED",
	ErrCodeMerchantNotFound:              "MERCHANT_NOT_FOUND",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeDatabaseInsertFailed:          "DATABASE_INSERT_FAILED",
	ErrCodeOfferPersistFailed:            "OFFER_PERSIST_FAILED",
	ErrCodeEventIndexFailed:              "EVENT_INDEX_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeMessageSendFailed:             "MESSAGE_SEND_FAILED",
	ErrCodeCRMSyncFailed:                 "CRM_SYNC_FAILED",
	ErrCodeCRMNotConfigured:              "CRM_NOT_CONFIGURED",
	ErrCodeFollowUpScheduleFailed:        "FOLLOWUP_SCHEDULE_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRuleCatalogLoadFailed,
		ErrCodeTemplateCatalogLoadFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeOfferPersistFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeMessageSendFailed,
		ErrCodeFollowUpScheduleFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeEventIndexFailed,
		ErrCodeCRMSyncFailed:
		return 2 // Partial retry for timeouts and third-party sync

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CATALOG") || strings.Contains(codeStr, "TEMPLATE"):
		return "CATALOG"
	case strings.Contains(codeStr, "FIELD") || strings.Contains(codeStr, "METRICS"):
		return "VALIDATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "OFFER_PERSIST"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "MESSAGE"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CRM"):
		return "CRM"
	case strings.Contains(codeStr, "FOLLOWUP"):
		return "SCHEDULING"
	default:
		return "OTHER"
	}
}
