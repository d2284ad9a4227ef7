// internal/workers/intake/sync-crm-fields/handler.go
package synccrmfields

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/common/metrics"
	"uwizard-workers/internal/common/pipedrive"
	"uwizard-workers/internal/models"
	"uwizard-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "sync-crm-fields"

	crmSource     = "crm"
	crmConfidence = 0.9
)

var (
	ErrCRMNotConfigured = errors.New("CRM_NOT_CONFIGURED")
	ErrCRMSyncFailed    = errors.New("CRM_SYNC_FAILED")
)

// CRMService is the Pipedrive surface the worker needs, extracted so tests
// can substitute a stub.
type CRMService interface {
	IsConfigured() bool
	GetOrganization(ctx context.Context, orgID int) (*pipedrive.Organization, error)
}

type Handler struct {
	config *Config
	crm    CRMService
	store  *store.Store
	logger logger.Logger
}

func NewHandler(config *Config, crm CRMService, st *store.Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		crm:    crm,
		store:  st,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "CRM_SYNC_FAILED"
		if errors.Is(err, ErrCRMNotConfigured) {
			errorCode = "CRM_NOT_CONFIGURED"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if !h.crm.IsConfigured() {
		return nil, ErrCRMNotConfigured
	}
	if input.MerchantID == "" || input.OrgID == 0 {
		return nil, fmt.Errorf("%w: merchantId and orgId are required", ErrCRMSyncFailed)
	}

	org, err := h.crm.GetOrganization(ctx, input.OrgID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCRMSyncFailed, err)
	}

	mapped := []struct {
		fieldID string
		value   string
	}{
		{"business.legal_name", org.Name},
		{"business.address", org.Address},
		{"contact.phone", org.PrimaryPhone()},
		{"contact.email", org.PrimaryEmail()},
	}

	synced := []string{}
	for _, m := range mapped {
		if m.value == "" {
			continue
		}
		rec := models.FieldStateRecord{
			MerchantID: input.MerchantID,
			FieldID:    m.fieldID,
			Value:      m.value,
			Source:     crmSource,
			Confidence: crmConfidence,
		}
		if err := h.store.UpsertFieldState(ctx, rec); err != nil {
			return nil, fmt.Errorf("%w: persist %s: %v", ErrCRMSyncFailed, m.fieldID, err)
		}
		metrics.FieldStateUpdates.WithLabelValues(crmSource).Inc()
		synced = append(synced, m.fieldID)
	}

	h.logger.Info("crm fields synced", map[string]interface{}{
		"merchantId":   input.MerchantID,
		"orgId":        input.OrgID,
		"syncedFields": len(synced),
	})

	return &Output{SyncedFields: synced}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}
