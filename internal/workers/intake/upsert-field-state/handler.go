// internal/workers/intake/upsert-field-state/handler.go
package upsertfieldstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/common/metrics"
	"uwizard-workers/internal/decision/fields"
	"uwizard-workers/internal/models"
	"uwizard-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "upsert-field-state"

	defaultSource     = "conversation"
	defaultConfidence = 1.0
)

var (
	ErrUnknownField     = errors.New("UNKNOWN_FIELD")
	ErrValidationFailed = errors.New("FIELD_VALIDATION_FAILED")
)

type Handler struct {
	config   *Config
	registry *fields.Registry
	store    *store.Store
	logger   logger.Logger
}

func NewHandler(config *Config, registry *fields.Registry, st *store.Store, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		registry: registry,
		store:    st,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		errorCode := "DATABASE_INSERT_FAILED"
		switch {
		case errors.Is(err, ErrUnknownField):
			errorCode = "UNKNOWN_FIELD"
		case errors.Is(err, ErrValidationFailed):
			errorCode = "FIELD_VALIDATION_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.MerchantID == "" {
		return nil, fmt.Errorf("%w: merchantId is required", ErrValidationFailed)
	}
	if _, ok := h.registry.Lookup(input.FieldID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, input.FieldID)
	}
	if !h.registry.ValidateValue(input.FieldID, input.Value) {
		return nil, fmt.Errorf("%w: value rejected for %s", ErrValidationFailed, input.FieldID)
	}

	source := input.Source
	if source == "" {
		source = defaultSource
	}
	confidence := input.Confidence
	if confidence == 0 {
		confidence = defaultConfidence
	}

	rec := models.FieldStateRecord{
		MerchantID: input.MerchantID,
		FieldID:    input.FieldID,
		Value:      input.Value,
		Source:     source,
		Confidence: confidence,
	}
	if err := h.store.UpsertFieldState(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert field state: %w", err)
	}

	metrics.FieldStateUpdates.WithLabelValues(source).Inc()

	h.logger.Info("field state upserted", map[string]interface{}{
		"merchantId": input.MerchantID,
		"fieldId":    input.FieldID,
		"source":     source,
	})

	return &Output{Updated: true, FieldID: input.FieldID}, nil
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
