// internal/workers/decisioning/check-field-freshness/handler.go
package checkfieldfreshness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/common/metrics"
	"uwizard-workers/internal/decision/fields"
	"uwizard-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-field-freshness"
)

var (
	ErrMerchantNotFound = errors.New("MERCHANT_NOT_FOUND")
	ErrUnknownField     = errors.New("UNKNOWN_FIELD")
)

type Handler struct {
	config   *Config
	registry *fields.Registry
	store    *store.Store
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(config *Config, registry *fields.Registry, st *store.Store, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		registry: registry,
		store:    st,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:      time.Now,
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
		errorCode := "QUERY_EXECUTION_FAILED"
		switch {
		case errors.Is(err, ErrMerchantNotFound):
			errorCode = "MERCHANT_NOT_FOUND"
		case errors.Is(err, ErrUnknownField):
			errorCode = "UNKNOWN_FIELD"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	state := input.State
	if state == nil {
		if input.MerchantID == "" {
			return nil, fmt.Errorf("%w: merchantId is required when no state is supplied", ErrMerchantNotFound)
		}
		loaded, err := h.store.GetMerchantState(ctx, input.MerchantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrMerchantNotFound, input.MerchantID)
			}
			return nil, err
		}
		state = loaded
	}

	fieldIDs, err := h.resolveFieldIDs(input.Fields)
	if err != nil {
		return nil, err
	}

	now := h.now()
	output := &Output{
		Missing: []string{},
		Expired: []string{},
		Fresh:   []string{},
	}
	for _, id := range fieldIDs {
		status, ok := state.Fields[id]
		switch {
		case !ok || status.Value == nil || *status.Value == "":
			output.Missing = append(output.Missing, id)
		case h.registry.IsExpired(id, status, now):
			output.Expired = append(output.Expired, id)
		default:
			output.Fresh = append(output.Fresh, id)
		}
	}
	output.Complete = len(output.Missing) == 0 && len(output.Expired) == 0

	h.logger.Info("freshness checked", map[string]interface{}{
		"merchantId": state.MerchantID,
		"missing":    len(output.Missing),
		"expired":    len(output.Expired),
		"fresh":      len(output.Fresh),
		"complete":   output.Complete,
	})

	return output, nil
}

// resolveFieldIDs expands an empty field list to every required field in the
// registry. An explicit list must name only known fields.
func (h *Handler) resolveFieldIDs(requested []string) ([]string, error) {
	if len(requested) == 0 {
		var ids []string
		for _, def := range h.registry.All() {
			if def.Required {
				ids = append(ids, def.ID)
			}
		}
		return ids, nil
	}

	for _, id := range requested {
		if _, ok := h.registry.Lookup(id); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, id)
		}
	}
	return requested, nil
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
