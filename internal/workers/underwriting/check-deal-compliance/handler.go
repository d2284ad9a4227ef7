// internal/workers/underwriting/check-deal-compliance/handler.go
package checkdealcompliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/common/metrics"
	"uwizard-workers/internal/store"
	"uwizard-workers/internal/underwriting"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-deal-compliance"
)

var (
	ErrNoMetrics = errors.New("METRICS_VALIDATION_FAILED")
)

type Handler struct {
	config *Config
	store  *store.Store
	logger logger.Logger
}

func NewHandler(config *Config, st *store.Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
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
		errorCode := "QUERY_EXECUTION_FAILED"
		if errors.Is(err, ErrNoMetrics) {
			errorCode = "METRICS_VALIDATION_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	m := input.Metrics
	if m == nil {
		if input.MerchantID == "" {
			return nil, fmt.Errorf("%w: merchantId is required when no metrics are supplied", ErrNoMetrics)
		}
		loaded, err := h.store.LoadMetrics(ctx, input.MerchantID)
		if err != nil {
			return nil, err
		}
		if loaded == nil {
			return nil, fmt.Errorf("%w: no statement metrics on file for %s", ErrNoMetrics, input.MerchantID)
		}
		m = loaded
	}

	state, err := h.resolveState(ctx, input)
	if err != nil {
		return nil, err
	}

	output := &Output{
		Report: underwriting.EvaluateCompliance(*m, state),
	}
	if input.Deal != nil {
		output.DealIssues = underwriting.ValidateDealTerms(
			input.Deal.Amount, input.Deal.FeeRate, input.Deal.TermDays,
			m.AvgMonthlyRevenue, state,
		)
	}

	h.logger.Info("compliance evaluated", map[string]interface{}{
		"merchantId": input.MerchantID,
		"state":      state,
		"decision":   string(output.Report.Decision),
		"violations": len(output.Report.Violations),
		"dealIssues": len(output.DealIssues),
	})

	return output, nil
}

// resolveState prefers the explicit input, then the merchant's stored
// business.state field, then the configured default jurisdiction.
func (h *Handler) resolveState(ctx context.Context, input *Input) (string, error) {
	if input.State != "" {
		return input.State, nil
	}
	if input.MerchantID != "" {
		merchantState, err := h.store.GetMerchantState(ctx, input.MerchantID)
		if err == nil {
			if v, ok := merchantState.FieldValue("business.state"); ok && v != "" {
				return v, nil
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return "", err
		}
	}
	return h.config.DefaultState, nil
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
