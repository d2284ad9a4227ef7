// internal/workers/underwriting/generate-offers/handler.go
package generateoffers

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
	TaskType = "generate-offers"
)

var (
	ErrNoMetrics          = errors.New("METRICS_VALIDATION_FAILED")
	ErrOfferPersistFailed = errors.New("OFFER_PERSIST_FAILED")
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
		switch {
		case errors.Is(err, ErrNoMetrics):
			errorCode = "METRICS_VALIDATION_FAILED"
		case errors.Is(err, ErrOfferPersistFailed):
			errorCode = "OFFER_PERSIST_FAILED"
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

	result := underwriting.Propose(*m, input.Overrides)

	output := &Output{
		Offers:          result.Offers,
		BaseAmount:      result.BaseAmount,
		Rejected:        result.RejectionReason != "",
		RejectionReason: result.RejectionReason,
	}

	if output.Rejected {
		metrics.GuardrailRejections.WithLabelValues(result.RejectionReason).Inc()
		h.logger.Info("offers rejected by guardrails", map[string]interface{}{
			"merchantId": input.MerchantID,
			"reason":     result.RejectionReason,
		})
		return output, nil
	}

	if h.shouldPersist(input) {
		if err := h.store.SaveOffers(ctx, input.MerchantID, result.Offers); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOfferPersistFailed, err)
		}
	}

	metrics.OffersGenerated.Add(float64(len(result.Offers)))

	h.logger.Info("offers generated", map[string]interface{}{
		"merchantId": input.MerchantID,
		"offerCount": len(result.Offers),
		"baseAmount": result.BaseAmount,
	})

	return output, nil
}

// shouldPersist defaults to true whenever a merchant id is present. Pricing
// previews pass persist=false or omit the merchant id entirely.
func (h *Handler) shouldPersist(input *Input) bool {
	if input.MerchantID == "" {
		return false
	}
	if input.Persist != nil {
		return *input.Persist
	}
	return true
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
