// internal/workers/infrastructure/index-decision-event/handler.go
package indexdecisionevent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "index-decision-event"
)

var (
	ErrEventIndexFailed = errors.New("EVENT_INDEX_FAILED")
	ErrInvalidEvent     = errors.New("INVALID_EVENT")
)

// EventIndexer is the Elasticsearch surface the worker needs, extracted so
// tests can substitute a stub.
type EventIndexer interface {
	IndexDocument(ctx context.Context, index, documentID string, body []byte) error
}

type Handler struct {
	config  *Config
	indexer EventIndexer
	logger  logger.Logger
	now     func() time.Time
}

func NewHandler(config *Config, indexer EventIndexer, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		indexer: indexer,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:     time.Now,
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
		errorCode := "EVENT_INDEX_FAILED"
		if errors.Is(err, ErrInvalidEvent) {
			errorCode = "INVALID_EVENT"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.EventType == "" {
		return nil, fmt.Errorf("%w: eventType is required", ErrInvalidEvent)
	}

	documentID := uuid.New().String()
	indexedAt := h.now().UTC().Format(time.RFC3339)

	doc := event{
		EventType:  input.EventType,
		MerchantID: input.MerchantID,
		Payload:    input.Payload,
		Timestamp:  indexedAt,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal event: %v", ErrInvalidEvent, err)
	}

	if err := h.indexer.IndexDocument(ctx, h.config.Index, documentID, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEventIndexFailed, err)
	}

	h.logger.Info("event indexed", map[string]interface{}{
		"eventType":  input.EventType,
		"merchantId": input.MerchantID,
		"documentId": documentID,
		"index":      h.config.Index,
	})

	return &Output{DocumentID: documentID, Index: h.config.Index, IndexedAt: indexedAt}, nil
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
