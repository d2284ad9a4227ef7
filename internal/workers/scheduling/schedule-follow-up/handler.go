// internal/workers/scheduling/schedule-follow-up/handler.go
package schedulefollowup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/common/metrics"
	"uwizard-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "schedule-follow-up"
)

var (
	ErrScheduleFailed = errors.New("FOLLOWUP_SCHEDULE_FAILED")
)

type Handler struct {
	config *Config
	store  *store.Store
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, st *store.Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  st,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
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
		h.failJob(client, job, "FOLLOWUP_SCHEDULE_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.MerchantID == "" {
		return nil, fmt.Errorf("%w: merchantId is required", ErrScheduleFailed)
	}
	days := input.Days
	if days <= 0 {
		days = h.config.DefaultDays
	}

	dueAt := h.now().UTC().AddDate(0, 0, days)
	id, err := h.store.ScheduleFollowUp(ctx, input.MerchantID, dueAt, input.Reason)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScheduleFailed, err)
	}

	metrics.FollowUpsScheduled.Inc()

	h.logger.Info("follow-up scheduled", map[string]interface{}{
		"merchantId": input.MerchantID,
		"followUpId": id,
		"dueAt":      dueAt.Format(time.RFC3339),
		"reason":     input.Reason,
	})

	return &Output{FollowUpID: id, DueAt: dueAt.Format(time.RFC3339)}, nil
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
