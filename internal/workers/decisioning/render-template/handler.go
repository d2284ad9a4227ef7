// internal/workers/decisioning/render-template/handler.go
package rendertemplate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/common/metrics"
	"uwizard-workers/internal/decision/templates"
	"uwizard-workers/internal/models"
	"uwizard-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "render-template"
)

var (
	ErrTemplateNotFound = errors.New("TEMPLATE_NOT_FOUND")
	ErrMerchantNotFound = errors.New("MERCHANT_NOT_FOUND")
)

type Handler struct {
	config   *Config
	catalog  *templates.Catalog
	renderer *templates.Renderer
	store    *store.Store
	logger   logger.Logger
}

func NewHandler(config *Config, catalog *templates.Catalog, st *store.Store, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		catalog:  catalog,
		renderer: templates.NewRenderer(catalog),
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
		errorCode := "TEMPLATE_NOT_FOUND"
		if errors.Is(err, ErrMerchantNotFound) {
			errorCode = "MERCHANT_NOT_FOUND"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if _, ok := h.catalog.Get(input.TemplateID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, input.TemplateID)
	}

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

	persona := models.DefaultPersona()
	if input.Persona != nil {
		persona = *input.Persona
	}

	text := h.renderer.Render(input.TemplateID, *state, persona)
	metrics.TemplateRenders.WithLabelValues(input.TemplateID).Inc()

	h.logger.Info("template rendered", map[string]interface{}{
		"merchantId": state.MerchantID,
		"templateId": input.TemplateID,
		"length":     len(text),
	})

	return &Output{TemplateID: input.TemplateID, Text: text}, nil
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
