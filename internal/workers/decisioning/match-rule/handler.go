// internal/workers/decisioning/match-rule/handler.go
package matchrule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/common/metrics"
	"uwizard-workers/internal/decision/conditions"
	"uwizard-workers/internal/decision/fields"
	"uwizard-workers/internal/decision/rules"
	"uwizard-workers/internal/models"
	"uwizard-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "match-rule"

	stateCachePrefix = "merchant:state:"
)

var (
	ErrMerchantNotFound = errors.New("MERCHANT_NOT_FOUND")
)

type Handler struct {
	config  *Config
	catalog *rules.Catalog
	engine  *rules.Engine
	store   *store.Store
	redis   *redis.Client
	logger  logger.Logger
}

func NewHandler(config *Config, catalog *rules.Catalog, st *store.Store, rdb *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		catalog: catalog,
		engine:  rules.NewEngine(conditions.NewEvaluator(fields.Builtin())),
		store:   st,
		redis:   rdb,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		errorCode := "RULE_CATALOG_LOAD_FAILED"
		if errors.Is(err, ErrMerchantNotFound) {
			errorCode = "MERCHANT_NOT_FOUND"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	state, err := h.loadState(ctx, input)
	if err != nil {
		return nil, err
	}

	result := h.engine.Match(h.catalog.Snapshot(), *state)

	output := &Output{Actions: result.Actions}
	outcome := "no_match"
	if result.Matched != nil {
		output.Matched = true
		output.RuleID = result.Matched.ID
		output.RuleName = result.Matched.Name
		outcome = result.Matched.ID
	}
	metrics.RuleMatches.WithLabelValues(outcome).Inc()

	h.logger.Info("rule evaluation finished", map[string]interface{}{
		"merchantId": state.MerchantID,
		"matched":    output.Matched,
		"ruleId":     output.RuleID,
		"actions":    len(output.Actions),
	})

	return output, nil
}

func (h *Handler) loadState(ctx context.Context, input *Input) (*models.MerchantState, error) {
	if input.State != nil {
		return input.State, nil
	}
	if input.MerchantID == "" {
		return nil, fmt.Errorf("%w: merchantId is required when no state is supplied", ErrMerchantNotFound)
	}

	cacheKey := stateCachePrefix + input.MerchantID
	if h.redis != nil {
		if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var state models.MerchantState
			if err := json.Unmarshal([]byte(val), &state); err == nil {
				return &state, nil
			}
		}
	}

	state, err := h.store.GetMerchantState(ctx, input.MerchantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMerchantNotFound, input.MerchantID)
		}
		return nil, err
	}

	if h.redis != nil {
		if data, err := json.Marshal(state); err == nil {
			h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)
		}
	}

	return state, nil
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
