// internal/scheduler/followup.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"uwizard-workers/internal/common/config"
	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/robfig/cron/v3"
)

// FollowUpMessageName correlates due follow-ups with waiting workflow
// instances keyed by merchant id.
const FollowUpMessageName = "follow-up-due"

// MessagePublisher delivers one due follow-up to the workflow engine.
type MessagePublisher interface {
	PublishFollowUpDue(ctx context.Context, followUp store.FollowUp) error
}

// FollowUpDispatcher polls the follow-up table on a cron spec and publishes
// a message for every entry whose due time has passed. Dispatched entries
// are marked so a crashed run never double-sends.
type FollowUpDispatcher struct {
	cron      *cron.Cron
	spec      string
	store     *store.Store
	publisher MessagePublisher
	logger    logger.Logger
	timeout   time.Duration
	now       func() time.Time
}

func NewFollowUpDispatcher(cfg config.SchedulerConfig, st *store.Store, publisher MessagePublisher, log logger.Logger) (*FollowUpDispatcher, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	return &FollowUpDispatcher{
		cron:      cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		spec:      cfg.DispatchSpec,
		store:     st,
		publisher: publisher,
		logger:    log.WithFields(map[string]interface{}{"component": "follow-up-dispatcher"}),
		timeout:   time.Minute,
		now:       time.Now,
	}, nil
}

// Start registers the dispatch task and begins the cron loop.
func (d *FollowUpDispatcher) Start() error {
	if _, err := d.cron.AddFunc(d.spec, d.runOnce); err != nil {
		return fmt.Errorf("register follow-up dispatch task: %w", err)
	}
	d.cron.Start()
	d.logger.Info("follow-up dispatcher started", map[string]interface{}{
		"spec": d.spec,
	})
	return nil
}

// Stop halts the cron loop and waits for an in-flight run to finish.
func (d *FollowUpDispatcher) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	d.logger.Info("follow-up dispatcher stopped", nil)
}

func (d *FollowUpDispatcher) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	dispatched, err := d.DispatchDue(ctx)
	if err != nil {
		d.logger.Error("follow-up dispatch run failed", map[string]interface{}{
			"error": err,
		})
		return
	}
	if dispatched > 0 {
		d.logger.Info("follow-ups dispatched", map[string]interface{}{
			"count": dispatched,
		})
	}
}

// DispatchDue publishes every due follow-up and returns how many went out.
// A publish failure skips the entry and leaves it pending for the next run.
func (d *FollowUpDispatcher) DispatchDue(ctx context.Context) (int, error) {
	due, err := d.store.DueFollowUps(ctx, d.now())
	if err != nil {
		return 0, fmt.Errorf("load due follow-ups: %w", err)
	}

	dispatched := 0
	for _, f := range due {
		if err := d.publisher.PublishFollowUpDue(ctx, f); err != nil {
			d.logger.Error("follow-up publish failed", map[string]interface{}{
				"followUpId": f.ID,
				"merchantId": f.MerchantID,
				"error":      err,
			})
			continue
		}
		if err := d.store.MarkFollowUpDispatched(ctx, f.ID); err != nil {
			d.logger.Error("follow-up state update failed", map[string]interface{}{
				"followUpId": f.ID,
				"error":      err,
			})
			continue
		}
		dispatched++
	}
	return dispatched, nil
}

// ZeebePublisher publishes follow-up messages through the broker, correlated
// on merchant id.
type ZeebePublisher struct {
	client zbc.Client
}

func NewZeebePublisher(client zbc.Client) *ZeebePublisher {
	return &ZeebePublisher{client: client}
}

func (p *ZeebePublisher) PublishFollowUpDue(ctx context.Context, followUp store.FollowUp) error {
	cmd, err := p.client.NewPublishMessageCommand().
		MessageName(FollowUpMessageName).
		CorrelationKey(followUp.MerchantID).
		VariablesFromObject(map[string]interface{}{
			"followUpId": followUp.ID,
			"merchantId": followUp.MerchantID,
			"reason":     followUp.Reason,
			"dueAt":      followUp.DueAt.Format(time.RFC3339),
		})
	if err != nil {
		return fmt.Errorf("build follow-up message: %w", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("publish follow-up message: %w", err)
	}
	return nil
}
