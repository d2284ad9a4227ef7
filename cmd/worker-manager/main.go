// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"uwizard-workers/internal/common/camunda"
	"uwizard-workers/internal/common/config"
	"uwizard-workers/internal/common/database"
	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/common/observability"
	"uwizard-workers/internal/common/pipedrive"
	"uwizard-workers/internal/decision/fields"
	"uwizard-workers/internal/decision/rules"
	"uwizard-workers/internal/decision/templates"
	"uwizard-workers/internal/scheduler"
	"uwizard-workers/internal/store"
	"uwizard-workers/pkg/catalog"

	// Decisioning Workers (3)
	cff "uwizard-workers/internal/workers/decisioning/check-field-freshness"
	mr "uwizard-workers/internal/workers/decisioning/match-rule"
	rt "uwizard-workers/internal/workers/decisioning/render-template"

	// Intake Workers (2)
	scf "uwizard-workers/internal/workers/intake/sync-crm-fields"
	ufs "uwizard-workers/internal/workers/intake/upsert-field-state"

	// Underwriting Workers (2)
	cdc "uwizard-workers/internal/workers/underwriting/check-deal-compliance"
	gof "uwizard-workers/internal/workers/underwriting/generate-offers"

	// Communication, Infrastructure & Scheduling Workers (3)
	smm "uwizard-workers/internal/workers/communication/send-merchant-message"
	ide "uwizard-workers/internal/workers/infrastructure/index-decision-event"
	sfu "uwizard-workers/internal/workers/scheduling/schedule-follow-up"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	if cfg.App.JaegerEndpoint != "" {
		tp, err := observability.InitTracing("worker-manager", cfg.App.JaegerEndpoint)
		if err != nil {
			zapLog.Warn("tracing disabled", zap.Error(err))
		} else {
			defer tp.Shutdown(ctx)
		}
	}

	// --- Load Decision Catalog ---
	doc, err := catalog.Load(cfg.Decisioning.CatalogPath)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err), zap.String("path", cfg.Decisioning.CatalogPath))
	}
	ruleCatalog := rules.NewCatalog(doc.Rules)
	templateCatalog := templates.NewCatalog(doc.Templates)
	fieldRegistry := fields.Builtin()
	zapLog.Info("Decision catalog loaded",
		zap.String("version", doc.Version),
		zap.Int("rules", len(doc.Rules)),
		zap.Int("templates", len(doc.Templates)),
	)

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init External Service Clients ---
	crmClient := pipedrive.NewClient(cfg.CRM.Pipedrive.APIToken, cfg.CRM.Pipedrive.BaseURL)
	merchantStore := store.New(pg.DB)

	zapLog.Info("All external service clients initialized")

	// --- START: Register ALL 10 Workers ---

	// --- 1. Decisioning Workers (3) ---
	if cfg.Workers[mr.TaskType].Enabled {
		handler := mr.NewHandler(
			&mr.Config{
				Timeout:  time.Duration(cfg.Workers[mr.TaskType].Timeout) * time.Millisecond,
				CacheTTL: 5 * time.Minute,
			},
			ruleCatalog, merchantStore, redis.Client, log,
		)
		startWorker(zeebeClient, mr.TaskType, cfg.Workers[mr.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[rt.TaskType].Enabled {
		handler := rt.NewHandler(
			&rt.Config{
				Timeout: time.Duration(cfg.Workers[rt.TaskType].Timeout) * time.Millisecond,
			},
			templateCatalog, merchantStore, log,
		)
		startWorker(zeebeClient, rt.TaskType, cfg.Workers[rt.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[cff.TaskType].Enabled {
		handler := cff.NewHandler(
			&cff.Config{
				Timeout: time.Duration(cfg.Workers[cff.TaskType].Timeout) * time.Millisecond,
			},
			fieldRegistry, merchantStore, log,
		)
		startWorker(zeebeClient, cff.TaskType, cfg.Workers[cff.TaskType], handler.Handle, zapLog)
	}

	// --- 2. Intake Workers (2) ---
	if cfg.Workers[ufs.TaskType].Enabled {
		handler := ufs.NewHandler(
			&ufs.Config{
				Timeout: time.Duration(cfg.Workers[ufs.TaskType].Timeout) * time.Millisecond,
			},
			fieldRegistry, merchantStore, log,
		)
		startWorker(zeebeClient, ufs.TaskType, cfg.Workers[ufs.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[scf.TaskType].Enabled {
		handler := scf.NewHandler(
			&scf.Config{
				Timeout: time.Duration(cfg.Workers[scf.TaskType].Timeout) * time.Millisecond,
			},
			crmClient, merchantStore, log,
		)
		startWorker(zeebeClient, scf.TaskType, cfg.Workers[scf.TaskType], handler.Handle, zapLog)
	}

	// --- 3. Underwriting Workers (2) ---
	if cfg.Workers[gof.TaskType].Enabled {
		handler := gof.NewHandler(
			&gof.Config{
				Timeout: time.Duration(cfg.Workers[gof.TaskType].Timeout) * time.Millisecond,
			},
			merchantStore, log,
		)
		startWorker(zeebeClient, gof.TaskType, cfg.Workers[gof.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[cdc.TaskType].Enabled {
		handler := cdc.NewHandler(
			&cdc.Config{
				Timeout:      time.Duration(cfg.Workers[cdc.TaskType].Timeout) * time.Millisecond,
				DefaultState: cfg.Underwriting.DefaultState,
			},
			merchantStore, log,
		)
		startWorker(zeebeClient, cdc.TaskType, cfg.Workers[cdc.TaskType], handler.Handle, zapLog)
	}

	// --- 4. Communication Worker (1) ---
	if cfg.Workers[smm.TaskType].Enabled {
		handler, err := smm.NewHandler(
			&smm.Config{
				Timeout:      time.Duration(cfg.Workers[smm.TaskType].Timeout) * time.Millisecond,
				AWSRegion:    cfg.Notifications.AWS.Region,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				SMSSenderID:  cfg.Notifications.SMS.SenderID,
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
			},
			merchantStore, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create send-merchant-message handler", zap.Error(err))
		}
		startWorker(zeebeClient, smm.TaskType, cfg.Workers[smm.TaskType], handler.Handle, zapLog)
	}

	// --- 5. Infrastructure Worker (1) ---
	if cfg.Workers[ide.TaskType].Enabled {
		handler := ide.NewHandler(
			&ide.Config{
				Timeout: time.Duration(cfg.Workers[ide.TaskType].Timeout) * time.Millisecond,
				Index:   "decision-events",
			},
			esClient, log,
		)
		startWorker(zeebeClient, ide.TaskType, cfg.Workers[ide.TaskType], handler.Handle, zapLog)
	}

	// --- 6. Scheduling Worker (1) ---
	if cfg.Workers[sfu.TaskType].Enabled {
		handler := sfu.NewHandler(
			&sfu.Config{
				Timeout:     time.Duration(cfg.Workers[sfu.TaskType].Timeout) * time.Millisecond,
				DefaultDays: 30,
			},
			merchantStore, log,
		)
		startWorker(zeebeClient, sfu.TaskType, cfg.Workers[sfu.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All 10 workers registered successfully")

	// --- Follow-up Dispatcher ---
	if cfg.Scheduler.Enabled {
		publisher := scheduler.NewZeebePublisher(zeebeClient)
		dispatcher, err := scheduler.NewFollowUpDispatcher(cfg.Scheduler, merchantStore, publisher, log)
		if err != nil {
			zapLog.Fatal("failed to create follow-up dispatcher", zap.Error(err))
		}
		if err := dispatcher.Start(); err != nil {
			zapLog.Fatal("failed to start follow-up dispatcher", zap.Error(err))
		}
		defer dispatcher.Stop()
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range runningWorkers {
		w.Stop()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// runningWorkers collects open subscriptions so shutdown can drain them.
var runningWorkers []*camunda.CamundaWorker

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc camunda.JobHandler, log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	w := camunda.NewWorker(
		client,
		taskType,
		wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond,
		handlerFunc,
		log,
	)
	runningWorkers = append(runningWorkers, w)
}
