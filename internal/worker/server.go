package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/prlessa/My-Stickly-Notes/internal/repository"
	"github.com/prlessa/My-Stickly-Notes/internal/service"
	"github.com/prlessa/My-Stickly-Notes/internal/tasks"
)

// WorkerServer wraps the asynq server that executes background tasks:
// the periodic presence sweep and best-effort activity bumps.
type WorkerServer struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	log       *logrus.Entry

	presenceService *service.PresenceService
	panelRepo       repository.PanelRepository
}

func NewWorkerServer(redisOpt asynq.RedisClientOpt, presenceService *service.PresenceService, panelRepo repository.PanelRepository, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 3,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})

	return &WorkerServer{
		server:          server,
		scheduler:       scheduler,
		log:             logEntry,
		presenceService: presenceService,
		panelRepo:       panelRepo,
	}
}

// Start runs the worker server. Call from its own goroutine.
func (ws *WorkerServer) Start() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePresenceSweep, NewPresenceSweepHandler(ws.presenceService).ProcessTask)
	mux.HandleFunc(tasks.TypePanelActivity, NewPanelActivityHandler(ws.panelRepo).ProcessTask)

	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(mux); err != nil {
		if !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Fatalf("Could not run worker server: %v", err)
		}
		ws.log.Info("Worker server stopped")
	}
}

// StartScheduler registers the periodic presence sweep and runs the
// scheduler. Call from its own goroutine.
func (ws *WorkerServer) StartScheduler(sweepInterval string) {
	entryID, err := ws.scheduler.Register(sweepInterval, tasks.NewPresenceSweepTask(), asynq.Queue("default"))
	if err != nil {
		ws.log.Errorf("Could not register presence sweep task: %v", err)
		return
	}
	ws.log.Infof("Presence sweep registered with schedule '%s' (entry: %s)", sweepInterval, entryID)

	if err := ws.scheduler.Run(); err != nil {
		if !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Errorf("Scheduler stopped with error: %v", err)
		} else {
			ws.log.Info("Scheduler stopped")
		}
	}
}

// Shutdown stops the scheduler and drains the worker server.
func (ws *WorkerServer) Shutdown() {
	ws.scheduler.Shutdown()
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down")
}
