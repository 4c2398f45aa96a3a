package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"clipcast/internal/service"
	"clipcast/log"
)

// TaskHandlers provides handlers for the queued task types.
type TaskHandlers struct {
	service *service.Service
}

// NewTaskHandlers creates a new TaskHandlers instance.
func NewTaskHandlers(svc *service.Service) *TaskHandlers {
	return &TaskHandlers{service: svc}
}

// HandleClipJob processes one clip job inside an Asynq worker.
func (h *TaskHandlers) HandleClipJob(ctx context.Context, t *asynq.Task) error {
	var payload ClipJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	log.GetLogger().Info("[Queue] Processing clip job",
		zap.String("job_id", payload.JobID),
		zap.Int64("chat_id", payload.ChatID))

	if err := h.service.StartClipJob(ctx, JobFromPayload(payload)); err != nil {
		return err
	}

	log.GetLogger().Info("[Queue] Clip job completed",
		zap.String("job_id", payload.JobID))

	return nil
}

// RegisterHandlers registers all task handlers with the Asynq server mux.
func (h *TaskHandlers) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeClipJob, h.HandleClipJob)
}

// StartWorker starts the Asynq worker with registered handlers.
func StartWorker(q *Queue, svc *service.Service) error {
	handlers := NewTaskHandlers(svc)

	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	log.GetLogger().Info("[Queue] Starting worker",
		zap.String("redis_addr", q.config.RedisAddr),
		zap.Int("concurrency", q.config.Concurrency))

	return q.server.Run(mux)
}
