// Package queue provides background clip job processing using Asynq. It is
// the execution backend for multi-process deployments where jobs must survive
// a worker restart; single-host setups use the in-memory task runner instead.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"clipcast/internal/types"
	"clipcast/log"
)

// Task type names
const (
	TypeClipJob = "clip:process"
)

// ClipJobPayload is the serialized form of a clip job on the wire.
type ClipJobPayload struct {
	JobID       string `json:"job_id"`
	ChatID      int64  `json:"chat_id"`
	SourcePath  string `json:"source_path"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	ClipSeconds int    `json:"clip_seconds"`
	Color       string `json:"color"`
}

// PayloadFromJob converts a job input into its queue payload.
func PayloadFromJob(job types.JobInput) ClipJobPayload {
	return ClipJobPayload{
		JobID:       job.JobID,
		ChatID:      job.ChatID,
		SourcePath:  job.SourcePath,
		Title:       job.Title,
		Channel:     job.Channel,
		ClipSeconds: job.ClipSeconds,
		Color:       job.Color,
	}
}

// JobFromPayload converts a queue payload back into a job input.
func JobFromPayload(payload ClipJobPayload) types.JobInput {
	return types.JobInput{
		JobID:       payload.JobID,
		ChatID:      payload.ChatID,
		SourcePath:  payload.SourcePath,
		Title:       payload.Title,
		Channel:     payload.Channel,
		ClipSeconds: payload.ClipSeconds,
		Color:       payload.Color,
	}
}

// QueueConfig holds Redis configuration for Asynq.
type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// DefaultConfig returns default queue configuration.
func DefaultConfig() QueueConfig {
	return QueueConfig{
		RedisAddr:   "localhost:6379",
		RedisDB:     0,
		Concurrency: 2,
	}
}

// Queue manages clip job enqueueing and processing.
type Queue struct {
	client *asynq.Client
	server *asynq.Server
	config QueueConfig
}

// NewQueue creates a new Queue instance.
func NewQueue(cfg QueueConfig) *Queue {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
				// Exponential backoff: 10s, 20s, 40s, 80s, ...
				return time.Duration(10<<uint(n)) * time.Second
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.GetLogger().Error("Clip job task failed",
					zap.String("type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err))
			}),
		},
	)

	return &Queue{
		client: client,
		server: server,
		config: cfg,
	}
}

// EnqueueClipJob adds a clip job to the queue. Retries are disabled: a clip
// job is not safely repeatable once clips have been delivered and the source
// removed, so a failed run stays failed.
func (q *Queue) EnqueueClipJob(payload ClipJobPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeClipJob, data,
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
		asynq.Queue("default"),
	)

	info, err := q.client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.GetLogger().Info("Clip job enqueued",
		zap.String("job_id", payload.JobID),
		zap.String("queue_id", info.ID),
		zap.String("queue", info.Queue))

	return nil
}

// Close gracefully shuts down the queue.
func (q *Queue) Close() error {
	if err := q.client.Close(); err != nil {
		return err
	}
	q.server.Shutdown()
	return nil
}

// Client returns the underlying Asynq client for advanced usage.
func (q *Queue) Client() *asynq.Client {
	return q.client
}

// Server returns the underlying Asynq server for advanced usage.
func (q *Queue) Server() *asynq.Server {
	return q.server
}
