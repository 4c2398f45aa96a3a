// Package service runs clip jobs end to end and keeps the persisted job
// records in step with what actually happened.
package service

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"clipcast/config"
	"clipcast/internal/appdirs"
	"clipcast/internal/compose"
	"clipcast/internal/media"
	"clipcast/internal/pipeline"
	"clipcast/internal/storage"
	"clipcast/internal/types"
	"clipcast/log"
	apperrors "clipcast/pkg/errors"
)

type Service struct {
	pipeline  pipeline.Pipeline
	messenger types.Messenger
}

// NewService wires the production pipeline: ffmpeg probe and transcode, clip
// files staged under the resolved job root, delivery through sink.
func NewService(sink types.Sink, messenger types.Messenger) (*Service, error) {
	workDir, err := appdirs.ResolveJobRoot()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "Failed to resolve job directory", err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "Failed to create job directory", err)
	}

	return &Service{
		pipeline: pipeline.Pipeline{
			Prober:     media.NewProber(),
			Builder:    compose.Builder{FontFile: config.Conf.App.FontFile},
			Transcoder: media.NewTranscoder(),
			Sink:       sink,
			Messenger:  messenger,
			WorkDir:    workDir,
		},
		messenger: messenger,
	}, nil
}

// NewServiceWithPipeline wires a prebuilt pipeline. Used in tests.
func NewServiceWithPipeline(p pipeline.Pipeline) *Service {
	return &Service{pipeline: p, messenger: p.Messenger}
}

// StartClipJob runs one job synchronously: the record is created as running,
// the pipeline executes, then the record is updated with the outcome and the
// user is told how the run ended. Record persistence failures are logged but
// never block the job itself.
func (s *Service) StartClipJob(ctx context.Context, job types.JobInput) error {
	record := &storage.ClipJob{
		JobId:       job.JobID,
		ChatId:      job.ChatID,
		Title:       job.Title,
		Channel:     job.Channel,
		ClipSeconds: job.ClipSeconds,
		Color:       job.Color,
		Status:      types.ClipJobStatusRunning,
	}
	if err := storage.SaveJob(record); err != nil {
		log.GetLogger().Warn("failed to persist clip job record",
			zap.String("job_id", job.JobID), zap.Error(err))
	}

	result := s.pipeline.Run(ctx, job)

	record.ClipsTotal = result.TotalClips
	record.ClipsDelivered = result.Delivered
	if result.Err != nil {
		record.Status = types.ClipJobStatusFailed
		record.FailReason = result.Err.Error()
	} else {
		record.Status = types.ClipJobStatusSucceeded
	}
	if err := storage.SaveJob(record); err != nil {
		log.GetLogger().Warn("failed to update clip job record",
			zap.String("job_id", job.JobID), zap.Error(err))
	}

	s.notifyOutcome(ctx, job, result)
	return result.Err
}

func (s *Service) notifyOutcome(ctx context.Context, job types.JobInput, result pipeline.Result) {
	if s.messenger == nil {
		return
	}

	text := "All done! I have sent you all the clips."
	if result.Err != nil {
		text = fmt.Sprintf("An error occurred during processing: %s\nPlease try again.",
			apperrors.GetMessage(result.Err))
	}
	if err := s.messenger.SendText(ctx, job.ChatID, text); err != nil {
		log.GetLogger().Warn("failed to send outcome notice",
			zap.String("job_id", job.JobID), zap.Error(err))
	}
}
