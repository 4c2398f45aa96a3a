// Package pipeline orchestrates one clip job: probe the source, plan the
// windows, then sequentially compose, transcode and deliver each clip,
// cleaning up the source exactly once no matter how the run ends.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"clipcast/internal/compose"
	"clipcast/internal/planner"
	"clipcast/internal/types"
	"clipcast/log"
	apperrors "clipcast/pkg/errors"
)

// Pipeline executes clip jobs against injected capabilities. All fields except
// Messenger are required; a nil Messenger disables progress notices.
type Pipeline struct {
	Prober     types.Prober
	Builder    compose.Builder
	Transcoder types.Transcoder
	Sink       types.Sink
	Messenger  types.Messenger

	// WorkDir receives the intermediate clip files. Filenames are derived
	// from (jobID, part number) so concurrent jobs never collide.
	WorkDir string
}

// Result reports how far one run got. Delivered clips stay delivered even
// when Err is set; partial success is a valid outcome.
type Result struct {
	TotalClips int
	Delivered  int
	Err        error
}

// OutputFileName is the collision-free name for one clip file.
func OutputFileName(jobID string, partNumber int) string {
	return fmt.Sprintf("part_%d_%s.mp4", partNumber, jobID)
}

// Run processes the whole job. Clips are produced and delivered in strictly
// increasing index order; the first failure aborts the remaining windows.
// Cancellation is honored only between clips, never mid-transcode.
func (p Pipeline) Run(ctx context.Context, job types.JobInput) Result {
	defer Cleanup(job)

	totalDuration, err := p.Prober.Probe(ctx, job.SourcePath)
	if err != nil {
		log.GetLogger().Error("clip job probe failed",
			zap.String("job_id", job.JobID), zap.Error(err))
		return Result{Err: apperrors.Wrap(apperrors.CodeProbeFailed, "Source probe failed", err)}
	}

	windows, err := planner.Plan(totalDuration, job.ClipSeconds)
	if err != nil {
		return Result{Err: err}
	}

	result := Result{TotalClips: len(windows)}
	p.notify(ctx, job, fmt.Sprintf(
		"Video detected. Total duration: %.2fs. I will create %d clips.",
		totalDuration, len(windows)))

	for _, window := range windows {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}

		p.notify(ctx, job, fmt.Sprintf("Processing Part %d/%d...", window.PartNumber(), len(windows)))

		if err := p.processWindow(ctx, job, window); err != nil {
			log.GetLogger().Error("clip job aborted",
				zap.String("job_id", job.JobID),
				zap.Int("part", window.PartNumber()),
				zap.Int("delivered", result.Delivered),
				zap.Error(err))
			result.Err = err
			return result
		}
		result.Delivered++
	}

	log.GetLogger().Info("clip job completed",
		zap.String("job_id", job.JobID),
		zap.Int("clips", result.Delivered))
	return result
}

// processWindow renders and delivers one clip. The local artifact is removed
// before returning, whether delivery succeeded or failed.
func (p Pipeline) processWindow(ctx context.Context, job types.JobInput, window types.ClipWindow) error {
	spec := p.Builder.Build(window, job)
	artifact := types.ClipArtifact{
		Index: window.Index,
		Path:  filepath.Join(p.WorkDir, OutputFileName(job.JobID, window.PartNumber())),
	}

	if err := p.Transcoder.Transcode(ctx, spec, artifact.Path); err != nil {
		return apperrors.Wrap(apperrors.CodeTranscodeFailed,
			fmt.Sprintf("Part %d transcode failed", window.PartNumber()), err)
	}
	artifact.Produced = true

	deliverErr := p.Sink.Deliver(ctx, job.ChatID, artifact.Path)
	p.removeArtifact(artifact)

	if deliverErr != nil {
		return apperrors.Wrap(apperrors.CodeDeliveryFailed,
			fmt.Sprintf("Part %d delivery failed", window.PartNumber()), deliverErr)
	}
	return nil
}

// removeArtifact ends the artifact's lifetime; it must never outlive the loop
// iteration that produced it.
func (p Pipeline) removeArtifact(artifact types.ClipArtifact) {
	if !artifact.Produced {
		return
	}
	if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
		log.GetLogger().Warn("failed to remove clip artifact",
			zap.Int("index", artifact.Index),
			zap.String("path", artifact.Path), zap.Error(err))
	}
}

func (p Pipeline) notify(ctx context.Context, job types.JobInput, text string) {
	if p.Messenger == nil {
		return
	}
	if err := p.Messenger.SendText(ctx, job.ChatID, text); err != nil {
		log.GetLogger().Warn("failed to send progress notice",
			zap.String("job_id", job.JobID), zap.Error(err))
	}
}
