package pipeline

import (
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"clipcast/internal/types"
	"clipcast/log"
)

// Cleanup removes the uploaded source file for a job. Best-effort and
// idempotent: a missing file counts as success, and any other deletion
// failure is logged and swallowed so cleanup never fails the job boundary.
func Cleanup(job types.JobInput) {
	if job.SourcePath == "" {
		return
	}

	err := os.Remove(job.SourcePath)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return
	}

	log.GetLogger().Warn("failed to remove job source file",
		zap.String("job_id", job.JobID),
		zap.String("path", job.SourcePath),
		zap.Error(err))
}
