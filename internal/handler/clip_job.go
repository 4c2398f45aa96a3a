package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"clipcast/internal/dto"
	"clipcast/internal/response"
	"clipcast/internal/storage"
	"clipcast/log"
	apperrors "clipcast/pkg/errors"
)

type Handler struct{}

func NewHandler() Handler {
	return Handler{}
}

func toClipJobRes(job storage.ClipJob) dto.ClipJobRes {
	return dto.ClipJobRes{
		JobId:          job.JobId,
		ChatId:         job.ChatId,
		Title:          job.Title,
		Channel:        job.Channel,
		ClipSeconds:    job.ClipSeconds,
		Color:          job.Color,
		Status:         job.Status,
		ClipsTotal:     job.ClipsTotal,
		ClipsDelivered: job.ClipsDelivered,
		FailReason:     job.FailReason,
		CreateTime:     job.CreateTime,
		UpdateTime:     job.UpdateTime,
	}
}

func (h Handler) GetClipJob(c *gin.Context) {
	var req dto.GetClipJobReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}

	job, err := storage.GetJob(req.JobId)
	if err != nil {
		log.GetLogger().Error("GetClipJob lookup failed", zap.String("job_id", req.JobId), zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeNotFound, "Job not found", err))
		return
	}
	response.Success(c, toClipJobRes(*job))
}

func (h Handler) GetJobHistory(c *gin.Context) {
	jobs, err := storage.GetJobHistory(200)
	if err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeDBError, "Failed to load job history", err))
		return
	}
	response.Success(c, lo.Map(jobs, func(job storage.ClipJob, _ int) dto.ClipJobRes {
		return toClipJobRes(job)
	}))
}

func (h Handler) DeleteClipJob(c *gin.Context) {
	jobId := c.Param("jobId")
	if jobId == "" {
		response.ErrorResponse(c, apperrors.New(apperrors.CodeInvalidParams, "jobId is required"))
		return
	}

	if err := storage.DeleteJob(jobId); err != nil {
		log.GetLogger().Error("DeleteClipJob failed", zap.String("job_id", jobId), zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeDBError, "Failed to delete job", err))
		return
	}
	response.Success(c, gin.H{"job_id": jobId})
}
