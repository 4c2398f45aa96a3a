package dto

// GetClipJobReq queries one job by its external id.
type GetClipJobReq struct {
	JobId string `form:"jobId" binding:"required"`
}

// ClipJobRes is the API view of a persisted clip job.
type ClipJobRes struct {
	JobId          string `json:"job_id"`
	ChatId         int64  `json:"chat_id"`
	Title          string `json:"title"`
	Channel        string `json:"channel"`
	ClipSeconds    int    `json:"clip_seconds"`
	Color          string `json:"color"`
	Status         int    `json:"status"`
	ClipsTotal     int    `json:"clips_total"`
	ClipsDelivered int    `json:"clips_delivered"`
	FailReason     string `json:"fail_reason,omitempty"`
	CreateTime     int64  `json:"create_time"`
	UpdateTime     int64  `json:"update_time"`
}
