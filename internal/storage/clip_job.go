package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"clipcast/internal/types"
)

// ClipJob is the persisted record of one clip job: the styling parameters the
// user chose plus how far the run got.
type ClipJob struct {
	Id             int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	JobId          string `gorm:"uniqueIndex;size:64" json:"job_id"`
	ChatId         int64  `gorm:"index" json:"chat_id"`
	Title          string `json:"title"`
	Channel        string `json:"channel"`
	ClipSeconds    int    `json:"clip_seconds"`
	Color          string `json:"color"`
	Status         int    `json:"status"`
	ClipsTotal     int    `json:"clips_total"`
	ClipsDelivered int    `json:"clips_delivered"`
	FailReason     string `json:"fail_reason,omitempty"`
	CreateTime     int64  `gorm:"autoCreateTime" json:"create_time"`
	UpdateTime     int64  `gorm:"autoUpdateTime" json:"update_time"`
}

func SaveJob(job *ClipJob) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	// Upsert keyed on the external JobId rather than the numeric primary key.
	var existing ClipJob
	result := DB.Where("job_id = ?", job.JobId).First(&existing)

	if result.Error == nil {
		job.Id = existing.Id
		job.UpdateTime = time.Now().Unix()
		return DB.Save(job).Error
	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return DB.Create(job).Error
	}
	return result.Error
}

func GetJob(jobId string) (*ClipJob, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var job ClipJob
	if err := DB.Where("job_id = ?", jobId).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func GetJobHistory(limit int) ([]ClipJob, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var jobs []ClipJob
	if err := DB.Order("create_time desc").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func DeleteJob(jobId string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	return DB.Where("job_id = ?", jobId).Delete(&ClipJob{}).Error
}

// MarkStaleJobs marks all jobs still flagged as running as failed. Called on
// startup to clean up zombies left by a previous process.
func MarkStaleJobs() (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	result := DB.Model(&ClipJob{}).
		Where("status = ?", types.ClipJobStatusRunning).
		Updates(map[string]interface{}{
			"status":      types.ClipJobStatusFailed,
			"fail_reason": "Job interrupted by server restart",
		})
	return result.RowsAffected, result.Error
}
