package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/crowngraphics/portal/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.JobLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO job_logs (id, job_id, created_at, actor_username, action, details)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.JobID,
		entry.CreatedAt,
		entry.ActorUsername,
		entry.Action,
		entry.Details,
	).Error
}

func (r *repo) ListByJob(ctx context.Context, db *gorm.DB, jobID snowflake.ID) ([]*domain.JobLog, error) {
	var logs []*domain.JobLog
	err := db.WithContext(ctx).
		Model(&domain.JobLog{}).
		Where("job_id = ?", jobID).
		Order("created_at desc, id desc").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repo) DeleteByJob(ctx context.Context, db *gorm.DB, jobID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM job_logs WHERE job_id = ?`, jobID)
	return res.RowsAffected, res.Error
}
