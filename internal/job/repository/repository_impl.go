package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/crowngraphics/portal/internal/job/domain"
	"github.com/crowngraphics/portal/pkg/db"
	"github.com/crowngraphics/portal/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, job *domain.Job) error {
	return conn.WithContext(ctx).Create(job).Error
}

func (r *repo) InsertIfAbsent(ctx context.Context, conn *gorm.DB, job *domain.Job) (bool, error) {
	res := conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "intake_order_id"}},
			DoNothing: true,
		}).
		Create(job)
	if res.Error != nil {
		if db.IsDuplicateKeyErr(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Save(ctx context.Context, conn *gorm.DB, job *domain.Job) error {
	return conn.WithContext(ctx).
		Model(job).
		Select("*").
		Omit("id", "created_at").
		Updates(job).Error
}

func (r *repo) UpdateStage(ctx context.Context, conn *gorm.DB, job *domain.Job) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE jobs SET stage = ?, updated_at = ? WHERE id = ?`,
		job.Stage,
		job.UpdatedAt,
		job.ID,
	).Error
}

func (r *repo) ClearNew(ctx context.Context, conn *gorm.DB, id snowflake.ID) (bool, error) {
	res := conn.WithContext(ctx).Exec(
		`UPDATE jobs SET is_new = ? WHERE id = ? AND is_new = ?`,
		false,
		id,
		true,
	)
	return res.RowsAffected > 0, res.Error
}

func (r *repo) Delete(ctx context.Context, conn *gorm.DB, id snowflake.ID) error {
	return conn.WithContext(ctx).Exec(`DELETE FROM jobs WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Job, error) {
	var job domain.Job
	err := conn.WithContext(ctx).Where("id = ?", id).Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repo) FindByIntakeOrderID(ctx context.Context, conn *gorm.DB, orderID string) (*domain.Job, error) {
	var job domain.Job
	err := conn.WithContext(ctx).Where("intake_order_id = ?", orderID).Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter, page pagination.Page) ([]*domain.Job, int64, error) {
	scoped := func() *gorm.DB {
		stmt := conn.WithContext(ctx).Model(&domain.Job{})
		if filter.Completed {
			return stmt.Where("stage = ?", domain.StageCompleted)
		}
		return stmt.Where("stage <> ?", domain.StageCompleted)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []*domain.Job
	err := scoped().
		Order("received_date desc, created_at desc, id desc").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (r *repo) ListAll(ctx context.Context, conn *gorm.DB) ([]*domain.Job, error) {
	var jobs []*domain.Job
	err := conn.WithContext(ctx).
		Model(&domain.Job{}).
		Order("received_date desc, created_at desc, id desc").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repo) InsertLineItems(ctx context.Context, conn *gorm.DB, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	return conn.WithContext(ctx).Create(&items).Error
}

func (r *repo) DeleteLineItems(ctx context.Context, conn *gorm.DB, jobID snowflake.ID) error {
	return conn.WithContext(ctx).Exec(`DELETE FROM job_line_items WHERE job_id = ?`, jobID).Error
}

func (r *repo) ListLineItems(ctx context.Context, conn *gorm.DB, jobID snowflake.ID) ([]*domain.LineItem, error) {
	var items []*domain.LineItem
	err := conn.WithContext(ctx).
		Model(&domain.LineItem{}).
		Where("job_id = ?", jobID).
		Order("position asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
