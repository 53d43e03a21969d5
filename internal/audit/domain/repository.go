package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *JobLog) error
	ListByJob(ctx context.Context, db *gorm.DB, jobID snowflake.ID) ([]*JobLog, error)
	DeleteByJob(ctx context.Context, db *gorm.DB, jobID snowflake.ID) (int64, error)
}
