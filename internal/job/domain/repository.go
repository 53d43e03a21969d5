package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/crowngraphics/portal/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	Completed bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *Job) error
	// InsertIfAbsent inserts unless the intake order id already exists.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, job *Job) (bool, error)
	Save(ctx context.Context, db *gorm.DB, job *Job) error
	UpdateStage(ctx context.Context, db *gorm.DB, job *Job) error
	ClearNew(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Job, error)
	FindByIntakeOrderID(ctx context.Context, db *gorm.DB, orderID string) (*Job, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Page) ([]*Job, int64, error)
	ListAll(ctx context.Context, db *gorm.DB) ([]*Job, error)

	InsertLineItems(ctx context.Context, db *gorm.DB, items []LineItem) error
	DeleteLineItems(ctx context.Context, db *gorm.DB, jobID snowflake.ID) error
	ListLineItems(ctx context.Context, db *gorm.DB, jobID snowflake.ID) ([]*LineItem, error)
}
