package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Entry describes a log line to append. Actor overrides the username taken
// from the request identity.
type Entry struct {
	JobID   snowflake.ID
	Action  Action
	Details string
	Actor   string
}

type Service interface {
	// Record appends an entry using tx, or the service's own handle when tx is nil.
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, jobID snowflake.ID) ([]JobLog, error)
	// Purge removes every entry of a job. Only job deletion calls it.
	Purge(ctx context.Context, tx *gorm.DB, jobID snowflake.ID) error
}

var (
	ErrInvalidAction = errors.New("invalid_action")
	ErrInvalidJob    = errors.New("invalid_job")
)
