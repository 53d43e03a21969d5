package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Action string

const (
	ActionCreated       Action = "created"
	ActionEdited        Action = "edited"
	ActionStageChange   Action = "stage_change"
	ActionDeleted       Action = "deleted"
	ActionChangeRequest Action = "change_request"
)

// ActorWebsite marks entries written on behalf of anonymous website visitors.
const ActorWebsite = "website"

// JobLog is one append-only entry in a job's history.
type JobLog struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	JobID         snowflake.ID `gorm:"column:job_id;not null;index" json:"job_id"`
	CreatedAt     time.Time    `gorm:"column:created_at;not null" json:"timestamp"`
	ActorUsername *string      `gorm:"column:actor_username;size:80" json:"actor_username,omitempty"`
	Action        Action       `gorm:"column:action;size:40;not null" json:"action"`
	Details       *string      `gorm:"column:details;type:text" json:"details,omitempty"`
}

func (JobLog) TableName() string { return "job_logs" }
