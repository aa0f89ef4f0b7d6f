package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID        uuid.UUID  `json:"uuid" db:"uuid"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      Status     `json:"status" db:"status"`
	Priority    Priority   `json:"priority" db:"priority"`
	CreatedBy   uuid.UUID  `json:"created_by" db:"created_by"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	Version     int        `json:"version" db:"version"`
}

type Status string
type Priority string

const StatusPending Status = "pending"
const StatusInProgress Status = "in_progress"
const StatusCompleted Status = "completed"
const StatusCancelled Status = "cancelled"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"
const PriorityUrgent Priority = "urgent"

// запрещённые переходы статусов; всё остальное разрешено,
// включая переходы в самого себя и возврат completed/cancelled -> pending
var invalidTransitions = map[Status][]Status{
	StatusCompleted: {StatusInProgress},
	StatusCancelled: {StatusInProgress},
}

func (t *Task) IsValidStatusTransition(newStatus Status) bool {
	for _, forbidden := range invalidTransitions[t.Status] {
		if newStatus == forbidden {
			return false
		}
	}
	return true
}

func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (t *Task) Clone() *Task {
	copied := *t
	return &copied
}
