package task

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	UUID      uuid.UUID  `json:"uuid" db:"uuid"`
	TaskID    uuid.UUID  `json:"task_id" db:"task_id"`
	AuthorID  uuid.UUID  `json:"author_id" db:"author_id"`
	Content   string     `json:"content" db:"content"`
	IsEdited  bool       `json:"is_edited" db:"is_edited"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
