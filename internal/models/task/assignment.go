package task

import (
	"time"

	"github.com/google/uuid"
)

// Assignment - промежуточная сущность M2M связи задачи и пользователя
// с ролью, статусом и примечаниями. Пара (task, user) уникальна.
type Assignment struct {
	UUID       uuid.UUID        `json:"uuid" db:"uuid"`
	TaskID     uuid.UUID        `json:"task_id" db:"task_id"`
	UserID     uuid.UUID        `json:"user_id" db:"user_id"`
	AssignedBy uuid.UUID        `json:"assigned_by" db:"assigned_by"`
	Role       Role             `json:"role" db:"role"`
	Status     AssignmentStatus `json:"status" db:"status"`
	Notes      string           `json:"notes" db:"notes"`
	AssignedAt time.Time        `json:"assigned_at" db:"assigned_at"`
	UpdatedAt  *time.Time       `json:"updated_at,omitempty" db:"updated_at"`
}

type Role string
type AssignmentStatus string

const RoleOwner Role = "owner"
const RoleAssignee Role = "assignee"
const RoleReviewer Role = "reviewer"

const AssignmentPending AssignmentStatus = "pending"
const AssignmentAccepted AssignmentStatus = "accepted"
const AssignmentRejected AssignmentStatus = "rejected"

func ValidRole(r Role) bool {
	switch r {
	case RoleOwner, RoleAssignee, RoleReviewer:
		return true
	}
	return false
}

// NewOwnerAssignment - назначение, которое автоматически создаётся
// при создании задачи: создатель становится владельцем и сразу accepted
func NewOwnerAssignment(t *Task) *Assignment {
	return &Assignment{
		UUID:       uuid.New(),
		TaskID:     t.UUID,
		UserID:     t.CreatedBy,
		AssignedBy: t.CreatedBy,
		Role:       RoleOwner,
		Status:     AssignmentAccepted,
		AssignedAt: time.Now(),
	}
}
