package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// History - неизменяемая запись лога аудита. Создаётся только при
// изменении задачи или назначения, никогда не обновляется вручную.
type History struct {
	UUID      uuid.UUID `json:"uuid" db:"uuid"`
	TaskID    uuid.UUID `json:"task_id" db:"task_id"`
	ChangedBy uuid.UUID `json:"changed_by" db:"changed_by"`
	FieldName Field     `json:"field_name" db:"field_name"`
	OldValue  string    `json:"old_value" db:"old_value"`
	NewValue  string    `json:"new_value" db:"new_value"`
	ChangedAt time.Time `json:"changed_at" db:"changed_at"`
}

type Field string

const FieldTitle Field = "title"
const FieldDescription Field = "description"
const FieldStatus Field = "status"
const FieldPriority Field = "priority"
const FieldDueDate Field = "due_date"
const FieldAssignment Field = "assignment"

func formatDueDate(due *time.Time) string {
	if due == nil {
		return ""
	}
	return due.Format(time.RFC3339)
}

func newHistory(taskID, changedBy uuid.UUID, field Field, oldValue, newValue string) *History {
	return &History{
		UUID:      uuid.New(),
		TaskID:    taskID,
		ChangedBy: changedBy,
		FieldName: field,
		OldValue:  oldValue,
		NewValue:  newValue,
		ChangedAt: time.Now(),
	}
}

// TrackChanges сравнивает отслеживаемые поля старой и новой версии задачи
// и возвращает по одной записи истории на каждое реально изменившееся поле.
// Совпадающие значения записей не порождают.
func TrackChanges(oldTask, newTask *Task, actor uuid.UUID) []*History {
	var entries []*History

	if oldTask.Title != newTask.Title {
		entries = append(entries, newHistory(newTask.UUID, actor, FieldTitle, oldTask.Title, newTask.Title))
	}
	if oldTask.Description != newTask.Description {
		entries = append(entries, newHistory(newTask.UUID, actor, FieldDescription, oldTask.Description, newTask.Description))
	}
	if oldTask.Status != newTask.Status {
		entries = append(entries, newHistory(newTask.UUID, actor, FieldStatus, string(oldTask.Status), string(newTask.Status)))
	}
	if oldTask.Priority != newTask.Priority {
		entries = append(entries, newHistory(newTask.UUID, actor, FieldPriority, string(oldTask.Priority), string(newTask.Priority)))
	}
	if formatDueDate(oldTask.DueDate) != formatDueDate(newTask.DueDate) {
		entries = append(entries, newHistory(newTask.UUID, actor, FieldDueDate, formatDueDate(oldTask.DueDate), formatDueDate(newTask.DueDate)))
	}

	return entries
}

// AssignmentCreated - запись о новом назначении, changed_by = назначивший
func AssignmentCreated(a *Assignment, username string) *History {
	return newHistory(a.TaskID, a.AssignedBy, FieldAssignment, "",
		fmt.Sprintf("Назначена пользователю %s (%s)", username, a.Role))
}

// AssignmentStatusChanged - запись о принятии/отклонении назначения,
// changed_by = сам пользователь назначения
func AssignmentStatusChanged(a *Assignment, oldStatus AssignmentStatus) *History {
	return newHistory(a.TaskID, a.UserID, FieldAssignment,
		fmt.Sprintf("Статус: %s", oldStatus),
		fmt.Sprintf("Статус: %s", a.Status))
}
