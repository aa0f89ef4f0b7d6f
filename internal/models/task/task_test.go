package task_test

import (
	"testing"
	"time"

	"taskhub/internal/models/task"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTask_IsValidStatusTransition проверяет весь граф переходов:
// запрещены только completed -> in_progress и cancelled -> in_progress
func TestTask_IsValidStatusTransition(t *testing.T) {
	statuses := []task.Status{
		task.StatusPending,
		task.StatusInProgress,
		task.StatusCompleted,
		task.StatusCancelled,
	}

	forbidden := map[task.Status]task.Status{
		task.StatusCompleted: task.StatusInProgress,
		task.StatusCancelled: task.StatusInProgress,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			from, to := from, to
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				tsk := &task.Task{Status: from}
				expected := forbidden[from] != to
				assert.Equal(t, expected, tsk.IsValidStatusTransition(to))
			})
		}
	}
}

func TestTask_IsValidStatusTransition_SelfTransition(t *testing.T) {
	// переход в самого себя разрешён для всех статусов
	for _, s := range []task.Status{task.StatusCompleted, task.StatusCancelled} {
		tsk := &task.Task{Status: s}
		assert.True(t, tsk.IsValidStatusTransition(s))
	}
}

func TestTask_IsDeleted(t *testing.T) {
	tsk := &task.Task{}
	assert.False(t, tsk.IsDeleted())

	now := time.Now()
	tsk.DeletedAt = &now
	assert.True(t, tsk.IsDeleted())
}

func TestValidStatus(t *testing.T) {
	assert.True(t, task.ValidStatus(task.StatusPending))
	assert.True(t, task.ValidStatus(task.StatusInProgress))
	assert.True(t, task.ValidStatus(task.StatusCompleted))
	assert.True(t, task.ValidStatus(task.StatusCancelled))
	assert.False(t, task.ValidStatus("archived"))
	assert.False(t, task.ValidStatus(""))
}

func TestValidPriority(t *testing.T) {
	assert.True(t, task.ValidPriority(task.PriorityLow))
	assert.True(t, task.ValidPriority(task.PriorityUrgent))
	assert.False(t, task.ValidPriority("critical"))
}

func TestValidRole(t *testing.T) {
	assert.True(t, task.ValidRole(task.RoleOwner))
	assert.True(t, task.ValidRole(task.RoleAssignee))
	assert.True(t, task.ValidRole(task.RoleReviewer))
	assert.False(t, task.ValidRole("manager"))
}

func TestNewOwnerAssignment(t *testing.T) {
	creator := uuid.New()
	tsk := &task.Task{UUID: uuid.New(), CreatedBy: creator}

	a := task.NewOwnerAssignment(tsk)

	assert.Equal(t, tsk.UUID, a.TaskID)
	assert.Equal(t, creator, a.UserID)
	assert.Equal(t, creator, a.AssignedBy)
	assert.Equal(t, task.RoleOwner, a.Role)
	assert.Equal(t, task.AssignmentAccepted, a.Status)
}

func TestTrackChanges_NoChanges(t *testing.T) {
	old := &task.Task{
		UUID:     uuid.New(),
		Title:    "задача",
		Status:   task.StatusPending,
		Priority: task.PriorityMedium,
	}
	entries := task.TrackChanges(old, old.Clone(), uuid.New())
	assert.Empty(t, entries)
}

func TestTrackChanges_AllFields(t *testing.T) {
	actor := uuid.New()
	due := time.Now().Add(24 * time.Hour)

	old := &task.Task{
		UUID:        uuid.New(),
		Title:       "старое название",
		Description: "старое описание",
		Status:      task.StatusPending,
		Priority:    task.PriorityLow,
	}

	updated := old.Clone()
	updated.Title = "новое название"
	updated.Description = "новое описание"
	updated.Status = task.StatusInProgress
	updated.Priority = task.PriorityHigh
	updated.DueDate = &due

	entries := task.TrackChanges(old, updated, actor)
	require.Len(t, entries, 5)

	byField := make(map[task.Field]*task.History)
	for _, e := range entries {
		byField[e.FieldName] = e
		assert.Equal(t, old.UUID, e.TaskID)
		assert.Equal(t, actor, e.ChangedBy)
	}

	require.Contains(t, byField, task.FieldTitle)
	assert.Equal(t, "старое название", byField[task.FieldTitle].OldValue)
	assert.Equal(t, "новое название", byField[task.FieldTitle].NewValue)

	require.Contains(t, byField, task.FieldStatus)
	assert.Equal(t, "pending", byField[task.FieldStatus].OldValue)
	assert.Equal(t, "in_progress", byField[task.FieldStatus].NewValue)

	require.Contains(t, byField, task.FieldDueDate)
	assert.Equal(t, "", byField[task.FieldDueDate].OldValue)
	assert.Equal(t, due.Format(time.RFC3339), byField[task.FieldDueDate].NewValue)
}

func TestTrackChanges_SingleField(t *testing.T) {
	old := &task.Task{
		UUID:     uuid.New(),
		Title:    "задача",
		Status:   task.StatusPending,
		Priority: task.PriorityMedium,
	}
	updated := old.Clone()
	updated.Status = task.StatusCompleted

	entries := task.TrackChanges(old, updated, uuid.New())
	require.Len(t, entries, 1)
	assert.Equal(t, task.FieldStatus, entries[0].FieldName)
}

func TestAssignmentCreated(t *testing.T) {
	a := &task.Assignment{
		UUID:       uuid.New(),
		TaskID:     uuid.New(),
		UserID:     uuid.New(),
		AssignedBy: uuid.New(),
		Role:       task.RoleAssignee,
	}

	entry := task.AssignmentCreated(a, "ivan")

	assert.Equal(t, a.TaskID, entry.TaskID)
	assert.Equal(t, a.AssignedBy, entry.ChangedBy)
	assert.Equal(t, task.FieldAssignment, entry.FieldName)
	assert.Empty(t, entry.OldValue)
	assert.Equal(t, "Назначена пользователю ivan (assignee)", entry.NewValue)
}

func TestAssignmentStatusChanged(t *testing.T) {
	a := &task.Assignment{
		UUID:   uuid.New(),
		TaskID: uuid.New(),
		UserID: uuid.New(),
		Status: task.AssignmentAccepted,
	}

	entry := task.AssignmentStatusChanged(a, task.AssignmentPending)

	assert.Equal(t, a.UserID, entry.ChangedBy)
	assert.Equal(t, "Статус: pending", entry.OldValue)
	assert.Equal(t, "Статус: accepted", entry.NewValue)
}

func TestTask_Clone(t *testing.T) {
	now := time.Now()
	original := &task.Task{
		UUID:      uuid.New(),
		Title:     "задача",
		DeletedAt: &now,
		Version:   3,
	}

	copied := original.Clone()
	copied.Title = "другая"
	copied.Version = 4

	assert.Equal(t, "задача", original.Title)
	assert.Equal(t, 3, original.Version)
}
