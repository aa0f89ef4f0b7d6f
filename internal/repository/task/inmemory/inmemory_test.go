package inmemory_test

import (
	"context"
	"testing"
	"time"

	"taskhub/internal/models/task"
	repo "taskhub/internal/repository"
	"taskhub/internal/repository/task/inmemory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(createdBy uuid.UUID) *task.Task {
	return &task.Task{
		UUID:      uuid.New(),
		Title:     "задача",
		Status:    task.StatusPending,
		Priority:  task.PriorityMedium,
		CreatedBy: createdBy,
		Version:   1,
	}
}

func createTask(t *testing.T, s *inmemory.Storage, createdBy uuid.UUID) *task.Task {
	t.Helper()
	tsk := newTask(createdBy)
	owner := task.NewOwnerAssignment(tsk)
	entry := task.AssignmentCreated(owner, "creator")
	require.NoError(t, s.CreateTask(context.Background(), tsk, owner, entry))
	return tsk
}

func TestStorage_CreateAndGetTask(t *testing.T) {
	s := inmemory.New()
	creator := uuid.New()

	tsk := createTask(t, s, creator)

	got, err := s.GetTaskByID(context.Background(), tsk.UUID)
	require.NoError(t, err)
	assert.Equal(t, tsk.UUID, got.UUID)
	assert.Equal(t, 1, got.Version)

	// владельческое назначение создано вместе с задачей
	assignments, err := s.GetTaskAssignments(context.Background(), tsk.UUID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, task.RoleOwner, assignments[0].Role)
	assert.Equal(t, task.AssignmentAccepted, assignments[0].Status)

	// и запись истории о нём
	history, err := s.GetTaskHistory(context.Background(), tsk.UUID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, task.FieldAssignment, history[0].FieldName)
}

func TestStorage_GetTaskByID_NotFound(t *testing.T) {
	s := inmemory.New()
	_, err := s.GetTaskByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestStorage_UpdateTask_VersionConflict(t *testing.T) {
	s := inmemory.New()
	tsk := createTask(t, s, uuid.New())

	first := tsk.Clone()
	first.Title = "первое обновление"
	require.NoError(t, s.UpdateTask(context.Background(), first, nil))

	// параллельное обновление со старой версией
	stale := tsk.Clone()
	stale.Title = "второе обновление"
	err := s.UpdateTask(context.Background(), stale, nil)
	assert.ErrorIs(t, err, repo.ErrVersionConflict)
}

func TestStorage_UpdateTask_WritesHistoryAtomically(t *testing.T) {
	s := inmemory.New()
	actor := uuid.New()
	tsk := createTask(t, s, actor)

	updated := tsk.Clone()
	updated.Status = task.StatusInProgress
	entries := task.TrackChanges(tsk, updated, actor)
	require.Len(t, entries, 1)

	require.NoError(t, s.UpdateTask(context.Background(), updated, entries))

	history, err := s.GetTaskHistory(context.Background(), tsk.UUID)
	require.NoError(t, err)
	assert.Len(t, history, 2) // назначение владельца + смена статуса
}

func TestStorage_Visibility(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	creator := uuid.New()
	stranger := uuid.New()

	tsk := createTask(t, s, creator)

	visible, err := s.IsTaskVisible(ctx, tsk.UUID, creator)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = s.IsTaskVisible(ctx, tsk.UUID, stranger)
	require.NoError(t, err)
	assert.False(t, visible)

	// назначение делает задачу видимой
	a := &task.Assignment{
		UUID:       uuid.New(),
		TaskID:     tsk.UUID,
		UserID:     stranger,
		AssignedBy: creator,
		Role:       task.RoleAssignee,
		Status:     task.AssignmentPending,
	}
	entry := task.AssignmentCreated(a, "stranger")
	require.NoError(t, s.CreateAssignment(ctx, a, entry))

	visible, err = s.IsTaskVisible(ctx, tsk.UUID, stranger)
	require.NoError(t, err)
	assert.True(t, visible)

	// мягко удалённая задача невидима даже создателю
	deleted := tsk.Clone()
	now := time.Now()
	deleted.DeletedAt = &now
	require.NoError(t, s.UpdateTask(ctx, deleted, nil))

	visible, err = s.IsTaskVisible(ctx, tsk.UUID, creator)
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestStorage_CreateAssignment_Duplicate(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	creator := uuid.New()
	target := uuid.New()

	tsk := createTask(t, s, creator)

	a := &task.Assignment{
		UUID:       uuid.New(),
		TaskID:     tsk.UUID,
		UserID:     target,
		AssignedBy: creator,
		Role:       task.RoleAssignee,
		Status:     task.AssignmentPending,
	}
	require.NoError(t, s.CreateAssignment(ctx, a, task.AssignmentCreated(a, "target")))

	dup := &task.Assignment{
		UUID:       uuid.New(),
		TaskID:     tsk.UUID,
		UserID:     target,
		AssignedBy: creator,
		Role:       task.RoleReviewer,
		Status:     task.AssignmentPending,
	}
	err := s.CreateAssignment(ctx, dup, task.AssignmentCreated(dup, "target"))
	assert.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestStorage_GetAssignedTasks_OnlyAccepted(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	creator := uuid.New()
	assignee := uuid.New()

	tsk := createTask(t, s, creator)

	a := &task.Assignment{
		UUID:       uuid.New(),
		TaskID:     tsk.UUID,
		UserID:     assignee,
		AssignedBy: creator,
		Role:       task.RoleAssignee,
		Status:     task.AssignmentPending,
	}
	require.NoError(t, s.CreateAssignment(ctx, a, task.AssignmentCreated(a, "assignee")))

	// pending не попадает в "назначенные мне"
	tasks, err := s.GetAssignedTasks(ctx, assignee, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	accepted := *a
	accepted.Status = task.AssignmentAccepted
	require.NoError(t, s.UpdateAssignmentStatus(ctx, &accepted, task.AssignmentStatusChanged(&accepted, task.AssignmentPending)))

	tasks, err = s.GetAssignedTasks(ctx, assignee, 1, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, tsk.UUID, tasks[0].UUID)
}

func TestStorage_DeleteAssignment(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	creator := uuid.New()

	tsk := createTask(t, s, creator)

	// снять несуществующее назначение нельзя
	err := s.DeleteAssignment(ctx, tsk.UUID, uuid.New())
	assert.ErrorIs(t, err, repo.ErrNotFound)

	// снять владельца можно
	require.NoError(t, s.DeleteAssignment(ctx, tsk.UUID, creator))

	assignments, err := s.GetTaskAssignments(ctx, tsk.UUID)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestStorage_Comments(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	creator := uuid.New()

	tsk := createTask(t, s, creator)

	first := &task.Comment{UUID: uuid.New(), TaskID: tsk.UUID, AuthorID: creator, Content: "первый"}
	require.NoError(t, s.CreateComment(ctx, first))

	second := &task.Comment{UUID: uuid.New(), TaskID: tsk.UUID, AuthorID: creator, Content: "второй"}
	require.NoError(t, s.CreateComment(ctx, second))

	comments, err := s.GetTaskComments(ctx, tsk.UUID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	// комментарии в хронологическом порядке
	assert.Equal(t, "первый", comments[0].Content)
	assert.Equal(t, "второй", comments[1].Content)
}

func TestStorage_UpdateComment(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	creator := uuid.New()

	tsk := createTask(t, s, creator)

	c := &task.Comment{UUID: uuid.New(), TaskID: tsk.UUID, AuthorID: creator, Content: "черновик"}
	require.NoError(t, s.CreateComment(ctx, c))
	assert.False(t, c.IsEdited)

	edited := *c
	edited.Content = "исправлено"
	require.NoError(t, s.UpdateComment(ctx, &edited))
	assert.True(t, edited.IsEdited)
	require.NotNil(t, edited.UpdatedAt)

	got, err := s.GetCommentByID(ctx, c.UUID)
	require.NoError(t, err)
	assert.Equal(t, "исправлено", got.Content)
	assert.True(t, got.IsEdited)

	// несуществующий комментарий
	ghost := &task.Comment{UUID: uuid.New(), Content: "нет"}
	assert.ErrorIs(t, s.UpdateComment(ctx, ghost), repo.ErrNotFound)

	_, err = s.GetCommentByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestStorage_Users(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()

	u := &task.User{UUID: uuid.New(), Username: "ivan", IsActive: true}
	require.NoError(t, s.CreateUser(ctx, u))

	// дубликат username
	dup := &task.User{UUID: uuid.New(), Username: "ivan"}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), repo.ErrDuplicate)

	got, err := s.GetUserByUsername(ctx, "ivan")
	require.NoError(t, err)
	assert.Equal(t, u.UUID, got.UUID)

	_, err = s.GetUserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	// деактивация убирает из списка активных
	got.IsActive = false
	require.NoError(t, s.UpdateUser(ctx, got))

	active, err := s.GetActiveUsers(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestStorage_Pagination(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	creator := uuid.New()

	for i := 0; i < 5; i++ {
		createTask(t, s, creator)
	}

	page1, err := s.GetCreatedTasks(ctx, creator, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page3, err := s.GetCreatedTasks(ctx, creator, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	empty, err := s.GetCreatedTasks(ctx, creator, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
