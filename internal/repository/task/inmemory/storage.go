package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskhub/internal/models/task"
	repo "taskhub/internal/repository"

	"github.com/google/uuid"
)

// Storage - потокобезопасное хранилище в памяти. Повторяет контракт
// postgres-хранилища, включая атомарность "изменение + история":
// всё выполняется под одной блокировкой.
type Storage struct {
	mtx         sync.RWMutex
	tasks       map[uuid.UUID]*task.Task
	assignments map[uuid.UUID]*task.Assignment
	comments    map[uuid.UUID]*task.Comment
	history     map[uuid.UUID]*task.History
	users       map[uuid.UUID]*task.User
}

func New() *Storage {
	return &Storage{
		tasks:       make(map[uuid.UUID]*task.Task),
		assignments: make(map[uuid.UUID]*task.Assignment),
		comments:    make(map[uuid.UUID]*task.Comment),
		history:     make(map[uuid.UUID]*task.History),
		users:       make(map[uuid.UUID]*task.User),
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// видимость без блокировки - вызывающий уже держит mtx
func (s *Storage) isVisibleLocked(taskID, userID uuid.UUID) bool {
	t, ok := s.tasks[taskID]
	if !ok || t.IsDeleted() {
		return false
	}
	if t.CreatedBy == userID {
		return true
	}
	for _, a := range s.assignments {
		if a.TaskID == taskID && a.UserID == userID {
			return true
		}
	}
	return false
}

func (s *Storage) findAssignmentLocked(taskID, userID uuid.UUID) *task.Assignment {
	for _, a := range s.assignments {
		if a.TaskID == taskID && a.UserID == userID {
			return a
		}
	}
	return nil
}

func (s *Storage) CreateTask(ctx context.Context, t *task.Task, owner *task.Assignment, entry *task.History) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t.CreatedAt = time.Now()
	t.Version = 1
	s.tasks[t.UUID] = t.Clone()

	// идемпотентное создание назначения владельца
	if s.findAssignmentLocked(owner.TaskID, owner.UserID) == nil {
		s.assignments[owner.UUID] = owner
		s.history[entry.UUID] = entry
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *Storage) UpdateTask(ctx context.Context, t *task.Task, entries []*task.History) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.tasks[t.UUID]
	if !ok {
		return repo.ErrNotFound
	}
	if existing.Version != t.Version {
		return repo.ErrVersionConflict
	}

	now := time.Now()
	t.UpdatedAt = &now
	t.Version++
	s.tasks[t.UUID] = t.Clone()

	for _, entry := range entries {
		s.history[entry.UUID] = entry
	}
	return nil
}

func (s *Storage) GetVisibleTasks(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	tasks := []*task.Task{}
	for id, t := range s.tasks {
		if s.isVisibleLocked(id, userID) {
			tasks = append(tasks, t.Clone())
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return paginate(tasks, page, limit), nil
}

func (s *Storage) GetCreatedTasks(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	tasks := []*task.Task{}
	for _, t := range s.tasks {
		if t.CreatedBy == userID && !t.IsDeleted() {
			tasks = append(tasks, t.Clone())
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return paginate(tasks, page, limit), nil
}

func (s *Storage) GetAssignedTasks(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	tasks := []*task.Task{}
	for _, a := range s.assignments {
		if a.UserID != userID || a.Status != task.AssignmentAccepted {
			continue
		}
		if t, ok := s.tasks[a.TaskID]; ok && !t.IsDeleted() {
			tasks = append(tasks, t.Clone())
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return paginate(tasks, page, limit), nil
}

func (s *Storage) IsTaskVisible(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.isVisibleLocked(taskID, userID), nil
}

func (s *Storage) CreateAssignment(ctx context.Context, a *task.Assignment, entry *task.History) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.findAssignmentLocked(a.TaskID, a.UserID) != nil {
		return repo.ErrDuplicate
	}

	a.AssignedAt = time.Now()
	s.assignments[a.UUID] = a
	s.history[entry.UUID] = entry
	return nil
}

func (s *Storage) GetAssignmentByID(ctx context.Context, id uuid.UUID) (*task.Assignment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	a, ok := s.assignments[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *Storage) GetAssignment(ctx context.Context, taskID, userID uuid.UUID) (*task.Assignment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	a := s.findAssignmentLocked(taskID, userID)
	if a == nil {
		return nil, repo.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *Storage) UpdateAssignmentStatus(ctx context.Context, a *task.Assignment, entry *task.History) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.assignments[a.UUID]
	if !ok {
		return repo.ErrNotFound
	}

	now := time.Now()
	existing.Status = a.Status
	existing.UpdatedAt = &now
	a.UpdatedAt = &now

	if entry != nil {
		s.history[entry.UUID] = entry
	}
	return nil
}

func (s *Storage) DeleteAssignment(ctx context.Context, taskID, userID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	a := s.findAssignmentLocked(taskID, userID)
	if a == nil {
		return repo.ErrNotFound
	}
	delete(s.assignments, a.UUID)
	return nil
}

func (s *Storage) GetTaskAssignments(ctx context.Context, taskID uuid.UUID) ([]*task.Assignment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	assignments := []*task.Assignment{}
	for _, a := range s.assignments {
		if a.TaskID == taskID {
			copied := *a
			assignments = append(assignments, &copied)
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].AssignedAt.Before(assignments[j].AssignedAt)
	})
	return assignments, nil
}

func (s *Storage) GetVisibleAssignments(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Assignment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	assignments := []*task.Assignment{}
	for _, a := range s.assignments {
		if s.isVisibleLocked(a.TaskID, userID) {
			copied := *a
			assignments = append(assignments, &copied)
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].AssignedAt.After(assignments[j].AssignedAt)
	})
	return paginate(assignments, page, limit), nil
}

func (s *Storage) CreateComment(ctx context.Context, c *task.Comment) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	c.CreatedAt = time.Now()
	s.comments[c.UUID] = c
	return nil
}

func (s *Storage) GetCommentByID(ctx context.Context, id uuid.UUID) (*task.Comment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *Storage) UpdateComment(ctx context.Context, c *task.Comment) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.comments[c.UUID]
	if !ok {
		return repo.ErrNotFound
	}

	now := time.Now()
	existing.Content = c.Content
	existing.IsEdited = true
	existing.UpdatedAt = &now
	c.IsEdited = true
	c.UpdatedAt = &now
	return nil
}

func (s *Storage) GetTaskComments(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	comments := []*task.Comment{}
	for _, c := range s.comments {
		if c.TaskID == taskID {
			copied := *c
			comments = append(comments, &copied)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (s *Storage) GetVisibleComments(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Comment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	comments := []*task.Comment{}
	for _, c := range s.comments {
		if s.isVisibleLocked(c.TaskID, userID) {
			copied := *c
			comments = append(comments, &copied)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return paginate(comments, page, limit), nil
}

func (s *Storage) GetTaskHistory(ctx context.Context, taskID uuid.UUID) ([]*task.History, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	entries := []*task.History{}
	for _, entry := range s.history {
		if entry.TaskID == taskID {
			copied := *entry
			entries = append(entries, &copied)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ChangedAt.After(entries[j].ChangedAt)
	})
	return entries, nil
}

func (s *Storage) CreateUser(ctx context.Context, u *task.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return repo.ErrDuplicate
		}
	}

	u.DateJoined = time.Now()
	s.users[u.UUID] = u
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*task.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*task.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *Storage) UpdateUser(ctx context.Context, u *task.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.users[u.UUID]; !ok {
		return repo.ErrNotFound
	}
	copied := *u
	s.users[u.UUID] = &copied
	return nil
}

func (s *Storage) GetActiveUsers(ctx context.Context, page, limit int) ([]*task.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	users := []*task.User{}
	for _, u := range s.users {
		if u.IsActive {
			copied := *u
			users = append(users, &copied)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].DateJoined.After(users[j].DateJoined)
	})
	return paginate(users, page, limit), nil
}
